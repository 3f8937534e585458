package models

import "time"

// ProximityThresholdDeg is the componentwise centroid box used to decide
// that an incoming cluster refers to an already known place
// (0.002 degrees is roughly 200m at mid-latitudes).
const ProximityThresholdDeg = 0.002

// KnownPlace is a recurring location discovered by clustering. The ID is
// assigned at first insertion and stays stable across re-clustering runs;
// incoming clusters are matched to existing rows by centroid proximity only.
type KnownPlace struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Latitude    float64   `json:"latitude" db:"latitude"`
	Longitude   float64   `json:"longitude" db:"longitude"`
	VisitCount  int       `json:"visitCount" db:"visit_count"`
	LastVisited time.Time `json:"lastVisited" db:"last_visited"`
}

// PlaceCandidate is the upsert input produced by a clustering run.
type PlaceCandidate struct {
	Name      string
	Latitude  float64
	Longitude float64
}

// DiscoveredPlace is one cluster from a pattern recognition pass, before it
// is merged into the known-place table.
type DiscoveredPlace struct {
	Label       string  `json:"label"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	VisitCount  int     `json:"visitCount"`
	TypicalHour int     `json:"typicalHour"`
	TypicalDay  int     `json:"typicalDay"`
}

// Prediction is a predicted destination with the distance from the query
// position to the place centroid.
type Prediction struct {
	Place          KnownPlace `json:"place"`
	DistanceMeters float64    `json:"distanceMeters"`
}
