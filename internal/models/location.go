package models

import "time"

// LocationSample represents a single raw GPS sample in the location ledger.
// Samples are immutable once written; DayOfWeek and HourOfDay are derived
// from Timestamp at ingestion time.
type LocationSample struct {
	ID        int64     `json:"id" db:"id"`
	Latitude  float64   `json:"latitude" db:"latitude"`
	Longitude float64   `json:"longitude" db:"longitude"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
	DayOfWeek int       `json:"dayOfWeek" db:"day_of_week"` // 0 = Monday .. 6 = Sunday
	HourOfDay int       `json:"hourOfDay" db:"hour_of_day"` // 0-23
	Accuracy  *float64  `json:"accuracy,omitempty" db:"accuracy"`
}

// WeekdayIndex converts a time to the 0=Monday..6=Sunday day index used
// throughout the pattern heuristics.
func WeekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// TrackRequest is the ingestion payload for POST /api/v1/location/track.
// Coordinates are pointers so a missing field is rejected while a legitimate
// 0.0 (equator, prime meridian) binds cleanly.
type TrackRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
	Accuracy  *float64 `json:"accuracy"`
}

// TrackResponse reports the ledger size and, once enough history exists,
// the predicted destination for this ping.
type TrackResponse struct {
	LocationCount        int64       `json:"locationCount"`
	PredictedDestination *Prediction `json:"predictedDestination,omitempty"`
}
