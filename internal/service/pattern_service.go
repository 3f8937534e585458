package service

import (
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/rainelab/companion-backend-go/internal/models"
	"github.com/rainelab/companion-backend-go/internal/repository"
)

// Clustering parameters. eps is in raw degrees (no great-circle correction),
// roughly 500m at mid-latitudes.
const (
	clusterEps     = 0.005
	clusterMinPts  = 3
	minSampleCount = 10
)

// PatternService turns the raw sample ledger into the known-place table via
// density-based clustering.
type PatternService struct {
	locations *repository.LocationRepository
	places    *repository.PlaceRepository
}

// NewPatternService creates a new pattern service
func NewPatternService(locations *repository.LocationRepository, places *repository.PlaceRepository) *PatternService {
	return &PatternService{locations: locations, places: places}
}

// AnalyzePatterns runs one clustering pass over a snapshot of the full
// retained history and merges the discovered clusters into the known-place
// table. With fewer than 10 samples it is a no-op returning an empty result.
func (s *PatternService) AnalyzePatterns(now time.Time) ([]models.DiscoveredPlace, error) {
	samples, err := s.locations.All()
	if err != nil {
		return nil, fmt.Errorf("failed to load location history: %w", err)
	}

	if len(samples) < minSampleCount {
		log.Printf("[Pattern] not enough location data for pattern recognition (%d of %d points)",
			len(samples), minSampleCount)
		return nil, nil
	}

	labels := dbscan(samples, clusterEps, clusterMinPts)

	// Group members by cluster in first-encounter order. Label numbering is
	// order-dependent; only membership is meaningful.
	order := make([]int, 0)
	members := make(map[int][]models.LocationSample)
	for i, label := range labels {
		if label < 0 {
			continue
		}
		if _, ok := members[label]; !ok {
			order = append(order, label)
		}
		members[label] = append(members[label], samples[i])
	}

	discovered := make([]models.DiscoveredPlace, 0, len(order))
	for _, label := range order {
		points := members[label]

		var latSum, lonSum float64
		hours := make([]int, 0, len(points))
		days := make([]int, 0, len(points))
		for _, p := range points {
			latSum += p.Latitude
			lonSum += p.Longitude
			hours = append(hours, p.HourOfDay)
			days = append(days, p.DayOfWeek)
		}

		typicalHour := modeSmallest(hours)
		typicalDay := modeSmallest(days)

		discovered = append(discovered, models.DiscoveredPlace{
			Label:       guessPlaceLabel(typicalHour, typicalDay),
			Latitude:    latSum / float64(len(points)),
			Longitude:   lonSum / float64(len(points)),
			VisitCount:  len(points),
			TypicalHour: typicalHour,
			TypicalDay:  typicalDay,
		})
	}

	// Most-visited cluster is labeled Home, second Work/School, regardless of
	// the time-based guess.
	sort.SliceStable(discovered, func(i, j int) bool {
		return discovered[i].VisitCount > discovered[j].VisitCount
	})
	if len(discovered) > 0 {
		discovered[0].Label = "Home"
	}
	if len(discovered) > 1 {
		discovered[1].Label = "Work/School"
	}

	for _, place := range discovered {
		if _, err := s.places.Upsert(models.PlaceCandidate{
			Name:      place.Label,
			Latitude:  place.Latitude,
			Longitude: place.Longitude,
		}, now); err != nil {
			return nil, fmt.Errorf("failed to upsert place %q: %w", place.Label, err)
		}
	}

	log.Printf("[Pattern] recognized %d frequent places from %d samples", len(discovered), len(samples))
	return discovered, nil
}

// guessPlaceLabel maps visit timing to a semantic label. Precedence matters:
// first match wins.
func guessPlaceLabel(hour, day int) string {
	switch {
	case hour >= 18 && hour <= 23 && day < 5:
		return "Home"
	case hour >= 8 && hour <= 17 && day < 5:
		return "Work/School"
	case day >= 5:
		return "Weekend Location"
	default:
		return "Unknown Place"
	}
}

// modeSmallest returns the most frequent value; ties resolve to the smallest
// value so repeated runs on identical input are reproducible.
func modeSmallest(values []int) int {
	counts := make(map[int]int)
	for _, v := range values {
		counts[v]++
	}
	best, bestCount := 0, -1
	for v, c := range counts {
		if c > bestCount || (c == bestCount && v < best) {
			best, bestCount = v, c
		}
	}
	return best
}

const (
	labelUnclassified = -2
	labelNoise        = -1
)

// dbscan assigns a cluster label to each sample, or -1 for noise. Distance
// is Euclidean on raw degrees; a point is a core point when its eps
// neighborhood (including itself) holds at least minPts samples.
func dbscan(points []models.LocationSample, eps float64, minPts int) []int {
	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = labelUnclassified
	}

	cluster := 0
	for i := range points {
		if labels[i] != labelUnclassified {
			continue
		}

		neighbors := regionQuery(points, i, eps)
		if len(neighbors) < minPts {
			labels[i] = labelNoise
			continue
		}

		labels[i] = cluster
		queue := append([]int(nil), neighbors...)
		for qi := 0; qi < len(queue); qi++ {
			j := queue[qi]
			if labels[j] == labelNoise {
				// Border point reachable from a core point.
				labels[j] = cluster
			}
			if labels[j] != labelUnclassified {
				continue
			}
			labels[j] = cluster
			expanded := regionQuery(points, j, eps)
			if len(expanded) >= minPts {
				queue = append(queue, expanded...)
			}
		}
		cluster++
	}

	return labels
}

// regionQuery returns the indices of all points within eps of points[i],
// including i itself.
func regionQuery(points []models.LocationSample, i int, eps float64) []int {
	var out []int
	for j := range points {
		dlat := points[i].Latitude - points[j].Latitude
		dlon := points[i].Longitude - points[j].Longitude
		if dlat*dlat+dlon*dlon <= eps*eps {
			out = append(out, j)
		}
	}
	return out
}
