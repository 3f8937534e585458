package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/rainelab/companion-backend-go/internal/models"
	"github.com/rainelab/companion-backend-go/internal/repository"
	"github.com/rainelab/companion-backend-go/internal/spatial"
)

// atPlaceRadiusMeters excludes places the user is currently at from the
// candidate destinations.
const atPlaceRadiusMeters = 100.0

// PredictionService predicts the most likely destination from the known-place
// table and time-of-day heuristics.
type PredictionService struct {
	places *repository.PlaceRepository
}

// NewPredictionService creates a new prediction service
func NewPredictionService(places *repository.PlaceRepository) *PredictionService {
	return &PredictionService{places: places}
}

// Predict returns the predicted destination for the current position, or nil
// when no known place qualifies. A nil result is not an error.
func (s *PredictionService) Predict(lat, lon float64, now time.Time) (*models.Prediction, error) {
	places, err := s.places.All()
	if err != nil {
		return nil, fmt.Errorf("failed to load known places: %w", err)
	}
	if len(places) == 0 {
		return nil, nil
	}

	// Storage order is visit_count descending and stable, which also decides
	// the fallback tie break below.
	candidates := make([]models.Prediction, 0, len(places))
	for _, place := range places {
		dist := spatial.HaversineDistance(lat, lon, place.Latitude, place.Longitude)
		if dist <= atPlaceRadiusMeters {
			continue
		}
		candidates = append(candidates, models.Prediction{Place: place, DistanceMeters: dist})
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	hour := now.Hour()
	day := models.WeekdayIndex(now)

	// Weekday morning: likely heading to work or school.
	if hour >= 6 && hour <= 9 && day < 5 {
		for _, c := range candidates {
			if strings.Contains(c.Place.Name, "Work") || strings.Contains(c.Place.Name, "School") {
				c := c
				return &c, nil
			}
		}
	} else if hour >= 16 && hour <= 20 && day < 5 {
		// Weekday evening: likely heading home.
		for _, c := range candidates {
			if strings.Contains(c.Place.Name, "Home") {
				c := c
				return &c, nil
			}
		}
	}

	// Default: the most frequently visited remaining place.
	best := candidates[0]
	return &best, nil
}
