package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/rainelab/companion-backend-go/internal/models"
	"github.com/rainelab/companion-backend-go/internal/notify"
	"github.com/rainelab/companion-backend-go/internal/repository"
	"github.com/rainelab/companion-backend-go/internal/weather"
)

// Alert thresholds: a destination counts as "notably different" when the
// temperature differs by more than 5°C or it rains more than 1mm harder.
const (
	alertTempDeltaC    = 5.0
	alertPrecipDeltaMM = 1.0
)

// TrackingService orchestrates location ingestion: persist the sample, run
// pattern recognition once enough history exists, predict the destination and
// decide whether a proactive weather alert is warranted.
type TrackingService struct {
	locations *repository.LocationRepository
	patterns  *PatternService
	predictor *PredictionService
	weather   weather.Source
	notifier  notify.Notifier

	clusterTrigger int64
	weatherTimeout time.Duration

	// alertCooldown > 0 suppresses repeat alerts for the same predicted place
	// within the window; 0 evaluates every ping independently.
	alertCooldown time.Duration
	alerted       *notify.DedupRegistry
}

// NewTrackingService creates a new tracking service
func NewTrackingService(
	locations *repository.LocationRepository,
	patterns *PatternService,
	predictor *PredictionService,
	weatherSrc weather.Source,
	notifier notify.Notifier,
	clusterTrigger int,
	weatherTimeout time.Duration,
	alertCooldown time.Duration,
) *TrackingService {
	return &TrackingService{
		locations:      locations,
		patterns:       patterns,
		predictor:      predictor,
		weather:        weatherSrc,
		notifier:       notifier,
		clusterTrigger: int64(clusterTrigger),
		weatherTimeout: weatherTimeout,
		alertCooldown:  alertCooldown,
		alerted:        notify.NewDedupRegistry(),
	}
}

// RecordLocation ingests one GPS sample. Pattern recognition, prediction and
// alerting failures are logged, never returned; only a rejected sample fails
// the call.
func (s *TrackingService) RecordLocation(ctx context.Context, req models.TrackRequest, now time.Time) (*models.TrackResponse, error) {
	if req.Latitude == nil || req.Longitude == nil {
		return nil, fmt.Errorf("%w: missing latitude or longitude", repository.ErrInvalidCoordinate)
	}
	lat, lon := *req.Latitude, *req.Longitude

	if _, err := s.locations.Append(lat, lon, req.Accuracy, now); err != nil {
		return nil, err
	}

	count, err := s.locations.Count()
	if err != nil {
		return nil, fmt.Errorf("failed to count samples: %w", err)
	}

	resp := &models.TrackResponse{LocationCount: count}
	if count < s.clusterTrigger {
		return resp, nil
	}

	if _, err := s.patterns.AnalyzePatterns(now); err != nil {
		log.Printf("[Tracking] pattern recognition failed: %v", err)
		return resp, nil
	}

	prediction, err := s.predictor.Predict(lat, lon, now)
	if err != nil {
		log.Printf("[Tracking] destination prediction failed: %v", err)
		return resp, nil
	}
	if prediction == nil {
		return resp, nil
	}

	resp.PredictedDestination = prediction
	s.evaluateAlert(ctx, lat, lon, prediction, now)
	return resp, nil
}

// History returns samples from the last window hours, most recent first.
func (s *TrackingService) History(hours int, now time.Time) ([]models.LocationSample, error) {
	if hours <= 0 {
		hours = 24
	}
	samples, err := s.locations.Recent(time.Duration(hours)*time.Hour, now)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent samples: %w", err)
	}
	return samples, nil
}

// Purge deletes samples older than the given retention in days and returns
// the number of deleted rows.
func (s *TrackingService) Purge(days int, now time.Time) (int64, error) {
	if days <= 0 {
		days = 30
	}
	deleted, err := s.locations.PurgeOlderThan(now.AddDate(0, 0, -days))
	if err != nil {
		return 0, fmt.Errorf("failed to purge samples: %w", err)
	}
	log.Printf("[Tracking] purged %d samples older than %d days", deleted, days)
	return deleted, nil
}

// evaluateAlert fires a proactive weather alert for the predicted destination
// when the weather there is notably different from the current position.
func (s *TrackingService) evaluateAlert(ctx context.Context, lat, lon float64, prediction *models.Prediction, now time.Time) {
	key := "place|" + prediction.Place.ID
	if s.alertCooldown > 0 {
		s.alerted.Prune(now.Add(-s.alertCooldown))
		if s.alerted.Seen(key) {
			return
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.weatherTimeout)
	defer cancel()

	current, err := s.weather.Current(ctx, lat, lon)
	if err != nil {
		log.Printf("[Tracking] current weather fetch failed: %v", err)
		return
	}
	dest, err := s.weather.Current(ctx, prediction.Place.Latitude, prediction.Place.Longitude)
	if err != nil {
		log.Printf("[Tracking] destination weather fetch failed: %v", err)
		return
	}

	if !ShouldAlert(current, dest) {
		return
	}

	title := fmt.Sprintf("Weather Alert for %s", prediction.Place.Name)
	message := fmt.Sprintf("Heading to %s?\nWeather: %s", prediction.Place.Name, dest.Summary())
	if err := s.notifier.Notify(ctx, title, message); err != nil {
		log.Printf("[Tracking] alert notification failed: %v", err)
	}
	if s.alertCooldown > 0 {
		s.alerted.Mark(key, now)
	}
}

// ShouldAlert reports whether the destination weather differs enough from the
// current weather to warrant a proactive alert.
func ShouldAlert(current, destination weather.Sample) bool {
	tempDelta := math.Abs(destination.Temperature - current.Temperature)
	precipDelta := destination.Precipitation - current.Precipitation
	return tempDelta > alertTempDeltaC || precipDelta > alertPrecipDeltaMM
}
