package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rainelab/companion-backend-go/internal/models"
	"github.com/rainelab/companion-backend-go/internal/repository"
	"github.com/rainelab/companion-backend-go/internal/weather"
)

// fakeWeather returns a fixed sample per rounded coordinate.
type fakeWeather struct {
	byLat map[float64]weather.Sample
	err   error
}

func (f *fakeWeather) Current(_ context.Context, lat, _ float64) (weather.Sample, error) {
	if f.err != nil {
		return weather.Sample{}, f.err
	}
	return f.byLat[lat], nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	titles []string
}

func (f *fakeNotifier) Notify(_ context.Context, title, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.titles = append(f.titles, title)
	return nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.titles)
}

func coord(lat, lon float64) models.TrackRequest {
	return models.TrackRequest{Latitude: &lat, Longitude: &lon}
}

func newTrackingFixture(t *testing.T, fw *fakeWeather, fn *fakeNotifier, cooldown time.Duration) (*TrackingService, *repository.PlaceRepository) {
	t.Helper()
	db := openTestDB(t)
	locations := repository.NewLocationRepository(db)
	places := repository.NewPlaceRepository(db)
	patterns := NewPatternService(locations, places)
	predictor := NewPredictionService(places)
	svc := NewTrackingService(locations, patterns, predictor, fw, fn, 1, 5*time.Second, cooldown)
	return svc, places
}

func TestShouldAlert(t *testing.T) {
	tests := []struct {
		name     string
		current  weather.Sample
		dest     weather.Sample
		expected bool
	}{
		{"large temp delta", weather.Sample{Temperature: 10}, weather.Sample{Temperature: 20}, true},
		{"temp drop", weather.Sample{Temperature: 20}, weather.Sample{Temperature: 10}, true},
		{"small deltas", weather.Sample{Temperature: 10}, weather.Sample{Temperature: 13}, false},
		{"rain at destination", weather.Sample{Precipitation: 0}, weather.Sample{Precipitation: 1.5}, true},
		{"rain here not there", weather.Sample{Precipitation: 5}, weather.Sample{Precipitation: 0}, false},
		{"boundary temp", weather.Sample{Temperature: 10}, weather.Sample{Temperature: 15}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, ShouldAlert(tt.current, tt.dest))
		})
	}
}

func TestRecordLocationRejectsInvalidCoordinate(t *testing.T) {
	fn := &fakeNotifier{}
	svc, _ := newTrackingFixture(t, &fakeWeather{}, fn, 0)

	_, err := svc.RecordLocation(context.Background(), coord(95, 10), time.Now())
	require.ErrorIs(t, err, repository.ErrInvalidCoordinate)
	require.Zero(t, fn.count())
}

func TestRecordLocationAcceptsZeroCoordinates(t *testing.T) {
	fn := &fakeNotifier{}
	svc, _ := newTrackingFixture(t, &fakeWeather{}, fn, 0)

	// Equator/prime meridian is a legitimate position, not a missing field.
	resp, err := svc.RecordLocation(context.Background(), coord(0, 0), time.Now())
	require.NoError(t, err)
	require.EqualValues(t, 1, resp.LocationCount)
}

func TestRecordLocationRejectsMissingCoordinates(t *testing.T) {
	fn := &fakeNotifier{}
	svc, _ := newTrackingFixture(t, &fakeWeather{}, fn, 0)

	_, err := svc.RecordLocation(context.Background(), models.TrackRequest{}, time.Now())
	require.ErrorIs(t, err, repository.ErrInvalidCoordinate)
}

func TestRecordLocationAlertsOnWeatherChange(t *testing.T) {
	fw := &fakeWeather{byLat: map[float64]weather.Sample{
		40.0:   {Temperature: 10},
		40.018: {Temperature: 20, Precipitation: 2},
	}}
	fn := &fakeNotifier{}
	svc, places := newTrackingFixture(t, fw, fn, 0)

	seedPlace(t, places, "Home", 40.018, -74.0, 3)

	monday6pm := time.Date(2026, 8, 24, 18, 0, 0, 0, time.UTC)
	resp, err := svc.RecordLocation(context.Background(), coord(40.0, -74.0), monday6pm)
	require.NoError(t, err)
	require.NotNil(t, resp.PredictedDestination)
	require.Equal(t, "Home", resp.PredictedDestination.Place.Name)
	require.Equal(t, 1, fn.count())
}

func TestRecordLocationNoAlertOnSimilarWeather(t *testing.T) {
	fw := &fakeWeather{byLat: map[float64]weather.Sample{
		40.0:   {Temperature: 10},
		40.018: {Temperature: 13},
	}}
	fn := &fakeNotifier{}
	svc, places := newTrackingFixture(t, fw, fn, 0)

	seedPlace(t, places, "Home", 40.018, -74.0, 3)

	monday6pm := time.Date(2026, 8, 24, 18, 0, 0, 0, time.UTC)
	_, err := svc.RecordLocation(context.Background(), coord(40.0, -74.0), monday6pm)
	require.NoError(t, err)
	require.Zero(t, fn.count())
}

func TestRecordLocationAlertCooldownSuppressesRepeats(t *testing.T) {
	fw := &fakeWeather{byLat: map[float64]weather.Sample{
		40.0:   {Temperature: 10},
		40.018: {Temperature: 20},
	}}
	fn := &fakeNotifier{}
	svc, places := newTrackingFixture(t, fw, fn, 30*time.Minute)

	seedPlace(t, places, "Home", 40.018, -74.0, 3)

	monday6pm := time.Date(2026, 8, 24, 18, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := svc.RecordLocation(context.Background(),
			coord(40.0, -74.0), monday6pm.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}
	require.Equal(t, 1, fn.count())

	// Past the cooldown the same destination alerts again.
	_, err := svc.RecordLocation(context.Background(),
		coord(40.0, -74.0), monday6pm.Add(45*time.Minute))
	require.NoError(t, err)
	require.Equal(t, 2, fn.count())
}

func TestRecordLocationWithoutCooldownAlertsEveryPing(t *testing.T) {
	fw := &fakeWeather{byLat: map[float64]weather.Sample{
		40.0:   {Temperature: 10},
		40.018: {Temperature: 20},
	}}
	fn := &fakeNotifier{}
	svc, places := newTrackingFixture(t, fw, fn, 0)

	seedPlace(t, places, "Home", 40.018, -74.0, 3)

	monday6pm := time.Date(2026, 8, 24, 18, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := svc.RecordLocation(context.Background(),
			coord(40.0, -74.0), monday6pm.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}
	require.Equal(t, 3, fn.count())
}
