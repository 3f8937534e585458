package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rainelab/companion-backend-go/internal/models"
	"github.com/rainelab/companion-backend-go/internal/repository"
)

func seedPlace(t *testing.T, repo *repository.PlaceRepository, name string, lat, lon float64, visits int) {
	t.Helper()
	for i := 0; i < visits; i++ {
		_, err := repo.Upsert(models.PlaceCandidate{Name: name, Latitude: lat, Longitude: lon}, time.Now())
		require.NoError(t, err)
	}
}

func TestPredictNoKnownPlaces(t *testing.T) {
	places := repository.NewPlaceRepository(openTestDB(t))
	svc := NewPredictionService(places)

	prediction, err := svc.Predict(40.0, -74.0, time.Now())
	require.NoError(t, err)
	require.Nil(t, prediction)
}

func TestPredictExcludesCurrentPlace(t *testing.T) {
	places := repository.NewPlaceRepository(openTestDB(t))
	svc := NewPredictionService(places)

	seedPlace(t, places, "Home", 40.0, -74.0, 1)

	// Query from the place centroid itself: the user is already there.
	prediction, err := svc.Predict(40.0, -74.0, time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Nil(t, prediction)
}

func TestPredictWeekdayMorningPrefersWork(t *testing.T) {
	places := repository.NewPlaceRepository(openTestDB(t))
	svc := NewPredictionService(places)

	// Both roughly 2km from the query position, Home visited more often.
	seedPlace(t, places, "Home", 40.018, -74.0, 5)
	seedPlace(t, places, "Work/School", 39.982, -74.0, 2)

	monday8am := time.Date(2026, 8, 24, 8, 0, 0, 0, time.UTC)
	prediction, err := svc.Predict(40.0, -74.0, monday8am)
	require.NoError(t, err)
	require.NotNil(t, prediction)
	require.Equal(t, "Work/School", prediction.Place.Name)
	require.Greater(t, prediction.DistanceMeters, 100.0)
}

func TestPredictWeekdayEveningPrefersHome(t *testing.T) {
	places := repository.NewPlaceRepository(openTestDB(t))
	svc := NewPredictionService(places)

	seedPlace(t, places, "Home", 40.018, -74.0, 2)
	seedPlace(t, places, "Work/School", 39.982, -74.0, 5)

	monday6pm := time.Date(2026, 8, 24, 18, 0, 0, 0, time.UTC)
	prediction, err := svc.Predict(40.0, -74.0, monday6pm)
	require.NoError(t, err)
	require.NotNil(t, prediction)
	require.Equal(t, "Home", prediction.Place.Name)
}

func TestPredictFallsBackToMostVisited(t *testing.T) {
	places := repository.NewPlaceRepository(openTestDB(t))
	svc := NewPredictionService(places)

	seedPlace(t, places, "Weekend Location", 40.018, -74.0, 4)
	seedPlace(t, places, "Unknown Place", 39.982, -74.0, 2)

	// Midday weekday matches neither time rule.
	monday12 := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	prediction, err := svc.Predict(40.0, -74.0, monday12)
	require.NoError(t, err)
	require.NotNil(t, prediction)
	require.Equal(t, "Weekend Location", prediction.Place.Name)
}

func TestPredictMorningRuleOnWeekendIgnored(t *testing.T) {
	places := repository.NewPlaceRepository(openTestDB(t))
	svc := NewPredictionService(places)

	seedPlace(t, places, "Home", 40.018, -74.0, 5)
	seedPlace(t, places, "Work/School", 39.982, -74.0, 2)

	saturday8am := time.Date(2026, 8, 22, 8, 0, 0, 0, time.UTC)
	prediction, err := svc.Predict(40.0, -74.0, saturday8am)
	require.NoError(t, err)
	require.NotNil(t, prediction)
	require.Equal(t, "Home", prediction.Place.Name)
}
