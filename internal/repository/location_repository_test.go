package repository

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rainelab/companion-backend-go/internal/database"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestAppendDerivesDayAndHour(t *testing.T) {
	repo := NewLocationRepository(openTestDB(t))

	// 2026-08-24 is a Monday.
	ts := time.Date(2026, 8, 24, 19, 30, 0, 0, time.UTC)
	sample, err := repo.Append(40.0, -74.0, nil, ts)
	require.NoError(t, err)
	require.Equal(t, 0, sample.DayOfWeek)
	require.Equal(t, 19, sample.HourOfDay)

	// Sunday maps to index 6.
	ts = time.Date(2026, 8, 23, 9, 0, 0, 0, time.UTC)
	sample, err = repo.Append(40.0, -74.0, nil, ts)
	require.NoError(t, err)
	require.Equal(t, 6, sample.DayOfWeek)
}

func TestAppendRejectsInvalidCoordinates(t *testing.T) {
	repo := NewLocationRepository(openTestDB(t))

	_, err := repo.Append(95.0, 10.0, nil, time.Now())
	require.ErrorIs(t, err, ErrInvalidCoordinate)

	_, err = repo.Append(45.0, 200.0, nil, time.Now())
	require.ErrorIs(t, err, ErrInvalidCoordinate)

	count, err := repo.Count()
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestRecentReturnsWindowMostRecentFirst(t *testing.T) {
	repo := NewLocationRepository(openTestDB(t))

	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	old := now.Add(-48 * time.Hour)
	mid := now.Add(-2 * time.Hour)
	recent := now.Add(-10 * time.Minute)

	for _, ts := range []time.Time{old, mid, recent} {
		_, err := repo.Append(40.0, -74.0, nil, ts)
		require.NoError(t, err)
	}

	samples, err := repo.Recent(24*time.Hour, now)
	require.NoError(t, err)
	require.Len(t, samples, 2)
	require.Equal(t, recent, samples[0].Timestamp)
	require.Equal(t, mid, samples[1].Timestamp)
}

func TestOrderingWithSubSecondTimestamps(t *testing.T) {
	repo := NewLocationRepository(openTestDB(t))

	// Fractional parts of different lengths must still sort chronologically
	// once stored.
	base := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	earlier := base.Add(120 * time.Millisecond)
	later := base.Add(125 * time.Millisecond)

	_, err := repo.Append(40.0, -74.0, nil, later)
	require.NoError(t, err)
	_, err = repo.Append(40.0, -74.0, nil, earlier)
	require.NoError(t, err)

	samples, err := repo.All()
	require.NoError(t, err)
	require.Len(t, samples, 2)
	require.Equal(t, later, samples[0].Timestamp)
	require.Equal(t, earlier, samples[1].Timestamp)

	// Window comparisons honor the sub-second boundary too.
	recent, err := repo.Recent(3*time.Millisecond, later.Add(time.Millisecond))
	require.NoError(t, err)
	require.Len(t, recent, 1)
	require.Equal(t, later, recent[0].Timestamp)
}

func TestPurgeOlderThan(t *testing.T) {
	repo := NewLocationRepository(openTestDB(t))

	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	_, err := repo.Append(40.0, -74.0, nil, now.AddDate(0, 0, -40))
	require.NoError(t, err)
	_, err = repo.Append(40.0, -74.0, nil, now.AddDate(0, 0, -1))
	require.NoError(t, err)

	deleted, err := repo.PurgeOlderThan(now.AddDate(0, 0, -30))
	require.NoError(t, err)
	require.EqualValues(t, 1, deleted)

	count, err := repo.Count()
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}

func TestAppendStoresAccuracy(t *testing.T) {
	repo := NewLocationRepository(openTestDB(t))

	acc := 12.5
	_, err := repo.Append(40.0, -74.0, &acc, time.Now())
	require.NoError(t, err)
	_, err = repo.Append(40.0, -74.0, nil, time.Now())
	require.NoError(t, err)

	samples, err := repo.All()
	require.NoError(t, err)
	require.Len(t, samples, 2)
	require.Nil(t, samples[0].Accuracy)
	require.NotNil(t, samples[1].Accuracy)
	require.Equal(t, 12.5, *samples[1].Accuracy)
}
