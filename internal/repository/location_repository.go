package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rainelab/companion-backend-go/internal/models"
)

// ErrInvalidCoordinate is returned when a sample's latitude or longitude is
// out of range.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// timeLayout is the stored timestamp format: RFC3339 in UTC with the
// fractional part padded to nine digits, so every value is the same width and
// string comparison in SQL matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// LocationRepository handles database operations for the location ledger
type LocationRepository struct {
	db *sql.DB
}

// NewLocationRepository creates a new location repository
func NewLocationRepository(db *sql.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

// Append validates and inserts a new sample. DayOfWeek and HourOfDay are
// derived from the sample timestamp; the write is durable before return.
func (r *LocationRepository) Append(lat, lon float64, accuracy *float64, ts time.Time) (*models.LocationSample, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, fmt.Errorf("%w: lat=%f lon=%f", ErrInvalidCoordinate, lat, lon)
	}

	ts = ts.UTC()
	sample := &models.LocationSample{
		Latitude:  lat,
		Longitude: lon,
		Timestamp: ts,
		DayOfWeek: models.WeekdayIndex(ts),
		HourOfDay: ts.Hour(),
		Accuracy:  accuracy,
	}

	var acc sql.NullFloat64
	if accuracy != nil {
		acc = sql.NullFloat64{Float64: *accuracy, Valid: true}
	}

	res, err := r.db.Exec(
		`INSERT INTO location_history (latitude, longitude, timestamp, day_of_week, hour_of_day, accuracy)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sample.Latitude, sample.Longitude, ts.Format(timeLayout),
		sample.DayOfWeek, sample.HourOfDay, acc,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert location sample: %w", err)
	}

	sample.ID, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read sample id: %w", err)
	}

	return sample, nil
}

// Recent returns samples newer than now-window, most recent first.
func (r *LocationRepository) Recent(window time.Duration, now time.Time) ([]models.LocationSample, error) {
	cutoff := now.UTC().Add(-window).Format(timeLayout)
	return r.query(
		`SELECT id, latitude, longitude, timestamp, day_of_week, hour_of_day, accuracy
		 FROM location_history WHERE timestamp >= ? ORDER BY timestamp DESC, id DESC`,
		cutoff,
	)
}

// All returns the full retained history, most recent first.
func (r *LocationRepository) All() ([]models.LocationSample, error) {
	return r.query(
		`SELECT id, latitude, longitude, timestamp, day_of_week, hour_of_day, accuracy
		 FROM location_history ORDER BY timestamp DESC, id DESC`,
	)
}

// Count returns the total number of retained samples.
func (r *LocationRepository) Count() (int64, error) {
	var count int64
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM location_history`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count location samples: %w", err)
	}
	return count, nil
}

// PurgeOlderThan deletes samples with timestamp < cutoff and returns the
// number of deleted rows. Irreversible.
func (r *LocationRepository) PurgeOlderThan(cutoff time.Time) (int64, error) {
	res, err := r.db.Exec(
		`DELETE FROM location_history WHERE timestamp < ?`,
		cutoff.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to purge location samples: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read purge row count: %w", err)
	}
	return deleted, nil
}

func (r *LocationRepository) query(query string, args ...interface{}) ([]models.LocationSample, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query location samples: %w", err)
	}
	defer rows.Close()

	var samples []models.LocationSample
	for rows.Next() {
		var s models.LocationSample
		var ts string
		var acc sql.NullFloat64
		if err := rows.Scan(&s.ID, &s.Latitude, &s.Longitude, &ts, &s.DayOfWeek, &s.HourOfDay, &acc); err != nil {
			return nil, fmt.Errorf("failed to scan location sample: %w", err)
		}
		s.Timestamp, err = time.Parse(timeLayout, ts)
		if err != nil {
			return nil, fmt.Errorf("failed to parse sample timestamp %q: %w", ts, err)
		}
		if acc.Valid {
			v := acc.Float64
			s.Accuracy = &v
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating location samples: %w", err)
	}

	return samples, nil
}
