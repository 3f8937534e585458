package repository

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rainelab/companion-backend-go/internal/database"
	"github.com/rainelab/companion-backend-go/internal/models"
)

// PlaceRepository handles database operations for known places
type PlaceRepository struct {
	db *sql.DB

	// mu serializes Upsert. The proximity match is a read-modify-write; two
	// concurrent upserts of the same cluster could otherwise both miss the
	// match and insert duplicate places inside the proximity box.
	mu sync.Mutex
}

// NewPlaceRepository creates a new place repository
func NewPlaceRepository(db *sql.DB) *PlaceRepository {
	return &PlaceRepository{db: db}
}

// Upsert merges a cluster candidate into the known-place table. An existing
// place whose centroid lies within the componentwise proximity box gets its
// visit count incremented, its last-visited time and name updated; otherwise
// a new place is inserted with a fresh stable ID and visit count 1. This is
// the only place-mutation entry point.
func (r *PlaceRepository) Upsert(candidate models.PlaceCandidate, now time.Time) (*models.KnownPlace, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now = now.UTC()
	var result *models.KnownPlace

	err := database.Transaction(r.db, func(tx *sql.Tx) error {
		row := tx.QueryRow(
			`SELECT id, name, latitude, longitude, visit_count, last_visited
			 FROM known_places
			 WHERE ABS(latitude - ?) < ? AND ABS(longitude - ?) < ?
			 ORDER BY visit_count DESC LIMIT 1`,
			candidate.Latitude, models.ProximityThresholdDeg,
			candidate.Longitude, models.ProximityThresholdDeg,
		)

		existing, err := scanPlace(row)
		if err != nil && err != sql.ErrNoRows {
			return fmt.Errorf("failed to match known place: %w", err)
		}

		if existing != nil {
			existing.VisitCount++
			existing.LastVisited = now
			if candidate.Name != "" {
				existing.Name = candidate.Name
			}
			existing.Latitude = candidate.Latitude
			existing.Longitude = candidate.Longitude

			_, err := tx.Exec(
				`UPDATE known_places
				 SET name = ?, latitude = ?, longitude = ?, visit_count = ?, last_visited = ?
				 WHERE id = ?`,
				existing.Name, existing.Latitude, existing.Longitude,
				existing.VisitCount, now.Format(timeLayout), existing.ID,
			)
			if err != nil {
				return fmt.Errorf("failed to update known place: %w", err)
			}
			result = existing
			return nil
		}

		place := &models.KnownPlace{
			ID:          uuid.NewString(),
			Name:        candidate.Name,
			Latitude:    candidate.Latitude,
			Longitude:   candidate.Longitude,
			VisitCount:  1,
			LastVisited: now,
		}
		_, err = tx.Exec(
			`INSERT INTO known_places (id, name, latitude, longitude, visit_count, last_visited)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			place.ID, place.Name, place.Latitude, place.Longitude,
			place.VisitCount, now.Format(timeLayout),
		)
		if err != nil {
			return fmt.Errorf("failed to insert known place: %w", err)
		}
		result = place
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// All returns every known place ordered by descending visit count. Order is
// stable for equal counts (insertion order via rowid).
func (r *PlaceRepository) All() ([]models.KnownPlace, error) {
	rows, err := r.db.Query(
		`SELECT id, name, latitude, longitude, visit_count, last_visited
		 FROM known_places ORDER BY visit_count DESC, rowid ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query known places: %w", err)
	}
	defer rows.Close()

	var places []models.KnownPlace
	for rows.Next() {
		place, err := scanPlace(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan known place: %w", err)
		}
		places = append(places, *place)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating known places: %w", err)
	}

	return places, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPlace(row rowScanner) (*models.KnownPlace, error) {
	var p models.KnownPlace
	var lastVisited string
	if err := row.Scan(&p.ID, &p.Name, &p.Latitude, &p.Longitude, &p.VisitCount, &lastVisited); err != nil {
		return nil, err
	}
	ts, err := time.Parse(timeLayout, lastVisited)
	if err != nil {
		return nil, fmt.Errorf("failed to parse last_visited %q: %w", lastVisited, err)
	}
	p.LastVisited = ts
	return &p, nil
}
