// Package repository provides data access implementations
package repository

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/mpetrov/wait-times-bot/internal/entities"
	_ "github.com/mattn/go-sqlite3"
)

// ApplyResult reports what a batch application did: how many observations
// were inserted and how many were dropped as duplicates of rows already
// present (the idempotence path for retried or overlapping runs).
type ApplyResult struct {
	Observations int
	Duplicates   int
}

// ParkStatus is the last successful observation time for one park.
// LastObservedAt is the zero time when the park has no observations yet.
type ParkStatus struct {
	Park           entities.Park
	LastObservedAt time.Time
}

// RideWaitTime is the read model for one ride's latest wait status,
// used by presentation surfaces.
type RideWaitTime struct {
	RideName    string
	LandName    string
	WaitMinutes *int64
	IsOpen      bool
	ObservedAt  time.Time
}

// WaitTimeRepository defines the interface for wait-time persistence operations
type WaitTimeRepository interface {
	ApplyBatch(batch entities.NormalizedBatch) (ApplyResult, error)
	ParkStatuses() ([]ParkStatus, error)
	LatestParkWaitTimes(parkName string) ([]RideWaitTime, error)
	ListParks() ([]entities.Park, error)
	RideCount() (int, error)
	ObservationCount() (int, error)
	Close() error
}

// SQLiteWaitTimeRepository implements WaitTimeRepository using SQLite
type SQLiteWaitTimeRepository struct {
	db     *sql.DB
	DBPath string
}

// NewSQLiteWaitTimeRepository creates and initializes a new SQLite repository
func NewSQLiteWaitTimeRepository(dbPath string) (*SQLiteWaitTimeRepository, error) {
	if dbPath == "" {
		// Set default path if not specified
		dbDir := "data"
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %v", err)
		}
		dbPath = filepath.Join(dbDir, "wait_times.db")
	} else if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %v", err)
		}
	}

	log.Printf("Opening database at %s", dbPath)
	// Foreign keys keep observations attached to real rides; the busy
	// timeout serializes overlapping collection runs instead of failing them.
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS parks (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS lands (
		id INTEGER PRIMARY KEY,
		park_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		FOREIGN KEY (park_id) REFERENCES parks(id)
	);
	CREATE TABLE IF NOT EXISTS rides (
		id INTEGER PRIMARY KEY,
		land_id INTEGER,
		park_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		FOREIGN KEY (land_id) REFERENCES lands(id),
		FOREIGN KEY (park_id) REFERENCES parks(id)
	);
	CREATE TABLE IF NOT EXISTS wait_times (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ride_id INTEGER NOT NULL,
		wait_time INTEGER,
		is_open BOOLEAN NOT NULL,
		observed_at TIMESTAMP NOT NULL,
		api_last_updated TEXT,
		day_of_week INTEGER NOT NULL,
		hour INTEGER NOT NULL,
		is_weekend BOOLEAN NOT NULL,
		UNIQUE(ride_id, observed_at),
		FOREIGN KEY (ride_id) REFERENCES rides(id)
	);
	CREATE INDEX IF NOT EXISTS idx_wait_times_observed_at ON wait_times(observed_at);
	CREATE INDEX IF NOT EXISTS idx_wait_times_ride_id ON wait_times(ride_id);`

	_, err = db.Exec(createTableSQL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %v", err)
	}

	return &SQLiteWaitTimeRepository{
		db:     db,
		DBPath: dbPath,
	}, nil
}

// Close closes the database connection
func (r *SQLiteWaitTimeRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ApplyBatch persists one park's normalized snapshot inside a single
// transaction: every dimension upsert and every observation insert commits
// together or not at all. Dimension rows are inserted by external id and
// only their name is updated on change, so re-applying a batch is a no-op.
// Observation inserts are guarded by the (ride_id, observed_at) uniqueness
// constraint; duplicates from retried or overlapping runs are dropped
// silently and counted in the result.
func (r *SQLiteWaitTimeRepository) ApplyBatch(batch entities.NormalizedBatch) (ApplyResult, error) {
	var result ApplyResult

	tx, err := r.db.Begin()
	if err != nil {
		return result, fmt.Errorf("failed to begin transaction: %v", err)
	}

	upsertPark, err := tx.Prepare(`
		INSERT INTO parks(id, name) VALUES(?, ?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name
		WHERE name<>excluded.name`)
	if err != nil {
		tx.Rollback()
		return result, fmt.Errorf("failed to prepare park upsert: %v", err)
	}
	defer upsertPark.Close()

	upsertLand, err := tx.Prepare(`
		INSERT INTO lands(id, park_id, name) VALUES(?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name
		WHERE name<>excluded.name`)
	if err != nil {
		tx.Rollback()
		return result, fmt.Errorf("failed to prepare land upsert: %v", err)
	}
	defer upsertLand.Close()

	upsertRide, err := tx.Prepare(`
		INSERT INTO rides(id, land_id, park_id, name) VALUES(?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name
		WHERE name<>excluded.name`)
	if err != nil {
		tx.Rollback()
		return result, fmt.Errorf("failed to prepare ride upsert: %v", err)
	}
	defer upsertRide.Close()

	insertObservation, err := tx.Prepare(`
		INSERT INTO wait_times
		(ride_id, wait_time, is_open, observed_at, api_last_updated, day_of_week, hour, is_weekend)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ride_id, observed_at) DO NOTHING`)
	if err != nil {
		tx.Rollback()
		return result, fmt.Errorf("failed to prepare observation insert: %v", err)
	}
	defer insertObservation.Close()

	if _, err := upsertPark.Exec(batch.Park.ID, batch.Park.Name); err != nil {
		tx.Rollback()
		return result, fmt.Errorf("failed to upsert park %d: %v", batch.Park.ID, err)
	}

	for _, land := range batch.Lands {
		if _, err := upsertLand.Exec(land.ID, land.ParkID, land.Name); err != nil {
			tx.Rollback()
			return result, fmt.Errorf("failed to upsert land %d: %v", land.ID, err)
		}
	}

	for _, ride := range batch.Rides {
		var landID sql.NullInt64
		if ride.LandID != nil {
			landID = sql.NullInt64{Int64: *ride.LandID, Valid: true}
		}
		if _, err := upsertRide.Exec(ride.ID, landID, ride.ParkID, ride.Name); err != nil {
			tx.Rollback()
			return result, fmt.Errorf("failed to upsert ride %d: %v", ride.ID, err)
		}
	}

	for _, obs := range batch.Observations {
		var waitMinutes sql.NullInt64
		if obs.WaitMinutes != nil {
			waitMinutes = sql.NullInt64{Int64: *obs.WaitMinutes, Valid: true}
		}
		var lastUpdated sql.NullString
		if obs.APILastUpdated != "" {
			lastUpdated = sql.NullString{String: obs.APILastUpdated, Valid: true}
		}

		// Time-of-day metadata makes downstream analysis cheaper.
		// day_of_week uses 0 = Monday, 6 = Sunday.
		dayOfWeek := (int(obs.ObservedAt.Weekday()) + 6) % 7
		hour := obs.ObservedAt.Hour()
		isWeekend := dayOfWeek >= 5

		res, err := insertObservation.Exec(
			obs.RideID,
			waitMinutes,
			obs.IsOpen,
			obs.ObservedAt,
			lastUpdated,
			dayOfWeek,
			hour,
			isWeekend,
		)
		if err != nil {
			tx.Rollback()
			return result, fmt.Errorf("failed to insert observation for ride %d: %v", obs.RideID, err)
		}

		inserted, err := res.RowsAffected()
		if err != nil {
			tx.Rollback()
			return result, fmt.Errorf("failed to read rows affected: %v", err)
		}
		if inserted > 0 {
			result.Observations++
		} else {
			result.Duplicates++
		}
	}

	if err := tx.Commit(); err != nil {
		return ApplyResult{}, fmt.Errorf("failed to commit transaction: %v", err)
	}

	log.Printf("Applied batch for park %d: %d observations inserted, %d duplicates skipped",
		batch.Park.ID, result.Observations, result.Duplicates)
	return result, nil
}

// ParkStatuses returns the last successful observation time for every park
// in the database, ordered by park name.
func (r *SQLiteWaitTimeRepository) ParkStatuses() ([]ParkStatus, error) {
	query := `
		SELECT p.id, p.name, MAX(w.observed_at)
		FROM parks p
		LEFT JOIN rides r ON r.park_id = p.id
		LEFT JOIN wait_times w ON w.ride_id = r.id
		GROUP BY p.id, p.name
		ORDER BY p.name`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query park statuses: %v", err)
	}
	defer rows.Close()

	var statuses []ParkStatus
	for rows.Next() {
		var status ParkStatus
		var lastObserved sql.NullString
		if err := rows.Scan(&status.Park.ID, &status.Park.Name, &lastObserved); err != nil {
			return nil, fmt.Errorf("failed to scan row: %v", err)
		}
		if lastObserved.Valid && lastObserved.String != "" {
			ts, err := parseTimestamp(lastObserved.String)
			if err != nil {
				return nil, err
			}
			status.LastObservedAt = ts
		}
		statuses = append(statuses, status)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %v", err)
	}

	return statuses, nil
}

// LatestParkWaitTimes returns each ride's most recent observation for the
// named park, ordered by land then ride name.
func (r *SQLiteWaitTimeRepository) LatestParkWaitTimes(parkName string) ([]RideWaitTime, error) {
	query := `
		SELECT rd.name, COALESCE(l.name, ''), w.wait_time, w.is_open, w.observed_at
		FROM wait_times w
		JOIN rides rd ON rd.id = w.ride_id
		JOIN parks p ON p.id = rd.park_id
		LEFT JOIN lands l ON l.id = rd.land_id
		WHERE p.name = ? COLLATE NOCASE
		AND w.observed_at = (
			SELECT MAX(w2.observed_at) FROM wait_times w2 WHERE w2.ride_id = w.ride_id
		)
		ORDER BY l.name, rd.name`

	rows, err := r.db.Query(query, parkName)
	if err != nil {
		return nil, fmt.Errorf("failed to query wait times for %s: %v", parkName, err)
	}
	defer rows.Close()

	var result []RideWaitTime
	for rows.Next() {
		var wt RideWaitTime
		var waitMinutes sql.NullInt64
		var observedAt string
		if err := rows.Scan(&wt.RideName, &wt.LandName, &waitMinutes, &wt.IsOpen, &observedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %v", err)
		}
		if waitMinutes.Valid {
			wait := waitMinutes.Int64
			wt.WaitMinutes = &wait
		}
		ts, err := parseTimestamp(observedAt)
		if err != nil {
			return nil, err
		}
		wt.ObservedAt = ts
		result = append(result, wt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %v", err)
	}

	return result, nil
}

// ListParks returns all parks present in the database, ordered by name.
func (r *SQLiteWaitTimeRepository) ListParks() ([]entities.Park, error) {
	rows, err := r.db.Query("SELECT id, name FROM parks ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query parks: %v", err)
	}
	defer rows.Close()

	var parks []entities.Park
	for rows.Next() {
		var park entities.Park
		if err := rows.Scan(&park.ID, &park.Name); err != nil {
			return nil, fmt.Errorf("failed to scan row: %v", err)
		}
		parks = append(parks, park)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %v", err)
	}

	return parks, nil
}

// RideCount returns the total number of rides in the database.
func (r *SQLiteWaitTimeRepository) RideCount() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM rides").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rides: %v", err)
	}
	return count, nil
}

// ObservationCount returns the total number of wait time observations.
func (r *SQLiteWaitTimeRepository) ObservationCount() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM wait_times").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count observations: %v", err)
	}
	return count, nil
}

// parseTimestamp parses a timestamp string coming back from SQLite. The
// driver stores time.Time values with fractional seconds and a zone offset,
// but aggregate results lose column affinity and older rows may carry other
// formats, so several layouts are tried.
func parseTimestamp(value string) (time.Time, error) {
	layouts := []string{
		"2006-01-02 15:04:05.999999999-07:00",
		time.RFC3339,
		"2006-01-02 15:04:05-07:00",
		"2006-01-02 15:04:05Z07:00",
	}

	for _, layout := range layouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}

	// SQLite DATETIME format without timezone
	if ts, err := time.ParseInLocation("2006-01-02 15:04:05", value, time.Local); err == nil {
		return ts, nil
	}

	return time.Time{}, fmt.Errorf("failed to parse timestamp '%s'", value)
}
