// Package storage persists completed interior lookups to SQLite, backing
// the recent-lookups endpoint and giving operators a trail of what the
// service resolved and how.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Lookup is one stored resolution result.
type Lookup struct {
	ID           int64     `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	FlightNumber string    `json:"flightNumber"`
	Departure    string    `json:"departureAirport"`
	Arrival      string    `json:"arrivalAirport"`
	FlightDate   string    `json:"date"`
	AircraftID   string    `json:"aircraftId"`
	Registration string    `json:"reg"`
	FleetType    string    `json:"fleetType"`
	Interior     string    `json:"interior"`
	Method       string    `json:"method"`
	Provenance   string    `json:"provenance"`
}

// DB wraps a SQLite database connection for lookup history.
type DB struct {
	db *sql.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent access.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	if err := createSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS lookups (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,
		flight_number TEXT,
		departure TEXT NOT NULL,
		arrival TEXT NOT NULL,
		flight_date TEXT NOT NULL,
		aircraft_id TEXT NOT NULL,
		registration TEXT,
		fleet_type TEXT,
		interior TEXT NOT NULL,
		method TEXT NOT NULL,
		provenance TEXT NOT NULL,
		created_at TEXT DEFAULT (datetime('now'))
	);

	CREATE INDEX IF NOT EXISTS idx_lookups_timestamp ON lookups(timestamp);
	CREATE INDEX IF NOT EXISTS idx_lookups_flight ON lookups(flight_number);
	CREATE INDEX IF NOT EXISTS idx_lookups_aircraft ON lookups(aircraft_id);
	`

	_, err := db.Exec(schema)
	return err
}

// Insert stores a completed lookup and returns its row id.
func (d *DB) Insert(ctx context.Context, l Lookup) (int64, error) {
	ts := l.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	result, err := d.db.ExecContext(ctx, `
		INSERT INTO lookups (timestamp, flight_number, departure, arrival, flight_date, aircraft_id, registration, fleet_type, interior, method, provenance)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, ts.Format(time.RFC3339), l.FlightNumber, l.Departure, l.Arrival, l.FlightDate,
		l.AircraftID, l.Registration, l.FleetType, l.Interior, l.Method, l.Provenance)
	if err != nil {
		return 0, fmt.Errorf("insert lookup: %w", err)
	}

	return result.LastInsertId()
}

// Recent returns the most recent lookups, newest first. n defaults to 20
// and is capped at 200.
func (d *DB) Recent(ctx context.Context, n int) ([]Lookup, error) {
	if n <= 0 {
		n = 20
	}
	if n > 200 {
		n = 200
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT id, timestamp, flight_number, departure, arrival, flight_date,
			aircraft_id, registration, fleet_type, interior, method, provenance
		FROM lookups ORDER BY id DESC LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("query lookups: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var lookups []Lookup
	for rows.Next() {
		var l Lookup
		var ts string
		var flight, reg, fleetType sql.NullString

		err := rows.Scan(&l.ID, &ts, &flight, &l.Departure, &l.Arrival, &l.FlightDate,
			&l.AircraftID, &reg, &fleetType, &l.Interior, &l.Method, &l.Provenance)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		l.Timestamp, _ = time.Parse(time.RFC3339, ts)
		if flight.Valid {
			l.FlightNumber = flight.String
		}
		if reg.Valid {
			l.Registration = reg.String
		}
		if fleetType.Valid {
			l.FleetType = fleetType.String
		}

		lookups = append(lookups, l)
	}

	return lookups, rows.Err()
}

// CountByInterior returns lookup counts grouped by interior label.
func (d *DB) CountByInterior(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	rows, err := d.db.QueryContext(ctx, "SELECT interior, COUNT(*) FROM lookups GROUP BY interior")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var interior string
		var count int
		if err := rows.Scan(&interior, &count); err != nil {
			return nil, err
		}
		counts[interior] = count
	}
	return counts, rows.Err()
}
