package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestInsertAndRecent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	for i, flight := range []string{"UA100", "UA200", "UA300"} {
		id, err := db.Insert(ctx, Lookup{
			Timestamp:    time.Date(2026, 8, 27, 10, i, 0, 0, time.UTC),
			FlightNumber: flight,
			Departure:    "SFO",
			Arrival:      "ORD",
			FlightDate:   "2026-08-27",
			AircraftID:   "3939",
			Registration: "N37536",
			FleetType:    "39",
			Interior:     "United Next",
			Method:       "scrape",
			Provenance:   "verified",
		})
		if err != nil {
			t.Fatalf("Insert: %v", err)
		}
		if id == 0 {
			t.Error("Insert returned zero id")
		}
	}

	lookups, err := db.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(lookups) != 2 {
		t.Fatalf("Recent returned %d rows, want 2", len(lookups))
	}
	if lookups[0].FlightNumber != "UA300" {
		t.Errorf("newest first: got %q, want UA300", lookups[0].FlightNumber)
	}
	if lookups[0].Interior != "United Next" {
		t.Errorf("interior = %q, want United Next", lookups[0].Interior)
	}
	if lookups[0].Timestamp.IsZero() {
		t.Error("timestamp did not round-trip")
	}
}

func TestRecentDefaultsAndCap(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if _, err := db.Insert(ctx, Lookup{
		Departure: "EWR", Arrival: "LAX", FlightDate: "2026-08-27",
		AircraftID: "2511", Interior: "Standard", Method: "trusted_api", Provenance: "verified",
	}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	lookups, err := db.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent(0): %v", err)
	}
	if len(lookups) != 1 {
		t.Errorf("Recent(0) returned %d rows, want 1", len(lookups))
	}
	if lookups[0].FlightNumber != "" {
		t.Errorf("route-only lookup has flight %q, want empty", lookups[0].FlightNumber)
	}
}

func TestCountByInterior(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	for _, interior := range []string{"United Next", "United Next", "Standard"} {
		if _, err := db.Insert(ctx, Lookup{
			Departure: "SFO", Arrival: "ORD", FlightDate: "2026-08-27",
			AircraftID: "3939", Interior: interior, Method: "scrape", Provenance: "verified",
		}); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	counts, err := db.CountByInterior(ctx)
	if err != nil {
		t.Fatalf("CountByInterior: %v", err)
	}
	if counts["United Next"] != 2 || counts["Standard"] != 1 {
		t.Errorf("counts = %v, want United Next:2 Standard:1", counts)
	}
}
