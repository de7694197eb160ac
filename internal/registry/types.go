// Package registry looks up aircraft in the externally hosted fleet
// registry: one spreadsheet worksheet per fleet type, queried through the
// visualization endpoint and searched by aircraft id or registration.
package registry

import (
	"time"

	"github.com/emery09/pz-pn-united/internal/fleet"
)

// Provenance distinguishes real registry hits from derived records.
type Provenance string

const (
	// Verified records come straight out of a fleet table.
	Verified Provenance = "verified"
	// Inferred records were derived from registration digits via the
	// fleet range heuristics, without a table hit.
	Inferred Provenance = "inferred"
	// Fallback records are synthetic placeholders so callers always
	// receive a non-empty result.
	Fallback Provenance = "fallback"
)

// Record is one aircraft as known to the registry.
type Record struct {
	AircraftID      string     `json:"aircraftId"`
	Registration    string     `json:"reg"`
	FleetType       string     `json:"fleetType"`
	HasNextInterior bool       `json:"hasNextInterior"`
	NextStatus      string     `json:"nextStatus"`
	Provenance      Provenance `json:"provenance"`
}

// Label returns the interior label for this record.
func (r Record) Label() string {
	return fleet.ClassifyInterior(r.FleetType, r.AircraftID, r.HasNextInterior)
}

// Result is the outcome of one registry lookup. Records is never empty;
// the primary match comes first.
type Result struct {
	Records   []Record  `json:"results"`
	Timestamp time.Time `json:"timestamp"`
}

// Primary returns the first (best) match.
func (r *Result) Primary() Record {
	return r.Records[0]
}

// Registry table column indices for the SELECT B, C, H projection.
const (
	colRegistration = 0
	colAircraftID   = 1
	colNextStatus   = 2
)
