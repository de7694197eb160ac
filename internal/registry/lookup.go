package registry

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/emery09/pz-pn-united/internal/fleet"
)

var digitRunRe = regexp.MustCompile(`\d+`)

// Lookup finds an aircraft by its 1-4 digit identifier. The primary fleet
// table (guessed from the id ranges) is queried first and short-circuits on
// a hit; otherwise every remaining table is scanned and all matches are
// aggregated in scan order. The result is never empty: when nothing
// matches, a synthetic fallback record is returned.
func (c *Client) Lookup(ctx context.Context, aircraftID string) (*Result, error) {
	normalized := fleet.Normalize(aircraftID)
	c.log.Debug("registry lookup", "aircraft_id", aircraftID, "normalized", normalized)

	var primary *fleet.Info
	if code := fleet.GuessFleet(aircraftID); code != "" {
		primary = fleet.Find(code)
	}

	var (
		matches   []Record
		tableErrs int
		lastErr   error
	)

	if primary != nil {
		recs, err := c.searchTable(ctx, *primary, aircraftID)
		if err != nil {
			tableErrs++
			lastErr = err
			c.log.Warn("primary table query failed", "fleet", primary.Code, "error", err)
		} else if len(recs) > 0 {
			// Primary hit: skip the full scan.
			return &Result{Records: recs, Timestamp: time.Now()}, nil
		}
	}

	for _, f := range fleet.Fleets {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if primary != nil && f.Code == primary.Code {
			continue
		}
		recs, err := c.searchTable(ctx, f, aircraftID)
		if err != nil {
			tableErrs++
			lastErr = err
			c.log.Warn("fleet table query failed", "fleet", f.Code, "error", err)
			continue
		}
		matches = append(matches, recs...)
	}

	if len(matches) > 0 {
		return &Result{Records: matches, Timestamp: time.Now()}, nil
	}

	if tableErrs == len(fleet.Fleets) {
		return nil, &Error{msg: "every fleet table query failed", err: lastErr}
	}

	c.log.Info("no registry match, using fallback record", "aircraft_id", aircraftID)
	return &Result{
		Records:   []Record{fallbackRecord(aircraftID)},
		Timestamp: time.Now(),
	}, nil
}

// searchTable returns all records of one table whose aircraft id matches,
// comparing with leading zeros stripped on both sides.
func (c *Client) searchTable(ctx context.Context, f fleet.Info, aircraftID string) ([]Record, error) {
	rows, err := c.fetchTable(ctx, f)
	if err != nil {
		return nil, err
	}

	normalized := fleet.Normalize(aircraftID)
	var out []Record
	for _, row := range rows {
		rec, ok := recordFromRow(f, row)
		if !ok {
			continue
		}
		if fleet.Normalize(rec.AircraftID) == normalized || rec.AircraftID == aircraftID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// LookupByRegistration finds an aircraft by tail number. Pass order: exact
// match per table (with and without the country prefix), then one fuzzy
// contains search per table keyed on the longest digit run, then a record
// inferred from the registration digits alone.
func (c *Client) LookupByRegistration(ctx context.Context, reg string) (*Result, error) {
	reg = strings.ToUpper(strings.TrimSpace(reg))
	c.log.Debug("registry lookup by registration", "registration", reg)

	variants := registrationVariants(reg)

	var (
		tables    [][]Record
		tableErrs int
		lastErr   error
	)
	for _, f := range fleet.Fleets {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		rows, err := c.fetchTable(ctx, f)
		if err != nil {
			tableErrs++
			lastErr = err
			c.log.Warn("fleet table query failed", "fleet", f.Code, "error", err)
			tables = append(tables, nil)
			continue
		}
		var recs []Record
		for _, row := range rows {
			if rec, ok := recordFromRow(f, row); ok {
				recs = append(recs, rec)
			}
		}
		tables = append(tables, recs)
	}

	if tableErrs == len(fleet.Fleets) {
		return nil, &Error{msg: "every fleet table query failed", err: lastErr}
	}

	// Exact pass across all variants.
	for _, recs := range tables {
		for _, rec := range recs {
			for _, v := range variants {
				if strings.EqualFold(rec.Registration, v) {
					return &Result{Records: []Record{rec}, Timestamp: time.Now()}, nil
				}
			}
		}
	}

	// Fuzzy pass on the longest digit run. Short runs are skipped to
	// avoid matching unrelated tails.
	if run := longestDigitRun(reg); len(run) >= 3 {
		for _, recs := range tables {
			for _, rec := range recs {
				if strings.Contains(rec.Registration, run) {
					c.log.Info("fuzzy registration match",
						"registration", reg, "matched", rec.Registration)
					return &Result{Records: []Record{rec}, Timestamp: time.Now()}, nil
				}
			}
		}
	}

	// Derive a best-guess record from the digits.
	if rec, ok := inferredFromRegistration(reg); ok {
		c.log.Info("inferred record from registration digits",
			"registration", reg, "aircraft_id", rec.AircraftID, "fleet", rec.FleetType)
		return &Result{Records: []Record{rec}, Timestamp: time.Now()}, nil
	}

	return &Result{
		Records:   []Record{fallbackRecord(strings.TrimPrefix(reg, "N"))},
		Timestamp: time.Now(),
	}, nil
}

// ListFleet returns every aircraft of one fleet table.
func (c *Client) ListFleet(ctx context.Context, code string) (*Result, error) {
	f := fleet.Find(code)
	if f == nil {
		return nil, fmt.Errorf("registry: unknown fleet code %q", code)
	}

	rows, err := c.fetchTable(ctx, *f)
	if err != nil {
		return nil, &Error{msg: "fleet table query failed", err: err}
	}

	var recs []Record
	for _, row := range rows {
		if rec, ok := recordFromRow(*f, row); ok {
			recs = append(recs, rec)
		}
	}

	// Spot-check the payload actually belongs to the requested fleet.
	if len(recs) > 0 && !plausibleTable(code, recs) {
		return nil, &Error{msg: fmt.Sprintf("fleet %s payload failed sanity check", code)}
	}

	return &Result{Records: recs, Timestamp: time.Now()}, nil
}

// plausibleTable reports whether any sampled record matches the fleet's
// expected id pattern.
func plausibleTable(code string, recs []Record) bool {
	sample := recs
	if len(sample) > 10 {
		sample = sample[:10]
	}
	for _, rec := range sample {
		if fleet.PlausibleID(code, rec.AircraftID) {
			return true
		}
	}
	return false
}

// registrationVariants returns the exact-match candidates for a
// registration: as given, without the N prefix, and with one added.
func registrationVariants(reg string) []string {
	variants := []string{reg}
	if strings.HasPrefix(reg, "N") {
		variants = append(variants, strings.TrimPrefix(reg, "N"))
	} else {
		variants = append(variants, "N"+reg)
	}
	return variants
}

// longestDigitRun returns the longest consecutive run of digits in s.
func longestDigitRun(s string) string {
	var longest string
	for _, run := range digitRunRe.FindAllString(s, -1) {
		if len(run) > len(longest) {
			longest = run
		}
	}
	return longest
}

// inferredFromRegistration builds a best-guess record from registration
// digits using the fleet range heuristics. The guess is consistent whether
// or not the country prefix is present, since only digits are considered.
func inferredFromRegistration(reg string) (Record, bool) {
	digits := longestDigitRun(reg)
	if len(digits) < 3 {
		return Record{}, false
	}
	code := fleet.GuessFleet(digits)
	if code == "" {
		code = "Unknown"
	}
	return Record{
		AircraftID:      digits,
		Registration:    reg,
		FleetType:       code,
		HasNextInterior: false,
		NextStatus:      "N",
		Provenance:      Inferred,
	}, true
}

// fallbackRecord is the synthetic placeholder returned when no table has a
// match. Callers must check Provenance before treating it as real data.
func fallbackRecord(aircraftID string) Record {
	code := fleet.GuessFleet(aircraftID)
	if code == "" {
		code = "Unknown"
	}
	return Record{
		AircraftID:      aircraftID,
		Registration:    "N" + fleet.Normalize(aircraftID),
		FleetType:       code,
		HasNextInterior: false,
		NextStatus:      "N",
		Provenance:      Fallback,
	}
}
