// Package extract pulls an aircraft identifier out of heterogeneous
// flight-status page content. An ordered list of strategies is tried
// against the raw body; structured embedded data ranks above DOM
// selectors, with loose text patterns last. The first strategy to yield a
// well-formed candidate wins.
package extract

import (
	"regexp"
	"sort"
	"strings"
)

// Kind says what shape of identifier a strategy found.
type Kind int

const (
	// KindShipNumber is the carrier's internal 4-digit aircraft id.
	KindShipNumber Kind = iota
	// KindTailNumber is an external registration like N37536.
	KindTailNumber
)

func (k Kind) String() string {
	if k == KindTailNumber {
		return "tailNumber"
	}
	return "shipNumber"
}

// Candidate is a validated extraction result.
type Candidate struct {
	Value    string // "3939" or "N37536"
	Kind     Kind
	Strategy string // which strategy produced it
}

// Strategy is one independent extraction approach. Lower priority runs
// first; order encodes reliability.
type Strategy interface {
	Name() string
	Priority() int
	// QuickCheck is a cheap containment test run before any parsing.
	QuickCheck(body string) bool
	// Extract returns a raw candidate string, or "" when the strategy
	// does not apply. Candidates are validated by the caller.
	Extract(body string) string
}

var strategies []Strategy

// register adds a strategy; called from init in the strategy files.
func register(s Strategy) {
	strategies = append(strategies, s)
	sort.SliceStable(strategies, func(i, j int) bool {
		return strategies[i].Priority() < strategies[j].Priority()
	})
}

// Extract runs the strategy list over a page body and returns the first
// well-formed candidate, or nil when nothing matches. Pure with respect to
// its input.
func Extract(body string) *Candidate {
	for _, s := range strategies {
		if !s.QuickCheck(body) {
			continue
		}
		raw := s.Extract(body)
		if raw == "" {
			continue
		}
		if c, ok := Validate(raw); ok {
			c.Strategy = s.Name()
			return &c
		}
		// Malformed candidate: discard and keep going down the list.
	}
	return nil
}

var (
	shipShapeRe = regexp.MustCompile(`^\d{4}$`)
	tailShapeRe = regexp.MustCompile(`^N\d{2,5}[A-Z]{0,2}$`)
)

// Validate checks a raw candidate against the identifier shapes: exactly
// four digits for a ship number, or a US tail number strippable to digits.
func Validate(raw string) (Candidate, bool) {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	if shipShapeRe.MatchString(raw) {
		return Candidate{Value: raw, Kind: KindShipNumber}, true
	}
	if tailShapeRe.MatchString(raw) {
		return Candidate{Value: raw, Kind: KindTailNumber}, true
	}
	return Candidate{}, false
}
