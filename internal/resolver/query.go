package resolver

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// carrierPrefix is the airline designator expected on flight numbers.
const carrierPrefix = "UA"

var (
	flightNumberRe = regexp.MustCompile(`^UA\d{1,4}$`)
	airportRe      = regexp.MustCompile(`^[A-Z]{3}$`)
)

// Query identifies a flight to resolve. Immutable once validated.
type Query struct {
	FlightNumber string // "UA100"; empty for route-only queries
	Departure    string // 3-letter code
	Arrival      string // 3-letter code
	Date         time.Time
}

// Validate re-checks the query at the core boundary. The UI performs the
// same checks, but the core can be invoked directly.
func (q Query) Validate(now time.Time) error {
	if q.FlightNumber != "" && !flightNumberRe.MatchString(q.FlightNumber) {
		return newError(KindValidation,
			fmt.Sprintf("flight number %q must be %s followed by 1-4 digits", q.FlightNumber, carrierPrefix))
	}
	if !airportRe.MatchString(q.Departure) {
		return newError(KindValidation, fmt.Sprintf("departure airport %q must be a 3-letter code", q.Departure))
	}
	if !airportRe.MatchString(q.Arrival) {
		return newError(KindValidation, fmt.Sprintf("arrival airport %q must be a 3-letter code", q.Arrival))
	}

	today := calendarDay(now)
	day := calendarDay(q.Date)
	if day.Before(today) || day.After(today.AddDate(0, 0, 2)) {
		return newError(KindValidation, "date must be within two days from today")
	}
	return nil
}

// calendarDay reduces a time to its calendar date in its own location, so
// an evening query west of UTC is still "today".
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Key is the stable identity of this query, used for profile selection
// and cache keying.
func (q Query) Key() string {
	return strings.Join([]string{
		q.FlightNumber, q.Departure, q.Arrival, q.Date.Format("2006-01-02"),
	}, "|")
}

// flightDigits returns the flight number without the carrier prefix.
func (q Query) flightDigits() string {
	return strings.TrimPrefix(q.FlightNumber, carrierPrefix)
}
