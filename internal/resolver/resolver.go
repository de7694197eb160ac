// Package resolver turns a flight identity into an aircraft identifier.
// It consults the trusted flight-data API when configured, then falls back
// to extracting the identifier from the airline's flight-status page via
// the resilient fetch pipeline. Failures map onto a small error taxonomy
// that the API layer translates to HTTP statuses.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/emery09/pz-pn-united/internal/aeroapi"
	"github.com/emery09/pz-pn-united/internal/extract"
	"github.com/emery09/pz-pn-united/internal/scrape"
)

// Method records which path produced the identifier.
type Method string

const (
	MethodTrustedAPI Method = "trusted_api"
	MethodScrape     Method = "scrape"
	MethodAlternate  Method = "alternate_endpoint"
)

// Resolution is a successful aircraft identification.
type Resolution struct {
	// Identifier is the bare identifier used by the registry: the ship
	// number for KindShipNumber, or the registration digits with the
	// country prefix stripped for KindTailNumber.
	Identifier string
	Kind       extract.Kind
	Method     Method
}

// Resolver orchestrates the trusted source and the scraping path.
type Resolver struct {
	aero       *aeroapi.Client
	pipeline   *scrape.Pipeline
	statusBase string
	log        *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithStatusBase overrides the flight-status site base URL, for tests.
func WithStatusBase(base string) Option {
	return func(r *Resolver) { r.statusBase = strings.TrimSuffix(base, "/") }
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(r *Resolver) { r.log = log }
}

// New creates a resolver. aero may be unconfigured; pipeline is required.
func New(aero *aeroapi.Client, pipeline *scrape.Pipeline, opts ...Option) *Resolver {
	r := &Resolver{
		aero:       aero,
		pipeline:   pipeline,
		statusBase: "https://www.united.com",
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// StatusURL is the flight-status page for a query, also handed to users
// as the manual fallback when resolution is blocked.
func (r *Resolver) StatusURL(q Query) string {
	date := q.Date.Format("2006-01-02")
	if q.FlightNumber == "" {
		return fmt.Sprintf("%s/en/us/flightstatus/results/route/%s/%s/%s/%s",
			r.statusBase, date, q.Departure, q.Arrival, carrierPrefix)
	}
	return fmt.Sprintf("%s/en/us/flightstatus/details/%s/%s/%s/%s/%s",
		r.statusBase, q.flightDigits(), date, q.Departure, q.Arrival, carrierPrefix)
}

// ResolveAircraft resolves the aircraft assigned to a flight. The caller's
// context bounds the whole operation, including retries.
func (r *Resolver) ResolveAircraft(ctx context.Context, q Query) (*Resolution, error) {
	if err := q.Validate(time.Now()); err != nil {
		return nil, err
	}
	if q.FlightNumber == "" {
		return nil, newError(KindValidation, "flight number required for aircraft resolution")
	}

	// Trusted structured source first. Any failure here falls through to
	// scraping; it is logged, never fatal.
	if r.aero.Configured() {
		reg, err := r.aero.RegistrationForFlight(ctx, q.FlightNumber, q.Date, q.Departure, q.Arrival)
		if err == nil && reg != "" {
			r.log.Info("resolved via trusted API", "flight", q.FlightNumber, "registration", reg)
			return &Resolution{
				Identifier: NormalizeRegistration(reg),
				Kind:       extract.KindTailNumber,
				Method:     MethodTrustedAPI,
			}, nil
		}
		if err != nil {
			r.log.Warn("trusted API failed, falling back to scraping", "error", err)
		}
	}

	return r.resolveByScraping(ctx, q)
}

func (r *Resolver) resolveByScraping(ctx context.Context, q Query) (*Resolution, error) {
	target := r.StatusURL(q)
	manual := target

	res, err := r.pipeline.Fetch(ctx, target, q.Key(), scrape.Session{})
	if err != nil {
		// Context cancellation or deadline.
		return nil, &Error{Kind: KindUpstream, Message: "fetch aborted", ManualURL: manual, Err: err}
	}

	switch res.Outcome {
	case scrape.OutcomeSuccess:
		candidate := extract.Extract(res.Body)
		if candidate == nil {
			return nil, &Error{Kind: KindNotFound, Message: "no aircraft identifier on status page", ManualURL: manual}
		}
		method := MethodScrape
		if res.FromAlternate {
			method = MethodAlternate
		}
		r.log.Info("resolved via extraction",
			"flight", q.FlightNumber,
			"identifier", candidate.Value,
			"strategy", candidate.Strategy,
			"attempts", res.Attempts)

		identifier := candidate.Value
		if candidate.Kind == extract.KindTailNumber {
			identifier = NormalizeRegistration(identifier)
		}
		return &Resolution{Identifier: identifier, Kind: candidate.Kind, Method: method}, nil

	case scrape.OutcomeChallenge:
		return nil, blockedError(res, manual)

	case scrape.OutcomeHTTPError:
		if res.Status == http.StatusNotFound {
			return nil, &Error{Kind: KindNotFound, Message: "flight not found", ManualURL: manual}
		}
		return nil, &Error{
			Kind:      KindUpstream,
			Message:   fmt.Sprintf("status page returned %d", res.Status),
			ManualURL: manual,
		}

	default:
		// A mixed run that hit target defenses at any point is blocked,
		// not a plain upstream failure; the manual URL is the right advice.
		if res.Challenges > 0 {
			return nil, blockedError(res, manual)
		}
		return nil, &Error{Kind: KindUpstream, Message: "network failure fetching status page", ManualURL: manual}
	}
}

func blockedError(res *scrape.Result, manual string) *Error {
	return &Error{
		Kind:      KindBlocked,
		Message:   fmt.Sprintf("target defenses triggered on %d of %d attempts", res.Challenges, res.Attempts),
		ManualURL: manual,
	}
}

// NormalizeRegistration strips the US country prefix from a tail number,
// leaving the bare identifier the registry stores.
func NormalizeRegistration(reg string) string {
	reg = strings.ToUpper(strings.TrimSpace(reg))
	return strings.TrimPrefix(reg, "N")
}
