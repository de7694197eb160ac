// Package aeroapi is a minimal client for the FlightAware AeroAPI flight
// endpoint, used as the trusted structured source for aircraft
// assignments before falling back to page extraction.
package aeroapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client queries AeroAPI. The zero key means "not configured" and every
// call fails fast; callers treat that like any other upstream failure.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL points the client elsewhere, mainly for tests.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(base, "/") }
}

// New creates a client. An empty apiKey produces an unconfigured client.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    "https://aeroapi.flightaware.com/aeroapi",
		apiKey:     apiKey,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool { return c.apiKey != "" }

// flightsResponse is the subset of the /flights/{ident} payload we need.
type flightsResponse struct {
	Flights []struct {
		Registration string `json:"registration"`
		Origin       struct {
			CodeIATA string `json:"code_iata"`
		} `json:"origin"`
		Destination struct {
			CodeIATA string `json:"code_iata"`
		} `json:"destination"`
	} `json:"flights"`
}

// RegistrationForFlight returns the registration assigned to a flight on
// the given date, preferring a leg that matches the requested route.
func (c *Client) RegistrationForFlight(ctx context.Context, flightNumber string, date time.Time, origin, destination string) (string, error) {
	if !c.Configured() {
		return "", fmt.Errorf("aeroapi: no API key configured")
	}

	day := date.Format("2006-01-02")
	url := fmt.Sprintf("%s/flights/%s?start=%s&end=%s",
		c.baseURL, flightNumber, day, date.AddDate(0, 0, 1).Format("2006-01-02"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("aeroapi: build request: %w", err)
	}
	req.Header.Set("x-apikey", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("aeroapi: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("aeroapi: status %d", resp.StatusCode)
	}

	var payload flightsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("aeroapi: decode: %w", err)
	}

	// Prefer the leg matching the requested route; fall back to the
	// first leg with a registration.
	var first string
	for _, f := range payload.Flights {
		if f.Registration == "" {
			continue
		}
		if first == "" {
			first = f.Registration
		}
		if strings.EqualFold(f.Origin.CodeIATA, origin) &&
			strings.EqualFold(f.Destination.CodeIATA, destination) {
			return f.Registration, nil
		}
	}
	if first == "" {
		return "", fmt.Errorf("aeroapi: no registration in response")
	}
	return first, nil
}
