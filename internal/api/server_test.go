package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/emery09/pz-pn-united/internal/extract"
	"github.com/emery09/pz-pn-united/internal/registry"
	"github.com/emery09/pz-pn-united/internal/resolver"
	"github.com/emery09/pz-pn-united/internal/storage"
)

type fakeRegistry struct {
	byID  map[string]registry.Record
	byReg map[string]registry.Record
	fail  bool
	calls int
}

func (f *fakeRegistry) result(rec registry.Record, ok bool) (*registry.Result, error) {
	if f.fail {
		return nil, &registry.Error{}
	}
	if !ok {
		rec = registry.Record{
			AircraftID: "0", Registration: "N/A", FleetType: "Unknown",
			NextStatus: "N", Provenance: registry.Fallback,
		}
	}
	return &registry.Result{Records: []registry.Record{rec}, Timestamp: time.Now().UTC()}, nil
}

func (f *fakeRegistry) Lookup(ctx context.Context, id string) (*registry.Result, error) {
	f.calls++
	rec, ok := f.byID[id]
	return f.result(rec, ok)
}

func (f *fakeRegistry) LookupByRegistration(ctx context.Context, reg string) (*registry.Result, error) {
	f.calls++
	rec, ok := f.byReg[reg]
	return f.result(rec, ok)
}

func (f *fakeRegistry) ListFleet(ctx context.Context, code string) (*registry.Result, error) {
	f.calls++
	if f.fail {
		return nil, &registry.Error{}
	}
	var recs []registry.Record
	for _, r := range f.byID {
		if r.FleetType == code {
			recs = append(recs, r)
		}
	}
	return &registry.Result{Records: recs, Timestamp: time.Now().UTC()}, nil
}

type fakeResolver struct {
	res *resolver.Resolution
	err error
}

func (f *fakeResolver) ResolveAircraft(ctx context.Context, q resolver.Query) (*resolver.Resolution, error) {
	if err := q.Validate(time.Now()); err != nil {
		return nil, err
	}
	return f.res, f.err
}

func (f *fakeResolver) StatusURL(q resolver.Query) string {
	return "https://example.test/status"
}

func next39() registry.Record {
	return registry.Record{
		AircraftID:      "3939",
		Registration:    "N37536",
		FleetType:       "39",
		HasNextInterior: true,
		NextStatus:      "Y",
		Provenance:      registry.Verified,
	}
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeCheck(t *testing.T, rec *httptest.ResponseRecorder) CheckResponse {
	t.Helper()
	var resp CheckResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestCheckInterior(t *testing.T) {
	reg := &fakeRegistry{byID: map[string]registry.Record{"3939": next39()}}
	srv := New(reg, &fakeResolver{}, nil, 0, nil)
	router := srv.Router()

	rec := postJSON(t, router, "/api/v1/check-interior", CheckRequest{AircraftID: "3939"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}

	resp := decodeCheck(t, rec)
	if resp.Message != "Your 39 has the new interior." {
		t.Errorf("message = %q", resp.Message)
	}
	if !resp.HasNextInterior || resp.FleetType != "39" || resp.Registration != "N37536" {
		t.Errorf("summary fields wrong: %+v", resp)
	}
	if resp.Interior != "United Next" {
		t.Errorf("interior = %q, want United Next", resp.Interior)
	}
	if len(resp.Results) != 1 {
		t.Errorf("results len = %d, want 1", len(resp.Results))
	}
}

func TestCheckInteriorByRegistration(t *testing.T) {
	reg := &fakeRegistry{byReg: map[string]registry.Record{"N37536": next39()}}
	srv := New(reg, &fakeResolver{}, nil, 0, nil)
	router := srv.Router()

	rec := postJSON(t, router, "/api/v1/check-interior", CheckRequest{AircraftID: "n37536"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	if resp := decodeCheck(t, rec); resp.AircraftID != "3939" {
		t.Errorf("aircraftId = %q, want 3939", resp.AircraftID)
	}
}

func TestCheckInteriorCaching(t *testing.T) {
	reg := &fakeRegistry{byID: map[string]registry.Record{"3939": next39()}}
	srv := New(reg, &fakeResolver{}, nil, time.Minute, nil)
	router := srv.Router()

	for i := 0; i < 2; i++ {
		rec := postJSON(t, router, "/api/v1/check-interior", CheckRequest{AircraftID: "3939"})
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d: %s", i, rec.Code, rec.Body)
		}
		if resp := decodeCheck(t, rec); resp.AircraftID != "3939" {
			t.Fatalf("request %d: aircraftId = %q", i, resp.AircraftID)
		}
	}
	if reg.calls != 1 {
		t.Errorf("registry calls = %d, want 1 (second request cached)", reg.calls)
	}
}

func TestCheckInteriorValidation(t *testing.T) {
	srv := New(&fakeRegistry{}, &fakeResolver{}, nil, 0, nil)
	router := srv.Router()

	rec := postJSON(t, router, "/api/v1/check-interior", CheckRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing aircraftId: status = %d, want 400", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/check-interior", bytes.NewReader([]byte("{")))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed JSON: status = %d, want 400", w.Code)
	}
}

func TestCheckInteriorRegistryDown(t *testing.T) {
	srv := New(&fakeRegistry{fail: true}, &fakeResolver{}, nil, 0, nil)
	router := srv.Router()

	rec := postJSON(t, router, "/api/v1/check-interior", CheckRequest{AircraftID: "3939"})
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

func TestFindFlightEndToEnd(t *testing.T) {
	reg := &fakeRegistry{byReg: map[string]registry.Record{"12345": next39()}}
	res := &fakeResolver{res: &resolver.Resolution{
		Identifier: "12345",
		Kind:       extract.KindTailNumber,
		Method:     resolver.MethodTrustedAPI,
	}}

	store, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() { _ = store.Close() }()

	srv := New(reg, res, store, 0, nil)
	router := srv.Router()

	body := FindFlightRequest{
		FlightNumber:     "UA100",
		DepartureAirport: "SFO",
		ArrivalAirport:   "ORD",
		Date:             time.Now().Format("2006-01-02"),
	}
	rec := postJSON(t, router, "/api/v1/find-flight", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}

	resp := decodeCheck(t, rec)
	if resp.AircraftID != "3939" {
		t.Errorf("aircraftId = %q, want 3939", resp.AircraftID)
	}
	if resp.Method != "trusted_api" {
		t.Errorf("method = %q, want trusted_api", resp.Method)
	}
	if resp.Provenance != "verified" {
		t.Errorf("provenance = %q, want verified", resp.Provenance)
	}

	// The lookup should land in history.
	lookups, err := store.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(lookups) != 1 || lookups[0].FlightNumber != "UA100" {
		t.Errorf("history = %+v, want one UA100 entry", lookups)
	}
}

func TestFindFlightCaching(t *testing.T) {
	reg := &fakeRegistry{byID: map[string]registry.Record{"3939": next39()}}
	res := &fakeResolver{res: &resolver.Resolution{
		Identifier: "3939",
		Kind:       extract.KindShipNumber,
		Method:     resolver.MethodScrape,
	}}
	srv := New(reg, res, nil, time.Minute, nil)
	router := srv.Router()

	body := FindFlightRequest{
		FlightNumber:     "UA100",
		DepartureAirport: "SFO",
		ArrivalAirport:   "ORD",
		Date:             time.Now().Format("2006-01-02"),
	}
	for i := 0; i < 2; i++ {
		if rec := postJSON(t, router, "/api/v1/find-flight", body); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d: %s", i, rec.Code, rec.Body)
		}
	}
	if reg.calls != 1 {
		t.Errorf("registry calls = %d, want 1 (second request cached)", reg.calls)
	}
}

func TestFindFlightErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        *resolver.Error
		wantStatus int
	}{
		{"blocked", &resolver.Error{Kind: resolver.KindBlocked, Message: "blocked", ManualURL: "https://example.test"}, http.StatusServiceUnavailable},
		{"not found", &resolver.Error{Kind: resolver.KindNotFound, Message: "nope"}, http.StatusNotFound},
		{"upstream", &resolver.Error{Kind: resolver.KindUpstream, Message: "bad gateway", ManualURL: "https://example.test"}, http.StatusBadGateway},
		{"validation", &resolver.Error{Kind: resolver.KindValidation, Message: "bad"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := New(&fakeRegistry{}, &fakeResolver{err: tt.err}, nil, 0, nil)
			router := srv.Router()

			body := FindFlightRequest{
				FlightNumber:     "UA100",
				DepartureAirport: "SFO",
				ArrivalAirport:   "ORD",
				Date:             time.Now().Format("2006-01-02"),
			}
			rec := postJSON(t, router, "/api/v1/find-flight", body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var payload map[string]any
			if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if tt.err.ManualURL != "" && payload["manualUrl"] != tt.err.ManualURL {
				t.Errorf("manualUrl = %v, want %q", payload["manualUrl"], tt.err.ManualURL)
			}
			if tt.wantStatus == http.StatusServiceUnavailable && rec.Header().Get("Retry-After") == "" {
				t.Error("blocked response missing Retry-After")
			}
		})
	}
}

func TestFindFlightBadDate(t *testing.T) {
	srv := New(&fakeRegistry{}, &fakeResolver{}, nil, 0, nil)
	router := srv.Router()

	body := FindFlightRequest{
		FlightNumber:     "UA100",
		DepartureAirport: "SFO",
		ArrivalAirport:   "ORD",
		Date:             "08/27/2026",
	}
	if rec := postJSON(t, router, "/api/v1/find-flight", body); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestListFleet(t *testing.T) {
	reg := &fakeRegistry{byID: map[string]registry.Record{"3939": next39()}}
	srv := New(reg, &fakeResolver{}, nil, 0, nil)
	router := srv.Router()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/fleet/39", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/fleet/99", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown fleet: status = %d, want 404", rec.Code)
	}
}

func TestRecent(t *testing.T) {
	store, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() { _ = store.Close() }()

	for i := 0; i < 3; i++ {
		if _, err := store.Insert(context.Background(), storage.Lookup{
			FlightNumber: fmt.Sprintf("UA%d", 100+i),
			Departure:    "SFO", Arrival: "ORD", FlightDate: "2026-08-27",
			AircraftID: "3939", Interior: "United Next", Method: "scrape", Provenance: "verified",
		}); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	srv := New(&fakeRegistry{}, &fakeResolver{}, store, 0, nil)
	router := srv.Router()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/recent?limit=2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}

	var payload struct {
		Lookups []storage.Lookup `json:"lookups"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Lookups) != 2 {
		t.Fatalf("lookups len = %d, want 2", len(payload.Lookups))
	}
	if payload.Lookups[0].FlightNumber != "UA102" {
		t.Errorf("newest first: got %q, want UA102", payload.Lookups[0].FlightNumber)
	}

	// Disabled history.
	srv = New(&fakeRegistry{}, &fakeResolver{}, nil, 0, nil)
	req = httptest.NewRequest(http.MethodGet, "/api/v1/recent", nil)
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("disabled history: status = %d, want 404", rec.Code)
	}
}

func TestStats(t *testing.T) {
	store, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() { _ = store.Close() }()

	for _, interior := range []string{"United Next", "United Next", "Standard"} {
		if _, err := store.Insert(context.Background(), storage.Lookup{
			Departure: "SFO", Arrival: "ORD", FlightDate: "2026-08-27",
			AircraftID: "3939", Interior: interior, Method: "scrape", Provenance: "verified",
		}); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	srv := New(&fakeRegistry{}, &fakeResolver{}, store, 0, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}

	var payload struct {
		Total      int            `json:"total"`
		ByInterior map[string]int `json:"byInterior"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Total != 3 {
		t.Errorf("total = %d, want 3", payload.Total)
	}
	if payload.ByInterior["United Next"] != 2 || payload.ByInterior["Standard"] != 1 {
		t.Errorf("byInterior = %v", payload.ByInterior)
	}

	// Disabled history.
	srv = New(&fakeRegistry{}, &fakeResolver{}, nil, 0, nil)
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("disabled history: status = %d, want 404", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := New(&fakeRegistry{}, &fakeResolver{}, nil, 0, nil)
	router := srv.Router()

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/check-interior", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("preflight status = %d, want 200", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS origin header")
	}
}
