// Package api provides the REST endpoints for interior checks.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/emery09/pz-pn-united/internal/cache"
	"github.com/emery09/pz-pn-united/internal/fleet"
	"github.com/emery09/pz-pn-united/internal/registry"
	"github.com/emery09/pz-pn-united/internal/resolver"
	"github.com/emery09/pz-pn-united/internal/storage"
)

// Registry is the subset of the fleet registry the server needs.
type Registry interface {
	Lookup(ctx context.Context, aircraftID string) (*registry.Result, error)
	LookupByRegistration(ctx context.Context, reg string) (*registry.Result, error)
	ListFleet(ctx context.Context, code string) (*registry.Result, error)
}

// Resolver turns a flight into an aircraft identifier.
type Resolver interface {
	ResolveAircraft(ctx context.Context, q resolver.Query) (*resolver.Resolution, error)
	StatusURL(q resolver.Query) string
}

// Server serves the interior-check API.
type Server struct {
	registry Registry
	resolver Resolver
	store    *storage.DB // nil disables history
	cache    *cache.Cache[CheckResponse]
	log      *slog.Logger
}

// New creates a server. store may be nil; cacheTTL 0 disables caching.
func New(reg Registry, res Resolver, store *storage.DB, cacheTTL time.Duration, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		registry: reg,
		resolver: res,
		store:    store,
		cache:    cache.New[CheckResponse](cacheTTL),
		log:      log,
	}
}

// Router returns the configured chi router.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	// Standard middleware.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(45 * time.Second))

	// CORS for browser access.
	r.Use(corsMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Post("/check-interior", s.handleCheckInterior)
		r.Post("/find-flight", s.handleFindFlight)
		r.Get("/fleet/{code}", s.handleListFleet)
		r.Get("/recent", s.handleRecent)
		r.Get("/stats", s.handleStats)
	})

	return r
}

// corsMiddleware adds CORS headers for browser access.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// CheckResponse mirrors the shape clients already consume: summary fields
// from the primary match plus the full match list.
type CheckResponse struct {
	Message         string            `json:"message"`
	Results         []registry.Record `json:"results"`
	HasNextInterior bool              `json:"hasNextInterior"`
	FleetType       string            `json:"fleetType,omitempty"`
	Registration    string            `json:"reg,omitempty"`
	Interior        string            `json:"interior,omitempty"`
	AircraftID      string            `json:"aircraftId,omitempty"`
	Method          string            `json:"method,omitempty"`
	Provenance      string            `json:"provenance,omitempty"`
	Timestamp       time.Time         `json:"timestamp"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// CheckRequest asks for the interior of a known aircraft.
type CheckRequest struct {
	AircraftID string `json:"aircraftId"`
}

func shipNumberShape(s string) bool {
	if len(s) == 0 || len(s) > 4 {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func (s *Server) handleCheckInterior(w http.ResponseWriter, r *http.Request) {
	var req CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	id := strings.ToUpper(strings.TrimSpace(req.AircraftID))
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing aircraftId")
		return
	}

	resp, err := s.check(r.Context(), id, "", "aircraft|"+id)
	if err != nil {
		s.writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// check runs the registry lookup and classification for an identifier,
// consulting the response cache first. method and provenance annotate how
// the identifier was obtained, when known.
func (s *Server) check(ctx context.Context, id, method, cacheKey string) (*CheckResponse, error) {
	if cacheKey != "" {
		if cached, ok := s.cache.Get(cacheKey); ok {
			s.log.Debug("cache hit", "key", cacheKey)
			return &cached, nil
		}
	}

	// Four digits is a ship number; anything longer or lettered is
	// treated as a registration.
	var (
		result *registry.Result
		err    error
	)
	if shipNumberShape(id) {
		result, err = s.registry.Lookup(ctx, id)
	} else {
		result, err = s.registry.LookupByRegistration(ctx, id)
	}
	if err != nil {
		return nil, err
	}

	match := result.Primary()
	resp := CheckResponse{
		Results:         result.Records,
		HasNextInterior: match.HasNextInterior,
		FleetType:       match.FleetType,
		Registration:    match.Registration,
		Interior:        match.Label(),
		AircraftID:      match.AircraftID,
		Method:          method,
		Provenance:      string(match.Provenance),
		Timestamp:       result.Timestamp,
	}
	if match.HasNextInterior {
		resp.Message = "Your " + match.FleetType + " has the new interior."
	} else {
		resp.Message = "Your " + match.FleetType + " has the standard interior."
	}

	if cacheKey != "" {
		s.cache.Set(cacheKey, resp)
	}
	return &resp, nil
}

// FindFlightRequest identifies a flight to resolve and check end to end.
type FindFlightRequest struct {
	FlightNumber     string `json:"flightNumber"`
	DepartureAirport string `json:"departureAirport"`
	ArrivalAirport   string `json:"arrivalAirport"`
	Date             string `json:"date"` // YYYY-MM-DD
}

func (s *Server) handleFindFlight(w http.ResponseWriter, r *http.Request) {
	var req FindFlightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format (use YYYY-MM-DD)")
		return
	}

	q := resolver.Query{
		FlightNumber: strings.ToUpper(strings.TrimSpace(req.FlightNumber)),
		Departure:    strings.ToUpper(strings.TrimSpace(req.DepartureAirport)),
		Arrival:      strings.ToUpper(strings.TrimSpace(req.ArrivalAirport)),
		Date:         date,
	}

	if cached, ok := s.cache.Get(q.Key()); ok {
		s.log.Debug("cache hit", "key", q.Key())
		writeJSON(w, http.StatusOK, cached)
		return
	}

	res, err := s.resolver.ResolveAircraft(r.Context(), q)
	if err != nil {
		s.writeResolverError(w, err)
		return
	}

	resp, err := s.check(r.Context(), res.Identifier, string(res.Method), "")
	if err != nil {
		s.writeRegistryError(w, err)
		return
	}

	s.cache.Set(q.Key(), *resp)
	s.recordLookup(r.Context(), q, res, resp)
	writeJSON(w, http.StatusOK, resp)
}

// recordLookup persists the completed resolution. History is best effort;
// failures are logged and the response still goes out.
func (s *Server) recordLookup(ctx context.Context, q resolver.Query, res *resolver.Resolution, resp *CheckResponse) {
	if s.store == nil {
		return
	}
	_, err := s.store.Insert(ctx, storage.Lookup{
		Timestamp:    resp.Timestamp,
		FlightNumber: q.FlightNumber,
		Departure:    q.Departure,
		Arrival:      q.Arrival,
		FlightDate:   q.Date.Format("2006-01-02"),
		AircraftID:   resp.AircraftID,
		Registration: resp.Registration,
		FleetType:    resp.FleetType,
		Interior:     resp.Interior,
		Method:       string(res.Method),
		Provenance:   resp.Provenance,
	})
	if err != nil {
		s.log.Warn("failed to record lookup", "error", err)
	}
}

func (s *Server) handleListFleet(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(chi.URLParam(r, "code"))
	if fleet.Find(code) == nil {
		writeError(w, http.StatusNotFound, "unknown fleet type: "+code)
		return
	}

	result, err := s.registry.ListFleet(r.Context(), code)
	if err != nil {
		s.writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, "lookup history is disabled")
		return
	}

	n := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		n = parsed
	}

	lookups, err := s.store.Recent(r.Context(), n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if lookups == nil {
		lookups = []storage.Lookup{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"lookups": lookups})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, "lookup history is disabled")
		return
	}

	counts, err := s.store.CountByInterior(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total":      total,
		"byInterior": counts,
	})
}

// writeResolverError maps the resolution error taxonomy onto HTTP statuses.
func (s *Server) writeResolverError(w http.ResponseWriter, err error) {
	var rerr *resolver.Error
	if !errors.As(err, &rerr) {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	body := map[string]any{
		"error":  rerr.Message,
		"status": rerr.Kind.String(),
	}
	if rerr.ManualURL != "" {
		body["manualUrl"] = rerr.ManualURL
	}

	switch rerr.Kind {
	case resolver.KindValidation:
		writeJSON(w, http.StatusBadRequest, body)
	case resolver.KindNotFound:
		writeJSON(w, http.StatusNotFound, body)
	case resolver.KindBlocked:
		w.Header().Set("Retry-After", "60")
		writeJSON(w, http.StatusServiceUnavailable, body)
	case resolver.KindUpstream:
		writeJSON(w, http.StatusBadGateway, body)
	default:
		writeJSON(w, http.StatusInternalServerError, body)
	}
}

// writeRegistryError handles failures from the registry layer. The registry
// returns a fallback record rather than erroring for unknown aircraft, so
// an error here means the registry itself was unreachable.
func (s *Server) writeRegistryError(w http.ResponseWriter, err error) {
	var regErr *registry.Error
	if errors.As(err, &regErr) {
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":  "fleet registry unavailable",
			"status": "registry",
		})
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

// Helper functions.

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
