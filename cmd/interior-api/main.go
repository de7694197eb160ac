// Package main provides the interior-api server.
//
// The server answers the question "does my flight's aircraft have the new
// interior?" by resolving the assigned aircraft for a flight, looking it up
// in the hosted fleet registry, and classifying its interior.
//
// Usage:
//
//	interior-api [options]
//
// Options:
//
//	-config PATH        Path to config file (YAML)
//	-listen ADDR        Listen address (overrides config)
//
// Configuration comes from a YAML file or UNITED_CHECK_* environment
// variables; see internal/config. A .env file in the working directory is
// loaded first if present.
//
// API Endpoints:
//
//	GET  /api/v1/health
//	    Health check endpoint.
//
//	POST /api/v1/check-interior
//	    Check a known aircraft. Body: {"aircraftId": "3939"}
//
//	POST /api/v1/find-flight
//	    Resolve a flight's aircraft and check it end to end.
//	    Body: {"flightNumber": "UA100", "departureAirport": "SFO",
//	           "arrivalAirport": "ORD", "date": "2026-08-27"}
//
//	GET  /api/v1/fleet/{code}
//	    List all aircraft of one fleet type.
//
//	GET  /api/v1/recent
//	    Recent completed lookups.
//
//	GET  /api/v1/stats
//	    Lookup counts grouped by interior label.
package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/emery09/pz-pn-united/internal/aeroapi"
	"github.com/emery09/pz-pn-united/internal/api"
	"github.com/emery09/pz-pn-united/internal/config"
	"github.com/emery09/pz-pn-united/internal/registry"
	"github.com/emery09/pz-pn-united/internal/resolver"
	"github.com/emery09/pz-pn-united/internal/scrape"
	"github.com/emery09/pz-pn-united/internal/storage"
)

func initLogger(cfg *config.Config) {
	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}

func main() {
	configPath := flag.String("config", "", "Path to config file (YAML)")
	listenAddr := flag.String("listen", "", "Listen address (overrides config)")
	flag.Parse()

	// Local .env files carry the sheet id and API key in development.
	_ = godotenv.Load()

	if *configPath != "" {
		os.Setenv("UNITED_CHECK_CONFIG_PATH", *configPath)
	}

	cfg, err := config.Load()
	if err != nil {
		basicLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		basicLogger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	initLogger(cfg)

	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}

	reg := registry.NewClient(cfg.SheetID)

	pipeline := scrape.New(scrape.Config{
		MaxAttempts: cfg.MaxAttempts,
		BackoffBase: time.Duration(cfg.BackoffBaseMS) * time.Millisecond,
		WarmupURLs: []string{
			cfg.StatusBase + "/en/us",
			cfg.StatusBase + "/en/us/flightstatus",
		},
		AlternateURLs: cfg.AlternateURLs,
	})

	res := resolver.New(
		aeroapi.New(cfg.AeroAPIKey),
		pipeline,
		resolver.WithStatusBase(cfg.StatusBase),
	)

	var store *storage.DB
	if cfg.DBPath != "" {
		store, err = storage.Open(cfg.DBPath)
		if err != nil {
			slog.Error("Failed to open lookup history database", "error", err)
			os.Exit(1)
		}
		defer func() { _ = store.Close() }()
	}

	server := api.New(reg, res, store, cfg.CacheTTL, slog.Default())

	slog.Info("interior-api starting",
		"addr", cfg.ListenAddr,
		"cache_ttl", cfg.CacheTTL,
		"trusted_source", cfg.AeroAPIKey != "",
		"history", store != nil)

	if err := http.ListenAndServe(cfg.ListenAddr, server.Router()); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
