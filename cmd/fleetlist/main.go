// Package main provides fleetlist, a CLI that exports fleet registry
// tables to CSV for offline inspection.
//
// Usage:
//
//	fleetlist -sheet SHEET_ID [-fleet CODE] [-o FILE]
//
// With no -fleet, every fleet table is exported. The sheet id can also
// come from UNITED_CHECK_SHEET_ID or a local .env file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jszwec/csvutil"
	"github.com/joho/godotenv"

	"github.com/emery09/pz-pn-united/internal/fleet"
	"github.com/emery09/pz-pn-united/internal/registry"
)

// row is one CSV line: a registry record plus its classified interior.
type row struct {
	FleetType    string `csv:"fleet_type"`
	AircraftID   string `csv:"aircraft_id"`
	Registration string `csv:"registration"`
	NextStatus   string `csv:"next_status"`
	Interior     string `csv:"interior"`
}

func main() {
	sheetID := flag.String("sheet", "", "Google Sheet id of the fleet registry")
	fleetCode := flag.String("fleet", "", "Fleet code to export (default: all)")
	output := flag.String("o", "", "Output file (default: stdout)")
	flag.Parse()

	_ = godotenv.Load()
	if *sheetID == "" {
		*sheetID = os.Getenv("UNITED_CHECK_SHEET_ID")
	}
	if *sheetID == "" {
		fmt.Fprintln(os.Stderr, "fleetlist: -sheet or UNITED_CHECK_SHEET_ID is required")
		os.Exit(2)
	}

	client := registry.NewClient(*sheetID)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var codes []string
	if *fleetCode != "" {
		code := strings.ToUpper(*fleetCode)
		if fleet.Find(code) == nil {
			fmt.Fprintf(os.Stderr, "fleetlist: unknown fleet type %q\n", *fleetCode)
			os.Exit(2)
		}
		codes = []string{code}
	} else {
		for _, f := range fleet.Fleets {
			codes = append(codes, f.Code)
		}
	}

	var rows []row
	for _, code := range codes {
		result, err := client.ListFleet(ctx, code)
		if err != nil {
			slog.Error("failed to list fleet", "fleet", code, "error", err)
			os.Exit(1)
		}
		for _, rec := range result.Records {
			rows = append(rows, row{
				FleetType:    rec.FleetType,
				AircraftID:   rec.AircraftID,
				Registration: rec.Registration,
				NextStatus:   rec.NextStatus,
				Interior:     rec.Label(),
			})
		}
		slog.Info("fetched fleet", "fleet", code, "aircraft", len(result.Records))
	}

	data, err := csvutil.Marshal(rows)
	if err != nil {
		slog.Error("failed to encode CSV", "error", err)
		os.Exit(1)
	}

	if *output == "" {
		_, _ = os.Stdout.Write(data)
		return
	}
	if err := os.WriteFile(*output, data, 0o644); err != nil {
		slog.Error("failed to write output", "file", *output, "error", err)
		os.Exit(1)
	}
	slog.Info("wrote fleet export", "file", *output, "rows", len(rows))
}
