// Package fleet provides the United fleet table and the numeric-range
// heuristics used to guess which fleet an aircraft identifier belongs to.
package fleet

import (
	"strconv"
	"strings"
)

// Info describes one fleet type and where its registry table lives.
type Info struct {
	Code string // fleet code as used in the registry, e.g. "39", "M8"
	GID  int    // worksheet gid in the registry spreadsheet
	Name string // marketing name shown to users
}

// Fleets lists every fleet table in registry scan order.
var Fleets = []Info{
	{Code: "19", GID: 0, Name: "Airbus A319"},
	{Code: "20", GID: 1, Name: "Airbus A320"},
	{Code: "21", GID: 2, Name: "Airbus A321neo"},
	{Code: "3G", GID: 3, Name: "Boeing 737-700"},
	{Code: "38", GID: 4, Name: "Boeing 737-800"},
	{Code: "M8", GID: 5, Name: "Boeing 737 MAX 8"},
	{Code: "39", GID: 6, Name: "Boeing 737-900"},
	{Code: "M9", GID: 7, Name: "Boeing 737 MAX 9"},
	{Code: "52", GID: 8, Name: "Boeing 757-200"},
	{Code: "53", GID: 14, Name: "Boeing 757-300"},
	{Code: "63/4", GID: 9, Name: "Boeing 767"},
	{Code: "72", GID: 10, Name: "Boeing 777-200"},
	{Code: "73", GID: 11, Name: "Boeing 777-300"},
	{Code: "88/X", GID: 12, Name: "Boeing 787 Dreamliner"},
	{Code: "89", GID: 13, Name: "Boeing 787-9 Dreamliner"},
}

// narrowBody contains the single-aisle fleet codes. Everything else is
// treated as wide-body by the interior classifier.
var narrowBody = map[string]bool{
	"19": true, "20": true, "21": true, "3G": true, "38": true,
	"M8": true, "39": true, "M9": true, "52": true, "53": true,
}

// IsNarrowBody reports whether the fleet code is a single-aisle type.
func IsNarrowBody(code string) bool {
	return narrowBody[code]
}

// Find returns the fleet info for a code, or nil if unknown.
func Find(code string) *Info {
	for i := range Fleets {
		if Fleets[i].Code == code {
			return &Fleets[i]
		}
	}
	return nil
}

// IsFleetCode reports whether s names a fleet table rather than an aircraft
// id. Only short codes qualify; "63/4" style codes are matched exactly.
func IsFleetCode(s string) bool {
	if len(s) > 2 && s != "63/4" && s != "88/X" {
		return false
	}
	return Find(s) != nil
}

// Normalize strips leading zeros from an aircraft identifier for
// comparison. The original string should be kept for display.
func Normalize(id string) string {
	trimmed := strings.TrimLeft(id, "0")
	if trimmed == "" && id != "" {
		return "0"
	}
	return trimmed
}

// idRange maps a closed numeric identifier range to a fleet code.
// The 737-900 fleet historically took the 34xx block and the low 38xx
// block; the 757-300s occupy the narrow 3851-3879 slice inside it.
type idRange struct {
	lo, hi int
	code   string
}

var primaryRanges = []idRange{
	{3400, 3699, "39"},
	{3800, 3850, "39"},
	{3851, 3879, "53"},
}

// GuessFleet returns the likely fleet code for an aircraft identifier
// based on the documented numeric ranges, or "" when no range applies.
func GuessFleet(id string) string {
	n, err := strconv.Atoi(Normalize(id))
	if err != nil {
		return ""
	}
	for _, r := range primaryRanges {
		if n >= r.lo && n <= r.hi {
			return r.code
		}
	}
	return ""
}

// sanityPatterns spot-check that a registry table actually served rows for
// the fleet we asked for. The spreadsheet endpoint has been observed to
// return a different worksheet when given a stale gid.
var sanityPatterns = map[string]func(id int) bool{
	"19": func(id int) bool { return id >= 4000 && id < 4900 },
	"39": func(id int) bool { return (id >= 3400 && id < 3700) || (id >= 3800 && id < 3900) },
	"M8": func(id int) bool { return id >= 7000 && id < 9000 },
	"M9": func(id int) bool { return id >= 7000 && id < 10000 },
}

// PlausibleID reports whether an aircraft id looks like it belongs to the
// given fleet table. Fleets without a known pattern always pass.
func PlausibleID(code, id string) bool {
	check, ok := sanityPatterns[code]
	if !ok {
		return true
	}
	n, err := strconv.Atoi(Normalize(id))
	if err != nil {
		return false
	}
	return check(n)
}
