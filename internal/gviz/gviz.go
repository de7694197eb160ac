// Package gviz decodes responses from the Google Visualization query
// endpoint ("gviz/tq"). The endpoint returns JSON wrapped in a JavaScript
// callback, with cells that may be null, numeric, or string valued.
package gviz

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidSheet is returned when the endpoint reports that the requested
// worksheet does not exist.
var ErrInvalidSheet = errors.New("gviz: invalid sheet")

// ErrNoTable is returned when the payload decodes but carries no table.
var ErrNoTable = errors.New("gviz: response has no table")

// cell is one table cell. The value can be a string, a number, a bool, or
// absent entirely.
type cell struct {
	V any `json:"v"`
}

type row struct {
	C []cell `json:"c"`
}

type table struct {
	Rows []row `json:"rows"`
}

type response struct {
	Status string `json:"status"`
	Table  *table `json:"table"`
}

// Row is a decoded table row with cells coerced to strings. Missing and
// null cells become "".
type Row []string

// Decode extracts the JSON object embedded in a gviz callback body and
// returns its rows with string-coerced cells.
func Decode(body string) ([]Row, error) {
	if strings.Contains(body, "Invalid sheet") {
		return nil, ErrInvalidSheet
	}

	start := strings.Index(body, "{")
	end := strings.LastIndex(body, "}")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("gviz: no JSON object in response")
	}

	var resp response
	if err := json.Unmarshal([]byte(body[start:end+1]), &resp); err != nil {
		return nil, fmt.Errorf("gviz: decode: %w", err)
	}
	if resp.Status == "error" {
		return nil, fmt.Errorf("gviz: query returned error status")
	}
	if resp.Table == nil {
		return nil, ErrNoTable
	}

	rows := make([]Row, 0, len(resp.Table.Rows))
	for _, r := range resp.Table.Rows {
		out := make(Row, len(r.C))
		for i, c := range r.C {
			out[i] = coerce(c.V)
		}
		rows = append(rows, out)
	}
	return rows, nil
}

// coerce turns a cell value into a display string. Sheet numbers arrive as
// float64; integral values must not pick up a trailing ".0".
func coerce(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// Get returns the cell at index i, or "" when the row is too short.
func (r Row) Get(i int) string {
	if i < 0 || i >= len(r) {
		return ""
	}
	return r[i]
}
