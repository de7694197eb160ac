package registry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/emery09/pz-pn-united/internal/fleet"
	"github.com/emery09/pz-pn-united/internal/gviz"
)

// Error reports that the registry itself was unreachable or served
// malformed payloads for every table.
type Error struct {
	msg string
	err error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("registry: %s: %v", e.msg, e.err)
	}
	return "registry: " + e.msg
}

func (e *Error) Unwrap() error { return e.err }

// tableQuery selects registration (B), aircraft id (C), and the interior
// flag (H) from a fleet worksheet.
const tableQuery = "SELECT B, C, H"

// Client fetches fleet tables from the registry spreadsheet.
type Client struct {
	httpClient *http.Client
	baseURL    string
	sheetID    string
	log        *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL points the client at a different endpoint, mainly for tests.
func WithBaseURL(base string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(base, "/") }
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) ClientOption {
	return func(c *Client) { c.log = log }
}

// NewClient creates a registry client for the given spreadsheet id.
func NewClient(sheetID string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    "https://docs.google.com/spreadsheets/d",
		sheetID:    sheetID,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// tableURL builds the gviz query URL for one fleet worksheet. The gid
// parameter is used rather than the sheet name: name-addressed queries have
// been observed to silently serve the wrong worksheet.
func (c *Client) tableURL(gid int) string {
	return fmt.Sprintf("%s/%s/gviz/tq?gid=%d&tq=%s",
		c.baseURL, c.sheetID, gid, url.QueryEscape(tableQuery))
}

// fetchTable retrieves and decodes all rows of one fleet table.
func (c *Client) fetchTable(ctx context.Context, f fleet.Info) ([]gviz.Row, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.tableURL(f.GID), nil)
	if err != nil {
		return nil, fmt.Errorf("build request for fleet %s: %w", f.Code, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch fleet %s: %w", f.Code, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch fleet %s: status %d", f.Code, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read fleet %s: %w", f.Code, err)
	}

	rows, err := gviz.Decode(string(body))
	if err != nil {
		return nil, fmt.Errorf("decode fleet %s: %w", f.Code, err)
	}
	return rows, nil
}

// recordFromRow converts a table row into a Record, or returns false when
// the row has no aircraft id.
func recordFromRow(f fleet.Info, row gviz.Row) (Record, bool) {
	id := strings.TrimSpace(row.Get(colAircraftID))
	if id == "" {
		return Record{}, false
	}

	status := strings.ToUpper(strings.TrimSpace(row.Get(colNextStatus)))
	if status == "" {
		status = "N"
	}

	reg := strings.TrimSpace(row.Get(colRegistration))
	if reg == "" {
		reg = "N/A"
	}

	return Record{
		AircraftID:      id,
		Registration:    reg,
		FleetType:       f.Code,
		HasNextInterior: status == "Y",
		NextStatus:      status,
		Provenance:      Verified,
	}, true
}
