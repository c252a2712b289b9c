// Package identify issues the identification request and parses the response
// into ranked result rows. One request may be in flight at a time.
package identify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/7-mb/speciesid/internal/collection"
	"github.com/7-mb/speciesid/internal/payload"
)

// DefaultResultCount is the number of ranked candidates requested.
const DefaultResultCount = 5

// sentinelTaxonID is the fixed requested-taxa sentinel the service expects.
const sentinelTaxonID = 1000000

var (
	// ErrInFlight rejects a second Identify call while one is running.
	ErrInFlight = errors.New("identification request already in flight")
	// ErrNoEndpoint aborts before any network call when unconfigured.
	ErrNoEndpoint = errors.New("no identification endpoint configured")
)

// ResultRow is one ranked candidate. Percent is NaN when the service returned
// a non-numeric score; presentation renders that blank.
type ResultRow struct {
	TaxonID int     `json:"id"`
	Name    string  `json:"name"`
	Percent float64 `json:"percent"`
}

// Payload is the request body.
type Payload struct {
	Images      []string `json:"images"`
	Lat         float64  `json:"lat"`
	Lon         float64  `json:"lon"`
	Date        string   `json:"date"`
	NumTaxonIDs int      `json:"num_taxon_ids"`
	ReqTaxonIDs []int    `json:"req_taxon_ids"`
}

// Controller is the request state machine: Idle -> Requesting -> Idle, with
// the last result rows and raw response text as its two value slots. Both
// slots are fully replaced on every request.
type Controller struct {
	endpoint string
	lat, lon float64
	builder  *payload.Builder
	client   *http.Client

	// now feeds the payload date, overridable in tests.
	now func() time.Time

	mu         sync.Mutex
	requesting bool
	rows       []ResultRow
	rawText    string
}

// NewController uses transport defaults: a single POST, no retry, no timeout
// override.
func NewController(endpoint string, lat, lon float64, builder *payload.Builder) *Controller {
	return &Controller{
		endpoint: endpoint,
		lat:      lat,
		lon:      lon,
		builder:  builder,
		client:   &http.Client{},
		now:      time.Now,
	}
}

// Identify builds the payload from the given snapshot, posts it, and parses
// the response. It returns the new rows and raw text, mirroring what Results
// will report afterwards.
func (c *Controller) Identify(ctx context.Context, images []collection.TrackedImage) ([]ResultRow, string, error) {
	if c.endpoint == "" {
		return nil, "", ErrNoEndpoint
	}

	c.mu.Lock()
	if c.requesting {
		c.mu.Unlock()
		return nil, "", ErrInFlight
	}
	c.requesting = true
	c.rows = nil
	c.rawText = ""
	c.mu.Unlock()

	// Idle is restored on every exit path.
	defer func() {
		c.mu.Lock()
		c.requesting = false
		c.mu.Unlock()
	}()

	encoded, err := c.builder.Build(ctx, images)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build payload: %w", err)
	}

	body, err := json.Marshal(Payload{
		Images:      encoded,
		Lat:         c.lat,
		Lon:         c.lon,
		Date:        c.now().Format("2006-01-02"),
		NumTaxonIDs: DefaultResultCount,
		ReqTaxonIDs: []int{sentinelTaxonID},
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "*/*")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		details, _ := io.ReadAll(resp.Body)
		if len(details) > 0 {
			return nil, "", fmt.Errorf("%d %s: %s", resp.StatusCode, http.StatusText(resp.StatusCode), details)
		}
		return nil, "", fmt.Errorf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response: %w", err)
	}

	rows, text := parseResponse(resp.Header.Get("Content-Type"), raw)

	c.mu.Lock()
	c.rows = rows
	c.rawText = text
	c.mu.Unlock()
	return rows, text, nil
}

// Results returns the last rows, the raw response text, and whether a request
// is in flight.
func (c *Controller) Results() ([]ResultRow, string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ResultRow(nil), c.rows...), c.rawText, c.requesting
}

// parseResponse decodes defensively. Only bodies that look like JSON (by
// content type or first character) are parsed; everything else, including
// JSON that fails to parse, degrades to raw text with no rows.
func parseResponse(contentType string, raw []byte) ([]ResultRow, string) {
	trimmed := strings.TrimSpace(string(raw))
	looksLikeJSON := strings.Contains(contentType, "application/json") ||
		strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")
	if !looksLikeJSON {
		return nil, string(raw)
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, string(raw)
	}

	text := string(raw)
	if pretty, err := json.MarshalIndent(parsed, "", "  "); err == nil {
		text = string(pretty)
	}
	return extractRows(parsed), text
}

// extractRows digs out top_n.by_combined and zips its parallel arrays,
// truncated to the shortest, guarding every step against missing or
// mistyped fields.
func extractRows(parsed any) []ResultRow {
	taxa := asMap(asMap(asMap(parsed)["top_n"])["by_combined"])
	ids := asSlice(taxa["id"])
	names := asSlice(taxa["name"])
	scores := asSlice(taxa["combined_model"])
	if len(ids) == 0 || len(names) == 0 || len(scores) == 0 {
		return nil
	}

	n := len(ids)
	if len(names) < n {
		n = len(names)
	}
	if len(scores) < n {
		n = len(scores)
	}

	rows := make([]ResultRow, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, ResultRow{
			TaxonID: asInt(ids[i]),
			Name:    asString(names[i]),
			Percent: scoreToPercent(scores[i]),
		})
	}
	return rows
}

// scoreToPercent treats scores at or below 1 as fractions, anything larger as
// an already-computed percentage. Non-numeric scores become NaN.
func scoreToPercent(value any) float64 {
	score, ok := value.(float64)
	if !ok {
		return math.NaN()
	}
	if score <= 1 {
		return score * 100
	}
	return score
}

func asMap(value any) map[string]any {
	m, _ := value.(map[string]any)
	return m
}

func asSlice(value any) []any {
	s, _ := value.([]any)
	return s
}

func asInt(value any) int {
	f, _ := value.(float64)
	return int(f)
}

func asString(value any) string {
	s, _ := value.(string)
	return s
}
