// Package feed queries the upstream derivatives catalog and downloads its
// artifacts into the staging area.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"sgx-ingest/internal/domain"
)

// Fixed query parameters of the catalog endpoint. The feed returns the
// last ~20 market days of tick downloads.
const (
	paramApp     = "COW_Tickdownload_Content"
	paramChannel = "TimeSalesData"
	paramCount   = "20"
)

// The feed rejects clients that do not look like a browser.
const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)"

// itemDateFormat is the display date the feed puts on each item.
const itemDateFormat = "02 Jan 2006"

// availableDatesLimit caps the diagnostics list surfaced on a failed
// date match.
const availableDatesLimit = 10

// acceptedDateFormats are the input notations ParseTargetDate normalizes.
var acceptedDateFormats = []string{"02/01/2006", "2006-01-02", "02 Jan 2006"}

// ParseTargetDate normalizes a user-supplied date in any accepted notation
// (day/month/year, ISO, or "02 Jan 2006") to a calendar date.
func ParseTargetDate(s string) (time.Time, error) {
	for _, layout := range acceptedDateFormats {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, domain.ErrValidation("unrecognized date %q: use DD/MM/YYYY, YYYY-MM-DD, or DD Mon YYYY", s)
}

// Client queries the catalog feed. All requests flow through a shared
// politeness limiter and carry the browser-like user agent.
type Client struct {
	httpClient *http.Client
	feedURL    string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a catalog client. The limiter is shared with the
// Fetcher so catalog and download traffic observe one budget.
func NewClient(feedURL string, timeout time.Duration, limiter *rate.Limiter, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		feedURL:    feedURL,
		limiter:    limiter,
		logger:     logger.With("component", "feed"),
	}
}

// feedItem is the raw JSON shape of one catalog entry. The feed names its
// link and filename fields with spaces.
type feedItem struct {
	Date           string `json:"Date"`
	Key            string `json:"key"`
	DataLink       string `json:"Data File Link"`
	DataName       string `json:"Data File"`
	TickStructLink string `json:"Tick Data Structure File Link"`
	TickStructName string `json:"Tick Data Structure File"`
	TCLink         string `json:"TC Data File Link"`
	TCName         string `json:"TC Data File"`
	TCStructLink   string `json:"TC Data Structure File Link"`
	TCStructName   string `json:"TC Data Structure File"`
}

type feedResponse struct {
	Items []feedItem `json:"items"`
}

// ListAvailable returns the feed's items sorted most recent first.
// Entries missing a date or key are dropped.
func (c *Client) ListAvailable(ctx context.Context) ([]domain.CatalogItem, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("feed limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return nil, domain.ErrUpstream("build feed request: %v", err)
	}
	q := req.URL.Query()
	q.Set("A", paramApp)
	q.Set("B", paramChannel)
	q.Set("C_T", paramCount)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.ErrUpstream("feed unreachable: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, domain.ErrUpstream("feed returned HTTP %d", resp.StatusCode)
	}

	var payload feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, domain.ErrUpstream("malformed feed response: %v", err)
	}

	items := make([]domain.CatalogItem, 0, len(payload.Items))
	for _, raw := range payload.Items {
		if raw.Date == "" || raw.Key == "" {
			continue
		}
		day, err := time.Parse(itemDateFormat, raw.Date)
		if err != nil {
			c.logger.Warn("skipping item with unparseable date", "date", raw.Date)
			continue
		}
		items = append(items, domain.CatalogItem{
			Date:        day,
			DisplayDate: raw.Date,
			Key:         raw.Key,
			Artifacts:   raw.artifacts(),
		})
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Date.After(items[j].Date) })

	c.logger.Debug("fetched catalog", "items", len(items))
	return items, nil
}

// Select resolves the item to ingest. A nil target picks the most recent
// item; otherwise the item's date must exactly match the target, and a miss
// yields a NoDateError carrying the currently available dates.
func (c *Client) Select(ctx context.Context, target *time.Time) (*domain.CatalogItem, error) {
	items, err := c.ListAvailable(ctx)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domain.ErrUpstream("feed returned no items")
	}

	if target == nil {
		return &items[0], nil
	}

	ty, tm, td := target.Date()
	for i := range items {
		y, m, d := items[i].Date.Date()
		if y == ty && m == tm && d == td {
			return &items[i], nil
		}
	}

	available := make([]string, 0, availableDatesLimit)
	for i := 0; i < len(items) && i < availableDatesLimit; i++ {
		available = append(available, items[i].DisplayDate)
	}
	return nil, domain.ErrNoDate(target.Format(domain.ISODate), available)
}

// artifacts collects the well-known link+filename pairs that are present
// on the item. A kind missing either field is dropped, matching the
// upstream's occasional partial entries.
func (f *feedItem) artifacts() []domain.ArtifactRef {
	pairs := []struct {
		kind     domain.ArtifactKind
		link     string
		filename string
	}{
		{domain.KindTickData, f.DataLink, f.DataName},
		{domain.KindTickStructure, f.TickStructLink, f.TickStructName},
		{domain.KindTCData, f.TCLink, f.TCName},
		{domain.KindTCStructure, f.TCStructLink, f.TCStructName},
	}

	refs := make([]domain.ArtifactRef, 0, len(pairs))
	for _, p := range pairs {
		if p.link == "" || p.filename == "" {
			continue
		}
		refs = append(refs, domain.ArtifactRef{Kind: p.kind, Filename: p.filename})
	}
	return refs
}
