package livefeed

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"

	"github.com/carefinder/backend/internal/domain/entities"
	"github.com/carefinder/backend/internal/domain/providers"
	"github.com/carefinder/backend/internal/matching"
	apperrors "github.com/carefinder/backend/pkg/errors"
)

const (
	defaultFetchTimeout = 8 * time.Second

	// The upstream serves an error page to generic clients.
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

	// Expected column shape: name, total, waiting, functional stretchers,
	// occupied stretchers, occupancy %, >24h, >48h.
	expectedColumns = 8
)

// Scraper fetches the emergency-room occupancy page and extracts its data
// table into records. The upstream format is not contractually stable, so a
// row that does not match the expected shape is skipped, never fatal.
type Scraper struct {
	feedURL    string
	httpClient *http.Client
	normalizer *matching.Normalizer
	now        func() time.Time
}

// NewScraper creates a scraper for the given feed URL.
func NewScraper(feedURL string, timeout time.Duration, normalizer *matching.Normalizer) providers.LiveFeedSource {
	return NewScraperWithOptions(feedURL, normalizer, &http.Client{Timeout: timeout}, time.Now)
}

// NewScraperWithOptions allows overriding the HTTP client and clock (used for tests).
func NewScraperWithOptions(feedURL string, normalizer *matching.Normalizer, httpClient *http.Client, now func() time.Time) providers.LiveFeedSource {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultFetchTimeout}
	}
	if now == nil {
		now = time.Now
	}
	return &Scraper{
		feedURL:    feedURL,
		httpClient: httpClient,
		normalizer: normalizer,
		now:        now,
	}
}

// Fetch retrieves and parses the feed. Partial success is the normal case:
// malformed rows are dropped with a debug log, numeric fields default to zero.
func (s *Scraper) Fetch(ctx context.Context) ([]entities.LiveFeedRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.feedURL, nil)
	if err != nil {
		return nil, apperrors.NewExternalError("failed to build live feed request", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9,fr;q=0.8")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewExternalError("live feed request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.NewExternalError(fmt.Sprintf("live feed returned status %d", resp.StatusCode), nil)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, apperrors.NewExternalError("failed to parse live feed document", err)
	}

	return s.extractRecords(doc), nil
}

// extractRecords walks the document tree and converts every well-formed table
// row into a record. All records in a batch share one observation timestamp.
func (s *Scraper) extractRecords(doc *html.Node) []entities.LiveFeedRecord {
	observedAt := s.now()
	var records []entities.LiveFeedRecord

	for _, row := range collectElements(doc, "tr") {
		record, ok := s.parseRow(row, observedAt)
		if !ok {
			continue
		}
		records = append(records, record)
	}

	return records
}

func (s *Scraper) parseRow(row *html.Node, observedAt time.Time) (entities.LiveFeedRecord, bool) {
	cells := collectElements(row, "td")
	if len(cells) != expectedColumns {
		return entities.LiveFeedRecord{}, false
	}

	name := strings.TrimSpace(nodeText(cells[0]))
	if name == "" {
		log.Debug().Msg("skipping live feed row with empty name")
		return entities.LiveFeedRecord{}, false
	}

	occupancy, ok := parsePercent(nodeText(cells[5]))
	if !ok {
		log.Debug().Str("name", name).Msg("skipping live feed row without occupancy column")
		return entities.LiveFeedRecord{}, false
	}

	return entities.LiveFeedRecord{
		Name:                 name,
		NormalizedName:       s.normalizer.NormalizeFeed(name),
		TotalPeople:          parseCount(nodeText(cells[1])),
		WaitingToSeeDoctor:   parseCount(nodeText(cells[2])),
		FunctionalStretchers: parseCount(nodeText(cells[3])),
		OccupiedStretchers:   parseCount(nodeText(cells[4])),
		OccupancyRate:        occupancy,
		PatientsOver24h:      parseCount(nodeText(cells[6])),
		PatientsOver48h:      parseCount(nodeText(cells[7])),
		ObservedAt:           observedAt,
	}, true
}

// collectElements returns all descendant elements with the given tag, in
// document order.
func collectElements(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && node.Data == tag {
			out = append(out, node)
			return
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		walk(child)
	}
	return out
}

// nodeText concatenates all text content under a node.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return sb.String()
}

// parseCount parses a numeric cell, defaulting to zero on failure rather
// than aborting the row.
func parseCount(raw string) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return value
}

func parsePercent(raw string) (int, bool) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasSuffix(trimmed, "%") {
		return 0, false
	}
	value, err := strconv.Atoi(strings.TrimSuffix(trimmed, "%"))
	if err != nil {
		return 0, true
	}
	return value, true
}
