package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/carefinder/backend/internal/application/services"
	"github.com/carefinder/backend/internal/domain/entities"
	"github.com/carefinder/backend/internal/matching"
)

// FeedSnapshot is the read surface of the live feed cache: the current
// records plus when they were fetched. Implemented by livefeed.SnapshotCache.
type FeedSnapshot interface {
	Records(ctx context.Context) []entities.LiveFeedRecord
	LastFetched() (time.Time, bool)
}

// LiveFeedHandler exposes the scraped occupancy feed directly, enriched with
// the wait estimate derived from each record.
type LiveFeedHandler struct {
	feed      FeedSnapshot
	matcher   *matching.Matcher
	estimator *services.WaitEstimator
}

// NewLiveFeedHandler creates a new live feed handler
func NewLiveFeedHandler(feed FeedSnapshot, matcher *matching.Matcher, estimator *services.WaitEstimator) *LiveFeedHandler {
	return &LiveFeedHandler{
		feed:      feed,
		matcher:   matcher,
		estimator: estimator,
	}
}

type enrichedRecord struct {
	entities.LiveFeedRecord
	WaitMinutes   int    `json:"wait_minutes"`
	WaitFormatted string `json:"wait_formatted"`
}

// GetFeed handles GET /api/live-feed. With a ?hospital=NAME query it resolves
// that single hospital through the matcher; without it, it dumps the whole
// feed.
func (h *LiveFeedHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	records := h.feed.Records(r.Context())

	if name := r.URL.Query().Get("hospital"); name != "" {
		h.respondSingle(w, name, records)
		return
	}

	enriched := make([]enrichedRecord, 0, len(records))
	for i := range records {
		enriched = append(enriched, h.enrich(records[i]))
	}

	payload := map[string]interface{}{
		"records": enriched,
		"count":   len(enriched),
	}
	if fetchedAt, ok := h.feed.LastFetched(); ok {
		payload["fetched_at"] = fetchedAt
	}

	respondWithJSON(w, http.StatusOK, payload)
}

func (h *LiveFeedHandler) respondSingle(w http.ResponseWriter, name string, records []entities.LiveFeedRecord) {
	record := h.matcher.Match(entities.Facility{Name: name}, records)
	if record == nil {
		respondWithError(w, http.StatusNotFound, "no live data found for hospital")
		return
	}
	respondWithJSON(w, http.StatusOK, h.enrich(*record))
}

func (h *LiveFeedHandler) enrich(record entities.LiveFeedRecord) enrichedRecord {
	estimate := h.estimator.Estimate(&record, entities.FacilityTypeEmergency)
	return enrichedRecord{
		LiveFeedRecord: record,
		WaitMinutes:    estimate.Minutes,
		WaitFormatted:  services.FormatWaitMinutes(estimate.Minutes),
	}
}
