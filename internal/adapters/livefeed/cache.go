package livefeed

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/carefinder/backend/internal/domain/entities"
	"github.com/carefinder/backend/internal/domain/providers"
	"github.com/carefinder/backend/internal/infrastructure/observability"
)

// DefaultTTL governs refresh eligibility. Expiry never evicts the snapshot;
// it only permits a refresh attempt.
const DefaultTTL = 15 * time.Minute

// SnapshotCache is a time-boxed cache in front of the scraper. It never
// fails: a refresh failure falls back to the last snapshot, or an empty set
// if no fetch has ever succeeded. Concurrent callers share a single in-flight
// refresh instead of each hitting the upstream.
type SnapshotCache struct {
	source  providers.LiveFeedSource
	ttl     time.Duration
	now     func() time.Time
	metrics *observability.Metrics

	group singleflight.Group

	mu          sync.RWMutex
	records     []entities.LiveFeedRecord
	fetchedAt   time.Time
	hasSnapshot bool
}

// NewSnapshotCache creates a cache over the given feed source. metrics may be
// nil.
func NewSnapshotCache(source providers.LiveFeedSource, ttl time.Duration, metrics *observability.Metrics) *SnapshotCache {
	return NewSnapshotCacheWithClock(source, ttl, metrics, time.Now)
}

// NewSnapshotCacheWithClock allows injecting the clock (used for tests).
func NewSnapshotCacheWithClock(source providers.LiveFeedSource, ttl time.Duration, metrics *observability.Metrics, now func() time.Time) *SnapshotCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &SnapshotCache{
		source:  source,
		ttl:     ttl,
		now:     now,
		metrics: metrics,
	}
}

// Records returns the current snapshot, refreshing it first when the TTL has
// elapsed. Freshness is a soft preference: a stale snapshot is served on
// refresh failure rather than surfacing an error.
func (c *SnapshotCache) Records(ctx context.Context) []entities.LiveFeedRecord {
	if records, ok := c.freshSnapshot(); ok {
		return records
	}

	result, _, _ := c.group.Do("refresh", func() (interface{}, error) {
		return c.refresh(ctx), nil
	})
	return result.([]entities.LiveFeedRecord)
}

// LastFetched reports when the current snapshot was taken.
func (c *SnapshotCache) LastFetched() (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fetchedAt, c.hasSnapshot
}

func (c *SnapshotCache) freshSnapshot() ([]entities.LiveFeedRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.hasSnapshot && c.now().Sub(c.fetchedAt) < c.ttl {
		return c.records, true
	}
	return nil, false
}

func (c *SnapshotCache) refresh(ctx context.Context) []entities.LiveFeedRecord {
	// A caller queued behind an in-flight refresh sees its result here.
	if records, ok := c.freshSnapshot(); ok {
		return records
	}

	start := time.Now()
	records, err := c.source.Fetch(ctx)
	if err != nil {
		if c.metrics != nil {
			observability.RecordFeedFetchMetric(ctx, c.metrics, "error", time.Since(start))
		}
		c.mu.RLock()
		defer c.mu.RUnlock()
		if c.hasSnapshot {
			log.Warn().Err(err).Time("fetched_at", c.fetchedAt).
				Msg("live feed refresh failed; serving stale snapshot")
			return c.records
		}
		log.Warn().Err(err).Msg("live feed refresh failed with no snapshot available")
		return []entities.LiveFeedRecord{}
	}
	if c.metrics != nil {
		observability.RecordFeedFetchMetric(ctx, c.metrics, "success", time.Since(start))
	}

	c.mu.Lock()
	c.records = records
	c.fetchedAt = c.now()
	c.hasSnapshot = true
	c.mu.Unlock()

	log.Info().Int("records", len(records)).Msg("live feed snapshot refreshed")
	return records
}
