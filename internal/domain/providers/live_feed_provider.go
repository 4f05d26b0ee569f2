package providers

import (
	"context"

	"github.com/carefinder/backend/internal/domain/entities"
)

// LiveFeedSource fetches the external emergency-room occupancy feed.
type LiveFeedSource interface {
	// Fetch retrieves and parses the feed into records. Malformed rows are
	// skipped; a network or HTTP failure fails the whole fetch.
	Fetch(ctx context.Context) ([]entities.LiveFeedRecord, error)
}

// LiveFeedProvider serves occupancy records from a time-boxed snapshot.
// Implementations never fail: on refresh failure they fall back to the last
// snapshot, or an empty set if none exists yet.
type LiveFeedProvider interface {
	Records(ctx context.Context) []entities.LiveFeedRecord
}
