package providers

import (
	"context"

	"github.com/carefinder/backend/internal/domain/entities"
)

// PlaceSearchProvider defines the interface for the external place-search
// service that returns candidate facilities near a coordinate.
type PlaceSearchProvider interface {
	// SearchNearby returns candidate facilities within radiusMeters of center,
	// restricted to the given provider-native category strings.
	SearchNearby(ctx context.Context, center entities.Coordinates, radiusMeters int, categories []string) ([]entities.Facility, error)
}
