package places

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/carefinder/backend/internal/domain/entities"
	"github.com/carefinder/backend/internal/domain/providers"
	"github.com/carefinder/backend/internal/infrastructure/observability"
	apperrors "github.com/carefinder/backend/pkg/errors"
)

const (
	googleSearchNearbyURL = "https://places.googleapis.com/v1/places:searchNearby"
	defaultHTTPTimeout    = 8 * time.Second

	// Search responses change slowly; a short cache still absorbs bursts of
	// nearby requests from the same area.
	searchCacheTTLSeconds = 120

	maxResultCount = 20

	// Label for cache hit/miss counters; the raw cache key is a hash and
	// would blow up metric cardinality.
	cacheMetricScope = "places:nearby"

	fieldMask = "places.id,places.displayName,places.formattedAddress,places.location," +
		"places.types,places.nationalPhoneNumber,places.internationalPhoneNumber," +
		"places.rating,places.userRatingCount,places.currentOpeningHours,places.primaryType"
)

// GooglePlacesProvider implements PlaceSearchProvider using the Google Places
// API (New) nearby search. There is no fallback data source for place search,
// so a circuit breaker fails fast when the upstream is down.
type GooglePlacesProvider struct {
	apiKey     string
	httpClient *http.Client
	cache      providers.CacheProvider
	metrics    *observability.Metrics
	baseURL    string
	breaker    *gobreaker.CircuitBreaker
}

// NewGooglePlacesProvider creates a new Google place-search provider. metrics
// may be nil.
func NewGooglePlacesProvider(apiKey string, cache providers.CacheProvider, metrics *observability.Metrics) providers.PlaceSearchProvider {
	return NewGooglePlacesProviderWithOptions(apiKey, cache, metrics, googleSearchNearbyURL, nil)
}

// NewGooglePlacesProviderWithOptions allows overriding base URL and HTTP client (used for tests).
func NewGooglePlacesProviderWithOptions(apiKey string, cache providers.CacheProvider, metrics *observability.Metrics, baseURL string, httpClient *http.Client) providers.PlaceSearchProvider {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = googleSearchNearbyURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "google-places",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &GooglePlacesProvider{
		apiKey:     apiKey,
		httpClient: httpClient,
		cache:      cache,
		metrics:    metrics,
		baseURL:    baseURL,
		breaker:    breaker,
	}
}

// SearchNearby returns candidate facilities within radiusMeters of center.
func (g *GooglePlacesProvider) SearchNearby(ctx context.Context, center entities.Coordinates, radiusMeters int, categories []string) ([]entities.Facility, error) {
	if g.apiKey == "" {
		return nil, apperrors.NewConfigurationError("place search api key is required")
	}
	if len(categories) == 0 {
		categories = []string{"hospital"}
	}

	cacheKey := "places:v1:nearby:" + hashKey(fmt.Sprintf("%.5f,%.5f,%d,%s",
		center.Latitude, center.Longitude, radiusMeters, strings.Join(categories, ",")))
	if g.cache != nil {
		if cached, err := g.cache.Get(ctx, cacheKey); err == nil && len(cached) > 0 {
			var facilities []entities.Facility
			if err := json.Unmarshal(cached, &facilities); err == nil {
				if g.metrics != nil {
					observability.RecordCacheHit(ctx, g.metrics, cacheMetricScope)
				}
				return facilities, nil
			}
		}
		if g.metrics != nil {
			observability.RecordCacheMiss(ctx, g.metrics, cacheMetricScope)
		}
	}

	payload := searchNearbyRequest{
		IncludedTypes:  categories,
		MaxResultCount: maxResultCount,
		LanguageCode:   "en",
	}
	payload.LocationRestriction.Circle.Center.Latitude = center.Latitude
	payload.LocationRestriction.Circle.Center.Longitude = center.Longitude
	payload.LocationRestriction.Circle.Radius = float64(radiusMeters)

	resp, err := g.doSearchRequest(ctx, payload)
	if err != nil {
		return nil, err
	}

	facilities := make([]entities.Facility, 0, len(resp.Places))
	for _, place := range resp.Places {
		facilities = append(facilities, mapPlace(place))
	}

	if g.cache != nil {
		if encoded, err := json.Marshal(facilities); err == nil {
			_ = g.cache.Set(ctx, cacheKey, encoded, searchCacheTTLSeconds)
		}
	}

	return facilities, nil
}

func (g *GooglePlacesProvider) doSearchRequest(ctx context.Context, payload searchNearbyRequest) (*searchNearbyResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to encode place search request", err)
	}

	result, err := g.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to build place search request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Goog-Api-Key", g.apiKey)
		req.Header.Set("X-Goog-FieldMask", fieldMask)

		resp, err := g.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("place search request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("place search returned status %d", resp.StatusCode)
		}

		var decoded searchNearbyResponse
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			return nil, fmt.Errorf("failed to decode place search response: %w", err)
		}
		return &decoded, nil
	})
	if err != nil {
		return nil, apperrors.NewExternalError("place search provider unavailable", err)
	}

	return result.(*searchNearbyResponse), nil
}

func mapPlace(place googlePlace) entities.Facility {
	phone := place.InternationalPhoneNumber
	if phone == "" {
		phone = place.NationalPhoneNumber
	}

	facility := entities.Facility{
		ID:           place.ID,
		Name:         place.DisplayName.Text,
		Address:      place.FormattedAddress,
		Location:     entities.Coordinates{Latitude: place.Location.Latitude, Longitude: place.Location.Longitude},
		CategoryTags: place.Types,
		PrimaryTag:   place.PrimaryType,
		PhoneNumber:  phone,
		Rating:       place.Rating,
		RatingCount:  place.UserRatingCount,
	}
	if place.CurrentOpeningHours != nil {
		openNow := place.CurrentOpeningHours.OpenNow
		facility.OpenNow = &openNow
	}
	return facility
}

func hashKey(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

type searchNearbyRequest struct {
	IncludedTypes       []string `json:"includedTypes"`
	MaxResultCount      int      `json:"maxResultCount"`
	LanguageCode        string   `json:"languageCode"`
	LocationRestriction struct {
		Circle struct {
			Center struct {
				Latitude  float64 `json:"latitude"`
				Longitude float64 `json:"longitude"`
			} `json:"center"`
			Radius float64 `json:"radius"`
		} `json:"circle"`
	} `json:"locationRestriction"`
}

type searchNearbyResponse struct {
	Places []googlePlace `json:"places"`
}

type googlePlace struct {
	ID          string `json:"id"`
	DisplayName struct {
		Text string `json:"text"`
	} `json:"displayName"`
	FormattedAddress string `json:"formattedAddress"`
	Location         struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"location"`
	Types                    []string `json:"types"`
	NationalPhoneNumber      string   `json:"nationalPhoneNumber"`
	InternationalPhoneNumber string   `json:"internationalPhoneNumber"`
	Rating                   float64  `json:"rating"`
	UserRatingCount          int      `json:"userRatingCount"`
	PrimaryType              string   `json:"primaryType"`
	CurrentOpeningHours      *struct {
		OpenNow bool `json:"openNow"`
	} `json:"currentOpeningHours"`
}
