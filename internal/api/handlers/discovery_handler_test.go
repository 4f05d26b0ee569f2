package handlers

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carefinder/backend/internal/application/services"
	"github.com/carefinder/backend/internal/domain/entities"
	"github.com/carefinder/backend/internal/matching"
	apperrors "github.com/carefinder/backend/pkg/errors"
)

type stubPlaces struct {
	facilities []entities.Facility
	err        error
}

func (s *stubPlaces) SearchNearby(ctx context.Context, center entities.Coordinates, radiusMeters int, categories []string) ([]entities.Facility, error) {
	return s.facilities, s.err
}

type stubFeed struct {
	records   []entities.LiveFeedRecord
	fetchedAt time.Time
}

func (s *stubFeed) Records(ctx context.Context) []entities.LiveFeedRecord {
	return s.records
}

func (s *stubFeed) LastFetched() (time.Time, bool) {
	return s.fetchedAt, !s.fetchedAt.IsZero()
}

func testMatching(t *testing.T) (*matching.Tables, *matching.Normalizer) {
	t.Helper()
	tables, err := matching.LoadTables(filepath.Join("../../../config/facility_matching.json"))
	require.NoError(t, err)
	return tables, matching.NewNormalizer(tables)
}

func testEstimator() *services.WaitEstimator {
	offPeak := func() time.Time { return time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC) }
	return services.NewWaitEstimatorWithOptions(offPeak, rand.New(rand.NewSource(1)))
}

func newTestDiscoveryHandler(t *testing.T, places *stubPlaces, feed *stubFeed) *DiscoveryHandler {
	t.Helper()
	tables, normalizer := testMatching(t)
	service := services.NewDiscoveryService(
		places,
		feed,
		matching.NewMatcher(tables, normalizer),
		matching.NewClassifier(tables),
		testEstimator(),
		nil,
	)
	return NewDiscoveryHandler(service)
}

func hospitalFixture() entities.Facility {
	return entities.Facility{
		ID:           "verdun",
		Name:         "Hôpital de Verdun",
		Location:     entities.Coordinates{Latitude: 45.4613, Longitude: -73.5698},
		CategoryTags: []string{"hospital"},
		PrimaryTag:   "hospital",
	}
}

func TestDiscover_Post(t *testing.T) {
	handler := newTestDiscoveryHandler(t, &stubPlaces{facilities: []entities.Facility{hospitalFixture()}}, &stubFeed{})

	body := `{"latitude": 45.4613, "longitude": -73.5698, "radius_meters": 3000}`
	req := httptest.NewRequest(http.MethodPost, "/api/discovery", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Discover(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp services.DiscoveryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Facilities, 1)
	assert.Equal(t, "verdun", resp.Facilities[0].ID)
	assert.Equal(t, entities.WaitProvenanceEstimated, resp.Facilities[0].WaitProvenance)
	assert.Equal(t, "estimated", resp.WaitDataSource)
	assert.Equal(t, 1, resp.TotalCount)
}

func TestDiscover_Post_InvalidBody(t *testing.T) {
	handler := newTestDiscoveryHandler(t, &stubPlaces{}, &stubFeed{})

	req := httptest.NewRequest(http.MethodPost, "/api/discovery", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	handler.Discover(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDiscover_Post_ValidationError(t *testing.T) {
	handler := newTestDiscoveryHandler(t, &stubPlaces{}, &stubFeed{})

	req := httptest.NewRequest(http.MethodPost, "/api/discovery", strings.NewReader(`{"latitude": 95, "longitude": 0}`))
	rec := httptest.NewRecorder()

	handler.Discover(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "latitude")
}

func TestDiscover_Post_ProviderFailure(t *testing.T) {
	handler := newTestDiscoveryHandler(t, &stubPlaces{err: apperrors.NewExternalError("provider down", nil)}, &stubFeed{})

	req := httptest.NewRequest(http.MethodPost, "/api/discovery", strings.NewReader(`{"latitude": 45.5, "longitude": -73.5}`))
	rec := httptest.NewRecorder()

	handler.Discover(rec, req)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestDiscover_Post_MisconfiguredProvider(t *testing.T) {
	handler := newTestDiscoveryHandler(t, &stubPlaces{err: apperrors.NewConfigurationError("api key missing")}, &stubFeed{})

	req := httptest.NewRequest(http.MethodPost, "/api/discovery", strings.NewReader(`{"latitude": 45.5, "longitude": -73.5}`))
	rec := httptest.NewRecorder()

	handler.Discover(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDiscover_Get(t *testing.T) {
	handler := newTestDiscoveryHandler(t, &stubPlaces{facilities: []entities.Facility{hospitalFixture()}}, &stubFeed{})

	req := httptest.NewRequest(http.MethodGet, "/api/discovery?lat=45.4613&lng=-73.5698&radius=3000", nil)
	rec := httptest.NewRecorder()

	handler.DiscoverByQuery(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp services.DiscoveryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.TotalCount)
}

func TestDiscover_Get_MissingCoordinates(t *testing.T) {
	handler := newTestDiscoveryHandler(t, &stubPlaces{}, &stubFeed{})

	req := httptest.NewRequest(http.MethodGet, "/api/discovery?lng=-73.5", nil)
	rec := httptest.NewRecorder()

	handler.DiscoverByQuery(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/discovery?lat=45.5&lng=-73.5&radius=abc", nil)
	rec = httptest.NewRecorder()

	handler.DiscoverByQuery(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
