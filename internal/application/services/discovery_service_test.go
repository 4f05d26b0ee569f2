package services

import (
	"context"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carefinder/backend/internal/domain/entities"
	"github.com/carefinder/backend/internal/matching"
	apperrors "github.com/carefinder/backend/pkg/errors"
)

type stubPlaces struct {
	facilities []entities.Facility
	err        error

	gotRadius     int
	gotCategories []string
}

func (s *stubPlaces) SearchNearby(ctx context.Context, center entities.Coordinates, radiusMeters int, categories []string) ([]entities.Facility, error) {
	s.gotRadius = radiusMeters
	s.gotCategories = categories
	return s.facilities, s.err
}

type stubFeed struct {
	records []entities.LiveFeedRecord
}

func (s *stubFeed) Records(ctx context.Context) []entities.LiveFeedRecord {
	return s.records
}

func loadMatching(t *testing.T) (*matching.Tables, *matching.Normalizer) {
	t.Helper()
	tables, err := matching.LoadTables(filepath.Join("../../../config/facility_matching.json"))
	require.NoError(t, err)
	return tables, matching.NewNormalizer(tables)
}

func newTestDiscovery(t *testing.T, places *stubPlaces, feed *stubFeed, estimator *WaitEstimator) *DiscoveryService {
	t.Helper()
	tables, normalizer := loadMatching(t)
	if estimator == nil {
		estimator = NewWaitEstimatorWithOptions(fixedClock(14), rand.New(rand.NewSource(1)))
	}
	return NewDiscoveryService(
		places,
		feed,
		matching.NewMatcher(tables, normalizer),
		matching.NewClassifier(tables),
		estimator,
		nil,
	)
}

func feedRecordNamed(t *testing.T, name string, occupancy, waiting int) entities.LiveFeedRecord {
	t.Helper()
	_, normalizer := loadMatching(t)
	return entities.LiveFeedRecord{
		Name:               name,
		NormalizedName:     normalizer.NormalizeFeed(name),
		OccupancyRate:      occupancy,
		WaitingToSeeDoctor: waiting,
		ObservedAt:         time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

var montreal = entities.Coordinates{Latitude: 45.5017, Longitude: -73.5673}

func TestDiscover_LiveMatchScenario(t *testing.T) {
	places := &stubPlaces{facilities: []entities.Facility{{
		ID:           "chum",
		Name:         "Centre Hospitalier de l'Université de Montréal",
		Location:     montreal,
		CategoryTags: []string{"hospital", "health"},
		PrimaryTag:   "hospital",
	}}}
	feed := &stubFeed{records: []entities.LiveFeedRecord{
		feedRecordNamed(t, "CHUM — URGENCES", 120, 10),
	}}

	service := newTestDiscovery(t, places, feed, nil)
	resp, err := service.Discover(context.Background(), DiscoveryRequest{
		Latitude:  montreal.Latitude,
		Longitude: montreal.Longitude,
	})
	require.NoError(t, err)

	require.Len(t, resp.Facilities, 1)
	chum := resp.Facilities[0]
	assert.Equal(t, entities.FacilityTypeEmergency, chum.FacilityType)
	assert.Equal(t, entities.WaitProvenanceLive, chum.WaitProvenance)
	assert.Equal(t, 216, chum.WaitMinutes)
	assert.Equal(t, 0, chum.ETAMinutes)
	assert.Equal(t, 216, chum.TotalCostMinutes)
	require.NotNil(t, chum.OccupancyRate)
	assert.Equal(t, 120, *chum.OccupancyRate)
	require.NotNil(t, chum.WaitingCount)
	assert.Equal(t, 10, *chum.WaitingCount)
	assert.Equal(t, []string{"Emergency", "Trauma Care", "24/7 Services", "Critical Care"}, chum.Services)

	assert.Equal(t, "live_feed", resp.WaitDataSource)
	assert.Equal(t, 1, resp.LiveMatchCount)
	assert.Equal(t, 1, resp.TotalCount)
}

func TestDiscover_NoFeedMatchDegradesToEstimated(t *testing.T) {
	places := &stubPlaces{facilities: []entities.Facility{{
		ID:           "clinic",
		Name:         "Clinique médicale Alpha",
		Location:     montreal,
		CategoryTags: []string{"medical_center"},
		PrimaryTag:   "medical_center",
	}}}

	service := newTestDiscovery(t, places, &stubFeed{}, nil)
	resp, err := service.Discover(context.Background(), DiscoveryRequest{
		Latitude:  montreal.Latitude,
		Longitude: montreal.Longitude,
	})
	require.NoError(t, err)

	require.Len(t, resp.Facilities, 1)
	assert.Equal(t, entities.WaitProvenanceEstimated, resp.Facilities[0].WaitProvenance)
	assert.Nil(t, resp.Facilities[0].OccupancyRate)
	assert.Equal(t, []string{"General Practice", "Consultations", "Check-ups", "Vaccinations"}, resp.Facilities[0].Services)
	assert.Equal(t, "estimated", resp.WaitDataSource)
	assert.Equal(t, 0, resp.LiveMatchCount)
}

func TestDiscover_FiltersIrrelevantCandidates(t *testing.T) {
	places := &stubPlaces{facilities: []entities.Facility{
		{
			ID:           "dental",
			Name:         "Joe's Dental Clinic",
			Location:     montreal,
			CategoryTags: []string{"health"},
		},
		{
			ID:           "hospital",
			Name:         "Hôpital de Verdun",
			Location:     montreal,
			CategoryTags: []string{"hospital"},
			PrimaryTag:   "hospital",
		},
	}}

	service := newTestDiscovery(t, places, &stubFeed{}, nil)
	resp, err := service.Discover(context.Background(), DiscoveryRequest{
		Latitude:  montreal.Latitude,
		Longitude: montreal.Longitude,
	})
	require.NoError(t, err)

	require.Len(t, resp.Facilities, 1)
	assert.Equal(t, "hospital", resp.Facilities[0].ID)
}

func TestDiscover_CloserClinicRanksFirst(t *testing.T) {
	// Roughly 1 km and 5 km north of the center. Off-peak clinic base wait
	// is 10 with at most 20% jitter, so the ETA gap dominates.
	places := &stubPlaces{facilities: []entities.Facility{
		{
			ID:           "far",
			Name:         "Clinique médicale Beta",
			Location:     entities.Coordinates{Latitude: montreal.Latitude + 0.045, Longitude: montreal.Longitude},
			CategoryTags: []string{"medical_center"},
		},
		{
			ID:           "near",
			Name:         "Clinique médicale Alpha",
			Location:     entities.Coordinates{Latitude: montreal.Latitude + 0.009, Longitude: montreal.Longitude},
			CategoryTags: []string{"medical_center"},
		},
	}}

	service := newTestDiscovery(t, places, &stubFeed{}, nil)
	resp, err := service.Discover(context.Background(), DiscoveryRequest{
		Latitude:  montreal.Latitude,
		Longitude: montreal.Longitude,
	})
	require.NoError(t, err)

	require.Len(t, resp.Facilities, 2)
	assert.Equal(t, "near", resp.Facilities[0].ID)
	assert.Equal(t, "far", resp.Facilities[1].ID)
	assert.LessOrEqual(t, resp.Facilities[0].TotalCostMinutes, resp.Facilities[1].TotalCostMinutes)
}

func TestDiscover_PlaceSearchFailureFailsRequest(t *testing.T) {
	places := &stubPlaces{err: apperrors.NewExternalError("provider down", nil)}

	service := newTestDiscovery(t, places, &stubFeed{}, nil)
	_, err := service.Discover(context.Background(), DiscoveryRequest{
		Latitude:  montreal.Latitude,
		Longitude: montreal.Longitude,
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeExternal, apperrors.TypeOf(err))
}

func TestDiscover_ValidatesCoordinates(t *testing.T) {
	service := newTestDiscovery(t, &stubPlaces{}, &stubFeed{}, nil)

	_, err := service.Discover(context.Background(), DiscoveryRequest{Latitude: 91, Longitude: 0})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.TypeOf(err))

	_, err = service.Discover(context.Background(), DiscoveryRequest{Latitude: 0, Longitude: -181})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.TypeOf(err))
}

func TestDiscover_AppliesDefaults(t *testing.T) {
	places := &stubPlaces{}
	service := newTestDiscovery(t, places, &stubFeed{}, nil)

	resp, err := service.Discover(context.Background(), DiscoveryRequest{
		Latitude:  montreal.Latitude,
		Longitude: montreal.Longitude,
	})
	require.NoError(t, err)

	assert.Equal(t, 5000, places.gotRadius)
	assert.Equal(t, []string{"hospital"}, places.gotCategories)
	assert.Empty(t, resp.Facilities)
	assert.Equal(t, 0, resp.TotalCount)
}

func TestRankFacilities(t *testing.T) {
	var empty []entities.RankedFacility
	RankFacilities(empty)
	assert.Empty(t, empty)

	single := []entities.RankedFacility{{TotalCostMinutes: 42}}
	RankFacilities(single)
	assert.Equal(t, 42, single[0].TotalCostMinutes)

	many := []entities.RankedFacility{
		{TotalCostMinutes: 30},
		{TotalCostMinutes: 10},
		{TotalCostMinutes: 20},
		{TotalCostMinutes: 10},
	}
	RankFacilities(many)
	for i := 1; i < len(many); i++ {
		assert.LessOrEqual(t, many[i-1].TotalCostMinutes, many[i].TotalCostMinutes)
	}
}
