package services

import (
	"context"
	"sort"

	"github.com/carefinder/backend/internal/domain/entities"
	"github.com/carefinder/backend/internal/domain/providers"
	"github.com/carefinder/backend/internal/infrastructure/observability"
	"github.com/carefinder/backend/internal/matching"
	apperrors "github.com/carefinder/backend/pkg/errors"
	"github.com/carefinder/backend/pkg/geomath"
)

const (
	defaultRadiusMeters = 5000
	defaultCategory     = "hospital"
)

// facilityServices maps a facility type to the services it is assumed to
// offer. Coarse by design: the place-search provider does not expose a
// service catalog.
var facilityServices = map[entities.FacilityType][]string{
	entities.FacilityTypeEmergency:  {"Emergency", "Trauma Care", "24/7 Services", "Critical Care"},
	entities.FacilityTypeUrgentCare: {"Urgent Care", "Walk-in", "Minor Injuries", "Lab Work"},
	entities.FacilityTypeClinic:     {"General Practice", "Consultations", "Check-ups", "Vaccinations"},
}

// DiscoveryRequest describes a nearby-facility discovery query.
type DiscoveryRequest struct {
	Latitude           float64  `json:"latitude"`
	Longitude          float64  `json:"longitude"`
	RadiusMeters       int      `json:"radius_meters,omitempty"`
	FacilityCategories []string `json:"facility_categories,omitempty"`
}

// DiscoveryResponse is the ranked discovery result. WaitDataSource is
// "live_feed" when at least one facility matched a feed record.
type DiscoveryResponse struct {
	Facilities     []entities.RankedFacility `json:"facilities"`
	WaitDataSource string                    `json:"wait_data_source"`
	LiveMatchCount int                       `json:"live_match_count"`
	TotalCount     int                       `json:"total_count"`
}

// DiscoveryService fans out to the place-search provider and the live feed,
// reconciles the two by fuzzy name matching, and ranks the survivors by total
// time cost (travel plus wait).
type DiscoveryService struct {
	places     providers.PlaceSearchProvider
	feed       providers.LiveFeedProvider
	matcher    *matching.Matcher
	classifier *matching.Classifier
	estimator  *WaitEstimator
	metrics    *observability.Metrics
}

// NewDiscoveryService creates a new discovery service. metrics may be nil.
func NewDiscoveryService(
	places providers.PlaceSearchProvider,
	feed providers.LiveFeedProvider,
	matcher *matching.Matcher,
	classifier *matching.Classifier,
	estimator *WaitEstimator,
	metrics *observability.Metrics,
) *DiscoveryService {
	return &DiscoveryService{
		places:     places,
		feed:       feed,
		matcher:    matcher,
		classifier: classifier,
		estimator:  estimator,
		metrics:    metrics,
	}
}

// Discover executes a discovery query. A place-search failure fails the whole
// request; live feed problems degrade every facility to estimated provenance.
func (s *DiscoveryService) Discover(ctx context.Context, req DiscoveryRequest) (*DiscoveryResponse, error) {
	if err := validateCoordinates(req.Latitude, req.Longitude); err != nil {
		return nil, err
	}
	if req.RadiusMeters <= 0 {
		req.RadiusMeters = defaultRadiusMeters
	}
	if len(req.FacilityCategories) == 0 {
		req.FacilityCategories = []string{defaultCategory}
	}

	center := entities.Coordinates{Latitude: req.Latitude, Longitude: req.Longitude}

	// The provider call and the feed read are independent until matching.
	type searchResult struct {
		facilities []entities.Facility
		err        error
	}
	searchCh := make(chan searchResult, 1)
	go func() {
		facilities, err := s.places.SearchNearby(ctx, center, req.RadiusMeters, req.FacilityCategories)
		searchCh <- searchResult{facilities: facilities, err: err}
	}()

	records := s.feed.Records(ctx)

	search := <-searchCh
	if search.err != nil {
		return nil, search.err
	}

	ranked := make([]entities.RankedFacility, 0, len(search.facilities))
	liveMatches := 0
	for _, facility := range search.facilities {
		if !s.classifier.IsRelevantFacility(facility.Name, facility.CategoryTags, facility.PrimaryTag) {
			continue
		}
		candidate := s.buildCandidate(facility, center, records)
		if candidate.WaitProvenance == entities.WaitProvenanceLive {
			liveMatches++
		}
		ranked = append(ranked, candidate)
	}

	RankFacilities(ranked)

	if s.metrics != nil {
		observability.RecordLiveMatches(ctx, s.metrics, liveMatches)
	}
	observability.LoggerFromContext(ctx).Debug().
		Int("candidates", len(search.facilities)).
		Int("ranked", len(ranked)).
		Int("live_matches", liveMatches).
		Msg("discovery query completed")

	waitDataSource := "estimated"
	if liveMatches > 0 {
		waitDataSource = "live_feed"
	}

	return &DiscoveryResponse{
		Facilities:     ranked,
		WaitDataSource: waitDataSource,
		LiveMatchCount: liveMatches,
		TotalCount:     len(ranked),
	}, nil
}

func (s *DiscoveryService) buildCandidate(facility entities.Facility, center entities.Coordinates, records []entities.LiveFeedRecord) entities.RankedFacility {
	facilityType := s.classifier.ClassifyFacilityType(facility.Name, facility.CategoryTags, facility.PrimaryTag)
	record := s.matcher.Match(facility, records)
	estimate := s.estimator.Estimate(record, facilityType)

	distanceKm := geomath.DistanceKmRounded(center, facility.Location)
	etaMinutes := geomath.ETAMinutes(distanceKm)

	candidate := entities.RankedFacility{
		Facility:         facility,
		FacilityType:     facilityType,
		DistanceKm:       distanceKm,
		ETAMinutes:       etaMinutes,
		WaitMinutes:      estimate.Minutes,
		WaitProvenance:   estimate.Provenance,
		Services:         facilityServices[facilityType],
		TotalCostMinutes: etaMinutes + estimate.Minutes,
	}
	if record != nil {
		occupancy := record.OccupancyRate
		waiting := record.WaitingToSeeDoctor
		candidate.OccupancyRate = &occupancy
		candidate.WaitingCount = &waiting
	}
	return candidate
}

// RankFacilities sorts candidates in place, stable ascending by total time
// cost. Equal-cost candidates keep their provider order.
func RankFacilities(candidates []entities.RankedFacility) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].TotalCostMinutes < candidates[j].TotalCostMinutes
	})
}

func validateCoordinates(latitude, longitude float64) error {
	if latitude < -90 || latitude > 90 {
		return apperrors.NewValidationError("latitude must be between -90 and 90")
	}
	if longitude < -180 || longitude > 180 {
		return apperrors.NewValidationError("longitude must be between -180 and 180")
	}
	return nil
}
