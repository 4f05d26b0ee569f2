package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/carefinder/backend/internal/domain/entities"
	apperrors "github.com/carefinder/backend/pkg/errors"
)

const (
	etaWeight      = 0.4
	waitWeight     = 0.3
	typeWeight     = 0.2
	severityWeight = 0.1

	// Sub-scores fall off linearly to zero at these horizons.
	etaFalloffMinutes  = 30.0
	waitFalloffMinutes = 60.0

	maxAlternatives     = 2
	maxScoredCandidates = 5

	recommendationDisclaimer = "This tool does not provide medical advice. " +
		"If you believe you are experiencing a medical emergency, call 911 immediately."
)

// RecommendationRequest carries the triage output (severity and needed
// facility type come from an external symptom classifier, never computed
// here) together with the search location.
type RecommendationRequest struct {
	Latitude           float64               `json:"latitude"`
	Longitude          float64               `json:"longitude"`
	RadiusMeters       int                   `json:"radius_meters,omitempty"`
	Severity           int                   `json:"severity"`
	FacilityTypeNeeded entities.FacilityType `json:"facility_type_needed"`
}

// ScoredFacility is a ranked facility with its 0-100 suitability score and
// the human-readable reasons behind it.
type ScoredFacility struct {
	entities.RankedFacility
	SuitabilityScore int      `json:"suitability_score"`
	Reasoning        []string `json:"reasoning"`
}

// RecommendationResponse names one recommended facility plus up to two
// alternatives, with a plain-language explanation of the pick.
type RecommendationResponse struct {
	Recommended  ScoredFacility   `json:"recommended"`
	Alternatives []ScoredFacility `json:"alternatives"`
	Explanation  string           `json:"explanation"`
	Disclaimer   string           `json:"disclaimer"`
}

// RecommendationService layers a weighted suitability score over discovery
// results. The score explains a small candidate set; it never replaces the
// primary travel-plus-wait ordering.
type RecommendationService struct {
	discovery *DiscoveryService
}

// NewRecommendationService creates a new recommendation service.
func NewRecommendationService(discovery *DiscoveryService) *RecommendationService {
	return &RecommendationService{discovery: discovery}
}

// Recommend runs a discovery query and scores the closest candidates for the
// given severity and facility type need.
func (s *RecommendationService) Recommend(ctx context.Context, req RecommendationRequest) (*RecommendationResponse, error) {
	if req.Severity < 1 || req.Severity > 5 {
		return nil, apperrors.NewValidationError("severity must be between 1 and 5")
	}
	if req.FacilityTypeNeeded == "" {
		return nil, apperrors.NewValidationError("facility_type_needed is required")
	}

	discovered, err := s.discovery.Discover(ctx, DiscoveryRequest{
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		RadiusMeters: req.RadiusMeters,
	})
	if err != nil {
		return nil, err
	}
	if len(discovered.Facilities) == 0 {
		return nil, apperrors.NewNotFoundError("no suitable facilities found nearby")
	}

	candidates := discovered.Facilities
	if len(candidates) > maxScoredCandidates {
		candidates = candidates[:maxScoredCandidates]
	}

	scored := make([]ScoredFacility, 0, len(candidates))
	for _, candidate := range candidates {
		scored = append(scored, scoreCandidate(candidate, req))
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].SuitabilityScore > scored[j].SuitabilityScore
	})

	alternatives := scored[1:]
	if len(alternatives) > maxAlternatives {
		alternatives = alternatives[:maxAlternatives]
	}

	return &RecommendationResponse{
		Recommended:  scored[0],
		Alternatives: alternatives,
		Explanation:  explainRecommendation(scored[0]),
		Disclaimer:   recommendationDisclaimer,
	}, nil
}

func explainRecommendation(best ScoredFacility) string {
	return fmt.Sprintf(
		"Based on your location and symptoms, we recommend %s. "+
			"It's approximately %.1f km away with an estimated ETA of %d minutes and a typical wait of %s. "+
			"Recommendation factors: %s.",
		best.Name, best.DistanceKm, best.ETAMinutes,
		FormatWaitMinutes(best.WaitMinutes), strings.Join(best.Reasoning, ", "))
}

func scoreCandidate(candidate entities.RankedFacility, req RecommendationRequest) ScoredFacility {
	etaScore := falloffScore(float64(candidate.ETAMinutes), etaFalloffMinutes)
	waitScore := falloffScore(float64(candidate.WaitMinutes), waitFalloffMinutes)

	typeScore := 75.0
	typeMatches := candidate.FacilityType == req.FacilityTypeNeeded
	if typeMatches {
		typeScore = 100.0
	}

	severityScore := 75.0
	severityFits := severityCompatible(req.Severity, candidate.FacilityType)
	if severityFits {
		severityScore = 100.0
	}

	total := etaWeight*etaScore + waitWeight*waitScore + typeWeight*typeScore + severityWeight*severityScore

	reasoning := []string{
		fmt.Sprintf("%d min away (%.1f km)", candidate.ETAMinutes, candidate.DistanceKm),
	}
	if candidate.WaitProvenance == entities.WaitProvenanceLive {
		reasoning = append(reasoning, fmt.Sprintf("live wait around %s", FormatWaitMinutes(candidate.WaitMinutes)))
	} else {
		reasoning = append(reasoning, fmt.Sprintf("estimated wait around %s", FormatWaitMinutes(candidate.WaitMinutes)))
	}
	if typeMatches {
		reasoning = append(reasoning, "matches the recommended facility type")
	}
	if severityFits {
		reasoning = append(reasoning, fmt.Sprintf("appropriate level of care for severity %d", req.Severity))
	}

	return ScoredFacility{
		RankedFacility:   candidate,
		SuitabilityScore: int(math.Round(total)),
		Reasoning:        reasoning,
	}
}

// falloffScore maps a duration to [0,100], 100 at zero and 0 at the horizon.
func falloffScore(minutes, horizon float64) float64 {
	score := 100 * (1 - minutes/horizon)
	if score < 0 {
		return 0
	}
	return score
}

// severityCompatible applies a fixed severity-to-facility-type table: high
// severity belongs in an emergency room, moderate in urgent care, low in a
// clinic.
func severityCompatible(severity int, facilityType entities.FacilityType) bool {
	switch {
	case severity >= 4:
		return facilityType == entities.FacilityTypeEmergency
	case severity == 3:
		return facilityType == entities.FacilityTypeUrgentCare
	default:
		return facilityType == entities.FacilityTypeClinic
	}
}
