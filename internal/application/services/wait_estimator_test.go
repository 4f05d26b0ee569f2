package services

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/carefinder/backend/internal/domain/entities"
)

func fixedClock(hour int) func() time.Time {
	return func() time.Time {
		return time.Date(2026, 3, 1, hour, 30, 0, 0, time.UTC)
	}
}

func TestEstimate_LiveOvercapacityScenario(t *testing.T) {
	estimator := NewWaitEstimator()
	record := &entities.LiveFeedRecord{
		Name:               "CHUM — URGENCES",
		WaitingToSeeDoctor: 10,
		OccupancyRate:      120,
	}

	estimate := estimator.Estimate(record, entities.FacilityTypeEmergency)

	// 10 waiting * 15 min * 1.2 occupancy factor * 1.2 over-capacity multiplier.
	assert.Equal(t, 216, estimate.Minutes)
	assert.Equal(t, entities.WaitProvenanceLive, estimate.Provenance)
}

func TestEstimate_LiveSevereOvercapacityMultiplier(t *testing.T) {
	estimator := NewWaitEstimator()
	record := &entities.LiveFeedRecord{WaitingToSeeDoctor: 10, OccupancyRate: 160}

	estimate := estimator.Estimate(record, entities.FacilityTypeEmergency)

	// 10 * 15 * 1.6 * 1.5 = 360.
	assert.Equal(t, 360, estimate.Minutes)
}

func TestEstimate_LiveClampedToFloor(t *testing.T) {
	estimator := NewWaitEstimator()
	record := &entities.LiveFeedRecord{WaitingToSeeDoctor: 0, OccupancyRate: 40}

	estimate := estimator.Estimate(record, entities.FacilityTypeEmergency)
	assert.Equal(t, 15, estimate.Minutes)
}

func TestEstimate_LiveClampedToCeiling(t *testing.T) {
	estimator := NewWaitEstimator()
	record := &entities.LiveFeedRecord{WaitingToSeeDoctor: 100, OccupancyRate: 200}

	estimate := estimator.Estimate(record, entities.FacilityTypeEmergency)
	assert.Equal(t, 480, estimate.Minutes)
}

func TestEstimate_LiveAlwaysWithinBounds(t *testing.T) {
	estimator := NewWaitEstimator()
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 500; i++ {
		record := &entities.LiveFeedRecord{
			WaitingToSeeDoctor: rng.Intn(80),
			OccupancyRate:      rng.Intn(250),
		}
		estimate := estimator.Estimate(record, entities.FacilityTypeEmergency)
		assert.GreaterOrEqual(t, estimate.Minutes, 15)
		assert.LessOrEqual(t, estimate.Minutes, 480)
	}
}

func TestEstimate_EstimatedPeakVersusOffPeak(t *testing.T) {
	// Urgent care base is 35 peak and 20 off-peak; the jitter bands around
	// those do not overlap.
	peak := NewWaitEstimatorWithOptions(fixedClock(9), rand.New(rand.NewSource(7)))
	offPeak := NewWaitEstimatorWithOptions(fixedClock(14), rand.New(rand.NewSource(7)))

	peakEstimate := peak.Estimate(nil, entities.FacilityTypeUrgentCare)
	offPeakEstimate := offPeak.Estimate(nil, entities.FacilityTypeUrgentCare)

	assert.Equal(t, entities.WaitProvenanceEstimated, peakEstimate.Provenance)
	assert.InDelta(t, 35, peakEstimate.Minutes, 7)
	assert.InDelta(t, 20, offPeakEstimate.Minutes, 4)
	assert.Greater(t, peakEstimate.Minutes, offPeakEstimate.Minutes)
}

func TestEstimate_EstimatedIsDeterministicForSeed(t *testing.T) {
	first := NewWaitEstimatorWithOptions(fixedClock(14), rand.New(rand.NewSource(42)))
	second := NewWaitEstimatorWithOptions(fixedClock(14), rand.New(rand.NewSource(42)))

	for i := 0; i < 10; i++ {
		assert.Equal(t,
			first.Estimate(nil, entities.FacilityTypeClinic),
			second.Estimate(nil, entities.FacilityTypeClinic))
	}
}

func TestEstimate_EstimatedNeverBelowFloor(t *testing.T) {
	estimator := NewWaitEstimatorWithOptions(fixedClock(3), rand.New(rand.NewSource(3)))

	for i := 0; i < 200; i++ {
		estimate := estimator.Estimate(nil, entities.FacilityTypeClinic)
		assert.GreaterOrEqual(t, estimate.Minutes, 5)
	}
}

func TestEstimate_UnknownTypeFallsBackToClinic(t *testing.T) {
	seed := int64(11)
	unknown := NewWaitEstimatorWithOptions(fixedClock(14), rand.New(rand.NewSource(seed)))
	clinic := NewWaitEstimatorWithOptions(fixedClock(14), rand.New(rand.NewSource(seed)))

	assert.Equal(t,
		clinic.Estimate(nil, entities.FacilityTypeClinic).Minutes,
		unknown.Estimate(nil, entities.FacilityType("mystery")).Minutes)
}

func TestIsPeakHour(t *testing.T) {
	cases := map[int]bool{
		8:  false,
		9:  true,
		11: true,
		12: false,
		16: false,
		17: true,
		20: true,
		21: false,
	}
	for hour, want := range cases {
		assert.Equal(t, want, isPeakHour(time.Date(2026, 3, 1, hour, 0, 0, 0, time.UTC)), "hour %d", hour)
	}
}

func TestFormatWaitMinutes(t *testing.T) {
	assert.Equal(t, "45 min", FormatWaitMinutes(45))
	assert.Equal(t, "1h", FormatWaitMinutes(60))
	assert.Equal(t, "2h 15min", FormatWaitMinutes(135))
	assert.Equal(t, "3h 36min", FormatWaitMinutes(216))
	assert.Equal(t, "5 min", FormatWaitMinutes(5))
}
