package services

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/carefinder/backend/internal/domain/entities"
)

const (
	minLiveWaitMinutes = 15
	maxLiveWaitMinutes = 480

	minutesPerWaitingPatient = 15

	estimatedFloorMinutes = 5
	jitterFraction        = 0.2
)

// baseWaitMinutes is the synthetic prior for facilities without live data,
// keyed by facility type and whether the clock is inside a peak window.
var baseWaitMinutes = map[entities.FacilityType]struct{ peak, offPeak int }{
	entities.FacilityTypeEmergency:  {peak: 60, offPeak: 40},
	entities.FacilityTypeUrgentCare: {peak: 35, offPeak: 20},
	entities.FacilityTypeClinic:     {peak: 20, offPeak: 10},
}

// WaitEstimator converts a live feed record, or the absence of one, into a
// bounded wait-time figure. The live and estimated formulas are deliberately
// different: live data already encodes real congestion, the synthetic prior
// only encodes a coarse time-of-day signal.
type WaitEstimator struct {
	now func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// NewWaitEstimator creates an estimator with the real clock and a
// time-seeded random source.
func NewWaitEstimator() *WaitEstimator {
	return NewWaitEstimatorWithOptions(time.Now, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewWaitEstimatorWithOptions allows injecting the clock and random source
// (used for tests).
func NewWaitEstimatorWithOptions(now func() time.Time, rng *rand.Rand) *WaitEstimator {
	if now == nil {
		now = time.Now
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &WaitEstimator{now: now, rng: rng}
}

// Estimate returns the wait time for a facility. A nil record means no live
// data is available and yields estimated provenance.
func (e *WaitEstimator) Estimate(record *entities.LiveFeedRecord, facilityType entities.FacilityType) entities.WaitEstimate {
	if record != nil {
		return entities.WaitEstimate{
			Minutes:    liveWaitMinutes(record),
			Provenance: entities.WaitProvenanceLive,
		}
	}
	return entities.WaitEstimate{
		Minutes:    e.estimatedWaitMinutes(facilityType),
		Provenance: entities.WaitProvenanceEstimated,
	}
}

func liveWaitMinutes(record *entities.LiveFeedRecord) int {
	occupancy := float64(record.OccupancyRate)
	minutes := float64(record.WaitingToSeeDoctor) * minutesPerWaitingPatient * math.Max(0.5, occupancy/100)

	// Over-capacity emergency rooms slow down disproportionately.
	switch {
	case occupancy > 150:
		minutes *= 1.5
	case occupancy > 100:
		minutes *= 1.2
	}

	rounded := int(math.Round(minutes))
	if rounded < minLiveWaitMinutes {
		return minLiveWaitMinutes
	}
	if rounded > maxLiveWaitMinutes {
		return maxLiveWaitMinutes
	}
	return rounded
}

func (e *WaitEstimator) estimatedWaitMinutes(facilityType entities.FacilityType) int {
	base, ok := baseWaitMinutes[facilityType]
	if !ok {
		base = baseWaitMinutes[entities.FacilityTypeClinic]
	}

	minutes := base.offPeak
	if isPeakHour(e.now()) {
		minutes = base.peak
	}

	e.mu.Lock()
	jitter := 1 + (e.rng.Float64()*2-1)*jitterFraction
	e.mu.Unlock()

	jittered := int(math.Round(float64(minutes) * jitter))
	if jittered < estimatedFloorMinutes {
		return estimatedFloorMinutes
	}
	return jittered
}

// isPeakHour reports whether t falls inside the morning (09:00-11:59) or
// evening (17:00-20:59) rush window.
func isPeakHour(t time.Time) bool {
	hour := t.Hour()
	return (hour >= 9 && hour < 12) || (hour >= 17 && hour < 21)
}

// FormatWaitMinutes renders a wait in minutes as a human-readable duration,
// e.g. "45 min" or "2h 15min".
func FormatWaitMinutes(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	hours := minutes / 60
	remainder := minutes % 60
	if remainder == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh %dmin", hours, remainder)
}
