package entities

import "time"

// LiveFeedRecord is one row of the scraped emergency-room occupancy feed.
// Records are immutable once parsed; a fresh scrape produces a whole new set.
type LiveFeedRecord struct {
	Name                 string    `json:"name"`
	NormalizedName       string    `json:"normalized_name"`
	TotalPeople          int       `json:"total_people"`
	WaitingToSeeDoctor   int       `json:"waiting_to_see_doctor"`
	FunctionalStretchers int       `json:"functional_stretchers"`
	OccupiedStretchers   int       `json:"occupied_stretchers"`
	// OccupancyRate is a percentage and may legitimately exceed 100 for
	// over-capacity emergency rooms.
	OccupancyRate   int       `json:"occupancy_rate"`
	PatientsOver24h int       `json:"patients_over_24h"`
	PatientsOver48h int       `json:"patients_over_48h"`
	ObservedAt      time.Time `json:"observed_at"`
}

// MatchResult pairs a facility with the feed record it resolved to, if any.
// A facility matches at most one record; duplicates in the upstream candidate
// set may legitimately map to the same record.
type MatchResult struct {
	Facility   Facility
	Record     *LiveFeedRecord
	Provenance WaitProvenance
}
