package entities

// FacilityType classifies a medical facility by the level of care it provides.
// It is always derived from name keywords and category tags, never taken
// verbatim from an upstream source.
type FacilityType string

const (
	FacilityTypeEmergency  FacilityType = "emergency"
	FacilityTypeUrgentCare FacilityType = "urgent_care"
	FacilityTypeClinic     FacilityType = "clinic"
)

// Coordinates represents geographical coordinates in WGS-84 degrees
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Facility is a candidate returned by the place-search provider. Name is
// untrusted free text: mixed language, honorifics, abbreviations.
type Facility struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Address      string      `json:"address"`
	Location     Coordinates `json:"location"`
	CategoryTags []string    `json:"category_tags,omitempty"`
	PrimaryTag   string      `json:"primary_tag,omitempty"`
	PhoneNumber  string      `json:"phone_number,omitempty"`
	Rating       float64     `json:"rating,omitempty"`
	RatingCount  int         `json:"rating_count,omitempty"`
	OpenNow      *bool       `json:"open_now,omitempty"`
}

// WaitProvenance tells whether a wait-time figure came from the live
// occupancy feed or from a synthetic heuristic.
type WaitProvenance string

const (
	WaitProvenanceLive      WaitProvenance = "live"
	WaitProvenanceEstimated WaitProvenance = "estimated"
)

// WaitEstimate is a bounded wait-time figure with its provenance.
type WaitEstimate struct {
	Minutes    int            `json:"minutes"`
	Provenance WaitProvenance `json:"provenance"`
}

// RankedFacility is the output record for the discovery response.
// TotalCostMinutes = ETAMinutes + WaitMinutes and is the sort key.
type RankedFacility struct {
	Facility
	FacilityType     FacilityType   `json:"facility_type"`
	DistanceKm       float64        `json:"distance_km"`
	ETAMinutes       int            `json:"eta_minutes"`
	WaitMinutes      int            `json:"wait_minutes"`
	WaitProvenance   WaitProvenance `json:"wait_provenance"`
	OccupancyRate    *int           `json:"occupancy_rate,omitempty"`
	WaitingCount     *int           `json:"waiting_count,omitempty"`
	Services         []string       `json:"services,omitempty"`
	TotalCostMinutes int            `json:"total_cost_minutes"`
}
