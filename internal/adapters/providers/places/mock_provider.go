package places

import (
	"context"

	"github.com/carefinder/backend/internal/domain/entities"
	"github.com/carefinder/backend/internal/domain/providers"
	"github.com/carefinder/backend/pkg/geomath"
)

// MockPlacesProvider serves a fixed set of Montreal facilities for local
// development and tests, filtered by the requested radius.
type MockPlacesProvider struct {
	facilities []entities.Facility
}

// NewMockPlacesProvider creates a provider backed by static fixture data.
func NewMockPlacesProvider() providers.PlaceSearchProvider {
	return &MockPlacesProvider{facilities: mockFacilities()}
}

// SearchNearby returns the fixture facilities within radiusMeters of center.
func (m *MockPlacesProvider) SearchNearby(ctx context.Context, center entities.Coordinates, radiusMeters int, categories []string) ([]entities.Facility, error) {
	maxKm := float64(radiusMeters) / 1000.0
	var results []entities.Facility
	for _, facility := range m.facilities {
		if geomath.DistanceKm(center, facility.Location) <= maxKm {
			results = append(results, facility)
		}
	}
	return results, nil
}

func mockFacilities() []entities.Facility {
	open := true
	return []entities.Facility{
		{
			ID:           "mock-chum",
			Name:         "Centre hospitalier de l'Université de Montréal",
			Address:      "1051 Rue Sanguinet, Montréal, QC H2X 3E4",
			Location:     entities.Coordinates{Latitude: 45.5115, Longitude: -73.5566},
			CategoryTags: []string{"hospital", "health", "point_of_interest"},
			PrimaryTag:   "hospital",
			PhoneNumber:  "+1 514-890-8000",
			Rating:       3.1,
			RatingCount:  812,
			OpenNow:      &open,
		},
		{
			ID:           "mock-jgh",
			Name:         "Jewish General Hospital",
			Address:      "3755 Chemin de la Côte-Sainte-Catherine, Montréal, QC H3T 1E2",
			Location:     entities.Coordinates{Latitude: 45.4972, Longitude: -73.6295},
			CategoryTags: []string{"hospital", "health"},
			PrimaryTag:   "hospital",
			PhoneNumber:  "+1 514-340-8222",
			Rating:       3.4,
			RatingCount:  654,
			OpenNow:      &open,
		},
		{
			ID:           "mock-verdun",
			Name:         "Hôpital de Verdun",
			Address:      "4000 Boulevard LaSalle, Verdun, QC H4G 2A3",
			Location:     entities.Coordinates{Latitude: 45.4613, Longitude: -73.5698},
			CategoryTags: []string{"hospital", "health"},
			PrimaryTag:   "hospital",
			PhoneNumber:  "+1 514-362-1000",
			Rating:       2.9,
			RatingCount:  402,
			OpenNow:      &open,
		},
		{
			ID:           "mock-clsc-plateau",
			Name:         "CLSC du Plateau-Mont-Royal",
			Address:      "4625 Avenue De Lorimier, Montréal, QC H2H 2B4",
			Location:     entities.Coordinates{Latitude: 45.5312, Longitude: -73.5729},
			CategoryTags: []string{"medical_center", "health"},
			PrimaryTag:   "medical_center",
			PhoneNumber:  "+1 514-521-7663",
			Rating:       2.7,
			RatingCount:  188,
			OpenNow:      &open,
		},
		{
			ID:           "mock-brunet",
			Name:         "Clinique médicale urgente Plateau",
			Address:      "1374 Avenue du Mont-Royal E, Montréal, QC H2J 1Y7",
			Location:     entities.Coordinates{Latitude: 45.5293, Longitude: -73.5780},
			CategoryTags: []string{"medical_center", "health", "walk_in_clinic"},
			PrimaryTag:   "medical_center",
			PhoneNumber:  "+1 514-524-5000",
			Rating:       3.8,
			RatingCount:  97,
			OpenNow:      &open,
		},
	}
}
