// Package geomath provides great-circle distance and drive-time heuristics.
package geomath

import (
	"math"

	"github.com/carefinder/backend/internal/domain/entities"
)

const (
	earthRadiusKm = 6371.0

	// Average urban driving speed works out to roughly 2 minutes per km.
	minutesPerKm = 2.0
)

// DistanceKm returns the Haversine great-circle distance between two
// coordinates in kilometers.
func DistanceKm(from, to entities.Coordinates) float64 {
	lat1 := toRadians(from.Latitude)
	lat2 := toRadians(to.Latitude)
	deltaLat := toRadians(to.Latitude - from.Latitude)
	deltaLon := toRadians(to.Longitude - from.Longitude)

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// DistanceKmRounded returns the distance rounded to one decimal place,
// the precision surfaced to API consumers.
func DistanceKmRounded(from, to entities.Coordinates) float64 {
	return math.Round(DistanceKm(from, to)*10) / 10
}

// ETAMinutes estimates driving time for a distance at average urban speed,
// rounded to the nearest whole minute.
func ETAMinutes(distanceKm float64) int {
	return int(math.Round(distanceKm * minutesPerKm))
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
