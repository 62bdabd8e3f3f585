package utils

import (
	"math"

	"github.com/golang/geo/s2"
)

// EarthRadiusMeters - mean Earth radius used for every distance in the engine
const EarthRadiusMeters = 6371008.8

// HaversineMeters returns the great-circle distance between two points.
func HaversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// ValidateCoordinates reports whether lat/lon are finite and in range
func ValidateCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// ValidateRadius accepts positive finite radii up to half the Earth's circumference
func ValidateRadius(radiusMeters float64) bool {
	return radiusMeters > 0 && radiusMeters <= math.Pi*EarthRadiusMeters
}
