package geom

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// EarthRadiusMeters is the radius used by the haversine distance.
const EarthRadiusMeters = orb.EarthRadius

// EpsLength is the distance in meters below which two positions are treated as the same place.
const EpsLength = 0.01

// GreatCircleDistance returns the distance between two points in meters using the Haversine formula
func GreatCircleDistance(a, b GeoPoint) float64 {
	return geo.DistanceHaversine(a.Orb(), b.Orb())
}

// SamePlace reports whether a and b are closer than EpsLength.
func SamePlace(a, b GeoPoint) bool {
	return GreatCircleDistance(a, b) < EpsLength
}

// DistanceToSegment returns the distance in meters from p to its projection on s.
func DistanceToSegment(p GeoPoint, s Segment) float64 {
	proj, _ := ProjectOntoSegment(p, s)
	return GreatCircleDistance(p, proj)
}

// MetersToDegrees converts a distance around lat into approximate latitude and longitude deltas.
func MetersToDegrees(lat, meters float64) (dLat, dLon float64) {
	latRad := lat * math.Pi / 180.0
	metersPerDegreeLat := EarthRadiusMeters * math.Pi / 180.0
	metersPerDegreeLon := metersPerDegreeLat * math.Cos(latRad)

	dLat = meters / metersPerDegreeLat
	if metersPerDegreeLon <= 0 {
		return dLat, 180
	}
	return dLat, meters / metersPerDegreeLon
}
