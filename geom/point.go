package geom

import (
	"time"

	"github.com/paulmach/orb"
)

// GeoPoint is a WGS84 position with an optional elevation in meters.
type GeoPoint struct {
	Lat          float64
	Lon          float64
	Elevation    float64
	HasElevation bool
}

// NewPoint returns a GeoPoint without elevation.
func NewPoint(lat, lon float64) GeoPoint {
	return GeoPoint{Lat: lat, Lon: lon}
}

// NewPointWithElevation returns a GeoPoint carrying an elevation.
func NewPointWithElevation(lat, lon, ele float64) GeoPoint {
	return GeoPoint{Lat: lat, Lon: lon, Elevation: ele, HasElevation: true}
}

// Orb converts the point to an orb.Point (lon, lat order).
func (p GeoPoint) Orb() orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

// FromOrb converts an orb.Point (lon, lat order) to a GeoPoint.
func FromOrb(p orb.Point) GeoPoint {
	return GeoPoint{Lat: p.Lat(), Lon: p.Lon()}
}

// TracePoint is a single GPS observation.
type TracePoint struct {
	GeoPoint
	Time time.Time
}
