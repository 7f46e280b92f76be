package geom

import (
	"math"

	"github.com/paulmach/orb"
)

// BBox is a latitude/longitude bounding box with optional elevation range.
// The zero value is empty and acts as the identity for ExtendToCover.
type BBox struct {
	North, South float64
	East, West   float64

	MinElevation, MaxElevation float64

	initialized  bool
	hasElevation bool
}

// NewBBox returns the smallest box covering all points.
func NewBBox(points ...GeoPoint) BBox {
	var b BBox
	for _, p := range points {
		b.ExtendToCover(p)
	}
	return b
}

// NewBBoxFromBounds returns a box with explicit bounds and no elevation range.
func NewBBoxFromBounds(north, south, east, west float64) BBox {
	return BBox{North: north, South: south, East: east, West: west, initialized: true}
}

// IsEmpty reports whether no point has been incorporated yet.
func (b BBox) IsEmpty() bool {
	return !b.initialized
}

// HasElevation reports whether the box tracks an elevation range.
func (b BBox) HasElevation() bool {
	return b.hasElevation
}

// ExtendToCover grows the box so that it contains p. It never shrinks.
func (b *BBox) ExtendToCover(p GeoPoint) {
	if !b.initialized {
		b.North, b.South = p.Lat, p.Lat
		b.East, b.West = p.Lon, p.Lon
		b.initialized = true
	} else {
		b.North = math.Max(b.North, p.Lat)
		b.South = math.Min(b.South, p.Lat)
		b.East = math.Max(b.East, p.Lon)
		b.West = math.Min(b.West, p.Lon)
	}

	if !p.HasElevation {
		return
	}
	if !b.hasElevation {
		b.MinElevation, b.MaxElevation = p.Elevation, p.Elevation
		b.hasElevation = true
		return
	}
	b.MinElevation = math.Min(b.MinElevation, p.Elevation)
	b.MaxElevation = math.Max(b.MaxElevation, p.Elevation)
}

// IsInside reports whether p lies in the box. Points on a bound are inside.
// Elevation is only compared when both the box and p carry one.
func (b BBox) IsInside(p GeoPoint) bool {
	if !b.initialized {
		return false
	}
	inside := b.South <= p.Lat && p.Lat <= b.North &&
		b.West <= p.Lon && p.Lon <= b.East
	if inside && b.hasElevation && p.HasElevation {
		inside = b.MinElevation <= p.Elevation && p.Elevation <= b.MaxElevation
	}
	return inside
}

// Inflate grows north/east by the deltas and south/west by the negated deltas.
func (b *BBox) Inflate(dLat, dLon float64) {
	b.North += dLat
	b.South -= dLat
	b.East += dLon
	b.West -= dLon
}

// Inflated returns an inflated copy of b.
func (b BBox) Inflated(dLat, dLon float64) BBox {
	b.Inflate(dLat, dLon)
	return b
}

// Intersects is a 2D interval overlap test. Elevation is ignored.
func (b BBox) Intersects(o BBox) bool {
	if !b.initialized || !o.initialized {
		return false
	}
	return b.South <= o.North && o.South <= b.North &&
		b.West <= o.East && o.West <= b.East
}

// Corners returns the four (lat, lon) combinations of the bounds.
func (b BBox) Corners() []GeoPoint {
	return []GeoPoint{
		NewPoint(b.North, b.East),
		NewPoint(b.North, b.West),
		NewPoint(b.South, b.East),
		NewPoint(b.South, b.West),
	}
}

// Bound converts the box to an orb.Bound.
func (b BBox) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.West, b.South},
		Max: orb.Point{b.East, b.North},
	}
}
