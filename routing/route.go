package routing

import (
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/twpayne/go-polyline"

	"kuanb/gosm-matcher/geom"
)

// RoutePoint is one position of a reconstructed route. TraceIndex is -1 for
// road vertices that do not correspond to a trace point.
type RoutePoint struct {
	Point      geom.GeoPoint
	Time       time.Time
	TraceIndex int
}

// IsMatched reports whether the point is a matched trace point.
func (p RoutePoint) IsMatched() bool {
	return p.TraceIndex >= 0
}

// RouteLeg is the road geometry between two consecutive matched points,
// both included.
type RouteLeg struct {
	FromIndex int
	ToIndex   int
	Points    []RoutePoint
}

// Route is the full-resolution geometry of a match.
type Route struct {
	Points []RoutePoint
	Legs   []RouteLeg
}

// Length returns the great-circle length of the route in meters.
func (r Route) Length() float64 {
	var total float64
	for i := 1; i < len(r.Points); i++ {
		total += geom.GreatCircleDistance(r.Points[i-1].Point, r.Points[i].Point)
	}
	return total
}

// LineString returns the route as an orb line string.
func (r Route) LineString() orb.LineString {
	return routeLine(r.Points)
}

// EncodedPolyline returns the route in Google's encoded polyline format.
func (r Route) EncodedPolyline() string {
	coords := make([][]float64, len(r.Points))
	for i, p := range r.Points {
		coords[i] = []float64{p.Point.Lat, p.Point.Lon}
	}
	return string(polyline.EncodeCoords(coords))
}

// FeatureCollection returns one LineString feature per leg and one Point
// feature per matched trace point. Legs with fewer than two points have no
// valid line and are left out.
func (r Route) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, leg := range r.Legs {
		if len(leg.Points) < 2 {
			continue
		}
		f := geojson.NewFeature(routeLine(leg.Points))
		f.Properties["from_index"] = leg.FromIndex
		f.Properties["to_index"] = leg.ToIndex
		fc.Append(f)
	}
	for _, p := range r.Points {
		if !p.IsMatched() {
			continue
		}
		f := geojson.NewFeature(p.Point.Orb())
		f.Properties["trace_index"] = p.TraceIndex
		if !p.Time.IsZero() {
			f.Properties["time"] = p.Time.Format(time.RFC3339)
		}
		fc.Append(f)
	}
	return fc
}

func routeLine(points []RoutePoint) orb.LineString {
	ls := make(orb.LineString, len(points))
	for i, p := range points {
		ls[i] = p.Point.Orb()
	}
	return ls
}

// appendPoint adds p to points. A road vertex within EpsLength of the last
// point is dropped, and a matched point replaces a road vertex it lands on.
// Two matched points are always both kept, so every trace point keeps its
// own index and time even when the vehicle did not move.
func appendPoint(points []RoutePoint, p RoutePoint) []RoutePoint {
	n := len(points)
	if n == 0 || !geom.SamePlace(points[n-1].Point, p.Point) {
		return append(points, p)
	}
	last := &points[n-1]
	switch {
	case !p.IsMatched():
		return points
	case !last.IsMatched():
		*last = p
		return points
	}
	return append(points, p)
}
