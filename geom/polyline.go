package geom

import (
	"math"

	"github.com/paulmach/orb"
)

// Segment is a directed line segment.
type Segment struct {
	Start GeoPoint
	End   GeoPoint
}

// IsDegenerate reports whether the segment has zero length.
func (s Segment) IsDegenerate() bool {
	return s.Start.Lat == s.End.Lat && s.Start.Lon == s.End.Lon
}

// Length returns the segment length in meters.
func (s Segment) Length() float64 {
	return GreatCircleDistance(s.Start, s.End)
}

// ProjectPoint returns the point of s closest to p in lat/lon space.
func ProjectPoint(p GeoPoint, s Segment) GeoPoint {
	proj, _ := ProjectOntoSegment(p, s)
	return proj
}

// ProjectOntoSegment projects p onto the line through s and clamps the result to s.
// It also returns the clamped projection parameter t in [0, 1].
func ProjectOntoSegment(p GeoPoint, s Segment) (GeoPoint, float64) {
	dLat := s.End.Lat - s.Start.Lat
	dLon := s.End.Lon - s.Start.Lon
	if dLat == 0 && dLon == 0 {
		return s.Start, 0
	}

	t := ((p.Lat-s.Start.Lat)*dLat + (p.Lon-s.Start.Lon)*dLon) / (dLat*dLat + dLon*dLon)
	if t <= 0 {
		return s.Start, 0
	} else if t >= 1 {
		return s.End, 1
	}

	proj := NewPoint(s.Start.Lat+t*dLat, s.Start.Lon+t*dLon)
	if s.Start.HasElevation && s.End.HasElevation {
		proj.Elevation = s.Start.Elevation + t*(s.End.Elevation-s.Start.Elevation)
		proj.HasElevation = true
	}
	return proj, t
}

// LinePosition locates a point on a polyline by segment index and the
// fraction travelled along that segment.
type LinePosition struct {
	Point   GeoPoint
	Segment int
	Offset  float64
}

// Measure orders positions along the polyline. Vertex i has measure i.
func (lp LinePosition) Measure() float64 {
	return float64(lp.Segment) + lp.Offset
}

// Polyline is an ordered, connected sequence of segments stored as vertices.
type Polyline struct {
	points []GeoPoint
	bbox   BBox
}

// NewPolyline builds a polyline from its vertices.
func NewPolyline(points ...GeoPoint) Polyline {
	pts := make([]GeoPoint, len(points))
	copy(pts, points)
	return Polyline{points: pts, bbox: NewBBox(pts...)}
}

// Points returns the vertices. The slice must not be modified.
func (l Polyline) Points() []GeoPoint {
	return l.points
}

// NumSegments returns the number of segments.
func (l Polyline) NumSegments() int {
	if len(l.points) < 2 {
		return 0
	}
	return len(l.points) - 1
}

// Segment returns segment i.
func (l Polyline) Segment(i int) Segment {
	return Segment{Start: l.points[i], End: l.points[i+1]}
}

// Segments returns all segments in order.
func (l Polyline) Segments() []Segment {
	segs := make([]Segment, 0, l.NumSegments())
	for i := 0; i < l.NumSegments(); i++ {
		segs = append(segs, l.Segment(i))
	}
	return segs
}

// BBox returns the cached bounding box of all vertices.
func (l Polyline) BBox() BBox {
	return l.bbox
}

// Length returns the polyline length in meters.
func (l Polyline) Length() float64 {
	length := 0.0
	for i := 0; i < l.NumSegments(); i++ {
		length += l.Segment(i).Length()
	}
	return length
}

// Start returns the position of the first vertex.
func (l Polyline) Start() LinePosition {
	if len(l.points) == 0 {
		return LinePosition{}
	}
	return LinePosition{Point: l.points[0]}
}

// End returns the position of the last vertex.
func (l Polyline) End() LinePosition {
	n := l.NumSegments()
	if n == 0 {
		return l.Start()
	}
	return LinePosition{Point: l.points[n], Segment: n - 1, Offset: 1}
}

// Project returns the position on l closest to p. Ties go to the earliest segment.
func (l Polyline) Project(p GeoPoint) LinePosition {
	if l.NumSegments() == 0 {
		return l.Start()
	}

	best := LinePosition{}
	bestDist := math.Inf(1)
	for i := 0; i < l.NumSegments(); i++ {
		proj, t := ProjectOntoSegment(p, l.Segment(i))
		d := GreatCircleDistance(p, proj)
		if d < bestDist {
			bestDist = d
			best = LinePosition{Point: proj, Segment: i, Offset: t}
		}
	}
	return best
}

// DistanceTo returns the distance in meters from p to the closest point of l.
func (l Polyline) DistanceTo(p GeoPoint) float64 {
	return GreatCircleDistance(p, l.Project(p).Point)
}

// PathLengthBetween returns the along-line distance between two positions on l.
func (l Polyline) PathLengthBetween(from, to LinePosition) float64 {
	lo, hi := from, to
	if hi.Measure() < lo.Measure() {
		lo, hi = hi, lo
	}
	if lo.Segment == hi.Segment {
		return GreatCircleDistance(lo.Point, hi.Point)
	}

	length := GreatCircleDistance(lo.Point, l.points[lo.Segment+1])
	for k := lo.Segment + 1; k < hi.Segment; k++ {
		length += l.Segment(k).Length()
	}
	length += GreatCircleDistance(l.points[hi.Segment], hi.Point)
	return length
}

// PathLength returns the along-line distance between two points lying on l.
func PathLength(from, to GeoPoint, l Polyline) float64 {
	return l.PathLengthBetween(l.Project(from), l.Project(to))
}

// VerticesBetween returns the vertices of l lying strictly between from and to,
// in travel order from -> to.
func (l Polyline) VerticesBetween(from, to LinePosition) []GeoPoint {
	a, b := from.Measure(), to.Measure()
	var result []GeoPoint
	if a < b {
		for j := int(math.Floor(a)) + 1; float64(j) < b && j < len(l.points); j++ {
			result = append(result, l.points[j])
		}
	} else if b < a {
		for j := int(math.Ceil(a)) - 1; float64(j) > b && j >= 0; j-- {
			result = append(result, l.points[j])
		}
	}
	return result
}

// Reversed returns the polyline walked in the opposite direction.
func (l Polyline) Reversed() Polyline {
	n := len(l.points)
	pts := make([]GeoPoint, n)
	for i := range l.points {
		pts[n-1-i] = l.points[i]
	}
	return Polyline{points: pts, bbox: l.bbox}
}

// LineString converts the polyline to an orb.LineString.
func (l Polyline) LineString() orb.LineString {
	ls := make(orb.LineString, 0, len(l.points))
	for _, p := range l.points {
		ls = append(ls, p.Orb())
	}
	return ls
}
