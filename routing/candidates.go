package routing

import (
	"math"

	"kuanb/gosm-matcher/geom"
	"kuanb/gosm-matcher/osm"
)

// Projection is a trace point projected onto one road edge.
type Projection struct {
	Edge                   *osm.RoadEdge
	Position               geom.LinePosition
	Distance               float64 // meters from the trace point to Position
	ObservationProbability float64
}

// ObservationProbability is the zero-mean Gaussian likelihood of a GPS error
// of distance meters.
func ObservationProbability(distance, sigma float64) float64 {
	return math.Exp(-distance*distance/(2*sigma*sigma)) / (sigma * math.Sqrt(2*math.Pi))
}

// CandidateGenerator finds the road positions that may explain a trace point.
type CandidateGenerator struct {
	graph RoadNetwork
	cfg   Config
}

// NewCandidateGenerator returns a generator using the search box and sigma of cfg.
func NewCandidateGenerator(graph RoadNetwork, cfg Config) *CandidateGenerator {
	return &CandidateGenerator{graph: graph, cfg: cfg}
}

// SearchBox returns the box searched for roads around p.
func (g *CandidateGenerator) SearchBox(p geom.GeoPoint) geom.BBox {
	return geom.NewBBox(p).Inflated(g.cfg.SearchLatDelta, g.cfg.SearchLonDelta)
}

// Candidates projects p onto every edge whose bounding box intersects the
// search box. Projections come back in edge ID order.
func (g *CandidateGenerator) Candidates(p geom.GeoPoint) []Projection {
	box := g.SearchBox(p)
	edges := g.edgesNear(box)

	result := make([]Projection, 0, len(edges))
	for _, edge := range edges {
		pos := edge.Geometry.Project(p)
		d := geom.GreatCircleDistance(p, pos.Point)
		result = append(result, Projection{
			Edge:                   edge,
			Position:               pos,
			Distance:               d,
			ObservationProbability: ObservationProbability(d, g.cfg.SigmaMeters),
		})
	}
	return result
}

// NearestRoadDistance returns the distance in meters from p to the closest
// road, or +Inf when the network has no spatial index or no roads.
func (g *CandidateGenerator) NearestRoadDistance(p geom.GeoPoint) float64 {
	spatial, ok := g.graph.(SpatialNetwork)
	if !ok {
		return math.Inf(1)
	}
	nearest := spatial.NearestEdges(p, 1)
	if len(nearest) == 0 {
		return math.Inf(1)
	}
	return nearest[0].MinDistanceTo(p)
}

func (g *CandidateGenerator) edgesNear(box geom.BBox) []*osm.RoadEdge {
	if spatial, ok := g.graph.(SpatialNetwork); ok {
		return spatial.EdgesIntersecting(box)
	}

	// Fallback to a linear scan
	var result []*osm.RoadEdge
	for _, edge := range g.graph.ConnectionGeometries() {
		if box.Intersects(edge.BBox) {
			result = append(result, edge)
		}
	}
	return result
}
