package routing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"kuanb/gosm-matcher/geom"
	"kuanb/gosm-matcher/osm"
)

type testGraph struct {
	vertices map[osm.VertexID]geom.GeoPoint
	edges    []osm.EdgeSpec
}

func newTestGraph() *testGraph {
	return &testGraph{vertices: make(map[osm.VertexID]geom.GeoPoint)}
}

func (tg *testGraph) vertex(id osm.VertexID, lat, lon float64) *testGraph {
	tg.vertices[id] = geom.NewPoint(lat, lon)
	return tg
}

// road adds an edge through the given vertices; interior points are given
// as extra lat/lon pairs.
func (tg *testGraph) road(from, to osm.VertexID, oneway bool, interior ...[2]float64) *testGraph {
	var pts []geom.GeoPoint
	if len(interior) > 0 {
		pts = append(pts, tg.vertices[from])
		for _, ll := range interior {
			pts = append(pts, geom.NewPoint(ll[0], ll[1]))
		}
		pts = append(pts, tg.vertices[to])
	}
	tg.edges = append(tg.edges, osm.EdgeSpec{
		WayID:    osm.OsmWayId(len(tg.edges) + 1),
		From:     from,
		To:       to,
		Highway:  "residential",
		Oneway:   oneway,
		Geometry: pts,
	})
	return tg
}

func (tg *testGraph) build(t *testing.T) *osm.RoadGraph {
	t.Helper()
	b := osm.NewGraphBuilder()
	for id, p := range tg.vertices {
		require.NoError(t, b.AddVertex(id, p))
	}
	for _, e := range tg.edges {
		_, err := b.AddEdge(e)
		require.NoError(t, err)
	}
	return b.Build()
}

func edge(t *testing.T, g *osm.RoadGraph, id osm.EdgeID) *osm.RoadEdge {
	t.Helper()
	e, ok := g.Edge(id)
	require.True(t, ok, "edge %d", id)
	return e
}

func anchorAt(t *testing.T, g *osm.RoadGraph, id osm.EdgeID, lat, lon float64) Anchor {
	t.Helper()
	e := edge(t, g, id)
	return Anchor{Edge: e, Position: e.Geometry.Project(geom.NewPoint(lat, lon))}
}

// projectionAt places an exact projection of (lat, lon) on an edge.
func projectionAt(e *osm.RoadEdge, lat, lon float64) Projection {
	pos := e.Geometry.Project(geom.NewPoint(lat, lon))
	return Projection{Edge: e, Position: pos, ObservationProbability: 1}
}

func tracePoint(lat, lon float64) geom.TracePoint {
	return geom.TracePoint{GeoPoint: geom.NewPoint(lat, lon)}
}

func dist(aLat, aLon, bLat, bLon float64) float64 {
	return geom.GreatCircleDistance(geom.NewPoint(aLat, aLon), geom.NewPoint(bLat, bLon))
}

// plainNetwork hides the spatial index of a graph.
type plainNetwork struct {
	RoadNetwork
}
