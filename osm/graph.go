package osm

import (
	"kuanb/gosm-matcher/geom"
)

type OsmWayId int64

type OsmNodeId int64

// VertexID identifies a topological node of the road graph.
type VertexID int64

// NoVertex stands for a path end that lies inside an edge rather than on a vertex.
const NoVertex VertexID = -1

// EdgeID identifies a RoadEdge. IDs are dense, starting at zero.
type EdgeID int64

// RoadEdge is a road geometry joining two vertices.
type RoadEdge struct {
	ID           EdgeID
	WayID        OsmWayId
	From         VertexID
	To           VertexID
	Highway      string
	Oneway       bool // traversable From -> To only
	Geometry     geom.Polyline
	BBox         geom.BBox
	LengthMeters float64
}

// Other returns the opposite end of the edge from v.
func (e *RoadEdge) Other(v VertexID) VertexID {
	if v == e.From {
		return e.To
	}
	return e.From
}

// PositionOf returns the position of vertex v on the edge geometry.
func (e *RoadEdge) PositionOf(v VertexID) geom.LinePosition {
	if v == e.From {
		return e.Geometry.Start()
	}
	return e.Geometry.End()
}

// Traversable reports whether the edge may be driven from u to v.
func (e *RoadEdge) Traversable(u, v VertexID) bool {
	if u == e.From && v == e.To {
		return true
	}
	return !e.Oneway && u == e.To && v == e.From
}

// MinDistanceTo returns the distance in meters from p to the edge geometry.
func (e *RoadEdge) MinDistanceTo(p geom.GeoPoint) float64 {
	return e.Geometry.DistanceTo(p)
}

type adjacency struct {
	vertex VertexID
	edge   *RoadEdge
}

// RoadGraph is an immutable road network. It is safe for concurrent reads.
type RoadGraph struct {
	vertices map[VertexID]geom.GeoPoint
	edges    []*RoadEdge
	adjacent map[VertexID][]adjacency
	rtree    *geom.RTree
}

// NumVertices returns the number of vertices.
func (g *RoadGraph) NumVertices() int {
	return len(g.vertices)
}

// NumEdges returns the number of edges.
func (g *RoadGraph) NumEdges() int {
	return len(g.edges)
}

// Vertex returns the position of v.
func (g *RoadGraph) Vertex(v VertexID) (geom.GeoPoint, bool) {
	p, ok := g.vertices[v]
	return p, ok
}

// Edge returns the edge with the given ID.
func (g *RoadGraph) Edge(id EdgeID) (*RoadEdge, bool) {
	if id < 0 || int(id) >= len(g.edges) {
		return nil, false
	}
	return g.edges[id], true
}

// ConnectionGeometries returns every edge in ID order.
func (g *RoadGraph) ConnectionGeometries() []*RoadEdge {
	return g.edges
}

// VerticesAdjacentTo returns the vertices reachable from v over one edge,
// without duplicates, in the order their edges were added.
func (g *RoadGraph) VerticesAdjacentTo(v VertexID) []VertexID {
	adj := g.adjacent[v]
	result := make([]VertexID, 0, len(adj))
	seen := make(map[VertexID]struct{}, len(adj))
	for _, a := range adj {
		if _, ok := seen[a.vertex]; ok {
			continue
		}
		seen[a.vertex] = struct{}{}
		result = append(result, a.vertex)
	}
	return result
}

// EdgeBetween returns the shortest edge traversable from u to v.
// Among equally long parallel edges the first added wins.
func (g *RoadGraph) EdgeBetween(u, v VertexID) (*RoadEdge, bool) {
	var best *RoadEdge
	for _, a := range g.adjacent[u] {
		if a.vertex != v {
			continue
		}
		if best == nil || a.edge.LengthMeters < best.LengthMeters {
			best = a.edge
		}
	}
	return best, best != nil
}

// EdgesIntersecting returns the edges whose bounding box intersects box, in ID order.
func (g *RoadGraph) EdgesIntersecting(box geom.BBox) []*RoadEdge {
	ids := g.rtree.Search(box)
	result := make([]*RoadEdge, 0, len(ids))
	for _, id := range ids {
		result = append(result, g.edges[id])
	}
	return result
}

// NearestEdges returns up to n edges ordered by distance from p.
func (g *RoadGraph) NearestEdges(p geom.GeoPoint, n int) []*RoadEdge {
	ids := g.rtree.Nearest(p, n, func(id int64) float64 {
		return g.edges[id].MinDistanceTo(p)
	})
	result := make([]*RoadEdge, 0, len(ids))
	for _, id := range ids {
		result = append(result, g.edges[id])
	}
	return result
}
