package osm

import (
	"github.com/pkg/errors"

	"kuanb/gosm-matcher/geom"
)

// EdgeSpec describes an edge to add to a GraphBuilder.
type EdgeSpec struct {
	WayID   OsmWayId
	From    VertexID
	To      VertexID
	Highway string
	Oneway  bool

	// Geometry must start at From and end at To. When empty the edge is a
	// straight segment between the two vertices.
	Geometry []geom.GeoPoint
}

// GraphBuilder assembles a RoadGraph.
type GraphBuilder struct {
	vertices map[VertexID]geom.GeoPoint
	edges    []*RoadEdge
	adjacent map[VertexID][]adjacency
}

// NewGraphBuilder returns an empty builder.
func NewGraphBuilder() *GraphBuilder {
	return &GraphBuilder{
		vertices: make(map[VertexID]geom.GeoPoint),
		adjacent: make(map[VertexID][]adjacency),
	}
}

// AddVertex registers a vertex. Re-adding a vertex at the same position is a no-op.
func (b *GraphBuilder) AddVertex(id VertexID, p geom.GeoPoint) error {
	if existing, ok := b.vertices[id]; ok {
		if existing != p {
			return errors.Errorf("vertex %d already added at %v", id, existing)
		}
		return nil
	}
	b.vertices[id] = p
	return nil
}

// AddEdge validates spec and adds it to the graph.
func (b *GraphBuilder) AddEdge(spec EdgeSpec) (*RoadEdge, error) {
	from, ok := b.vertices[spec.From]
	if !ok {
		return nil, errors.Errorf("edge from unknown vertex %d", spec.From)
	}
	to, ok := b.vertices[spec.To]
	if !ok {
		return nil, errors.Errorf("edge to unknown vertex %d", spec.To)
	}

	points := spec.Geometry
	if len(points) == 0 {
		points = []geom.GeoPoint{from, to}
	}
	if len(points) < 2 {
		return nil, errors.Errorf("edge %d->%d needs at least two points", spec.From, spec.To)
	}
	if points[0] != from || points[len(points)-1] != to {
		return nil, errors.Errorf("edge %d->%d geometry does not join its vertices", spec.From, spec.To)
	}

	line := geom.NewPolyline(points...)
	edge := &RoadEdge{
		ID:           EdgeID(len(b.edges)),
		WayID:        spec.WayID,
		From:         spec.From,
		To:           spec.To,
		Highway:      spec.Highway,
		Oneway:       spec.Oneway,
		Geometry:     line,
		BBox:         line.BBox(),
		LengthMeters: line.Length(),
	}
	b.edges = append(b.edges, edge)

	b.adjacent[spec.From] = append(b.adjacent[spec.From], adjacency{vertex: spec.To, edge: edge})
	if !spec.Oneway && spec.From != spec.To {
		b.adjacent[spec.To] = append(b.adjacent[spec.To], adjacency{vertex: spec.From, edge: edge})
	}
	return edge, nil
}

// Build indexes the edges and returns the finished graph. The builder must not be reused.
func (b *GraphBuilder) Build() *RoadGraph {
	rtree := geom.NewRTree()
	for _, e := range b.edges {
		rtree.Insert(int64(e.ID), e.BBox)
	}
	return &RoadGraph{
		vertices: b.vertices,
		edges:    b.edges,
		adjacent: b.adjacent,
		rtree:    rtree,
	}
}
