package routing

import (
	"kuanb/gosm-matcher/geom"
	"kuanb/gosm-matcher/osm"
)

// RoadNetwork is the read-only view of the road graph the matcher needs.
type RoadNetwork interface {
	ConnectionGeometries() []*osm.RoadEdge
	VerticesAdjacentTo(v osm.VertexID) []osm.VertexID
	EdgeBetween(u, v osm.VertexID) (*osm.RoadEdge, bool)
	Vertex(v osm.VertexID) (geom.GeoPoint, bool)
}

// SpatialNetwork is a RoadNetwork with a spatial index.
type SpatialNetwork interface {
	RoadNetwork
	EdgesIntersecting(box geom.BBox) []*osm.RoadEdge
	NearestEdges(p geom.GeoPoint, n int) []*osm.RoadEdge
}

var _ SpatialNetwork = (*osm.RoadGraph)(nil)
