package osm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kuanb/gosm-matcher/geom"
)

// square returns a 4-vertex ring with a diagonal:
//
//	4 --- 3
//	|   / |
//	1 --- 2
func square(t *testing.T) *RoadGraph {
	t.Helper()
	b := NewGraphBuilder()
	require.NoError(t, b.AddVertex(1, geom.NewPoint(0, 0)))
	require.NoError(t, b.AddVertex(2, geom.NewPoint(0, 0.01)))
	require.NoError(t, b.AddVertex(3, geom.NewPoint(0.01, 0.01)))
	require.NoError(t, b.AddVertex(4, geom.NewPoint(0.01, 0)))
	for _, e := range []EdgeSpec{
		{From: 1, To: 2},
		{From: 2, To: 3},
		{From: 3, To: 4, Oneway: true},
		{From: 4, To: 1},
		{From: 1, To: 3},
	} {
		_, err := b.AddEdge(e)
		require.NoError(t, err)
	}
	return b.Build()
}

func TestGraphAdjacency(t *testing.T) {
	g := square(t)

	assert.Equal(t, 4, g.NumVertices())
	assert.Equal(t, 5, g.NumEdges())
	assert.Equal(t, []VertexID{2, 4, 3}, g.VerticesAdjacentTo(1))
	assert.Equal(t, []VertexID{2, 4, 1}, g.VerticesAdjacentTo(3))
	// 3 -> 4 is one way
	assert.Equal(t, []VertexID{1}, g.VerticesAdjacentTo(4))
	assert.Empty(t, g.VerticesAdjacentTo(99))
}

func TestGraphEdgeBetween(t *testing.T) {
	g := square(t)

	e, ok := g.EdgeBetween(3, 4)
	require.True(t, ok)
	assert.Equal(t, EdgeID(2), e.ID)

	_, ok = g.EdgeBetween(4, 3)
	assert.False(t, ok)

	e, ok = g.EdgeBetween(2, 1)
	require.True(t, ok)
	assert.Equal(t, EdgeID(0), e.ID)
	assert.Equal(t, geom.NewPoint(0, 0.01), e.PositionOf(2).Point)
	assert.Equal(t, VertexID(1), e.Other(2))
}

func TestGraphEdgeBetweenPrefersShortest(t *testing.T) {
	b := NewGraphBuilder()
	require.NoError(t, b.AddVertex(1, geom.NewPoint(0, 0)))
	require.NoError(t, b.AddVertex(2, geom.NewPoint(0, 0.01)))

	_, err := b.AddEdge(EdgeSpec{From: 1, To: 2, Geometry: []geom.GeoPoint{
		geom.NewPoint(0, 0), geom.NewPoint(0.005, 0.005), geom.NewPoint(0, 0.01),
	}})
	require.NoError(t, err)
	_, err = b.AddEdge(EdgeSpec{From: 1, To: 2})
	require.NoError(t, err)
	_, err = b.AddEdge(EdgeSpec{From: 2, To: 1})
	require.NoError(t, err)
	g := b.Build()

	e, ok := g.EdgeBetween(1, 2)
	require.True(t, ok)
	assert.Equal(t, EdgeID(1), e.ID)
	assert.Equal(t, []VertexID{2}, g.VerticesAdjacentTo(1))
}

func TestGraphSpatialQueries(t *testing.T) {
	g := square(t)

	edges := g.EdgesIntersecting(geom.NewBBox(geom.NewPoint(0, 0.005)).Inflated(0.0001, 0.0001))
	ids := make([]EdgeID, len(edges))
	for i, e := range edges {
		ids[i] = e.ID
	}
	// the diagonal's box covers the whole square
	assert.Equal(t, []EdgeID{0, 4}, ids)

	nearest := g.NearestEdges(geom.NewPoint(-0.001, 0.005), 2)
	require.Len(t, nearest, 2)
	assert.Equal(t, EdgeID(0), nearest[0].ID)
}

func TestGraphBuilderValidation(t *testing.T) {
	b := NewGraphBuilder()
	require.NoError(t, b.AddVertex(1, geom.NewPoint(0, 0)))
	require.NoError(t, b.AddVertex(1, geom.NewPoint(0, 0)))
	assert.Error(t, b.AddVertex(1, geom.NewPoint(1, 1)))
	require.NoError(t, b.AddVertex(2, geom.NewPoint(0, 1)))

	tests := []struct {
		name string
		spec EdgeSpec
	}{
		{"unknown from", EdgeSpec{From: 9, To: 2}},
		{"unknown to", EdgeSpec{From: 1, To: 9}},
		{"single point", EdgeSpec{From: 1, To: 2, Geometry: []geom.GeoPoint{geom.NewPoint(0, 0)}}},
		{"detached geometry", EdgeSpec{From: 1, To: 2, Geometry: []geom.GeoPoint{geom.NewPoint(0, 0), geom.NewPoint(5, 5)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.AddEdge(tt.spec)
			assert.Error(t, err)
		})
	}
}
