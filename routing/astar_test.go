package routing

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"kuanb/gosm-matcher/osm"
)

func TestFindPathAlongStraightRoad(t *testing.T) {
	g := newTestGraph().
		vertex(1, 0, 0).vertex(2, 0, 0.01).vertex(3, 0, 0.02).
		road(1, 2, false).
		road(2, 3, false).
		build(t)
	finder := NewPathFinder(g, 0, zaptest.NewLogger(t))

	path, err := finder.FindPath(context.Background(), anchorAt(t, g, 0, 0, 0.005), anchorAt(t, g, 1, 0, 0.015))
	require.NoError(t, err)
	require.True(t, path.Found())

	assert.InDelta(t, dist(0, 0.005, 0, 0.01)+dist(0, 0.01, 0, 0.015), path.Length, 1e-6)
	require.Len(t, path.Steps, 2)
	assert.Equal(t, osm.EdgeID(0), path.Steps[0].Edge.ID)
	assert.Equal(t, 1.0, path.Steps[0].To.Measure())
	assert.Equal(t, osm.EdgeID(1), path.Steps[1].Edge.ID)
	assert.Equal(t, 0.0, path.Steps[1].From.Measure())

	assert.Equal(t, osm.NoVertex, path.Steps[0].FromVertex)
	assert.Equal(t, osm.VertexID(2), path.Steps[0].ToVertex)
	assert.Equal(t, osm.VertexID(2), path.Steps[1].FromVertex)
	assert.Equal(t, osm.NoVertex, path.Steps[1].ToVertex)
}

func TestFindPathPicksShortest(t *testing.T) {
	g := newTestGraph().
		vertex(10, 0, -0.01).vertex(1, 0, 0).vertex(2, 0, 0.01).vertex(20, 0, 0.02).
		road(10, 1, false).
		road(1, 2, false, [2]float64{0.005, 0.005}). // detour
		road(1, 2, false).                           // direct
		road(2, 20, false).
		build(t)
	finder := NewPathFinder(g, 0, nil)

	path, err := finder.FindPath(context.Background(), anchorAt(t, g, 0, 0, -0.005), anchorAt(t, g, 3, 0, 0.015))
	require.NoError(t, err)
	require.Len(t, path.Steps, 3)
	assert.Equal(t, osm.EdgeID(2), path.Steps[1].Edge.ID)
	assert.Equal(t, osm.VertexID(1), path.Steps[1].FromVertex)
	assert.Equal(t, osm.VertexID(2), path.Steps[1].ToVertex)
	assert.InDelta(t, dist(0, -0.005, 0, 0.015), path.Length, 1e-3)

	var sum float64
	for _, s := range path.Steps {
		sum += s.Length()
	}
	assert.InDelta(t, path.Length, sum, 1e-6)
}

func TestFindPathSameEdge(t *testing.T) {
	g := newTestGraph().
		vertex(1, 0, 0).vertex(2, 0, 0.03).
		road(1, 2, true, [2]float64{0, 0.01}, [2]float64{0, 0.02}).
		build(t)
	finder := NewPathFinder(g, 0, nil)

	// direction is not checked within one edge
	path, err := finder.FindPath(context.Background(), anchorAt(t, g, 0, 0, 0.025), anchorAt(t, g, 0, 0, 0.005))
	require.NoError(t, err)
	require.Len(t, path.Steps, 1)
	assert.InDelta(t, dist(0, 0.005, 0, 0.025), path.Length, 1e-6)
	assert.Equal(t, osm.NoVertex, path.Steps[0].FromVertex)
	assert.Equal(t, osm.NoVertex, path.Steps[0].ToVertex)
}

func TestFindPathRespectsOneway(t *testing.T) {
	tg := newTestGraph().
		vertex(1, 0, 0).vertex(2, 0, 0.01).vertex(3, 0, 0.02).
		road(1, 2, true).
		road(2, 3, false)

	g := tg.build(t)
	finder := NewPathFinder(g, 0, nil)
	from, to := anchorAt(t, g, 1, 0, 0.015), anchorAt(t, g, 0, 0, 0.005)

	path, err := finder.FindPath(context.Background(), from, to)
	require.NoError(t, err)
	assert.False(t, path.Found())
	assert.True(t, math.IsInf(path.Length, 1))
	assert.Empty(t, path.Steps)

	// the reverse direction is allowed
	path, err = finder.FindPath(context.Background(), to, from)
	require.NoError(t, err)
	assert.True(t, path.Found())

	// a bypass back to vertex 1 makes the trip possible, but longer
	g = tg.vertex(4, 0.01, 0.01).road(3, 4, false).road(4, 1, false).build(t)
	finder = NewPathFinder(g, 0, nil)
	path, err = finder.FindPath(context.Background(), anchorAt(t, g, 1, 0, 0.015), anchorAt(t, g, 0, 0, 0.005))
	require.NoError(t, err)
	require.True(t, path.Found())
	assert.Greater(t, path.Length, dist(0, 0.015, 0, 0.005))
	require.Len(t, path.Steps, 4)
	assert.Equal(t, osm.EdgeID(0), path.Steps[3].Edge.ID)
	assert.Equal(t, 0.0, path.Steps[3].From.Measure())

	// the steps chain through vertices 3, 4 and 1 in travel order
	wantVertices := [][2]osm.VertexID{{osm.NoVertex, 3}, {3, 4}, {4, 1}, {1, osm.NoVertex}}
	for i, s := range path.Steps {
		assert.Equal(t, wantVertices[i], [2]osm.VertexID{s.FromVertex, s.ToVertex}, "step %d", i)
	}
}

func TestFindPathUnreachable(t *testing.T) {
	g := newTestGraph().
		vertex(1, 0, 0).vertex(2, 0, 0.01).
		vertex(3, 1, 0).vertex(4, 1, 0.01).
		road(1, 2, false).
		road(3, 4, false).
		build(t)
	finder := NewPathFinder(g, 0, nil)

	path, err := finder.FindPath(context.Background(), anchorAt(t, g, 0, 0, 0.005), anchorAt(t, g, 1, 1, 0.005))
	require.NoError(t, err)
	assert.False(t, path.Found())
	assert.Nil(t, path.Steps)
}

func TestFindPathExpansionBudget(t *testing.T) {
	tg := newTestGraph()
	for i := 0; i <= 10; i++ {
		tg.vertex(osm.VertexID(i), 0, float64(i)*0.01)
	}
	for i := 0; i < 10; i++ {
		tg.road(osm.VertexID(i), osm.VertexID(i+1), false)
	}
	g := tg.build(t)
	from, to := anchorAt(t, g, 0, 0, 0.005), anchorAt(t, g, 9, 0, 0.095)

	path, err := NewPathFinder(g, 3, zaptest.NewLogger(t)).FindPath(context.Background(), from, to)
	require.NoError(t, err)
	assert.False(t, path.Found())

	path, err = NewPathFinder(g, 0, nil).FindPath(context.Background(), from, to)
	require.NoError(t, err)
	assert.True(t, path.Found())
	assert.Len(t, path.Steps, 10)
}

func TestFindPathCancelled(t *testing.T) {
	g := newTestGraph().
		vertex(1, 0, 0).vertex(2, 0, 0.01).vertex(3, 0, 0.02).
		road(1, 2, false).
		road(2, 3, false).
		build(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPathFinder(g, 0, nil).FindPath(ctx, anchorAt(t, g, 0, 0, 0.005), anchorAt(t, g, 1, 0, 0.015))
	assert.ErrorIs(t, err, context.Canceled)
}
