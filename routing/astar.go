package routing

import (
	"container/heap"
	"context"
	"math"

	"go.uber.org/zap"

	"kuanb/gosm-matcher/geom"
	"kuanb/gosm-matcher/osm"
)

// Anchor is a point lying on a road edge.
type Anchor struct {
	Edge     *osm.RoadEdge
	Position geom.LinePosition
}

// PathStep is the part of a path that runs along one edge. FromVertex and
// ToVertex are the graph vertices the step joins, or osm.NoVertex where the
// step starts or stops at an anchor inside the edge.
type PathStep struct {
	Edge       *osm.RoadEdge
	From       geom.LinePosition
	To         geom.LinePosition
	FromVertex osm.VertexID
	ToVertex   osm.VertexID
}

// Length returns the along-road length of the step in meters.
func (s PathStep) Length() float64 {
	return s.Edge.Geometry.PathLengthBetween(s.From, s.To)
}

// Path is the result of a shortest path search. A path that was not found
// has no steps and an infinite length.
type Path struct {
	Steps  []PathStep
	Length float64
}

// Found reports whether the search reached its destination.
func (p Path) Found() bool {
	return !math.IsInf(p.Length, 1)
}

func noPath() Path {
	return Path{Length: math.Inf(1)}
}

// PathFinder runs A* searches over a road network.
type PathFinder struct {
	graph         RoadNetwork
	maxExpansions int
	log           *zap.Logger
}

// NewPathFinder returns a path finder over graph. maxExpansions caps the
// vertices settled per search; 0 means no limit.
func NewPathFinder(graph RoadNetwork, maxExpansions int, log *zap.Logger) *PathFinder {
	if log == nil {
		log = zap.NewNop()
	}
	return &PathFinder{graph: graph, maxExpansions: maxExpansions, log: log}
}

// vertexLink records how the search reached a vertex.
type vertexLink struct {
	prev osm.VertexID
	edge *osm.RoadEdge
	// exit is set for vertices reached directly from the start anchor.
	exit   geom.LinePosition
	source bool
}

// FindPath returns the shortest road path from one anchor to another.
// When no path exists it returns a Path with infinite length and a nil error.
func (f *PathFinder) FindPath(ctx context.Context, from, to Anchor) (Path, error) {
	if from.Edge.ID == to.Edge.ID {
		step := PathStep{
			Edge:       from.Edge,
			From:       from.Position,
			To:         to.Position,
			FromVertex: osm.NoVertex,
			ToVertex:   osm.NoVertex,
		}
		return Path{Steps: []PathStep{step}, Length: step.Length()}, nil
	}

	target := to.Position.Point
	heuristic := func(v osm.VertexID) float64 {
		p, ok := f.graph.Vertex(v)
		if !ok {
			return 0
		}
		return geom.GreatCircleDistance(p, target)
	}

	gScore := make(map[osm.VertexID]float64)
	cameFrom := make(map[osm.VertexID]vertexLink)
	closed := make(map[osm.VertexID]bool)
	pq := &priorityQueue{}
	seq := 0
	push := func(item *pqItem) {
		item.seq = seq
		seq++
		heap.Push(pq, item)
	}

	// The start anchor leaves its edge through either end the edge allows.
	for _, exit := range anchorExits(from) {
		if old, ok := gScore[exit.vertex]; ok && old <= exit.cost {
			continue
		}
		gScore[exit.vertex] = exit.cost
		cameFrom[exit.vertex] = vertexLink{exit: exit.pos, source: true}
		push(&pqItem{vertex: exit.vertex, g: exit.cost, f: exit.cost + heuristic(exit.vertex)})
	}

	// The goal is entered from either end of its edge the edge allows.
	entries := anchorEntries(to)
	goalG := math.Inf(1)
	var goalVia osm.VertexID
	var goalEntry geom.LinePosition

	expansions := 0
	for pq.Len() > 0 {
		select {
		case <-ctx.Done():
			return noPath(), ctx.Err()
		default:
		}

		item := heap.Pop(pq).(*pqItem)
		if item.goal {
			if item.g > goalG {
				continue
			}
			return f.buildPath(from, to, cameFrom, goalVia, goalEntry, goalG), nil
		}

		current := item.vertex
		if closed[current] || item.g > gScore[current] {
			continue
		}
		closed[current] = true

		expansions++
		if f.maxExpansions > 0 && expansions > f.maxExpansions {
			f.log.Warn("path search exhausted its expansion budget",
				zap.Int64("from_edge", int64(from.Edge.ID)),
				zap.Int64("to_edge", int64(to.Edge.ID)),
				zap.Int("max_expansions", f.maxExpansions))
			return noPath(), nil
		}

		for _, entry := range entries {
			if entry.vertex != current {
				continue
			}
			if g := item.g + entry.cost; g < goalG {
				goalG = g
				goalVia = current
				goalEntry = entry.pos
				push(&pqItem{goal: true, g: g, f: g})
			}
		}

		for _, neighbor := range f.graph.VerticesAdjacentTo(current) {
			if closed[neighbor] {
				continue
			}
			edge, ok := f.graph.EdgeBetween(current, neighbor)
			if !ok {
				continue
			}
			tentative := item.g + edge.LengthMeters
			if old, ok := gScore[neighbor]; !ok || tentative < old {
				gScore[neighbor] = tentative
				cameFrom[neighbor] = vertexLink{prev: current, edge: edge}
				push(&pqItem{vertex: neighbor, g: tentative, f: tentative + heuristic(neighbor)})
			}
		}
	}

	return noPath(), nil
}

func (f *PathFinder) buildPath(from, to Anchor, cameFrom map[osm.VertexID]vertexLink,
	via osm.VertexID, entry geom.LinePosition, length float64) Path {
	steps := []PathStep{{Edge: to.Edge, From: entry, To: to.Position, FromVertex: via, ToVertex: osm.NoVertex}}

	current := via
	for {
		link := cameFrom[current]
		if link.source {
			steps = append(steps, PathStep{
				Edge:       from.Edge,
				From:       from.Position,
				To:         link.exit,
				FromVertex: osm.NoVertex,
				ToVertex:   current,
			})
			break
		}
		steps = append(steps, edgeStep(link.edge, link.prev, current))
		current = link.prev
	}

	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}
	return Path{Steps: steps, Length: length}
}

// edgeStep covers a whole edge travelled from vertex u to vertex v.
func edgeStep(e *osm.RoadEdge, u, v osm.VertexID) PathStep {
	if e.From == u && e.To == v {
		return PathStep{Edge: e, From: e.Geometry.Start(), To: e.Geometry.End(), FromVertex: u, ToVertex: v}
	}
	return PathStep{Edge: e, From: e.Geometry.End(), To: e.Geometry.Start(), FromVertex: u, ToVertex: v}
}

type anchorLink struct {
	vertex osm.VertexID
	pos    geom.LinePosition
	cost   float64
}

// anchorExits lists the vertices reachable from an anchor along its own edge.
func anchorExits(a Anchor) []anchorLink {
	line := a.Edge.Geometry
	exits := []anchorLink{{
		vertex: a.Edge.To,
		pos:    line.End(),
		cost:   line.PathLengthBetween(a.Position, line.End()),
	}}
	if !a.Edge.Oneway {
		exits = append(exits, anchorLink{
			vertex: a.Edge.From,
			pos:    line.Start(),
			cost:   line.PathLengthBetween(line.Start(), a.Position),
		})
	}
	return exits
}

// anchorEntries lists the vertices an anchor can be reached from along its own edge.
func anchorEntries(a Anchor) []anchorLink {
	line := a.Edge.Geometry
	entries := []anchorLink{{
		vertex: a.Edge.From,
		pos:    line.Start(),
		cost:   line.PathLengthBetween(line.Start(), a.Position),
	}}
	if !a.Edge.Oneway {
		entries = append(entries, anchorLink{
			vertex: a.Edge.To,
			pos:    line.End(),
			cost:   line.PathLengthBetween(a.Position, line.End()),
		})
	}
	return entries
}

type pqItem struct {
	vertex osm.VertexID
	goal   bool
	g      float64
	f      float64
	seq    int
}

// priorityQueue orders by estimated total cost, then insertion order.
type priorityQueue []*pqItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].f != pq[j].f {
		return pq[i].f < pq[j].f
	}
	return pq[i].seq < pq[j].seq
}

func (pq priorityQueue) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }

func (pq *priorityQueue) Push(x interface{}) {
	*pq = append(*pq, x.(*pqItem))
}

func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*pq = old[:n-1]
	return item
}
