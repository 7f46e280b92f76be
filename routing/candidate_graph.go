package routing

import (
	"math"
	"sort"

	"kuanb/gosm-matcher/geom"
	"kuanb/gosm-matcher/osm"
)

// CandidateID indexes a candidate within its CandidateGraph.
type CandidateID int

// ConnectionID indexes a connection within its CandidateGraph.
type ConnectionID int

// NoCandidate marks an unset parent.
const NoCandidate CandidateID = -1

// Direction is the travel direction of a connection relative to the source
// candidate's edge. It is informational and plays no part in scoring.
type Direction int

const (
	DirectionUnknown Direction = iota
	DirectionForward
	DirectionBackward
)

func (d Direction) String() string {
	switch d {
	case DirectionForward:
		return "forward"
	case DirectionBackward:
		return "backward"
	}
	return "unknown"
}

// Candidate is a possible road position for one trace point.
type Candidate struct {
	ID       CandidateID
	Layer    int
	Point    geom.GeoPoint
	Position geom.LinePosition
	Edge     *osm.RoadEdge
	Distance float64

	ObservationProbability float64
	// HighestProbability is the best cumulative score found by the decoder.
	HighestProbability float64
	Parent             CandidateID

	Outgoing []ConnectionID
	Incoming []ConnectionID
}

// Anchor returns the candidate as a path search endpoint.
func (c *Candidate) Anchor() Anchor {
	return Anchor{Edge: c.Edge, Position: c.Position}
}

// Connection is a transition between candidates of adjacent layers.
type Connection struct {
	ID                      ConnectionID
	From                    CandidateID
	To                      CandidateID
	TransmissionProbability float64
	Direction               Direction
}

// Layer holds the candidates of one trace point, best first.
type Layer struct {
	TraceIndex int
	TracePoint geom.TracePoint
	Candidates []CandidateID
}

// CandidateGraph is the layered HMM lattice of one matching run. Candidates
// and connections live in arenas and refer to each other by index.
type CandidateGraph struct {
	Layers      []Layer
	candidates  []Candidate
	connections []Connection
}

// NewCandidateGraph returns a graph with no layers.
func NewCandidateGraph() *CandidateGraph {
	return &CandidateGraph{}
}

// AddLayer appends a layer for tp holding the k most probable projections.
// Equally probable projections keep their input order.
func (g *CandidateGraph) AddLayer(tp geom.TracePoint, projections []Projection, k int) Layer {
	ranked := make([]Projection, len(projections))
	copy(ranked, projections)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ObservationProbability > ranked[j].ObservationProbability
	})
	if len(ranked) > k {
		ranked = ranked[:k]
	}

	layerIndex := len(g.Layers)
	layer := Layer{
		TraceIndex: layerIndex,
		TracePoint: tp,
		Candidates: make([]CandidateID, 0, len(ranked)),
	}
	for _, p := range ranked {
		id := CandidateID(len(g.candidates))
		g.candidates = append(g.candidates, Candidate{
			ID:                     id,
			Layer:                  layerIndex,
			Point:                  p.Position.Point,
			Position:               p.Position,
			Edge:                   p.Edge,
			Distance:               p.Distance,
			ObservationProbability: p.ObservationProbability,
			HighestProbability:     math.Inf(-1),
			Parent:                 NoCandidate,
		})
		layer.Candidates = append(layer.Candidates, id)
	}
	g.Layers = append(g.Layers, layer)
	return layer
}

// ConnectLayers joins every candidate of each layer to every candidate of
// the next one. It must be called once, after all layers are added.
func (g *CandidateGraph) ConnectLayers() {
	for i := 0; i+1 < len(g.Layers); i++ {
		for _, from := range g.Layers[i].Candidates {
			for _, to := range g.Layers[i+1].Candidates {
				id := ConnectionID(len(g.connections))
				g.connections = append(g.connections, Connection{ID: id, From: from, To: to})
				g.candidates[from].Outgoing = append(g.candidates[from].Outgoing, id)
				g.candidates[to].Incoming = append(g.candidates[to].Incoming, id)
			}
		}
	}
}

// Candidate returns the candidate with the given ID.
func (g *CandidateGraph) Candidate(id CandidateID) *Candidate {
	return &g.candidates[id]
}

// Connection returns the connection with the given ID.
func (g *CandidateGraph) Connection(id ConnectionID) *Connection {
	return &g.connections[id]
}

// NumCandidates returns the number of candidates across all layers.
func (g *CandidateGraph) NumCandidates() int {
	return len(g.candidates)
}

// NumConnections returns the number of connections between layers.
func (g *CandidateGraph) NumConnections() int {
	return len(g.connections)
}

// EmptyLayer returns the index of the first layer without candidates, or -1.
func (g *CandidateGraph) EmptyLayer() int {
	for i, l := range g.Layers {
		if len(l.Candidates) == 0 {
			return i
		}
	}
	return -1
}
