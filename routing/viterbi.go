package routing

import (
	"math"

	"github.com/pkg/errors"
)

// Decode runs Viterbi over a scored candidate graph and returns one
// candidate per layer, in layer order.
//
// The cumulative score of a candidate is the best over its incoming
// connections of predecessor score + observation × transmission. Ties keep
// the first predecessor in layer order; the terminal candidate is the first
// with the highest score in the last layer.
func Decode(g *CandidateGraph) ([]CandidateID, error) {
	if len(g.Layers) == 0 {
		return nil, ErrEmptyTrace
	}
	if i := g.EmptyLayer(); i >= 0 {
		return nil, &NoCandidatesError{
			TraceIndex:      g.Layers[i].TraceIndex,
			Point:           g.Layers[i].TracePoint.GeoPoint,
			NearestDistance: math.Inf(1),
		}
	}

	for _, id := range g.Layers[0].Candidates {
		c := g.Candidate(id)
		c.HighestProbability = c.ObservationProbability
		c.Parent = NoCandidate
	}

	for i := 1; i < len(g.Layers); i++ {
		for _, id := range g.Layers[i].Candidates {
			c := g.Candidate(id)
			c.HighestProbability = math.Inf(-1)
			c.Parent = NoCandidate
			for _, connID := range c.Incoming {
				conn := g.Connection(connID)
				score := g.Candidate(conn.From).HighestProbability + c.ObservationProbability*conn.TransmissionProbability
				if score > c.HighestProbability {
					c.HighestProbability = score
					c.Parent = conn.From
				}
			}
		}
	}

	last := g.Layers[len(g.Layers)-1]
	best := NoCandidate
	bestScore := math.Inf(-1)
	for _, id := range last.Candidates {
		if s := g.Candidate(id).HighestProbability; s > bestScore {
			bestScore = s
			best = id
		}
	}
	if best == NoCandidate {
		return nil, errors.New("routing: no finite score in the last layer")
	}

	path := make([]CandidateID, len(g.Layers))
	current := best
	for i := len(g.Layers) - 1; i >= 0; i-- {
		if current == NoCandidate {
			return nil, errors.Errorf("routing: broken back pointer at layer %d", i)
		}
		path[i] = current
		current = g.Candidate(current).Parent
	}
	return path, nil
}
