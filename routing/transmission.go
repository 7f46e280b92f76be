package routing

import (
	"context"
	"math"

	"github.com/pkg/errors"

	"kuanb/gosm-matcher/geom"
)

// TransmissionProbability scores how directly a road path of length
// shortestPath covers a straight-line displacement of gcd meters.
func TransmissionProbability(gcd, shortestPath float64) float64 {
	if gcd == 0 && shortestPath == 0 {
		return 1
	}
	if math.IsInf(shortestPath, 1) {
		return 0
	}
	if shortestPath <= 0 {
		// projection rounding can leave a tiny gcd over a zero-length path
		return 1
	}
	return gcd / shortestPath
}

// TransmissionScorer assigns transmission probabilities to connections.
type TransmissionScorer struct {
	finder *PathFinder
}

// NewTransmissionScorer returns a scorer measuring road distances with finder.
func NewTransmissionScorer(finder *PathFinder) *TransmissionScorer {
	return &TransmissionScorer{finder: finder}
}

// ScoreAll scores every connection of g.
func (s *TransmissionScorer) ScoreAll(ctx context.Context, g *CandidateGraph) error {
	for i := 0; i < g.NumConnections(); i++ {
		if err := s.Score(ctx, g, ConnectionID(i)); err != nil {
			return err
		}
	}
	return nil
}

// Score computes the transmission probability and direction of one connection.
func (s *TransmissionScorer) Score(ctx context.Context, g *CandidateGraph, id ConnectionID) error {
	c := g.Connection(id)
	from, to := g.Candidate(c.From), g.Candidate(c.To)

	path, err := s.finder.FindPath(ctx, from.Anchor(), to.Anchor())
	if err != nil {
		return errors.Wrapf(err, "score connection %d", id)
	}

	gcd := geom.GreatCircleDistance(from.Point, to.Point)
	c.TransmissionProbability = TransmissionProbability(gcd, path.Length)
	c.Direction = pathDirection(path)
	return nil
}

// pathDirection reports which way a path leaves its first edge.
func pathDirection(p Path) Direction {
	if len(p.Steps) == 0 {
		return DirectionUnknown
	}
	first := p.Steps[0]
	switch a, b := first.From.Measure(), first.To.Measure(); {
	case b > a:
		return DirectionForward
	case b < a:
		return DirectionBackward
	}
	return DirectionUnknown
}
