package routing

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"kuanb/gosm-matcher/geom"
	"kuanb/gosm-matcher/osm"
)

// MatchedPoint is the road position chosen for one trace point.
type MatchedPoint struct {
	TraceIndex             int
	TracePoint             geom.TracePoint
	Point                  geom.GeoPoint
	EdgeID                 osm.EdgeID
	WayID                  osm.OsmWayId
	Distance               float64
	ObservationProbability float64
	Score                  float64
}

// MatchResult is the output of one matching run.
type MatchResult struct {
	ID      uuid.UUID
	Matched []MatchedPoint
	Route   Route
}

// Matcher matches GPS traces onto a road network. It is safe for concurrent
// use; every run builds its own candidate graph.
type Matcher struct {
	graph         RoadNetwork
	cfg           Config
	log           *zap.Logger
	generator     *CandidateGenerator
	scorer        *TransmissionScorer
	reconstructor *Reconstructor
}

// NewMatcher returns a matcher over graph, or an error if cfg is invalid.
// A nil log discards output.
func NewMatcher(graph RoadNetwork, cfg Config, log *zap.Logger) (*Matcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid matcher config")
	}
	if log == nil {
		log = zap.NewNop()
	}
	finder := NewPathFinder(graph, cfg.MaxExpansions, log)
	return &Matcher{
		graph:         graph,
		cfg:           cfg,
		log:           log,
		generator:     NewCandidateGenerator(graph, cfg),
		scorer:        NewTransmissionScorer(finder),
		reconstructor: NewReconstructor(finder),
	}, nil
}

// MatchCandidates builds and decodes the candidate graph of a trace. It
// returns the graph and the chosen candidate of every trace point.
func (m *Matcher) MatchCandidates(ctx context.Context, trace []geom.TracePoint) (*CandidateGraph, []CandidateID, error) {
	if len(trace) == 0 {
		return nil, nil, ErrEmptyTrace
	}

	// Step 1: one layer of candidates per trace point
	g := NewCandidateGraph()
	for i, tp := range trace {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		layer := g.AddLayer(tp, m.generator.Candidates(tp.GeoPoint), m.cfg.MaxCandidates)
		if len(layer.Candidates) == 0 {
			return nil, nil, &NoCandidatesError{
				TraceIndex:      i,
				Point:           tp.GeoPoint,
				NearestDistance: m.generator.NearestRoadDistance(tp.GeoPoint),
			}
		}
	}

	// Step 2: connect and score adjacent layers
	g.ConnectLayers()
	if err := m.scorer.ScoreAll(ctx, g); err != nil {
		return nil, nil, err
	}

	// Step 3: decode
	matched, err := Decode(g)
	if err != nil {
		return nil, nil, err
	}
	return g, matched, nil
}

// Match finds the most probable road path for a trace.
func (m *Matcher) Match(ctx context.Context, trace []geom.TracePoint) (*MatchResult, error) {
	id := uuid.New()
	log := m.log.With(zap.String("match_id", id.String()))

	g, matched, err := m.MatchCandidates(ctx, trace)
	if err != nil {
		log.Debug("matching failed", zap.Int("trace_points", len(trace)), zap.Error(err))
		return nil, err
	}

	route, err := m.reconstructor.Reconstruct(ctx, g, matched)
	if err != nil {
		log.Debug("route reconstruction failed", zap.Error(err))
		return nil, err
	}

	result := &MatchResult{
		ID:      id,
		Matched: make([]MatchedPoint, len(matched)),
		Route:   route,
	}
	for i, cid := range matched {
		c := g.Candidate(cid)
		result.Matched[i] = MatchedPoint{
			TraceIndex:             g.Layers[c.Layer].TraceIndex,
			TracePoint:             g.Layers[c.Layer].TracePoint,
			Point:                  c.Point,
			EdgeID:                 c.Edge.ID,
			WayID:                  c.Edge.WayID,
			Distance:               c.Distance,
			ObservationProbability: c.ObservationProbability,
			Score:                  c.HighestProbability,
		}
	}

	log.Debug("matched trace",
		zap.Int("trace_points", len(trace)),
		zap.Int("candidates", g.NumCandidates()),
		zap.Int("connections", g.NumConnections()),
		zap.Int("route_points", len(route.Points)))
	return result, nil
}

// BatchResult is the outcome of matching one trace of a batch.
type BatchResult struct {
	Result *MatchResult
	Err    error
}

// MatchBatch matches independent traces on up to workers goroutines.
// Results are in input order; a failed trace does not stop the others.
func (m *Matcher) MatchBatch(ctx context.Context, traces [][]geom.TracePoint, workers int) []BatchResult {
	results := make([]BatchResult, len(traces))

	var eg errgroup.Group
	if workers > 0 {
		eg.SetLimit(workers)
	}
	for i, trace := range traces {
		i, trace := i, trace
		eg.Go(func() error {
			res, err := m.Match(ctx, trace)
			results[i] = BatchResult{Result: res, Err: err}
			return nil
		})
	}
	_ = eg.Wait()

	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	m.log.Info("matched batch",
		zap.Int("traces", len(traces)),
		zap.Int("failed", failed),
		zap.Int("workers", workers))
	return results
}
