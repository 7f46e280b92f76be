package routing

import (
	"context"

	"github.com/pkg/errors"

	"kuanb/gosm-matcher/geom"
)

// Reconstructor turns a matched candidate sequence into road geometry.
type Reconstructor struct {
	finder *PathFinder
}

// NewReconstructor returns a reconstructor routing legs through finder.
func NewReconstructor(finder *PathFinder) *Reconstructor {
	return &Reconstructor{finder: finder}
}

// Reconstruct builds the route through the matched candidates. Consecutive
// candidates with no road path between them fail with a DisconnectedRouteError.
// Every leg holds at least its two matched end points.
func (r *Reconstructor) Reconstruct(ctx context.Context, g *CandidateGraph, matched []CandidateID) (Route, error) {
	if len(matched) == 0 {
		return Route{}, ErrEmptyTrace
	}

	var route Route
	route.Points = appendPoint(route.Points, r.matchedPoint(g, matched[0]))

	for i := 0; i+1 < len(matched); i++ {
		leg, err := r.leg(ctx, g, matched[i], matched[i+1])
		if err != nil {
			return Route{}, err
		}
		route.Legs = append(route.Legs, leg)
		// the first point of a leg is the end of the previous one
		for _, p := range leg.Points[1:] {
			route.Points = appendPoint(route.Points, p)
		}
	}
	return route, nil
}

func (r *Reconstructor) leg(ctx context.Context, g *CandidateGraph, fromID, toID CandidateID) (RouteLeg, error) {
	from, to := g.Candidate(fromID), g.Candidate(toID)
	start, end := r.matchedPoint(g, fromID), r.matchedPoint(g, toID)

	leg := RouteLeg{FromIndex: start.TraceIndex, ToIndex: end.TraceIndex}
	points := []RoutePoint{start}
	addVertices := func(vertices []geom.GeoPoint) {
		for _, v := range vertices {
			points = appendPoint(points, RoutePoint{Point: v, TraceIndex: -1})
		}
	}

	fromLine, toLine := from.Edge.Geometry, to.Edge.Geometry
	switch {
	case fromLine.DistanceTo(to.Point) < geom.EpsLength:
		// both lie on the first candidate's road
		addVertices(fromLine.VerticesBetween(from.Position, fromLine.Project(to.Point)))
	case toLine.DistanceTo(from.Point) < geom.EpsLength:
		addVertices(toLine.VerticesBetween(toLine.Project(from.Point), to.Position))
	default:
		path, err := r.finder.FindPath(ctx, from.Anchor(), to.Anchor())
		if err != nil {
			return RouteLeg{}, errors.Wrapf(err, "reconstruct %d -> %d", leg.FromIndex, leg.ToIndex)
		}
		if !path.Found() {
			return RouteLeg{}, &DisconnectedRouteError{FromIndex: leg.FromIndex, ToIndex: leg.ToIndex}
		}
		for j, step := range path.Steps {
			if j > 0 {
				addVertices([]geom.GeoPoint{step.From.Point})
			}
			addVertices(step.Edge.Geometry.VerticesBetween(step.From, step.To))
		}
	}

	leg.Points = appendPoint(points, end)
	return leg, nil
}

func (r *Reconstructor) matchedPoint(g *CandidateGraph, id CandidateID) RoutePoint {
	c := g.Candidate(id)
	layer := g.Layers[c.Layer]
	return RoutePoint{
		Point:      c.Point,
		Time:       layer.TracePoint.Time,
		TraceIndex: layer.TraceIndex,
	}
}
