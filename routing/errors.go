package routing

import (
	"fmt"
	"math"

	"github.com/pkg/errors"

	"kuanb/gosm-matcher/geom"
)

// ErrEmptyTrace is returned when a trace has no points.
var ErrEmptyTrace = errors.New("routing: empty trace")

// NoCandidatesError reports a trace point with no road within the search box.
type NoCandidatesError struct {
	TraceIndex int
	Point      geom.GeoPoint

	// NearestDistance is the distance in meters to the closest road, or +Inf
	// when it is unknown.
	NearestDistance float64
}

func (e *NoCandidatesError) Error() string {
	if math.IsInf(e.NearestDistance, 1) {
		return fmt.Sprintf("routing: no candidates for trace point %d (%.6f, %.6f)",
			e.TraceIndex, e.Point.Lat, e.Point.Lon)
	}
	return fmt.Sprintf("routing: no candidates for trace point %d (%.6f, %.6f), nearest road %.1fm away",
		e.TraceIndex, e.Point.Lat, e.Point.Lon, e.NearestDistance)
}

// DisconnectedRouteError reports two consecutive matched points with no road
// path between them.
type DisconnectedRouteError struct {
	FromIndex int
	ToIndex   int
}

func (e *DisconnectedRouteError) Error() string {
	return fmt.Sprintf("routing: disconnected route between trace points %d and %d", e.FromIndex, e.ToIndex)
}
