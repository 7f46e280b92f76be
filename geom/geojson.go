package geom

import (
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
)

// TraceFromGeoJSON decodes a GeoJSON FeatureCollection into a trace.
//
// Point features contribute one observation each and may carry an RFC3339
// "time" property. LineString and MultiPoint features contribute one
// observation per coordinate and may carry a parallel "times" array.
// Feature order and coordinate order define trace order.
func TraceFromGeoJSON(data []byte) ([]TracePoint, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, errors.Wrap(err, "invalid GeoJSON")
	}
	return TraceFromFeatureCollection(fc)
}

// TraceFromFeatureCollection extracts a trace from already decoded features.
func TraceFromFeatureCollection(fc *geojson.FeatureCollection) ([]TracePoint, error) {
	var trace []TracePoint
	for i, feature := range fc.Features {
		if feature == nil || feature.Geometry == nil {
			continue
		}
		switch g := feature.Geometry.(type) {
		case orb.Point:
			t, err := parseTime(feature.Properties["time"])
			if err != nil {
				return nil, errors.Wrapf(err, "feature %d", i)
			}
			trace = append(trace, TracePoint{GeoPoint: FromOrb(g), Time: t})
		case orb.LineString:
			pts, err := tracePoints([]orb.Point(g), feature.Properties)
			if err != nil {
				return nil, errors.Wrapf(err, "feature %d", i)
			}
			trace = append(trace, pts...)
		case orb.MultiPoint:
			pts, err := tracePoints([]orb.Point(g), feature.Properties)
			if err != nil {
				return nil, errors.Wrapf(err, "feature %d", i)
			}
			trace = append(trace, pts...)
		default:
			return nil, errors.Errorf("feature %d: unsupported geometry %s", i, feature.Geometry.GeoJSONType())
		}
	}
	return trace, nil
}

func tracePoints(coords []orb.Point, props geojson.Properties) ([]TracePoint, error) {
	var times []interface{}
	if raw, ok := props["times"]; ok {
		list, ok := raw.([]interface{})
		if !ok {
			return nil, errors.New(`"times" must be an array`)
		}
		if len(list) != len(coords) {
			return nil, errors.Errorf(`"times" has %d entries for %d coordinates`, len(list), len(coords))
		}
		times = list
	}

	pts := make([]TracePoint, 0, len(coords))
	for j, c := range coords {
		tp := TracePoint{GeoPoint: FromOrb(c)}
		if times != nil {
			t, err := parseTime(times[j])
			if err != nil {
				return nil, errors.Wrapf(err, "coordinate %d", j)
			}
			tp.Time = t
		}
		pts = append(pts, tp)
	}
	return pts, nil
}

func parseTime(v interface{}) (time.Time, error) {
	if v == nil {
		return time.Time{}, nil
	}
	s, ok := v.(string)
	if !ok {
		return time.Time{}, errors.Errorf("time %v is not a string", v)
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "bad time %q", s)
	}
	return t, nil
}
