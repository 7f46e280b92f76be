package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"kuanb/gosm-matcher/geom"
	"kuanb/gosm-matcher/osm"
	"kuanb/gosm-matcher/routing"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	b := osm.NewGraphBuilder()
	require.NoError(t, b.AddVertex(1, geom.NewPoint(0, 0)))
	require.NoError(t, b.AddVertex(2, geom.NewPoint(0, 0.05)))
	_, err := b.AddEdge(osm.EdgeSpec{
		WayID:    42,
		From:     1,
		To:       2,
		Highway:  "residential",
		Geometry: []geom.GeoPoint{geom.NewPoint(0, 0), geom.NewPoint(0, 0.02), geom.NewPoint(0, 0.05)},
	})
	require.NoError(t, err)
	graph := b.Build()

	log := zaptest.NewLogger(t)
	matcher, err := routing.NewMatcher(graph, routing.DefaultConfig(), log)
	require.NoError(t, err)
	return &Server{graph: graph, matcher: matcher, workers: 2, log: log}
}

func post(t *testing.T, s *Server, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	newRouter(s).ServeHTTP(w, req)
	return w
}

const traceOnRoad = `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{
	"times":["2024-05-01T10:00:00Z","2024-05-01T10:01:00Z"]},
	"geometry":{"type":"LineString","coordinates":[[0.012,0.0001],[0.025,-0.0002]]}}]}`

const traceOffRoad = `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{},
	"geometry":{"type":"Point","coordinates":[1,1]}}]}`

func TestHandleMatch(t *testing.T) {
	s := testServer(t)
	w := post(t, s, "/match", traceOnRoad)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	fc, err := geojson.UnmarshalFeatureCollection(w.Body.Bytes())
	require.NoError(t, err)
	assert.NotEmpty(t, fc.ExtraMembers["match_id"])
	assert.NotEmpty(t, fc.ExtraMembers["polyline"])

	// one leg, then the two matched points
	require.Len(t, fc.Features, 3)
	assert.Equal(t, "LineString", fc.Features[0].Geometry.GeoJSONType())
	assert.Regexp(t, `^#[0-9A-F]{6}$`, fc.Features[0].Properties["stroke"])
	assert.Equal(t, float64(42), fc.Features[1].Properties["way_id"])
	assert.Equal(t, "2024-05-01T10:01:00Z", fc.Features[2].Properties["time"])
}

func TestHandleMatchSimplify(t *testing.T) {
	s := testServer(t)

	w := post(t, s, "/match?simplify=5", traceOnRoad)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	fc, err := geojson.UnmarshalFeatureCollection(w.Body.Bytes())
	require.NoError(t, err)

	// the interior vertex lies on the straight line and is dropped
	leg, ok := fc.Features[0].Geometry.(orb.LineString)
	require.True(t, ok)
	assert.Len(t, leg, 2)

	w = post(t, s, "/match?simplify=abc", traceOnRoad)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleMatchErrors(t *testing.T) {
	s := testServer(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"not json", `{`, http.StatusBadRequest},
		{"unsupported geometry", `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{},
			"geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}}]}`, http.StatusBadRequest},
		{"empty trace", `{"type":"FeatureCollection","features":[]}`, http.StatusBadRequest},
		{"no candidates", traceOffRoad, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(t, s, "/match", tt.body)
			assert.Equal(t, tt.want, w.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestHandleMatchBatch(t *testing.T) {
	s := testServer(t)
	var buf bytes.Buffer
	buf.WriteString("[" + traceOnRoad + "," + traceOffRoad + "]")

	w := post(t, s, "/match/batch", buf.String())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var results []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))
	require.Len(t, results, 2)

	fc, err := geojson.UnmarshalFeatureCollection(results[0]["result"])
	require.NoError(t, err)
	assert.Len(t, fc.Features, 3)

	assert.Contains(t, string(results[1]["error"]), "no candidates for trace point 0")
	assert.Equal(t, "422", string(results[1]["status"]))

	w = post(t, s, "/match/batch", `{"not":"an array"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := testServer(t)
	router := newRouter(s)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var m RuntimeMetrics
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	assert.Equal(t, 2, m.Vertices)
	assert.Equal(t, 1, m.Edges)
	assert.Positive(t, m.Goroutines)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(routing.ErrEmptyTrace))
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(errors.Wrap(&routing.DisconnectedRouteError{FromIndex: 1, ToIndex: 2}, "match")))
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(&routing.NoCandidatesError{TraceIndex: 3}))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))
}
