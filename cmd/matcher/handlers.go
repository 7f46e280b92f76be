package main

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/simplify"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"kuanb/gosm-matcher/geom"
	"kuanb/gosm-matcher/osm"
	"kuanb/gosm-matcher/routing"
)

// Server holds the graph and matcher for handling requests
type Server struct {
	graph   *osm.RoadGraph
	matcher *routing.Matcher
	workers int
	log     *zap.Logger
}

func newRouter(s *Server) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.log))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	r.Use(cors.New(corsConfig))

	r.POST("/match", s.handleMatch)
	r.POST("/match/batch", s.handleMatchBatch)
	r.GET("/health", s.handleHealth)
	r.GET("/metrics", s.handleMetrics)
	return r
}

// RuntimeMetrics holds memory and goroutine statistics
type RuntimeMetrics struct {
	Goroutines   int     `json:"goroutines"`
	AllocMB      float64 `json:"alloc_mb"`       // currently allocated heap
	TotalAllocMB float64 `json:"total_alloc_mb"` // cumulative allocated (includes freed)
	SysMB        float64 `json:"sys_mb"`         // total memory from OS
	HeapObjects  uint64  `json:"heap_objects"`
	NumGC        uint32  `json:"num_gc"`
	Vertices     int     `json:"graph_vertices"`
	Edges        int     `json:"graph_edges"`
}

func (s *Server) runtimeMetrics() RuntimeMetrics {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	metrics := RuntimeMetrics{
		Goroutines:   runtime.NumGoroutine(),
		AllocMB:      float64(m.Alloc) / 1024 / 1024,
		TotalAllocMB: float64(m.TotalAlloc) / 1024 / 1024,
		SysMB:        float64(m.Sys) / 1024 / 1024,
		HeapObjects:  m.HeapObjects,
		NumGC:        m.NumGC,
	}
	if s.graph != nil {
		metrics.Vertices = s.graph.NumVertices()
		metrics.Edges = s.graph.NumEdges()
	}
	return metrics
}

// startMetricsLogger logs runtime metrics every interval until done is closed.
func (s *Server) startMetricsLogger(interval time.Duration, done <-chan struct{}) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				m := s.runtimeMetrics()
				s.log.Info("runtime metrics",
					zap.Int("goroutines", m.Goroutines),
					zap.Float64("alloc_mb", m.AllocMB),
					zap.Float64("sys_mb", m.SysMB),
					zap.Uint64("heap_objects", m.HeapObjects),
					zap.Uint32("gc_cycles", m.NumGC))
			}
		}
	}()
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.runtimeMetrics())
}

// handleMatch matches a GeoJSON trace and returns the route as GeoJSON
func (s *Server) handleMatch(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	trace, err := geom.TraceFromGeoJSON(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var tolerance float64
	if v := c.Query("simplify"); v != "" {
		if tolerance, err = strconv.ParseFloat(v, 64); err != nil || tolerance < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "simplify must be a non-negative number of meters"})
			return
		}
	}
	s.log.Debug("processing match request", zap.Int("trace_points", len(trace)))

	res, err := s.matcher.Match(c.Request.Context(), trace)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resultFeatures(res, tolerance))
}

// handleMatchBatch matches a JSON array of GeoJSON traces.
func (s *Server) handleMatchBatch(c *gin.Context) {
	var raw []json.RawMessage
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	traces := make([][]geom.TracePoint, len(raw))
	for i, r := range raw {
		trace, err := geom.TraceFromGeoJSON(r)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "index": i})
			return
		}
		traces[i] = trace
	}

	results := s.matcher.MatchBatch(c.Request.Context(), traces, s.workers)
	response := make([]gin.H, len(results))
	for i, r := range results {
		if r.Err != nil {
			response[i] = gin.H{"error": r.Err.Error(), "status": statusFor(r.Err)}
			continue
		}
		response[i] = gin.H{"result": resultFeatures(r.Result, 0)}
	}
	c.JSON(http.StatusOK, response)
}

// statusFor maps matching errors to HTTP status codes.
func statusFor(err error) int {
	var noCandidates *routing.NoCandidatesError
	var disconnected *routing.DisconnectedRouteError
	switch {
	case errors.Is(err, routing.ErrEmptyTrace):
		return http.StatusBadRequest
	case errors.As(err, &noCandidates), errors.As(err, &disconnected):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// resultFeatures renders a match as a FeatureCollection with the match ID
// and encoded polyline as extra members. Leg lines are simplified with
// Douglas-Peucker when tolerance (meters) is positive.
func resultFeatures(res *routing.MatchResult, tolerance float64) *geojson.FeatureCollection {
	fc := res.Route.FeatureCollection()
	for _, f := range fc.Features {
		if ls, ok := f.Geometry.(orb.LineString); ok {
			if tolerance > 0 && len(ls) > 2 {
				threshold, _ := geom.MetersToDegrees(ls[0].Lat(), tolerance)
				f.Geometry = simplify.DouglasPeucker(threshold).Simplify(ls.Clone())
			}
			f.Properties["stroke"] = randomColor()
			continue
		}
		idx, ok := f.Properties["trace_index"].(int)
		if !ok {
			continue
		}
		for _, mp := range res.Matched {
			if mp.TraceIndex == idx {
				f.Properties["way_id"] = int64(mp.WayID)
				f.Properties["distance_m"] = mp.Distance
				break
			}
		}
	}
	fc.ExtraMembers = geojson.Properties{
		"match_id": res.ID.String(),
		"polyline": res.Route.EncodedPolyline(),
	}
	return fc
}

// randomColor generates a random hex color string
func randomColor() string {
	const letters = "0123456789ABCDEF"
	b := make([]byte, 7)
	b[0] = '#'
	for i := 1; i < 7; i++ {
		b[i] = letters[rand.Intn(16)]
	}
	return string(b)
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
