package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"kuanb/gosm-matcher/osm"
	"kuanb/gosm-matcher/routing"
)

func main() {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := newLogger(cfg.LogDev)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("gosm-matcher stopped", zap.Error(err))
	}
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(cfg config, logger *zap.Logger) error {
	logger.Info("gosm-matcher starting", zap.String("pbf", cfg.PBF))
	if !cfg.LogDev {
		gin.SetMode(gin.ReleaseMode)
	}

	graph, err := osm.LoadPBF(cfg.PBF, logger)
	if err != nil {
		return errors.Wrap(err, "load graph")
	}
	logger.Info("loaded graph",
		zap.Int("vertices", graph.NumVertices()),
		zap.Int("edges", graph.NumEdges()))

	matcher, err := routing.NewMatcher(graph, cfg.Matcher, logger)
	if err != nil {
		return err
	}

	server := &Server{
		graph:   graph,
		matcher: matcher,
		workers: cfg.Workers,
		log:     logger,
	}

	done := make(chan struct{})
	defer close(done)
	server.startMetricsLogger(cfg.MetricsInterval, done)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: newRouter(server),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
