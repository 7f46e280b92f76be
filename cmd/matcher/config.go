package main

import (
	"flag"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"kuanb/gosm-matcher/routing"
)

type config struct {
	PBF             string
	Addr            string
	Workers         int
	LogDev          bool
	MetricsInterval time.Duration
	Matcher         routing.Config
}

// loadConfig reads .env and the environment, then applies command line flags on top.
func loadConfig(args []string) (config, error) {
	// a missing .env is fine
	_ = godotenv.Load()

	defaults := routing.DefaultConfig()
	cfg := config{
		PBF:             envString("MATCHER_PBF", "./data/example.osm.pbf"),
		Addr:            envString("MATCHER_ADDR", ":8080"),
		MetricsInterval: 30 * time.Second,
		Matcher:         defaults,
	}

	var err error
	if cfg.Matcher.SigmaMeters, err = envFloat("MATCHER_SIGMA", defaults.SigmaMeters); err != nil {
		return cfg, err
	}
	if cfg.Matcher.MaxCandidates, err = envInt("MATCHER_MAX_CANDIDATES", defaults.MaxCandidates); err != nil {
		return cfg, err
	}
	if cfg.Matcher.MaxExpansions, err = envInt("MATCHER_MAX_EXPANSIONS", defaults.MaxExpansions); err != nil {
		return cfg, err
	}
	if cfg.Workers, err = envInt("MATCHER_WORKERS", 4); err != nil {
		return cfg, err
	}
	if cfg.LogDev, err = envBool("MATCHER_LOG_DEV", false); err != nil {
		return cfg, err
	}

	fs := flag.NewFlagSet("matcher", flag.ContinueOnError)
	fs.StringVar(&cfg.PBF, "pbf", cfg.PBF, "path to the OSM PBF extract")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	fs.Float64Var(&cfg.Matcher.SigmaMeters, "sigma", cfg.Matcher.SigmaMeters, "GPS noise standard deviation in meters")
	fs.IntVar(&cfg.Matcher.MaxCandidates, "max-candidates", cfg.Matcher.MaxCandidates, "candidates kept per trace point")
	fs.IntVar(&cfg.Matcher.MaxExpansions, "max-expansions", cfg.Matcher.MaxExpansions, "A* expansion budget, 0 for unlimited")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "traces matched in parallel by /match/batch")
	fs.BoolVar(&cfg.LogDev, "log-dev", cfg.LogDev, "human readable debug logging")
	fs.DurationVar(&cfg.MetricsInterval, "metrics-interval", cfg.MetricsInterval, "runtime metrics log interval, 0 to disable")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	if err := cfg.Matcher.Validate(); err != nil {
		return cfg, err
	}
	if cfg.Workers <= 0 {
		return cfg, errors.Errorf("workers must be positive, got %d", cfg.Workers)
	}
	return cfg, nil
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) (float64, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	return f, errors.Wrapf(err, "parse %s", key)
}

func envInt(key string, fallback int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	i, err := strconv.Atoi(v)
	return i, errors.Wrapf(err, "parse %s", key)
}

func envBool(key string, fallback bool) (bool, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	return b, errors.Wrapf(err, "parse %s", key)
}
