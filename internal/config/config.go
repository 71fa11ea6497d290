// Package config defines process configuration and its layered loader.
package config

import (
	"runtime"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Trials is the number of simulated races per discipline.
	Trials int `koanf:"trials"`

	// Seed fixes the simulator RNG; zero seeds from the clock.
	Seed int64 `koanf:"seed"`

	// MinSamples is the aggregated game count that stops widening.
	MinSamples int `koanf:"min_samples"`

	// MaxRadius bounds how far the aggregator widens around a differential.
	MaxRadius int `koanf:"max_radius"`

	// WorkerCount sets the number of pairing evaluation workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the in-memory pairing job queue.
	QueueSize int `koanf:"queue_size"`

	// MaxGames caps the slate size accepted by the lineup optimizer.
	MaxGames int `koanf:"max_games"`

	// SnapshotPath points at the roster snapshot (YAML or JSON).
	SnapshotPath string `koanf:"snapshot_path"`

	// PredictionsPath is where the file store keeps the latest report.
	PredictionsPath string `koanf:"predictions_path"`

	// RedisAddr selects the Redis store when set.
	RedisAddr string `koanf:"redis_addr"`
	RedisKey  string `koanf:"redis_key"`
	// RedisTTL expires the stored report; zero keeps it forever.
	RedisTTL time.Duration `koanf:"redis_ttl"`

	// OurTeam and TheirTeam name the teams in the snapshot.
	OurTeam   string `koanf:"our_team"`
	TheirTeam string `koanf:"their_team"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		Addr:            ":9080",
		Trials:          20_000,
		MinSamples:      10,
		MaxRadius:       4,
		WorkerCount:     runtime.NumCPU(),
		QueueSize:       1024,
		MaxGames:        6,
		PredictionsPath: "predictions.yaml",
		RedisKey:        "racepick:predictions",
	}
}
