package config

import (
	"errors"
	"fmt"

	"github.com/lazypower/docrank/internal/logging"
)

// Config holds all docrank configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Logging  LoggingConfig  `koanf:"logging"`
	Ranking  RankingConfig  `koanf:"ranking"`
}

type ServerConfig struct {
	Bind string `koanf:"bind"`
	Port int    `koanf:"port"`
}

type DatabaseConfig struct {
	Path string `koanf:"path"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // json, console
	Caller bool   `koanf:"caller"`
}

// RankingConfig holds the scoring model's tunables.
type RankingConfig struct {
	DecayFactor       float64 `koanf:"decay_factor"`       // per learn call, in (0,1)
	ScoreWeight       float64 `koanf:"score_weight"`       // multiplier on the caller's raw score
	RelationIncrement float64 `koanf:"relation_increment"` // per co-occurring pair, per direction
	OverFetch         int     `koanf:"over_fetch"`         // candidates fetched per requested result
	SeedCount         int     `koanf:"seed_count"`
	RelatedPerSeed    int     `koanf:"related_per_seed"`
	RecencyWeight     float64 `koanf:"recency_weight"`
	FrequencyWeight   float64 `koanf:"frequency_weight"`
	BoostFactor       float64 `koanf:"boost_factor"`
	BoostThreshold    float64 `koanf:"boost_threshold"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37780,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Ranking: RankingConfig{
			DecayFactor:       0.92,
			ScoreWeight:       2.0,
			RelationIncrement: 0.1,
			OverFetch:         5,
			SeedCount:         3,
			RelatedPerSeed:    3,
			RecencyWeight:     0.3,
			FrequencyWeight:   0.2,
			BoostFactor:       0.3,
			BoostThreshold:    0.5,
		},
	}
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}

// LoggingOptions converts the logging section for logging.Init.
func (c *Config) LoggingOptions() logging.Config {
	return logging.Config{
		Level:  c.Logging.Level,
		Format: c.Logging.Format,
		Caller: c.Logging.Caller,
	}
}

// Validate checks the configuration and returns every problem found.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.Bind == "" {
		errs = append(errs, errors.New("server.bind is required"))
	}
	if !logging.ValidLevel(c.Logging.Level) {
		errs = append(errs, fmt.Errorf("logging.level %q is not a known level", c.Logging.Level))
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		errs = append(errs, fmt.Errorf("logging.format %q must be json or console", c.Logging.Format))
	}

	r := c.Ranking
	if r.DecayFactor <= 0 || r.DecayFactor >= 1 {
		errs = append(errs, fmt.Errorf("ranking.decay_factor %v must be in (0,1)", r.DecayFactor))
	}
	if r.ScoreWeight < 0 {
		errs = append(errs, fmt.Errorf("ranking.score_weight %v must not be negative", r.ScoreWeight))
	}
	if r.RelationIncrement < 0 {
		errs = append(errs, fmt.Errorf("ranking.relation_increment %v must not be negative", r.RelationIncrement))
	}
	if r.OverFetch < 1 {
		errs = append(errs, fmt.Errorf("ranking.over_fetch %d must be at least 1", r.OverFetch))
	}
	if r.SeedCount < 0 || r.RelatedPerSeed < 0 {
		errs = append(errs, errors.New("ranking.seed_count and ranking.related_per_seed must not be negative"))
	}
	if r.BoostFactor < 0 || r.BoostThreshold < 0 {
		errs = append(errs, errors.New("ranking.boost_factor and ranking.boost_threshold must not be negative"))
	}

	return errors.Join(errs...)
}
