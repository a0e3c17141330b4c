// Package config defines the configuration structures of the pipeline engine.
// No I/O or parsing logic lives here, only plain data types and validation.
package config

import (
	"fmt"
	"time"

	"github.com/turtacn/pipeline-engine/internal/domain/intensity"
	"github.com/turtacn/pipeline-engine/internal/domain/pipeline"
	"github.com/turtacn/pipeline-engine/internal/infrastructure/monitoring/logging"
)

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// EngineConfig controls reference data and pipeline aggregation.
type EngineConfig struct {
	// ReferenceDataPath is the YAML snapshot of fee structures, withholding
	// profiles, exchange rates and opportunities.
	ReferenceDataPath string `mapstructure:"reference_data_path"`
	// WatchReferenceData reloads the snapshot when the file changes.
	WatchReferenceData bool `mapstructure:"watch_reference_data"`
	// FailurePolicy is "abort" or "skip".
	FailurePolicy string `mapstructure:"failure_policy"`
}

// Policy parses FailurePolicy.
func (e EngineConfig) Policy() (pipeline.FailurePolicy, error) {
	return pipeline.ParseFailurePolicy(e.FailurePolicy)
}

// RedisConfig holds Redis connection parameters for the intensity config store.
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	Enabled              bool   `mapstructure:"enabled"`
	Namespace            string `mapstructure:"namespace"`
	Path                 string `mapstructure:"path"`
	EnableProcessMetrics bool   `mapstructure:"enable_process_metrics"`
	EnableGoMetrics      bool   `mapstructure:"enable_go_metrics"`
}

// Config is the root configuration.
type Config struct {
	Server    ServerConfig      `mapstructure:"server"`
	Log       logging.LogConfig `mapstructure:"log"`
	Engine    EngineConfig      `mapstructure:"engine"`
	Intensity intensity.Config  `mapstructure:"intensity"`
	Redis     RedisConfig       `mapstructure:"redis"`
	Metrics   MetricsConfig     `mapstructure:"metrics"`
}

// Validate checks every section.  It must run after ApplyDefaults.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config: nil configuration")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q must be debug, release or test", c.Server.Mode)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q must be json or console", c.Log.Format)
	}
	if _, err := c.Engine.Policy(); err != nil {
		return fmt.Errorf("config: engine.failure_policy: %w", err)
	}
	if c.Engine.WatchReferenceData && c.Engine.ReferenceDataPath == "" {
		return fmt.Errorf("config: engine.watch_reference_data requires engine.reference_data_path")
	}
	if err := c.Intensity.Validate(); err != nil {
		return fmt.Errorf("config: intensity: %w", err)
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required when redis is enabled")
	}
	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		return fmt.Errorf("config: metrics.namespace is required when metrics are enabled")
	}
	return nil
}

//Personal.AI order the ending
