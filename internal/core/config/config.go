package config

import (
	"fmt"
	"time"

	redisjournal "github.com/vietddude/dasync/internal/infra/redis"
	"github.com/vietddude/dasync/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig        `yaml:"server"`
	Sync     SyncConfig          `yaml:"sync"`
	DA       DAConfig            `yaml:"da"`
	Redis    redisjournal.Config `yaml:"redis"`
	Logging  LoggingConfig       `yaml:"logging"`
	Database postgres.Config     `yaml:"database"`
}

// Duration unmarshals YAML duration strings ("5s", "2m"). Bare integers are
// milliseconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}

	var n int64
	if err := unmarshal(&n); err != nil {
		return err
	}
	*d = Duration(time.Duration(n) * time.Millisecond)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// ServerConfig holds HTTP server settings (health + metrics).
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// DAConfig holds settings for the remote DA-layer client.
type DAConfig struct {
	// Endpoint is the base URL of the DA layer's browser API.
	Endpoint string `yaml:"endpoint"`
	// RequestTimeout bounds each HTTP request.
	RequestTimeout Duration `yaml:"request_timeout"`
	// RetryAttempts is the number of tries per call for transient failures.
	RetryAttempts int `yaml:"retry_attempts"`
	// LatestIndexFallback, when set, replaces a failed latest-index query
	// instead of propagating the error.
	LatestIndexFallback *uint64 `yaml:"latest_index_fallback"`
}

// SyncConfig holds settings for the batch synchronization loop.
type SyncConfig struct {
	// PollInterval is the sleep between work-bearing loop iterations and the
	// idle pause when the planner reports no new work.
	PollInterval Duration `yaml:"poll_interval"`
	// StepSize caps how many batch indices one pass may fetch.
	StepSize uint64 `yaml:"step_size"`
	// InitialBatchIndex seeds the checkpoint on first run.
	InitialBatchIndex uint64 `yaml:"initial_batch_index"`
	// L2ChainID drives signature recovery-id normalization in the decoder.
	L2ChainID uint64 `yaml:"l2_chain_id"`
	// CatchAllErrors makes otherwise-fatal sync failures get recorded and
	// swallowed instead of terminating the service.
	CatchAllErrors bool `yaml:"catch_all_errors"`
}
