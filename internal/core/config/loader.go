package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Set defaults if necessary
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Sync.PollInterval == 0 {
		cfg.Sync.PollInterval = Duration(5 * time.Second)
	}
	if cfg.Sync.StepSize == 0 {
		cfg.Sync.StepSize = 100
	}
	if cfg.DA.RequestTimeout == 0 {
		cfg.DA.RequestTimeout = Duration(30 * time.Second)
	}
	if cfg.DA.RetryAttempts == 0 {
		cfg.DA.RetryAttempts = 3
	}

	if cfg.DA.Endpoint == "" {
		return nil, fmt.Errorf("da.endpoint is required")
	}

	return &cfg, nil
}
