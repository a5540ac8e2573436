package config

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v2"
)

// Worker count bounds accepted by the recovery engine.
const (
	MinWorkers = 1
	MaxWorkers = 100
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
	if cfg.Search.Workers == 0 {
		cfg.Search.Workers = defaultWorkers()
	}
	if cfg.Search.ProgressInterval == 0 {
		cfg.Search.ProgressInterval = 1 * time.Second
	}

	if cfg.Search.Workers < MinWorkers || cfg.Search.Workers > MaxWorkers {
		return nil, fmt.Errorf("workers must be in [%d,%d], got %d", MinWorkers, MaxWorkers, cfg.Search.Workers)
	}
	if err := cfg.Passwords.Validate(cfg.Grammar.ToGrammar()); err != nil {
		return nil, fmt.Errorf("invalid password lists: %w", err)
	}

	return &cfg, nil
}

func defaultWorkers() int {
	n := runtime.NumCPU()
	if n < MinWorkers {
		return MinWorkers
	}
	if n > MaxWorkers {
		return MaxWorkers
	}
	return n
}
