// Package config loads engine configuration the way the teacher's
// pkg/config does: struct tags decoded with envdecode, an optional .env
// file, and an optional YAML overlay for values env vars don't cover well
// (state_bootstrap's multi-line text, the driver registry path).
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultStateBootstrap is the fixed boilerplate state document spec.md
// §6.4 names as the default for state_bootstrap.
const DefaultStateBootstrap = `## 現在の状態

## アクティブなFlow

## 保留中のInput

## 最近の活動

## 注意事項
`

// Config covers every knob spec.md §6.4 recognizes.
type Config struct {
	MaxConcurrency         int           `yaml:"max_concurrency" env:"ENGINE_MAX_CONCURRENCY"`
	QueueCapacity          int           `yaml:"queue_capacity" env:"ENGINE_QUEUE_CAPACITY"`
	DrainTimeout           time.Duration `yaml:"drain_timeout" env:"ENGINE_DRAIN_TIMEOUT"`
	DefaultWorkflowTimeout time.Duration `yaml:"default_workflow_timeout" env:"ENGINE_DEFAULT_WORKFLOW_TIMEOUT"`
	StateBootstrap         string        `yaml:"state_bootstrap"`
	DriverRegistryPath     string        `yaml:"driver_registry_path" env:"ENGINE_DRIVER_REGISTRY_PATH"`
	MaxEmissionDepth       int           `yaml:"max_emission_depth" env:"ENGINE_MAX_EMISSION_DEPTH"`

	Logging Logging `yaml:"logging"`
}

// Logging mirrors the teacher's LoggingConfig shape.
type Logging struct {
	Level      string `yaml:"level" env:"LOG_LEVEL"`
	Format     string `yaml:"format" env:"LOG_FORMAT"`
	Output     string `yaml:"output" env:"LOG_OUTPUT"`
	FilePrefix string `yaml:"file_prefix" env:"LOG_FILE_PREFIX"`
}

// Default returns a Config with every spec.md §6.4 default applied:
// max_concurrency = CPU count (applied by the caller via runtime.NumCPU,
// left zero here so callers can detect "unset"), queue_capacity unbounded
// (zero means unbounded), drain_timeout 30s, default_workflow_timeout none,
// state_bootstrap the fixed boilerplate, max_emission_depth 5.
func Default() Config {
	return Config{
		MaxConcurrency:         0,
		QueueCapacity:          0,
		DrainTimeout:           30 * time.Second,
		DefaultWorkflowTimeout: 0,
		StateBootstrap:         DefaultStateBootstrap,
		MaxEmissionDepth:       5,
		Logging: Logging{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

// Load builds a Config by layering Default(), an optional YAML file at
// yamlPath (if non-empty and present), an optional .env file, and finally
// environment variables (highest precedence, via envdecode) — the same
// precedence order as the teacher's config loader.
func Load(yamlPath string) (Config, error) {
	cfg := Default()

	_ = godotenv.Load() // optional; missing .env is not an error

	if yamlPath != "" {
		data, err := os.ReadFile(yamlPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("read config %s: %w", yamlPath, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", yamlPath, err)
		}
	}

	if err := envdecode.Decode(&cfg); err != nil && err != envdecode.ErrNoTargetFieldsAreSet {
		return cfg, fmt.Errorf("decode env config: %w", err)
	}

	if cfg.StateBootstrap == "" {
		cfg.StateBootstrap = DefaultStateBootstrap
	}
	if cfg.MaxEmissionDepth <= 0 {
		cfg.MaxEmissionDepth = 5
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = 30 * time.Second
	}

	return cfg, nil
}
