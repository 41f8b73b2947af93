// Package flowconfig loads the flow coordinator's runtime configuration:
// YAML on disk, go-playground/validator struct-tag validation, and a
// best-effort .env load via joho/godotenv before environment overrides
// are applied.
package flowconfig

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// RateLimitConfig bounds how fast a client may push input batches into a
// flow's head phase; wired into a rate.Limiter by the flow package.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" validate:"required,gt=0"`
	Burst             int     `yaml:"burst" validate:"required,min=1"`
}

// Config is the flow coordinator's runtime configuration.
type Config struct {
	FlowTimeout     time.Duration   `yaml:"flow_timeout" validate:"required,min=1ms"`
	CollectTimeout  time.Duration   `yaml:"collect_timeout" validate:"required,min=1ms"`
	CacheDefaultTTL time.Duration   `yaml:"cache_default_ttl"`
	CacheMaxEntries int             `yaml:"cache_max_entries" validate:"min=0"`
	BufferSize      int             `yaml:"buffer_size" validate:"required,min=1"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" validate:"required"`
	// InputTimeout bounds how long a PhaseWorker waits for one
	// HandleInput/HandleSyncInputs call before abandoning it and
	// invoking the module's HandleTimeout instead. Zero disables the
	// per-input timeout entirely (the worker waits as long as the
	// callback takes).
	InputTimeout time.Duration `yaml:"input_timeout" validate:"min=0"`
}

// Default returns sane defaults.
func Default() Config {
	return Config{
		FlowTimeout:     30 * time.Second,
		CollectTimeout:  30 * time.Second,
		CacheDefaultTTL: 5 * time.Minute,
		CacheMaxEntries: 1000,
		BufferSize:      64,
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             50,
		},
		InputTimeout: 0,
	}
}

// Load reads a YAML config file at path, applies FLOWCOORD_* environment
// overrides (after a best-effort .env load), and validates the result. A
// missing file is not an error: Load falls back to Default().
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// fall through with defaults
		case err != nil:
			return Config{}, fmt.Errorf("reading config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}

	applyEnvOverrides(&cfg)

	if err := validateConfig(cfg); err != nil {
		return Config{}, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FLOWCOORD_FLOW_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.FlowTimeout = d
		}
	}
	if v := os.Getenv("FLOWCOORD_COLLECT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.CollectTimeout = d
		}
	}
	if v := os.Getenv("FLOWCOORD_INPUT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.InputTimeout = d
		}
	}
	if v := os.Getenv("FLOWCOORD_RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimit.RequestsPerSecond = f
		}
	}
	if v := os.Getenv("FLOWCOORD_RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimit.Burst = n
		}
	}
}

func validateConfig(cfg Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return err
	}
	return nil
}
