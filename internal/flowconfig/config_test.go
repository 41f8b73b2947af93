package flowconfig

import (
	"strings"
	"testing"
	"time"
)

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
		errMsg  string
	}{
		{
			name:   "default config is valid",
			config: Default(),
		},
		{
			name: "zero flow timeout",
			config: Config{
				FlowTimeout:    0,
				CollectTimeout: time.Second,
				BufferSize:     1,
				RateLimit:      RateLimitConfig{RequestsPerSecond: 1, Burst: 1},
			},
			wantErr: true,
			errMsg:  "FlowTimeout",
		},
		{
			name: "zero buffer size",
			config: Config{
				FlowTimeout:    time.Second,
				CollectTimeout: time.Second,
				BufferSize:     0,
				RateLimit:      RateLimitConfig{RequestsPerSecond: 1, Burst: 1},
			},
			wantErr: true,
			errMsg:  "BufferSize",
		},
		{
			name: "non-positive rate",
			config: Config{
				FlowTimeout:    time.Second,
				CollectTimeout: time.Second,
				BufferSize:     1,
				RateLimit:      RateLimitConfig{RequestsPerSecond: 0, Burst: 1},
			},
			wantErr: true,
			errMsg:  "RequestsPerSecond",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateConfig(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("validateConfig() error = %v, want error containing %q", err, tt.errMsg)
			}
		})
	}
}

func TestLoadMissingFileFallsBackToDefault(t *testing.T) {
	cfg, err := Load("/nonexistent/path/flowcoord.yaml")
	if err != nil {
		t.Fatalf("Load() with missing file should fall back to defaults, got error: %v", err)
	}
	if cfg.FlowTimeout != Default().FlowTimeout {
		t.Errorf("Load() fallback FlowTimeout = %v, want %v", cfg.FlowTimeout, Default().FlowTimeout)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("FLOWCOORD_FLOW_TIMEOUT", "5s")
	t.Setenv("FLOWCOORD_RATE_LIMIT_BURST", "7")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.FlowTimeout != 5*time.Second {
		t.Errorf("FlowTimeout = %v, want 5s", cfg.FlowTimeout)
	}
	if cfg.RateLimit.Burst != 7 {
		t.Errorf("RateLimit.Burst = %d, want 7", cfg.RateLimit.Burst)
	}
}
