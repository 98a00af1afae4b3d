package readaloud

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"speed too low", func(c *Config) { c.Speed = 0.4 }, "speed"},
		{"speed too high", func(c *Config) { c.Speed = 2.5 }, "speed"},
		{"zero pool", func(c *Config) { c.PoolSize = 0 }, "pool_size"},
		{"negative preload", func(c *Config) { c.PreloadAhead = -1 }, "preload_ahead"},
		{"negative crossfade", func(c *Config) { c.Crossfade = -time.Second }, "crossfade"},
		{"bad curve", func(c *Config) { c.CrossfadeCurve = "cubic" }, "crossfade_curve"},
		{"speed at lower bound", func(c *Config) { c.Speed = 0.5 }, ""},
		{"speed at upper bound", func(c *Config) { c.Speed = 2.0 }, ""},
		{"linear curve", func(c *Config) { c.CrossfadeCurve = "linear" }, ""},
		{"zero crossfade", func(c *Config) { c.Crossfade = 0 }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error mentioning %q", err, tt.wantErr)
			}
		})
	}
}

func TestReadinessString(t *testing.T) {
	tests := []struct {
		r    Readiness
		want string
	}{
		{NotRequested, "not-requested"},
		{Buffering, "buffering"},
		{ReadyToPlayThrough, "ready"},
		{Readiness(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.r.String(); got != tt.want {
			t.Errorf("Readiness(%d).String() = %q, want %q", tt.r, got, tt.want)
		}
	}
}

func TestWordTokenDuration(t *testing.T) {
	tok := WordToken{Start: 1.2, End: 1.7}
	if got := tok.Duration(); got < 0.499 || got > 0.501 {
		t.Errorf("Duration() = %v, want 0.5", got)
	}
}
