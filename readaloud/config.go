package readaloud

import (
	"fmt"
	"time"
)

// Config contains all synchronization engine configuration options.
type Config struct {
	// Estimator settings
	Provider        string  `yaml:"provider" env:"BBSYNC_PROVIDER"`
	Speed           float64 `yaml:"speed" env:"BBSYNC_SPEED"`
	WordsPerMinute  int     `yaml:"words_per_minute" env:"BBSYNC_WORDS_PER_MINUTE"`

	// Calibration settings
	BaseOffset         float64 `yaml:"base_offset" env:"BBSYNC_BASE_OFFSET"`
	SentenceBaseOffset float64 `yaml:"sentence_base_offset" env:"BBSYNC_SENTENCE_BASE_OFFSET"`

	// Playback settings
	PoolSize      int           `yaml:"pool_size" env:"BBSYNC_POOL_SIZE"`
	PreloadAhead  int           `yaml:"preload_ahead" env:"BBSYNC_PRELOAD_AHEAD"`
	Crossfade     time.Duration `yaml:"crossfade" env:"BBSYNC_CROSSFADE"`
	CrossfadeCurve string       `yaml:"crossfade_curve" env:"BBSYNC_CROSSFADE_CURVE"`

	// Audio cache settings
	CacheEnabled bool  `yaml:"cache_enabled" env:"BBSYNC_CACHE_ENABLED"`
	CacheLimit   int64 `yaml:"cache_limit" env:"BBSYNC_CACHE_LIMIT"`

	// Logging
	Debug bool `yaml:"debug" env:"BBSYNC_DEBUG"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider:       string(ProviderCloudTTS),
		Speed:          1.0,
		WordsPerMinute: 0, // 0 means: use the provider default

		BaseOffset:         0.30,
		SentenceBaseOffset: 0.30,

		PoolSize:       3,
		PreloadAhead:   2,
		Crossfade:      300 * time.Millisecond,
		CrossfadeCurve: "exponential",

		CacheEnabled: true,
		CacheLimit:   1 << 30,
	}
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	if c.Speed < 0.5 || c.Speed > 2.0 {
		return fmt.Errorf("speed must be between 0.5 and 2.0, got %.2f", c.Speed)
	}
	if c.PoolSize < 1 {
		return fmt.Errorf("pool_size must be at least 1, got %d", c.PoolSize)
	}
	if c.PreloadAhead < 0 {
		return fmt.Errorf("preload_ahead must not be negative, got %d", c.PreloadAhead)
	}
	if c.Crossfade < 0 {
		return fmt.Errorf("crossfade must not be negative, got %s", c.Crossfade)
	}
	switch c.CrossfadeCurve {
	case "exponential", "linear":
	default:
		return fmt.Errorf("crossfade_curve must be exponential or linear, got %q", c.CrossfadeCurve)
	}
	return nil
}
