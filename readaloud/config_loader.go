package readaloud

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// LoadConfigFromViper loads engine configuration from Viper, falling back
// to defaults for anything the config file does not set, then applies
// environment variable overrides.
func LoadConfigFromViper() (Config, error) {
	cfg := DefaultConfig()

	if viper.IsSet("provider") {
		cfg.Provider = viper.GetString("provider")
	}
	if viper.IsSet("speed") {
		cfg.Speed = viper.GetFloat64("speed")
	}
	if viper.IsSet("words_per_minute") {
		cfg.WordsPerMinute = viper.GetInt("words_per_minute")
	}

	if viper.IsSet("base_offset") {
		cfg.BaseOffset = viper.GetFloat64("base_offset")
	}
	if viper.IsSet("sentence_base_offset") {
		cfg.SentenceBaseOffset = viper.GetFloat64("sentence_base_offset")
	}

	if viper.IsSet("pool_size") {
		cfg.PoolSize = viper.GetInt("pool_size")
	}
	if viper.IsSet("preload_ahead") {
		cfg.PreloadAhead = viper.GetInt("preload_ahead")
	}
	if viper.IsSet("crossfade") {
		cfg.Crossfade = viper.GetDuration("crossfade")
	}
	if viper.IsSet("crossfade_curve") {
		cfg.CrossfadeCurve = viper.GetString("crossfade_curve")
	}

	if viper.IsSet("cache_enabled") {
		cfg.CacheEnabled = viper.GetBool("cache_enabled")
	}
	if viper.IsSet("cache_limit") {
		cfg.CacheLimit = viper.GetInt64("cache_limit")
	}

	if viper.IsSet("debug") {
		cfg.Debug = viper.GetBool("debug")
	}

	// Environment variables override the config file.
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse environment config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// WatchConfig watches the config file for writes and invokes onChange with
// the freshly loaded configuration. Invalid edits are logged and skipped;
// the previously loaded config stays active. The returned stop function
// unwatches the file.
func WatchConfig(path string, onChange func(Config)) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create config watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}
	log.Debug("watching config file", "path", path)

	done := make(chan struct{})
	go func() {
		// Editors often emit several events per save; debounce them.
		var last time.Time
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if time.Since(last) < 100*time.Millisecond {
					continue
				}
				last = time.Now()

				cfg, err := LoadConfigFromViper()
				if err != nil {
					log.Warn("ignoring config change", "path", path, "error", err)
					continue
				}
				log.Info("config reloaded", "path", path)
				onChange(cfg)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Debug("config watcher error", "error", err)
			case <-done:
				return
			}
		}
	}()

	return func() {
		close(done)
		_ = watcher.Close()
	}, nil
}
