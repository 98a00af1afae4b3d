package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/viper"
)

// setupLog configures the global logger. With debug enabled, logs go to a
// file under the user cache dir so they never corrupt terminal output.
func setupLog() (func() error, error) {
	log.SetOutput(os.Stderr)
	log.SetLevel(log.WarnLevel)

	if !viper.GetBool("debug") && os.Getenv("BBSYNC_DEBUG") == "" {
		return func() error { return nil }, nil
	}

	scope := gap.NewScope(gap.User, "bookbridge-sync")
	cacheDir, err := scope.CacheDir()
	if err != nil {
		return nil, fmt.Errorf("unable to resolve cache dir: %w", err)
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("unable to create cache dir: %w", err)
	}

	path := filepath.Join(cacheDir, "bbsync.log")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("unable to open log file: %w", err)
	}

	log.SetOutput(f)
	log.SetLevel(log.DebugLevel)
	log.SetReportTimestamp(true)
	log.Debug("logging started", "file", path)
	return f.Close, nil
}
