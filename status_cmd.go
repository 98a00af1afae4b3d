package main

import (
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"

	"github.com/francktshibala/bookbridge-sync/readaloud"
	"github.com/francktshibala/bookbridge-sync/readaloud/audio"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show effective configuration, audio cache and calibration state",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

// audioCacheDir returns the disk location for cached chunk audio.
func audioCacheDir() (string, error) {
	scope := gap.NewScope(gap.User, "bookbridge-sync")
	dir, err := scope.CacheDir()
	if err != nil {
		return "", fmt.Errorf("unable to resolve cache dir: %w", err)
	}
	return filepath.Join(dir, "audio"), nil
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := loadEngineConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "%s\n", keyword("engine"))
	fmt.Fprintf(out, "  provider:  %s\n", cfg.Provider)
	fmt.Fprintf(out, "  speed:     %.2fx\n", cfg.Speed)
	fmt.Fprintf(out, "  pool size: %d (preload %d ahead)\n", cfg.PoolSize, cfg.PreloadAhead)
	fmt.Fprintf(out, "  crossfade: %s (%s)\n", cfg.Crossfade, cfg.CrossfadeCurve)

	fmt.Fprintf(out, "%s\n", keyword("audio cache"))
	if !cfg.CacheEnabled {
		fmt.Fprintln(out, "  disabled")
	} else {
		dir, err := audioCacheDir()
		if err != nil {
			return err
		}
		cache, err := audio.NewCache(dir, cfg.CacheLimit, 0)
		if err != nil {
			return fmt.Errorf("unable to open audio cache: %w", err)
		}
		defer cache.Close() //nolint:errcheck
		fmt.Fprintf(out, "  location: %s\n", dir)
		fmt.Fprintf(out, "  entries:  %d\n", cache.Len())
		fmt.Fprintf(out, "  size:     %s of %s\n",
			humanize.IBytes(uint64(cache.Size())),
			humanize.IBytes(uint64(cfg.CacheLimit)))
	}

	fmt.Fprintf(out, "%s\n", keyword("calibration"))
	cal, err := openCalibrator(cfg)
	if err != nil {
		return err
	}
	for _, kind := range []readaloud.Kind{readaloud.KindWord, readaloud.KindSentence} {
		fmt.Fprintf(out, "  %-8s %.0fms (confidence %.2f, %d samples)\n",
			string(kind)+":", cal.Offset(kind, "")*1000, cal.Confidence(kind), cal.SampleCount(kind))
	}
	if ids := cal.ContentIDs(); len(ids) > 0 {
		fmt.Fprintf(out, "  overrides: %d content ids\n", len(ids))
	}
	return nil
}
