package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/francktshibala/bookbridge-sync/readaloud"
	"github.com/francktshibala/bookbridge-sync/readaloud/audio"
	"github.com/francktshibala/bookbridge-sync/readaloud/calibrate"
	"github.com/francktshibala/bookbridge-sync/readaloud/estimate"
	"github.com/francktshibala/bookbridge-sync/readaloud/player"
)

var (
	playDuration float64
	playAudio    string
	playSpeed    float64

	playCmd = &cobra.Command{
		Use:   "play FILE",
		Short: "Run a read-along demo with live word highlighting",
		Long: paragraph(fmt.Sprintf(
			"\nEstimate word timing for the text and follow it in the terminal, highlighting the %s. With --audio, raw PCM audio (22050 Hz mono s16le) plays through the speakers in sync.",
			keyword("currently spoken word"),
		)),
		Example: paragraph("bbsync play chapter1.md --duration 42.5\nbbsync play chapter1.md --audio chapter1.pcm"),
		Args:    cobra.ExactArgs(1),
		RunE:    runPlay,
	}
)

func init() {
	playCmd.Flags().Float64VarP(&playDuration, "duration", "d", 0, "audio duration in seconds (required without --audio)")
	playCmd.Flags().StringVar(&playAudio, "audio", "", "raw PCM audio file to play")
	playCmd.Flags().Float64Var(&playSpeed, "speed", 0, "playback speed multiplier")
}

// nullOutput satisfies the driver's output port when no audio is playing.
type nullOutput struct{}

func (nullOutput) SetPlaybackRate(float64) {}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, err := loadEngineConfig()
	if err != nil {
		return err
	}
	speed := cfg.Speed
	if playSpeed > 0 {
		speed = playSpeed
	}

	text, err := readTextArg(args[0])
	if err != nil {
		return err
	}

	store, err := calibrate.NewFileStore()
	if err != nil {
		return fmt.Errorf("unable to open calibration store: %w", err)
	}
	calibrator := calibrate.New(store,
		calibrate.WithBaseOffsets(cfg.BaseOffset, cfg.SentenceBaseOffset))
	defer calibrator.Flush()

	if playAudio == "" {
		if playDuration <= 0 {
			return fmt.Errorf("either --audio or a positive --duration is required")
		}
		tokens := estimateTable(cfg, text, playDuration, speed)
		driver := player.NewDriver(calibrator, nullOutput{})
		driver.SetTable(args[0], 0, tokens)
		return followTable(cmd, driver, playDuration, speed)
	}

	return playWithAudio(cmd, cfg, calibrator, args[0], text, speed)
}

func estimateTable(cfg readaloud.Config, text string, duration, speed float64) []readaloud.WordToken {
	settings := estimate.SettingsFor(readaloud.Provider(cfg.Provider), speed)
	if cfg.WordsPerMinute > 0 {
		settings.BaseWordsPerMinute = float64(cfg.WordsPerMinute) * speed
	}
	return estimate.Estimate(text, duration, settings)
}

func playWithAudio(cmd *cobra.Command, cfg readaloud.Config, calibrator *calibrate.Calibrator, name, text string, speed float64) error {
	out, err := audio.NewOtoContext()
	if err != nil {
		return fmt.Errorf("unable to open audio output: %w", err)
	}

	var cache *audio.Cache
	if cfg.CacheEnabled {
		dir, err := audioCacheDir()
		if err != nil {
			return err
		}
		if cache, err = audio.NewCache(dir, cfg.CacheLimit, 0); err != nil {
			return fmt.Errorf("unable to open audio cache: %w", err)
		}
		defer cache.Close() //nolint:errcheck
	}

	pool := audio.NewBufferPool(out, fileFetcher, audio.NewTickerScheduler(), audio.PoolConfig{
		MaxSize:      cfg.PoolSize,
		Crossfade:    cfg.Crossfade,
		Curve:        audio.ParseCurve(cfg.CrossfadeCurve),
		TickInterval: 16 * time.Millisecond,
	}, cache)
	defer pool.Destroy() //nolint:errcheck

	id, err := pool.Preload(cmd.Context(), "", playAudio)
	if err != nil {
		return fmt.Errorf("unable to buffer audio: %w", err)
	}

	done := make(chan struct{})
	pool.OnEnded(func(string) { close(done) })

	if err := pool.PlayWithTransition(cmd.Context(), id, "", 0); err != nil {
		return err
	}
	pool.SetPlaybackRate(speed)

	// Speed edits to the config file take effect mid-playback.
	if path := viper.ConfigFileUsed(); path != "" {
		stopWatch, err := readaloud.WatchConfig(path, func(next readaloud.Config) {
			pool.SetPlaybackRate(next.Speed)
		})
		if err != nil {
			log.Debug("config watch unavailable", "error", err)
		} else {
			defer stopWatch()
		}
	}

	duration := playDuration
	if duration <= 0 {
		// Derive the chunk duration from the decoded audio.
		duration = float64(len(pcmProbe(playAudio))) / float64(out.SampleRate()*out.ChannelCount()*2)
	}
	tokens := estimateTable(cfg, text, duration, speed)
	driver := player.NewDriver(calibrator, pool)
	driver.SetTable(name, 0, tokens)

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		case <-cmd.Context().Done():
			pool.Stop()
			return cmd.Context().Err()
		case <-ticker.C:
			renderPosition(cmd, driver, pool.Position().Seconds(), duration)
		}
	}
}

// followTable steps a virtual playhead through the timing table without
// audio output.
func followTable(cmd *cobra.Command, driver *player.Driver, duration, speed float64) error {
	start := time.Now()
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-cmd.Context().Done():
			return cmd.Context().Err()
		case <-ticker.C:
			elapsed := time.Since(start).Seconds() * speed
			if elapsed >= duration {
				renderPosition(cmd, driver, duration, duration)
				fmt.Fprintln(cmd.OutOrStdout())
				return nil
			}
			renderPosition(cmd, driver, elapsed, duration)
		}
	}
}

// renderPosition redraws the single status line with the current word
// highlighted.
func renderPosition(cmd *cobra.Command, driver *player.Driver, elapsed, duration float64) {
	word := ""
	if tok, ok := driver.CurrentWord(elapsed); ok {
		word = tok.Text
	}

	clock := subtleStyle.Render(fmt.Sprintf("%6.2fs / %.2fs", elapsed, duration))
	line := fmt.Sprintf("\r%s  %s", clock, highlightStyle.Render(word))
	// Pad past the longest word so shorter words fully overwrite it.
	line = runewidth.FillRight(line, terminalWidth())
	fmt.Fprint(cmd.OutOrStdout(), line)
}

// pcmProbe reads the raw PCM file for duration accounting only.
func pcmProbe(path string) []byte {
	b, err := os.ReadFile(path)
	if err != nil {
		log.Debug("unable to probe audio file", "path", path, "error", err)
		return nil
	}
	return b
}

// fileFetcher resolves audio sources as local file paths.
func fileFetcher(_ context.Context, source string) (io.ReadCloser, error) {
	return os.Open(source)
}
