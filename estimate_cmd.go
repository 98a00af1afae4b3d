package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/francktshibala/bookbridge-sync/readaloud"
	"github.com/francktshibala/bookbridge-sync/readaloud/estimate"
)

var (
	estimateDuration float64
	estimateProvider string
	estimateSpeed    float64

	estimateCmd = &cobra.Command{
		Use:   "estimate FILE",
		Short: "Estimate a word timing table for a text chunk",
		Long: paragraph(fmt.Sprintf(
			"\nProduce a %s for the given text, scaled to the chunk's audio duration. Use - to read from stdin.",
			keyword("word timing table"),
		)),
		Example: paragraph("bbsync estimate chapter1.md --duration 42.5\nbbsync estimate - --duration 12 < paragraph.txt"),
		Args:    cobra.ExactArgs(1),
		RunE:    runEstimate,
	}
)

func init() {
	estimateCmd.Flags().Float64VarP(&estimateDuration, "duration", "d", 0, "audio duration of the chunk in seconds (required)")
	estimateCmd.Flags().StringVar(&estimateProvider, "provider", "", "voice provider (web-speech, cloud-tts, premium-voice)")
	estimateCmd.Flags().Float64Var(&estimateSpeed, "speed", 0, "playback speed multiplier")
	_ = estimateCmd.MarkFlagRequired("duration")
}

func runEstimate(cmd *cobra.Command, args []string) error {
	cfg, err := loadEngineConfig()
	if err != nil {
		return err
	}

	text, err := readTextArg(args[0])
	if err != nil {
		return err
	}
	if estimateDuration <= 0 {
		return fmt.Errorf("duration must be positive, got %v", estimateDuration)
	}

	provider := readaloud.Provider(cfg.Provider)
	if estimateProvider != "" {
		provider = readaloud.Provider(estimateProvider)
	}
	speed := cfg.Speed
	if estimateSpeed > 0 {
		speed = estimateSpeed
	}

	settings := estimate.SettingsFor(provider, speed)
	if cfg.WordsPerMinute > 0 {
		settings.BaseWordsPerMinute = float64(cfg.WordsPerMinute) * speed
	}

	tokens := estimate.Estimate(text, estimateDuration, settings)
	return writeJSON(cmd.OutOrStdout(), tokens)
}

// readTextArg reads a file argument, with - meaning stdin.
func readTextArg(arg string) (string, error) {
	if arg == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("unable to read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(arg)
	if err != nil {
		return "", fmt.Errorf("unable to open file: %w", err)
	}
	return string(b), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("unable to encode output: %w", err)
	}
	return nil
}
