package main

import (
	"fmt"

	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"

	"github.com/francktshibala/bookbridge-sync/readaloud"
	"github.com/francktshibala/bookbridge-sync/readaloud/calibrate"
)

var (
	calibrateKind    string
	calibrateDelta   float64
	calibrateContent string
	calibrateOffset  float64

	calibrateCmd = &cobra.Command{
		Use:   "calibrate",
		Short: "Inspect and adjust playback latency calibration",
	}

	calibrateShowCmd = &cobra.Command{
		Use:   "show [CONTENT]",
		Short: "Show calibration state",
		Long: paragraph(fmt.Sprintf(
			"\nShow the learned %s per calibration kind, plus any per-content overrides. An optional CONTENT argument fuzzy-matches known content ids.",
			keyword("latency offsets"),
		)),
		Args: cobra.MaximumNArgs(1),
		RunE: runCalibrateShow,
	}

	calibrateAdjustCmd = &cobra.Command{
		Use:   "adjust",
		Short: "Manually adjust a calibration offset",
		Example: paragraph(
			"bbsync calibrate adjust --kind word --delta 0.05\nbbsync calibrate adjust --kind sentence --content book-42 --offset 0.35",
		),
		RunE: runCalibrateAdjust,
	}

	calibrateResetCmd = &cobra.Command{
		Use:   "reset",
		Short: "Discard all learned calibration state",
		Args:  cobra.NoArgs,
		RunE:  runCalibrateReset,
	}
)

func init() {
	calibrateAdjustCmd.Flags().StringVar(&calibrateKind, "kind", string(readaloud.KindWord), "calibration kind (word or sentence)")
	calibrateAdjustCmd.Flags().Float64Var(&calibrateDelta, "delta", 0, "shift the base offset by this many seconds")
	calibrateAdjustCmd.Flags().StringVar(&calibrateContent, "content", "", "set a per-content override instead of the base offset")
	calibrateAdjustCmd.Flags().Float64Var(&calibrateOffset, "offset", 0, "override offset in seconds (with --content)")

	calibrateCmd.AddCommand(calibrateShowCmd, calibrateAdjustCmd, calibrateResetCmd)
}

func openCalibrator(cfg readaloud.Config) (*calibrate.Calibrator, error) {
	store, err := calibrate.NewFileStore()
	if err != nil {
		return nil, fmt.Errorf("unable to open calibration store: %w", err)
	}
	return calibrate.New(store,
		calibrate.WithBaseOffsets(cfg.BaseOffset, cfg.SentenceBaseOffset)), nil
}

func parseKind(s string) (readaloud.Kind, error) {
	switch readaloud.Kind(s) {
	case readaloud.KindWord:
		return readaloud.KindWord, nil
	case readaloud.KindSentence:
		return readaloud.KindSentence, nil
	default:
		return "", fmt.Errorf("%w: %q (use word or sentence)", readaloud.ErrUnknownKind, s)
	}
}

func runCalibrateShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadEngineConfig()
	if err != nil {
		return err
	}
	cal, err := openCalibrator(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, kind := range []readaloud.Kind{readaloud.KindWord, readaloud.KindSentence} {
		fmt.Fprintf(out, "%s\n", keyword(string(kind)))
		fmt.Fprintf(out, "  offset:     %5.0fms\n", cal.Offset(kind, "")*1000)
		fmt.Fprintf(out, "  confidence: %.2f\n", cal.Confidence(kind))
		fmt.Fprintf(out, "  samples:    %d\n", cal.SampleCount(kind))
	}

	ids := cal.ContentIDs()
	if len(args) == 1 {
		matches := fuzzy.Find(args[0], ids)
		if len(matches) == 0 {
			return fmt.Errorf("no content id matching %q (known: %d)", args[0], len(ids))
		}
		ids = ids[:0]
		for _, m := range matches {
			ids = append(ids, m.Str)
		}
	}
	if len(ids) > 0 {
		fmt.Fprintf(out, "%s\n", keyword("content overrides"))
		for _, id := range ids {
			fmt.Fprintf(out, "  %s: word %.0fms, sentence %.0fms\n", id,
				cal.Offset(readaloud.KindWord, id)*1000,
				cal.Offset(readaloud.KindSentence, id)*1000)
		}
	}
	return nil
}

func runCalibrateAdjust(cmd *cobra.Command, _ []string) error {
	cfg, err := loadEngineConfig()
	if err != nil {
		return err
	}
	cal, err := openCalibrator(cfg)
	if err != nil {
		return err
	}
	kind, err := parseKind(calibrateKind)
	if err != nil {
		return err
	}

	if calibrateContent != "" {
		if !cmd.Flags().Changed("offset") {
			return fmt.Errorf("--content requires --offset")
		}
		cal.SetContentOffset(kind, calibrateContent, calibrateOffset)
		cal.Flush()
		fmt.Fprintf(cmd.OutOrStdout(), "set %s offset for %s to %.0fms\n", kind, calibrateContent, calibrateOffset*1000)
		return nil
	}

	if calibrateDelta == 0 {
		return fmt.Errorf("nothing to adjust: pass --delta or --content with --offset")
	}
	cal.AdjustOffset(kind, calibrateDelta)
	fmt.Fprintf(cmd.OutOrStdout(), "%s offset is now %.0fms\n", kind, cal.Offset(kind, "")*1000)
	return nil
}

func runCalibrateReset(cmd *cobra.Command, _ []string) error {
	cfg, err := loadEngineConfig()
	if err != nil {
		return err
	}
	cal, err := openCalibrator(cfg)
	if err != nil {
		return err
	}
	cal.Reset()
	fmt.Fprintln(cmd.OutOrStdout(), "calibration state cleared")
	return nil
}
