package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/francktshibala/bookbridge-sync/readaloud"
	"github.com/francktshibala/bookbridge-sync/readaloud/align"
)

var (
	alignTimestamps string

	alignCmd = &cobra.Command{
		Use:   "align FILE",
		Short: "Align recognizer timestamps onto the original text",
		Long: paragraph(fmt.Sprintf(
			"\nMatch %s from a speech-recognition pass onto the words of the original text, keeping the recognizer's timing and attaching confidences.",
			keyword("word timestamps"),
		)),
		Example: paragraph("bbsync align chapter1.txt --timestamps recognized.json"),
		Args:    cobra.ExactArgs(1),
		RunE:    runAlign,
	}
)

func init() {
	alignCmd.Flags().StringVarP(&alignTimestamps, "timestamps", "t", "", "ground-truth timestamp JSON file (required)")
	_ = alignCmd.MarkFlagRequired("timestamps")
}

func runAlign(cmd *cobra.Command, args []string) error {
	text, err := readTextArg(args[0])
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(alignTimestamps)
	if err != nil {
		return fmt.Errorf("unable to open timestamps: %w", err)
	}
	var groundTruth []readaloud.WordTimestamp
	if err := json.Unmarshal(raw, &groundTruth); err != nil {
		return fmt.Errorf("unable to parse timestamps: %w", err)
	}

	corrected := align.Match(groundTruth, text)
	return writeJSON(cmd.OutOrStdout(), corrected)
}
