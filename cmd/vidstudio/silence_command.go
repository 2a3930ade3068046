package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vidstudio/internal/logging"
	"vidstudio/internal/media/ffmpeg"
	"vidstudio/internal/silence"
)

func newSilenceCommand(ctx *commandContext) *cobra.Command {
	// The one-shot command keeps the historical aggressive defaults; the
	// session-scoped operation uses the gentler configured ones.
	var thresholdDB float64
	var minSilence float64
	var minSegment float64
	var detectOnly bool

	cmd := &cobra.Command{
		Use:   "silence <file>",
		Short: "Detect and remove silence from a media file in place",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			runner := ffmpeg.NewRunner(cfg.FFmpegBinary(), logger)
			engine := silence.NewEngine(runner, cfg.FFprobeBinary(), logging.NewComponentLogger(logger, "silence"))

			opts := silence.Options{
				ThresholdDB: thresholdDB,
				MinSilence:  minSilence,
				MinSegment:  minSegment,
			}
			out := cmd.OutOrStdout()

			if detectOnly {
				periods, total, err := engine.Detect(cmd.Context(), args[0], opts)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s: %.1fs total, %d silence period(s)\n", args[0], total, len(periods))
				for _, p := range periods {
					fmt.Fprintf(out, "  %.2f - %.2f (%.2fs)\n", p.Start, p.End, p.Duration())
				}
				return nil
			}

			result, err := engine.Remove(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			if !result.Changed {
				fmt.Fprintf(out, "No silence detected in %s\n", args[0])
				return nil
			}
			fmt.Fprintf(out, "Removed %.1fs of silence (%d period(s)): %.1fs -> %.1fs\n",
				result.RemovedDuration, result.Periods, result.OriginalDuration, result.NewDuration)
			return nil
		},
	}
	cmd.Flags().Float64Var(&thresholdDB, "threshold-db", -40, "Silence noise floor in dB")
	cmd.Flags().Float64Var(&minSilence, "min-silence", 0.5, "Shortest stretch counted as silence, in seconds")
	cmd.Flags().Float64Var(&minSegment, "min-segment", 0.1, "Shortest keep segment carried into the cut, in seconds")
	cmd.Flags().BoolVar(&detectOnly, "detect-only", false, "Report silence periods without rewriting the file")
	return cmd
}
