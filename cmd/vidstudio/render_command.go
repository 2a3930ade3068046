package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"vidstudio/internal/render"
	"vidstudio/internal/session"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var export bool
	var vertical bool

	cmd := &cobra.Command{
		Use:   "render <session-id>",
		Short: "Render a session's timeline to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, journal, err := ctx.openRegistry(true)
			if err != nil {
				return err
			}
			defer closeJournal(journal)

			mode := render.ModePreview
			if export {
				mode = render.ModeExport
			}
			result, err := registry.Render(cmd.Context(), args[0], session.RenderOptions{
				Mode:     mode,
				Vertical: vertical,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rendered %s (%s, %.1fs)\n",
				result.Path, humanize.Bytes(uint64(result.SizeBytes)), result.Duration)
			return nil
		},
	}
	cmd.Flags().BoolVar(&export, "export", false, "Use export-grade encoder settings and keep the output")
	cmd.Flags().BoolVar(&vertical, "vertical", false, "Produce a 9:16 vertical output")
	return cmd
}
