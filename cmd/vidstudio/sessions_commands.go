package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"vidstudio/internal/session"
	"vidstudio/internal/silence"
)

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect and manage editing sessions",
	}
	sessionsCmd.AddCommand(newSessionsListCommand(ctx))
	sessionsCmd.AddCommand(newSessionsNewCommand(ctx))
	sessionsCmd.AddCommand(newSessionsAddCommand(ctx))
	sessionsCmd.AddCommand(newSessionsGCCommand(ctx))
	sessionsCmd.AddCommand(newSessionsDestroyCommand(ctx))
	sessionsCmd.AddCommand(newSessionsSilenceCommand(ctx))
	return sessionsCmd
}

func newSessionsSilenceCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "silence <session-id> <asset-id>",
		Short: "Remove silence from a session asset using the configured defaults",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			registry, journal, err := ctx.openRegistry(true)
			if err != nil {
				return err
			}
			defer closeJournal(journal)

			result, err := registry.RemoveSilence(cmd.Context(), args[0], args[1], silence.Options{
				ThresholdDB: cfg.Silence.ThresholdDB,
				MinSilence:  cfg.Silence.MinSilenceSec,
				MinSegment:  cfg.Silence.MinSegmentSec,
			})
			if err != nil {
				return err
			}
			if !result.Changed {
				fmt.Fprintln(cmd.OutOrStdout(), "No silence detected.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %.1fs of silence: %.1fs -> %.1fs\n",
				result.RemovedDuration, result.OriginalDuration, result.NewDuration)
			return nil
		},
	}
}

func newSessionsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List sessions restored from the sessions root",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, journal, err := ctx.openRegistry(false)
			if err != nil {
				return err
			}
			defer closeJournal(journal)

			sessions := registry.List()
			if len(sessions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No sessions found.")
				return nil
			}

			rows := make([][]string, 0, len(sessions))
			for _, sess := range sessions {
				var size int64
				for _, a := range sess.Assets().List() {
					size += a.SizeBytes
				}
				rows = append(rows, []string{
					sess.ID,
					string(sess.State()),
					fmt.Sprintf("%d", sess.Assets().Len()),
					fmt.Sprintf("%d", len(sess.Project().Clips)),
					humanize.Bytes(uint64(size)),
					humanize.Time(sess.CreatedAt),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]column{
				{name: "SESSION"},
				{name: "STATE"},
				{name: "ASSETS", right: true},
				{name: "CLIPS", right: true},
				{name: "SIZE", right: true},
				{name: "CREATED"},
			}, rows))
			return nil
		},
	}
}

func newSessionsNewCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "Create an empty session",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, journal, err := ctx.openRegistry(false)
			if err != nil {
				return err
			}
			defer closeJournal(journal)

			sess, err := registry.Create()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), sess.ID)
			return nil
		},
	}
}

func newSessionsAddCommand(ctx *commandContext) *cobra.Command {
	var aiGenerated bool
	var keyword string

	cmd := &cobra.Command{
		Use:   "add <session-id> <file>",
		Short: "Ingest a media file into a session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, journal, err := ctx.openRegistry(true)
			if err != nil {
				return err
			}
			defer closeJournal(journal)

			a, err := registry.Ingest(cmd.Context(), args[0], args[1], session.IngestOptions{
				AIGenerated:   aiGenerated,
				SourceKeyword: keyword,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s, %s, %.1fs)\n",
				a.FileName, a.Type, humanize.Bytes(uint64(a.SizeBytes)), a.Duration)
			return nil
		},
	}
	cmd.Flags().BoolVar(&aiGenerated, "ai-generated", false, "Mark the asset as AI-generated")
	cmd.Flags().StringVar(&keyword, "keyword", "", "Source keyword to record in provenance")
	return cmd
}

func newSessionsGCCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "gc",
		Short: "Reap sessions older than the staleness window",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, journal, err := ctx.openRegistry(false)
			if err != nil {
				return err
			}
			defer closeJournal(journal)

			reaped := registry.Sweep(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "Reaped %d session(s)\n", reaped)
			return nil
		},
	}
}

func newSessionsDestroyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "destroy <session-id>",
		Short: "Delete a session and its directory tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, journal, err := ctx.openRegistry(false)
			if err != nil {
				return err
			}
			defer closeJournal(journal)

			if err := registry.Destroy(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Destroyed %s\n", args[0])
			return nil
		},
	}
}
