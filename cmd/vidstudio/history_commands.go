package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"vidstudio/internal/history"
)

func closeJournal(journal *history.Store) {
	if journal != nil {
		_ = journal.Close()
	}
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect the operations journal",
	}
	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryStatsCommand(ctx))
	return historyCmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var sessionID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded operations, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			journal, err := history.Open(cfg)
			if err != nil {
				return err
			}
			defer closeJournal(journal)

			var ops []history.Operation
			if sessionID != "" {
				ops, err = journal.ListSession(cmd.Context(), sessionID)
			} else {
				ops, err = journal.List(cmd.Context(), limit)
			}
			if err != nil {
				return err
			}
			if len(ops) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No operations recorded.")
				return nil
			}

			rows := make([][]string, 0, len(ops))
			for _, op := range ops {
				detail := op.Detail
				if op.Status == history.StatusFailed && op.ErrorMessage != "" {
					detail = op.ErrorMessage
				}
				rows = append(rows, []string{
					fmt.Sprintf("%d", op.ID),
					op.SessionID,
					string(op.Kind),
					string(op.Status),
					detail,
					humanize.Time(op.UpdatedAt),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]column{
				{name: "ID", right: true},
				{name: "SESSION"},
				{name: "KIND"},
				{name: "STATUS"},
				{name: "DETAIL"},
				{name: "UPDATED"},
			}, rows))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum number of operations to show")
	cmd.Flags().StringVar(&sessionID, "session", "", "Show all operations for one session")
	return cmd
}

func newHistoryStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the operations journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			journal, err := history.Open(cfg)
			if err != nil {
				return err
			}
			defer closeJournal(journal)

			stats, err := journal.Stats(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Total:     %d\n", stats.Total())
			fmt.Fprintf(out, "Running:   %d\n", stats.Running)
			fmt.Fprintf(out, "Completed: %d\n", stats.Completed)
			fmt.Fprintf(out, "Failed:    %d\n", stats.Failed)
			return nil
		},
	}
}
