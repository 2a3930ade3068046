package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"vidstudio/internal/daemon"
	"vidstudio/internal/history"
	"vidstudio/internal/logging"
	"vidstudio/internal/session"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	daemonCmd := &cobra.Command{
		Use:   "daemon",
		Short: "Daemon management",
	}
	daemonCmd.AddCommand(newDaemonRunCommand(ctx))
	return daemonCmd
}

func newDaemonRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the vidstudio daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			journal, err := history.Open(cfg)
			if err != nil {
				return err
			}
			// Start performs the restoration pass itself.
			registry := session.NewRegistry(cfg, journal, logger)

			d, err := daemon.New(cfg, registry, journal, logger)
			if err != nil {
				return err
			}
			defer d.Close()

			signalCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := d.Start(signalCtx); err != nil {
				return err
			}
			logger.Info("daemon ready",
				logging.String("sessions_dir", cfg.Paths.SessionsDir),
				logging.Int("sessions", d.Status().Sessions),
			)

			<-signalCtx.Done()
			d.Stop()
			return nil
		},
	}
}
