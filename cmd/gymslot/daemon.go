package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/harunnryd/gymslot/cmd/gymslot/runtime"

	"github.com/harunnryd/gymslot/internal/daemon"
	"github.com/harunnryd/gymslot/internal/daemon/components"

	"github.com/spf13/cobra"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run both daily triggers in the background",
	Long: `Starts gymslot as a long-running service. It fires the collection and
execution triggers on their schedules, listens for selections on the configured
channel and exposes a /health endpoint.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		forceClean, _ := cmd.Flags().GetBool("force-clean-locks")

		if cfg == nil {
			return fmt.Errorf("config not loaded")
		}

		daemonMgr, err := daemon.NewDaemon(cfg)
		if err != nil {
			return fmt.Errorf("failed to create daemon manager: %w", err)
		}
		daemonMgr.SetForceCleanup(forceClean)

		return executeWithRuntime(cmd, runtimeOptions{listen: true}, func(rt *runtime.RuntimeComponents) error {
			daemonMgr.AddComponent(components.NewStateComponent(rt.Choices))
			daemonMgr.AddComponent(components.NewHistoryComponent(rt.History))
			daemonMgr.AddComponent(components.NewAdaptersComponent(rt.Adapters))
			daemonMgr.AddComponent(components.NewSchedulerComponent(rt.Config, rt.Coordinator, rt.StateDir, rt.Location))
			daemonMgr.AddComponent(components.NewHTTPServerComponent(daemonMgr, &rt.Config.Server, Version))

			slog.Info("Gymslot daemon starting up...", "port", rt.Config.Server.Port, "state_dir", rt.StateDir)
			err := daemonMgr.Start(rt.Ctx)
			if err != nil {
				// Cancellation via signal/context is a graceful shutdown case for CLI.
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					slog.Info("Gymslot daemon stopped gracefully")
					return nil
				}
				return fmt.Errorf("daemon failed: %w", err)
			}

			slog.Info("Gymslot daemon stopped gracefully")
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(daemonCmd)
	daemonCmd.Flags().Bool("force-clean-locks", false, "Force cleanup of stale lock files (default: warn-only)")
}
