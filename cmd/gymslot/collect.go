package main

import (
	"context"
	"fmt"
	"time"

	"github.com/harunnryd/gymslot/cmd/gymslot/runtime"

	"github.com/harunnryd/gymslot/internal/config"

	"github.com/spf13/cobra"
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Send the slot choices for tomorrow",
	Long: `Runs the collection trigger once: sends the slot menu to the configured channel.

With --listen the command stays up to receive the selection (or a skip) and
saves it, which lets a one-shot collect work without the daemon.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		listen, _ := cmd.Flags().GetBool("listen")
		wait, _ := cmd.Flags().GetDuration("wait")

		loadedCfg, err := loadConfigForCommand(cmd)
		if err != nil {
			return err
		}
		if err := loadedCfg.ValidateChannel(); err != nil {
			return err
		}

		return executeWithRuntime(cmd, runtimeOptions{listen: listen}, func(rt *runtime.RuntimeComponents) error {
			if !listen {
				return rt.Coordinator.Collect(rt.Ctx)
			}
			return collectAndListen(cmd, rt, wait)
		})
	},
}

func collectAndListen(cmd *cobra.Command, rt *runtime.RuntimeComponents, wait time.Duration) error {
	if rt.Config.Adapters.Channel == config.ChannelConsole || rt.Config.Adapters.Channel == config.ChannelNone {
		return fmt.Errorf("--listen needs a chat channel; use 'gymslot choose' for the console")
	}

	sig := NewSignalHandler(rt.Ctx, cmd.ErrOrStderr())
	sig.Start()
	defer sig.Stop()

	ctx := sig.Context()
	if wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, wait)
		defer cancel()
	}

	if err := rt.Adapters.Start(ctx); err != nil {
		return err
	}
	defer rt.Adapters.Stop(context.Background())

	if err := rt.Coordinator.Collect(ctx); err != nil {
		return err
	}

	printOut(cmd, fmt.Sprintf("Waiting for a selection on %s (Ctrl+C to stop)...", rt.Adapters.Channel().Name()))
	<-ctx.Done()

	id, ok, err := rt.Choices.Load(context.Background())
	switch {
	case err != nil:
		return err
	case ok:
		printOut(cmd, fmt.Sprintf("Pending choice: slot %s", id))
	default:
		printOut(cmd, "No slot selected.")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(collectCmd)
	collectCmd.Flags().Bool("listen", false, "keep listening for the selection after sending the menu")
	collectCmd.Flags().Duration("wait", 0, "with --listen, stop after this long (0 waits for Ctrl+C)")
}
