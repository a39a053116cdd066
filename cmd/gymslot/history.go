package main

import (
	"fmt"

	"github.com/harunnryd/gymslot/internal/history"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent booking attempts",
	RunE:  func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		f, err := outputFormatter(cmd)
		if err != nil {
			return err
		}

		loadedCfg, err := loadConfigForCommand(cmd)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		ctx := commandContext(cmd)
		rec, err := history.Open(ctx, loadedCfg.History)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		if rec == nil {
			printOut(cmd, "History is disabled (history.driver: none).")
			return nil
		}
		defer rec.Close()

		attempts, err := rec.Recent(ctx, limit)
		if err != nil {
			return err
		}

		out, err := f.FormatAttempts(attempts)
		if err != nil {
			return err
		}
		printOut(cmd, out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", history.DefaultRecentLimit, "number of attempts to show")
	addOutputFlag(historyCmd)
}
