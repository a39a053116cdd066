package main

import (
	"log/slog"

	"github.com/harunnryd/gymslot/internal/slot"

	"github.com/spf13/cobra"
)

var slotsCmd = &cobra.Command{
	Use:   "slots",
	Short: "List the bookable slots",
	RunE:  func(cmd *cobra.Command, args []string) error {
		f, err := outputFormatter(cmd)
		if err != nil {
			return err
		}

		pending := ""
		if choices, err := openChoiceStore(cmd); err == nil {
			if id, ok, err := choices.Load(commandContext(cmd)); err == nil && ok {
				pending = id
			} else if err != nil {
				slog.Debug("Pending choice unreadable", "error", err)
			}
		}

		out, err := f.FormatSlots(slot.All(), pending)
		if err != nil {
			return err
		}
		printOut(cmd, out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(slotsCmd)
	addOutputFlag(slotsCmd)
}
