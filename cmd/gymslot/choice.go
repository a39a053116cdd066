package main

import (
	"fmt"
	"time"

	"github.com/harunnryd/gymslot/internal/choice"
	"github.com/harunnryd/gymslot/internal/slot"
	"github.com/harunnryd/gymslot/internal/store"

	"github.com/spf13/cobra"
)

var choiceCmd = &cobra.Command{
	Use:   "choice",
	Short: "Inspect or clear the pending selection",
}

var choiceShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the pending selection",
	RunE:  func(cmd *cobra.Command, args []string) error {
		choices, err := openChoiceStore(cmd)
		if err != nil {
			return err
		}

		rec, ok, err := choices.Record(commandContext(cmd))
		if err != nil {
			return fmt.Errorf("read choice: %w", err)
		}
		if !ok {
			printOut(cmd, "No pending selection.")
			return nil
		}

		label := "unknown slot"
		if e, err := slot.Resolve(rec.SlotID); err == nil {
			label = e.Display() + " (" + e.TimeRange + ")"
		}
		printOut(cmd, fmt.Sprintf("Slot %s: %s, chosen %s", rec.SlotID, label, rec.ChosenAt.Local().Format(time.DateTime)))
		return nil
	},
}

var choiceClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Discard the pending selection",
	RunE:  func(cmd *cobra.Command, args []string) error {
		choices, err := openChoiceStore(cmd)
		if err != nil {
			return err
		}
		if err := choices.Clear(commandContext(cmd)); err != nil {
			return err
		}
		printOut(cmd, "Pending selection cleared.")
		return nil
	},
}

func openChoiceStore(cmd *cobra.Command) (*choice.Store, error) {
	loadedCfg, err := loadConfigForCommand(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lockCfg, err := store.FileLockConfigFrom(loadedCfg.Store)
	if err != nil {
		return nil, err
	}
	return choice.NewStore(loadedCfg.Store.StateDir, choice.WithLockConfig(lockCfg))
}

func init() {
	choiceCmd.AddCommand(choiceShowCmd)
	choiceCmd.AddCommand(choiceClearCmd)
	rootCmd.AddCommand(choiceCmd)
}
