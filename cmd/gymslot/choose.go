package main

import (
	"fmt"

	"github.com/harunnryd/gymslot/cmd/gymslot/runtime"

	"github.com/harunnryd/gymslot/internal/adapter"
	"github.com/harunnryd/gymslot/internal/collector"
	"github.com/harunnryd/gymslot/internal/config"
	"github.com/harunnryd/gymslot/internal/errors"
	"github.com/harunnryd/gymslot/internal/slot"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var chooseCmd = &cobra.Command{
	Use:   "choose [slot-id|skip]",
	Short: "Pick tomorrow's slot from the terminal",
	Long: `Records a selection exactly as a tap on the chat menu would. With no argument
an interactive picker is shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		selection := ""
		if len(args) == 1 {
			selection = args[0]
			if selection != slot.SkipID && !slot.IsKnown(selection) {
				return errors.UnknownSlot(selection)
			}
		} else {
			picked, err := pickSlot()
			if err != nil {
				return err
			}
			selection = picked
		}

		return executeWithRuntime(cmd, runtimeOptions{channel: config.ChannelConsole}, func(rt *runtime.RuntimeComponents) error {
			return rt.Collector.OnResponse(rt.Ctx, adapter.Response{
				SelectionID: selection,
				MessageID:   "terminal",
			})
		})
	},
}

func pickSlot() (string, error) {
	choices := collector.Choices()
	options := make([]huh.Option[string], 0, len(choices))
	for _, c := range choices {
		options = append(options, huh.NewOption(c.Label, c.ID))
	}

	var selection string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(collector.PromptText).
				Options(options...).
				Value(&selection),
		),
	).WithTheme(huh.ThemeDracula())

	if err := form.Run(); err != nil {
		return "", fmt.Errorf("slot picker: %w", err)
	}
	return selection, nil
}

func init() {
	rootCmd.AddCommand(chooseCmd)
}
