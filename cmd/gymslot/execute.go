package main

import (
	"github.com/harunnryd/gymslot/cmd/gymslot/runtime"

	"github.com/spf13/cobra"
)

var executeCmd = &cobra.Command{
	Use:   "execute",
	Short: "Book the pending choice now",
	Long: `Runs the execution trigger once: books the stored choice for tomorrow, sends
exactly one result message and clears the stored choice whatever the outcome.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		strict, _ := cmd.Flags().GetBool("strict")

		loadedCfg, err := loadConfigForCommand(cmd)
		if err != nil {
			return err
		}
		if err := loadedCfg.ValidateBooking(); err != nil {
			return err
		}
		if err := loadedCfg.ValidateChannel(); err != nil {
			return err
		}

		f, err := outputFormatter(cmd)
		if err != nil {
			return err
		}

		return executeWithRuntime(cmd, runtimeOptions{}, func(rt *runtime.RuntimeComponents) error {
			rep := rt.Coordinator.Execute(rt.Ctx)

			out, err := f.FormatReport(rep)
			if err != nil {
				return err
			}
			printOut(cmd, out)

			if strict {
				return rep.Err()
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(executeCmd)
	executeCmd.Flags().Bool("strict", false, "exit non-zero when a selected slot was not booked")
	addOutputFlag(executeCmd)
}
