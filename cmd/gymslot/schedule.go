package main

import (
	"fmt"
	"time"

	"github.com/harunnryd/gymslot/internal/scheduler"
	"github.com/harunnryd/gymslot/internal/store"

	"github.com/spf13/cobra"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Show when the triggers fire next",
	Long:  `Displays both daily jobs with their cron spec, next fire time and the last run recorded by the daemon.`,
	RunE:  func(cmd *cobra.Command, args []string) error {
		f, err := outputFormatter(cmd)
		if err != nil {
			return err
		}

		loadedCfg, err := loadConfigForCommand(cmd)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		loc, err := loadedCfg.Location()
		if err != nil {
			return err
		}

		now := time.Now().In(loc)
		if err := scheduler.ValidateOrder(loadedCfg.Schedule.Collect, loadedCfg.Schedule.Execute, loc, now); err != nil {
			return err
		}

		var upcoming []scheduler.Upcoming
		for _, job := range []struct{ name, spec string }{
			{scheduler.JobCollect, loadedCfg.Schedule.Collect},
			{scheduler.JobExecute, loadedCfg.Schedule.Execute},
		} {
			next, err := scheduler.Next(job.spec, now)
			if err != nil {
				return err
			}
			upcoming = append(upcoming, scheduler.Upcoming{Name: job.name, Spec: job.spec, Next: next})
		}

		stateDir, err := store.ResolveStateDir(loadedCfg.Store.StateDir)
		if err != nil {
			return err
		}
		runs, err := scheduler.NewStore(store.RunLogPath(stateDir))
		if err != nil {
			return fmt.Errorf("failed to read run log: %w", err)
		}

		out, err := f.FormatJobs(upcoming, runs.All())
		if err != nil {
			return err
		}
		printOut(cmd, out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
	addOutputFlag(scheduleCmd)
}
