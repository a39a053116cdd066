package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/harunnryd/gymslot/internal/config"
	"github.com/harunnryd/gymslot/internal/logger"
	"github.com/harunnryd/gymslot/internal/secret"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "gymslot",
	Short: "Daily gym slot booking",
	Long: `Gymslot asks for tomorrow's gym slot at noon through a chat channel and
books the chosen slot on the facility website in the evening.`,
	SilenceUsage:      true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cmd)
		if err != nil {
			return err
		}

		logger.Setup(logger.Options{
			Level: cfg.Server.LogLevel,
			File:  cfg.Server.LogFile,
		})

		if err := secret.FillPassword(&cfg.Booking); err != nil {
			slog.Debug("Password not available from keyring", "error", err)
		}
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.gymslot/config.yaml)")
	rootCmd.PersistentFlags().String("server.log_level", config.DefaultServerLogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Int("server.port", config.DefaultServerPort, "health endpoint port")
}
