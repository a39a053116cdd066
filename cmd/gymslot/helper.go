package main

import (
	"context"
	"fmt"
	"io"

	"github.com/harunnryd/gymslot/cmd/gymslot/runtime"

	"github.com/harunnryd/gymslot/internal/config"
	"github.com/harunnryd/gymslot/internal/formatter"

	"github.com/spf13/cobra"
)

type runtimeOptions struct {
	listen  bool
	console io.Writer
	// channel overrides adapters.channel for this invocation.
	channel string
}

func executeWithRuntime(cmd *cobra.Command, opts runtimeOptions, fn func(*runtime.RuntimeComponents) error) error {
	loadedCfg, err := loadConfigForCommand(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if opts.channel != "" {
		overridden := *loadedCfg
		overridden.Adapters.Channel = opts.channel
		loadedCfg = &overridden
	}

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	console := opts.console
	if console == nil {
		console = cmd.OutOrStdout()
	}

	builder := runtime.NewRuntimeBuilder().
		WithContext(ctx).
		WithConfig(loadedCfg).
		WithListen(opts.listen).
		WithConsole(console)

	components, err := builder.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize runtime: %w", err)
	}
	defer components.Stop()

	return fn(components)
}

func loadConfigForCommand(cmd *cobra.Command) (*config.Config, error) {
	if cfg != nil {
		return cfg, nil
	}
	return config.Load(cmd)
}

func outputFormatter(cmd *cobra.Command) (formatter.Formatter, error) {
	value, _ := cmd.Flags().GetString("output")
	if value == "" {
		value = string(formatter.OutputFormatTable)
	}
	format, err := formatter.ParseOutputFormat(value)
	if err != nil {
		return nil, err
	}
	return formatter.NewFormatterFactory().Create(format)
}

func addOutputFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", string(formatter.OutputFormatTable), "output format (table, json, yaml)")
}

func printOut(cmd *cobra.Command, s string) {
	fmt.Fprintln(cmd.OutOrStdout(), s)
}

// commandContext is the command's context, or Background when run outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
