package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/thepwagner/madison/pkg/server"
)

type rootOptions struct {
	ConfigFile string
	Key        string
	Suite      string
	LogLevel   string
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := rootOptions{}
	cmd := &cobra.Command{
		Use:          "madison [flags] PACKAGE...",
		Short:        "Report the versions of packages across the configured archives",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMadison(cmd, opts, args)
		},
	}
	cmd.Flags().StringVarP(&opts.ConfigFile, "config", "c", server.DefaultConfigPath, "Config file path")
	cmd.Flags().StringVar(&opts.Key, "key", "", "Group rows by codename or component")
	cmd.Flags().StringVarP(&opts.Suite, "suite", "s", "", "Only report rows for this key")
	cmd.Flags().StringVar(&opts.LogLevel, "log-level", "warn", "Log level")
	return cmd
}

func runMadison(cmd *cobra.Command, opts rootOptions, packages []string) error {
	logger, err := server.NewLogger(server.LogConfig{Level: opts.LogLevel}, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	cfg, err := server.LoadConfig(opts.ConfigFile)
	if err != nil {
		return err
	}
	if opts.Key != "" {
		cfg.Key = opts.Key
	}

	table, err := server.Report(cmd.Context(), cfg, packages, opts.Suite)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), table)
	return err
}
