package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tsawler/timetable/config"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string
	var verbose bool

	root := &cobra.Command{
		Use:           "timetable",
		Short:         "Convert weekly class schedules into iCalendar feeds",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML layout configuration file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log stage diagnostics")

	env := &environment{configPath: &configPath, verbose: &verbose}
	root.AddCommand(convertCmd(env), serveCmd(env))
	return root
}

// environment resolves the settings shared by every subcommand
type environment struct {
	configPath *string
	verbose    *bool
}

func (e *environment) config() (config.Config, error) {
	cfg := config.Default()
	if *e.configPath != "" {
		var err error
		if cfg, err = config.Load(*e.configPath); err != nil {
			return cfg, err
		}
	}
	return config.FromEnv(cfg)
}

func (e *environment) logger() *slog.Logger {
	level := slog.LevelInfo
	if *e.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
