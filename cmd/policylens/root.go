package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// appName is the name of the application used in CLI usage output
const appName = "policylens"

// rootFlags holds the persistent flags shared by every subcommand
var rootFlags struct {
	configPath string
	debug      bool
	pretty     bool
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           appName,
	Short:         "privacy policy fetching, extraction and AI analysis service",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		setupLogging(rootFlags.debug, rootFlags.pretty)
	},
}

// Execute runs the root command until it returns or a shutdown signal arrives
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("command failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlags.configPath, "config", "./config.yaml", "config file location")
	rootCmd.PersistentFlags().BoolVar(&rootFlags.debug, "debug", false, "debug logging output")
	rootCmd.PersistentFlags().BoolVar(&rootFlags.pretty, "pretty", false, "enable pretty (human readable) logging output")
}

// setupLogging installs the default slog logger: JSON unless pretty is set
func setupLogging(debug, pretty bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if pretty {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler).With("app", appName, "version", version))
}
