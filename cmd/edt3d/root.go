package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"edt3d/pkg/config"
	"edt3d/pkg/edt"
)

var (
	flagConfig  string
	flagVerbose bool
	flagWorkers int

	version = "0.1.0"
)

// rootCmd is the base command of the edt3d CLI.
var rootCmd = &cobra.Command{
	Use:           "edt3d",
	Short:         "Exact 3D Euclidean distance transform",
	Long:          "edt3d computes the exact Euclidean distance from every voxel of a binary volume to the nearest foreground voxel.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "edt3d.yaml", "configuration file (defaults are used if missing)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log every step, including per-pass timings")
	rootCmd.PersistentFlags().IntVar(&flagWorkers, "workers", 0, "worker goroutines per pass (0 = all CPUs)")
}

// loadConfig reads the configuration file and applies the persistent flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(flagConfig)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("workers") {
		cfg.Transform.Workers = flagWorkers
	}
	if flagVerbose {
		cfg.Output.Verbose = true
	}
	return cfg, nil
}

// newLogger returns the CLI logger. Verbose output also enables the
// transform's own debug records.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	if verbose {
		edt.SetLogger(logger)
	} else {
		edt.SetLogger(nil)
	}
	return logger
}
