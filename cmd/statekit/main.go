package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/statekit/config"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "statekit",
		Short: "Drive statekit containers, event holders and dispatchers from the terminal",
		Long: `statekit runs scripted sessions against the statekit library.

It wires a state container, an event holder and a debounced dispatcher the
way a screen would, fires actions at them and prints what was observed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		simulateCmd(),
		configCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// loadConfig returns the defaults when filename is empty.
func loadConfig(filename string) (*config.Config, error) {
	if filename == "" {
		cfg := config.DefaultConfig()
		return &cfg, nil
	}

	cfg, err := config.Load(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
