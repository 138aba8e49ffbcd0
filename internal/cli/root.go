// Package cli wires the ember commands: run, tui, ports, build, flash,
// monitor, history. Configuration is loaded once per invocation and
// individual flags override it.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/embertools/ember/internal/config"
	"github.com/embertools/ember/internal/toolchain"
)

// timeRound is the display granularity for toolchain durations.
const timeRound = time.Second

var (
	flagVerbose bool
	flagPort    string
	flagBaud    int

	cfg  config.Config
	root string // workspace root: detected project root, or the cwd
)

var rootCmd = &cobra.Command{
	Use:   "ember",
	Short: "Serial log verification for embedded devices",
	Long: `ember verifies device behavior by watching its serial log output:
it waits for expected patterns under deadlines, extracts values from
matched lines, and checks them against declarative scenario suites.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging()

		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		root = cwd
		if p := toolchain.DetectProject(cwd); p != nil {
			root = p.Root
		}

		cfg = config.Load(root)
		if flagPort != "" {
			cfg.Port = flagPort
		}
		if flagBaud != 0 {
			cfg.BaudRate = flagBaud
		}
		return cfg.Validate()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&flagPort, "port", "p", "", "Serial port (default: auto-detect)")
	rootCmd.PersistentFlags().IntVarP(&flagBaud, "baud", "b", 0, "Baud rate (default from config, 115200)")
}

// Execute runs the CLI. It is the only entry point main needs.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func setupLogging() {
	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	})))
}

// stateDir is where history and reports live for this workspace.
func stateDir() string {
	return filepath.Join(root, ".ember")
}

func defaultTimeout() time.Duration {
	return time.Duration(cfg.TimeoutSeconds) * time.Second
}
