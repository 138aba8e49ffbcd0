package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/embertools/ember/internal/device"
	"github.com/embertools/ember/internal/history"
	"github.com/embertools/ember/internal/scenario"
)

var (
	runSuite  string
	runReplay string
	runJSON   string
	runNoSave bool
)

var (
	passMark = lipgloss.NewStyle().Foreground(lipgloss.Color("78")).Bold(true).Render("✓")
	failMark = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true).Render("✗")
	skipMark = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Render("−")
	dimText  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	passText = lipgloss.NewStyle().Foreground(lipgloss.Color("78")).Bold(true)
	failText = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a scenario suite against the device",
	Long: `Run a scenario suite against the device's serial log.

Scenarios run strictly in order over a single session. Each waits for
its signal patterns under a deadline, then evaluates its assertions
over the log collected so far. The run fails if any scenario fails.

Examples:
  ember run --suite scenarios.yaml
  ember run -s scenarios.yaml -p /dev/ttyUSB0 -b 115200
  ember run -s scenarios.yaml --replay capture.log --json report.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		suitePath := runSuite
		if suitePath == "" {
			suitePath = cfg.Suite
		}
		if suitePath == "" {
			return errors.New("no suite given (use --suite or set suite in config)")
		}

		scenarios, err := scenario.LoadSuite(suitePath, defaultTimeout())
		if err != nil {
			return err
		}

		ctrl, err := buildController()
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		runner := &scenario.Runner{
			Device:    ctrl,
			Scenarios: scenarios,
			Log:       slog.Default(),
			Observer:  printEvent,
		}

		report, err := runner.Run(ctx)
		if err != nil {
			return err
		}

		printSummary(report)

		if !runNoSave {
			store := history.New(stateDir())
			if path, err := store.SaveReport(report, suitePath); err != nil {
				slog.Warn("could not save report", "err", err)
			} else {
				fmt.Println(dimText.Render("report saved to " + path))
			}
		}
		if runJSON != "" {
			if err := writeReportJSON(report, runJSON); err != nil {
				return err
			}
		}

		if !report.Success() {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runSuite, "suite", "s", "", "Scenario suite YAML file")
	runCmd.Flags().StringVar(&runReplay, "replay", "", "Replay a captured log file instead of opening a port")
	runCmd.Flags().StringVar(&runJSON, "json", "", "Also write the JSON report to this file (- for stdout)")
	runCmd.Flags().BoolVar(&runNoSave, "no-save", false, "Do not record the run in history")
}

// buildController picks the device for this invocation: a replay file
// when requested, otherwise the configured or auto-detected port.
func buildController() (device.Controller, error) {
	if runReplay != "" {
		return device.NewReplayController(runReplay, cfg.MaxBufferBytes), nil
	}

	port := cfg.Port
	if port == "" {
		ports, err := device.ListPorts()
		if err != nil {
			return nil, fmt.Errorf("list ports: %w", err)
		}
		port = device.DetectPort(ports)
		if port == "" {
			return nil, errors.New("no serial port found (use --port)")
		}
		slog.Info("auto-detected port", "port", port)
	}
	return device.NewSerialController(port, cfg.BaudRate, cfg.MaxBufferBytes), nil
}

// signalContext cancels on Ctrl+C or SIGTERM so the orchestrator can
// skip remaining scenarios and still emit a partial report.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// printEvent renders run progress line by line for headless runs.
func printEvent(e scenario.Event) {
	switch e := e.(type) {
	case scenario.ScenarioStarted:
		fmt.Printf("  %s %s\n", dimText.Render("▸"), e.Name)
	case scenario.ScenarioFinished:
		v := e.Verdict
		mark := failMark
		switch v.Status {
		case scenario.StatusPassed:
			mark = passMark
		case scenario.StatusSkipped:
			mark = skipMark
		}
		line := fmt.Sprintf("  %s %s", mark, v.Scenario)
		if v.Note != "" {
			line += dimText.Render("  (" + v.Note + ")")
		}
		fmt.Println(line)
		for _, o := range v.Outcomes {
			if o.Passed {
				continue
			}
			fmt.Println(dimText.Render("      " + o.Assertion + ": " + o.Evidence))
		}
	}
}

func printSummary(report *scenario.Report) {
	fmt.Println()
	if report.Success() {
		fmt.Println(passText.Render(report.Summary()))
	} else {
		fmt.Println(failText.Render(report.Summary()))
	}
}

func writeReportJSON(report *scenario.Report, path string) error {
	if path == "-" {
		return report.WriteJSON(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return report.WriteJSON(f)
}
