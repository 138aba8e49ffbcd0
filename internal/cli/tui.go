package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/embertools/ember/internal/history"
	"github.com/embertools/ember/internal/scenario"
	"github.com/embertools/ember/internal/tui"
)

var (
	tuiSuite  string
	tuiReplay string
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Run a scenario suite with a live terminal view",
	Long: `Run a scenario suite with a live terminal view: scenario progress,
verdict marks as they land, and failure evidence. Press q to abort.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		suitePath := tuiSuite
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

		runReplay = tuiReplay
		ctrl, err := buildController()
		if err != nil {
			return err
		}

		names := make([]string, len(scenarios))
		for i, sc := range scenarios {
			names[i] = sc.Name
		}
		p := tea.NewProgram(tui.New(names), tea.WithAltScreen())

		ctx, cancel := signalContext()
		defer cancel()

		runner := &scenario.Runner{
			Device:    ctrl,
			Scenarios: scenarios,
			Log:       slog.Default(),
			Observer: func(e scenario.Event) {
				switch e := e.(type) {
				case scenario.ScenarioStarted:
					p.Send(tui.ScenarioStartedMsg{Index: e.Index, Name: e.Name})
				case scenario.ScenarioFinished:
					p.Send(tui.VerdictMsg{Index: e.Index, Verdict: e.Verdict})
				case scenario.RunFinished:
					p.Send(tui.RunDoneMsg{Report: e.Report, Err: e.Err})
				}
			},
		}

		var (
			report *scenario.Report
			runErr error
		)
		done := make(chan struct{})
		go func() {
			report, runErr = runner.Run(ctx)
			close(done)
		}()

		if _, err := p.Run(); err != nil {
			return err
		}
		cancel() // quitting the view aborts a still-running suite
		<-done

		if runErr != nil {
			return runErr
		}
		if report == nil {
			return nil
		}

		store := history.New(stateDir())
		if path, err := store.SaveReport(report, suitePath); err != nil {
			slog.Warn("could not save report", "err", err)
		} else {
			fmt.Println(dimText.Render("report saved to " + path))
		}

		printSummary(report)
		if !report.Success() {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)

	tuiCmd.Flags().StringVarP(&tuiSuite, "suite", "s", "", "Scenario suite YAML file")
	tuiCmd.Flags().StringVar(&tuiReplay, "replay", "", "Replay a captured log file instead of opening a port")
}
