// Package tui renders a live view of a verification run: scenario
// progress with a spinner, verdict marks as they land, and the failure
// evidence for anything that did not pass.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/embertools/ember/internal/scenario"
)

// Messages forwarded from the orchestrator goroutine via Program.Send.
type (
	// ScenarioStartedMsg marks a scenario as running.
	ScenarioStartedMsg struct {
		Index int
		Name  string
	}
	// VerdictMsg delivers a completed scenario's verdict.
	VerdictMsg struct {
		Index   int
		Verdict scenario.Verdict
	}
	// RunDoneMsg delivers the finalized report (or the open error).
	RunDoneMsg struct {
		Report *scenario.Report
		Err    error
	}
)

// row is the display state of one scenario.
type row struct {
	name    string
	running bool
	done    bool
	verdict scenario.Verdict
}

// Model is the bubbletea model for a run view.
type Model struct {
	rows     []row
	spin     spinner.Model
	viewport viewport.Model
	report   *scenario.Report
	runErr   error
	done     bool
	width    int
	height   int
}

// New builds the run view for the named scenarios.
func New(names []string) Model {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	rows := make([]row, len(names))
	for i, n := range names {
		rows[i] = row{name: n}
	}
	return Model{
		rows:     rows,
		spin:     sp,
		viewport: viewport.New(0, 0),
	}
}

func (m Model) Init() tea.Cmd {
	return m.spin.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width - 4
		vpHeight := msg.Height - len(m.rows) - 6
		if vpHeight < 3 {
			vpHeight = 3
		}
		m.viewport.Height = vpHeight
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case ScenarioStartedMsg:
		if msg.Index >= 0 && msg.Index < len(m.rows) {
			m.rows[msg.Index].running = true
		}
		return m, nil

	case VerdictMsg:
		if msg.Index >= 0 && msg.Index < len(m.rows) {
			m.rows[msg.Index].running = false
			m.rows[msg.Index].done = true
			m.rows[msg.Index].verdict = msg.Verdict
		}
		m.viewport.SetContent(m.failureDetail())
		return m, nil

	case RunDoneMsg:
		m.done = true
		m.report = msg.Report
		m.runErr = msg.Err
		m.viewport.SetContent(m.failureDetail())
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("ember run"))
	b.WriteString("\n")

	for _, r := range m.rows {
		b.WriteString("  " + m.mark(r) + " " + r.name)
		if r.done && r.verdict.Note != "" {
			b.WriteString(dimStyle.Render("  (" + r.verdict.Note + ")"))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if detail := m.viewport.View(); strings.TrimSpace(detail) != "" {
		b.WriteString(detail)
		b.WriteString("\n")
	}

	b.WriteString(m.statusLine())
	return b.String()
}

func (m Model) mark(r row) string {
	switch {
	case r.running:
		return m.spin.View()
	case !r.done:
		return dimStyle.Render("·")
	case r.verdict.Status == scenario.StatusPassed:
		return passStyle.Render("✓")
	case r.verdict.Status == scenario.StatusSkipped:
		return skipStyle.Render("−")
	default:
		return failStyle.Render("✗")
	}
}

func (m Model) statusLine() string {
	if !m.done {
		return statusBarStyle.Render("running… press q to abort")
	}
	if m.runErr != nil {
		return failStyle.Render("error: " + m.runErr.Error())
	}
	if m.report == nil {
		return statusBarStyle.Render("press q to quit")
	}
	summary := m.report.Summary()
	if m.report.Success() {
		return passStyle.Render(summary) + statusBarStyle.Render("  press q to quit")
	}
	return failStyle.Render(summary) + statusBarStyle.Render("  press q to quit")
}

// failureDetail renders the evidence for every non-passing outcome.
func (m Model) failureDetail() string {
	var b strings.Builder
	for _, r := range m.rows {
		if !r.done || r.verdict.Status == scenario.StatusPassed {
			continue
		}
		b.WriteString(fmt.Sprintf("%s [%s]\n", r.name, r.verdict.Status))
		for _, o := range r.verdict.Outcomes {
			if o.Passed {
				continue
			}
			b.WriteString(evidenceStyle.Render(o.Assertion+": "+o.Evidence) + "\n")
		}
	}
	return b.String()
}

// Done reports whether the run has finished (used by tests).
func (m Model) Done() bool {
	return m.done
}
