package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/embertools/ember/internal/device"
	"github.com/embertools/ember/internal/stream"
	"github.com/embertools/ember/internal/verify"
)

// Event is sent to an observer as the run progresses. The TUI consumes
// these; headless runs usually leave Observer nil.
type Event interface{ event() }

// ScenarioStarted announces that a scenario began waiting for its
// signals.
type ScenarioStarted struct {
	Index int
	Name  string
	Total int
}

// ScenarioFinished carries the verdict of a completed scenario.
type ScenarioFinished struct {
	Index   int
	Verdict Verdict
}

// RunFinished carries the finalized report.
type RunFinished struct {
	Report *Report
	Err    error
}

func (ScenarioStarted) event()  {}
func (ScenarioFinished) event() {}
func (RunFinished) event()      {}

// Runner drives scenarios strictly sequentially over one device
// session. It is the sole owner of the session and its buffer for the
// duration of the run.
type Runner struct {
	Device    device.Controller
	Scenarios []Scenario
	Log       *slog.Logger
	Observer  func(Event)
}

// Run executes every scenario and returns the finalized report. The
// only error return is a session that could not be opened at all
// (device unavailable); everything after that point is captured in the
// report. Cancelling ctx skips the remaining scenarios and still
// finalizes the partial report.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	log := r.Log
	if log == nil {
		log = slog.Default()
	}

	sess, err := r.Device.Open()
	if err != nil {
		r.emit(RunFinished{Err: err})
		return nil, fmt.Errorf("open session: %w", err)
	}
	defer r.Device.Close()

	report := NewReport(sess.PortName, sess.BaudRate)
	log.Info("session open", "port", sess.PortName, "baud", sess.BaudRate, "scenarios", len(r.Scenarios))

	disconnected := false
	for i, sc := range r.Scenarios {
		if ctx.Err() != nil {
			report.Add(skipped(sc, "run aborted"))
			continue
		}
		if disconnected {
			report.Add(skipped(sc, "device disconnected earlier in the run"))
			continue
		}

		r.emit(ScenarioStarted{Index: i, Name: sc.Name, Total: len(r.Scenarios)})

		v, down := r.runScenario(ctx, sess, sc, log)
		disconnected = disconnected || down
		report.Add(v)
		r.emit(ScenarioFinished{Index: i, Verdict: v})
		log.Info("scenario done", "name", sc.Name, "status", string(v.Status), "elapsed", v.Elapsed)
	}

	report.Finalize()
	r.emit(RunFinished{Report: report})
	return report, nil
}

// runScenario produces exactly one verdict. The second return reports a
// device disconnection, which dooms the rest of the run.
func (r *Runner) runScenario(ctx context.Context, sess *stream.Session, sc Scenario, log *slog.Logger) (Verdict, bool) {
	start := time.Now()

	note, skip := r.applyReset(sc, log)
	if skip {
		return skipped(sc, note), false
	}

	if sc.ClearBuffer {
		if err := sess.Buffer().Reset(); err != nil {
			// A pinned buffer here is a sequencing bug; surface it
			// rather than matching against stale evidence.
			return Verdict{
				Scenario: sc.Name,
				Status:   StatusFailed,
				Note:     "buffer clear failed: " + err.Error(),
				Elapsed:  time.Since(start),
			}, false
		}
	}

	idx, res := verify.AwaitAny(ctx, sess, sc.Timeout, sc.WaitFor...)

	if res.Cancelled {
		return skipped(sc, "run aborted while waiting"), false
	}

	v := Verdict{Scenario: sc.Name, Elapsed: time.Since(start)}
	if note != "" {
		v.Note = note
	}

	// The wait phase is recorded as an implicit first outcome, so a
	// timeout is auditable next to the assertion results.
	wait := verify.Outcome{Assertion: waitDescription(sc)}
	switch {
	case res.Disconnected:
		wait.Evidence = "device disconnected while waiting"
	case res.Found:
		wait.Passed = true
		wait.Evidence = res.Matched
		if idx >= 0 {
			wait.Assertion = fmt.Sprintf("signal %q within %s", sc.WaitFor[idx].Expr, sc.Timeout)
		}
	default:
		wait.Evidence = fmt.Sprintf("no signal within %s", sc.Timeout)
	}
	v.Outcomes = append(v.Outcomes, wait)

	// Assertions always run, even over partial evidence from a timeout
	// or disconnection, so a single run surfaces every failure.
	v.Outcomes = append(v.Outcomes, verify.EvalAll(res.Snapshot, sc.Assertions)...)

	v.Status = StatusPassed
	for _, o := range v.Outcomes {
		if !o.Passed {
			v.Status = StatusFailed
			break
		}
	}
	if res.Disconnected {
		v.Status = StatusFailed
		v.Note = "device disconnected"
	}
	v.Elapsed = time.Since(start)
	return v, res.Disconnected
}

// applyReset handles the scenario's reset requirement. Returns a note
// for the verdict and whether the scenario must be skipped outright.
func (r *Runner) applyReset(sc Scenario, log *slog.Logger) (note string, skip bool) {
	if sc.Reset == ResetNone {
		return "", false
	}
	err := r.Device.Reset()
	if err == nil {
		return "", false
	}
	if errors.Is(err, device.ErrResetUnsupported) {
		if sc.Reset == ResetHard {
			return "requires hard reset; controller cannot reset", true
		}
		log.Warn("reset unsupported, assuming boot already in progress", "scenario", sc.Name)
		return "reset unavailable, boot assumed in progress", false
	}
	log.Warn("reset failed", "scenario", sc.Name, "err", err)
	return "reset failed: " + err.Error(), false
}

func (r *Runner) emit(e Event) {
	if r.Observer != nil {
		r.Observer(e)
	}
}

func skipped(sc Scenario, note string) Verdict {
	return Verdict{Scenario: sc.Name, Status: StatusSkipped, Note: note}
}

func waitDescription(sc Scenario) string {
	if len(sc.WaitFor) == 1 {
		return fmt.Sprintf("signal %q within %s", sc.WaitFor[0].Expr, sc.Timeout)
	}
	return fmt.Sprintf("any of %d signals within %s", len(sc.WaitFor), sc.Timeout)
}
