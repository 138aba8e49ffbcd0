package scenario

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/embertools/ember/internal/verify"
)

// Status is a scenario's final disposition.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Verdict is the immutable outcome of one scenario. The orchestrator
// writes it once and never touches it again.
type Verdict struct {
	Scenario string           `json:"scenario"`
	Status   Status           `json:"status"`
	Outcomes []verify.Outcome `json:"outcomes,omitempty"`
	Note     string           `json:"note,omitempty"`
	Elapsed  time.Duration    `json:"elapsed_ms"`
}

// MarshalJSON reports elapsed time in milliseconds, the unit the report
// consumers expect.
func (v Verdict) MarshalJSON() ([]byte, error) {
	type alias Verdict
	return json.Marshal(struct {
		alias
		Elapsed int64 `json:"elapsed_ms"`
	}{alias(v), v.Elapsed.Milliseconds()})
}

// Report aggregates verdicts for one run. It accumulates monotonically
// and is immutable once finalized.
type Report struct {
	Started  time.Time     `json:"started"`
	Port     string        `json:"port,omitempty"`
	BaudRate int           `json:"baud_rate,omitempty"`
	Verdicts []Verdict     `json:"verdicts"`
	Passed   int           `json:"passed"`
	Failed   int           `json:"failed"`
	Skipped  int           `json:"skipped"`
	Elapsed  time.Duration `json:"-"`
	Millis   int64         `json:"elapsed_ms"`

	finalized bool
}

// NewReport starts an empty report for the given session parameters.
func NewReport(port string, baud int) *Report {
	return &Report{Started: time.Now(), Port: port, BaudRate: baud}
}

// Add appends a verdict. Panics if the report was already finalized;
// that is a harness bug, not a runtime condition.
func (r *Report) Add(v Verdict) {
	if r.finalized {
		panic("verdict added to finalized report")
	}
	r.Verdicts = append(r.Verdicts, v)
	switch v.Status {
	case StatusPassed:
		r.Passed++
	case StatusFailed:
		r.Failed++
	case StatusSkipped:
		r.Skipped++
	}
}

// Finalize seals the report.
func (r *Report) Finalize() {
	if r.finalized {
		return
	}
	r.Elapsed = time.Since(r.Started)
	r.Millis = r.Elapsed.Milliseconds()
	r.finalized = true
}

// Success reports overall success: every non-skipped scenario passed.
// Skipped scenarios are not failures but are flagged in the summary.
func (r *Report) Success() bool {
	return r.Failed == 0
}

// Summary renders the one-line human summary.
func (r *Report) Summary() string {
	s := fmt.Sprintf("%d passed, %d failed", r.Passed, r.Failed)
	if r.Skipped > 0 {
		s += fmt.Sprintf(", %d skipped", r.Skipped)
	}
	return s
}

// WriteJSON exports the report for machine consumption.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
