// Package history persists run records and full reports under the
// workspace .ember/ directory.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/embertools/ember/internal/scenario"
)

// RunRecord summarizes one verification run for the history listing.
type RunRecord struct {
	Timestamp  time.Time `json:"timestamp"`
	Port       string    `json:"port"`
	Suite      string    `json:"suite"`
	Passed     int       `json:"passed"`
	Failed     int       `json:"failed"`
	Skipped    int       `json:"skipped"`
	Duration   string    `json:"duration"`
	ReportFile string    `json:"report_file,omitempty"`
}

// Store manages persistence of run records and saved reports.
type Store struct {
	root string
	mu   sync.Mutex
}

// New creates a Store rooted at the given directory (typically .ember/).
func New(root string) *Store {
	return &Store{root: root}
}

// AddRun appends a run record.
func (s *Store) AddRun(r RunRecord) error {
	return s.appendRecord("runs.json", r)
}

// Runs returns all recorded runs, oldest first.
func (s *Store) Runs() ([]RunRecord, error) {
	var records []RunRecord
	err := s.loadRecords("runs.json", &records)
	return records, err
}

// SaveReport writes a full report to the reports directory and records
// the run. Returns the report file path.
func (s *Store) SaveReport(report *scenario.Report, suite string) (string, error) {
	dir := filepath.Join(s.root, "reports")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	name := fmt.Sprintf("report-%s.json", report.Started.Format("20060102-150405"))
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := report.WriteJSON(f); err != nil {
		return "", err
	}

	err = s.AddRun(RunRecord{
		Timestamp:  report.Started,
		Port:       report.Port,
		Suite:      suite,
		Passed:     report.Passed,
		Failed:     report.Failed,
		Skipped:    report.Skipped,
		Duration:   report.Elapsed.Round(time.Millisecond).String(),
		ReportFile: path,
	})
	return path, err
}

func (s *Store) appendRecord(filename string, record any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Join(s.root, "history")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	path := filepath.Join(dir, filename)

	var records []json.RawMessage
	if data, err := os.ReadFile(path); err == nil {
		json.Unmarshal(data, &records)
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	records = append(records, raw)

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *Store) loadRecords(filename string, dest any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.root, "history", filename)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return json.Unmarshal(data, dest)
}
