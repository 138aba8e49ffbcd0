package scenario

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSuite = `
scenarios:
  - name: boot sequence
    reset: hard
    timeout_seconds: 45
    wait_for:
      - "Community Edition Opérationnel"
    assertions:
      - type: contain
        pattern: "Crypto de base initialisé"
      - type: contain
        pattern: "Vérification intégrité initiale réussie"
  - name: no enterprise features
    wait_for:
      - "Community Edition"
    assertions:
      - type: not_contain
        pattern: "TRNG|Hardware Security Module|Secure Boot v2"
        qualifiers: ["non disponible", "Enterprise"]
  - name: sensor range
    clear_buffer: true
    wait_for:
      - "Données capteur:"
    assertions:
      - type: extract_in_range
        pattern: "T=([\\d.-]+)°C"
        field: "1"
        min: -40
        max: 80
      - type: min_occurrences
        pattern: "Données capteur:"
        count: 1
`

func TestParseSuite(t *testing.T) {
	scenarios, err := ParseSuite([]byte(sampleSuite), 30*time.Second)
	require.NoError(t, err)
	require.Len(t, scenarios, 3)

	boot := scenarios[0]
	assert.Equal(t, "boot sequence", boot.Name)
	assert.Equal(t, ResetHard, boot.Reset)
	assert.Equal(t, 45*time.Second, boot.Timeout)
	assert.Len(t, boot.WaitFor, 1)
	assert.Len(t, boot.Assertions, 2)

	// Default timeout applies when unset.
	assert.Equal(t, 30*time.Second, scenarios[1].Timeout)
	assert.Equal(t, ResetNone, scenarios[1].Reset)
	assert.True(t, scenarios[2].ClearBuffer)
}

func TestParseSuiteBadPatternFailsFast(t *testing.T) {
	suite := `
scenarios:
  - name: broken
    wait_for: ["(unclosed"]
`
	_, err := ParseSuite([]byte(suite), time.Second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedSuite))
	assert.Contains(t, err.Error(), "broken")
}

func TestParseSuiteBadAssertion(t *testing.T) {
	cases := map[string]string{
		"unknown type": `
scenarios:
  - name: s
    wait_for: ["x"]
    assertions:
      - type: fuzzy_match
        pattern: "x"
`,
		"inverted range": `
scenarios:
  - name: s
    wait_for: ["x"]
    assertions:
      - type: extract_in_range
        pattern: "T=(\\d+)"
        field: "1"
        min: 10
        max: 1
`,
		"missing field": `
scenarios:
  - name: s
    wait_for: ["x"]
    assertions:
      - type: extract_in_range
        pattern: "T=(\\d+)"
`,
		"zero count": `
scenarios:
  - name: s
    wait_for: ["x"]
    assertions:
      - type: min_occurrences
        pattern: "x"
        count: 0
`,
	}
	for name, suite := range cases {
		_, err := ParseSuite([]byte(suite), time.Second)
		assert.True(t, errors.Is(err, ErrMalformedSuite), name)
	}
}

func TestParseSuiteRejectsEmptyAndInvalid(t *testing.T) {
	_, err := ParseSuite([]byte("scenarios: []"), time.Second)
	assert.True(t, errors.Is(err, ErrMalformedSuite))

	_, err = ParseSuite([]byte("{not yaml"), time.Second)
	assert.True(t, errors.Is(err, ErrMalformedSuite))

	_, err = ParseSuite([]byte("scenarios: [{name: x}]"), time.Second)
	assert.True(t, errors.Is(err, ErrMalformedSuite), "wait_for required")

	_, err = ParseSuite([]byte("scenarios: [{wait_for: [x]}]"), time.Second)
	assert.True(t, errors.Is(err, ErrMalformedSuite), "name required")

	_, err = ParseSuite([]byte("scenarios: [{name: x, wait_for: [y], reset: warm}]"), time.Second)
	assert.True(t, errors.Is(err, ErrMalformedSuite), "unknown reset mode")
}

func TestLoadSuiteFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleSuite), 0o644))

	scenarios, err := LoadSuite(path, 30*time.Second)
	require.NoError(t, err)
	assert.Len(t, scenarios, 3)

	_, err = LoadSuite(filepath.Join(t.TempDir(), "absent.yaml"), 30*time.Second)
	assert.True(t, errors.Is(err, ErrMalformedSuite))
}

func TestReportCountsAndSummary(t *testing.T) {
	r := NewReport("/dev/ttyUSB0", 115200)
	r.Add(Verdict{Scenario: "a", Status: StatusPassed})
	r.Add(Verdict{Scenario: "b", Status: StatusFailed})
	r.Add(Verdict{Scenario: "c", Status: StatusSkipped})
	r.Finalize()

	assert.Equal(t, "1 passed, 1 failed, 1 skipped", r.Summary())
	assert.False(t, r.Success())
}

func TestReportSkippedDoesNotFailRun(t *testing.T) {
	r := NewReport("", 0)
	r.Add(Verdict{Scenario: "a", Status: StatusPassed})
	r.Add(Verdict{Scenario: "b", Status: StatusSkipped})
	r.Finalize()

	assert.True(t, r.Success())
	assert.Equal(t, "1 passed, 0 failed, 1 skipped", r.Summary())
}

func TestReportJSONExport(t *testing.T) {
	r := NewReport("/dev/ttyUSB0", 115200)
	r.Add(Verdict{
		Scenario: "boot",
		Status:   StatusPassed,
		Elapsed:  1500 * time.Millisecond,
	})
	r.Finalize()

	var buf bytes.Buffer
	require.NoError(t, r.WriteJSON(&buf))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "/dev/ttyUSB0", decoded["port"])

	verdicts := decoded["verdicts"].([]any)
	v := verdicts[0].(map[string]any)
	assert.Equal(t, "boot", v["scenario"])
	assert.Equal(t, float64(1500), v["elapsed_ms"])
}

func TestReportAddAfterFinalizePanics(t *testing.T) {
	r := NewReport("", 0)
	r.Finalize()
	assert.Panics(t, func() { r.Add(Verdict{}) })
}
