// Package scenario sequences verification scenarios over one device
// session and aggregates their verdicts into a run report.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/embertools/ember/internal/verify"
)

// ErrMalformedSuite reports a suite file that cannot be turned into
// runnable scenarios: bad YAML, bad pattern syntax, invalid bounds.
// Detected before any device session is opened.
var ErrMalformedSuite = errors.New("malformed suite")

// ResetMode states what a scenario needs from the device's reset line.
type ResetMode string

const (
	ResetNone ResetMode = "none" // run against the log as it comes
	ResetSoft ResetMode = "soft" // reset if the controller can, shrug if not
	ResetHard ResetMode = "hard" // reset required; skip when unsupported
)

// Scenario is one verdict-producing test case: a set of racing wait-for
// patterns plus assertions evaluated over the evidence collected.
type Scenario struct {
	Name        string
	Reset       ResetMode
	ClearBuffer bool // drop prior scenarios' log before waiting
	Timeout     time.Duration
	WaitFor     []verify.Query // disjunctive; first hit ends the wait
	Assertions  []verify.Assertion
}

// suiteFile is the YAML shape of a scenario suite.
type suiteFile struct {
	Scenarios []scenarioSpec `yaml:"scenarios"`
}

type scenarioSpec struct {
	Name            string          `yaml:"name"`
	Reset           string          `yaml:"reset"`
	ClearBuffer     bool            `yaml:"clear_buffer"`
	TimeoutSeconds  int             `yaml:"timeout_seconds"`
	CaseInsensitive bool            `yaml:"case_insensitive"`
	WaitFor         []string        `yaml:"wait_for"`
	Assertions      []assertionSpec `yaml:"assertions"`
}

type assertionSpec struct {
	Type       string   `yaml:"type"` // contain | not_contain | extract_in_range | min_occurrences
	Pattern    string   `yaml:"pattern"`
	Qualifiers []string `yaml:"qualifiers"`
	Field      string   `yaml:"field"`
	Min        float64  `yaml:"min"`
	Max        float64  `yaml:"max"`
	Count      int      `yaml:"count"`
}

// LoadSuite reads and validates a YAML suite file. defaultTimeout
// applies to scenarios that do not set their own.
func LoadSuite(path string, defaultTimeout time.Duration) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSuite, err)
	}
	return ParseSuite(data, defaultTimeout)
}

// ParseSuite builds scenarios from suite YAML, failing fast on the
// first invalid pattern or bound.
func ParseSuite(data []byte, defaultTimeout time.Duration) ([]Scenario, error) {
	var f suiteFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSuite, err)
	}
	if len(f.Scenarios) == 0 {
		return nil, fmt.Errorf("%w: no scenarios defined", ErrMalformedSuite)
	}

	scenarios := make([]Scenario, 0, len(f.Scenarios))
	for i, spec := range f.Scenarios {
		sc, err := buildScenario(spec, defaultTimeout)
		if err != nil {
			name := spec.Name
			if name == "" {
				name = fmt.Sprintf("#%d", i+1)
			}
			return nil, fmt.Errorf("%w: scenario %s: %v", ErrMalformedSuite, name, err)
		}
		scenarios = append(scenarios, sc)
	}
	return scenarios, nil
}

func buildScenario(spec scenarioSpec, defaultTimeout time.Duration) (Scenario, error) {
	if spec.Name == "" {
		return Scenario{}, errors.New("missing name")
	}

	reset := ResetNone
	switch spec.Reset {
	case "", "none":
	case "soft":
		reset = ResetSoft
	case "hard":
		reset = ResetHard
	default:
		return Scenario{}, fmt.Errorf("unknown reset mode %q", spec.Reset)
	}

	timeout := defaultTimeout
	if spec.TimeoutSeconds > 0 {
		timeout = time.Duration(spec.TimeoutSeconds) * time.Second
	}
	if timeout <= 0 {
		return Scenario{}, fmt.Errorf("timeout must be positive, got %v", timeout)
	}
	if len(spec.WaitFor) == 0 {
		return Scenario{}, errors.New("wait_for must list at least one pattern")
	}

	sc := Scenario{
		Name:        spec.Name,
		Reset:       reset,
		ClearBuffer: spec.ClearBuffer,
		Timeout:     timeout,
	}

	for _, expr := range spec.WaitFor {
		var (
			q   verify.Query
			err error
		)
		if spec.CaseInsensitive {
			q, err = verify.CompileFold(expr, timeout)
		} else {
			q, err = verify.Compile(expr, timeout)
		}
		if err != nil {
			return Scenario{}, err
		}
		sc.WaitFor = append(sc.WaitFor, q)
	}

	for _, as := range spec.Assertions {
		a, err := buildAssertion(as)
		if err != nil {
			return Scenario{}, err
		}
		sc.Assertions = append(sc.Assertions, a)
	}
	return sc, nil
}

func buildAssertion(spec assertionSpec) (verify.Assertion, error) {
	switch spec.Type {
	case "contain":
		return verify.NewMustContain(spec.Pattern)
	case "not_contain":
		return verify.NewMustNotContain(spec.Pattern, spec.Qualifiers)
	case "extract_in_range":
		if spec.Field == "" {
			return nil, errors.New("extract_in_range needs a field")
		}
		return verify.NewExtractInRange(spec.Pattern, spec.Field, spec.Min, spec.Max)
	case "min_occurrences":
		return verify.NewMinOccurrences(spec.Pattern, spec.Count)
	default:
		return nil, fmt.Errorf("unknown assertion type %q", spec.Type)
	}
}
