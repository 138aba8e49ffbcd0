package verify

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// evidenceLimit caps recorded excerpts so verdicts stay readable.
const evidenceLimit = 200

// Outcome records one assertion evaluation, pass or fail. Nothing is
// silently swallowed: every evaluation carries its evidence.
type Outcome struct {
	Assertion string `json:"assertion"`
	Passed    bool   `json:"passed"`
	Evidence  string `json:"evidence,omitempty"`
}

// Assertion is a pure function of a captured buffer snapshot. Evaluating
// the same assertion twice against the same snapshot yields identical
// outcomes.
type Assertion interface {
	Describe() string
	Eval(snapshot string) Outcome
}

// MustContain passes iff the pattern is found anywhere in the snapshot.
type mustContain struct {
	expr string
	re   *regexp.Regexp
}

// NewMustContain builds a must-appear assertion. The pattern is
// multiline like every query in this package.
func NewMustContain(expr string) (Assertion, error) {
	re, err := regexp.Compile("(?m)" + expr)
	if err != nil {
		return nil, fmt.Errorf("bad pattern %q: %w", expr, err)
	}
	return &mustContain{expr: expr, re: re}, nil
}

func (a *mustContain) Describe() string {
	return fmt.Sprintf("must contain %q", a.expr)
}

func (a *mustContain) Eval(snapshot string) Outcome {
	o := Outcome{Assertion: a.Describe()}
	if loc := a.re.FindStringIndex(snapshot); loc != nil {
		o.Passed = true
		o.Evidence = clip(snapshot[loc[0]:loc[1]])
	} else {
		o.Evidence = "pattern never appeared"
	}
	return o
}

// mustNotContain passes iff the pattern is absent, or every occurrence
// shares its line with one of the allowed qualifier substrings. The
// context window for qualifiers is the matching line; it encodes
// "feature X may be mentioned only while explaining it is disabled".
type mustNotContain struct {
	expr       string
	re         *regexp.Regexp
	qualifiers []string
}

// NewMustNotContain builds a must-not-appear assertion with optional
// allowed qualifiers.
func NewMustNotContain(expr string, qualifiers []string) (Assertion, error) {
	re, err := regexp.Compile("(?m)" + expr)
	if err != nil {
		return nil, fmt.Errorf("bad pattern %q: %w", expr, err)
	}
	return &mustNotContain{expr: expr, re: re, qualifiers: qualifiers}, nil
}

func (a *mustNotContain) Describe() string {
	if len(a.qualifiers) > 0 {
		return fmt.Sprintf("must not contain %q unless qualified by %v", a.expr, a.qualifiers)
	}
	return fmt.Sprintf("must not contain %q", a.expr)
}

func (a *mustNotContain) Eval(snapshot string) Outcome {
	o := Outcome{Assertion: a.Describe()}
	locs := a.re.FindAllStringIndex(snapshot, -1)
	if locs == nil {
		o.Passed = true
		o.Evidence = "pattern absent"
		return o
	}

	for _, loc := range locs {
		line := lineAround(snapshot, loc[0])
		if !a.qualified(line) {
			o.Evidence = clip(line)
			return o
		}
	}
	o.Passed = true
	o.Evidence = fmt.Sprintf("%d occurrence(s), all qualified", len(locs))
	return o
}

func (a *mustNotContain) qualified(line string) bool {
	for _, q := range a.qualifiers {
		if strings.Contains(line, q) {
			return true
		}
	}
	return false
}

// extractInRange delegates to the value extractor: passes iff the field
// extracts and lands inside [min, max] inclusive.
type extractInRange struct {
	expr     string
	field    string
	min, max float64
}

// NewExtractInRange builds a numeric-extraction assertion.
func NewExtractInRange(expr, field string, min, max float64) (Assertion, error) {
	if _, err := regexp.Compile(expr); err != nil {
		return nil, fmt.Errorf("bad pattern %q: %w", expr, err)
	}
	if min > max {
		return nil, fmt.Errorf("invalid range [%v, %v] for field %s", min, max, field)
	}
	return &extractInRange{expr: expr, field: field, min: min, max: max}, nil
}

func (a *extractInRange) Describe() string {
	return fmt.Sprintf("field %s of %q within [%v, %v]", a.field, a.expr, a.min, a.max)
}

func (a *extractInRange) Eval(snapshot string) Outcome {
	o := Outcome{Assertion: a.Describe()}
	v, err := ExtractInRange(snapshot, a.expr, a.field, a.min, a.max)

	var rangeErr *RangeError
	switch {
	case err == nil:
		o.Passed = true
		o.Evidence = fmt.Sprintf("%s = %v", a.field, v.Num)
	case errors.As(err, &rangeErr):
		o.Evidence = fmt.Sprintf("out of range: %v", rangeErr)
	case errors.Is(err, ErrNoMatch):
		o.Evidence = "extraction failed: " + err.Error()
	default:
		o.Evidence = err.Error()
	}
	return o
}

// minOccurrences passes iff the pattern matches at least n times
// (non-overlapping) in the snapshot.
type minOccurrences struct {
	expr string
	re   *regexp.Regexp
	n    int
}

// NewMinOccurrences builds a counting assertion.
func NewMinOccurrences(expr string, n int) (Assertion, error) {
	re, err := regexp.Compile("(?m)" + expr)
	if err != nil {
		return nil, fmt.Errorf("bad pattern %q: %w", expr, err)
	}
	if n < 1 {
		return nil, fmt.Errorf("occurrence count must be >= 1, got %d", n)
	}
	return &minOccurrences{expr: expr, re: re, n: n}, nil
}

func (a *minOccurrences) Describe() string {
	return fmt.Sprintf("at least %d occurrence(s) of %q", a.n, a.expr)
}

func (a *minOccurrences) Eval(snapshot string) Outcome {
	o := Outcome{Assertion: a.Describe()}
	count := len(a.re.FindAllString(snapshot, -1))
	o.Evidence = fmt.Sprintf("found %d", count)
	o.Passed = count >= a.n
	return o
}

// EvalAll runs every assertion against the snapshot, never
// short-circuiting, so one run surfaces every failure.
func EvalAll(snapshot string, assertions []Assertion) []Outcome {
	outcomes := make([]Outcome, 0, len(assertions))
	for _, a := range assertions {
		outcomes = append(outcomes, a.Eval(snapshot))
	}
	return outcomes
}

// lineAround returns the full line containing byte offset pos.
func lineAround(s string, pos int) string {
	start := strings.LastIndexByte(s[:pos], '\n') + 1
	end := strings.IndexByte(s[pos:], '\n')
	if end < 0 {
		return s[start:]
	}
	return s[start : pos+end]
}

func clip(s string) string {
	if len(s) <= evidenceLimit {
		return s
	}
	return s[:evidenceLimit] + "…"
}
