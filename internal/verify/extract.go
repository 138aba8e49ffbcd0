package verify

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// ErrNoMatch reports that the extraction pattern found nothing at all.
// Distinct from a RangeError: a missing field is a parsing failure, a
// present-but-implausible value is a device failure.
var ErrNoMatch = errors.New("extraction pattern not found")

// RangeError reports a numeric field outside its declared bounds.
type RangeError struct {
	Field    string
	Value    float64
	Min, Max float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("field %s: value %v outside [%v, %v]", e.Field, e.Value, e.Min, e.Max)
}

// Value is a field pulled out of matched log text.
type Value struct {
	Field   string
	Raw     string
	Num     float64
	Numeric bool
}

// Extract pulls the named (or 1-based indexed) capture group of expr
// out of text. Numeric-looking fields are converted; non-numeric ones
// are returned as strings with Numeric false.
func Extract(text, expr, field string) (Value, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return Value{}, fmt.Errorf("bad extraction pattern %q: %w", expr, err)
	}
	m := re.FindStringSubmatch(text)
	if m == nil {
		return Value{}, ErrNoMatch
	}

	raw, err := groupValue(re, m, field)
	if err != nil {
		return Value{}, err
	}

	v := Value{Field: field, Raw: raw}
	if num, err := strconv.ParseFloat(raw, 64); err == nil {
		v.Num = num
		v.Numeric = true
	}
	return v, nil
}

// ExtractInRange extracts a numeric field and validates it against the
// inclusive range [min, max].
func ExtractInRange(text, expr, field string, min, max float64) (Value, error) {
	v, err := Extract(text, expr, field)
	if err != nil {
		return Value{}, err
	}
	if !v.Numeric {
		return Value{}, fmt.Errorf("field %s: %w: %q is not numeric", field, ErrNoMatch, v.Raw)
	}
	if v.Num < min || v.Num > max {
		return v, &RangeError{Field: field, Value: v.Num, Min: min, Max: max}
	}
	return v, nil
}

func groupValue(re *regexp.Regexp, m []string, field string) (string, error) {
	if idx, err := strconv.Atoi(field); err == nil {
		if idx < 1 || idx >= len(m) {
			return "", fmt.Errorf("capture group %d out of range (pattern has %d groups)", idx, len(m)-1)
		}
		return m[idx], nil
	}
	for i, name := range re.SubexpNames() {
		if name == field && i < len(m) {
			return m[i], nil
		}
	}
	return "", fmt.Errorf("no capture group named %q", field)
}
