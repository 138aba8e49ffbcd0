// Package verify is the pattern-timeout verification engine: it awaits
// regular patterns on a live session under a deadline, extracts typed
// values from matched log text, and evaluates assertions over immutable
// buffer snapshots.
package verify

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/embertools/ember/internal/stream"
)

// pollInterval paces the await loop. Serial chunks arrive at arbitrary
// times; matching runs against the cumulative buffer, so the exact pace
// only affects detection latency.
const pollInterval = 20 * time.Millisecond

// Query is an immutable pattern-with-deadline. Build it with Compile so
// a bad expression fails fast, before any device session is opened.
type Query struct {
	Expr     string
	Deadline time.Duration
	re       *regexp.Regexp
}

// Compile builds a Query. Patterns are multiline: ^ and $ anchor to
// line boundaries, matching how device logs are read.
func Compile(expr string, deadline time.Duration) (Query, error) {
	return compile(expr, deadline, false)
}

// CompileFold is Compile with case-insensitive matching.
func CompileFold(expr string, deadline time.Duration) (Query, error) {
	return compile(expr, deadline, true)
}

func compile(expr string, deadline time.Duration, fold bool) (Query, error) {
	flags := "(?m)"
	if fold {
		flags = "(?mi)"
	}
	re, err := regexp.Compile(flags + expr)
	if err != nil {
		return Query{}, fmt.Errorf("bad pattern %q: %w", expr, err)
	}
	if deadline <= 0 {
		return Query{}, fmt.Errorf("pattern %q: deadline must be positive", expr)
	}
	return Query{Expr: expr, Deadline: deadline, re: re}, nil
}

// MustCompile is Compile for patterns known good at build time (tests,
// fixed internal probes). Panics on error.
func MustCompile(expr string, deadline time.Duration) Query {
	q, err := Compile(expr, deadline)
	if err != nil {
		panic(err)
	}
	return q
}

// Result is the outcome of awaiting one or more queries.
type Result struct {
	Found        bool
	Matched      string // exact text of the leftmost match
	Pos          int64  // absolute stream offset where the match begins
	Snapshot     string // buffer contents at return time, set in every case
	TimedOut     bool
	Cancelled    bool
	Disconnected bool
	Elapsed      time.Duration
}

// Await pumps the session and scans the whole buffer until the pattern
// appears, the deadline elapses, the run is cancelled, or the device
// disconnects. The buffer is pinned for the duration so eviction cannot
// race an in-flight search.
func Await(ctx context.Context, sess *stream.Session, q Query) Result {
	_, res := AwaitAny(ctx, sess, q.Deadline, q)
	return res
}

// AwaitAny races several queries against a shared deadline and returns
// the index of the first pattern found along with the result. The index
// is -1 when nothing matched. Used for success/failure signal races
// ("operational" vs "panic").
func AwaitAny(ctx context.Context, sess *stream.Session, deadline time.Duration, queries ...Query) (int, Result) {
	start := time.Now()
	buf := sess.Buffer()
	pin := buf.Pin()
	defer pin.Release()

	finish := func(r Result) Result {
		r.Snapshot = buf.Snapshot()
		r.Elapsed = time.Since(start)
		return r
	}

	for {
		if ctx.Err() != nil {
			return -1, finish(Result{Cancelled: true, TimedOut: true})
		}

		if err := sess.Pump(); err != nil {
			return -1, finish(Result{Disconnected: true, TimedOut: true})
		}

		text := buf.String()
		for i, q := range queries {
			loc := q.re.FindStringIndex(text)
			if loc == nil {
				continue
			}
			return i, finish(Result{
				Found:   true,
				Matched: text[loc[0]:loc[1]],
				Pos:     buf.Start() + int64(loc[0]),
			})
		}

		if time.Since(start) >= deadline {
			return -1, finish(Result{TimedOut: true})
		}

		select {
		case <-ctx.Done():
			return -1, finish(Result{Cancelled: true, TimedOut: true})
		case <-time.After(pollInterval):
		}
	}
}
