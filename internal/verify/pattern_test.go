package verify

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embertools/ember/internal/stream"
)

// feedPort hands out one scripted chunk per read, then stays quiet or
// fails, mimicking a serial port with a short read timeout.
type feedPort struct {
	chunks []string
	err    error
}

func (p *feedPort) Read(buf []byte) (int, error) {
	if len(p.chunks) == 0 {
		if p.err != nil {
			return 0, p.err
		}
		return 0, nil
	}
	n := copy(buf, p.chunks[0])
	p.chunks = p.chunks[1:]
	return n, nil
}

func (p *feedPort) Close() error { return nil }

func session(chunks ...string) *stream.Session {
	return stream.NewSession("fake", 115200, &feedPort{chunks: chunks}, 0)
}

func TestCompileRejectsBadPattern(t *testing.T) {
	_, err := Compile("(unclosed", time.Second)
	require.Error(t, err)

	_, err = Compile("ok", 0)
	require.Error(t, err)
}

func TestAwaitFindsPatternSpanningChunks(t *testing.T) {
	// The signal straddles a read boundary; matching the cumulative
	// buffer must still find it.
	sess := session("Community Edition Opé", "rationnel\n")
	q := MustCompile(`Community Edition Opérationnel`, time.Second)

	res := Await(context.Background(), sess, q)

	require.True(t, res.Found)
	assert.Equal(t, "Community Edition Opérationnel", res.Matched)
	assert.False(t, res.TimedOut)
	assert.Equal(t, "Community Edition Opérationnel\n", res.Snapshot)
}

func TestAwaitReturnsLeftmostMatch(t *testing.T) {
	sess := session("tick 1\ntick 2\ntick 3\n")
	q := MustCompile(`tick \d`, time.Second)

	res := Await(context.Background(), sess, q)

	require.True(t, res.Found)
	assert.Equal(t, "tick 1", res.Matched)
	assert.Equal(t, int64(0), res.Pos)
}

func TestAwaitMultilineAnchors(t *testing.T) {
	sess := session("noise I (123) boot: done\nI (124) next\n")
	q := MustCompile(`^I \(\d+\) next$`, time.Second)

	res := Await(context.Background(), sess, q)
	require.True(t, res.Found)
	assert.Equal(t, "I (124) next", res.Matched)
}

func TestAwaitTimeoutReturnsFullSnapshot(t *testing.T) {
	sess := session("some noise\nmore noise\n")
	q := MustCompile(`never appears`, 80*time.Millisecond)

	res := Await(context.Background(), sess, q)

	assert.False(t, res.Found)
	assert.True(t, res.TimedOut)
	assert.Equal(t, "some noise\nmore noise\n", res.Snapshot)
	assert.GreaterOrEqual(t, res.Elapsed, 80*time.Millisecond)
}

func TestAwaitCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sess := session()
	q := MustCompile(`anything`, time.Minute)

	res := Await(ctx, sess, q)
	assert.True(t, res.Cancelled)
	assert.True(t, res.TimedOut)
	assert.False(t, res.Found)
}

func TestAwaitDisconnect(t *testing.T) {
	port := &feedPort{chunks: []string{"partial log\n"}, err: io.EOF}
	sess := stream.NewSession("fake", 115200, port, 0)
	q := MustCompile(`never`, time.Minute)

	res := Await(context.Background(), sess, q)

	assert.True(t, res.Disconnected)
	assert.Equal(t, "partial log\n", res.Snapshot)
}

func TestAwaitAnyReturnsFirstPatternFound(t *testing.T) {
	sess := session("E (99) boot: panic, rebooting\n")
	success := MustCompile(`boot: operational`, time.Second)
	failure := MustCompile(`boot: panic`, time.Second)

	idx, res := AwaitAny(context.Background(), sess, time.Second, success, failure)

	assert.Equal(t, 1, idx)
	require.True(t, res.Found)
	assert.Equal(t, "boot: panic", res.Matched)
}

func TestAwaitAnyAggregateTimeout(t *testing.T) {
	sess := session("nothing interesting\n")
	a := MustCompile(`alpha`, time.Second)
	b := MustCompile(`beta`, time.Second)

	idx, res := AwaitAny(context.Background(), sess, 60*time.Millisecond, a, b)

	assert.Equal(t, -1, idx)
	assert.True(t, res.TimedOut)
	assert.Equal(t, "nothing interesting\n", res.Snapshot)
}

func TestAwaitPinsBufferAgainstEviction(t *testing.T) {
	// Retention cap far smaller than the stream; the in-flight query
	// must still see the early signal.
	chunks := []string{"noise noise noise\n"}
	for i := 0; i < 50; i++ {
		chunks = append(chunks, "filler line of uninteresting log output\n")
	}
	chunks = append(chunks, "the signal appears here\n")
	sess := stream.NewSession("fake", 115200, &feedPort{chunks: chunks}, 64)
	q := MustCompile(`the signal appears here`, 10*time.Second)

	res := Await(context.Background(), sess, q)
	require.True(t, res.Found)
	// The pin kept everything since the query started despite the cap.
	assert.Contains(t, res.Snapshot, "noise noise noise")
}
