package stream

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferAppendAndOffsets(t *testing.T) {
	b := NewBuffer(0)
	b.Append("boot: ")
	b.Append("ok\n")

	assert.Equal(t, "boot: ok\n", b.String())
	assert.Equal(t, int64(0), b.Start())
	assert.Equal(t, int64(9), b.End())
	assert.Equal(t, 9, b.Len())
}

func TestBufferEvictsOldestWhenOverCap(t *testing.T) {
	b := NewBuffer(10)
	b.Append("0123456789")
	b.Append("abcde")

	assert.Equal(t, "56789abcde", b.String())
	assert.Equal(t, int64(5), b.Start())
	assert.Equal(t, int64(15), b.End())
}

func TestBufferNeverExceedsCap(t *testing.T) {
	b := NewBuffer(64)
	for i := 0; i < 1000; i++ {
		b.Append("sensor tick with a fairly long line of log text\n")
	}
	assert.LessOrEqual(t, b.Len(), 64)
}

func TestBufferPinBlocksEviction(t *testing.T) {
	b := NewBuffer(10)
	pin := b.Pin()
	b.Append("0123456789")
	b.Append("abcde")

	// Everything since the pin is retained even though the cap is 10.
	assert.Equal(t, "0123456789abcde", b.String())

	pin.Release()
	b.Append("XY")
	assert.Equal(t, 10, b.Len())
	assert.True(t, strings.HasSuffix(b.String(), "XY"))
}

func TestBufferPinMidStream(t *testing.T) {
	b := NewBuffer(8)
	b.Append("aaaa")
	pin := b.Pin()
	b.Append("bbbbbbbb")

	// Only data before the pin may be evicted.
	assert.Equal(t, "bbbbbbbb", b.String())
	assert.Equal(t, int64(4), b.Start())
	pin.Release()
}

func TestBufferResetRefusedWhilePinned(t *testing.T) {
	b := NewBuffer(0)
	b.Append("data")
	pin := b.Pin()

	require.Error(t, b.Reset())

	pin.Release()
	require.NoError(t, b.Reset())
	assert.Equal(t, "", b.String())
	// Absolute offsets keep counting across resets.
	assert.Equal(t, int64(4), b.Start())
}

func TestSnapshotIsStable(t *testing.T) {
	b := NewBuffer(0)
	b.Append("first")
	snap := b.Snapshot()
	b.Append(" second")

	assert.Equal(t, "first", snap)
	assert.Equal(t, "first second", b.Snapshot())
}
