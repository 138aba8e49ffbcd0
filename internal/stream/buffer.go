// Package stream owns the byte channel to a device: a rolling buffer of
// decoded log text, a non-blocking reader that feeds it, and the session
// that ties both to one open port.
//
// The buffer is deliberately not synchronized. The orchestrator enforces
// a single-writer, single-scanner discipline: one goroutine pumps and
// scans a session at a time.
package stream

import (
	"fmt"
)

// Buffer is the rolling decoded-text buffer for one session. It is
// append-only while a scenario runs and may be cleared only at scenario
// boundaries. When a retention cap is set, the oldest data is evicted on
// append, except data covered by an outstanding Pin.
type Buffer struct {
	data  []byte
	start int64 // absolute stream offset of data[0]
	max   int   // retention cap in bytes, 0 = unbounded
	pins  map[*Pin]struct{}
}

// Pin marks a stream offset that eviction must not cross. It is held by
// an in-flight pattern query for its lifetime.
type Pin struct {
	buf    *Buffer
	offset int64
}

// NewBuffer returns an empty buffer retaining at most maxBytes of
// decoded text. maxBytes <= 0 disables eviction.
func NewBuffer(maxBytes int) *Buffer {
	return &Buffer{max: maxBytes, pins: make(map[*Pin]struct{})}
}

// Append adds decoded text to the end of the buffer and evicts the
// oldest unpinned data if the retention cap is exceeded.
func (b *Buffer) Append(text string) {
	if text == "" {
		return
	}
	b.data = append(b.data, text...)
	b.evict()
}

func (b *Buffer) evict() {
	if b.max <= 0 || len(b.data) <= b.max {
		return
	}
	drop := len(b.data) - b.max
	if floor := b.pinFloor(); floor >= 0 {
		// Never evict past the lowest pinned offset.
		pinned := int(floor - b.start)
		if pinned < 0 {
			pinned = 0
		}
		if drop > pinned {
			drop = pinned
		}
	}
	if drop <= 0 {
		return
	}
	b.data = b.data[drop:]
	b.start += int64(drop)
}

// pinFloor returns the lowest pinned offset, or -1 when unpinned.
func (b *Buffer) pinFloor() int64 {
	floor := int64(-1)
	for p := range b.pins {
		if floor < 0 || p.offset < floor {
			floor = p.offset
		}
	}
	return floor
}

// Pin protects everything from the current end of the stream onward
// from eviction until released.
func (b *Buffer) Pin() *Pin {
	p := &Pin{buf: b, offset: b.End()}
	b.pins[p] = struct{}{}
	return p
}

// Release drops the pin. Safe to call more than once.
func (p *Pin) Release() {
	delete(p.buf.pins, p)
}

// String returns the currently retained text.
func (b *Buffer) String() string {
	return string(b.data)
}

// Snapshot returns an immutable copy of the retained text for assertion
// evaluation.
func (b *Buffer) Snapshot() string {
	return string(b.data)
}

// Len returns the number of retained bytes.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Start returns the absolute stream offset of the first retained byte.
func (b *Buffer) Start() int64 {
	return b.start
}

// End returns the absolute stream offset one past the last byte seen.
func (b *Buffer) End() int64 {
	return b.start + int64(len(b.data))
}

// Reset clears the buffer at a scenario boundary. It refuses while any
// pattern query still holds a pin, since an in-flight search must never
// lose data underneath it.
func (b *Buffer) Reset() error {
	if len(b.pins) > 0 {
		return fmt.Errorf("buffer reset with %d pattern query pin(s) outstanding", len(b.pins))
	}
	b.start = b.End()
	b.data = b.data[:0]
	return nil
}
