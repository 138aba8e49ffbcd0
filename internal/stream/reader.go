package stream

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrDisconnected reports that the device dropped off the bus mid-run.
// It fails the scenario that was waiting, not the whole harness.
var ErrDisconnected = errors.New("device disconnected")

// Port is the minimal read surface the reader needs. Implementations
// must not block indefinitely: a read with nothing available returns
// (0, nil) after a short internal timeout, the way go.bug.st/serial
// behaves with SetReadTimeout.
type Port interface {
	Read(p []byte) (int, error)
	Close() error
}

// Reader drains whatever bytes are currently available from a port,
// decodes them permissively and appends the text to the buffer.
type Reader struct {
	port    Port
	buf     *Buffer
	chunk   []byte
	pending []byte // trailing bytes of a UTF-8 sequence split across reads
	down    bool
}

// NewReader wires a port to a buffer.
func NewReader(port Port, buf *Buffer) *Reader {
	return &Reader{
		port:  port,
		buf:   buf,
		chunk: make([]byte, 4096),
	}
}

// Pump performs one poll: read whatever is available and append the
// decoded text. Returns nil when nothing arrived. A port-level failure
// is reported as ErrDisconnected and the reader stays down afterwards.
func (r *Reader) Pump() error {
	if r.down {
		return ErrDisconnected
	}
	n, err := r.port.Read(r.chunk)
	if n > 0 {
		r.buf.Append(r.decode(r.chunk[:n]))
	}
	if err != nil {
		r.down = true
		return fmt.Errorf("%w: %v", ErrDisconnected, err)
	}
	return nil
}

// Disconnected reports whether a previous pump hit a port failure.
func (r *Reader) Disconnected() bool {
	return r.down
}

// decode converts raw bytes to text, dropping invalid sequences instead
// of failing the session. Carriage returns are dropped so line-anchored
// patterns see plain \n endings. An incomplete multi-byte rune at the
// end of a chunk is held back until the next read completes it.
func (r *Reader) decode(raw []byte) string {
	src := raw
	if len(r.pending) > 0 {
		src = append(r.pending, raw...)
		r.pending = nil
	}

	out := make([]byte, 0, len(src))
	for len(src) > 0 {
		ru, size := utf8.DecodeRune(src)
		if ru == utf8.RuneError && size == 1 {
			if !utf8.FullRune(src) && len(src) < utf8.UTFMax {
				// Possibly the start of a rune whose tail has not
				// arrived yet; keep it for the next chunk.
				r.pending = append(r.pending, src...)
				break
			}
			src = src[1:] // genuinely invalid byte, drop it
			continue
		}
		if ru != '\r' {
			out = append(out, src[:size]...)
		}
		src = src[size:]
	}
	return string(out)
}
