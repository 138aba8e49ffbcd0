// Package device implements the lifecycle side of the harness: opening
// the serial stream to a unit under test, forcing a fresh boot, and
// closing it again. The verification engine only ever sees the
// Controller interface, so tests and replay runs substitute their own.
package device

import (
	"errors"

	"github.com/embertools/ember/internal/stream"
)

// ErrUnavailable reports that no session could be opened at all. This
// aborts a run before any scenario executes.
var ErrUnavailable = errors.New("device unavailable")

// ErrResetUnsupported reports that the controller has no way to force a
// fresh boot. Scenarios that merely prefer a reset degrade to
// "boot assumed in progress"; scenarios that require one are skipped.
var ErrResetUnsupported = errors.New("hard reset not supported")

// Controller is the device lifecycle surface the orchestrator drives.
type Controller interface {
	// Open establishes the stream session. Exactly one session is
	// active per controller at a time.
	Open() (*stream.Session, error)

	// Reset forces a fresh boot of the device, or returns
	// ErrResetUnsupported when the platform has no reset control.
	Reset() error

	// Close releases the session and any underlying resources.
	Close() error
}
