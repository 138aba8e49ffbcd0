package device

import (
	"fmt"
	"time"

	"go.bug.st/serial"

	"github.com/embertools/ember/internal/stream"
)

// readTimeout bounds every port read so the reader's Pump never blocks
// past one poll. A quiet read returns (0, nil).
const readTimeout = 50 * time.Millisecond

// SerialController opens a physical serial port and controls the
// device's reset line over DTR, the usual arrangement on ESP32-style
// dev boards.
type SerialController struct {
	PortName       string
	BaudRate       int
	MaxBufferBytes int

	port serial.Port
	sess *stream.Session
}

// NewSerialController configures a controller; the port is opened by
// Open, not here.
func NewSerialController(portName string, baudRate, maxBufferBytes int) *SerialController {
	return &SerialController{
		PortName:       portName,
		BaudRate:       baudRate,
		MaxBufferBytes: maxBufferBytes,
	}
}

// Open opens the serial port and wraps it in a stream session.
func (c *SerialController) Open() (*stream.Session, error) {
	if c.sess != nil {
		return nil, fmt.Errorf("%w: session already open on %s", ErrUnavailable, c.PortName)
	}

	mode := &serial.Mode{
		BaudRate: c.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(c.PortName, mode)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrUnavailable, c.PortName, err)
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, c.PortName, err)
	}

	c.port = port
	c.sess = stream.NewSession(c.PortName, c.BaudRate, port, c.MaxBufferBytes)
	return c.sess, nil
}

// Reset toggles DTR to pulse the board's reset line, then gives the
// bootloader a moment before log output resumes.
func (c *SerialController) Reset() error {
	if c.port == nil {
		return fmt.Errorf("reset: port not open")
	}
	if err := c.port.SetDTR(false); err != nil {
		return fmt.Errorf("reset %s: %w", c.PortName, err)
	}
	time.Sleep(100 * time.Millisecond)
	if err := c.port.SetDTR(true); err != nil {
		return fmt.Errorf("reset %s: %w", c.PortName, err)
	}
	time.Sleep(200 * time.Millisecond)
	return nil
}

// Close closes the session and the port beneath it.
func (c *SerialController) Close() error {
	if c.sess == nil {
		return nil
	}
	err := c.sess.Close()
	c.sess = nil
	c.port = nil
	return err
}
