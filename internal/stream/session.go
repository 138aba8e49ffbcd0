package stream

// Session owns the open byte channel to one device and the rolling
// buffer its log text accumulates into. The orchestrator holds the only
// reference for the session's lifetime.
type Session struct {
	PortName string
	BaudRate int

	port   Port
	buf    *Buffer
	reader *Reader
	closed bool
}

// NewSession wraps an already-open port. maxBufferBytes bounds the
// rolling buffer (0 = unbounded).
func NewSession(portName string, baudRate int, port Port, maxBufferBytes int) *Session {
	buf := NewBuffer(maxBufferBytes)
	return &Session{
		PortName: portName,
		BaudRate: baudRate,
		port:     port,
		buf:      buf,
		reader:   NewReader(port, buf),
	}
}

// Buffer exposes the session's rolling buffer.
func (s *Session) Buffer() *Buffer {
	return s.buf
}

// Pump polls the port once and appends any newly arrived text.
func (s *Session) Pump() error {
	return s.reader.Pump()
}

// Disconnected reports whether the device dropped mid-session.
func (s *Session) Disconnected() bool {
	return s.reader.Disconnected()
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	return s.closed
}

// Close releases the underlying port. Idempotent.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.port.Close()
}
