package device

import (
	"fmt"
	"os"
	"time"

	"github.com/embertools/ember/internal/stream"
)

// ReplayController feeds a recorded log file through the normal stream
// path in timed chunks. It lets suites run against captured device
// output in CI, with no hardware attached. Reset is unsupported, which
// also exercises the degraded no-reset path.
type ReplayController struct {
	Path           string
	ChunkSize      int
	ChunkDelay     time.Duration
	MaxBufferBytes int

	sess *stream.Session
}

// NewReplayController replays the given capture file. Defaults: 256-byte
// chunks every 5ms, roughly the cadence of a 115200-baud stream.
func NewReplayController(path string, maxBufferBytes int) *ReplayController {
	return &ReplayController{
		Path:           path,
		ChunkSize:      256,
		ChunkDelay:     5 * time.Millisecond,
		MaxBufferBytes: maxBufferBytes,
	}
}

func (c *ReplayController) Open() (*stream.Session, error) {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: replay %s: %v", ErrUnavailable, c.Path, err)
	}
	port := &replayPort{
		data:  data,
		chunk: c.ChunkSize,
		delay: c.ChunkDelay,
	}
	c.sess = stream.NewSession("replay:"+c.Path, 0, port, c.MaxBufferBytes)
	return c.sess, nil
}

func (c *ReplayController) Reset() error {
	return ErrResetUnsupported
}

func (c *ReplayController) Close() error {
	if c.sess == nil {
		return nil
	}
	err := c.sess.Close()
	c.sess = nil
	return err
}

// replayPort doles the capture out one chunk per read. Once exhausted
// it reports quiet reads forever, so outstanding queries time out the
// same way they would on a silent device.
type replayPort struct {
	data  []byte
	pos   int
	chunk int
	delay time.Duration
}

func (p *replayPort) Read(buf []byte) (int, error) {
	if p.pos >= len(p.data) {
		time.Sleep(p.delay)
		return 0, nil
	}
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	end := p.pos + p.chunk
	if end > len(p.data) {
		end = len(p.data)
	}
	n := copy(buf, p.data[p.pos:end])
	p.pos += n
	return n, nil
}

func (p *replayPort) Close() error { return nil }
