package device

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embertools/ember/internal/verify"
)

func TestReplayControllerStreamsCapture(t *testing.T) {
	capture := "I (310) main: Démarrage\nI (990) main: Community Edition Opérationnel\n"
	path := filepath.Join(t.TempDir(), "boot.log")
	require.NoError(t, os.WriteFile(path, []byte(capture), 0o644))

	ctrl := NewReplayController(path, 0)
	ctrl.ChunkSize = 7 // force signals to straddle chunk boundaries
	sess, err := ctrl.Open()
	require.NoError(t, err)
	defer ctrl.Close()

	q := verify.MustCompile(`Community Edition Opérationnel`, 2*time.Second)
	res := verify.Await(context.Background(), sess, q)

	require.True(t, res.Found)
	assert.Equal(t, "Community Edition Opérationnel", res.Matched)
}

func TestReplayControllerResetUnsupported(t *testing.T) {
	ctrl := NewReplayController("whatever.log", 0)
	assert.True(t, errors.Is(ctrl.Reset(), ErrResetUnsupported))
}

func TestReplayControllerMissingFile(t *testing.T) {
	ctrl := NewReplayController(filepath.Join(t.TempDir(), "absent.log"), 0)
	_, err := ctrl.Open()
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestReplayTimesOutAfterExhaustion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.log")
	require.NoError(t, os.WriteFile(path, []byte("only noise\n"), 0o644))

	ctrl := NewReplayController(path, 0)
	sess, err := ctrl.Open()
	require.NoError(t, err)
	defer ctrl.Close()

	q := verify.MustCompile(`never appears`, 100*time.Millisecond)
	res := verify.Await(context.Background(), sess, q)

	assert.True(t, res.TimedOut)
	assert.Equal(t, "only noise\n", res.Snapshot)
}

func TestDetectPortPrefersBridges(t *testing.T) {
	ports := []PortInfo{
		{Name: "/dev/ttyS0"},
		{Name: "/dev/ttyUSB0", IsUSB: true, VID: "10C4", LikelyDevice: true},
	}
	assert.Equal(t, "/dev/ttyUSB0", DetectPort(ports))
}

func TestDetectPortFallsBackToFirst(t *testing.T) {
	ports := []PortInfo{{Name: "/dev/ttyS0"}, {Name: "/dev/ttyS1"}}
	assert.Equal(t, "/dev/ttyS0", DetectPort(ports))
	assert.Equal(t, "", DetectPort(nil))
}

func TestSerialControllerUnavailable(t *testing.T) {
	ctrl := NewSerialController(filepath.Join(t.TempDir(), "no-such-port"), 115200, 0)
	_, err := ctrl.Open()
	assert.True(t, errors.Is(err, ErrUnavailable))
}
