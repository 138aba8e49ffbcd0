package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, 115200, cfg.BaudRate)
	assert.Equal(t, 30, cfg.TimeoutSeconds)
	assert.Equal(t, 1<<20, cfg.MaxBufferBytes)
	require.NoError(t, cfg.Validate())
}

func TestLoadMerge(t *testing.T) {
	tmp := t.TempDir()
	dir := filepath.Join(tmp, ".ember")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
port: /dev/ttyUSB1
baud_rate: 9600
suite: suites/boot.yaml
`), 0o644))

	cfg := Load(tmp)

	assert.Equal(t, "/dev/ttyUSB1", cfg.Port)
	assert.Equal(t, 9600, cfg.BaudRate)
	assert.Equal(t, "suites/boot.yaml", cfg.Suite)
	// Untouched fields keep their defaults.
	assert.Equal(t, 30, cfg.TimeoutSeconds)
	assert.Equal(t, 1<<20, cfg.MaxBufferBytes)
}

func TestSaveAndLoad(t *testing.T) {
	tmp := t.TempDir()
	cfg := Config{
		Port:           "/dev/ttyACM0",
		BaudRate:       57600,
		TimeoutSeconds: 60,
		MaxBufferBytes: 4 << 20,
	}

	require.NoError(t, Save(cfg, tmp, false))

	loaded := Load(tmp)
	assert.Equal(t, "/dev/ttyACM0", loaded.Port)
	assert.Equal(t, 57600, loaded.BaudRate)
	assert.Equal(t, 60, loaded.TimeoutSeconds)
	assert.Equal(t, 4<<20, loaded.MaxBufferBytes)
}

func TestLoadIgnoresBrokenFile(t *testing.T) {
	tmp := t.TempDir()
	dir := filepath.Join(tmp, ".ember")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("{nope"), 0o644))

	cfg := Load(tmp)
	assert.Equal(t, Defaults(), cfg)
}

func TestValidate(t *testing.T) {
	bad := Defaults()
	bad.BaudRate = 0
	assert.True(t, errors.Is(bad.Validate(), ErrInvalid))

	bad = Defaults()
	bad.TimeoutSeconds = -1
	assert.True(t, errors.Is(bad.Validate(), ErrInvalid))

	bad = Defaults()
	bad.MaxBufferBytes = -1
	assert.True(t, errors.Is(bad.Validate(), ErrInvalid))

	// Zero max buffer means unbounded and is allowed.
	ok := Defaults()
	ok.MaxBufferBytes = 0
	assert.NoError(t, ok.Validate())
}
