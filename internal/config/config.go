// Package config loads the harness configuration: defaults overlaid by
// a global file, overlaid by a workspace file. Validation fails fast so
// a bad configuration never opens a device session.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	DefaultBaudRate       = 115200
	DefaultTimeoutSeconds = 30
	DefaultMaxBufferBytes = 1 << 20 // 1 MiB of retained log text
)

// ErrInvalid reports a configuration the harness refuses to run with.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all ember configuration.
type Config struct {
	Port           string `yaml:"port,omitempty"`
	BaudRate       int    `yaml:"baud_rate,omitempty"`
	TimeoutSeconds int    `yaml:"default_timeout_seconds,omitempty"`
	MaxBufferBytes int    `yaml:"max_buffer_bytes,omitempty"`
	Suite          string `yaml:"suite,omitempty"`
	ProjectDir     string `yaml:"project_dir,omitempty"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		BaudRate:       DefaultBaudRate,
		TimeoutSeconds: DefaultTimeoutSeconds,
		MaxBufferBytes: DefaultMaxBufferBytes,
	}
}

// Load reads and merges global and workspace configs.
// Order: defaults → global (~/.config/ember/config.yaml) → workspace
// (<root>/.ember/config.yaml).
func Load(workspaceRoot string) Config {
	cfg := Defaults()

	if home, err := os.UserHomeDir(); err == nil {
		mergeFromFile(&cfg, filepath.Join(home, ".config", "ember", "config.yaml"))
	}
	if workspaceRoot != "" {
		mergeFromFile(&cfg, filepath.Join(workspaceRoot, ".ember", "config.yaml"))
	}
	return cfg
}

// Save writes the config to the workspace .ember/config.yaml, or to the
// global config if global is true.
func Save(cfg Config, workspaceRoot string, global bool) error {
	var dir string
	if global {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		dir = filepath.Join(home, ".config", "ember")
	} else {
		dir = filepath.Join(workspaceRoot, ".ember")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0o644)
}

// Validate rejects configurations that cannot produce a sound run.
func (c Config) Validate() error {
	if c.BaudRate <= 0 {
		return fmt.Errorf("%w: baud_rate must be positive, got %d", ErrInvalid, c.BaudRate)
	}
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("%w: default_timeout_seconds must be positive, got %d", ErrInvalid, c.TimeoutSeconds)
	}
	if c.MaxBufferBytes < 0 {
		return fmt.Errorf("%w: max_buffer_bytes must not be negative, got %d", ErrInvalid, c.MaxBufferBytes)
	}
	return nil
}

func mergeFromFile(cfg *Config, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return
	}

	if fileCfg.Port != "" {
		cfg.Port = fileCfg.Port
	}
	if fileCfg.BaudRate != 0 {
		cfg.BaudRate = fileCfg.BaudRate
	}
	if fileCfg.TimeoutSeconds != 0 {
		cfg.TimeoutSeconds = fileCfg.TimeoutSeconds
	}
	if fileCfg.MaxBufferBytes != 0 {
		cfg.MaxBufferBytes = fileCfg.MaxBufferBytes
	}
	if fileCfg.Suite != "" {
		cfg.Suite = fileCfg.Suite
	}
	if fileCfg.ProjectDir != "" {
		cfg.ProjectDir = fileCfg.ProjectDir
	}
}
