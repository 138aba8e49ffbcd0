// Package toolchain invokes the ESP-IDF tooling (idf.py) around the
// verification core: build, flash, version probing. The verification
// engine never calls in here; the CLI sequences flash-then-run itself.
package toolchain

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"
)

// Result bundles the outcome of one toolchain invocation.
type Result struct {
	Output   string
	ExitCode int
	Duration time.Duration
}

// IDF runs idf.py commands inside a project directory.
type IDF struct {
	Dir string
	Log *slog.Logger

	env []string
}

// New creates an IDF runner for the given project directory. The
// environment is inherited from the process; sourcing the IDF export
// script is the caller's responsibility, as with idf.py itself.
func New(projectDir string) *IDF {
	return &IDF{Dir: projectDir, Log: slog.Default()}
}

// Available reports whether idf.py can be found on PATH.
func Available() bool {
	_, err := exec.LookPath("idf.py")
	return err == nil
}

// Version returns the idf.py version string.
func (i *IDF) Version(ctx context.Context) (string, error) {
	res, err := i.run(ctx, nil, "--version")
	if err != nil {
		return "", err
	}
	return res.Output, nil
}

// Build compiles the project, forwarding each output line to onLine
// (may be nil).
func (i *IDF) Build(ctx context.Context, onLine func(string)) (Result, error) {
	return i.run(ctx, onLine, "build")
}

// Flash builds and flashes the firmware to the given port.
func (i *IDF) Flash(ctx context.Context, port string, onLine func(string)) (Result, error) {
	return i.run(ctx, onLine, FlashArgs(port)...)
}

// FlashArgs returns the idf.py argument list for flashing to a port.
func FlashArgs(port string) []string {
	if port == "" {
		return []string{"flash"}
	}
	return []string{"-p", port, "flash"}
}

// run executes idf.py, streaming merged stdout/stderr line by line.
func (i *IDF) run(ctx context.Context, onLine func(string), args ...string) (Result, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, "idf.py", args...)
	cmd.Dir = i.Dir
	if i.env != nil {
		cmd.Env = i.env
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{ExitCode: -1}, err
	}
	cmd.Stderr = cmd.Stdout // merge stderr into stdout

	i.Log.Info("idf.py", "args", args, "dir", i.Dir)
	if err := cmd.Start(); err != nil {
		return Result{ExitCode: -1, Duration: time.Since(start)}, fmt.Errorf("idf.py: %w", err)
	}

	var output []byte
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		output = append(output, line...)
		output = append(output, '\n')
		if onLine != nil {
			onLine(line)
		}
	}

	exitCode := 0
	err = cmd.Wait()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
	}

	res := Result{
		Output:   string(output),
		ExitCode: exitCode,
		Duration: time.Since(start),
	}
	if err != nil {
		return res, fmt.Errorf("idf.py %v: %w", args, err)
	}
	return res, nil
}
