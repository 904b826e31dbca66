// Package process runs external programs and streams their output to the logger.
package process

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
)

type Logger interface {
	Infof(template string, args ...interface{})
	Errorf(template string, args ...interface{})
}

// ExitError is returned when a command exits abnormally. Code is -1 when the
// command could not be started or was killed by a signal.
type ExitError struct {
	Command string
	Code    int
	Err     error
}

func (e *ExitError) Error() string {
	if e.Code < 0 {
		return fmt.Sprintf("%s failed: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("%s exited with code %d", e.Command, e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode extracts the exit code from err, reporting false when err carries none.
func ExitCode(err error) (int, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}

type Runner struct {
	logger Logger
	env    []string
}

func NewRunner(logger Logger) *Runner {
	return &Runner{logger: logger}
}

// WithEnv returns a copy of the runner that appends env to the inherited environment.
func (r *Runner) WithEnv(env ...string) *Runner {
	return &Runner{
		logger: r.logger,
		env:    append(append([]string(nil), r.env...), env...),
	}
}

func (r *Runner) Run(ctx context.Context, name string, args []string, dir string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	if len(r.env) > 0 {
		cmd.Env = append(cmd.Environ(), r.env...)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to get stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to get stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return &ExitError{Command: name, Code: -1, Err: err}
	}

	// Pipes must be drained before Wait closes them.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		r.stream(name, stdout, r.logger.Infof)
	}()
	go func() {
		defer wg.Done()
		r.stream(name, stderr, r.logger.Errorf)
	}()
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Command: name, Code: exitErr.ExitCode(), Err: err}
		}
		return &ExitError{Command: name, Code: -1, Err: err}
	}

	return nil
}

func (r *Runner) stream(name string, rd io.Reader, logf func(string, ...interface{})) {
	scanner := bufio.NewScanner(rd)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		logf("%s: %s", name, line)
	}
	if err := scanner.Err(); err != nil {
		r.logger.Errorf("%s: output stream: %v", name, err)
	}
	// The child blocks on a full pipe if the rest is left unread.
	io.Copy(io.Discard, rd)
}
