// Package runner executes external diagnostic commands with a hard timeout.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"time"
)

// Output is what a finished process left behind.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Runner runs one external command per call.
type Runner interface {
	Run(ctx context.Context, name string, args []string, timeout time.Duration) (*Output, error)
}

// Config holds configuration for an Exec runner.
type Config struct {
	// WaitDelay bounds how long Run waits for inherited pipes to close
	// after the process was killed.
	WaitDelay time.Duration

	// Env, when non-nil, replaces the process environment.
	Env []string

	Logger *slog.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		WaitDelay: 500 * time.Millisecond,
	}
}

// Exec runs commands through os/exec. It holds no per-call state and is
// safe for concurrent use.
type Exec struct {
	config Config
	logger *slog.Logger
}

// New creates a new Exec runner.
func New(config Config) *Exec {
	if config.WaitDelay <= 0 {
		config.WaitDelay = 500 * time.Millisecond
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Exec{config: config, logger: logger}
}

// Run starts name with args and waits for it to finish or for timeout to
// elapse, whichever comes first. On timeout the whole process group is
// killed and a ProcessError of kind KindTimeout is returned.
//
// A non-zero exit returns both the populated Output and a ProcessError of
// kind KindNonZeroExit: tools such as ping exit non-zero on full loss but
// still print a usable report.
func (e *Exec) Run(ctx context.Context, name string, args []string, timeout time.Duration) (*Output, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = e.config.WaitDelay
	if e.config.Env != nil {
		cmd.Env = e.config.Env
	}
	configureProcessGroup(cmd)

	start := time.Now()
	err := cmd.Run()
	out := &Output{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: -1,
		Duration: time.Since(start),
	}
	if cmd.ProcessState != nil {
		out.ExitCode = cmd.ProcessState.ExitCode()
	}

	e.logger.Debug("process finished",
		"command", name,
		"args", args,
		"exit_code", out.ExitCode,
		"duration", out.Duration,
	)

	if err == nil {
		return out, nil
	}

	// The deadline check must come first: a killed process also reports
	// an ExitError.
	if ctxErr := ctx.Err(); ctxErr != nil {
		kind := KindTimeout
		if errors.Is(ctxErr, context.Canceled) {
			kind = KindCanceled
		}
		return out, &ProcessError{
			Kind:    kind,
			Command: name,
			Stderr:  out.Stderr,
			Err:     ctxErr,
		}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return out, &ProcessError{
			Kind:     KindNonZeroExit,
			Command:  name,
			ExitCode: exitErr.ExitCode(),
			Stderr:   out.Stderr,
			Err:      err,
		}
	}

	// exec.ErrWaitDelay means the process exited but a grandchild kept
	// the pipes open; the output we have is complete enough.
	if errors.Is(err, exec.ErrWaitDelay) {
		return out, nil
	}

	return nil, &ProcessError{
		Kind:    KindSpawnFailure,
		Command: name,
		Err:     err,
	}
}

// CombinedText returns stdout followed by stderr, handy for error messages.
func (o *Output) CombinedText() string {
	if o == nil {
		return ""
	}
	if o.Stderr == "" {
		return o.Stdout
	}
	return fmt.Sprintf("%s\n%s", o.Stdout, o.Stderr)
}
