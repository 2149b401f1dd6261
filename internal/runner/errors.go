package runner

import (
	"errors"
	"fmt"
	"strings"
)

// Process-related errors.
var (
	// ErrProcessSpawn indicates the command could not be started
	ErrProcessSpawn = errors.New("failed to start process")

	// ErrProcessTimeout indicates the process was killed after its timeout
	ErrProcessTimeout = errors.New("process timed out")

	// ErrNonZeroExit indicates the process ran but exited with a failure code
	ErrNonZeroExit = errors.New("process exited with non-zero status")

	// ErrProcessCanceled indicates the caller canceled the context
	ErrProcessCanceled = errors.New("process canceled")
)

// Kind classifies a ProcessError.
type Kind int

const (
	KindSpawnFailure Kind = iota
	KindTimeout
	KindNonZeroExit
	KindCanceled
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindSpawnFailure:
		return "spawn_failure"
	case KindTimeout:
		return "timeout"
	case KindNonZeroExit:
		return "non_zero_exit"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// ProcessError describes why a command did not finish cleanly.
type ProcessError struct {
	Kind     Kind
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ProcessError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Command, e.sentinel())
	if e.Kind == KindNonZeroExit {
		msg = fmt.Sprintf("%s (exit %d)", msg, e.ExitCode)
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	} else if e.Err != nil && e.Kind == KindSpawnFailure {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the taxonomy sentinel and the underlying cause.
func (e *ProcessError) Unwrap() []error {
	return []error{e.sentinel(), e.Err}
}

func (e *ProcessError) sentinel() error {
	switch e.Kind {
	case KindTimeout:
		return ErrProcessTimeout
	case KindNonZeroExit:
		return ErrNonZeroExit
	case KindCanceled:
		return ErrProcessCanceled
	default:
		return ErrProcessSpawn
	}
}

// IsTimeout returns true if the error indicates a process timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrProcessTimeout)
}

// IsNonZeroExit returns true if the process ran and exited non-zero.
func IsNonZeroExit(err error) bool {
	return errors.Is(err, ErrNonZeroExit)
}
