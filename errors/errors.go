// Package errors provides typed error handling for the myrbox sandbox supervisor.
//
// It mirrors the standard library's errors.Is/errors.As model while attaching
// a coarse classification (Kind) that the watchdog and ledger use to decide
// how a session ended without string-matching error messages.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies a sandbox error for cleanup and ledger bookkeeping.
type Kind int

const (
	// KindSetup indicates a supervisor-level setup failure (no scratch exists yet).
	KindSetup Kind = iota
	// KindProvision indicates scratch creation or template population failed.
	KindProvision
	// KindStageExit indicates a stage (compile or run) exited non-zero.
	KindStageExit
	// KindStageSignal indicates a stage was terminated by a signal (includes seccomp kill).
	KindStageSignal
	// KindTimeout indicates the watchdog killed the session after the wall-clock deadline.
	KindTimeout
	// KindInternal indicates an unexpected internal error.
	KindInternal
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindSetup:
		return "setup error"
	case KindProvision:
		return "provisioning error"
	case KindStageExit:
		return "stage exited non-zero"
	case KindStageSignal:
		return "stage terminated by signal"
	case KindTimeout:
		return "wall-clock timeout"
	case KindInternal:
		return "internal error"
	default:
		return "unknown error"
	}
}

// SandboxError is the error type returned by every package in this module.
type SandboxError struct {
	// Op is the operation that failed (e.g. "provision", "compile", "run").
	Op string
	// Kind classifies the failure.
	Kind Kind
	// Detail is additional human-readable context.
	Detail string
	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *SandboxError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Op
	if msg != "" {
		msg += ": "
	}
	if e.Detail != "" {
		msg += e.Detail
	} else {
		msg += e.Kind.String()
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *SandboxError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target matches by Kind.
func (e *SandboxError) Is(target error) bool {
	if e == nil {
		return target == nil
	}
	t, ok := target.(*SandboxError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New creates a SandboxError with no underlying cause.
func New(kind Kind, op, detail string) *SandboxError {
	return &SandboxError{Op: op, Kind: kind, Detail: detail}
}

// Wrap attaches an operation and kind to an underlying error.
func Wrap(err error, kind Kind, op string) *SandboxError {
	return &SandboxError{Op: op, Kind: kind, Err: err}
}

// WrapDetail attaches an operation, kind, and extra detail to an underlying error.
func WrapDetail(err error, kind Kind, op, detail string) *SandboxError {
	return &SandboxError{Op: op, Kind: kind, Detail: detail, Err: err}
}

// IsKind reports whether err is a SandboxError of the given kind.
func IsKind(err error, kind Kind) bool {
	var se *SandboxError
	if errors.As(err, &se) {
		return se.Kind == kind
	}
	return false
}

// GetKind returns the kind of err if it is a SandboxError.
func GetKind(err error) (Kind, bool) {
	var se *SandboxError
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return 0, false
}

// Re-exported for convenience, matching the standard library surface.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
)
