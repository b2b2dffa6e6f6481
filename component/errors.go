package component

import (
	"errors"
	"fmt"
)

// Standard sentinel errors for comparison using errors.Is().
// These describe measurement protocol violations; they never surface from
// the steady-state hot path unless the caller misuses the lifecycle.
var (
	// ErrAlreadyRunning is returned by Start on a running instance.
	ErrAlreadyRunning = errors.New("component already running")

	// ErrNotRunning is returned by Stop on an instance that was never
	// started or has already stopped.
	ErrNotRunning = errors.New("component not running")

	// ErrKindMismatch is returned when combining two different kinds.
	ErrKindMismatch = errors.New("component kind mismatch")

	// ErrCombineRunning is returned when a combination operand is still
	// mid-measurement and its statistics are not yet stable.
	ErrCombineRunning = errors.New("cannot combine with running component")

	// ErrNotSampler is returned by Sample on a kind without sampler support.
	ErrNotSampler = errors.New("component kind does not support sampling")
)

// UsageError wraps a protocol violation with the operation and kind that
// produced it. It supports errors.Is/As through Unwrap.
type UsageError struct {
	Op   string // operation that failed, e.g. "component.Stop"
	Kind Kind
	Err  error
}

// Error returns the string representation of the error.
func (e *UsageError) Error() string {
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying sentinel error.
func (e *UsageError) Unwrap() error {
	return e.Err
}

func usageErr(op string, kind Kind, err error) error {
	return &UsageError{Op: op, Kind: kind, Err: err}
}
