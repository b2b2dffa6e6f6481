package perfgraph

import "errors"

// Standard sentinel errors for comparison using errors.Is().
var (
	// ErrFinalized is returned when requesting new threads or a second
	// finalize after Finalize has completed.
	ErrFinalized = errors.New("manager already finalized")

	// ErrThreadClosed is returned when closing a thread handle twice.
	ErrThreadClosed = errors.New("thread handle already closed")
)
