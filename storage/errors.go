package storage

import "errors"

// Standard sentinel errors for comparison using errors.Is().
var (
	// ErrKindMismatch is returned when merging graphs of different kinds.
	ErrKindMismatch = errors.New("graph kind mismatch")

	// ErrNotFinalized is returned by Finalize when the graph is already
	// being finalized; the first call's result is the one to merge.
	ErrNotFinalized = errors.New("thread storage already finalizing")

	// ErrAlreadyMerged is returned when a graph is contributed twice.
	ErrAlreadyMerged = errors.New("thread storage already merged")

	// ErrUnbalancedPop is returned when Pop is called with no open node.
	ErrUnbalancedPop = errors.New("pop without matching insert")
)
