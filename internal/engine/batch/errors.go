package batch

import (
	"errors"
	"fmt"
)

// Scheduler errors.
var (
	ErrInvalidChunkSize  = errors.New("chunk size must be at least 1")
	ErrNilCompute        = errors.New("compute function cannot be nil")
	ErrNilLoop           = errors.New("host loop cannot be nil")
	ErrLoopClosed        = errors.New("host loop no longer accepts tasks")
	ErrAlreadyStarted    = errors.New("job has already been started")
	ErrJobAborted        = errors.New("job was aborted before completion")
	ErrComputeFailure    = errors.New("compute failed for item")
	ErrAlreadyRun        = errors.New("executor has already run")
	ErrNoBatch           = errors.New("no batch has been generated")
	ErrRunInProgress     = errors.New("a run is already in progress")
	ErrIncompleteTimings = errors.New("both single and chunked timings are required")
	ErrUnknownMode       = errors.New("unknown processing mode")
)

// ItemError records the failure of a single item. It matches ErrComputeFailure
// and the underlying cause with errors.Is.
type ItemError struct {
	Index int
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %d: %v", e.Index, e.Err)
}

// Unwrap exposes both the sentinel and the cause.
func (e *ItemError) Unwrap() []error {
	return []error{ErrComputeFailure, e.Err}
}
