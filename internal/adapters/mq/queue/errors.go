package queue

import "errors"

// Enqueue failures.
var (
	ErrFull   = errors.New("analysis queue full")
	ErrClosed = errors.New("analysis queue closed")
)
