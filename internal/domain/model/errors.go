package model

import (
	"errors"
)

// Error kinds. Callers match them with errors.Is.
var (
	// ErrValidation marks a malformed utterance; the call is rejected and nothing changes.
	ErrValidation = errors.New("validation error")
	// ErrPersistence marks an artifact write failure; it drives the session to Failed.
	ErrPersistence = errors.New("persistence error")
	// ErrAnalysis marks a failure inside the analysis pipeline; it never leaves the pipeline.
	ErrAnalysis = errors.New("analysis error")
	// ErrTool marks a failed search call; it is rendered as speakable text.
	ErrTool = errors.New("tool error")

	ErrNotStarted        = errors.New("session not started")
	ErrAlreadyStarted    = errors.New("session already started")
	ErrInvalidConfig     = errors.New("invalid session config")
	ErrSealed            = errors.New("transcript sealed")
	ErrMissingCredential = errors.New("missing credential")
)

// KindError attaches an operation name and an error kind to an underlying cause.
type KindError struct {
	Op   string
	Kind error
	Err  error
}

func (e *KindError) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Kind.Error()
	}
	return e.Op + ": " + e.Kind.Error() + ": " + e.Err.Error()
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *KindError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// WrapKind wraps err with op and kind. A nil err yields nil.
func WrapKind(op string, kind, err error) error {
	if err == nil {
		return nil
	}
	return &KindError{Op: op, Kind: kind, Err: err}
}

// NewKind builds a KindError with a plain message as cause.
func NewKind(op string, kind error, msg string) error {
	var cause error
	if msg != "" {
		cause = errors.New(msg)
	}
	return &KindError{Op: op, Kind: kind, Err: cause}
}
