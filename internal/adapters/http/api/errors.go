package api

import (
	"errors"

	"github.com/okian/interviewer/internal/domain/model"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
)

// WrapKind attaches an operation and kind to err.
func WrapKind(op string, kind, err error) error { return model.WrapKind(op, kind, err) }

// NewKind builds an error of the given kind with a plain message.
func NewKind(op string, kind error, msg string) error { return model.NewKind(op, kind, msg) }
