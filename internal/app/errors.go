package service

import "errors"

// Service errors.
var (
	ErrNotRunning      = errors.New("service not running")
	ErrSessionNotFound = errors.New("session not found")
)
