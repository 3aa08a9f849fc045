package repository

import (
	"os"
	"time"

	"github.com/okian/interviewer/pkg/logger"
)

// Option applies a configuration option to the FileStore.
type Option func(*FileStore)

// WithClock sets the clock used to stamp artifact names and failure records.
func WithClock(now func() time.Time) Option {
	return func(s *FileStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithFileMode sets the permission bits for written artifacts.
func WithFileMode(mode os.FileMode) Option {
	return func(s *FileStore) {
		if mode != 0 {
			s.fileMode = mode
		}
	}
}

// WithLogger sets a custom logger for the store.
func WithLogger(l logger.Logger) Option {
	return func(s *FileStore) {
		if l != nil {
			s.logger = l
		}
	}
}
