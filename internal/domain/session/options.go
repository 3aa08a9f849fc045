package session

import (
	"time"

	"github.com/okian/interviewer/pkg/logger"
)

// Option applies a configuration option to a Session.
type Option func(*Session)

// WithPersister sets the writer used for the synchronous save at conclusion.
func WithPersister(p Persister) Option {
	return func(s *Session) {
		if p != nil {
			s.persister = p
		}
	}
}

// WithDispatcher sets the sink that receives the analysis job.
func WithDispatcher(d Dispatcher) Option {
	return func(s *Session) {
		if d != nil {
			s.dispatcher = d
		}
	}
}

// WithObserver registers an observer. Observers are fixed at construction.
func WithObserver(o Observer) Option {
	return func(s *Session) {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithShutdown sets the callback fired by the shutdown alarm.
func WithShutdown(fn func()) Option {
	return func(s *Session) {
		s.shutdown = fn
	}
}

// WithID overrides the generated session id.
func WithID(id string) Option {
	return func(s *Session) {
		if id != "" {
			s.id = id
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}
