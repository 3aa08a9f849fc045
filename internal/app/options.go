package service

import (
	"time"

	"github.com/okian/interviewer/internal/adapters/repository"
	"github.com/okian/interviewer/internal/adapters/search"
	"github.com/okian/interviewer/internal/domain/analysis"
	"github.com/okian/interviewer/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithOutputDir sets the artifact directory used by the default file store.
func WithOutputDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.outputDir = dir
		}
	}
}

// WithStore replaces the artifact store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithAnalyzer sets the analysis capability. Without one, analysis is
// skipped for every session.
func WithAnalyzer(a analysis.Analyzer) Option {
	return func(s *Service) {
		s.analyzer = a
	}
}

// WithAnalysisModel sets the model name sent to the analyzer.
func WithAnalysisModel(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.analysisModel = name
		}
	}
}

// WithAnalysisTimeout bounds each analyzer call.
func WithAnalysisTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.analysisTimeout = d
		}
	}
}

// WithRetainedSessions bounds how many terminated sessions stay reachable
// after their shutdown alarm. Zero or less keeps all of them.
func WithRetainedSessions(n int) Option {
	return func(s *Service) {
		s.retainedSessions = n
	}
}

// WithSearcher sets the web search backend.
func WithSearcher(sr search.Searcher) Option {
	return func(s *Service) {
		s.searcher = sr
	}
}

// WithSearchTimeout bounds each search call.
func WithSearchTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.searchTimeout = d
		}
	}
}

// WithWorkerCount sets the number of analysis workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending analysis jobs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many utterance IDs are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithGracePeriod sets the delay between conclusion and session shutdown.
func WithGracePeriod(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.gracePeriod = d
		}
	}
}

// WithConclusionMessage sets the message spoken at the end of an interview.
func WithConclusionMessage(msg string) Option {
	return func(s *Service) {
		if msg != "" {
			s.conclusionMessage = msg
		}
	}
}

// WithShutdownHook is called with the session id when a session's shutdown
// alarm fires.
func WithShutdownHook(fn func(sessionID string)) Option {
	return func(s *Service) {
		s.shutdownHook = fn
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
