// Package service wires interview sessions to persistence, the analysis
// workers and the search tool, and implements the dependencies required by
// the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	eventqueue "github.com/okian/interviewer/internal/adapters/mq/queue"
	workerpool "github.com/okian/interviewer/internal/adapters/mq/worker"
	"github.com/okian/interviewer/internal/adapters/repository"
	"github.com/okian/interviewer/internal/adapters/search"
	"github.com/okian/interviewer/internal/domain/analysis"
	"github.com/okian/interviewer/internal/domain/dedupe"
	"github.com/okian/interviewer/internal/domain/model"
	"github.com/okian/interviewer/internal/domain/session"
	"github.com/okian/interviewer/pkg/logger"
	"github.com/okian/interviewer/pkg/metrics"
)

// Default service configuration.
const (
	defaultOutputDir  = "."
	defaultWorkers    = 2
	defaultQueueSize  = 64
	defaultDedupeSize = 10000
)

// SessionRequest carries what is needed to open an interview.
type SessionRequest struct {
	CandidateName  string `json:"candidate_name"`
	JobDescription string `json:"job_description"`
}

// Service owns the live sessions and the analysis machinery.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    repository.Store
	deduper  dedupe.Deduper
	queue    eventqueue.Queue
	pool     *workerpool.Pool
	pipeline *analysis.Pipeline
	analyzer analysis.Analyzer
	searcher search.Searcher
	tool     *search.Tool
	sessions map[string]*session.Session
	retired  *retiredSessions

	// Configuration
	outputDir         string
	workerCount       int
	queueSize         int
	dedupeSize        int
	retainedSessions  int
	gracePeriod       time.Duration
	conclusionMessage string
	analysisModel     string
	analysisTimeout   time.Duration
	searchTimeout     time.Duration
	shutdownHook      func(sessionID string)

	// Counters
	utterances atomic.Int64
	completed  atomic.Int64
	failed     atomic.Int64
	duplicates atomic.Int64

	started bool
	logger  logger.Logger
}

var (
	_ session.Dispatcher   = (*Service)(nil)
	_ session.Observer     = (*Service)(nil)
	_ workerpool.Processor = (*Service)(nil)
)

// New constructs a Service. Components are built by Start.
func New(opts ...Option) *Service {
	s := &Service{
		outputDir:        defaultOutputDir,
		workerCount:      defaultWorkers,
		queueSize:        defaultQueueSize,
		dedupeSize:       defaultDedupeSize,
		retainedSessions: defaultRetainedSessions,
		gracePeriod:      session.DefaultGracePeriod,
		sessions:         make(map[string]*session.Session),
		logger:           logger.Get().Named("service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.retired = newRetiredSessions(s.retainedSessions)
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.store == nil {
		s.store = repository.NewFileStore(s.outputDir)
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))

	pipelineOpts := []analysis.Option{analysis.WithModel(s.analysisModel), analysis.WithTimeout(s.analysisTimeout)}
	s.pipeline = analysis.NewPipeline(s.analyzer, s.store, pipelineOpts...)
	s.tool = search.NewTool(s.searcher, search.WithTimeout(s.searchTimeout))

	s.pool = workerpool.NewPool(s.workerCount, s.queue, s)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "interview service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
		logger.Bool("analysis_enabled", s.analyzer != nil),
		logger.Bool("search_enabled", s.searcher != nil),
	)
	return nil
}

// Stop drains pending analysis and closes every live session.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	pool := s.pool
	live := make([]*session.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		live = append(live, sess)
	}
	s.sessions = make(map[string]*session.Session)
	s.mu.Unlock()

	s.logger.Info(ctx, "stopping interview service...", logger.Int("live_sessions", len(live)))
	err := pool.Shutdown(ctx)
	for _, sess := range live {
		sess.Close()
	}
	metrics.UpdateActiveSessions(0)
	s.logger.Info(ctx, "interview service stopped")
	return err
}

// StartSession creates and starts a session.
func (s *Service) StartSession(ctx context.Context, req SessionRequest) (*session.Session, error) {
	s.mu.RLock()
	running := s.started
	store := s.store
	s.mu.RUnlock()
	if !running {
		return nil, ErrNotRunning
	}

	var sess *session.Session
	sess, err := session.New(session.Config{
		CandidateName:     req.CandidateName,
		JobDescription:    req.JobDescription,
		GracePeriod:       s.gracePeriod,
		ConclusionMessage: s.conclusionMessage,
	},
		session.WithPersister(store),
		session.WithDispatcher(s),
		session.WithObserver(s),
		session.WithShutdown(func() { s.release(sess.ID()) }),
	)
	if err != nil {
		return nil, err
	}
	if err := sess.Start(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sessions[sess.ID()] = sess
	active := len(s.sessions)
	s.mu.Unlock()
	metrics.UpdateActiveSessions(active)
	return sess, nil
}

// Session looks up a live or recently retired session.
func (s *Service) Session(id string) (*session.Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return sess, nil
	}
	if sess, ok = s.retired.get(id); ok {
		return sess, nil
	}
	return nil, ErrSessionNotFound
}

// RecordUtterance forwards a finalized turn to the session. A non-empty
// utteranceID makes the call idempotent: a redelivery reports duplicate and
// changes nothing.
func (s *Service) RecordUtterance(ctx context.Context, sessionID, utteranceID string, u model.Utterance) (bool, error) { //nolint:gocritic // utterances are values
	sess, err := s.Session(sessionID)
	if err != nil {
		return false, err
	}

	key := ""
	if utteranceID != "" {
		key = sessionID + "/" + utteranceID
		if s.deduper.SeenAndRecord(ctx, key) {
			s.duplicates.Add(1)
			metrics.RecordUtteranceDuplicate()
			s.logger.Debug(ctx, "duplicate utterance skipped",
				logger.String("session_id", sessionID),
				logger.String("utterance_id", utteranceID),
			)
			return true, nil
		}
	}

	if err := sess.RecordUtterance(ctx, u); err != nil {
		if key != "" {
			s.deduper.Unrecord(ctx, key)
		}
		return false, err
	}
	return false, nil
}

// RequestEnd concludes a session and returns the message to speak.
func (s *Service) RequestEnd(ctx context.Context, sessionID, notes string) (string, model.Status, error) {
	sess, err := s.Session(sessionID)
	if err != nil {
		return "", model.StatusNotStarted, err
	}
	msg := sess.RequestEnd(ctx, notes)
	return msg, sess.Status(), nil
}

// Search runs the web lookup tool. It always yields speakable text.
func (s *Service) Search(ctx context.Context, query string) string {
	s.mu.RLock()
	tool := s.tool
	s.mu.RUnlock()
	if tool == nil {
		tool = search.NewTool(s.searcher)
	}
	return tool.Search(ctx, query)
}

// Dispatch implements session.Dispatcher. A job that cannot be queued is
// recorded as an analysis failure.
func (s *Service) Dispatch(ctx context.Context, job model.AnalysisJob) error { //nolint:gocritic // jobs are values
	s.mu.RLock()
	q, store := s.queue, s.store
	s.mu.RUnlock()

	if q == nil {
		return ErrNotRunning
	}
	err := q.Enqueue(ctx, job)
	if err == nil {
		return nil
	}

	cause := fmt.Errorf("analysis not scheduled: %w", err)
	if _, werr := store.WriteFailure(ctx, job.Record.ID, cause); werr != nil {
		s.logger.Error(ctx, "failed to record unscheduled analysis",
			logger.String("session_id", job.Record.ID),
			logger.Error(werr),
		)
	}
	return cause
}

// Process implements worker.Processor.
func (s *Service) Process(ctx context.Context, job model.AnalysisJob) error { //nolint:gocritic // jobs are values
	out := s.pipeline.Run(ctx, job)
	if out.Kind == analysis.OutcomeFailed {
		return out.Err
	}
	return nil
}

// OnUtterance implements session.Observer.
func (s *Service) OnUtterance(context.Context, string, model.Utterance) {
	s.utterances.Add(1)
}

// OnTermination implements session.Observer.
func (s *Service) OnTermination(_ context.Context, _ string, status model.Status, _ model.Paths) {
	switch status {
	case model.StatusCompleted:
		s.completed.Add(1)
	case model.StatusFailed:
		s.failed.Add(1)
	}
}

func (s *Service) release(id string) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	active := len(s.sessions)
	s.mu.Unlock()

	if ok {
		s.retired.add(sess)
		metrics.UpdateActiveSessions(active)
		s.logger.Info(context.Background(), "session shut down", logger.String("session_id", id))
	}
	if s.shutdownHook != nil {
		s.shutdownHook(id)
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byStatus := make(map[string]int)
	for _, sess := range s.sessions {
		byStatus[sess.Status().String()]++
	}

	stats := map[string]interface{}{
		"started":             s.started,
		"activeSessions":      len(s.sessions),
		"sessionsByStatus":    byStatus,
		"utterancesRecorded":  s.utterances.Load(),
		"duplicateUtterances": s.duplicates.Load(),
		"sessionsCompleted":   s.completed.Load(),
		"sessionsFailed":      s.failed.Load(),
		"workerCount":         s.workerCount,
		"queueSize":           s.queueSize,
		"dedupeSize":          s.dedupeSize,
		"retiredSessions":     s.retired.len(),
		"analysisEnabled":     s.analyzer != nil,
		"searchEnabled":       s.searcher != nil,
	}
	if s.started {
		stats["queueLength"] = s.queue.Len()
		stats["analysisProcessed"] = s.pool.Processed()
		stats["dedupeEntries"] = s.deduper.Size()
	}
	return stats
}

// IsNotFound reports whether err means the session is unknown.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound)
}
