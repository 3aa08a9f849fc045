// Package session implements the lifecycle of a single interview:
// NotStarted, InProgress, Concluding and finally Completed or Failed.
//
// Conclusion persists the transcript synchronously, hands an analysis job to
// the dispatcher without waiting for it, and arms a shutdown alarm that fires
// after the grace period.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/interviewer/internal/domain/model"
	"github.com/okian/interviewer/internal/domain/transcript"
	"github.com/okian/interviewer/pkg/logger"
	"github.com/okian/interviewer/pkg/metrics"
)

// Defaults applied to a zero Config.
const (
	DefaultGracePeriod       = 3 * time.Second
	DefaultConclusionMessage = "Thank you for your time, This concludes our interview session. " +
		"We have recorded your responses and will be in touch regarding next steps. Have a great day!"
)

// Persister writes the session artifacts.
type Persister interface {
	WriteSession(ctx context.Context, rec *model.SessionRecord) (model.Paths, error)
}

// Dispatcher accepts an analysis job. Implementations must not block.
type Dispatcher interface {
	Dispatch(ctx context.Context, job model.AnalysisJob) error
}

// Observer is notified of session events. Calls happen on the caller's
// goroutine, so implementations must be quick.
type Observer interface {
	OnUtterance(ctx context.Context, sessionID string, u model.Utterance)
	OnTermination(ctx context.Context, sessionID string, status model.Status, paths model.Paths)
}

// DialogueHandler is the surface the transport layer drives.
type DialogueHandler interface {
	OnFinalUtterance(ctx context.Context, u model.Utterance) error
	OnTerminationRequested(ctx context.Context, notes string) string
}

// Config holds the per-session settings.
type Config struct {
	CandidateName     string
	JobDescription    string
	GracePeriod       time.Duration
	ConclusionMessage string
}

// Validate checks the required fields.
func (c *Config) Validate() error {
	const op = "session.config"
	if strings.TrimSpace(c.CandidateName) == "" {
		return model.NewKind(op, model.ErrInvalidConfig, "candidate name is required")
	}
	if strings.TrimSpace(c.JobDescription) == "" {
		return model.NewKind(op, model.ErrInvalidConfig, "job description is required")
	}
	if c.GracePeriod < 0 {
		return model.NewKind(op, model.ErrInvalidConfig, "grace period must not be negative")
	}
	return nil
}

func (c *Config) withDefaults() {
	if c.GracePeriod == 0 {
		c.GracePeriod = DefaultGracePeriod
	}
	if strings.TrimSpace(c.ConclusionMessage) == "" {
		c.ConclusionMessage = DefaultConclusionMessage
	}
}

// Session is one interview. It is safe for concurrent use.
type Session struct {
	id         string
	cfg        Config
	store      *transcript.Store
	persister  Persister
	dispatcher Dispatcher
	observers  []Observer
	now        func() time.Time
	shutdown   func()
	logger     logger.Logger

	mu        sync.Mutex
	status    model.Status
	startTime time.Time
	endTime   time.Time
	notes     string
	artifacts model.Paths
	alarm     *Alarm
	closed    bool

	done     chan struct{}
	doneOnce sync.Once
}

var _ DialogueHandler = (*Session)(nil)

// New validates cfg and builds a session in NotStarted. A persister is
// required.
func New(cfg Config, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.withDefaults()

	s := &Session{
		id:     uuid.NewString(),
		cfg:    cfg,
		store:  transcript.New(),
		now:    time.Now,
		logger: logger.Get().Named("session"),
		status: model.StatusNotStarted,
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.persister == nil {
		return nil, model.NewKind("session.new", model.ErrInvalidConfig, "persister is required")
	}
	return s, nil
}

// ID returns the session identifier shared by every artifact.
func (s *Session) ID() string { return s.id }

// Config returns the effective configuration.
func (s *Session) Config() Config { return s.cfg }

// Status returns the current lifecycle state.
func (s *Session) Status() model.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// StartTime returns when Start was called, or the zero time.
func (s *Session) StartTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startTime
}

// Artifacts returns the paths written at conclusion.
func (s *Session) Artifacts() model.Paths {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.artifacts
}

// Snapshot returns the utterances recorded so far.
func (s *Session) Snapshot() []model.Utterance { return s.store.Snapshot() }

// Stats returns transcript statistics.
func (s *Session) Stats() model.TranscriptStats { return s.store.Stats() }

// Info is a point-in-time view of a session.
type Info struct {
	ID             string                `json:"session_id"`
	CandidateName  string                `json:"candidate_name"`
	JobDescription string                `json:"job_description"`
	Status         model.Status          `json:"status"`
	StartTime      time.Time             `json:"start_time"`
	Artifacts      model.Paths           `json:"artifacts"`
	Stats          model.TranscriptStats `json:"stats"`
	Transcript     []model.Utterance     `json:"transcript"`
}

// Info returns a view of the session's current state.
func (s *Session) Info() Info {
	utterances := s.store.Snapshot()
	s.mu.Lock()
	defer s.mu.Unlock()
	return Info{
		ID:             s.id,
		CandidateName:  s.cfg.CandidateName,
		JobDescription: s.cfg.JobDescription,
		Status:         s.status,
		StartTime:      s.startTime,
		Artifacts:      s.artifacts,
		Stats:          transcript.Summarize(utterances),
		Transcript:     utterances,
	}
}

// Done is closed when the shutdown alarm fires or Close is called.
func (s *Session) Done() <-chan struct{} { return s.done }

// Start moves the session to InProgress and records the start time.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.status != model.StatusNotStarted {
		s.mu.Unlock()
		return model.NewKind("session.start", model.ErrAlreadyStarted, "")
	}
	s.status = model.StatusInProgress
	s.startTime = s.now()
	s.mu.Unlock()

	metrics.RecordSessionStarted()
	s.logger.Info(ctx, "interview started",
		logger.String("session_id", s.id),
		logger.String("candidate", s.cfg.CandidateName),
	)
	return nil
}

// RecordUtterance appends a finalized turn. Before Start it fails with
// model.ErrNotStarted. Once termination began the turn is dropped with a
// warning and nil is returned.
func (s *Session) RecordUtterance(ctx context.Context, u model.Utterance) error { //nolint:gocritic // utterances are passed by value across the API
	switch st := s.Status(); st {
	case model.StatusNotStarted:
		return model.NewKind("session.record", model.ErrNotStarted, "")
	case model.StatusInProgress:
	default:
		s.drop(ctx, u, st)
		return nil
	}

	if err := s.store.Append(ctx, u); err != nil {
		if errors.Is(err, model.ErrSealed) {
			s.drop(ctx, u, s.Status())
			return nil
		}
		metrics.RecordUtteranceDropped("invalid")
		return err
	}

	metrics.RecordUtteranceRecorded(u.Role.String())
	for _, o := range s.observers {
		o.OnUtterance(ctx, s.id, u)
	}
	return nil
}

func (s *Session) drop(ctx context.Context, u model.Utterance, st model.Status) { //nolint:gocritic // mirrors RecordUtterance
	metrics.RecordUtteranceDropped("terminated")
	s.logger.Warn(ctx, "utterance after termination dropped",
		logger.String("session_id", s.id),
		logger.String("status", st.String()),
		logger.String("role", u.Role.String()),
	)
}

// OnFinalUtterance implements DialogueHandler.
func (s *Session) OnFinalUtterance(ctx context.Context, u model.Utterance) error { //nolint:gocritic // see RecordUtterance
	return s.RecordUtterance(ctx, u)
}

// OnTerminationRequested implements DialogueHandler.
func (s *Session) OnTerminationRequested(ctx context.Context, notes string) string {
	return s.RequestEnd(ctx, notes)
}

// RequestEnd concludes the session and returns the message to speak.
// Only the first call from InProgress does any work; every call returns the
// same message.
func (s *Session) RequestEnd(ctx context.Context, notes string) string {
	msg := s.cfg.ConclusionMessage

	s.mu.Lock()
	if s.status != model.StatusInProgress {
		st := s.status
		s.mu.Unlock()
		s.logger.Debug(ctx, "end requested outside of an active interview",
			logger.String("session_id", s.id),
			logger.String("status", st.String()),
		)
		return msg
	}
	s.status = model.StatusConcluding
	s.endTime = s.now()
	s.notes = strings.TrimSpace(notes)
	s.mu.Unlock()

	s.conclude(context.WithoutCancel(ctx))
	return msg
}

func (s *Session) conclude(ctx context.Context) {
	utterances := s.store.Seal()
	rec := s.record(utterances)

	paths, err := s.persister.WriteSession(ctx, &rec)
	if err != nil {
		s.logger.Error(ctx, "failed to save interview data",
			logger.String("session_id", s.id),
			logger.Error(err),
		)
		s.finish(ctx, model.StatusFailed, model.Paths{})
		return
	}

	s.mu.Lock()
	s.artifacts = paths
	s.mu.Unlock()

	if s.dispatcher != nil {
		job := model.AnalysisJob{
			ID:         uuid.NewString(),
			Record:     rec,
			Artifacts:  paths,
			EnqueuedAt: s.now(),
		}
		if err := s.dispatcher.Dispatch(ctx, job); err != nil {
			s.logger.Warn(ctx, "analysis dispatch failed",
				logger.String("session_id", s.id),
				logger.Error(err),
			)
		}
	}

	s.finish(ctx, model.StatusCompleted, paths)
}

func (s *Session) record(utterances []model.Utterance) model.SessionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.SessionRecord{
		ID:              s.id,
		CandidateName:   s.cfg.CandidateName,
		JobDescription:  s.cfg.JobDescription,
		StartTime:       s.startTime,
		EndTime:         s.endTime,
		DurationMinutes: s.endTime.Sub(s.startTime).Minutes(),
		Status:          model.StatusCompleted,
		SummaryNotes:    s.notes,
		Stats:           transcript.Summarize(utterances),
		Utterances:      utterances,
	}
}

func (s *Session) finish(ctx context.Context, status model.Status, paths model.Paths) {
	s.mu.Lock()
	s.status = status
	closed := s.closed
	if !closed {
		s.alarm = newAlarm(s.cfg.GracePeriod, s.fire)
	}
	s.mu.Unlock()

	metrics.RecordSessionFinished(status.String())
	s.logger.Info(ctx, "interview concluded",
		logger.String("session_id", s.id),
		logger.String("status", status.String()),
		logger.Duration("shutdown_in", s.cfg.GracePeriod),
		logger.Bool("closed", closed),
	)
	for _, o := range s.observers {
		o.OnTermination(ctx, s.id, status, paths)
	}
}

func (s *Session) fire() {
	if s.shutdown != nil {
		s.shutdown()
	}
	s.release()
}

func (s *Session) release() {
	s.doneOnce.Do(func() { close(s.done) })
}

// Close cancels a pending shutdown alarm and releases Done. It does not
// change the session status. No alarm is armed by a conclusion that
// finishes after Close.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	alarm := s.alarm
	s.mu.Unlock()
	// A fired alarm closes done from its own callback.
	if alarm == nil || alarm.Stop() {
		s.release()
	}
}
