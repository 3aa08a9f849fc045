// Package transcript holds the append-only, time-ordered utterance log of a
// single interview session.
package transcript

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/okian/interviewer/internal/domain/model"
)

// Store is an append-only utterance log.
//
// Appends are serialized by a mutex. Seal acquires the same mutex once, marks
// the log closed and publishes a frozen slice; every read after that point is
// served from the frozen slice without locking.
type Store struct {
	mu      sync.Mutex
	entries []model.Utterance

	sealed atomic.Bool
	frozen atomic.Pointer[[]model.Utterance]
}

// New creates an empty store.
func New() *Store {
	return &Store{}
}

// Append adds u at the end of the log. It fails with model.ErrValidation when
// u is malformed or older than the last entry, and with model.ErrSealed once
// the log was sealed. A failed append leaves the store unchanged.
func (s *Store) Append(_ context.Context, u model.Utterance) error { //nolint:gocritic // Utterance is copied into the log
	const op = "transcript.append"
	if err := u.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sealed.Load() {
		return model.NewKind(op, model.ErrSealed, "")
	}
	if n := len(s.entries); n > 0 && u.Timestamp.Before(s.entries[n-1].Timestamp) {
		return model.NewKind(op, model.ErrValidation, "timestamp precedes last stored utterance")
	}
	if u.SpeakerID != nil {
		id := *u.SpeakerID
		u.SpeakerID = &id
	}
	s.entries = append(s.entries, u)
	return nil
}

// Snapshot returns an ordered copy of all utterances recorded so far.
func (s *Store) Snapshot() []model.Utterance {
	if frozen := s.frozen.Load(); frozen != nil {
		return clone(*frozen)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.entries)
}

// Seal closes the log for appends and returns the final snapshot. Calling it
// again returns the same content.
func (s *Store) Seal() []model.Utterance {
	s.mu.Lock()
	if !s.sealed.Load() {
		frozen := clone(s.entries)
		s.frozen.Store(&frozen)
		s.sealed.Store(true)
	}
	s.mu.Unlock()
	return s.Snapshot()
}

// Sealed reports whether Seal was called.
func (s *Store) Sealed() bool {
	return s.sealed.Load()
}

// IsEmpty is true iff no utterance was recorded.
func (s *Store) IsEmpty() bool {
	return s.Len() == 0
}

// Len returns the number of recorded utterances.
func (s *Store) Len() int {
	if frozen := s.frozen.Load(); frozen != nil {
		return len(*frozen)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Stats derives turn counts and the time span of the log.
func (s *Store) Stats() model.TranscriptStats {
	return Summarize(s.Snapshot())
}

// Summarize computes statistics over an already captured snapshot.
func Summarize(utterances []model.Utterance) model.TranscriptStats {
	var st model.TranscriptStats
	for i := range utterances {
		u := &utterances[i]
		st.Turns++
		switch u.Role {
		case model.RoleInterviewer:
			st.InterviewerTurns++
		case model.RoleCandidate:
			st.CandidateTurns++
		}
		if u.Interrupted {
			st.Interrupted++
		}
		st.Words += len(strings.Fields(u.Text))
	}
	if n := len(utterances); n > 1 {
		st.Span = utterances[n-1].Timestamp.Sub(utterances[0].Timestamp)
	}
	return st
}

func clone(in []model.Utterance) []model.Utterance {
	out := make([]model.Utterance, len(in))
	copy(out, in)
	for i := range out {
		if out[i].SpeakerID != nil {
			id := *out[i].SpeakerID
			out[i].SpeakerID = &id
		}
	}
	return out
}
