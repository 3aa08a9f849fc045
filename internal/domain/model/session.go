package model

import (
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of an interview session.
type Status int

// Session lifecycle states. Status only moves forward, except into Failed.
const (
	StatusNotStarted Status = iota
	StatusInProgress
	StatusConcluding
	StatusCompleted
	StatusFailed
)

var statusNames = map[Status]string{
	StatusNotStarted: "not_started",
	StatusInProgress: "in_progress",
	StatusConcluding: "concluding",
	StatusCompleted:  "completed",
	StatusFailed:     "failed",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	want := strings.ToLower(strings.TrimSpace(string(b)))
	for st, name := range statusNames {
		if name == want {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", string(b))
}

// TranscriptStats are derived from the utterance log.
type TranscriptStats struct {
	Turns            int           `json:"turns"`
	InterviewerTurns int           `json:"interviewer_turns"`
	CandidateTurns   int           `json:"candidate_turns"`
	Interrupted      int           `json:"interrupted"`
	Words            int           `json:"words"`
	Span             time.Duration `json:"-"`
}

// SessionRecord is a read-only snapshot of a session handed to persistence
// and analysis. It does not reference the live session.
type SessionRecord struct {
	ID              string          `json:"session_id"`
	CandidateName   string          `json:"candidate_name"`
	JobDescription  string          `json:"job_description"`
	StartTime       time.Time       `json:"start_time"`
	EndTime         time.Time       `json:"end_time"`
	DurationMinutes float64         `json:"duration_minutes"`
	Status          Status          `json:"interview_status"`
	SummaryNotes    string          `json:"summary_notes,omitempty"`
	Stats           TranscriptStats `json:"stats"`
	Utterances      []Utterance     `json:"transcript"`
}

// Paths locates the two artifacts produced by one write.
type Paths struct {
	Structured    string `json:"structured"`
	HumanReadable string `json:"human_readable"`
}

// AnalysisJob is the unit of work handed to the analysis workers.
type AnalysisJob struct {
	ID         string
	Record     SessionRecord
	Artifacts  Paths
	EnqueuedAt time.Time
}
