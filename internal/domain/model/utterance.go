// Package model contains domain models passed between layers.
package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Role identifies who spoke an utterance. The zero value is invalid.
type Role int

// Speaker roles.
const (
	RoleUnset Role = iota
	RoleInterviewer
	RoleCandidate
)

// String returns the speaker label used in transcripts.
func (r Role) String() string {
	switch r {
	case RoleInterviewer:
		return "Interviewer"
	case RoleCandidate:
		return "Candidate"
	default:
		return "unset"
	}
}

// Valid reports whether r is a known speaker role.
func (r Role) Valid() bool {
	return r == RoleInterviewer || r == RoleCandidate
}

// ParseRole accepts the canonical labels plus the dialogue layer's
// "assistant"/"agent" and "user" aliases, case-insensitively.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "interviewer", "assistant", "agent":
		return RoleInterviewer, nil
	case "candidate", "user":
		return RoleCandidate, nil
	}
	return RoleUnset, fmt.Errorf("unknown role %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("cannot marshal role %d", int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Utterance is one finalized turn of the conversation.
type Utterance struct {
	Timestamp   time.Time `json:"timestamp"`
	Role        Role      `json:"role"`
	Text        string    `json:"text"`
	SpeakerID   *string   `json:"speaker_id"` // candidate turns only
	Interrupted bool      `json:"interrupted"`
}

// Validate checks the per-utterance invariants that do not depend on
// transcript position.
func (u *Utterance) Validate() error {
	if !u.Role.Valid() {
		return NewKind("utterance.validate", ErrValidation, "role is unset")
	}
	if u.Timestamp.IsZero() {
		return NewKind("utterance.validate", ErrValidation, "timestamp is unset")
	}
	if strings.TrimSpace(u.Text) == "" && !u.Interrupted {
		return NewKind("utterance.validate", ErrValidation, "text is empty and utterance is not interrupted")
	}
	if u.SpeakerID != nil && u.Role != RoleCandidate {
		return NewKind("utterance.validate", ErrValidation, "speaker id is only allowed on candidate turns")
	}
	return nil
}

// Speaker returns the optional speaker id or "".
func (u *Utterance) Speaker() string {
	if u.SpeakerID == nil {
		return ""
	}
	return *u.SpeakerID
}

// MarshalJSON keeps timestamps in RFC3339 with sub-second precision.
func (u Utterance) MarshalJSON() ([]byte, error) { //nolint:gocritic // value receiver so slices of Utterance marshal the same way
	type alias Utterance
	return json.Marshal(struct {
		alias
		Timestamp string `json:"timestamp"`
	}{
		alias:     alias(u),
		Timestamp: u.Timestamp.UTC().Format(time.RFC3339Nano),
	})
}

// StringPtr is a helper for optional string fields.
func StringPtr(s string) *string {
	return &s
}
