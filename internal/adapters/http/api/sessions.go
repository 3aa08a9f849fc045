package api

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	service "github.com/okian/interviewer/internal/app"
	"github.com/okian/interviewer/internal/domain/model"
)

// SessionsHandler serves the dialogue collaborator's callbacks.
type SessionsHandler struct {
	deps Dependencies
	now  func() time.Time
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps Dependencies) *SessionsHandler {
	return &SessionsHandler{deps: deps, now: time.Now}
}

type createRequest struct {
	CandidateName  string `json:"candidate_name"`
	JobDescription string `json:"job_description"`
}

type createResponse struct {
	SessionID string       `json:"session_id"`
	Status    model.Status `json:"status"`
}

// utteranceRequest mirrors a finalized turn from the transport.
type utteranceRequest struct {
	UtteranceID string  `json:"utterance_id"`
	Role        string  `json:"role"`
	Text        string  `json:"text"`
	SpeakerID   *string `json:"speaker_id"`
	Interrupted bool    `json:"interrupted"`
	TS          string  `json:"ts"`
}

func (u utteranceRequest) toUtterance(now time.Time) (model.Utterance, error) {
	const op = "api.utterance"
	role, err := model.ParseRole(u.Role)
	if err != nil {
		return model.Utterance{}, WrapKind(op, ErrBadRequest, err)
	}
	ts := now
	if strings.TrimSpace(u.TS) != "" {
		ts, err = time.Parse(time.RFC3339Nano, u.TS)
		if err != nil {
			return model.Utterance{}, NewKind(op, ErrBadRequest, "invalid ts; must be RFC3339")
		}
	}
	return model.Utterance{
		Timestamp:   ts,
		Role:        role,
		Text:        u.Text,
		SpeakerID:   u.SpeakerID,
		Interrupted: u.Interrupted,
	}, nil
}

type endRequest struct {
	Notes string `json:"notes"`
}

type endResponse struct {
	Message string       `json:"message"`
	Status  model.Status `json:"status"`
}

// HandleCreate handles POST /sessions.
func (h *SessionsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decode(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	sess, err := h.deps.StartSession(r.Context(), service.SessionRequest{
		CandidateName:  req.CandidateName,
		JobDescription: req.JobDescription,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createResponse{SessionID: sess.ID(), Status: sess.Status()})
}

// HandleGet handles GET /sessions/{id}.
func (h *SessionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	sess, err := h.deps.Session(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Info())
}

// HandleUtterance handles POST /sessions/{id}/utterances.
func (h *SessionsHandler) HandleUtterance(w http.ResponseWriter, r *http.Request) {
	var req utteranceRequest
	if err := decode(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	u, err := req.toUtterance(h.now())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	dup, err := h.deps.RecordUtterance(r.Context(), r.PathValue("id"), req.UtteranceID, u)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if dup {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted"})
}

// HandleEnd handles POST /sessions/{id}/end. An empty body means no notes.
func (h *SessionsHandler) HandleEnd(w http.ResponseWriter, r *http.Request) {
	var req endRequest
	if err := decode(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeServiceError(w, err)
		return
	}
	msg, status, err := h.deps.RequestEnd(r.Context(), r.PathValue("id"), req.Notes)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, endResponse{Message: msg, Status: status})
}
