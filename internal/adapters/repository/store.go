// Package repository persists interview artifacts.
package repository

import (
	"context"

	"github.com/okian/interviewer/internal/domain/model"
)

// Store writes the durable artifacts of an interview.
type Store interface {
	// WriteSession writes the structured transcript and the human-readable
	// summary. It fails with model.ErrPersistence when storage is unwritable.
	WriteSession(ctx context.Context, rec *model.SessionRecord) (model.Paths, error)

	// WriteAnalysis writes the combined session + assessment artifacts.
	WriteAnalysis(ctx context.Context, rec *model.SessionRecord, res *model.AnalysisResult) (model.Paths, error)

	// WriteFailure writes a minimal record of a failed analysis run.
	WriteFailure(ctx context.Context, sessionID string, cause error) (string, error)
}
