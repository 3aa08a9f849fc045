// Package analysis turns a concluded session into a structured candidate
// assessment.
//
// The pipeline renders the transcript, asks the analysis capability for a
// ten-field JSON object, normalizes the reply and writes the enhanced
// artifacts. Every failure ends in a failure record; nothing is returned to
// the session.
package analysis

import (
	"context"
	"errors"
	"time"

	"github.com/okian/interviewer/internal/domain/model"
	"github.com/okian/interviewer/pkg/logger"
	"github.com/okian/interviewer/pkg/metrics"
)

// Defaults.
const (
	DefaultModel   = "gemini-2.0-flash"
	DefaultTimeout = 60 * time.Second
)

// Request is sent to the analysis capability.
type Request struct {
	Model  string
	Prompt string
}

// Response is the capability's raw text reply.
type Response struct {
	Text string
}

// Analyzer is the external text-analysis capability.
type Analyzer interface {
	Analyze(ctx context.Context, req Request) (Response, error)
}

// ArtifactWriter stores analysis results and failure records.
type ArtifactWriter interface {
	WriteAnalysis(ctx context.Context, rec *model.SessionRecord, res *model.AnalysisResult) (model.Paths, error)
	WriteFailure(ctx context.Context, sessionID string, cause error) (string, error)
}

// OutcomeKind classifies a pipeline run.
type OutcomeKind string

// Outcome kinds.
const (
	OutcomeSkipped   OutcomeKind = "skipped"
	OutcomeSucceeded OutcomeKind = "succeeded"
	OutcomeFailed    OutcomeKind = "failed"
)

// Outcome describes what a run produced.
type Outcome struct {
	Kind          OutcomeKind
	Result        *model.AnalysisResult
	Paths         model.Paths
	FailureRecord string
	Err           error
}

// Pipeline runs the analysis for one job at a time. It holds no per-job
// state and may be shared by several workers.
type Pipeline struct {
	analyzer Analyzer
	writer   ArtifactWriter
	model    string
	timeout  time.Duration
	logger   logger.Logger
}

// Option applies a configuration option to the Pipeline.
type Option func(*Pipeline)

// WithModel sets the model name sent with each request.
func WithModel(name string) Option {
	return func(p *Pipeline) {
		if name != "" {
			p.model = name
		}
	}
}

// WithTimeout bounds each capability call.
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPipeline creates a pipeline. A nil analyzer disables analysis: every
// run is skipped.
func NewPipeline(analyzer Analyzer, writer ArtifactWriter, opts ...Option) *Pipeline {
	p := &Pipeline{
		analyzer: analyzer,
		writer:   writer,
		model:    DefaultModel,
		timeout:  DefaultTimeout,
		logger:   logger.Get().Named("analysis"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run analyzes the job's record.
func (p *Pipeline) Run(ctx context.Context, job model.AnalysisJob) Outcome { //nolint:gocritic // jobs are values on the queue
	rec := &job.Record
	start := time.Now()

	if p.analyzer == nil {
		p.logger.Info(ctx, "analysis disabled, skipping", logger.String("session_id", rec.ID))
		metrics.RecordAnalysisOutcome(string(OutcomeSkipped))
		return Outcome{Kind: OutcomeSkipped}
	}

	transcript := RenderTranscript(rec.Utterances)
	if transcript == "" {
		p.logger.Info(ctx, "empty transcript, skipping analysis", logger.String("session_id", rec.ID))
		metrics.RecordAnalysisOutcome(string(OutcomeSkipped))
		return Outcome{Kind: OutcomeSkipped}
	}

	p.logger.Info(ctx, "analyzing interview",
		logger.String("session_id", rec.ID),
		logger.String("model", p.model),
		logger.Int("turns", len(rec.Utterances)),
	)

	res, err := p.analyze(ctx, rec, transcript)
	if err == nil {
		var paths model.Paths
		paths, err = p.writer.WriteAnalysis(ctx, rec, res)
		if err == nil {
			metrics.RecordAnalysisOutcome(string(OutcomeSucceeded))
			metrics.RecordAnalysisLatency(float64(time.Since(start).Milliseconds()))
			p.logger.Info(ctx, "analysis complete",
				logger.String("session_id", rec.ID),
				logger.String("report", paths.HumanReadable),
			)
			return Outcome{Kind: OutcomeSucceeded, Result: res, Paths: paths}
		}
	}
	return p.fail(ctx, rec.ID, err, start)
}

func (p *Pipeline) analyze(ctx context.Context, rec *model.SessionRecord, transcript string) (*model.AnalysisResult, error) {
	const op = "analysis.run"
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.analyzer.Analyze(callCtx, Request{
		Model:  p.model,
		Prompt: BuildPrompt(rec.JobDescription, transcript),
	})
	if err != nil {
		if errors.Is(err, model.ErrAnalysis) {
			return nil, err
		}
		return nil, model.WrapKind(op, model.ErrAnalysis, err)
	}
	return ParseResult(resp.Text, rec.CandidateName)
}

func (p *Pipeline) fail(ctx context.Context, sessionID string, cause error, start time.Time) Outcome {
	metrics.RecordAnalysisOutcome(string(OutcomeFailed))
	metrics.RecordAnalysisLatency(float64(time.Since(start).Milliseconds()))
	p.logger.Error(ctx, "analysis failed",
		logger.String("session_id", sessionID),
		logger.Error(cause),
	)

	out := Outcome{Kind: OutcomeFailed, Err: cause}
	path, err := p.writer.WriteFailure(ctx, sessionID, cause)
	if err != nil {
		p.logger.Error(ctx, "failed to save analysis failure record",
			logger.String("session_id", sessionID),
			logger.Error(err),
		)
		return out
	}
	out.FailureRecord = path
	return out
}
