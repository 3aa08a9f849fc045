package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/okian/interviewer/internal/domain/model"
	"github.com/okian/interviewer/pkg/logger"
	"github.com/okian/interviewer/pkg/metrics"
)

// Fixed replies.
const (
	MissingKeyMessage = "Tavily API key is not set. Please set the TAVILY_API_KEY environment variable."
	NoResultsMessage  = "No results found."
	errorPrefix       = "An error occurred during web search: "
	maxHits           = 5
)

// Tool wraps a Searcher so that every call yields text the interviewer can
// speak. It never returns an error.
type Tool struct {
	searcher Searcher
	timeout  time.Duration
	logger   logger.Logger
}

// ToolOption applies a configuration option to the Tool.
type ToolOption func(*Tool)

// WithTimeout bounds each lookup.
func WithTimeout(d time.Duration) ToolOption {
	return func(t *Tool) {
		if d > 0 {
			t.timeout = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) ToolOption {
	return func(t *Tool) {
		if l != nil {
			t.logger = l
		}
	}
}

// NewTool creates a tool. A nil searcher behaves like a missing credential.
func NewTool(s Searcher, opts ...ToolOption) *Tool {
	t := &Tool{
		searcher: s,
		timeout:  10 * time.Second,
		logger:   logger.Get().Named("search"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Search runs query and renders the reply. The provider's direct answer is
// preferred; otherwise the hits are listed.
func (t *Tool) Search(ctx context.Context, query string) string {
	start := time.Now()
	defer func() {
		metrics.RecordSearchLatency(float64(time.Since(start).Milliseconds()))
	}()

	if t.searcher == nil {
		metrics.RecordSearchOutcome("no_credential")
		return MissingKeyMessage
	}

	callCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	res, err := t.searcher.Search(callCtx, query)
	switch {
	case errors.Is(err, model.ErrMissingCredential):
		metrics.RecordSearchOutcome("no_credential")
		return MissingKeyMessage
	case err != nil:
		metrics.RecordSearchOutcome("error")
		t.logger.Warn(ctx, "web search failed", logger.String("query", query), logger.Error(err))
		return errorPrefix + rootCause(err).Error()
	}

	if answer := strings.TrimSpace(res.Answer); answer != "" {
		metrics.RecordSearchOutcome("answer")
		return answer
	}
	if text := renderHits(res.Results); text != "" {
		metrics.RecordSearchOutcome("results")
		return text
	}
	metrics.RecordSearchOutcome("empty")
	return NoResultsMessage
}

func renderHits(hits []Hit) string {
	var b strings.Builder
	n := 0
	for _, h := range hits {
		content := strings.TrimSpace(h.Content)
		title := strings.TrimSpace(h.Title)
		if content == "" && title == "" {
			continue
		}
		if n == maxHits {
			break
		}
		n++
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		switch {
		case title != "" && content != "":
			fmt.Fprintf(&b, "%d. %s: %s", n, title, content)
		case title != "":
			fmt.Fprintf(&b, "%d. %s", n, title)
		default:
			fmt.Fprintf(&b, "%d. %s", n, content)
		}
		if h.URL != "" {
			fmt.Fprintf(&b, " (%s)", h.URL)
		}
	}
	return b.String()
}

// rootCause strips the op/kind prefix so the spoken text carries only the
// underlying failure.
func rootCause(err error) error {
	var ke *model.KindError
	if errors.As(err, &ke) && ke.Err != nil {
		return ke.Err
	}
	return err
}
