// Package llm is the HTTP client for the text-analysis capability.
// It speaks Gemini generateContent and OpenAI-compatible chat completions.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/interviewer/internal/domain/analysis"
	"github.com/okian/interviewer/internal/domain/model"
	"github.com/okian/interviewer/pkg/logger"
)

// Provider names a supported backend.
type Provider string

// Supported providers.
const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
	ProviderNone   Provider = "none"
)

// Default endpoints.
const (
	DefaultGeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta"
	DefaultOpenAIEndpoint = "https://api.openai.com/v1"
	defaultTimeout        = 120 * time.Second
	maxErrorBody          = 4 << 10
)

// DefaultModel returns the model used when none is configured.
func DefaultModel(p Provider) string {
	if p == ProviderOpenAI {
		return "gpt-4o-mini"
	}
	return analysis.DefaultModel
}

// Client calls the configured provider. It implements analysis.Analyzer.
type Client struct {
	provider   Provider
	apiKey     string
	endpoint   string
	httpClient *http.Client
	logger     logger.Logger
}

var _ analysis.Analyzer = (*Client)(nil)

// New builds a client for provider. An empty apiKey is accepted; every call
// then fails with model.ErrMissingCredential.
func New(provider Provider, apiKey string, opts ...Option) (*Client, error) {
	c := &Client{
		provider:   provider,
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger.Get().Named("llm"),
	}
	switch provider {
	case ProviderGemini:
		c.endpoint = DefaultGeminiEndpoint
	case ProviderOpenAI:
		c.endpoint = DefaultOpenAIEndpoint
	default:
		return nil, model.NewKind("llm.new", model.ErrInvalidConfig, fmt.Sprintf("unsupported provider %q", provider))
	}
	for _, opt := range opts {
		opt(c)
	}
	c.endpoint = strings.TrimRight(c.endpoint, "/")
	return c, nil
}

// Provider returns the configured backend.
func (c *Client) Provider() Provider { return c.provider }

// Analyze sends the prompt and returns the model's text.
func (c *Client) Analyze(ctx context.Context, req analysis.Request) (analysis.Response, error) {
	const op = "llm.analyze"
	if c.apiKey == "" {
		return analysis.Response{}, model.NewKind(op, model.ErrMissingCredential, c.keyName()+" is not set")
	}

	var (
		text string
		err  error
	)
	start := time.Now()
	switch c.provider {
	case ProviderGemini:
		text, err = c.callGemini(ctx, req)
	case ProviderOpenAI:
		text, err = c.callOpenAI(ctx, req)
	}
	if err != nil {
		return analysis.Response{}, fmt.Errorf("%s: %w", op, err)
	}

	c.logger.Debug(ctx, "analysis reply received",
		logger.String("provider", string(c.provider)),
		logger.String("model", req.Model),
		logger.Int("chars", len(text)),
		logger.Duration("took", time.Since(start)),
	)
	return analysis.Response{Text: text}, nil
}

func (c *Client) keyName() string {
	if c.provider == ProviderOpenAI {
		return "OPENAI_API_KEY"
	}
	return "GOOGLE_API_KEY"
}

// postJSON sends body to url and decodes a 2xx reply into out. The response
// body is always drained and closed.
func (c *Client) postJSON(ctx context.Context, url string, headers map[string]string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
