// Package search provides the web lookup tool the interviewer can use
// mid-conversation.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/interviewer/internal/domain/model"
)

// DefaultEndpoint is the Tavily search API.
const DefaultEndpoint = "https://api.tavily.com/search"

// Hit is one search result.
type Hit struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// Result is a provider reply.
type Result struct {
	Answer  string `json:"answer"`
	Results []Hit  `json:"results"`
}

// Searcher runs one query.
type Searcher interface {
	Search(ctx context.Context, query string) (*Result, error)
}

// TavilyClient calls a Tavily-compatible search endpoint.
type TavilyClient struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

var _ Searcher = (*TavilyClient)(nil)

// NewTavilyClient creates a client. An empty apiKey makes every call fail
// with model.ErrMissingCredential.
func NewTavilyClient(apiKey, endpoint string, timeout time.Duration) *TavilyClient {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TavilyClient{
		apiKey:     strings.TrimSpace(apiKey),
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type tavilyRequest struct {
	APIKey        string `json:"api_key"`
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth"`
	IncludeAnswer bool   `json:"include_answer"`
}

// Search implements Searcher.
func (c *TavilyClient) Search(ctx context.Context, query string) (*Result, error) {
	const op = "search.tavily"
	if c.apiKey == "" {
		return nil, model.NewKind(op, model.ErrMissingCredential, "TAVILY_API_KEY is not set")
	}

	payload, err := json.Marshal(tavilyRequest{
		APIKey:        c.apiKey,
		Query:         query,
		SearchDepth:   "basic",
		IncludeAnswer: true,
	})
	if err != nil {
		return nil, model.WrapKind(op, model.ErrTool, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, model.WrapKind(op, model.ErrTool, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, model.WrapKind(op, model.ErrTool, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return nil, model.WrapKind(op, model.ErrTool,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))))
	}

	var out Result
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, model.WrapKind(op, model.ErrTool, fmt.Errorf("decode response: %w", err))
	}
	return &out, nil
}
