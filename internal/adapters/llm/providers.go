package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/okian/interviewer/internal/domain/analysis"
)

var errEmptyReply = errors.New("provider returned no text")

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (c *Client) callGemini(ctx context.Context, req analysis.Request) (string, error) {
	url := c.endpoint + "/models/" + req.Model + ":generateContent"
	body := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: req.Prompt}}}},
	}
	var out geminiResponse
	if err := c.postJSON(ctx, url, map[string]string{"x-goog-api-key": c.apiKey}, body, &out); err != nil {
		return "", err
	}
	if len(out.Candidates) == 0 {
		return "", errEmptyReply
	}
	var b strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	if b.Len() == 0 {
		return "", errEmptyReply
	}
	return b.String(), nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *Client) callOpenAI(ctx context.Context, req analysis.Request) (string, error) {
	body := chatRequest{
		Model: req.Model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are an interview analyst. Reply with JSON only."},
			{Role: "user", Content: req.Prompt},
		},
		Temperature: 0.2,
	}
	var out chatResponse
	headers := map[string]string{"Authorization": "Bearer " + c.apiKey}
	if err := c.postJSON(ctx, c.endpoint+"/chat/completions", headers, body, &out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", errEmptyReply
	}
	return out.Choices[0].Message.Content, nil
}
