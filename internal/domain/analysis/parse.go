package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/okian/interviewer/internal/domain/model"
)

// ParseResult decodes the capability's reply into a normalized result.
//
// A reply that is not valid JSON gets one retry after a leading "```json"
// (any case) or "```" fence and a trailing "```" are stripped. fallbackName is used when
// the reply names no candidate.
func ParseResult(text, fallbackName string) (*model.AnalysisResult, error) {
	const op = "analysis.parse"
	fields, err := decodeObject(text)
	if err != nil {
		fields, err = decodeObject(stripFence(text))
		if err != nil {
			return nil, model.WrapKind(op, model.ErrAnalysis, err)
		}
	}
	return normalize(fields, fallbackName), nil
}

func decodeObject(text string) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &fields); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}
	if fields == nil {
		return nil, fmt.Errorf("decode reply: not a JSON object")
	}
	return fields, nil
}

func stripFence(text string) string {
	text = strings.TrimSpace(text)
	switch {
	case len(text) >= len("```json") && strings.EqualFold(text[:len("```json")], "```json"):
		text = text[len("```json"):]
	case strings.HasPrefix(text, "```"):
		text = text[len("```"):]
	default:
		return text
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "```"))
}

func normalize(fields map[string]json.RawMessage, fallbackName string) *model.AnalysisResult {
	name := stringField(fields, "candidate_name")
	if name == model.Unknown && strings.TrimSpace(fallbackName) != "" {
		name = strings.TrimSpace(fallbackName)
	}
	return &model.AnalysisResult{
		CandidateName:       name,
		InterestLevel:       model.ParseInterestLevel(stringField(fields, "interest_level")),
		Readiness:           model.ParseReadiness(stringField(fields, "readiness")),
		ExperienceLevel:     model.ParseExperienceLevel(stringField(fields, "experience_level")),
		TechnicalSkills:     uniq(listField(fields, "technical_skills")),
		SoftSkills:          uniq(listField(fields, "soft_skills")),
		KeyStrengths:        stringField(fields, "key_strengths"),
		AreasForImprovement: stringField(fields, "areas_for_improvement"),
		OverallAssessment:   stringField(fields, "overall_assessment"),
		NotableQuotes:       listField(fields, "notable_quotes"),
	}
}

// stringField returns the trimmed string under key, or Unknown.
func stringField(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return model.Unknown
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return model.Unknown
	}
	if s = strings.TrimSpace(s); s == "" {
		return model.Unknown
	}
	return s
}

// listField accepts an array or a single string. Non-string array items are
// rendered with fmt; empty items are dropped.
func listField(fields map[string]json.RawMessage, key string) []string {
	out := []string{}
	raw, ok := fields[key]
	if !ok {
		return out
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		if single = strings.TrimSpace(single); single != "" {
			out = append(out, single)
		}
		return out
	}

	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		return out
	}
	for _, item := range items {
		var s string
		switch v := item.(type) {
		case nil:
			continue
		case string:
			s = v
		default:
			s = fmt.Sprint(v)
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// uniq drops case-insensitive repeats, keeping the first spelling.
func uniq(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, item := range items {
		k := strings.ToLower(item)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, item)
	}
	return out
}
