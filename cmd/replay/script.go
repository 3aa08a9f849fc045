package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"code.sajari.com/docconv"
	"gopkg.in/yaml.v3"

	"github.com/okian/interviewer/internal/domain/model"
)

// Script is a recorded interview to drive through a session.
type Script struct {
	CandidateName  string `yaml:"candidate_name"`
	JobDescription string `yaml:"job_description"`

	// JobDescriptionFile is read when JobDescription is empty. Relative
	// paths are resolved against the script's directory.
	JobDescriptionFile string `yaml:"job_description_file"`

	Notes string `yaml:"notes"`
	Turns []Turn `yaml:"utterances"`
}

// Turn is one scripted utterance. Offset is measured from session start.
type Turn struct {
	Offset      time.Duration `yaml:"offset"`
	Role        string        `yaml:"role"`
	Text        string        `yaml:"text"`
	SpeakerID   string        `yaml:"speaker_id"`
	Interrupted bool          `yaml:"interrupted"`
}

func loadScript(path string) (*Script, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}
	var s Script
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parsing script %s: %w", path, err)
	}
	if strings.TrimSpace(s.JobDescription) == "" && s.JobDescriptionFile != "" {
		jd := s.JobDescriptionFile
		if !filepath.IsAbs(jd) {
			jd = filepath.Join(filepath.Dir(path), jd)
		}
		if s.JobDescription, err = readDocument(jd); err != nil {
			return nil, err
		}
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("invalid script %s: %w", path, err)
	}
	return &s, nil
}

func (s *Script) validate() error {
	if strings.TrimSpace(s.CandidateName) == "" {
		return errors.New("candidate_name is required")
	}
	if strings.TrimSpace(s.JobDescription) == "" {
		return errors.New("job_description is required")
	}
	var last time.Duration
	for i, t := range s.Turns {
		if t.Offset < last {
			return fmt.Errorf("utterance %d: offset %s is before %s", i, t.Offset, last)
		}
		last = t.Offset
		if _, err := model.ParseRole(t.Role); err != nil {
			return fmt.Errorf("utterance %d: %w", i, err)
		}
	}
	return nil
}

// utterance builds the turn relative to start.
func (t *Turn) utterance(start time.Time) model.Utterance {
	role, _ := model.ParseRole(t.Role)
	u := model.Utterance{
		Timestamp:   start.Add(t.Offset),
		Role:        role,
		Text:        t.Text,
		Interrupted: t.Interrupted,
	}
	if t.SpeakerID != "" {
		u.SpeakerID = model.StringPtr(t.SpeakerID)
	}
	return u
}

// readDocument extracts the text of a job description file.
func readDocument(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".txt", ".md", "":
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading job description: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	case ".pdf", ".docx", ".doc", ".rtf", ".odt", ".html":
		res, err := docconv.ConvertPath(path)
		if err != nil {
			return "", fmt.Errorf("parsing job description %s: %w", path, err)
		}
		return strings.TrimSpace(res.Body), nil
	default:
		return "", fmt.Errorf("unsupported job description type: %s", ext)
	}
}
