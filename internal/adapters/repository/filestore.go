package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/okian/interviewer/internal/domain/model"
	"github.com/okian/interviewer/pkg/logger"
	"github.com/okian/interviewer/pkg/metrics"
)

// File naming constants.
const (
	filePrefix         = "interview_"
	fileStampLayout    = "20060102_150405"
	transcriptSuffix   = "_transcript.json"
	summarySuffix      = "_summary.txt"
	analysisSuffix     = "_AI_ANALYSIS"
	failurePrefix      = "interview_analysis_failed_"
	defaultFileMode    = 0o644
	defaultDirMode     = 0o755
	fallbackNameForKey = "Candidate"
)

// FileStore writes artifacts as files into a single directory.
//
// Names are derived from the candidate name and a second-resolution stamp
// taken at write time. Two writes for the same candidate within the same
// second overwrite each other.
type FileStore struct {
	dir      string
	now      func() time.Time
	fileMode os.FileMode
	logger   logger.Logger
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a store rooted at dir. The directory is created on
// first write.
func NewFileStore(dir string, opts ...Option) *FileStore {
	if dir == "" {
		dir = "."
	}
	s := &FileStore{
		dir:      dir,
		now:      time.Now,
		fileMode: defaultFileMode,
		logger:   logger.Get().Named("repository"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the artifact directory.
func (s *FileStore) Dir() string { return s.dir }

// WriteSession implements Store.
func (s *FileStore) WriteSession(ctx context.Context, rec *model.SessionRecord) (model.Paths, error) {
	const op = "repository.write_session"
	start := time.Now()
	defer func() {
		metrics.RecordPersistenceLatency(float64(time.Since(start).Milliseconds()))
	}()

	base := s.baseName(rec.CandidateName)
	structured, err := encodeJSON(transcriptDocument(rec))
	if err != nil {
		return model.Paths{}, model.WrapKind(op, model.ErrPersistence, err)
	}

	paths := model.Paths{
		Structured:    filepath.Join(s.dir, base+transcriptSuffix),
		HumanReadable: filepath.Join(s.dir, base+summarySuffix),
	}
	if err := s.write(paths.Structured, structured); err != nil {
		metrics.RecordPersistenceError()
		return model.Paths{}, model.WrapKind(op, model.ErrPersistence, err)
	}
	if err := s.write(paths.HumanReadable, []byte(renderSummary(rec))); err != nil {
		metrics.RecordPersistenceError()
		return model.Paths{}, model.WrapKind(op, model.ErrPersistence, err)
	}

	s.logger.Info(ctx, "interview data saved",
		logger.String("session_id", rec.ID),
		logger.String("transcript", paths.Structured),
		logger.String("summary", paths.HumanReadable),
	)
	return paths, nil
}

// WriteAnalysis implements Store.
func (s *FileStore) WriteAnalysis(ctx context.Context, rec *model.SessionRecord, res *model.AnalysisResult) (model.Paths, error) {
	const op = "repository.write_analysis"
	stamp := s.now()

	name := res.CandidateName
	if name == "" || name == model.Unknown {
		name = rec.CandidateName
	}
	base := filePrefix + normalizeName(name) + "_" + stamp.Format(fileStampLayout) + analysisSuffix

	doc, err := encodeJSON(analysisDocument(rec, res, name, stamp))
	if err != nil {
		return model.Paths{}, model.WrapKind(op, model.ErrPersistence, err)
	}
	paths := model.Paths{
		Structured:    filepath.Join(s.dir, base+".json"),
		HumanReadable: filepath.Join(s.dir, base+".txt"),
	}
	if err := s.write(paths.Structured, doc); err != nil {
		return model.Paths{}, model.WrapKind(op, model.ErrPersistence, err)
	}
	if err := s.write(paths.HumanReadable, []byte(renderAnalysis(rec, res, name, stamp))); err != nil {
		return model.Paths{}, model.WrapKind(op, model.ErrPersistence, err)
	}

	s.logger.Info(ctx, "analysis artifacts saved",
		logger.String("session_id", rec.ID),
		logger.String("json", paths.Structured),
		logger.String("report", paths.HumanReadable),
	)
	return paths, nil
}

// WriteFailure implements Store.
func (s *FileStore) WriteFailure(ctx context.Context, sessionID string, cause error) (string, error) {
	const op = "repository.write_failure"
	stamp := s.now()
	path := filepath.Join(s.dir, failurePrefix+stamp.Format(fileStampLayout)+".txt")

	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	var b strings.Builder
	b.WriteString("AI Analysis Failed\n")
	b.WriteString("==================\n\n")
	if sessionID != "" {
		fmt.Fprintf(&b, "Session: %s\n", sessionID)
	}
	fmt.Fprintf(&b, "Error: %s\n", msg)
	fmt.Fprintf(&b, "Timestamp: %s\n", stamp.Format(time.RFC3339))

	if err := s.write(path, []byte(b.String())); err != nil {
		return "", model.WrapKind(op, model.ErrPersistence, err)
	}
	s.logger.Warn(ctx, "analysis failure record saved",
		logger.String("session_id", sessionID),
		logger.String("path", path),
	)
	return path, nil
}

func (s *FileStore) baseName(candidate string) string {
	return filePrefix + normalizeName(candidate) + "_" + s.now().Format(fileStampLayout)
}

func (s *FileStore) write(path string, data []byte) error {
	if err := os.MkdirAll(s.dir, defaultDirMode); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	if err := os.WriteFile(path, data, s.fileMode); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// normalizeName collapses whitespace runs to "_" and strips path separators
// so the candidate name is safe inside a file name.
func normalizeName(name string) string {
	name = strings.Join(strings.Fields(name), "_")
	name = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == os.PathSeparator {
			return '_'
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." {
		return fallbackNameForKey
	}
	return name
}

func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return buf.Bytes(), nil
}
