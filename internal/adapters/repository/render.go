package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/interviewer/internal/domain/model"
)

// Layouts used in the human-readable artifacts.
const (
	headerTimeLayout = "2006-01-02 15:04:05 UTC"
	lineTimeLayout   = "15:04:05"
)

type statsDocument struct {
	model.TranscriptStats
	SpanSeconds float64 `json:"span_seconds"`
}

type sessionDocument struct {
	SessionID       string            `json:"session_id"`
	CandidateName   string            `json:"candidate_name"`
	JobDescription  string            `json:"job_description"`
	StartTime       string            `json:"start_time"`
	EndTime         string            `json:"end_time"`
	DurationMinutes float64           `json:"duration_minutes"`
	Status          model.Status      `json:"interview_status"`
	SummaryNotes    string            `json:"summary_notes,omitempty"`
	Stats           statsDocument     `json:"stats"`
	Transcript      []model.Utterance `json:"transcript"`
}

func transcriptDocument(rec *model.SessionRecord) sessionDocument {
	utterances := rec.Utterances
	if utterances == nil {
		utterances = []model.Utterance{}
	}
	return sessionDocument{
		SessionID:       rec.ID,
		CandidateName:   rec.CandidateName,
		JobDescription:  rec.JobDescription,
		StartTime:       formatInstant(rec.StartTime),
		EndTime:         formatInstant(rec.EndTime),
		DurationMinutes: rec.DurationMinutes,
		Status:          rec.Status,
		SummaryNotes:    rec.SummaryNotes,
		Stats: statsDocument{
			TranscriptStats: rec.Stats,
			SpanSeconds:     rec.Stats.Span.Seconds(),
		},
		Transcript: utterances,
	}
}

type analysisMetadata struct {
	SessionID       string  `json:"session_id"`
	Candidate       string  `json:"candidate"`
	Position        string  `json:"position"`
	InterviewDate   string  `json:"interview_date"`
	DurationMinutes float64 `json:"duration_minutes"`
}

type analysisDoc struct {
	Metadata     analysisMetadata      `json:"interview_metadata"`
	Analysis     *model.AnalysisResult `json:"ai_analysis"`
	Transcript   []model.Utterance     `json:"transcript"`
	AgentSummary sessionDocument       `json:"agent_summary"`
}

func analysisDocument(rec *model.SessionRecord, res *model.AnalysisResult, candidate string, stamp time.Time) analysisDoc {
	summary := transcriptDocument(rec)
	return analysisDoc{
		Metadata: analysisMetadata{
			SessionID:       rec.ID,
			Candidate:       candidate,
			Position:        rec.JobDescription,
			InterviewDate:   stamp.Format(fileStampLayout),
			DurationMinutes: rec.DurationMinutes,
		},
		Analysis:     res,
		Transcript:   summary.Transcript,
		AgentSummary: summary,
	}
}

// renderSummary renders the human-readable transcript artifact.
func renderSummary(rec *model.SessionRecord) string {
	var b strings.Builder
	b.WriteString("INTERVIEW SUMMARY\n")
	b.WriteString("=================\n\n")
	fmt.Fprintf(&b, "Candidate: %s\n", rec.CandidateName)
	fmt.Fprintf(&b, "Session: %s\n", rec.ID)
	fmt.Fprintf(&b, "Date: %s\n", formatHeaderTime(rec.StartTime))
	fmt.Fprintf(&b, "Duration: %.1f minutes\n", rec.DurationMinutes)
	fmt.Fprintf(&b, "Status: %s\n\n", rec.Status)

	b.WriteString("TRANSCRIPT\n")
	b.WriteString("==========\n\n")
	writeTranscript(&b, rec.Utterances)

	if notes := strings.TrimSpace(rec.SummaryNotes); notes != "" {
		b.WriteString("INTERVIEWER NOTES\n")
		b.WriteString("=================\n\n")
		b.WriteString(notes)
		b.WriteString("\n")
	}
	return b.String()
}

// renderAnalysis renders the human-readable analysis report.
func renderAnalysis(rec *model.SessionRecord, res *model.AnalysisResult, candidate string, stamp time.Time) string {
	var b strings.Builder
	b.WriteString("AI-ENHANCED INTERVIEW ANALYSIS\n")
	b.WriteString("==============================\n\n")
	fmt.Fprintf(&b, "Candidate: %s\n", candidate)
	fmt.Fprintf(&b, "Position: %s\n", strings.TrimSpace(rec.JobDescription))
	fmt.Fprintf(&b, "Session: %s\n", rec.ID)
	fmt.Fprintf(&b, "Interview Date: %s\n", formatHeaderTime(stamp))
	fmt.Fprintf(&b, "Duration: %.1f minutes\n\n", rec.DurationMinutes)

	b.WriteString("CANDIDATE ASSESSMENT\n")
	b.WriteString("====================\n\n")
	fmt.Fprintf(&b, "  - Interest Level: %s\n", res.InterestLevel)
	fmt.Fprintf(&b, "  - Readiness: %s\n", res.Readiness)
	fmt.Fprintf(&b, "  - Experience Level: %s\n\n", res.ExperienceLevel)

	writeList(&b, "TECHNICAL SKILLS", res.TechnicalSkills, "%s")
	writeList(&b, "SOFT SKILLS", res.SoftSkills, "%s")

	writeProse(&b, "KEY STRENGTHS", res.KeyStrengths)
	writeProse(&b, "AREAS FOR IMPROVEMENT", res.AreasForImprovement)
	writeProse(&b, "OVERALL ASSESSMENT", res.OverallAssessment)

	if len(res.NotableQuotes) > 0 {
		writeList(&b, "NOTABLE QUOTES", res.NotableQuotes, "%q")
	}

	b.WriteString("FULL TRANSCRIPT\n")
	b.WriteString("===============\n\n")
	writeTranscript(&b, rec.Utterances)
	return b.String()
}

func writeTranscript(b *strings.Builder, utterances []model.Utterance) {
	for i := range utterances {
		u := &utterances[i]
		fmt.Fprintf(b, "[%s] %s: %s", u.Timestamp.UTC().Format(lineTimeLayout), u.Role, u.Text)
		if u.Interrupted {
			b.WriteString(" (interrupted)")
		}
		b.WriteString("\n\n")
	}
}

func writeList(b *strings.Builder, title string, items []string, itemFormat string) {
	b.WriteString(title + ":\n")
	if len(items) == 0 {
		b.WriteString("  - none\n")
	}
	for _, item := range items {
		fmt.Fprintf(b, "  - "+itemFormat+"\n", item)
	}
	b.WriteString("\n")
}

func writeProse(b *strings.Builder, title, text string) {
	if text == "" || text == model.Unknown {
		return
	}
	b.WriteString(title + ":\n")
	b.WriteString(text)
	b.WriteString("\n\n")
}

func formatInstant(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatHeaderTime(t time.Time) string {
	if t.IsZero() {
		return model.Unknown
	}
	return t.UTC().Format(headerTimeLayout)
}
