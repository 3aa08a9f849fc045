package analysis_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/okian/interviewer/internal/adapters/repository"
	"github.com/okian/interviewer/internal/domain/analysis"
	"github.com/okian/interviewer/internal/domain/model"
	"github.com/okian/interviewer/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

const replyJSON = `{
  "candidate_name": "Ava Lopez",
  "interest_level": "high",
  "readiness": "Somewhat Ready",
  "experience_level": "Mid-level",
  "technical_skills": ["Python", "SQL", "python"],
  "soft_skills": "Communication",
  "key_strengths": "Clear and structured answers.",
  "areas_for_improvement": "",
  "overall_assessment": "Advance to the technical round.",
  "notable_quotes": ["I love messy data"]
}`

type stubAnalyzer struct {
	mu    sync.Mutex
	reply string
	err   error
	calls int
	last  analysis.Request
	delay time.Duration
}

func (s *stubAnalyzer) Analyze(ctx context.Context, req analysis.Request) (analysis.Response, error) {
	s.mu.Lock()
	s.calls++
	s.last = req
	s.mu.Unlock()
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return analysis.Response{}, ctx.Err()
		}
	}
	if s.err != nil {
		return analysis.Response{}, s.err
	}
	return analysis.Response{Text: s.reply}, nil
}

func job(utterances ...model.Utterance) model.AnalysisJob {
	return model.AnalysisJob{
		ID: "job-1",
		Record: model.SessionRecord{
			ID:             "sess-1",
			CandidateName:  "Ava Lopez",
			JobDescription: "Data Scientist",
			Status:         model.StatusCompleted,
			Utterances:     utterances,
		},
	}
}

func threeTurns() []model.Utterance {
	t0 := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	return []model.Utterance{
		{Timestamp: t0, Role: model.RoleInterviewer, Text: "Hello"},
		{Timestamp: t0.Add(time.Second), Role: model.RoleCandidate, Text: "Hi, I'm Ava"},
		{Timestamp: t0.Add(2 * time.Second), Role: model.RoleInterviewer, Interrupted: true},
		{Timestamp: t0.Add(3 * time.Second), Role: model.RoleInterviewer, Text: "Tell me about yourself"},
	}
}

func listDir(dir string) []string {
	entries, _ := os.ReadDir(dir)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestRenderAndPrompt(t *testing.T) {
	Convey("Given a transcript with an empty interrupted turn", t, func() {
		text := analysis.RenderTranscript(threeTurns())

		Convey("Then one labeled line per spoken turn is rendered", func() {
			So(text, ShouldEqual, "Interviewer: Hello\nCandidate: Hi, I'm Ava\nInterviewer: Tell me about yourself\n")
		})

		Convey("Then the prompt embeds the job and the transcript", func() {
			prompt := analysis.BuildPrompt(" Data Scientist ", text)
			So(prompt, ShouldContainSubstring, "Position being interviewed for: Data Scientist\n")
			So(prompt, ShouldContainSubstring, "Candidate: Hi, I'm Ava")
			So(prompt, ShouldContainSubstring, `"notable_quotes": ["array", "of", "strings"]`)
		})
	})
}

func TestParseResult(t *testing.T) {
	Convey("Given a raw reply", t, func() {
		Convey("When it is plain JSON", func() {
			res, err := analysis.ParseResult(replyJSON, "Fallback")
			So(err, ShouldBeNil)

			Convey("Then enums and lists are normalized", func() {
				So(res.CandidateName, ShouldEqual, "Ava Lopez")
				So(res.InterestLevel, ShouldEqual, model.InterestHigh)
				So(res.Readiness, ShouldEqual, model.ReadinessSomewhat)
				So(res.ExperienceLevel, ShouldEqual, model.ExperienceMid)
				So(res.TechnicalSkills, ShouldResemble, []string{"Python", "SQL"})
				So(res.SoftSkills, ShouldResemble, []string{"Communication"})
				So(res.AreasForImprovement, ShouldEqual, model.Unknown)
				So(res.NotableQuotes, ShouldResemble, []string{"I love messy data"})
			})
		})

		Convey("When it is fenced", func() {
			plain, _ := analysis.ParseResult(replyJSON, "Fallback")
			jsonFenced, err1 := analysis.ParseResult("```json\n"+replyJSON+"\n```", "Fallback")
			bareFenced, err2 := analysis.ParseResult("```\n"+replyJSON+"\n```\n", "Fallback")
			upperFenced, err3 := analysis.ParseResult("```JSON\n"+replyJSON+"\n```", "Fallback")

			Convey("Then it parses identically to the unfenced reply", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(err3, ShouldBeNil)
				So(jsonFenced, ShouldResemble, plain)
				So(bareFenced, ShouldResemble, plain)
				So(upperFenced, ShouldResemble, plain)
			})
		})

		Convey("When fields are missing", func() {
			res, err := analysis.ParseResult(`{"candidate_name": "Unknown"}`, "Ava Lopez")

			Convey("Then fallbacks apply", func() {
				So(err, ShouldBeNil)
				So(res.CandidateName, ShouldEqual, "Ava Lopez")
				So(res.InterestLevel, ShouldEqual, model.InterestUnknown)
				So(res.Readiness, ShouldEqual, model.ReadinessUnknown)
				So(res.ExperienceLevel, ShouldEqual, model.ExperienceUnknown)
				So(res.TechnicalSkills, ShouldResemble, []string{})
				So(res.NotableQuotes, ShouldResemble, []string{})
				So(res.KeyStrengths, ShouldEqual, model.Unknown)
			})
		})

		Convey("When it is not JSON at all", func() {
			_, err := analysis.ParseResult("I cannot help with that.", "Ava")

			Convey("Then it fails with an analysis error", func() {
				So(errors.Is(err, model.ErrAnalysis), ShouldBeTrue)
			})
		})

		Convey("When it is a JSON array", func() {
			_, err := analysis.ParseResult(`["a"]`, "Ava")

			Convey("Then it fails with an analysis error", func() {
				So(errors.Is(err, model.ErrAnalysis), ShouldBeTrue)
			})
		})
	})
}

func TestPipelineRun(t *testing.T) {
	Convey("Given a pipeline writing into a temp dir", t, func() {
		dir := t.TempDir()
		store := repository.NewFileStore(dir)
		stub := &stubAnalyzer{reply: replyJSON}
		p := analysis.NewPipeline(stub, store, analysis.WithModel("test-model"))
		ctx := context.Background()

		Convey("When the transcript is empty", func() {
			out := p.Run(ctx, job())

			Convey("Then nothing is called and nothing is written", func() {
				So(out.Kind, ShouldEqual, analysis.OutcomeSkipped)
				So(stub.calls, ShouldEqual, 0)
				So(listDir(dir), ShouldBeEmpty)
			})
		})

		Convey("When the transcript only holds empty interrupted turns", func() {
			out := p.Run(ctx, job(model.Utterance{Timestamp: time.Now(), Role: model.RoleInterviewer, Interrupted: true}))

			Convey("Then the run is skipped", func() {
				So(out.Kind, ShouldEqual, analysis.OutcomeSkipped)
				So(stub.calls, ShouldEqual, 0)
			})
		})

		Convey("When the capability answers", func() {
			out := p.Run(ctx, job(threeTurns()...))

			Convey("Then the enhanced artifacts are written", func() {
				So(out.Kind, ShouldEqual, analysis.OutcomeSucceeded)
				So(out.Err, ShouldBeNil)
				So(stub.last.Model, ShouldEqual, "test-model")
				So(stub.last.Prompt, ShouldContainSubstring, "Interviewer: Tell me about yourself")
				So(filepath.Base(out.Paths.Structured), ShouldEndWith, "_AI_ANALYSIS.json")
				raw, err := os.ReadFile(out.Paths.HumanReadable)
				So(err, ShouldBeNil)
				So(string(raw), ShouldContainSubstring, "Readiness: Somewhat")
			})
		})

		Convey("When the capability fails on the network", func() {
			stub.err = errors.New("dial tcp: connection refused")
			out := p.Run(ctx, job(threeTurns()...))

			Convey("Then a failure record holds the error text", func() {
				So(out.Kind, ShouldEqual, analysis.OutcomeFailed)
				So(errors.Is(out.Err, model.ErrAnalysis), ShouldBeTrue)
				raw, err := os.ReadFile(out.FailureRecord)
				So(err, ShouldBeNil)
				So(string(raw), ShouldContainSubstring, "connection refused")
				So(string(raw), ShouldContainSubstring, "Timestamp: ")
			})
		})

		Convey("When the reply is unparseable", func() {
			stub.reply = "```json\nnot json\n```"
			out := p.Run(ctx, job(threeTurns()...))

			Convey("Then only a failure record is written", func() {
				So(out.Kind, ShouldEqual, analysis.OutcomeFailed)
				names := listDir(dir)
				So(len(names), ShouldEqual, 1)
				So(strings.HasPrefix(names[0], "interview_analysis_failed_"), ShouldBeTrue)
			})
		})

		Convey("When the capability is slower than the timeout", func() {
			stub.delay = time.Second
			slow := analysis.NewPipeline(stub, store, analysis.WithTimeout(20*time.Millisecond))
			out := slow.Run(ctx, job(threeTurns()...))

			Convey("Then the call is cut off and recorded as a failure", func() {
				So(out.Kind, ShouldEqual, analysis.OutcomeFailed)
				So(errors.Is(out.Err, context.DeadlineExceeded), ShouldBeTrue)
			})
		})
	})

	Convey("Given a pipeline without an analyzer", t, func() {
		dir := t.TempDir()
		p := analysis.NewPipeline(nil, repository.NewFileStore(dir))

		Convey("Then every run is skipped", func() {
			out := p.Run(context.Background(), job(threeTurns()...))
			So(out.Kind, ShouldEqual, analysis.OutcomeSkipped)
			So(listDir(dir), ShouldBeEmpty)
		})
	})
}
