package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

const script = `
candidate_name: Ava Lopez
job_description: Data Scientist
notes: Strong on statistics
utterances:
  - offset: 0s
    role: interviewer
    text: Hello
  - offset: 1s
    role: candidate
    text: Hi, I'm Ava
    speaker_id: spk-1
  - offset: 2s
    role: interviewer
    text: Tell me about yourself
`

func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("INTERVIEWER_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("INTERVIEWER_ANALYSIS_PROVIDER", "none")
	for _, name := range []string{"INTERVIEWER_CONFIG", "INTERVIEWER_TAVILY_API_KEY", "TAVILY_API_KEY"} {
		t.Setenv(name, "")
		_ = os.Unsetenv(name)
	}
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "interview.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReplay(t *testing.T) {
	isolateEnv(t)

	Convey("Given a scripted interview", t, func() {
		dir := t.TempDir()
		var out, logs bytes.Buffer
		cmd := newRootCmd()
		cmd.SetOut(&out)
		cmd.SetErr(&logs)
		cmd.SetArgs([]string{"--script", writeScript(t, script), "--output-dir", dir, "--grace", "10ms", "--wait", "5s"})

		Convey("When it is replayed", func() {
			err := cmd.ExecuteContext(context.Background())

			Convey("Then the session completes and the artifacts are listed", func() {
				So(err, ShouldBeNil)
				text := out.String()
				So(text, ShouldContainSubstring, "completed")
				So(text, ShouldContainSubstring, "interviewer: Thank you for your time")
				So(text, ShouldContainSubstring, "_transcript.json")
				So(text, ShouldContainSubstring, "_summary.txt")
				So(text, ShouldNotContainSubstring, "before --wait elapsed")
			})

			Convey("And the summary holds every turn", func() {
				matches, _ := filepath.Glob(filepath.Join(dir, "*_summary.txt"))
				So(len(matches), ShouldEqual, 1)
				raw, _ := os.ReadFile(matches[0])
				So(string(raw), ShouldContainSubstring, "Candidate: Hi, I'm Ava")
				So(string(raw), ShouldContainSubstring, "Strong on statistics")
			})
		})
	})
}

func TestLoadScript(t *testing.T) {
	Convey("Given script files", t, func() {
		Convey("When the script is valid", func() {
			s, err := loadScript(writeScript(t, script))

			Convey("Then every turn is read", func() {
				So(err, ShouldBeNil)
				So(len(s.Turns), ShouldEqual, 3)
				So(s.Turns[1].SpeakerID, ShouldEqual, "spk-1")
				So(s.Turns[2].Offset.Seconds(), ShouldEqual, 2.0)
			})
		})

		Convey("When offsets go backwards", func() {
			_, err := loadScript(writeScript(t, "candidate_name: A\njob_description: B\nutterances:\n  - {offset: 2s, role: candidate, text: x}\n  - {offset: 1s, role: candidate, text: y}\n"))

			Convey("Then it is rejected", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "offset")
			})
		})

		Convey("When a role is unknown", func() {
			_, err := loadScript(writeScript(t, "candidate_name: A\njob_description: B\nutterances:\n  - {offset: 0s, role: narrator, text: x}\n"))

			Convey("Then it is rejected", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When the candidate is missing", func() {
			_, err := loadScript(writeScript(t, "job_description: B\n"))

			Convey("Then it is rejected", func() {
				So(strings.Contains(err.Error(), "candidate_name"), ShouldBeTrue)
			})
		})

		Convey("When the job description lives in a side file", func() {
			path := writeScript(t, "candidate_name: A\njob_description_file: jd.txt\n")
			So(os.WriteFile(filepath.Join(filepath.Dir(path), "jd.txt"), []byte("  Senior Data Scientist\n"), 0o600), ShouldBeNil)
			s, err := loadScript(path)

			Convey("Then its text is used", func() {
				So(err, ShouldBeNil)
				So(s.JobDescription, ShouldEqual, "Senior Data Scientist")
			})
		})

		Convey("When the job description file type is unsupported", func() {
			_, err := loadScript(writeScript(t, "candidate_name: A\njob_description_file: jd.xlsx\n"))

			Convey("Then it is rejected", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "unsupported")
			})
		})

		Convey("When the file does not exist", func() {
			_, err := loadScript(filepath.Join(t.TempDir(), "nope.yaml"))

			Convey("Then it fails", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}
