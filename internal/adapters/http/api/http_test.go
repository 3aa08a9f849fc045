package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/interviewer/internal/adapters/http/api"
	service "github.com/okian/interviewer/internal/app"
	"github.com/okian/interviewer/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func newMux(t *testing.T, opts ...service.Option) (*http.ServeMux, *service.Service) {
	t.Helper()
	opts = append([]service.Option{
		service.WithOutputDir(t.TempDir()),
		service.WithGracePeriod(time.Hour),
	}, opts...)
	svc := service.New(opts...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = svc.Stop(context.Background()) })

	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(context.Background(), mux)
	return mux, svc
}

func do(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeBody(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return out
}

func createSession(mux *http.ServeMux) string {
	w := do(mux, http.MethodPost, "/sessions", `{"candidate_name":"Ava Lopez","job_description":"Data Scientist"}`)
	id, _ := decodeBody(w)["session_id"].(string)
	return id
}

func TestServer_Routes(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux, _ := newMux(t)

		Convey("When scraping /healthz", func() {
			w := do(mux, http.MethodGet, "/healthz", "")

			Convey("Then prometheus metrics are served", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "interviewer_")
			})
		})

		Convey("When requesting /stats", func() {
			w := do(mux, http.MethodGet, "/stats", "")

			Convey("Then the service stats are returned as JSON", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldStartWith, "application/json")
				So(decodeBody(w)["started"], ShouldEqual, true)
			})
		})

		Convey("When requesting an unknown route", func() {
			w := do(mux, http.MethodGet, "/unknown", "")

			Convey("Then it is not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestSessionsHandler(t *testing.T) {
	Convey("Given a running API", t, func() {
		mux, _ := newMux(t)

		Convey("When creating a session", func() {
			w := do(mux, http.MethodPost, "/sessions", `{"candidate_name":"Ava Lopez","job_description":"Data Scientist"}`)

			Convey("Then it is created and in progress", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				body := decodeBody(w)
				So(body["session_id"], ShouldNotBeEmpty)
				So(body["status"], ShouldEqual, "in_progress")
			})
		})

		Convey("When creating a session without a candidate name", func() {
			w := do(mux, http.MethodPost, "/sessions", `{"job_description":"Data Scientist"}`)

			Convey("Then it is rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeBody(w)["code"], ShouldEqual, "bad_request")
			})
		})

		Convey("When the body is not JSON", func() {
			w := do(mux, http.MethodPost, "/sessions", `{`)

			Convey("Then it is rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When recording utterances", func() {
			id := createSession(mux)
			path := "/sessions/" + id + "/utterances"

			first := do(mux, http.MethodPost, path, `{"utterance_id":"u1","role":"assistant","text":"Hello","ts":"2025-03-14T09:12:30Z"}`)
			again := do(mux, http.MethodPost, path, `{"utterance_id":"u1","role":"assistant","text":"Hello","ts":"2025-03-14T09:12:30Z"}`)
			second := do(mux, http.MethodPost, path, `{"utterance_id":"u2","role":"user","text":"Hi, I'm Ava","speaker_id":"spk-1","ts":"2025-03-14T09:12:31Z"}`)

			Convey("Then new turns are accepted and redeliveries flagged", func() {
				So(first.Code, ShouldEqual, http.StatusAccepted)
				So(again.Code, ShouldEqual, http.StatusOK)
				So(decodeBody(again)["status"], ShouldEqual, "duplicate")
				So(second.Code, ShouldEqual, http.StatusAccepted)
			})

			Convey("And the transcript snapshot is visible", func() {
				w := do(mux, http.MethodGet, "/sessions/"+id, "")
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decodeBody(w)
				So(body["session_id"], ShouldEqual, id)
				So(body["candidate_name"], ShouldEqual, "Ava Lopez")
				turns, _ := body["transcript"].([]any)
				So(len(turns), ShouldEqual, 2)
				last, _ := turns[1].(map[string]any)
				So(last["role"], ShouldEqual, "Candidate")
				So(last["speaker_id"], ShouldEqual, "spk-1")
			})
		})

		Convey("When an utterance has an unknown role", func() {
			id := createSession(mux)
			w := do(mux, http.MethodPost, "/sessions/"+id+"/utterances", `{"role":"narrator","text":"Once"}`)

			Convey("Then it is rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When an utterance has a malformed timestamp", func() {
			id := createSession(mux)
			w := do(mux, http.MethodPost, "/sessions/"+id+"/utterances", `{"role":"candidate","text":"Hi","ts":"yesterday"}`)

			Convey("Then it is rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeBody(w)["message"], ShouldContainSubstring, "RFC3339")
			})
		})

		Convey("When an utterance goes back in time", func() {
			id := createSession(mux)
			path := "/sessions/" + id + "/utterances"
			_ = do(mux, http.MethodPost, path, `{"role":"candidate","text":"Later","ts":"2025-03-14T09:12:31Z"}`)
			w := do(mux, http.MethodPost, path, `{"role":"candidate","text":"Earlier","ts":"2025-03-14T09:12:30Z"}`)

			Convey("Then it fails validation", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the session is ended", func() {
			id := createSession(mux)
			_ = do(mux, http.MethodPost, "/sessions/"+id+"/utterances", `{"role":"candidate","text":"Hi"}`)
			w := do(mux, http.MethodPost, "/sessions/"+id+"/end", `{"notes":"Strong"}`)
			again := do(mux, http.MethodPost, "/sessions/"+id+"/end", "")

			Convey("Then the conclusion message is returned every time", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decodeBody(w)
				So(body["message"], ShouldStartWith, "Thank you for your time")
				So(body["status"], ShouldEqual, "completed")
				So(again.Code, ShouldEqual, http.StatusOK)
				So(decodeBody(again)["message"], ShouldEqual, body["message"])
			})

			Convey("And the artifacts are reported on the session", func() {
				info := decodeBody(do(mux, http.MethodGet, "/sessions/"+id, ""))
				artifacts, _ := info["artifacts"].(map[string]any)
				So(artifacts, ShouldNotBeEmpty)
			})
		})

		Convey("When the end request is chunked with an empty body", func() {
			id := createSession(mux)
			req := httptest.NewRequest(http.MethodPost, "/sessions/"+id+"/end", nil)
			req.Body = io.NopCloser(strings.NewReader(""))
			req.ContentLength = -1
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it is treated as having no notes", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decodeBody(w)["status"], ShouldEqual, "completed")
			})
		})

		Convey("When the session is unknown", func() {
			get := do(mux, http.MethodGet, "/sessions/nope", "")
			end := do(mux, http.MethodPost, "/sessions/nope/end", "")
			utt := do(mux, http.MethodPost, "/sessions/nope/utterances", `{"role":"candidate","text":"Hi"}`)

			Convey("Then every route reports not found", func() {
				So(get.Code, ShouldEqual, http.StatusNotFound)
				So(end.Code, ShouldEqual, http.StatusNotFound)
				So(utt.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestSessionsHandler_AfterShutdown(t *testing.T) {
	Convey("Given a session whose shutdown alarm has fired", t, func() {
		mux, svc := newMux(t, service.WithGracePeriod(10*time.Millisecond))
		id := createSession(mux)
		sess, err := svc.Session(id)
		So(err, ShouldBeNil)
		first := do(mux, http.MethodPost, "/sessions/"+id+"/end", "")
		So(first.Code, ShouldEqual, http.StatusOK)

		select {
		case <-sess.Done():
		case <-time.After(2 * time.Second):
			t.Fatal("session was not released")
		}

		Convey("When the dialogue layer calls back late", func() {
			end := do(mux, http.MethodPost, "/sessions/"+id+"/end", "")
			utt := do(mux, http.MethodPost, "/sessions/"+id+"/utterances", `{"role":"candidate","text":"Bye"}`)
			get := do(mux, http.MethodGet, "/sessions/"+id, "")

			Convey("Then the same conclusion message is returned and the utterance is dropped", func() {
				So(end.Code, ShouldEqual, http.StatusOK)
				So(decodeBody(end)["message"], ShouldEqual, decodeBody(first)["message"])
				So(decodeBody(end)["status"], ShouldEqual, "completed")
				So(utt.Code, ShouldEqual, http.StatusAccepted)
				So(get.Code, ShouldEqual, http.StatusOK)
				So(decodeBody(get)["transcript"], ShouldBeEmpty)
			})
		})
	})
}

func TestSessionsHandler_Stopped(t *testing.T) {
	Convey("Given a service that is not running", t, func() {
		svc := service.New(service.WithOutputDir(t.TempDir()))
		mux := http.NewServeMux()
		api.NewServer(svc, svc).Register(context.Background(), mux)

		Convey("When creating a session", func() {
			w := do(mux, http.MethodPost, "/sessions", `{"candidate_name":"Ava","job_description":"DS"}`)

			Convey("Then the API is unavailable", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			})
		})
	})
}

func TestSearchHandler(t *testing.T) {
	Convey("Given an API without a search backend", t, func() {
		mux, _ := newMux(t)

		Convey("When searching", func() {
			w := do(mux, http.MethodPost, "/search", `{"query":"latest spark release"}`)

			Convey("Then the missing key message is spoken back", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decodeBody(w)["text"], ShouldContainSubstring, "API key")
			})
		})

		Convey("When the query is empty", func() {
			w := do(mux, http.MethodPost, "/search", `{"query":"  "}`)

			Convey("Then it is rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}
