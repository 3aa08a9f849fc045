package transcript_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/interviewer/internal/domain/model"
	"github.com/okian/interviewer/internal/domain/transcript"
	. "github.com/smartystreets/goconvey/convey"
)

var base = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

func utt(offset int, role model.Role, text string) model.Utterance {
	return model.Utterance{
		Timestamp: base.Add(time.Duration(offset) * time.Second),
		Role:      role,
		Text:      text,
	}
}

func TestStore_Append(t *testing.T) {
	Convey("Given an empty store", t, func() {
		ctx := context.Background()
		s := transcript.New()

		So(s.IsEmpty(), ShouldBeTrue)
		So(s.Snapshot(), ShouldBeEmpty)

		Convey("When appending utterances in non-decreasing order", func() {
			in := []model.Utterance{
				utt(0, model.RoleInterviewer, "Hello"),
				utt(5, model.RoleCandidate, "Hi, I'm Ava"),
				utt(5, model.RoleCandidate, "Nice to meet you"),
				utt(10, model.RoleInterviewer, "Tell me about yourself"),
			}
			for _, u := range in {
				So(s.Append(ctx, u), ShouldBeNil)
			}

			Convey("Then the snapshot returns them in the same order without loss", func() {
				snap := s.Snapshot()
				So(len(snap), ShouldEqual, len(in))
				for i := range in {
					So(snap[i].Text, ShouldEqual, in[i].Text)
					So(snap[i].Role, ShouldEqual, in[i].Role)
					So(snap[i].Timestamp, ShouldEqual, in[i].Timestamp)
				}
				So(s.IsEmpty(), ShouldBeFalse)
			})

			Convey("And stats reflect the turns", func() {
				st := s.Stats()
				So(st.Turns, ShouldEqual, 4)
				So(st.InterviewerTurns, ShouldEqual, 2)
				So(st.CandidateTurns, ShouldEqual, 2)
				So(st.Span, ShouldEqual, 10*time.Second)
				So(st.Words, ShouldEqual, 1+3+4+4)
			})
		})

		Convey("When appending an utterance older than the last one", func() {
			So(s.Append(ctx, utt(10, model.RoleInterviewer, "Hello")), ShouldBeNil)
			err := s.Append(ctx, utt(3, model.RoleCandidate, "late"))

			Convey("Then it fails with a validation error and the store is unchanged", func() {
				So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
				So(s.Len(), ShouldEqual, 1)
				So(s.Snapshot()[0].Text, ShouldEqual, "Hello")
			})
		})

		Convey("When appending an utterance without a role", func() {
			err := s.Append(ctx, utt(0, model.RoleUnset, "who?"))

			Convey("Then it is rejected", func() {
				So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
				So(s.IsEmpty(), ShouldBeTrue)
			})
		})

		Convey("When appending empty text", func() {
			Convey("Then it is rejected unless marked interrupted", func() {
				So(errors.Is(s.Append(ctx, utt(0, model.RoleCandidate, "  ")), model.ErrValidation), ShouldBeTrue)

				u := utt(0, model.RoleCandidate, "")
				u.Interrupted = true
				So(s.Append(ctx, u), ShouldBeNil)
				So(s.Stats().Interrupted, ShouldEqual, 1)
			})
		})

		Convey("When an interviewer turn carries a speaker id", func() {
			u := utt(0, model.RoleInterviewer, "Hello")
			u.SpeakerID = model.StringPtr("spk-1")

			Convey("Then it is rejected", func() {
				So(errors.Is(s.Append(ctx, u), model.ErrValidation), ShouldBeTrue)
			})
		})
	})
}

func TestStore_SnapshotIsolation(t *testing.T) {
	Convey("Given a store with a candidate turn", t, func() {
		ctx := context.Background()
		s := transcript.New()
		u := utt(0, model.RoleCandidate, "original")
		u.SpeakerID = model.StringPtr("spk-1")
		So(s.Append(ctx, u), ShouldBeNil)

		Convey("When the caller mutates a snapshot", func() {
			snap := s.Snapshot()
			snap[0].Text = "mutated"
			*snap[0].SpeakerID = "other"

			Convey("Then the stored utterance is untouched", func() {
				again := s.Snapshot()
				So(again[0].Text, ShouldEqual, "original")
				So(*again[0].SpeakerID, ShouldEqual, "spk-1")
			})
		})
	})
}

func TestStore_Seal(t *testing.T) {
	Convey("Given a store with two utterances", t, func() {
		ctx := context.Background()
		s := transcript.New()
		So(s.Append(ctx, utt(0, model.RoleInterviewer, "Hello")), ShouldBeNil)
		So(s.Append(ctx, utt(1, model.RoleCandidate, "Hi")), ShouldBeNil)

		Convey("When it is sealed", func() {
			final := s.Seal()

			Convey("Then the final snapshot is returned", func() {
				So(len(final), ShouldEqual, 2)
				So(s.Sealed(), ShouldBeTrue)
			})

			Convey("And further appends fail with ErrSealed", func() {
				err := s.Append(ctx, utt(2, model.RoleInterviewer, "Bye"))
				So(errors.Is(err, model.ErrSealed), ShouldBeTrue)
				So(s.Len(), ShouldEqual, 2)
			})

			Convey("And sealing again is harmless", func() {
				So(len(s.Seal()), ShouldEqual, 2)
			})
		})
	})
}

func TestStore_ConcurrentAppend(t *testing.T) {
	Convey("Given many goroutines appending with the same timestamp", t, func() {
		ctx := context.Background()
		s := transcript.New()
		const writers, perWriter = 8, 50

		var wg sync.WaitGroup
		for w := 0; w < writers; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				for i := 0; i < perWriter; i++ {
					_ = s.Append(ctx, utt(0, model.RoleCandidate, fmt.Sprintf("w%d-%d", w, i)))
				}
			}(w)
		}
		wg.Wait()

		Convey("Then no append is lost or duplicated", func() {
			snap := s.Snapshot()
			So(len(snap), ShouldEqual, writers*perWriter)
			seen := make(map[string]bool, len(snap))
			for _, u := range snap {
				So(seen[u.Text], ShouldBeFalse)
				seen[u.Text] = true
			}
		})
	})
}
