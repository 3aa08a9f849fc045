package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/interviewer/internal/adapters/mq/queue"
	worker "github.com/okian/interviewer/internal/adapters/mq/worker"
	model "github.com/okian/interviewer/internal/domain/model"
	logging "github.com/okian/interviewer/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logging.Init(); err != nil {
		panic(err)
	}
}

type recordingProcessor struct {
	mu    sync.Mutex
	seen  []string
	delay time.Duration
	fail  map[string]error
}

func (p *recordingProcessor) Process(ctx context.Context, job worker.Job) error { //nolint:gocritic // jobs are values
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen = append(p.seen, job.ID)
	return p.fail[job.ID]
}

func (p *recordingProcessor) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.seen)
}

func analysisJob(id string) model.AnalysisJob {
	return model.AnalysisJob{ID: id, Record: model.SessionRecord{ID: "sess-" + id}}
}

func TestWorker(t *testing.T) {
	convey.Convey("Given a single worker over a queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(8))
		proc := &recordingProcessor{fail: map[string]error{"bad": errors.New("boom")}}
		w := worker.NewInMemoryWorker(q, proc, worker.WithName("w-test"))
		ctx := context.Background()

		convey.Convey("When jobs are queued and the queue closes", func() {
			convey.So(q.Enqueue(ctx, analysisJob("a")), convey.ShouldBeNil)
			convey.So(q.Enqueue(ctx, analysisJob("bad")), convey.ShouldBeNil)
			convey.So(q.Enqueue(ctx, analysisJob("c")), convey.ShouldBeNil)
			_ = q.Close()
			go w.Run(ctx)

			convey.Convey("Then every job is processed in order, failures included", func() {
				select {
				case <-w.Done():
				case <-time.After(2 * time.Second):
					t.Fatal("worker did not stop")
				}
				convey.So(proc.seen, convey.ShouldResemble, []string{"a", "bad", "c"})
			})
		})

		convey.Convey("When the context is canceled", func() {
			cctx, cancel := context.WithCancel(ctx)
			go w.Run(cctx)
			cancel()

			convey.Convey("Then the worker stops", func() {
				select {
				case <-w.Done():
				case <-time.After(2 * time.Second):
					t.Fatal("worker did not stop")
				}
			})
		})
	})

	convey.Convey("Given a processor that panics", t, func() {
		q := queue.NewInMemoryQueue()
		var calls int
		proc := worker.ProcessorFunc(func(context.Context, worker.Job) error {
			calls++
			if calls == 1 {
				panic("unexpected")
			}
			return nil
		})
		w := worker.NewInMemoryWorker(q, proc)
		ctx := context.Background()
		_ = q.Enqueue(ctx, analysisJob("1"))
		_ = q.Enqueue(ctx, analysisJob("2"))
		_ = q.Close()

		convey.Convey("Then the worker survives and keeps going", func() {
			w.Run(ctx)
			convey.So(calls, convey.ShouldEqual, 2)
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool of workers", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(32))
		proc := &recordingProcessor{delay: 5 * time.Millisecond}
		pool := worker.NewPool(3, q, proc)
		ctx := context.Background()

		convey.So(pool.Size(), convey.ShouldEqual, 3)

		convey.Convey("When jobs are queued and the pool shuts down", func() {
			pool.Start(ctx)
			for _, id := range []string{"1", "2", "3", "4", "5", "6", "7", "8"} {
				convey.So(q.Enqueue(ctx, analysisJob(id)), convey.ShouldBeNil)
			}
			sctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			err := pool.Shutdown(sctx)

			convey.Convey("Then the queue is drained before returning", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(proc.count(), convey.ShouldEqual, 8)
				convey.So(pool.Processed(), convey.ShouldEqual, int64(8))
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the drain exceeds the deadline", func() {
			slow := &recordingProcessor{delay: time.Hour}
			sq := queue.NewInMemoryQueue()
			sp := worker.NewPool(1, sq, slow)
			sp.Start(ctx)
			convey.So(sq.Enqueue(ctx, analysisJob("x")), convey.ShouldBeNil)
			sctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
			defer cancel()

			convey.Convey("Then shutdown reports the timeout", func() {
				err := sp.Shutdown(sctx)
				convey.So(errors.Is(err, context.DeadlineExceeded), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the pool was never started", func() {
			convey.Convey("Then shutdown returns immediately", func() {
				convey.So(pool.Shutdown(ctx), convey.ShouldBeNil)
			})
		})
	})
}
