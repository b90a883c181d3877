package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/roshambo/internal/adapters/mq/queue"
	worker "github.com/okian/roshambo/internal/adapters/mq/worker"
	model "github.com/okian/roshambo/internal/domain/model"
	"github.com/okian/roshambo/internal/domain/move"
	"github.com/okian/roshambo/internal/domain/round"
	"github.com/okian/roshambo/internal/domain/tally"
	logging "github.com/okian/roshambo/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing.
type mockQueue struct {
	eventChan chan queue.Event
	once      sync.Once
}

func newMockQueue() *mockQueue {
	return &mockQueue{eventChan: make(chan queue.Event, 64)}
}

func (mq *mockQueue) Dequeue(_ context.Context) <-chan queue.Event {
	return mq.eventChan
}

func (mq *mockQueue) Close() error {
	mq.once.Do(func() { close(mq.eventChan) })
	return nil
}

func (mq *mockQueue) addEvent(event queue.Event) { //nolint:gocritic // hugeParam: Event is passed by value for channel semantics
	mq.eventChan <- event
}

type mockRecorder struct {
	mu     sync.Mutex
	events []model.RoundEvent
	fail   map[string]error
}

func newMockRecorder() *mockRecorder {
	return &mockRecorder{fail: make(map[string]error)}
}

func (mr *mockRecorder) Record(_ context.Context, ev model.RoundEvent) error { //nolint:gocritic // hugeParam: matches Recorder
	mr.mu.Lock()
	defer mr.mu.Unlock()
	if err, ok := mr.fail[ev.SessionID]; ok {
		return err
	}
	mr.events = append(mr.events, ev)
	return nil
}

func (mr *mockRecorder) setError(sessionID string, err error) {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	mr.fail[sessionID] = err
}

func (mr *mockRecorder) count() int {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	return len(mr.events)
}

func event(session string, n int, res round.Result) model.RoundEvent {
	return model.RoundEvent{
		SessionID:    session,
		Round:        n,
		UserMove:     move.Paper,
		ComputerMove: move.Rock,
		Result:       res,
		TS:           time.Now(),
	}
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a new InMemoryWorker", t, func() {
		_ = logging.Init()

		q := newMockQueue()
		rec := newMockRecorder()

		convey.Convey("When creating a worker with custom options", func() {
			w := worker.NewInMemoryWorker(q, rec, worker.WithName("test-worker"), worker.WithLogger(logging.Named("custom")))

			convey.Convey("Then it should be created successfully", func() {
				convey.So(w, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When running a worker", func() {
			var handled sync.WaitGroup
			w := worker.NewInMemoryWorker(q, rec, worker.WithOnProcessed(handled.Done))
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go w.Run(ctx)

			convey.Convey("And when processing events", func() {
				handled.Add(2)
				q.addEvent(event("s1", 1, round.Win))
				q.addEvent(event("s1", 2, round.Tie))
				handled.Wait()

				convey.Convey("Then it should record them in order", func() {
					convey.So(rec.count(), convey.ShouldEqual, 2)
					convey.So(rec.events[0].Round, convey.ShouldEqual, 1)
					convey.So(rec.events[1].Result, convey.ShouldEqual, round.Tie)
				})
			})

			convey.Convey("And when recording fails", func() {
				rec.setError("bad", errors.New("recorder down"))
				handled.Add(2)
				q.addEvent(event("bad", 1, round.Loss))
				q.addEvent(event("good", 1, round.Loss))
				handled.Wait()

				convey.Convey("Then the worker keeps going", func() {
					convey.So(rec.count(), convey.ShouldEqual, 1)
					convey.So(rec.events[0].SessionID, convey.ShouldEqual, "good")
				})
			})

			convey.Convey("And when shutting down", func() {
				err := w.Shutdown(context.Background())

				convey.Convey("Then it stops without error and a second call is safe", func() {
					convey.So(err, convey.ShouldBeNil)
					convey.So(w.Shutdown(context.Background()), convey.ShouldBeNil)
				})
			})
		})

		convey.Convey("When shutdown is requested with events still queued", func() {
			w := worker.NewInMemoryWorker(q, rec)
			for i := 1; i <= 5; i++ {
				q.addEvent(event("s2", i, round.Win))
			}
			go w.Run(context.Background())

			err := w.Shutdown(context.Background())

			convey.Convey("Then the queued events are drained first", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(rec.count(), convey.ShouldEqual, 5)
			})
		})

		convey.Convey("When the run context is cancelled with events still queued", func() {
			w := worker.NewInMemoryWorker(q, rec)
			for i := 1; i <= 4; i++ {
				q.addEvent(event("s3", i, round.Loss))
			}
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			w.Run(ctx)

			convey.Convey("Then the queued events are drained before Run returns", func() {
				convey.So(rec.count(), convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When the queue closes", func() {
			w := worker.NewInMemoryWorker(q, rec)
			done := make(chan struct{})
			go func() {
				w.Run(context.Background())
				close(done)
			}()
			_ = q.Close()

			convey.Convey("Then Run returns", func() {
				stopped := false
				select {
				case <-done:
					stopped = true
				case <-time.After(time.Second):
				}
				convey.So(stopped, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When shutdown times out", func() {
			w := worker.NewInMemoryWorker(q, rec)
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			convey.Convey("Then it reports the context error", func() {
				err := w.Shutdown(ctx)
				convey.So(errors.Is(err, context.Canceled), convey.ShouldBeTrue)
			})
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a worker pool feeding a tally", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue(queue.WithCapacity(256))
		tl := tally.New()

		convey.Convey("When created with a non-positive count", func() {
			pool := worker.NewPool(0, q, tl)

			convey.Convey("Then it falls back to at least one worker", func() {
				convey.So(pool.Size(), convey.ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		convey.Convey("When rounds are enqueued and the pool is shut down", func() {
			pool := worker.NewPool(3, q, tl)
			ctx := context.Background()
			pool.Start(ctx)

			for i := 1; i <= 90; i++ {
				res := round.Results()[i%3]
				convey.So(q.Enqueue(ctx, event("s", i, res)), convey.ShouldBeTrue)
			}
			convey.So(waitFor(func() bool { return pool.Processed() == 90 }), convey.ShouldBeTrue)

			err := pool.Shutdown(ctx)

			convey.Convey("Then every round is tallied", func() {
				convey.So(err, convey.ShouldBeNil)
				totals := tl.Snapshot()
				convey.So(totals.Rounds, convey.ShouldEqual, 90)
				convey.So(totals.Wins, convey.ShouldEqual, 30)
				convey.So(totals.Losses, convey.ShouldEqual, 30)
				convey.So(totals.Ties, convey.ShouldEqual, 30)
				convey.So(totals.UserMoves["paper"], convey.ShouldEqual, 90)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})
	})
}

func TestWorkerConcurrency(t *testing.T) {
	convey.Convey("Given many producers and a pool", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue(queue.WithCapacity(1000))
		rec := newMockRecorder()
		pool := worker.NewPool(4, q, rec)
		ctx := context.Background()
		pool.Start(ctx)

		var wg sync.WaitGroup
		for p := 0; p < 8; p++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					for !q.Enqueue(ctx, event("c", i, round.Win)) {
						time.Sleep(time.Millisecond)
					}
				}
			}()
		}
		wg.Wait()

		convey.Convey("Then shutdown drains every event exactly once", func() {
			convey.So(pool.Shutdown(ctx), convey.ShouldBeNil)
			convey.So(rec.count(), convey.ShouldEqual, 800)
			convey.So(pool.Processed(), convey.ShouldEqual, 800)
		})
	})
}
