package appstate

import (
	"context"
	"runtime/debug"

	"github.com/rs/zerolog"
)

// jobQueueSize bounds how many slow actions may wait for the worker.
const jobQueueSize = 16

type job struct {
	name string
	run  func(ctx context.Context) result
}

// jobDone is sent to the window when a job finishes.
type jobDone struct {
	name string
	result
}

// worker runs slow actions off the event loop, one at a time, and hands
// each result back through deliver.
type worker struct {
	jobs    chan job
	deliver func(jobDone)
	logger  zerolog.Logger
}

func newWorker(logger zerolog.Logger) *worker {
	return &worker{jobs: make(chan job, jobQueueSize), logger: logger}
}

// submit queues j without blocking. It reports false when the queue is full.
func (w *worker) submit(j job) bool {
	select {
	case w.jobs <- j:
		return true
	default:
		w.logger.Warn().Str("job", j.name).Msg("worker queue full, dropping job")
		return false
	}
}

// run processes jobs until ctx is done.
func (w *worker) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-w.jobs:
			res := w.exec(ctx, j)
			if w.deliver != nil && ctx.Err() == nil {
				w.deliver(jobDone{name: j.name, result: res})
			}
		}
	}
}

// exec runs one job. A panicking job is logged and yields an empty result.
func (w *worker) exec(ctx context.Context, j job) (res result) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error().
				Str("job", j.name).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("background job panicked")
			res = result{}
		}
	}()
	w.logger.Debug().Str("job", j.name).Msg("job start")
	return j.run(ctx)
}
