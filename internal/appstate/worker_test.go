package appstate

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestWorkerRecoversFromPanic(t *testing.T) {
	w := newWorker(zerolog.Nop())
	res := w.exec(context.Background(), job{name: "boom", run: func(context.Context) result {
		panic("kaboom")
	}})
	if res != (result{}) {
		t.Fatalf("expected empty result after panic, got %+v", res)
	}
}

func TestWorkerDeliversInOrder(t *testing.T) {
	w := newWorker(zerolog.Nop())
	done := make(chan jobDone, 4)
	w.deliver = func(d jobDone) { done <- d }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.run(ctx)

	for _, name := range []string{"first", "second"} {
		msg := name
		if !w.submit(job{name: name, run: func(context.Context) result { return result{message: msg} }}) {
			t.Fatalf("submit %s rejected", name)
		}
	}
	for _, want := range []string{"first", "second"} {
		select {
		case d := <-done:
			if d.name != want || d.message != want {
				t.Fatalf("got %+v, want %s", d, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}

func TestWorkerSubmitFullQueue(t *testing.T) {
	w := newWorker(zerolog.Nop())
	noop := job{name: "noop", run: func(context.Context) result { return result{} }}
	for i := 0; i < jobQueueSize; i++ {
		if !w.submit(noop) {
			t.Fatalf("submit %d rejected before queue was full", i)
		}
	}
	if w.submit(noop) {
		t.Fatalf("expected submit to fail on a full queue")
	}
}
