// Package schedule runs a function on a delay-then-interval cadence.
package schedule

import (
	"context"
	"sync"
	"time"
)

// Task fires fn once after an initial delay and then on every interval tick
// until stopped. Each run gets its own goroutine so a slow run never delays
// the next tick; callers guard against overlap themselves.
type Task struct {
	cancel context.CancelFunc
	loop   sync.WaitGroup
	runs   sync.WaitGroup
	once   sync.Once
}

// Every starts a Task. A non-positive interval runs fn once.
func Every(ctx context.Context, initialDelay, interval time.Duration, fn func(context.Context)) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{cancel: cancel}

	t.loop.Add(1)
	go func() {
		defer t.loop.Done()

		timer := time.NewTimer(initialDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		t.fire(ctx, fn)

		if interval <= 0 {
			return
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				t.fire(ctx, fn)
			}
		}
	}()
	return t
}

func (t *Task) fire(ctx context.Context, fn func(context.Context)) {
	t.runs.Add(1)
	go func() {
		defer t.runs.Done()
		fn(ctx)
	}()
}

// Stop cancels future runs and the context handed to in-flight ones.
// It is safe to call more than once.
func (t *Task) Stop() {
	t.once.Do(t.cancel)
}

// Wait blocks until the loop has exited and every started run has returned.
func (t *Task) Wait() {
	t.loop.Wait()
	t.runs.Wait()
}
