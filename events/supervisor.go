package events

import (
	"context"
	"sync"
	"time"
)

// Supervisor owns the background tasks of the session: watchers, pollers
// and one-shot jobs. Shutdown cancels everything and waits for the lot to
// return, so no task outlives the handler that spawned it.
type Supervisor struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewSupervisor() *Supervisor {
	ctx, cancel := context.WithCancel(context.Background())
	return &Supervisor{ctx: ctx, cancel: cancel}
}

// Context is cancelled when the supervisor shuts down. Tasks doing their
// own blocking calls should thread it through.
func (s *Supervisor) Context() context.Context { return s.ctx }

// Watch runs fn in a goroutine tracked by the supervisor. fn must return
// when its context is cancelled.
func (s *Supervisor) Watch(fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(s.ctx)
	}()
}

// Oneshot runs fn once in a tracked goroutine.
func (s *Supervisor) Oneshot(fn func(ctx context.Context)) {
	s.Watch(fn)
}

// Periodic runs fn immediately and then on every interval tick until the
// supervisor or the returned stop function cancels it.
func (s *Supervisor) Periodic(interval time.Duration, fn func(ctx context.Context)) (stop func()) {
	ctx, cancel := context.WithCancel(s.ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			fn(ctx)
			if !sleep(ctx, interval) {
				return
			}
		}
	}()
	return cancel
}

// sleep waits for d, returning false as soon as ctx is cancelled.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// Shutdown cancels every task and blocks until they have all returned.
func (s *Supervisor) Shutdown() {
	s.cancel()
	s.wg.Wait()
}
