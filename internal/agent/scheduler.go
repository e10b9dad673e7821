package agent

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// task is one named periodic activity owned by the scheduler.
type task struct {
	name      string
	interval  time.Duration
	immediate bool
	tick      func(ctx context.Context)
}

// Scheduler runs a set of periodic activities on independent goroutines and
// cancels them as a set. The session manager registers the countdown, the
// reconciler, and the capture pipeline here so that teardown can never leak
// a timer: once Stop returns, no tick fires again.
type Scheduler struct {
	mu      sync.Mutex
	tasks   []task
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Add registers a periodic activity. When immediate is set the first tick
// runs as soon as the scheduler starts, then on every interval. Add after
// Start is a programming error and is ignored with a log.
func (s *Scheduler) Add(name string, interval time.Duration, immediate bool, tick func(ctx context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		slog.Error("scheduler: Add after Start ignored", "activity", name)
		return
	}
	s.tasks = append(s.tasks, task{name: name, interval: interval, immediate: immediate, tick: tick})
}

// Start launches one goroutine per registered activity.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	var wg sync.WaitGroup
	for _, a := range s.tasks {
		wg.Add(1)
		go func(a task) {
			defer wg.Done()
			s.run(ctx, a)
		}(a)
	}
	go func() {
		wg.Wait()
		close(s.done)
	}()
}

func (s *Scheduler) run(ctx context.Context, a task) {
	if a.immediate {
		a.tick(ctx)
	}
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.tick(ctx)
		}
	}
}

// Stop cancels every activity. It returns immediately; use Wait to block
// until in-flight ticks have drained. Stop is idempotent and safe to call
// from within a tick (a tick that waited for itself would deadlock).
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	s.cancel()
}

// Wait blocks until all activity goroutines have exited. Returns
// immediately when the scheduler never started.
func (s *Scheduler) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}
