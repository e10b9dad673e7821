package agent

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestSchedulerImmediateFirstTick(t *testing.T) {
	var ticks atomic.Int64
	s := NewScheduler()
	s.Add("counter", time.Hour, true, func(context.Context) { ticks.Add(1) })
	s.Start()
	defer func() {
		s.Stop()
		s.Wait()
	}()

	waitFor(t, func() bool { return ticks.Load() == 1 }, "immediate tick never fired")
}

func TestSchedulerPeriodicTicks(t *testing.T) {
	var ticks atomic.Int64
	s := NewScheduler()
	s.Add("counter", 5*time.Millisecond, false, func(context.Context) { ticks.Add(1) })
	s.Start()

	waitFor(t, func() bool { return ticks.Load() >= 3 }, "expected at least 3 ticks")
	s.Stop()
	s.Wait()

	after := ticks.Load()
	time.Sleep(30 * time.Millisecond)
	if ticks.Load() != after {
		t.Error("tick fired after Stop")
	}
}

func TestSchedulerStopFromWithinTick(t *testing.T) {
	s := NewScheduler()
	s.Add("self-stop", 5*time.Millisecond, true, func(context.Context) {
		s.Stop()
	})
	s.Start()

	done := make(chan struct{})
	go func() {
		s.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop called from a tick deadlocked the scheduler")
	}
}

func TestSchedulerStopIdempotent(t *testing.T) {
	s := NewScheduler()
	s.Add("noop", time.Hour, false, func(context.Context) {})
	s.Start()
	s.Stop()
	s.Stop()
	s.Wait()
}

func TestSchedulerWaitWithoutStart(t *testing.T) {
	s := NewScheduler()
	s.Wait() // must not block
}
