// Package sched wraps a timing wheel behind the one operation the room
// core needs: fire a callback once after a delay, cancellable. A fired
// callback runs on its own goroutine, so it must re-enter the owning
// actor through its inbox rather than mutate state directly.
package sched

import (
	"time"

	"github.com/RussellLuo/timingwheel"
)

const (
	tick      = 10 * time.Millisecond
	wheelSize = 512
)

// Scheduler is a process-wide deferred-transition timer. Safe for use
// from multiple goroutines.
type Scheduler struct {
	tw *timingwheel.TimingWheel
}

// New creates and starts the wheel.
func New() *Scheduler {
	tw := timingwheel.NewTimingWheel(tick, wheelSize)
	tw.Start()
	return &Scheduler{tw: tw}
}

// Once schedules f to run once after d. The wheel goroutine must never
// block, so the task is handed off to a fresh goroutine.
func (s *Scheduler) Once(d time.Duration, f func()) *Timer {
	return &Timer{t: s.tw.AfterFunc(d, func() { go f() })}
}

// Stop shuts the wheel down. Pending timers are dropped.
func (s *Scheduler) Stop() {
	s.tw.Stop()
}

// Timer is a handle to one pending callback.
type Timer struct {
	t *timingwheel.Timer
}

// Stop cancels the callback if it has not fired yet.
func (t *Timer) Stop() {
	t.t.Stop()
}
