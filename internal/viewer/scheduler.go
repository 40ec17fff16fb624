package viewer

import (
	"sync"
	"time"
)

// Scheduler defers work until the rendering collaborator has settled
type Scheduler interface {
	Schedule(fn func())
}

// DelayScheduler runs scheduled work after a fixed delay. Requests made while
// one is already waiting are coalesced into the waiting run.
type DelayScheduler struct {
	delay time.Duration

	mu      sync.Mutex
	waiting bool
	queued  []func()
}

// NewDelayScheduler creates a scheduler that waits delay before running work
func NewDelayScheduler(delay time.Duration) *DelayScheduler {
	return &DelayScheduler{delay: delay}
}

// Schedule queues fn. Work scheduled while a run is waiting joins that run.
func (s *DelayScheduler) Schedule(fn func()) {
	s.mu.Lock()
	s.queued = append(s.queued, fn)
	if s.waiting {
		s.mu.Unlock()
		return
	}
	s.waiting = true
	s.mu.Unlock()

	time.AfterFunc(s.delay, s.flush)
}

func (s *DelayScheduler) flush() {
	s.mu.Lock()
	queued := s.queued
	s.queued = nil
	s.waiting = false
	s.mu.Unlock()

	for _, fn := range queued {
		fn()
	}
}

// ImmediateScheduler runs work synchronously
type ImmediateScheduler struct{}

// Schedule runs fn right away
func (ImmediateScheduler) Schedule(fn func()) { fn() }
