package sched

import (
	"sync"
	"time"
)

// Scheduler arms one-shot delayed callbacks with idempotent cancellation.
// A callback fires at most once; Cancel before firing guarantees it never
// runs, and a Cancel racing the firing resolves to exactly one outcome.
type Scheduler struct {
	mu     sync.Mutex
	closed bool
	tokens map[*Token]struct{}
}

// NewScheduler creates a scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{tokens: make(map[*Token]struct{})}
}

// Token identifies an armed callback.
type Token struct {
	mu        sync.Mutex
	timer     *time.Timer
	fired     bool
	cancelled bool
	sched     *Scheduler
}

// Schedule arms fn to run after d. The callback runs on the timer goroutine;
// callers that need serialization must take their own lock inside fn.
func (s *Scheduler) Schedule(d time.Duration, fn func()) *Token {
	t := &Token{sched: s}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		t.cancelled = true
		return t
	}
	s.tokens[t] = struct{}{}
	s.mu.Unlock()

	t.timer = time.AfterFunc(d, func() {
		t.mu.Lock()
		if t.cancelled || t.fired {
			t.mu.Unlock()
			return
		}
		t.fired = true
		t.mu.Unlock()
		s.forget(t)
		fn()
	})
	return t
}

// Cancel suppresses a future firing. Safe to call repeatedly and after the
// callback has fired. Returns true if this call prevented the callback.
func (t *Token) Cancel() bool {
	t.mu.Lock()
	if t.cancelled || t.fired {
		t.mu.Unlock()
		return false
	}
	t.cancelled = true
	timer := t.timer
	t.mu.Unlock()
	if timer != nil {
		timer.Stop()
	}
	if t.sched != nil {
		t.sched.forget(t)
	}
	return true
}

// Fired reports whether the callback has run.
func (t *Token) Fired() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fired
}

// Cancelled reports whether the callback was cancelled before running.
func (t *Token) Cancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

// Close cancels all armed callbacks and rejects new ones.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	tokens := make([]*Token, 0, len(s.tokens))
	for t := range s.tokens {
		tokens = append(tokens, t)
	}
	s.mu.Unlock()
	for _, t := range tokens {
		t.Cancel()
	}
}

// Pending returns the number of armed, unfired callbacks.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}

func (s *Scheduler) forget(t *Token) {
	s.mu.Lock()
	delete(s.tokens, t)
	s.mu.Unlock()
}
