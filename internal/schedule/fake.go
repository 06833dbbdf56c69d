package schedule

import (
	"sync"
	"time"
)

// Fake is a test EventScheduler with its own notion of time. Tests move
// time with AdvanceTo or Advance, which run whatever became due.
type Fake struct {
	mu  sync.Mutex
	now time.Time
	q   queue
}

// NewFake creates a fake scheduler starting at start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start, q: queue{prefix: "fake-ev"}}
}

// Now implements EventScheduler.
func (s *Fake) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Schedule implements EventScheduler.
func (s *Fake) Schedule(at time.Time, f func()) string { return s.q.add(at, f) }

// Cancel implements EventScheduler.
func (s *Fake) Cancel(id string) { s.q.cancel(id) }

// RunDue implements EventScheduler.
func (s *Fake) RunDue() { s.q.runDue(s.Now) }

// Pending implements EventScheduler.
func (s *Fake) Pending() int { return s.q.pending() }

// AdvanceTo moves fake time to t and runs due events. Time never goes
// backwards.
func (s *Fake) AdvanceTo(t time.Time) {
	s.mu.Lock()
	if t.Before(s.now) {
		s.mu.Unlock()
		return
	}
	s.now = t
	s.mu.Unlock()

	s.RunDue()
}

// Advance moves fake time forward by d.
func (s *Fake) Advance(d time.Duration) {
	s.AdvanceTo(s.Now().Add(d))
}
