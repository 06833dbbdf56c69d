// Package schedule runs callbacks at points in time. The resize coordinator
// uses it to finish a grid resize once its animation window has elapsed.
package schedule

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tesh144/RTChess-sub001/timectrl"
)

// EventScheduler schedules callbacks against a clock.
//
// The run loop calls RunDue on every frame; components use Schedule and
// Cancel to manage deferred work.
type EventScheduler interface {
	// Schedule registers f to run at time 'at' and returns an opaque ID
	// that can be used to cancel it.
	Schedule(at time.Time, f func()) (id string)

	// Cancel drops a pending event. It is a no-op if the ID is unknown or
	// the event already ran.
	Cancel(id string)

	// Now returns the scheduler's current time.
	Now() time.Time

	// RunDue executes every event whose time is <= Now(). Events never run
	// twice.
	RunDue()

	// Pending returns the number of events still waiting to run.
	Pending() int
}

type event struct {
	id        string
	when      time.Time
	f         func()
	cancelled bool
}

// queue is the time-ordered event store shared by Scheduler and Fake.
type queue struct {
	mu      sync.Mutex
	prefix  string
	counter uint64
	events  []*event // ordered by 'when', earliest first
	index   map[string]*event
}

func (q *queue) add(at time.Time, f func()) string {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.index == nil {
		q.index = make(map[string]*event)
	}
	q.counter++
	ev := &event{id: fmt.Sprintf("%s-%d", q.prefix, q.counter), when: at, f: f}

	// Equal times keep insertion order.
	idx := sort.Search(len(q.events), func(i int) bool {
		return q.events[i].when.After(at)
	})
	q.events = append(q.events, nil)
	copy(q.events[idx+1:], q.events[idx:])
	q.events[idx] = ev

	q.index[ev.id] = ev
	return ev.id
}

func (q *queue) cancel(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	ev, ok := q.index[id]
	if !ok {
		return
	}
	// Removal from q.events is lazy; popDue skips cancelled entries.
	ev.cancelled = true
	delete(q.index, id)
}

// popDue removes and returns the earliest live event at or before now.
func (q *queue) popDue(now time.Time) *event {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.events) > 0 {
		ev := q.events[0]
		if ev.cancelled {
			q.events = q.events[1:]
			continue
		}
		if ev.when.After(now) {
			return nil
		}
		q.events = q.events[1:]
		delete(q.index, ev.id)
		return ev
	}
	return nil
}

func (q *queue) pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.index)
}

// runDue drains due events, executing callbacks outside the lock so they
// may schedule further work.
func (q *queue) runDue(now func() time.Time) {
	for {
		ev := q.popDue(now())
		if ev == nil {
			return
		}
		if ev.f != nil {
			ev.f()
		}
	}
}

// Scheduler is the EventScheduler used at runtime.
type Scheduler struct {
	clock timectrl.Clock
	q     queue
}

// New creates a scheduler backed by clock. A nil clock falls back to the
// wall clock.
func New(clock timectrl.Clock) *Scheduler {
	if clock == nil {
		clock = timectrl.WallClock{}
	}
	return &Scheduler{clock: clock, q: queue{prefix: "ev"}}
}

// Schedule implements EventScheduler.
func (s *Scheduler) Schedule(at time.Time, f func()) string { return s.q.add(at, f) }

// Cancel implements EventScheduler.
func (s *Scheduler) Cancel(id string) { s.q.cancel(id) }

// Now implements EventScheduler.
func (s *Scheduler) Now() time.Time { return s.clock.Now() }

// RunDue implements EventScheduler.
func (s *Scheduler) RunDue() { s.q.runDue(s.clock.Now) }

// Pending implements EventScheduler.
func (s *Scheduler) Pending() int { return s.q.pending() }
