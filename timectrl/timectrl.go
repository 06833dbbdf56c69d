package timectrl

import (
	"context"
	"sync"
	"time"

	"github.com/tesh144/RTChess-sub001/internal/pubsub"
)

// Clock is the minimal time source the scheduler and resize coordinator
// depend on, so tests can substitute a fake.
type Clock interface {
	// Now returns the current time of this clock.
	Now() time.Time
}

// WallClock reads the host clock.
type WallClock struct{}

// Now implements Clock.
func (WallClock) Now() time.Time { return time.Now() }

// Tick is one delivered "interval elapsed" notification.
type Tick struct {
	// Seq counts delivered ticks starting at 1. Ticks swallowed while the
	// controller was paused are not counted.
	Seq uint64
	// At is the simulation time after the tick was applied.
	At time.Time
}

// TickSource is the notification contract the wave director consumes.
type TickSource interface {
	Subscribe(fn func(Tick)) (unsubscribe func())
	Pause()
	Resume()
	Paused() bool
}

// Mode describes how the TimeController advances simulation time.
type Mode int

const (
	// RealTime delivers one tick per Interval of wall-clock time.
	RealTime Mode = iota
	// Accelerated delivers ticks as quickly as the loop can run while still
	// stepping simulation time by Interval.
	Accelerated
)

func (m Mode) String() string {
	if m == Accelerated {
		return "accelerated"
	}
	return "realtime"
}

// TimeController drives simulation time and notifies registered listeners.
// While paused, no ticks are delivered and simulation time stands still, but
// frame hooks keep running so wall-clock work (such as finishing a resize
// animation) can resume it.
type TimeController struct {
	mu        sync.RWMutex
	StartTime time.Time
	Interval  time.Duration
	Mode      Mode

	currentTime time.Time
	seq         uint64
	paused      bool

	frameClock Clock
	hooks      []func(time.Time)
	listeners  pubsub.Hub[Tick]
}

// NewTimeController constructs a controller.
func NewTimeController(start time.Time, interval time.Duration, mode Mode) *TimeController {
	return &TimeController{
		StartTime:   start,
		Interval:    interval,
		Mode:        mode,
		currentTime: start,
		frameClock:  WallClock{},
	}
}

// SetFrameClock replaces the clock whose reading is passed to frame hooks.
func (tc *TimeController) SetFrameClock(c Clock) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if c != nil {
		tc.frameClock = c
	}
}

// Now returns the current simulation time. Implements Clock.
func (tc *TimeController) Now() time.Time {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.currentTime
}

// SetTime overrides the current simulation time.
func (tc *TimeController) SetTime(t time.Time) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.currentTime = t
}

// Ticks returns how many ticks have been delivered.
func (tc *TimeController) Ticks() uint64 {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.seq
}

// Subscribe registers a callback invoked on every delivered tick.
func (tc *TimeController) Subscribe(fn func(Tick)) (unsubscribe func()) {
	return tc.listeners.Subscribe(fn)
}

// AddFrameHook registers a callback invoked on every loop iteration of
// Start, paused or not, with the frame clock's current reading.
func (tc *TimeController) AddFrameHook(fn func(time.Time)) {
	if fn == nil {
		return
	}
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.hooks = append(tc.hooks, fn)
}

// Pause stops tick delivery until Resume is called.
func (tc *TimeController) Pause() {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.paused = true
}

// Resume restarts tick delivery.
func (tc *TimeController) Resume() {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.paused = false
}

// Paused reports whether tick delivery is suspended.
func (tc *TimeController) Paused() bool {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.paused
}

// Step advances simulation time by one Interval and notifies listeners.
// It returns false without doing anything while paused.
func (tc *TimeController) Step() bool {
	tc.mu.Lock()
	if tc.paused {
		tc.mu.Unlock()
		return false
	}
	tc.seq++
	tc.currentTime = tc.currentTime.Add(tc.Interval)
	tick := Tick{Seq: tc.seq, At: tc.currentTime}
	tc.mu.Unlock()

	// Listeners may call Pause, so they run outside the lock.
	tc.listeners.Publish(tick)
	return true
}

func (tc *TimeController) runFrameHooks() {
	tc.mu.RLock()
	hooks := append([]func(time.Time){}, tc.hooks...)
	clock := tc.frameClock
	tc.mu.RUnlock()

	now := clock.Now()
	for _, fn := range hooks {
		fn(now)
	}
}

// Start runs the controller in a separate goroutine until ctx is cancelled
// or maxTicks ticks have been delivered (0 means no limit). It returns a
// channel that is closed when the controller finishes.
func (tc *TimeController) Start(ctx context.Context, maxTicks uint64) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		var ticker *time.Ticker
		if tc.Mode == RealTime {
			ticker = time.NewTicker(tc.Interval)
			defer ticker.Stop()
		}

		for {
			if maxTicks > 0 && tc.Ticks() >= maxTicks {
				return
			}

			if ticker != nil {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
				}
			} else {
				if err := ctx.Err(); err != nil {
					return
				}
				if tc.Paused() {
					// Nothing to deliver; avoid spinning until a hook resumes us.
					select {
					case <-ctx.Done():
						return
					case <-time.After(tc.Interval):
					}
				}
			}

			tc.runFrameHooks()
			tc.Step()
		}
	}()
	return done
}
