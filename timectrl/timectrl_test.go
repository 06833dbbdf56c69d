package timectrl

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestTimeControllerSetTime(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	tc := NewTimeController(start, time.Second, RealTime)

	newNow := start.Add(42 * time.Second)
	tc.SetTime(newNow)

	if got := tc.Now(); !got.Equal(newNow) {
		t.Fatalf("Now() = %v, want %v", got, newNow)
	}
}

func TestTimeControllerStepDeliversTicks(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	tc := NewTimeController(start, 250*time.Millisecond, RealTime)

	var got []Tick
	tc.Subscribe(func(tk Tick) { got = append(got, tk) })

	for range 3 {
		if !tc.Step() {
			t.Fatalf("Step() = false on running controller")
		}
	}
	if len(got) != 3 {
		t.Fatalf("delivered %d ticks, want 3", len(got))
	}
	for i, tk := range got {
		if tk.Seq != uint64(i+1) {
			t.Fatalf("tick %d Seq = %d, want %d", i, tk.Seq, i+1)
		}
	}
	if want := start.Add(750 * time.Millisecond); !tc.Now().Equal(want) {
		t.Fatalf("Now() = %v, want %v", tc.Now(), want)
	}
}

func TestTimeControllerPauseSuppressesTicks(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	tc := NewTimeController(start, time.Second, RealTime)

	var count int
	tc.Subscribe(func(Tick) { count++ })

	tc.Pause()
	if tc.Step() {
		t.Fatalf("Step() = true while paused")
	}
	if count != 0 || tc.Ticks() != 0 || !tc.Now().Equal(start) {
		t.Fatalf("paused Step changed state: count=%d ticks=%d now=%v", count, tc.Ticks(), tc.Now())
	}

	tc.Resume()
	tc.Step()
	if count != 1 || tc.Ticks() != 1 {
		t.Fatalf("after Resume count=%d ticks=%d, want 1/1", count, tc.Ticks())
	}
}

func TestTimeControllerStartUpdatesNow(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	tc := NewTimeController(start, 5*time.Millisecond, Accelerated)

	done := tc.Start(context.Background(), 3)
	<-done

	expected := start.Add(15 * time.Millisecond)
	if got := tc.Now(); !got.Equal(expected) {
		t.Fatalf("Now() = %v, want %v", got, expected)
	}
}

func TestTimeControllerFrameHooksResumeWhilePaused(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	tc := NewTimeController(start, time.Millisecond, Accelerated)

	// The first tick pauses delivery; a frame hook resumes it a few frames
	// later, the way a finished resize animation would.
	var pausedFrames atomic.Int32
	tc.Subscribe(func(tk Tick) {
		if tk.Seq == 1 {
			tc.Pause()
		}
	})
	tc.AddFrameHook(func(time.Time) {
		if tc.Paused() && pausedFrames.Add(1) == 3 {
			tc.Resume()
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	<-tc.Start(ctx, 4)

	if got := tc.Ticks(); got != 4 {
		t.Fatalf("Ticks() = %d, want 4", got)
	}
	if got := pausedFrames.Load(); got != 3 {
		t.Fatalf("paused frames = %d, want 3", got)
	}
}

func TestTimeControllerStartStopsOnCancel(t *testing.T) {
	tc := NewTimeController(time.Time{}, time.Millisecond, RealTime)
	ctx, cancel := context.WithCancel(context.Background())
	done := tc.Start(ctx, 0)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("controller did not stop after cancel")
	}
}
