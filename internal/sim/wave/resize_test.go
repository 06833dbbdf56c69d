package wave

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/tesh144/RTChess-sub001/internal/logging"
	"github.com/tesh144/RTChess-sub001/internal/schedule"
	"github.com/tesh144/RTChess-sub001/internal/sim/state"
	"github.com/tesh144/RTChess-sub001/model"
	"github.com/tesh144/RTChess-sub001/timectrl"
)

func TestResizeTaskProgress(t *testing.T) {
	task := ResizeTask{Start: epoch, Duration: time.Second}
	tests := []struct {
		at   time.Duration
		want float64
	}{
		{-time.Second, 0},
		{0, 0},
		{250 * time.Millisecond, 0.25},
		{time.Second, 1},
		{5 * time.Second, 1},
	}
	for _, tt := range tests {
		if got := task.Progress(epoch.Add(tt.at)); got != tt.want {
			t.Fatalf("Progress(+%v) = %v, want %v", tt.at, got, tt.want)
		}
	}
	if got := (ResizeTask{}).Progress(epoch); got != 1 {
		t.Fatalf("zero-length Progress = %v, want 1", got)
	}
}

type resizeCounter struct {
	applied  []model.Size
	rejected int
}

func (r *resizeCounter) ResizeApplied(size model.Size) { r.applied = append(r.applied, size) }
func (r *resizeCounter) ResizeRejected()               { r.rejected++ }

func newCoordinatorRig(t *testing.T, animation time.Duration, opts ...ResizeOption) (*state.Session, *timectrl.TimeController, *schedule.Fake, *ResizeCoordinator) {
	t.Helper()
	session, err := state.NewSession(model.Square(4), logging.Noop(), state.WithRand(rand.New(rand.NewPCG(3, 4))))
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	ticks := timectrl.NewTimeController(epoch, 250*time.Millisecond, timectrl.RealTime)
	sched := schedule.NewFake(epoch)
	return session, ticks, sched, NewResizeCoordinator(session, ticks, sched, animation, logging.Noop(), opts...)
}

func TestResizeCoordinatorPausesUntilAnimationEnds(t *testing.T) {
	counter := &resizeCounter{}
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	session, ticks, sched, coord := newCoordinatorRig(t, time.Second,
		WithResizeMetrics(counter), WithResizeTracer(tp.Tracer("test")))

	var events []ResizeEvent
	coord.Subscribe(func(ev ResizeEvent) { events = append(events, ev) })

	if !coord.Begin(context.Background(), model.Square(6)) {
		t.Fatalf("Begin(6x6) rejected")
	}
	if !ticks.Paused() || !coord.InFlight() {
		t.Fatalf("after Begin paused=%v inFlight=%v, want both true", ticks.Paused(), coord.InFlight())
	}
	if got := session.Size(); got != model.Square(6) {
		t.Fatalf("board size = %v, want 6x6", got)
	}
	if ticks.Step() {
		t.Fatalf("tick delivered during resize")
	}

	sched.Advance(500 * time.Millisecond)
	if p, ok := coord.Progress(); !ok || p != 0.5 {
		t.Fatalf("Progress() = %v, %v; want 0.5, true", p, ok)
	}
	if coord.Begin(context.Background(), model.Square(8)) {
		t.Fatalf("second Begin accepted while in flight")
	}

	sched.Advance(500 * time.Millisecond)
	if ticks.Paused() || coord.InFlight() {
		t.Fatalf("after animation paused=%v inFlight=%v, want both false", ticks.Paused(), coord.InFlight())
	}
	if !ticks.Step() {
		t.Fatalf("ticks did not resume")
	}

	if len(events) != 2 || events[0].Type != ResizeStarted || events[1].Type != ResizeCompleted {
		t.Fatalf("events = %+v, want started then completed", events)
	}
	if task := events[1].Task; task.From != model.Square(4) || task.To != model.Square(6) || task.Offset != (model.Offset{DX: 1, DY: 1}) {
		t.Fatalf("task = %+v", task)
	}
	if len(counter.applied) != 1 || counter.rejected != 1 {
		t.Fatalf("applied=%v rejected=%d, want one each", counter.applied, counter.rejected)
	}
	spans := sr.Ended()
	if len(spans) != 1 || spans[0].Name() != "grid.resize" {
		t.Fatalf("ended spans = %v, want one grid.resize span", spans)
	}
}

func TestResizeCoordinatorRejectsNonGrowth(t *testing.T) {
	counter := &resizeCounter{}
	session, ticks, _, coord := newCoordinatorRig(t, time.Second, WithResizeMetrics(counter))

	for _, size := range []model.Size{model.Square(4), model.Square(3), {W: 6, H: 4}} {
		if coord.Begin(context.Background(), size) {
			t.Fatalf("Begin(%v) accepted on 4x4 board", size)
		}
	}
	if ticks.Paused() || coord.InFlight() || session.Size() != model.Square(4) {
		t.Fatalf("rejected resize changed state")
	}
	if counter.rejected != 3 {
		t.Fatalf("rejected = %d, want 3", counter.rejected)
	}
}

func TestResizeCoordinatorZeroAnimationIsSynchronous(t *testing.T) {
	_, ticks, sched, coord := newCoordinatorRig(t, 0)

	var events []ResizeEvent
	coord.Subscribe(func(ev ResizeEvent) { events = append(events, ev) })

	if !coord.Begin(context.Background(), model.Square(6)) {
		t.Fatalf("Begin rejected")
	}
	if ticks.Paused() || coord.InFlight() || len(events) != 2 || sched.Pending() != 0 {
		t.Fatalf("paused=%v inFlight=%v events=%d pending=%d", ticks.Paused(), coord.InFlight(), len(events), sched.Pending())
	}
}

func TestMilestoneResizeEndToEnd(t *testing.T) {
	session, ticks, sched, coord := newCoordinatorRig(t, time.Second)
	player, err := session.PlacePlayer(model.Coord{X: 0, Y: 3})
	if err != nil {
		t.Fatalf("PlacePlayer: %v", err)
	}

	ms, err := NewMilestones(Milestone{Wave: 1, Size: model.Square(6)})
	if err != nil {
		t.Fatalf("NewMilestones: %v", err)
	}
	director, err := NewDirector(makeWaves(t, "1", "1"), Config{PeacePeriodMultiplier: 1, Milestones: ms},
		session, session, ticks, logging.Noop(), WithResizer(coord))
	if err != nil {
		t.Fatalf("NewDirector: %v", err)
	}
	defer director.Close()

	var spawned []Event
	director.Subscribe(func(ev Event) {
		if ev.Type == EventSpawn {
			spawned = append(spawned, ev)
		}
	})

	for i := 0; i < 4; i++ {
		ticks.Step()
	}
	if !ticks.Paused() || session.Size() != model.Square(6) {
		t.Fatalf("milestone did not pause and grow: paused=%v size=%v", ticks.Paused(), session.Size())
	}
	for i := 0; i < 10; i++ {
		ticks.Step()
	}
	if got := ticks.Ticks(); got != 4 {
		t.Fatalf("ticks delivered during resize: %d", got)
	}

	got, _ := session.Entities().Get(player.ID)
	if got.Anchor != (model.Coord{X: 1, Y: 4}) {
		t.Fatalf("player anchor = %v, want (1,4)", got.Anchor)
	}
	if len(spawned) != 1 || spawned[0].EntityID == "" {
		t.Fatalf("spawn events = %+v, want one placed enemy", spawned)
	}
	enemy, _ := session.Entities().Get(spawned[0].EntityID)
	if cell, _ := session.CellAt(enemy.Anchor.X, enemy.Anchor.Y); cell.EntityID != enemy.ID {
		t.Fatalf("enemy anchor %v not co-located with its cell %+v", enemy.Anchor, cell)
	}

	sched.Advance(time.Second)
	for i := 0; i < 4; i++ {
		ticks.Step()
	}
	if st := director.State(); st.CurrentWaveIndex != 2 {
		t.Fatalf("second wave did not run after resize: %+v", st)
	}
}
