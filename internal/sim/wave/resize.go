package wave

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tesh144/RTChess-sub001/internal/logging"
	"github.com/tesh144/RTChess-sub001/internal/pubsub"
	"github.com/tesh144/RTChess-sub001/internal/schedule"
	"github.com/tesh144/RTChess-sub001/model"
)

// BoardResizer is the board side of a resize.
type BoardResizer interface {
	Size() model.Size
	CanResize(next model.Size) bool
	Resize(next model.Size) (model.Offset, bool)
}

// Pauser gates tick delivery.
type Pauser interface {
	Pause()
	Resume()
}

// ResizeMetricsRecorder receives resize counters.
type ResizeMetricsRecorder interface {
	ResizeApplied(size model.Size)
	ResizeRejected()
}

// ResizeTask describes one running resize animation. Render loops sample
// Progress to interpolate camera and board visuals.
type ResizeTask struct {
	From     model.Size
	To       model.Size
	Offset   model.Offset
	Start    time.Time
	Duration time.Duration
}

// Progress returns the completed fraction of the animation at now, clamped
// to [0,1]. A zero-length task is always complete.
func (t ResizeTask) Progress(now time.Time) float64 {
	if t.Duration <= 0 {
		return 1
	}
	p := float64(now.Sub(t.Start)) / float64(t.Duration)
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}

// End is when the animation finishes.
func (t ResizeTask) End() time.Time {
	return t.Start.Add(t.Duration)
}

// ResizeEventType tags a resize notification.
type ResizeEventType int

const (
	ResizeStarted ResizeEventType = iota
	ResizeCompleted
)

func (t ResizeEventType) String() string {
	if t == ResizeCompleted {
		return "resize_completed"
	}
	return "resize_started"
}

// ResizeEvent is published when a resize begins and when its animation
// ends and ticks resume.
type ResizeEvent struct {
	Type ResizeEventType
	Task ResizeTask
}

// ResizeOption customises ResizeCoordinator construction.
type ResizeOption func(*ResizeCoordinator)

// WithResizeMetrics attaches a metrics recorder.
func WithResizeMetrics(m ResizeMetricsRecorder) ResizeOption {
	return func(c *ResizeCoordinator) { c.metrics = m }
}

// WithResizeTracer replaces the global tracer used for resize spans.
func WithResizeTracer(t trace.Tracer) ResizeOption {
	return func(c *ResizeCoordinator) {
		if t != nil {
			c.tracer = t
		}
	}
}

// ResizeCoordinator sequences a board resize against the tick source: ticks
// are paused, the board grows atomically, and ticks resume only once the
// animation window has elapsed on the scheduler. At most one resize is in
// flight; a started resize always runs to completion.
type ResizeCoordinator struct {
	mu sync.Mutex

	board     BoardResizer
	ticks     Pauser
	sched     schedule.EventScheduler
	animation time.Duration

	log     logging.Logger
	metrics ResizeMetricsRecorder
	tracer  trace.Tracer

	task   *ResizeTask
	span   trace.Span
	events pubsub.Hub[ResizeEvent]
}

// NewResizeCoordinator wires a coordinator. animation <= 0 completes every
// resize synchronously inside Begin.
func NewResizeCoordinator(board BoardResizer, ticks Pauser, sched schedule.EventScheduler, animation time.Duration, log logging.Logger, opts ...ResizeOption) *ResizeCoordinator {
	if log == nil {
		log = logging.Noop()
	}
	if sched == nil {
		sched = schedule.New(nil)
	}
	c := &ResizeCoordinator{
		board:     board,
		ticks:     ticks,
		sched:     sched,
		animation: animation,
		log:       log,
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Subscribe registers fn for resize notifications.
func (c *ResizeCoordinator) Subscribe(fn func(ResizeEvent)) (unsubscribe func()) {
	return c.events.Subscribe(fn)
}

// InFlight reports whether a resize has started and not yet completed.
func (c *ResizeCoordinator) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.task != nil
}

// Task returns the running task, if any.
func (c *ResizeCoordinator) Task() (ResizeTask, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.task == nil {
		return ResizeTask{}, false
	}
	return *c.task, true
}

// Progress samples the running task against the scheduler clock.
func (c *ResizeCoordinator) Progress() (float64, bool) {
	task, ok := c.Task()
	if !ok {
		return 0, false
	}
	return task.Progress(c.sched.Now()), true
}

// Begin starts a resize to size. It is a silent no-op, returning false,
// when a resize is already running or size does not strictly grow the
// board, so callers may invoke it speculatively.
func (c *ResizeCoordinator) Begin(ctx context.Context, size model.Size) bool {
	c.mu.Lock()
	if c.task != nil || !c.board.CanResize(size) {
		inFlight := c.task != nil
		c.mu.Unlock()
		c.reject(ctx, size, inFlight)
		return false
	}

	from := c.board.Size()
	if c.ticks != nil {
		c.ticks.Pause()
	}
	offset, ok := c.board.Resize(size)
	if !ok {
		if c.ticks != nil {
			c.ticks.Resume()
		}
		c.mu.Unlock()
		c.reject(ctx, size, false)
		return false
	}

	task := ResizeTask{
		From:     from,
		To:       size,
		Offset:   offset,
		Start:    c.sched.Now(),
		Duration: c.animation,
	}
	c.task = &task
	_, c.span = c.tracer.Start(ctx, "grid.resize", trace.WithAttributes(
		attribute.String("grid.from", from.String()),
		attribute.String("grid.to", size.String()),
		attribute.Int("grid.offset_x", offset.DX),
		attribute.Int("grid.offset_y", offset.DY),
	))
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.ResizeApplied(size)
	}
	c.log.Info(ctx, "resize started",
		logging.String("from", from.String()),
		logging.String("to", size.String()),
		logging.Duration("animation", c.animation),
	)
	c.events.Publish(ResizeEvent{Type: ResizeStarted, Task: task})

	if c.animation <= 0 {
		c.finish(ctx)
		return true
	}
	c.sched.Schedule(task.End(), func() { c.finish(ctx) })
	return true
}

func (c *ResizeCoordinator) reject(ctx context.Context, size model.Size, inFlight bool) {
	if c.metrics != nil {
		c.metrics.ResizeRejected()
	}
	c.log.Debug(ctx, "resize rejected",
		logging.String("to", size.String()),
		logging.Bool("in_flight", inFlight),
	)
}

func (c *ResizeCoordinator) finish(ctx context.Context) {
	c.mu.Lock()
	if c.task == nil {
		c.mu.Unlock()
		return
	}
	task := *c.task
	c.task = nil
	if c.span != nil {
		c.span.End()
		c.span = nil
	}
	c.mu.Unlock()

	if c.ticks != nil {
		c.ticks.Resume()
	}
	c.log.Info(ctx, "resize complete", logging.String("size", task.To.String()))
	c.events.Publish(ResizeEvent{Type: ResizeCompleted, Task: task})
}
