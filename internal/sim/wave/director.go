// Package wave sequences waves of spawns against the board: the Director
// state machine alternates peace and active phases on every tick, and the
// ResizeCoordinator grows the board at milestone waves.
package wave

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tesh144/RTChess-sub001/core"
	"github.com/tesh144/RTChess-sub001/internal/logging"
	"github.com/tesh144/RTChess-sub001/internal/pubsub"
	"github.com/tesh144/RTChess-sub001/kb"
	"github.com/tesh144/RTChess-sub001/model"
	"github.com/tesh144/RTChess-sub001/timectrl"
)

const tracerName = "github.com/tesh144/RTChess-sub001/internal/sim/wave"

// EventType tags a director notification.
type EventType int

const (
	EventWaveStart EventType = iota
	EventWaveComplete
	EventSpawn
)

func (t EventType) String() string {
	switch t {
	case EventWaveStart:
		return "wave_start"
	case EventWaveComplete:
		return "wave_complete"
	case EventSpawn:
		return "spawn"
	default:
		return "unknown"
	}
}

// Event is a director notification. Symbol, Index, Placement and EntityID
// are only meaningful for EventSpawn; Placement is nil when nothing was
// placed (Empty and Boss steps, or a failed placement).
type Event struct {
	Type       EventType
	Tick       uint64
	WaveNumber int
	Symbol     model.SpawnSymbol
	Index      int
	Placement  *core.Placement
	EntityID   string
}

// Board answers placement queries.
type Board interface {
	FindPlacement(kind model.EntityKind, fp model.Footprint) (core.Placement, error)
}

// EntitySpawner commits a spawned entity at a resolved anchor.
type EntitySpawner interface {
	SpawnEnemy(anchor model.Coord, level int) (kb.Entity, error)
	SpawnResource(anchor model.Coord, level int, fp model.Footprint) (kb.Entity, error)
}

// Resizer starts milestone resizes and reports whether one is running.
type Resizer interface {
	InFlight() bool
	Begin(ctx context.Context, size model.Size) bool
}

// MetricsRecorder receives director counters. Implementations must be safe
// to call with the director lock held.
type MetricsRecorder interface {
	WaveStarted(wave int)
	WaveCompleted(wave int)
	SpawnEvent(symbol model.SpawnSymbol)
	PlacementSucceeded(kind model.EntityKind, tier core.Tier)
	PlacementFailed(kind model.EntityKind)
	SetPhase(phase model.WavePhase)
	ObserveTick(d time.Duration)
}

// Config tunes the director.
type Config struct {
	// PeacePeriodMultiplier times model.GridSides is the peace length in
	// ticks. Zero selects model.DefaultPeacePeriodMultiplier.
	PeacePeriodMultiplier int
	Overflow              OverflowPolicy
	Milestones            Milestones
}

// Option customises Director construction.
type Option func(*Director)

// WithMetrics attaches a metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(d *Director) { d.metrics = m }
}

// WithResizer wires the milestone resizer and enables the reentrancy guard.
func WithResizer(r Resizer) Option {
	return func(d *Director) { d.resizer = r }
}

// WithTracer replaces the global tracer used for wave spans.
func WithTracer(t trace.Tracer) Option {
	return func(d *Director) {
		if t != nil {
			d.tracer = t
		}
	}
}

// WithContext sets the parent context for logs and spans, typically one
// carrying a session ID.
func WithContext(ctx context.Context) Option {
	return func(d *Director) {
		if ctx != nil {
			d.ctx = ctx
		}
	}
}

// ErrNoWaves is returned when the director is built without a wave table.
var ErrNoWaves = errors.New("no waves configured")

// Director is the wave state machine. It is driven entirely by ticks; one
// tick is fully processed before the next is accepted.
type Director struct {
	mu sync.Mutex

	waves         []model.WaveConfig
	cfg           Config
	peaceDuration int

	state     model.DirectorState
	current   model.WaveConfig
	exhausted bool
	closed    bool

	board   Board
	spawner EntitySpawner
	resizer Resizer
	metrics MetricsRecorder
	log     logging.Logger

	ctx      context.Context
	tracer   trace.Tracer
	waveSpan trace.Span

	unsubscribe func()
	events      pubsub.Hub[Event]
}

// NewDirector builds a director in the peace period and, when ticks is not
// nil, subscribes it to the tick source.
func NewDirector(waves []model.WaveConfig, cfg Config, board Board, spawner EntitySpawner, ticks timectrl.TickSource, log logging.Logger, opts ...Option) (*Director, error) {
	if len(waves) == 0 {
		return nil, ErrNoWaves
	}
	if board == nil || spawner == nil {
		return nil, fmt.Errorf("director requires a board and a spawner")
	}
	if cfg.PeacePeriodMultiplier < 0 {
		return nil, fmt.Errorf("peace period multiplier %d must not be negative", cfg.PeacePeriodMultiplier)
	}
	if cfg.PeacePeriodMultiplier == 0 {
		cfg.PeacePeriodMultiplier = model.DefaultPeacePeriodMultiplier
	}
	if log == nil {
		log = logging.Noop()
	}

	d := &Director{
		waves:         append([]model.WaveConfig(nil), waves...),
		cfg:           cfg,
		peaceDuration: cfg.PeacePeriodMultiplier * model.GridSides,
		state:         model.DirectorState{Phase: model.PeacePeriod},
		board:         board,
		spawner:       spawner,
		log:           log,
		ctx:           context.Background(),
		tracer:        otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	if d.metrics != nil {
		d.metrics.SetPhase(model.PeacePeriod)
	}
	if ticks != nil {
		d.unsubscribe = ticks.Subscribe(d.OnTick)
	}
	return d, nil
}

// PeaceDuration is the number of ticks in a peace period.
func (d *Director) PeaceDuration() int {
	return d.peaceDuration
}

// State returns a copy of the current state.
func (d *Director) State() model.DirectorState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Subscribe registers fn for director notifications. Notifications are
// delivered after the tick that produced them has been fully applied.
func (d *Director) Subscribe(fn func(Event)) (unsubscribe func()) {
	return d.events.Subscribe(fn)
}

// Close detaches the director from its tick source and drops every
// subscriber. Further ticks are ignored.
func (d *Director) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	unsubscribe := d.unsubscribe
	d.unsubscribe = nil
	if d.waveSpan != nil {
		d.waveSpan.SetStatus(codes.Error, "director closed mid-wave")
		d.waveSpan.End()
		d.waveSpan = nil
	}
	d.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	d.events.Clear()
}

// OnTick advances the state machine by one tick.
func (d *Director) OnTick(tk timectrl.Tick) {
	started := time.Now()

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	if d.resizer != nil && d.resizer.InFlight() {
		d.mu.Unlock()
		d.log.Debug(d.ctx, "tick skipped during resize", logging.Any("tick", tk.Seq))
		return
	}

	var (
		events    []Event
		milestone model.Size
		grow      bool
	)
	emit := func(ev Event) {
		ev.Tick = tk.Seq
		events = append(events, ev)
	}

	switch d.state.Phase {
	case model.PeacePeriod:
		if d.peaceTickLocked(emit) {
			milestone, grow = d.runStepsLocked(emit, true)
		}
	case model.ActiveWave:
		milestone, grow = d.runStepsLocked(emit, false)
	}
	d.mu.Unlock()

	for _, ev := range events {
		d.events.Publish(ev)
	}
	if grow && d.resizer != nil {
		d.resizer.Begin(d.ctx, milestone)
	}
	if d.metrics != nil {
		d.metrics.ObserveTick(time.Since(started))
	}
}

// peaceTickLocked counts down the peace period and starts the next wave
// once it has elapsed. It reports whether a wave was started.
func (d *Director) peaceTickLocked(emit func(Event)) bool {
	if d.exhausted {
		return false
	}
	d.state.TicksSincePhaseEvent++
	if d.state.TicksSincePhaseEvent < d.peaceDuration {
		return false
	}

	wave, ok := d.cfg.Overflow.waveAt(d.waves, d.state.CurrentWaveIndex)
	if !ok {
		d.exhausted = true
		d.state.TicksSincePhaseEvent = 0
		d.log.Info(d.ctx, "wave table exhausted; staying in peace",
			logging.Int("waves_played", d.state.CurrentWaveIndex),
			logging.String("overflow", d.cfg.Overflow.String()),
		)
		return false
	}

	number := d.state.CurrentWaveIndex + 1
	d.current = wave
	d.state.Phase = model.ActiveWave
	d.state.SpawnIndex = 0
	d.state.TicksSincePhaseEvent = 0
	d.state.WaveNumber = number

	_, d.waveSpan = d.tracer.Start(d.ctx, "wave",
		trace.WithAttributes(
			attribute.Int("wave.number", number),
			attribute.String("wave.code", wave.Program.String()),
			attribute.Int("wave.enemy_level", wave.EnemyLevel),
			attribute.Int("wave.resource_level", wave.ResourceLevel),
		),
	)
	if d.metrics != nil {
		d.metrics.WaveStarted(number)
		d.metrics.SetPhase(model.ActiveWave)
	}
	d.log.Info(d.ctx, "wave started",
		logging.Int("wave", number),
		logging.String("code", wave.Program.String()),
		logging.Int("active_ticks", wave.ActiveTicks()),
		logging.Int("enemies", wave.Program.Count(model.SymbolEnemy)),
		logging.Int("resources", wave.Program.Count(model.SymbolResource)),
	)
	emit(Event{Type: EventWaveStart, WaveNumber: number})
	return true
}

// runStepsLocked handles one active tick. The step at spawnIndex runs
// immediately on the tick a wave starts and then every SpawnIntervalTicks.
// It returns the milestone size when the wave completed on a milestone.
func (d *Director) runStepsLocked(emit func(Event), justStarted bool) (model.Size, bool) {
	program := d.current.Program
	if !justStarted {
		d.state.TicksSincePhaseEvent++
		if d.state.TicksSincePhaseEvent < model.SpawnIntervalTicks {
			return model.Size{}, false
		}
	}

	if d.state.SpawnIndex < len(program) {
		d.executeLocked(emit, program[d.state.SpawnIndex], d.state.SpawnIndex)
		d.state.TicksSincePhaseEvent = 0
		d.state.SpawnIndex++
	}
	if d.state.SpawnIndex < len(program) {
		return model.Size{}, false
	}
	return d.completeLocked(emit)
}

func (d *Director) executeLocked(emit func(Event), symbol model.SpawnSymbol, index int) {
	ev := Event{
		Type:       EventSpawn,
		WaveNumber: d.state.WaveNumber,
		Symbol:     symbol,
		Index:      index,
	}
	if d.metrics != nil {
		d.metrics.SpawnEvent(symbol)
	}

	var (
		kind model.EntityKind
		fp   model.Footprint
	)
	switch symbol {
	case model.SymbolEnemy:
		kind, fp = model.EntityEnemy, model.Footprint1x1
	case model.SymbolResource:
		kind, fp = model.EntityResource, model.FootprintForResourceLevel(d.current.ResourceLevel)
	case model.SymbolBoss:
		d.log.Debug(d.ctx, "boss step reserved; nothing placed", logging.Int("wave", d.state.WaveNumber), logging.Int("index", index))
		emit(ev)
		return
	default:
		emit(ev)
		return
	}

	placement, entityID, err := d.placeLocked(kind, fp)
	if err != nil {
		if d.metrics != nil {
			d.metrics.PlacementFailed(kind)
		}
		if d.waveSpan != nil {
			d.waveSpan.AddEvent("placement_failed", trace.WithAttributes(
				attribute.String("kind", kind.String()),
				attribute.Int("index", index),
			))
		}
		d.log.Warn(d.ctx, "spawn skipped",
			logging.Int("wave", d.state.WaveNumber),
			logging.Int("index", index),
			logging.String("kind", kind.String()),
			logging.String("footprint", fp.String()),
			logging.Err(err),
		)
		emit(ev)
		return
	}

	if d.metrics != nil {
		d.metrics.PlacementSucceeded(kind, placement.Tier)
	}
	d.log.Debug(d.ctx, "spawned",
		logging.Int("wave", d.state.WaveNumber),
		logging.Int("index", index),
		logging.String("kind", kind.String()),
		logging.String("anchor", placement.Anchor.String()),
		logging.String("tier", placement.Tier.String()),
	)
	ev.Placement = &placement
	ev.EntityID = entityID
	emit(ev)
}

func (d *Director) placeLocked(kind model.EntityKind, fp model.Footprint) (core.Placement, string, error) {
	placement, err := d.board.FindPlacement(kind, fp)
	if err != nil {
		return core.Placement{}, "", err
	}
	var e kb.Entity
	switch kind {
	case model.EntityEnemy:
		e, err = d.spawner.SpawnEnemy(placement.Anchor, d.current.EnemyLevel)
	default:
		e, err = d.spawner.SpawnResource(placement.Anchor, d.current.ResourceLevel, fp)
	}
	if err != nil {
		return core.Placement{}, "", err
	}
	return placement, e.ID, nil
}

func (d *Director) completeLocked(emit func(Event)) (model.Size, bool) {
	number := d.state.WaveNumber
	d.state.Phase = model.PeacePeriod
	d.state.TicksSincePhaseEvent = 0
	d.state.CurrentWaveIndex++

	if d.waveSpan != nil {
		d.waveSpan.SetAttributes(attribute.Int("wave.steps", len(d.current.Program)))
		d.waveSpan.End()
		d.waveSpan = nil
	}
	if d.metrics != nil {
		d.metrics.WaveCompleted(number)
		d.metrics.SetPhase(model.PeacePeriod)
	}
	d.log.Info(d.ctx, "wave complete", logging.Int("wave", number))
	emit(Event{Type: EventWaveComplete, WaveNumber: number})

	return d.cfg.Milestones.Lookup(number)
}
