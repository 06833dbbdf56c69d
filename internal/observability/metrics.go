package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tesh144/RTChess-sub001/core"
	"github.com/tesh144/RTChess-sub001/model"
)

// SimCollector bundles Prometheus metrics for the wave engine. It satisfies
// the director, resize and board recorder interfaces so each component can
// drive its own series. All methods are nil-safe.
type SimCollector struct {
	gatherer prometheus.Gatherer

	WavesStarted      prometheus.Counter
	WavesCompleted    prometheus.Counter
	WaveNumber        prometheus.Gauge
	Phase             prometheus.Gauge
	SpawnEvents       *prometheus.CounterVec
	Placements        *prometheus.CounterVec
	PlacementFailures *prometheus.CounterVec
	TickDuration      prometheus.Histogram

	GridWidth     prometheus.Gauge
	GridHeight    prometheus.Gauge
	FogRevealed   prometheus.Gauge
	BoardEntities prometheus.Gauge

	Resizes          prometheus.Counter
	ResizeRejections prometheus.Counter
}

// NewSimCollector registers engine metrics against the provided registerer,
// defaulting to the global Prometheus registry when nil.
func NewSimCollector(reg prometheus.Registerer) (*SimCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &SimCollector{gatherer: gatherer}
	var err error

	counters := []struct {
		dst  *prometheus.Counter
		name string
		help string
	}{
		{&c.WavesStarted, "waves_started_total", "Number of waves that entered the active phase."},
		{&c.WavesCompleted, "waves_completed_total", "Number of waves that ran their whole spawn program."},
		{&c.Resizes, "grid_resizes_total", "Number of milestone grid resizes applied."},
		{&c.ResizeRejections, "grid_resize_rejections_total", "Number of resize requests ignored because a resize was running or the board would not grow."},
	}
	for _, spec := range counters {
		*spec.dst, err = registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Name: spec.name,
			Help: spec.help,
		}), spec.name)
		if err != nil {
			return nil, err
		}
	}

	gauges := []struct {
		dst  *prometheus.Gauge
		name string
		help string
	}{
		{&c.WaveNumber, "director_wave_number", "Number of the current or most recently completed wave."},
		{&c.Phase, "director_phase", "Current director phase: 0 peace, 1 active."},
		{&c.GridWidth, "grid_width", "Current board width in cells."},
		{&c.GridHeight, "grid_height", "Current board height in cells."},
		{&c.FogRevealed, "fog_revealed_cells", "Number of revealed cells."},
		{&c.BoardEntities, "board_entities", "Number of entities on the board."},
	}
	for _, spec := range gauges {
		*spec.dst, err = registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Name: spec.name,
			Help: spec.help,
		}), spec.name)
		if err != nil {
			return nil, err
		}
	}

	c.SpawnEvents, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "spawn_events_total",
		Help: "Spawn program steps executed, labeled by symbol.",
	}, []string{"symbol"}), "spawn_events_total")
	if err != nil {
		return nil, err
	}
	c.Placements, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "placements_total",
		Help: "Successful placements, labeled by entity kind and winning tier.",
	}, []string{"kind", "tier"}), "placements_total")
	if err != nil {
		return nil, err
	}
	c.PlacementFailures, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "placement_failures_total",
		Help: "Spawns skipped because no tier produced a candidate.",
	}, []string{"kind"}), "placement_failures_total")
	if err != nil {
		return nil, err
	}

	c.TickDuration, err = registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "tick_duration_seconds",
		Help:    "Time the director spent processing one tick.",
		Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
	}), "tick_duration_seconds")
	if err != nil {
		return nil, err
	}

	return c, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *SimCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// Handler exposes a ready-to-use /metrics handler.
func (c *SimCollector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// WaveStarted records a wave entering the active phase.
func (c *SimCollector) WaveStarted(wave int) {
	if c == nil {
		return
	}
	c.WavesStarted.Inc()
	c.WaveNumber.Set(float64(wave))
}

// WaveCompleted records a wave finishing its program.
func (c *SimCollector) WaveCompleted(int) {
	if c == nil {
		return
	}
	c.WavesCompleted.Inc()
}

// SpawnEvent counts one executed program step.
func (c *SimCollector) SpawnEvent(symbol model.SpawnSymbol) {
	if c == nil {
		return
	}
	c.SpawnEvents.WithLabelValues(symbol.String()).Inc()
}

// PlacementSucceeded counts a committed spawn by the tier that placed it.
func (c *SimCollector) PlacementSucceeded(kind model.EntityKind, tier core.Tier) {
	if c == nil {
		return
	}
	c.Placements.WithLabelValues(kind.String(), tier.String()).Inc()
}

// PlacementFailed counts a skipped spawn.
func (c *SimCollector) PlacementFailed(kind model.EntityKind) {
	if c == nil {
		return
	}
	c.PlacementFailures.WithLabelValues(kind.String()).Inc()
}

// SetPhase publishes the director phase.
func (c *SimCollector) SetPhase(phase model.WavePhase) {
	if c == nil {
		return
	}
	c.Phase.Set(float64(phase))
}

// ObserveTick records how long one tick took.
func (c *SimCollector) ObserveTick(d time.Duration) {
	if c == nil {
		return
	}
	c.TickDuration.Observe(d.Seconds())
}

// ResizeApplied counts a resize and publishes the new size.
func (c *SimCollector) ResizeApplied(size model.Size) {
	if c == nil {
		return
	}
	c.Resizes.Inc()
	c.GridWidth.Set(float64(size.W))
	c.GridHeight.Set(float64(size.H))
}

// ResizeRejected counts an ignored resize request.
func (c *SimCollector) ResizeRejected() {
	if c == nil {
		return
	}
	c.ResizeRejections.Inc()
}

// SetBoardStats satisfies the board recorder interface so the Session can
// drive gauge values directly from its mutators.
func (c *SimCollector) SetBoardStats(size model.Size, revealed, entities int) {
	if c == nil {
		return
	}
	c.GridWidth.Set(float64(size.W))
	c.GridHeight.Set(float64(size.H))
	c.FogRevealed.Set(float64(revealed))
	c.BoardEntities.Set(float64(entities))
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
