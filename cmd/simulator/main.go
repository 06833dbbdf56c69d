package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"github.com/tesh144/RTChess-sub001/core"
	"github.com/tesh144/RTChess-sub001/internal/config"
	"github.com/tesh144/RTChess-sub001/internal/logging"
	"github.com/tesh144/RTChess-sub001/internal/observability"
	"github.com/tesh144/RTChess-sub001/internal/schedule"
	"github.com/tesh144/RTChess-sub001/internal/sim/state"
	"github.com/tesh144/RTChess-sub001/internal/sim/wave"
	"github.com/tesh144/RTChess-sub001/model"
	"github.com/tesh144/RTChess-sub001/timectrl"
)

const tracerName = "github.com/tesh144/RTChess-sub001/cmd/simulator"

// options are the command-line overrides applied on top of the loaded config.
type options struct {
	configPath  string
	maxTicks    uint64
	metricsAddr string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Path to a simulator config file (yaml, json or toml)")
	flag.Uint64Var(&opts.maxTicks, "ticks", 0, "Stop after this many ticks (0 keeps tick.maxTicks from config)")
	flag.StringVar(&opts.metricsAddr, "metrics-addr", "", "HTTP address for Prometheus /metrics (overrides metrics.addr)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := run(ctx, opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "simulator: %v\n", err)
		os.Exit(1)
	}
}

// run executes one simulation and returns the director state after the last
// tick.
func run(ctx context.Context, opts options, out io.Writer) (model.DirectorState, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return model.DirectorState{}, err
	}
	if opts.maxTicks > 0 {
		cfg.Tick.MaxTicks = opts.maxTicks
	}
	if opts.metricsAddr != "" {
		cfg.Metrics.Addr = opts.metricsAddr
	}

	logCfg := cfg.LoggingConfig()
	logCfg.Output = os.Stderr
	ctx, log := logging.WithSessionLogger(ctx, logging.New(logCfg))

	shutdownTracing, err := observability.InitTracing(ctx, cfg.TracingSettings(), log)
	if err != nil {
		return model.DirectorState{}, fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)
	tracer := otel.Tracer(tracerName)

	registry := prometheus.NewRegistry()
	collector, err := observability.NewSimCollector(registry)
	if err != nil {
		return model.DirectorState{}, fmt.Errorf("init metrics: %w", err)
	}

	session, err := state.NewSession(cfg.GridSize(), log,
		state.WithVisionRadius(cfg.Grid.VisionRadius),
		state.WithMetricsRecorder(collector),
	)
	if err != nil {
		return model.DirectorState{}, err
	}
	defer session.SubscribeReveals(func(ev core.RevealEvent) {
		log.Debug(ctx, "cell revealed", logging.Int("x", ev.X), logging.Int("y", ev.Y))
	})()
	if err := seedBoard(ctx, session, cfg, log); err != nil {
		return model.DirectorState{}, err
	}

	mode := timectrl.RealTime
	if cfg.Tick.Accelerated {
		mode = timectrl.Accelerated
	}
	tc := timectrl.NewTimeController(time.Now().UTC(), cfg.Tick.Interval, mode)

	// Resize animations are timed on the wall clock so they complete while
	// ticks are paused.
	sched := schedule.New(timectrl.WallClock{})
	tc.AddFrameHook(func(time.Time) { sched.RunDue() })

	resizer := wave.NewResizeCoordinator(session, tc, sched, cfg.Resize.Animation, log,
		wave.WithResizeMetrics(collector),
		wave.WithResizeTracer(tracer),
	)
	defer resizer.Subscribe(func(ev wave.ResizeEvent) {
		log.Info(ctx, "board resize",
			logging.String("event", ev.Type.String()),
			logging.Any("from", ev.Task.From),
			logging.Any("to", ev.Task.To),
			logging.Any("offset", ev.Task.Offset),
		)
	})()

	director, err := wave.NewDirector(cfg.WaveConfigs(), cfg.DirectorSettings(), session, session, tc, log,
		wave.WithResizer(resizer),
		wave.WithMetrics(collector),
		wave.WithTracer(tracer),
		wave.WithContext(ctx),
	)
	if err != nil {
		return model.DirectorState{}, err
	}
	defer director.Close()
	defer director.Subscribe(func(ev wave.Event) { logEvent(ctx, log, ev) })()

	log.Info(ctx, "starting wave simulation",
		logging.Any("grid", cfg.GridSize()),
		logging.Int("waves", len(cfg.WaveConfigs())),
		logging.Int("peace_ticks", director.PeaceDuration()),
		logging.Duration("tick", cfg.Tick.Interval),
		logging.String("mode", mode.String()),
		logging.String("overflow", cfg.Overflow().String()),
	)

	g, gctx := errgroup.WithContext(ctx)
	runCtx, cancel := context.WithCancel(gctx)
	defer cancel()

	g.Go(func() error {
		defer cancel()
		<-tc.Start(runCtx, cfg.Tick.MaxTicks)
		return nil
	})

	if cfg.Metrics.Addr != "" {
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: metricsMux(collector)}
		g.Go(func() error {
			log.Info(ctx, "serving Prometheus metrics", logging.String("addr", cfg.Metrics.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-runCtx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil {
		return model.DirectorState{}, err
	}

	st := director.State()
	log.Info(ctx, "simulation finished",
		logging.Int("ticks", int(tc.Ticks())),
		logging.Int("wave", st.WaveNumber),
		logging.String("phase", st.Phase.String()),
		logging.Int("entities", session.Entities().Count(model.EntityNone)),
	)
	_, err = fmt.Fprint(out, session.Snapshot().String())
	return st, err
}

func seedBoard(ctx context.Context, session *state.Session, cfg *config.Config, log logging.Logger) error {
	for _, p := range cfg.Players {
		e, err := session.PlacePlayer(model.Coord{X: p.X, Y: p.Y})
		if err != nil {
			return fmt.Errorf("place player at (%d,%d): %w", p.X, p.Y, err)
		}
		log.Debug(ctx, "placed player", logging.String("id", e.ID), logging.Any("anchor", e.Anchor))
	}
	for _, r := range cfg.Resources {
		if _, err := session.PlaceResource(model.Coord{X: r.X, Y: r.Y}, r.Level); err != nil {
			log.Warn(ctx, "skipping initial resource",
				logging.Int("x", r.X),
				logging.Int("y", r.Y),
				logging.Err(err),
			)
		}
	}
	return nil
}

func metricsMux(collector *observability.SimCollector) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	return mux
}

func logEvent(ctx context.Context, log logging.Logger, ev wave.Event) {
	fields := []logging.Field{
		logging.String("event", ev.Type.String()),
		logging.Int("tick", int(ev.Tick)),
		logging.Int("wave", ev.WaveNumber),
	}
	if ev.Type != wave.EventSpawn {
		log.Info(ctx, "wave event", fields...)
		return
	}
	fields = append(fields,
		logging.String("symbol", ev.Symbol.String()),
		logging.Int("index", ev.Index),
	)
	if ev.Placement != nil {
		fields = append(fields,
			logging.Any("anchor", ev.Placement.Anchor),
			logging.String("tier", ev.Placement.Tier.String()),
			logging.String("entity_id", ev.EntityID),
		)
	}
	log.Debug(ctx, "spawn", fields...)
}
