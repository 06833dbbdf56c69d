// Package config loads simulator settings from defaults, an optional config
// file and RTCHESS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tesh144/RTChess-sub001/core"
	"github.com/tesh144/RTChess-sub001/internal/logging"
	"github.com/tesh144/RTChess-sub001/internal/observability"
	"github.com/tesh144/RTChess-sub001/internal/sim/wave"
	"github.com/tesh144/RTChess-sub001/model"
)

// EnvPrefix prefixes every environment override, e.g. RTCHESS_TICK_INTERVAL.
const EnvPrefix = "RTCHESS"

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TickConfig holds tick source settings.
type TickConfig struct {
	Interval    time.Duration `mapstructure:"interval"`
	Accelerated bool          `mapstructure:"accelerated"`
	MaxTicks    uint64        `mapstructure:"maxTicks"`
}

// DirectorConfig holds wave director settings.
type DirectorConfig struct {
	PeacePeriodMultiplier int    `mapstructure:"peacePeriodMultiplier"`
	Overflow              string `mapstructure:"overflow"`
}

// GridConfig holds the initial board settings.
type GridConfig struct {
	Width        int `mapstructure:"width"`
	Height       int `mapstructure:"height"`
	VisionRadius int `mapstructure:"visionRadius"`
}

// ResizeConfig holds resize animation settings.
type ResizeConfig struct {
	Animation time.Duration `mapstructure:"animation"`
}

// MilestoneConfig grows the board to a Size×Size square after Wave.
type MilestoneConfig struct {
	Wave int `mapstructure:"wave"`
	Size int `mapstructure:"size"`
}

// WaveEntry is one row of the wave table.
type WaveEntry struct {
	Wave          int    `mapstructure:"wave"`
	Code          string `mapstructure:"code"`
	EnemyLevel    int    `mapstructure:"enemyLevel"`
	ResourceLevel int    `mapstructure:"resourceLevel"`
}

// PointConfig is a board coordinate.
type PointConfig struct {
	X int `mapstructure:"x"`
	Y int `mapstructure:"y"`
}

// ResourceConfig is an initial resource node.
type ResourceConfig struct {
	X     int `mapstructure:"x"`
	Y     int `mapstructure:"y"`
	Level int `mapstructure:"level"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// TracingConfig mirrors observability.TracingConfig.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"serviceName"`
	Exporter    string  `mapstructure:"exporter"`
	Endpoint    string  `mapstructure:"endpoint"`
	SampleRatio float64 `mapstructure:"sampleRatio"`
}

// Config is the full simulator configuration.
type Config struct {
	Log        LogConfig         `mapstructure:"log"`
	Tick       TickConfig        `mapstructure:"tick"`
	Director   DirectorConfig    `mapstructure:"director"`
	Grid       GridConfig        `mapstructure:"grid"`
	Resize     ResizeConfig      `mapstructure:"resize"`
	Milestones []MilestoneConfig `mapstructure:"milestones"`
	Waves      []WaveEntry       `mapstructure:"waves"`
	Players    []PointConfig     `mapstructure:"players"`
	Resources  []ResourceConfig  `mapstructure:"resources"`
	Metrics    MetricsConfig     `mapstructure:"metrics"`
	Tracing    TracingConfig     `mapstructure:"tracing"`

	waves      []model.WaveConfig
	milestones wave.Milestones
	overflow   wave.OverflowPolicy
}

// DefaultWaves is the built-in wave table used when no waves are configured.
var DefaultWaves = []WaveEntry{
	{Wave: 1, Code: "10101", EnemyLevel: 1, ResourceLevel: 1},
	{Wave: 2, Code: "1021", EnemyLevel: 1, ResourceLevel: 1},
	{Wave: 3, Code: "110201", EnemyLevel: 1, ResourceLevel: 2},
	{Wave: 4, Code: "1101021", EnemyLevel: 2, ResourceLevel: 2},
	{Wave: 5, Code: "11021101", EnemyLevel: 2, ResourceLevel: 2},
	{Wave: 6, Code: "111021", EnemyLevel: 2, ResourceLevel: 3},
	{Wave: 7, Code: "1110211", EnemyLevel: 3, ResourceLevel: 3},
	{Wave: 8, Code: "11102111", EnemyLevel: 3, ResourceLevel: 3},
	{Wave: 9, Code: "111120111", EnemyLevel: 3, ResourceLevel: 3},
	{Wave: 10, Code: "1111211113", EnemyLevel: 4, ResourceLevel: 3},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("tick.interval", "250ms")
	v.SetDefault("tick.accelerated", false)
	v.SetDefault("tick.maxTicks", 0)

	v.SetDefault("director.peacePeriodMultiplier", model.DefaultPeacePeriodMultiplier)
	v.SetDefault("director.overflow", "clamp")

	v.SetDefault("grid.width", 4)
	v.SetDefault("grid.height", 4)
	v.SetDefault("grid.visionRadius", 1)

	v.SetDefault("resize.animation", "1s")

	milestones := make([]map[string]any, 0, 4)
	for _, m := range wave.DefaultMilestones() {
		milestones = append(milestones, map[string]any{"wave": m.Wave, "size": m.Size.W})
	}
	v.SetDefault("milestones", milestones)

	waves := make([]map[string]any, 0, len(DefaultWaves))
	for _, w := range DefaultWaves {
		waves = append(waves, map[string]any{
			"wave":          w.Wave,
			"code":          w.Code,
			"enemyLevel":    w.EnemyLevel,
			"resourceLevel": w.ResourceLevel,
		})
	}
	v.SetDefault("waves", waves)
	v.SetDefault("players", []map[string]any{{"x": 1, "y": 1}})
	v.SetDefault("resources", []map[string]any{})

	v.SetDefault("metrics.addr", "")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.serviceName", "wave-simulator")
	v.SetDefault("tracing.exporter", "stdout")
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.sampleRatio", 1.0)
}

// Load reads configuration from path (any format viper understands; empty
// means defaults only), applies RTCHESS_* environment overrides and
// validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every field and resolves the wave table, milestones and
// overflow policy. Spawn codes are parsed here so a malformed code never
// reaches tick time.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	if !logging.ValidLevel(c.Log.Level) {
		return invalid("log.level %q", c.Log.Level)
	}
	if c.Tick.Interval <= 0 {
		return invalid("tick.interval must be positive, got %v", c.Tick.Interval)
	}
	if c.Director.PeacePeriodMultiplier < 1 {
		return invalid("director.peacePeriodMultiplier must be >= 1, got %d", c.Director.PeacePeriodMultiplier)
	}
	overflow, err := wave.ParseOverflowPolicy(c.Director.Overflow)
	if err != nil {
		return fmt.Errorf("%w: director.overflow: %w", ErrInvalidConfig, err)
	}
	if c.Grid.Width < 1 || c.Grid.Height < 1 {
		return invalid("grid must be at least 1x1, got %dx%d", c.Grid.Width, c.Grid.Height)
	}
	if c.Grid.VisionRadius < 0 {
		return invalid("grid.visionRadius must not be negative")
	}
	if c.Resize.Animation < 0 {
		return invalid("resize.animation must not be negative")
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return invalid("tracing.sampleRatio %v outside [0,1]", c.Tracing.SampleRatio)
	}
	if !observability.ValidExporter(c.Tracing.Exporter) {
		return invalid("tracing.exporter %q", c.Tracing.Exporter)
	}

	waves, err := c.resolveWaves()
	if err != nil {
		return err
	}

	ms := make([]wave.Milestone, 0, len(c.Milestones))
	for _, m := range c.Milestones {
		ms = append(ms, wave.Milestone{Wave: m.Wave, Size: model.Square(m.Size)})
	}
	milestones, err := wave.NewMilestones(ms...)
	if err != nil {
		return fmt.Errorf("%w: milestones: %w", ErrInvalidConfig, err)
	}

	size := model.Size{W: c.Grid.Width, H: c.Grid.Height}
	for _, p := range c.Players {
		if !size.Contains(model.Coord{X: p.X, Y: p.Y}) {
			return invalid("player at (%d,%d) is outside the %v grid", p.X, p.Y, size)
		}
	}
	for _, r := range c.Resources {
		if r.Level < 1 {
			return invalid("resource at (%d,%d): level must be >= 1", r.X, r.Y)
		}
	}

	c.waves = waves
	c.milestones = milestones
	c.overflow = overflow
	return nil
}

func (c *Config) resolveWaves() ([]model.WaveConfig, error) {
	if len(c.Waves) == 0 {
		return nil, fmt.Errorf("%w: at least one wave is required", ErrInvalidConfig)
	}
	entries := append([]WaveEntry(nil), c.Waves...)
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Wave < entries[j].Wave })

	out := make([]model.WaveConfig, 0, len(entries))
	for i, e := range entries {
		if e.Wave != i+1 {
			return nil, fmt.Errorf("%w: wave numbers must run 1..%d without gaps, found %d at position %d",
				ErrInvalidConfig, len(entries), e.Wave, i+1)
		}
		program, err := core.ParseSpawnCode(e.Code)
		if err != nil {
			return nil, fmt.Errorf("%w: wave %d: %w", ErrInvalidConfig, e.Wave, err)
		}
		if e.EnemyLevel < 1 || e.ResourceLevel < 1 {
			return nil, fmt.Errorf("%w: wave %d: levels must be >= 1", ErrInvalidConfig, e.Wave)
		}
		out = append(out, model.WaveConfig{
			WaveNumber:    e.Wave,
			Program:       program,
			EnemyLevel:    e.EnemyLevel,
			ResourceLevel: e.ResourceLevel,
		})
	}
	return out, nil
}

// WaveConfigs returns the parsed wave table. Only valid after Validate.
func (c *Config) WaveConfigs() []model.WaveConfig {
	return append([]model.WaveConfig(nil), c.waves...)
}

// MilestoneTable returns the validated milestone table.
func (c *Config) MilestoneTable() wave.Milestones {
	return c.milestones
}

// Overflow returns the parsed overflow policy.
func (c *Config) Overflow() wave.OverflowPolicy {
	return c.overflow
}

// GridSize returns the initial board size.
func (c *Config) GridSize() model.Size {
	return model.Size{W: c.Grid.Width, H: c.Grid.Height}
}

// DirectorSettings returns the director settings in the form wave.NewDirector
// expects.
func (c *Config) DirectorSettings() wave.Config {
	return wave.Config{
		PeacePeriodMultiplier: c.Director.PeacePeriodMultiplier,
		Overflow:              c.overflow,
		Milestones:            c.milestones,
	}
}

// LoggingConfig returns logger settings.
func (c *Config) LoggingConfig() logging.Config {
	return logging.Config{Level: c.Log.Level, Format: c.Log.Format}
}

// TracingSettings returns tracing settings.
func (c *Config) TracingSettings() observability.TracingConfig {
	return observability.TracingConfig{
		Enabled:     c.Tracing.Enabled,
		ServiceName: c.Tracing.ServiceName,
		Exporter:    c.Tracing.Exporter,
		Endpoint:    c.Tracing.Endpoint,
		SampleRatio: c.Tracing.SampleRatio,
	}
}
