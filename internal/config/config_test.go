package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tesh144/RTChess-sub001/core"
	"github.com/tesh144/RTChess-sub001/internal/sim/wave"
	"github.com/tesh144/RTChess-sub001/model"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 250*time.Millisecond, cfg.Tick.Interval)
	assert.False(t, cfg.Tick.Accelerated)
	assert.Equal(t, uint64(0), cfg.Tick.MaxTicks)
	assert.Equal(t, 5, cfg.Director.PeacePeriodMultiplier)
	assert.Equal(t, wave.OverflowClamp, cfg.Overflow())
	assert.Equal(t, model.Square(4), cfg.GridSize())
	assert.Equal(t, 1, cfg.Grid.VisionRadius)
	assert.Equal(t, time.Second, cfg.Resize.Animation)
	assert.Equal(t, wave.DefaultMilestones(), cfg.MilestoneTable())
	assert.Len(t, cfg.WaveConfigs(), len(DefaultWaves))
	assert.Equal(t, "10101", cfg.WaveConfigs()[0].Program.String())
	assert.Equal(t, []PointConfig{{X: 1, Y: 1}}, cfg.Players)
	assert.Equal(t, "", cfg.Metrics.Addr)
	assert.False(t, cfg.Tracing.Enabled)
	assert.Equal(t, 1.0, cfg.Tracing.SampleRatio)
}

func TestLoad_WithYAMLFile(t *testing.T) {
	path := writeConfig(t, "sim.yaml", `
log:
  level: debug
tick:
  interval: 10ms
  accelerated: true
  maxTicks: 500
director:
  peacePeriodMultiplier: 2
  overflow: loop
grid:
  width: 5
  height: 5
milestones:
  - {wave: 1, size: 7}
waves:
  - {wave: 2, code: "2", enemyLevel: 1, resourceLevel: 3}
  - {wave: 1, code: "10102", enemyLevel: 2, resourceLevel: 1}
players:
  - {x: 0, y: 4}
resources:
  - {x: 3, y: 3, level: 2}
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 10*time.Millisecond, cfg.Tick.Interval)
	assert.True(t, cfg.Tick.Accelerated)
	assert.Equal(t, uint64(500), cfg.Tick.MaxTicks)
	assert.Equal(t, wave.OverflowLoop, cfg.Overflow())

	waves := cfg.WaveConfigs()
	require.Len(t, waves, 2)
	assert.Equal(t, 1, waves[0].WaveNumber)
	assert.Equal(t, "10102", waves[0].Program.String())
	assert.Equal(t, 2, waves[0].EnemyLevel)
	assert.Equal(t, 3, waves[1].ResourceLevel)

	size, ok := cfg.MilestoneTable().Lookup(1)
	require.True(t, ok)
	assert.Equal(t, model.Square(7), size)

	settings := cfg.DirectorSettings()
	assert.Equal(t, 2, settings.PeacePeriodMultiplier)
	assert.Equal(t, wave.OverflowLoop, settings.Overflow)
	assert.Equal(t, []ResourceConfig{{X: 3, Y: 3, Level: 2}}, cfg.Resources)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("RTCHESS_TICK_INTERVAL", "50ms")
	t.Setenv("RTCHESS_DIRECTOR_OVERFLOW", "stop")
	t.Setenv("RTCHESS_METRICS_ADDR", ":9100")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 50*time.Millisecond, cfg.Tick.Interval)
	assert.Equal(t, wave.OverflowStop, cfg.Overflow())
	assert.Equal(t, ":9100", cfg.Metrics.Addr)
}

func TestLoad_RejectsInvalidSpawnCode(t *testing.T) {
	path := writeConfig(t, "bad.json", `{"waves": [{"wave": 1, "code": "10x2", "enemyLevel": 1, "resourceLevel": 1}]}`)

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	assert.True(t, errors.Is(err, core.ErrInvalidSymbol))

	var symErr *core.InvalidSymbolError
	require.True(t, errors.As(err, &symErr))
	assert.Equal(t, 2, symErr.Position)
	assert.Equal(t, 'x', symErr.Char)
}

func TestLoad_ValidationFailures(t *testing.T) {
	tests := map[string]string{
		"wave gap":           `{"waves": [{"wave": 1, "code": "1", "enemyLevel": 1, "resourceLevel": 1}, {"wave": 3, "code": "1", "enemyLevel": 1, "resourceLevel": 1}]}`,
		"zero level":         `{"waves": [{"wave": 1, "code": "1", "enemyLevel": 0, "resourceLevel": 1}]}`,
		"no waves":           `{"waves": []}`,
		"multiplier":         `{"director": {"peacePeriodMultiplier": 0}}`,
		"overflow":           `{"director": {"overflow": "repeat"}}`,
		"grid":               `{"grid": {"width": 0}}`,
		"milestone shrink":   `{"milestones": [{"wave": 1, "size": 8}, {"wave": 2, "size": 6}]}`,
		"player off board":   `{"players": [{"x": 9, "y": 0}]}`,
		"resource level":     `{"resources": [{"x": 0, "y": 0, "level": 0}]}`,
		"log level":          `{"log": {"level": "loud"}}`,
		"sample ratio":       `{"tracing": {"sampleRatio": 2}}`,
		"tracing exporter":   `{"tracing": {"exporter": "zipkin"}}`,
		"non-positive ticks": `{"tick": {"interval": "0s"}}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, "cfg.json", body))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/sim.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}
