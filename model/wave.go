package model

const (
	// GridSides scales the peace period multiplier into ticks.
	GridSides = 4
	// SpawnIntervalTicks is the number of ticks between two program steps.
	SpawnIntervalTicks = 4
	// DefaultPeacePeriodMultiplier yields a 20-tick peace period.
	DefaultPeacePeriodMultiplier = 5
)

// WaveConfig is one immutable entry of the wave table.
type WaveConfig struct {
	WaveNumber    int
	Program       SpawnProgram
	EnemyLevel    int
	ResourceLevel int
}

// ActiveTicks is the number of ticks the wave spends in the active phase,
// counting both the tick it starts on and the tick it completes on.
func (w WaveConfig) ActiveTicks() int {
	if len(w.Program) == 0 {
		return 1
	}
	return (len(w.Program)-1)*SpawnIntervalTicks + 1
}

// WavePhase is the director's top-level state.
type WavePhase int

const (
	PeacePeriod WavePhase = iota
	ActiveWave
)

func (p WavePhase) String() string {
	switch p {
	case PeacePeriod:
		return "peace"
	case ActiveWave:
		return "active"
	default:
		return "unknown"
	}
}

// DirectorState is the mutable state of the wave director. WaveNumber is the
// number of the wave currently running, or of the last completed wave while
// in PeacePeriod (0 before the first wave).
type DirectorState struct {
	Phase                WavePhase
	CurrentWaveIndex     int
	SpawnIndex           int
	TicksSincePhaseEvent int
	WaveNumber           int
}
