package wave

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tesh144/RTChess-sub001/model"
)

// Milestone grows the board to Size once wave Wave has completed.
type Milestone struct {
	Wave int
	Size model.Size
}

// Milestones is a milestone table ordered by wave number.
type Milestones []Milestone

// DefaultMilestones is the stock growth schedule: 6×6 after wave 3, 8×8
// after wave 6, 10×10 after wave 10 and 11×11 after wave 15.
func DefaultMilestones() Milestones {
	return Milestones{
		{Wave: 3, Size: model.Square(6)},
		{Wave: 6, Size: model.Square(8)},
		{Wave: 10, Size: model.Square(10)},
		{Wave: 15, Size: model.Square(11)},
	}
}

// NewMilestones sorts ms by wave and checks that wave numbers are unique and
// positive and that each step grows the board in both dimensions.
func NewMilestones(ms ...Milestone) (Milestones, error) {
	out := append(Milestones(nil), ms...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Wave < out[j].Wave })
	for i, m := range out {
		if m.Wave < 1 {
			return nil, fmt.Errorf("milestone wave %d: must be >= 1", m.Wave)
		}
		if !m.Size.Valid() {
			return nil, fmt.Errorf("milestone wave %d: invalid size %v", m.Wave, m.Size)
		}
		if i == 0 {
			continue
		}
		prev := out[i-1]
		if prev.Wave == m.Wave {
			return nil, fmt.Errorf("milestone wave %d listed twice", m.Wave)
		}
		if !m.Size.Larger(prev.Size) {
			return nil, fmt.Errorf("milestone wave %d: size %v does not grow past %v", m.Wave, m.Size, prev.Size)
		}
	}
	return out, nil
}

// Lookup returns the target size for a completed wave number.
func (ms Milestones) Lookup(wave int) (model.Size, bool) {
	i := sort.Search(len(ms), func(i int) bool { return ms[i].Wave >= wave })
	if i < len(ms) && ms[i].Wave == wave {
		return ms[i].Size, true
	}
	return model.Size{}, false
}

func (ms Milestones) String() string {
	parts := make([]string, len(ms))
	for i, m := range ms {
		parts[i] = fmt.Sprintf("%d→%v", m.Wave, m.Size)
	}
	return strings.Join(parts, ", ")
}

// OverflowPolicy decides which wave runs once every configured wave has
// been played.
type OverflowPolicy int

const (
	// OverflowClamp replays the last configured wave with increasing wave
	// numbers.
	OverflowClamp OverflowPolicy = iota
	// OverflowLoop restarts from the first configured wave.
	OverflowLoop
	// OverflowStop leaves the director in the peace period for good.
	OverflowStop
)

func (p OverflowPolicy) String() string {
	switch p {
	case OverflowClamp:
		return "clamp"
	case OverflowLoop:
		return "loop"
	case OverflowStop:
		return "stop"
	default:
		return "unknown"
	}
}

// ParseOverflowPolicy maps a config string to a policy. The empty string
// selects OverflowClamp.
func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "clamp":
		return OverflowClamp, nil
	case "loop":
		return OverflowLoop, nil
	case "stop":
		return OverflowStop, nil
	default:
		return 0, fmt.Errorf("unknown overflow policy %q", s)
	}
}

// waveAt resolves the config for zero-based wave index idx under policy p.
func (p OverflowPolicy) waveAt(waves []model.WaveConfig, idx int) (model.WaveConfig, bool) {
	n := len(waves)
	if n == 0 || idx < 0 {
		return model.WaveConfig{}, false
	}
	if idx < n {
		return waves[idx], true
	}
	switch p {
	case OverflowClamp:
		return waves[n-1], true
	case OverflowLoop:
		return waves[idx%n], true
	default:
		return model.WaveConfig{}, false
	}
}
