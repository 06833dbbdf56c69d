package core

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/tesh144/RTChess-sub001/model"
)

// ErrPlacementFailed is returned when no tier yields a candidate.
var ErrPlacementFailed = errors.New("placement failed")

// Tier is one rule of the placement priority order. Lower tiers win.
type Tier int

const (
	TierPlayerAdjacent Tier = iota + 1
	TierFogged
	TierFarFromPlayers
	TierOuterRing
	TierResourceAdjacent
	TierAnyEmpty
)

// Tiers lists every tier in evaluation order.
var Tiers = []Tier{
	TierPlayerAdjacent,
	TierFogged,
	TierFarFromPlayers,
	TierOuterRing,
	TierResourceAdjacent,
	TierAnyEmpty,
}

func (t Tier) String() string {
	switch t {
	case TierPlayerAdjacent:
		return "player_adjacent"
	case TierFogged:
		return "fogged"
	case TierFarFromPlayers:
		return "far_from_players"
	case TierOuterRing:
		return "outer_ring"
	case TierResourceAdjacent:
		return "resource_adjacent"
	case TierAnyEmpty:
		return "any_empty"
	default:
		return "none"
	}
}

// Placement is a resolved anchor together with the tier that produced it.
type Placement struct {
	Anchor model.Coord
	Tier   Tier
}

// OccupancyView is the read-only slice of Grid the resolver needs.
type OccupancyView interface {
	Size() model.Size
	Cell(x, y int) (model.Cell, bool)
	FootprintFits(anchor model.Coord, fp model.Footprint) bool
}

// VisibilityView is the read-only slice of FogField the resolver needs.
type VisibilityView interface {
	IsRevealed(x, y int) bool
}

// PlacementResolver chooses where a spawned entity appears. It only reads
// the grid and fog it was built over.
type PlacementResolver struct {
	grid OccupancyView
	fog  VisibilityView
	intn func(n int) int
}

// ResolverOption customises PlacementResolver construction.
type ResolverOption func(*PlacementResolver)

// WithRand draws tie-breaks from r instead of the global source.
func WithRand(r *rand.Rand) ResolverOption {
	return func(p *PlacementResolver) {
		if r != nil {
			p.intn = r.IntN
		}
	}
}

// NewPlacementResolver builds a resolver over grid and fog.
func NewPlacementResolver(grid OccupancyView, fog VisibilityView, opts ...ResolverOption) *PlacementResolver {
	p := &PlacementResolver{
		grid: grid,
		fog:  fog,
		intn: rand.IntN,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// FindPlacement walks the tiers in order and returns a uniformly random
// anchor from the first tier with any candidate. An anchor is a candidate
// only when the whole footprint is on the board and empty.
func (p *PlacementResolver) FindPlacement(kind model.EntityKind, fp model.Footprint) (Placement, error) {
	scan := p.scan()
	for _, tier := range Tiers {
		candidates := p.candidates(scan, tier, fp)
		if len(candidates) == 0 {
			continue
		}
		return Placement{
			Anchor: candidates[p.intn(len(candidates))],
			Tier:   tier,
		}, nil
	}
	return Placement{}, fmt.Errorf("%w: %s %v on %v board", ErrPlacementFailed, kind, fp, p.grid.Size())
}

// Candidates returns the full candidate set of a single tier.
func (p *PlacementResolver) Candidates(tier Tier, fp model.Footprint) []model.Coord {
	return p.candidates(p.scan(), tier, fp)
}

type boardScan struct {
	size       model.Size
	players    []model.Coord
	playerAt   map[model.Coord]bool
	resourceAt map[model.Coord]bool
}

func (p *PlacementResolver) scan() boardScan {
	size := p.grid.Size()
	s := boardScan{
		size:       size,
		playerAt:   make(map[model.Coord]bool),
		resourceAt: make(map[model.Coord]bool),
	}
	for y := 0; y < size.H; y++ {
		for x := 0; x < size.W; x++ {
			cell, _ := p.grid.Cell(x, y)
			c := model.Coord{X: x, Y: y}
			switch cell.Kind {
			case model.EntityPlayer:
				s.players = append(s.players, c)
				s.playerAt[c] = true
			case model.EntityResource:
				s.resourceAt[c] = true
			}
		}
	}
	return s
}

func (p *PlacementResolver) candidates(s boardScan, tier Tier, fp model.Footprint) []model.Coord {
	var out []model.Coord
	for y := 0; y < s.size.H; y++ {
		for x := 0; x < s.size.W; x++ {
			anchor := model.Coord{X: x, Y: y}
			if !p.inTier(s, tier, anchor) {
				continue
			}
			if !p.grid.FootprintFits(anchor, fp) {
				continue
			}
			out = append(out, anchor)
		}
	}
	return out
}

func (p *PlacementResolver) inTier(s boardScan, tier Tier, c model.Coord) bool {
	switch tier {
	case TierPlayerAdjacent:
		return adjacentTo(c, s.playerAt)
	case TierFogged:
		return !p.fog.IsRevealed(c.X, c.Y)
	case TierFarFromPlayers:
		return p.fog.IsRevealed(c.X, c.Y) && nearestDistance(c, s.players) > SafeDistance
	case TierOuterRing:
		return OnOuterRing(c, s.size)
	case TierResourceAdjacent:
		return adjacentTo(c, s.resourceAt)
	case TierAnyEmpty:
		return true
	default:
		return false
	}
}

func adjacentTo(c model.Coord, set map[model.Coord]bool) bool {
	if len(set) == 0 {
		return false
	}
	for _, n := range OrthogonalNeighbours(c) {
		if set[n] {
			return true
		}
	}
	return false
}

// nearestDistance is the AxisDistance to the closest point; with no points
// every cell is infinitely far.
func nearestDistance(c model.Coord, points []model.Coord) int {
	if len(points) == 0 {
		return int(^uint(0) >> 1)
	}
	best := AxisDistance(c, points[0])
	for _, pt := range points[1:] {
		if d := AxisDistance(c, pt); d < best {
			best = d
		}
	}
	return best
}
