package state

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/tesh144/RTChess-sub001/core"
	"github.com/tesh144/RTChess-sub001/internal/logging"
	"github.com/tesh144/RTChess-sub001/kb"
	"github.com/tesh144/RTChess-sub001/model"
)

// Re-export sentinel errors so callers can depend on state.* instead of
// reaching into core and kb directly.
var (
	// ErrOutOfBounds indicates a footprint cell outside the board.
	ErrOutOfBounds = core.ErrOutOfBounds
	// ErrCellOccupied indicates a footprint cell that is already taken.
	ErrCellOccupied = core.ErrCellOccupied
	// ErrPlacementFailed indicates no tier produced a candidate.
	ErrPlacementFailed = core.ErrPlacementFailed
	// ErrEntityNotFound indicates a requested entity was not found.
	ErrEntityNotFound = kb.ErrEntityNotFound
)

// DefaultVisionRadius is how far a newly placed player reveals the fog.
const DefaultVisionRadius = 1

// BoardMetricsRecorder receives board-level gauges after every mutation.
type BoardMetricsRecorder interface {
	SetBoardStats(size model.Size, revealed, entities int)
}

// Session coordinates the grid, the fog field and the entity registry of one
// running game. Every mutation happens under a single coarse lock so that
// occupancy, visibility and entity anchors never disagree, in particular
// across a resize.
//
// Fog reveal listeners and KB subscribers are invoked while the Session lock
// is held; they must not call back into the Session.
type Session struct {
	mu sync.RWMutex

	grid     *core.Grid
	fog      *core.FogField
	entities *kb.KnowledgeBase
	resolver *core.PlacementResolver

	visionRadius int
	rng          *rand.Rand

	// log is an optional structured logger for board events.
	log logging.Logger

	// metrics is an optional recorder for Prometheus-friendly gauges.
	metrics BoardMetricsRecorder
}

// SessionOption customises Session construction.
type SessionOption func(*Session)

// WithVisionRadius sets the reveal radius used around newly placed players.
func WithVisionRadius(r int) SessionOption {
	return func(s *Session) {
		if r >= 0 {
			s.visionRadius = r
		}
	}
}

// WithMetricsRecorder attaches an optional recorder for board gauges.
func WithMetricsRecorder(m BoardMetricsRecorder) SessionOption {
	return func(s *Session) {
		s.metrics = m
	}
}

// WithRand makes placement tie-breaks draw from r.
func WithRand(r *rand.Rand) SessionOption {
	return func(s *Session) {
		s.rng = r
	}
}

// WithKnowledgeBase uses an existing entity registry instead of a fresh one.
func WithKnowledgeBase(store *kb.KnowledgeBase) SessionOption {
	return func(s *Session) {
		if store != nil {
			s.entities = store
		}
	}
}

// NewSession builds an empty, fully fogged board of the given size.
func NewSession(size model.Size, log logging.Logger, opts ...SessionOption) (*Session, error) {
	if log == nil {
		log = logging.Noop()
	}
	grid, err := core.NewGrid(size)
	if err != nil {
		return nil, err
	}
	fog, err := core.NewFogField(size)
	if err != nil {
		return nil, err
	}
	s := &Session{
		grid:         grid,
		fog:          fog,
		visionRadius: DefaultVisionRadius,
		log:          log,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.entities == nil {
		s.entities = kb.NewKnowledgeBase()
	}
	var ropts []core.ResolverOption
	if s.rng != nil {
		ropts = append(ropts, core.WithRand(s.rng))
	}
	s.resolver = core.NewPlacementResolver(grid, fog, ropts...)
	s.updateMetricsLocked()
	return s, nil
}

// Entities exposes the entity registry.
func (s *Session) Entities() *kb.KnowledgeBase {
	return s.entities
}

// Size returns the current board dimensions.
func (s *Session) Size() model.Size {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.grid.Size()
}

// IsRevealed reports whether (x,y) has been revealed.
func (s *Session) IsRevealed(x, y int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fog.IsRevealed(x, y)
}

// CellAt returns the occupancy of (x,y); ok is false off the board.
func (s *Session) CellAt(x, y int) (model.Cell, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.grid.Cell(x, y)
}

// SubscribeReveals registers fn for fog reveal notifications.
func (s *Session) SubscribeReveals(fn func(core.RevealEvent)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fog.Subscribe(fn)
}

// FindPlacement runs the tiered placement search against the current board.
func (s *Session) FindPlacement(kind model.EntityKind, fp model.Footprint) (core.Placement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolver.FindPlacement(kind, fp)
}

// PlacePlayer puts a player unit at anchor and reveals the fog around it.
func (s *Session) PlacePlayer(anchor model.Coord) (kb.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.placeLocked(model.EntityPlayer, anchor, model.Footprint1x1, 0)
	if err != nil {
		return kb.Entity{}, err
	}
	for _, c := range e.Cells() {
		s.fog.RevealRadius(c.X, c.Y, s.visionRadius)
	}
	s.updateMetricsLocked()
	return e, nil
}

// PlaceResource puts a resource node at anchor with the footprint its level
// implies.
func (s *Session) PlaceResource(anchor model.Coord, level int) (kb.Entity, error) {
	return s.SpawnResource(anchor, level, model.FootprintForResourceLevel(level))
}

// SpawnEnemy commits an enemy of the given level at anchor.
func (s *Session) SpawnEnemy(anchor model.Coord, level int) (kb.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.placeLocked(model.EntityEnemy, anchor, model.Footprint1x1, level)
	if err != nil {
		return kb.Entity{}, err
	}
	s.updateMetricsLocked()
	return e, nil
}

// SpawnResource commits a resource node of the given level covering fp at
// anchor.
func (s *Session) SpawnResource(anchor model.Coord, level int, fp model.Footprint) (kb.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.placeLocked(model.EntityResource, anchor, fp, level)
	if err != nil {
		return kb.Entity{}, err
	}
	s.updateMetricsLocked()
	return e, nil
}

func (s *Session) placeLocked(kind model.EntityKind, anchor model.Coord, fp model.Footprint, level int) (kb.Entity, error) {
	e := kb.Entity{
		ID:        uuid.NewString(),
		Kind:      kind,
		Anchor:    anchor,
		Footprint: fp,
		Level:     level,
	}
	if err := s.grid.Occupy(anchor, fp, model.Cell{Kind: kind, EntityID: e.ID}); err != nil {
		return kb.Entity{}, fmt.Errorf("place %s at %v: %w", kind, anchor, err)
	}
	stored, err := s.entities.Add(e)
	if err != nil {
		s.grid.Release(e.ID)
		return kb.Entity{}, fmt.Errorf("register %s: %w", kind, err)
	}
	s.log.Debug(context.Background(), "entity placed",
		logging.String("entity_id", stored.ID),
		logging.String("kind", kind.String()),
		logging.String("anchor", anchor.String()),
		logging.String("footprint", fp.String()),
		logging.Int("cells_of_kind", s.grid.Count(kind)),
	)
	return stored, nil
}

// RemoveEntity deletes an entity and frees its cells.
func (s *Session) RemoveEntity(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.entities.Remove(id); err != nil {
		return err
	}
	s.grid.Release(id)
	s.updateMetricsLocked()
	return nil
}

// Reveal reveals the square of radius r around (cx,cy) and returns the cells
// that were newly revealed.
func (s *Session) Reveal(cx, cy, r int) []model.Coord {
	s.mu.Lock()
	defer s.mu.Unlock()

	revealed := s.fog.RevealRadius(cx, cy, r)
	if len(revealed) > 0 {
		s.updateMetricsLocked()
	}
	return revealed
}

// CanResize reports whether next would strictly grow the board.
func (s *Session) CanResize(next model.Size) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return next.Larger(s.grid.Size())
}

// Resize grows the board to next as one atomic operation: occupancy, fog and
// entity anchors all shift by the same centering offset. It reports false,
// changing nothing, unless next is strictly larger in both dimensions.
func (s *Session) Resize(next model.Size) (model.Offset, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.grid.Size()
	offset, ok := s.grid.Resize(next)
	if !ok {
		return model.Offset{}, false
	}
	if _, err := s.fog.Resize(next); err != nil {
		// Unreachable: next was validated by the grid.
		s.log.Error(context.Background(), "fog resize failed", logging.Err(err))
	}
	s.entities.Translate(offset)

	s.log.Info(context.Background(), "board resized",
		logging.String("from", prev.String()),
		logging.String("to", next.String()),
		logging.Int("offset_x", offset.DX),
		logging.Int("offset_y", offset.DY),
	)
	s.updateMetricsLocked()
	return offset, true
}

// BoardSnapshot is a consistent copy of the board at one instant.
type BoardSnapshot struct {
	Size     model.Size
	Cells    []model.Cell
	Revealed []bool
	Entities []kb.Entity
}

// Snapshot captures the board under the read lock.
func (s *Session) Snapshot() *BoardSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return &BoardSnapshot{
		Size:     s.grid.Size(),
		Cells:    s.grid.Snapshot(),
		Revealed: s.fog.Mask(),
		Entities: s.entities.List(model.EntityNone),
	}
}

// String renders the board one row per line. Occupied cells show their
// kind's glyph, revealed empty cells '.', fogged empty cells '~'.
func (b *BoardSnapshot) String() string {
	var sb strings.Builder
	for y := 0; y < b.Size.H; y++ {
		for x := 0; x < b.Size.W; x++ {
			i := y*b.Size.W + x
			switch {
			case !b.Cells[i].Empty():
				sb.WriteByte(b.Cells[i].Kind.Glyph())
			case b.Revealed[i]:
				sb.WriteByte('.')
			default:
				sb.WriteByte('~')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (s *Session) updateMetricsLocked() {
	if s == nil || s.metrics == nil {
		return
	}
	s.metrics.SetBoardStats(s.grid.Size(), s.fog.RevealedCount(), s.entities.Count(model.EntityNone))
}
