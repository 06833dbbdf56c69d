package core

import (
	"errors"
	"fmt"

	"github.com/tesh144/RTChess-sub001/model"
)

var (
	// ErrInvalidSize indicates a board dimension that is not positive.
	ErrInvalidSize = errors.New("invalid grid size")
	// ErrOutOfBounds indicates a footprint cell outside the board.
	ErrOutOfBounds = errors.New("cell out of bounds")
	// ErrCellOccupied indicates a footprint cell that is already taken.
	ErrCellOccupied = errors.New("cell occupied")
)

// Grid is the board's occupancy topology. Cells are stored row-major in a
// flat slice indexed y*width+x whose length always equals width*height.
type Grid struct {
	size  model.Size
	cells []model.Cell
}

// NewGrid allocates an empty grid of the given size.
func NewGrid(size model.Size) (*Grid, error) {
	if !size.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSize, size)
	}
	return &Grid{
		size:  size,
		cells: make([]model.Cell, size.Cells()),
	}, nil
}

// Size returns the current dimensions.
func (g *Grid) Size() model.Size { return g.size }

// IsValidCell reports whether (x,y) lies on the board.
func (g *Grid) IsValidCell(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.size.W && y < g.size.H
}

// IsCellEmpty reports whether (x,y) is on the board and unoccupied.
func (g *Grid) IsCellEmpty(x, y int) bool {
	if !g.IsValidCell(x, y) {
		return false
	}
	return g.cells[y*g.size.W+x].Empty()
}

// Cell returns the occupancy of (x,y); ok is false off the board.
func (g *Grid) Cell(x, y int) (model.Cell, bool) {
	if !g.IsValidCell(x, y) {
		return model.Cell{}, false
	}
	return g.cells[y*g.size.W+x], true
}

// FootprintFits reports whether every cell of fp anchored at anchor is on the
// board and empty.
func (g *Grid) FootprintFits(anchor model.Coord, fp model.Footprint) bool {
	return g.checkFootprint(anchor, fp) == nil
}

func (g *Grid) checkFootprint(anchor model.Coord, fp model.Footprint) error {
	if fp.W <= 0 || fp.H <= 0 {
		return fmt.Errorf("%w: footprint %v", ErrInvalidSize, fp)
	}
	for _, c := range fp.Cells(anchor) {
		if !g.IsValidCell(c.X, c.Y) {
			return fmt.Errorf("%w: %v", ErrOutOfBounds, c)
		}
		if !g.cells[c.Y*g.size.W+c.X].Empty() {
			return fmt.Errorf("%w: %v", ErrCellOccupied, c)
		}
	}
	return nil
}

// Occupy marks every cell of fp anchored at anchor with cell. The footprint
// is committed as a unit: if any cell is off the board or taken nothing is
// written.
func (g *Grid) Occupy(anchor model.Coord, fp model.Footprint, cell model.Cell) error {
	if cell.Empty() {
		return fmt.Errorf("occupy %v: empty occupant", anchor)
	}
	if err := g.checkFootprint(anchor, fp); err != nil {
		return err
	}
	for _, c := range fp.Cells(anchor) {
		g.cells[c.Y*g.size.W+c.X] = cell
	}
	return nil
}

// Release clears every cell held by entityID and returns how many cells were
// freed.
func (g *Grid) Release(entityID string) int {
	if entityID == "" {
		return 0
	}
	freed := 0
	for i := range g.cells {
		if g.cells[i].EntityID == entityID {
			g.cells[i] = model.Cell{}
			freed++
		}
	}
	return freed
}

// Count returns how many cells hold the given kind.
func (g *Grid) Count(kind model.EntityKind) int {
	n := 0
	for _, cell := range g.cells {
		if cell.Kind == kind {
			n++
		}
	}
	return n
}

// Snapshot returns a copy of the occupancy slice in row-major order.
func (g *Grid) Snapshot() []model.Cell {
	out := make([]model.Cell, len(g.cells))
	copy(out, g.cells)
	return out
}

// Resize grows the grid to next, re-centring existing occupancy by
// CenteringOffset. It is a no-op unless next is strictly larger in both
// dimensions. The backing storage is always reallocated.
func (g *Grid) Resize(next model.Size) (model.Offset, bool) {
	if !next.Larger(g.size) {
		return model.Offset{}, false
	}
	offset := CenteringOffset(g.size, next)
	cells := make([]model.Cell, next.Cells())
	for y := 0; y < g.size.H; y++ {
		for x := 0; x < g.size.W; x++ {
			cell := g.cells[y*g.size.W+x]
			if cell.Empty() {
				continue
			}
			nx, ny := x+offset.DX, y+offset.DY
			if nx < 0 || ny < 0 || nx >= next.W || ny >= next.H {
				continue
			}
			cells[ny*next.W+nx] = cell
		}
	}
	g.size = next
	g.cells = cells
	return offset, true
}
