package core

import (
	"fmt"

	"github.com/tesh144/RTChess-sub001/internal/pubsub"
	"github.com/tesh144/RTChess-sub001/model"
)

// RevealEvent is published once for every cell that turns from fogged to
// revealed.
type RevealEvent struct {
	X int
	Y int
}

// FogField tracks which cells the player has seen. The revealed mask is a
// flat slice indexed y*width+x, congruent with the Grid it shadows.
// Revealed cells stay revealed; only Resize rebuilds the mask.
type FogField struct {
	size     model.Size
	revealed []bool
	count    int

	reveals pubsub.Hub[RevealEvent]
}

// NewFogField allocates an all-fogged field.
func NewFogField(size model.Size) (*FogField, error) {
	if !size.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSize, size)
	}
	return &FogField{
		size:     size,
		revealed: make([]bool, size.Cells()),
	}, nil
}

// Size returns the current dimensions.
func (f *FogField) Size() model.Size { return f.size }

// IsValidCell reports whether (x,y) lies inside the field.
func (f *FogField) IsValidCell(x, y int) bool {
	return x >= 0 && y >= 0 && x < f.size.W && y < f.size.H
}

// IsRevealed reports whether (x,y) has been revealed. Cells off the field
// are treated as fogged.
func (f *FogField) IsRevealed(x, y int) bool {
	if !f.IsValidCell(x, y) {
		return false
	}
	return f.revealed[y*f.size.W+x]
}

// RevealedCount returns the number of revealed cells.
func (f *FogField) RevealedCount() int { return f.count }

// Subscribe registers a listener for newly revealed cells.
func (f *FogField) Subscribe(fn func(RevealEvent)) (unsubscribe func()) {
	return f.reveals.Subscribe(fn)
}

// RevealCell reveals (x,y). It returns true only when the cell was fogged;
// re-revealing is a no-op that publishes nothing.
func (f *FogField) RevealCell(x, y int) bool {
	if !f.IsValidCell(x, y) {
		return false
	}
	idx := y*f.size.W + x
	if f.revealed[idx] {
		return false
	}
	f.revealed[idx] = true
	f.count++
	f.reveals.Publish(RevealEvent{X: x, Y: y})
	return true
}

// RevealRadius reveals the square [cx-r, cx+r] × [cy-r, cy+r] clipped to the
// field and returns the cells that were newly revealed.
func (f *FogField) RevealRadius(cx, cy, r int) []model.Coord {
	if r < 0 {
		return nil
	}
	x0, x1 := max(cx-r, 0), min(cx+r, f.size.W-1)
	y0, y1 := max(cy-r, 0), min(cy+r, f.size.H-1)

	var revealed []model.Coord
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if f.RevealCell(x, y) {
				revealed = append(revealed, model.Coord{X: x, Y: y})
			}
		}
	}
	return revealed
}

// GetFoggedCells lists fogged cells in row-major order.
func (f *FogField) GetFoggedCells() []model.Coord {
	return f.collect(false)
}

// GetRevealedCells lists revealed cells in row-major order.
func (f *FogField) GetRevealedCells() []model.Coord {
	return f.collect(true)
}

func (f *FogField) collect(revealed bool) []model.Coord {
	n := f.count
	if !revealed {
		n = len(f.revealed) - f.count
	}
	out := make([]model.Coord, 0, n)
	for y := 0; y < f.size.H; y++ {
		for x := 0; x < f.size.W; x++ {
			if f.revealed[y*f.size.W+x] == revealed {
				out = append(out, model.Coord{X: x, Y: y})
			}
		}
	}
	return out
}

// Mask returns a copy of the revealed mask in row-major order.
func (f *FogField) Mask() []bool {
	out := make([]bool, len(f.revealed))
	copy(out, f.revealed)
	return out
}

// Resize replaces the mask with an all-fogged one of the new size and copies
// every revealed cell to its position shifted by CenteringOffset. Cells that
// would land outside the new bounds are dropped. Remapped cells publish no
// reveal events. It returns the offset that was applied.
func (f *FogField) Resize(next model.Size) (model.Offset, error) {
	if !next.Valid() {
		return model.Offset{}, fmt.Errorf("%w: %v", ErrInvalidSize, next)
	}
	offset := CenteringOffset(f.size, next)
	revealed := make([]bool, next.Cells())
	count := 0
	for y := 0; y < f.size.H; y++ {
		for x := 0; x < f.size.W; x++ {
			if !f.revealed[y*f.size.W+x] {
				continue
			}
			nx, ny := x+offset.DX, y+offset.DY
			if nx < 0 || ny < 0 || nx >= next.W || ny >= next.H {
				continue
			}
			revealed[ny*next.W+nx] = true
			count++
		}
	}
	f.size = next
	f.revealed = revealed
	f.count = count
	return offset, nil
}
