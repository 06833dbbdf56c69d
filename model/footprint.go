package model

import "fmt"

// Footprint is the rectangle of cells an entity covers, measured from its
// anchor (top-left) cell.
type Footprint struct {
	W int
	H int
}

var (
	Footprint1x1 = Footprint{W: 1, H: 1}
	Footprint2x1 = Footprint{W: 2, H: 1}
	Footprint2x2 = Footprint{W: 2, H: 2}
)

// FootprintForResourceLevel maps a resource level to the footprint its
// resource node occupies: level 1 and below is 1×1, level 2 is 2×1 and
// anything higher is 2×2.
func FootprintForResourceLevel(level int) Footprint {
	switch {
	case level <= 1:
		return Footprint1x1
	case level == 2:
		return Footprint2x1
	default:
		return Footprint2x2
	}
}

// Offsets lists the displacement of every covered cell from the anchor,
// row by row.
func (f Footprint) Offsets() []Offset {
	if f.W <= 0 || f.H <= 0 {
		return nil
	}
	offsets := make([]Offset, 0, f.W*f.H)
	for dy := 0; dy < f.H; dy++ {
		for dx := 0; dx < f.W; dx++ {
			offsets = append(offsets, Offset{DX: dx, DY: dy})
		}
	}
	return offsets
}

// Cells returns the absolute coordinates covered when anchored at anchor.
func (f Footprint) Cells(anchor Coord) []Coord {
	offsets := f.Offsets()
	cells := make([]Coord, 0, len(offsets))
	for _, o := range offsets {
		cells = append(cells, anchor.Add(o))
	}
	return cells
}

func (f Footprint) String() string {
	return fmt.Sprintf("%dx%d", f.W, f.H)
}
