package core

import "github.com/tesh144/RTChess-sub001/model"

// SafeDistance is the per-axis distance beyond which a revealed cell counts
// as far from the player's units.
const SafeDistance = 4

// orthogonal lists the four edge-sharing neighbour offsets.
var orthogonal = [model.GridSides]model.Offset{
	{DX: 0, DY: -1},
	{DX: 1, DY: 0},
	{DX: 0, DY: 1},
	{DX: -1, DY: 0},
}

// CenteringOffset returns the per-axis shift that keeps content centred when
// a board changes from old to next: floor((next - old) / 2) on each axis.
func CenteringOffset(old, next model.Size) model.Offset {
	return model.Offset{
		DX: floorDiv(next.W-old.W, 2),
		DY: floorDiv(next.H-old.H, 2),
	}
}

// AxisDistance compares two cells axis by axis and returns the larger of the
// horizontal and vertical gaps.
func AxisDistance(a, b model.Coord) int {
	return max(abs(a.X-b.X), abs(a.Y-b.Y))
}

// OrthogonalNeighbours returns the four edge-sharing neighbours of c without
// bounds checking.
func OrthogonalNeighbours(c model.Coord) [model.GridSides]model.Coord {
	var out [model.GridSides]model.Coord
	for i, o := range orthogonal {
		out[i] = c.Add(o)
	}
	return out
}

// OnOuterRing reports whether c lies on the first or last row or column.
func OnOuterRing(c model.Coord, size model.Size) bool {
	return c.X == 0 || c.Y == 0 || c.X == size.W-1 || c.Y == size.H-1
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
