package model

import "fmt"

// Coord is a cell position on the board. (0,0) is the top-left corner.
type Coord struct {
	X int
	Y int
}

// Add returns c shifted by o.
func (c Coord) Add(o Offset) Coord {
	return Coord{X: c.X + o.DX, Y: c.Y + o.DY}
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Offset is a relative displacement between two coordinates.
type Offset struct {
	DX int
	DY int
}

// IsZero reports whether the offset moves nothing.
func (o Offset) IsZero() bool {
	return o.DX == 0 && o.DY == 0
}

// Size is the width and height of a board, in cells.
type Size struct {
	W int
	H int
}

// Square returns an n×n size.
func Square(n int) Size {
	return Size{W: n, H: n}
}

// Cells returns the number of cells covered by the size.
func (s Size) Cells() int {
	if s.W <= 0 || s.H <= 0 {
		return 0
	}
	return s.W * s.H
}

// Valid reports whether both dimensions are positive.
func (s Size) Valid() bool {
	return s.W > 0 && s.H > 0
}

// Contains reports whether c lies inside a board of this size.
func (s Size) Contains(c Coord) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < s.W && c.Y < s.H
}

// Larger reports whether s is strictly larger than other in both dimensions.
func (s Size) Larger(other Size) bool {
	return s.W > other.W && s.H > other.H
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.W, s.H)
}
