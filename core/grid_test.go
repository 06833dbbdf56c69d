package core

import (
	"errors"
	"testing"

	"github.com/tesh144/RTChess-sub001/model"
)

func mustGrid(t *testing.T, size model.Size) *Grid {
	t.Helper()
	g, err := NewGrid(size)
	if err != nil {
		t.Fatalf("NewGrid(%v): %v", size, err)
	}
	return g
}

func TestNewGridInvalidSize(t *testing.T) {
	if _, err := NewGrid(model.Size{W: 0, H: 3}); !errors.Is(err, ErrInvalidSize) {
		t.Fatalf("NewGrid(0x3) error = %v, want ErrInvalidSize", err)
	}
}

func TestGridOccupyFootprintIsAtomic(t *testing.T) {
	g := mustGrid(t, model.Square(3))
	if err := g.Occupy(model.Coord{X: 1, Y: 0}, model.Footprint1x1, model.Cell{Kind: model.EntityEnemy, EntityID: "e1"}); err != nil {
		t.Fatalf("Occupy: %v", err)
	}

	err := g.Occupy(model.Coord{X: 0, Y: 0}, model.Footprint2x1, model.Cell{Kind: model.EntityResource, EntityID: "r1"})
	if !errors.Is(err, ErrCellOccupied) {
		t.Fatalf("Occupy over taken cell error = %v, want ErrCellOccupied", err)
	}
	if !g.IsCellEmpty(0, 0) {
		t.Fatalf("failed Occupy must not write the free half of the footprint")
	}

	err = g.Occupy(model.Coord{X: 2, Y: 2}, model.Footprint2x2, model.Cell{Kind: model.EntityResource, EntityID: "r2"})
	if !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("Occupy off the board error = %v, want ErrOutOfBounds", err)
	}
	if !g.IsCellEmpty(2, 2) {
		t.Fatalf("failed Occupy must not write the in-bounds cell")
	}
}

func TestGridReleaseClearsWholeFootprint(t *testing.T) {
	g := mustGrid(t, model.Square(4))
	if err := g.Occupy(model.Coord{X: 1, Y: 1}, model.Footprint2x2, model.Cell{Kind: model.EntityResource, EntityID: "r1"}); err != nil {
		t.Fatalf("Occupy: %v", err)
	}
	if got := g.Count(model.EntityResource); got != 4 {
		t.Fatalf("resource cells = %d, want 4", got)
	}
	if freed := g.Release("r1"); freed != 4 {
		t.Fatalf("Release freed %d cells, want 4", freed)
	}
	if got := g.Count(model.EntityResource); got != 0 {
		t.Fatalf("resource cells after release = %d, want 0", got)
	}
}

func TestGridResizeRecentresOccupancy(t *testing.T) {
	g := mustGrid(t, model.Square(4))
	if err := g.Occupy(model.Coord{X: 0, Y: 3}, model.Footprint1x1, model.Cell{Kind: model.EntityPlayer, EntityID: "p1"}); err != nil {
		t.Fatalf("Occupy: %v", err)
	}

	offset, ok := g.Resize(model.Square(6))
	if !ok {
		t.Fatalf("Resize(6x6) rejected")
	}
	if offset != (model.Offset{DX: 1, DY: 1}) {
		t.Fatalf("offset = %+v, want (1,1)", offset)
	}
	if g.Size() != model.Square(6) {
		t.Fatalf("Size() = %v, want 6x6", g.Size())
	}
	if len(g.Snapshot()) != 36 {
		t.Fatalf("occupancy length = %d, want 36", len(g.Snapshot()))
	}
	cell, _ := g.Cell(1, 4)
	if cell.Kind != model.EntityPlayer || cell.EntityID != "p1" {
		t.Fatalf("cell (1,4) = %+v, want player p1", cell)
	}
	if !g.IsCellEmpty(0, 3) {
		t.Fatalf("old position (0,3) should be empty after re-centring")
	}
}

func TestGridResizeRejectsNonGrowth(t *testing.T) {
	g := mustGrid(t, model.Square(6))
	for _, next := range []model.Size{model.Square(6), model.Square(4), {W: 8, H: 6}, {W: 6, H: 9}} {
		if _, ok := g.Resize(next); ok {
			t.Fatalf("Resize(%v) from 6x6 should be rejected", next)
		}
		if g.Size() != model.Square(6) {
			t.Fatalf("rejected resize changed size to %v", g.Size())
		}
	}
}

func TestGridIsCellEmptyOffBoard(t *testing.T) {
	g := mustGrid(t, model.Square(2))
	if g.IsCellEmpty(-1, 0) || g.IsCellEmpty(2, 0) || g.IsCellEmpty(0, 2) {
		t.Fatalf("cells off the board must not report empty")
	}
}
