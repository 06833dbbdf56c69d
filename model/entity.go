package model

// EntityKind identifies what occupies a grid cell.
type EntityKind int

const (
	EntityNone EntityKind = iota // empty cell
	EntityPlayer
	EntityEnemy
	EntityResource
)

func (k EntityKind) String() string {
	switch k {
	case EntityNone:
		return "empty"
	case EntityPlayer:
		return "player"
	case EntityEnemy:
		return "enemy"
	case EntityResource:
		return "resource"
	default:
		return "unknown"
	}
}

// Glyph is the single-character board representation of the kind.
func (k EntityKind) Glyph() byte {
	switch k {
	case EntityPlayer:
		return 'P'
	case EntityEnemy:
		return 'E'
	case EntityResource:
		return 'R'
	default:
		return '.'
	}
}

// Cell is the occupancy record of a single grid cell. A cell with Kind
// EntityNone is empty and carries no EntityID.
type Cell struct {
	Kind     EntityKind
	EntityID string
}

// Empty reports whether nothing occupies the cell.
func (c Cell) Empty() bool {
	return c.Kind == EntityNone
}
