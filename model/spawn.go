package model

import "strings"

// SpawnSymbol is a single step of a wave's spawn program.
type SpawnSymbol int

const (
	SymbolEmpty SpawnSymbol = iota
	SymbolEnemy
	SymbolResource
	SymbolBoss // reserved; never places an entity
)

func (s SpawnSymbol) String() string {
	switch s {
	case SymbolEmpty:
		return "empty"
	case SymbolEnemy:
		return "enemy"
	case SymbolResource:
		return "resource"
	case SymbolBoss:
		return "boss"
	default:
		return "unknown"
	}
}

// Digit returns the spawn-code character that encodes the symbol.
func (s SpawnSymbol) Digit() byte {
	return byte('0' + int(s))
}

// SpawnProgram is the ordered symbol sequence parsed from a spawn code.
type SpawnProgram []SpawnSymbol

// String renders the program back into its spawn-code form.
func (p SpawnProgram) String() string {
	var b strings.Builder
	b.Grow(len(p))
	for _, s := range p {
		b.WriteByte(s.Digit())
	}
	return b.String()
}

// Count returns how many steps of the program carry symbol s.
func (p SpawnProgram) Count(s SpawnSymbol) int {
	n := 0
	for _, sym := range p {
		if sym == s {
			n++
		}
	}
	return n
}
