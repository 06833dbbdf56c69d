package core

import (
	"errors"
	"fmt"

	"github.com/tesh144/RTChess-sub001/model"
)

// ErrInvalidSymbol is matched by every InvalidSymbolError.
var ErrInvalidSymbol = errors.New("invalid spawn symbol")

// InvalidSymbolError reports the first character of a spawn code that does
// not map to a known symbol.
type InvalidSymbolError struct {
	Code     string
	Position int // rune index within Code
	Char     rune
}

func (e *InvalidSymbolError) Error() string {
	return fmt.Sprintf("spawn code %q: invalid symbol %q at position %d", e.Code, e.Char, e.Position)
}

func (e *InvalidSymbolError) Unwrap() error {
	return ErrInvalidSymbol
}

var symbolTable = map[rune]model.SpawnSymbol{
	'0': model.SymbolEmpty,
	'1': model.SymbolEnemy,
	'2': model.SymbolResource,
	'3': model.SymbolBoss,
}

// ParseSpawnCode maps every character of code to a spawn symbol. It fails on
// the first character outside the symbol table; an empty code yields an
// empty program.
func ParseSpawnCode(code string) (model.SpawnProgram, error) {
	program := make(model.SpawnProgram, 0, len(code))
	pos := 0
	for _, r := range code {
		sym, ok := symbolTable[r]
		if !ok {
			return nil, &InvalidSymbolError{Code: code, Position: pos, Char: r}
		}
		program = append(program, sym)
		pos++
	}
	return program, nil
}

// MustParseSpawnCode is ParseSpawnCode for compiled-in tables; it panics on
// malformed input.
func MustParseSpawnCode(code string) model.SpawnProgram {
	p, err := ParseSpawnCode(code)
	if err != nil {
		panic(err)
	}
	return p
}
