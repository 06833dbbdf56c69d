package core

import (
	"errors"
	"testing"

	"github.com/tesh144/RTChess-sub001/model"
)

func TestParseSpawnCode(t *testing.T) {
	got, err := ParseSpawnCode("10102")
	if err != nil {
		t.Fatalf("ParseSpawnCode error: %v", err)
	}
	want := model.SpawnProgram{
		model.SymbolEnemy,
		model.SymbolEmpty,
		model.SymbolEnemy,
		model.SymbolEmpty,
		model.SymbolResource,
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("symbol[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	wave := model.WaveConfig{Program: got}
	if ticks := wave.ActiveTicks(); ticks != 17 {
		t.Fatalf("ActiveTicks() = %d, want 17", ticks)
	}
	if n := got.Count(model.SymbolEnemy); n != 2 {
		t.Fatalf("Count(enemy) = %d, want 2", n)
	}
	if n := got.Count(model.SymbolResource); n != 1 {
		t.Fatalf("Count(resource) = %d, want 1", n)
	}
}

func TestParseSpawnCodeBossIsReserved(t *testing.T) {
	got, err := ParseSpawnCode("3")
	if err != nil {
		t.Fatalf("ParseSpawnCode error: %v", err)
	}
	if got[0] != model.SymbolBoss {
		t.Fatalf("symbol = %v, want boss", got[0])
	}
}

func TestParseSpawnCodeInvalidSymbol(t *testing.T) {
	for _, code := range []string{"1014", "10a", " 1", "1-1", "１"} {
		_, err := ParseSpawnCode(code)
		if err == nil {
			t.Fatalf("ParseSpawnCode(%q) expected error", code)
		}
		if !errors.Is(err, ErrInvalidSymbol) {
			t.Fatalf("ParseSpawnCode(%q) error %v does not match ErrInvalidSymbol", code, err)
		}
	}

	_, err := ParseSpawnCode("10x2")
	var symErr *InvalidSymbolError
	if !errors.As(err, &symErr) {
		t.Fatalf("expected *InvalidSymbolError, got %T", err)
	}
	if symErr.Position != 2 || symErr.Char != 'x' {
		t.Fatalf("error position/char = %d/%q, want 2/'x'", symErr.Position, symErr.Char)
	}
}

func TestParseSpawnCodeEmpty(t *testing.T) {
	got, err := ParseSpawnCode("")
	if err != nil {
		t.Fatalf("ParseSpawnCode(\"\") error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("len = %d, want 0", len(got))
	}
	if ticks := (model.WaveConfig{Program: got}).ActiveTicks(); ticks != 1 {
		t.Fatalf("ActiveTicks() for empty program = %d, want 1", ticks)
	}
}

func TestSpawnCodeRoundTrip(t *testing.T) {
	for _, code := range []string{"", "0", "10102", "3210", "111111222000"} {
		program, err := ParseSpawnCode(code)
		if err != nil {
			t.Fatalf("ParseSpawnCode(%q) error: %v", code, err)
		}
		if got := program.String(); got != code {
			t.Fatalf("round trip %q -> %q", code, got)
		}
		again, err := ParseSpawnCode(program.String())
		if err != nil || again.String() != code {
			t.Fatalf("re-parse of %q failed: %v", code, err)
		}
	}
}

func TestMustParseSpawnCodePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("MustParseSpawnCode should panic on invalid input")
		}
	}()
	MustParseSpawnCode("9")
}
