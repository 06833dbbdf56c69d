package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tesh144/RTChess-sub001/model"
)

const smallBoardConfig = `
log:
  level: error
tick:
  interval: 1ms
  accelerated: true
director:
  peacePeriodMultiplier: 1
  overflow: %s
grid:
  width: 5
  height: 5
resize:
  animation: 0s
milestones:
  - {wave: 1, size: 6}
waves:
  - {wave: 1, code: "11", enemyLevel: 1, resourceLevel: 1}
players:
  - {x: 2, y: 2}
`

// TestRun_AcceleratedWaves drives the runner through the 4-tick peace, the
// first wave (start on tick 4, complete on tick 8, milestone resize) and the
// second peace, which ends on tick 12.
func TestRun_AcceleratedWaves(t *testing.T) {
	tests := []struct {
		name     string
		overflow string
		wave     int
		phase    model.WavePhase
		enemies  int
	}{
		// The single configured wave is replayed as wave 2 on tick 12 and
		// spawns its first enemy immediately.
		{name: "clamp replays last wave", overflow: "clamp", wave: 2, phase: model.ActiveWave, enemies: 3},
		{name: "stop stays in peace", overflow: "stop", wave: 1, phase: model.PeacePeriod, enemies: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "sim.yaml")
			body := strings.Replace(smallBoardConfig, "%s", tt.overflow, 1)
			if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
				t.Fatalf("WriteFile error: %v", err)
			}

			var out bytes.Buffer
			st, err := run(context.Background(), options{configPath: path, maxTicks: 12}, &out)
			if err != nil {
				t.Fatalf("run error: %v", err)
			}
			if st.WaveNumber != tt.wave {
				t.Fatalf("WaveNumber = %d, want %d", st.WaveNumber, tt.wave)
			}
			if st.Phase != tt.phase {
				t.Fatalf("Phase = %v, want %v", st.Phase, tt.phase)
			}

			board := out.String()
			rows := strings.Split(strings.TrimSuffix(board, "\n"), "\n")
			if len(rows) != 6 {
				t.Fatalf("snapshot rows = %d, want 6 after milestone resize:\n%s", len(rows), board)
			}
			if got := strings.Count(board, "P"); got != 1 {
				t.Fatalf("players in snapshot = %d, want 1:\n%s", got, board)
			}
			if got := strings.Count(board, "E"); got != tt.enemies {
				t.Fatalf("enemies in snapshot = %d, want %d:\n%s", got, tt.enemies, board)
			}
		})
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`{"waves": [{"wave": 1, "code": "9"}]}`), 0o644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}
	if _, err := run(context.Background(), options{configPath: path}, &bytes.Buffer{}); err == nil {
		t.Fatal("run error = nil, want invalid config error")
	}
}
