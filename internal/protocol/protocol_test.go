package protocol

import (
	"errors"
	"testing"
)

func TestEncodeSetSpeed(t *testing.T) {
	tests := []struct {
		level int
		want  string
	}{
		{0, "s,0"},
		{1, "s,1"},
		{2, "s,2"},
		{3, "s,3"},
	}
	for _, tt := range tests {
		if got := EncodeSetSpeed(tt.level); got != tt.want {
			t.Errorf("EncodeSetSpeed(%d): got %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestEncodeSetPower(t *testing.T) {
	if got := EncodeSetPower(true); got != "f,1" {
		t.Errorf("EncodeSetPower(true): got %q, want f,1", got)
	}
	if got := EncodeSetPower(false); got != "f,0" {
		t.Errorf("EncodeSetPower(false): got %q, want f,0", got)
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    int
		wantErr bool
	}{
		{"bare level", "2", 2, false},
		{"trailing fields ignored", "2,extra", 2, false},
		{"multiple trailing fields", "1,a,b,c", 1, false},
		{"zero", "0", 0, false},
		{"trailing newline", "3\n", 3, false},
		{"non-numeric", "x", 0, true},
		{"empty", "", 0, true},
		{"empty first field", ",2", 0, true},
		{"float", "1.5", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStatus([]byte(tt.data))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got level %d", got)
				}
				if !errors.Is(err, ErrMalformed) {
					t.Errorf("error should wrap ErrMalformed, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPercentToLevel(t *testing.T) {
	tests := []struct {
		pct  float64
		want int
	}{
		{0, 0},
		{10, 0},
		{16, 0},
		{17, 1},
		{33.33, 1},
		{49, 1},
		{50, 2}, // 50/33.33 = 1.50, rounds away from zero
		{66.66, 2},
		{83, 2},
		{84, 3},
		{100, 3},
		{-5, 0},  // clamped
		{150, 3}, // clamped
	}
	for _, tt := range tests {
		if got := PercentToLevel(tt.pct); got != tt.want {
			t.Errorf("PercentToLevel(%v): got %d, want %d", tt.pct, got, tt.want)
		}
	}
}

// The level->percent->level mapping must be the identity for every
// reachable level.
func TestUnitRoundTrip(t *testing.T) {
	for level := 0; level <= MaxLevel; level++ {
		pct := LevelToPercent(level)
		if got := PercentToLevel(pct); got != level {
			t.Errorf("level %d -> %v%% -> level %d", level, pct, got)
		}
	}
}

// Every percentage in [0,100] must map into the device's level range,
// and re-applying the mapping to the canonical percent of its own
// output must be stable.
func TestPercentToLevelTotal(t *testing.T) {
	for pct := 0; pct <= 100; pct++ {
		level := PercentToLevel(float64(pct))
		if level < 0 || level > MaxLevel {
			t.Fatalf("PercentToLevel(%d) = %d, out of range", pct, level)
		}
		again := PercentToLevel(LevelToPercent(level))
		if again != level {
			t.Errorf("pct %d: level %d not idempotent (got %d)", pct, level, again)
		}
	}
}

func TestActive(t *testing.T) {
	if Active(0) {
		t.Error("level 0 should not be active")
	}
	for level := 1; level <= MaxLevel; level++ {
		if !Active(level) {
			t.Errorf("level %d should be active", level)
		}
	}
}
