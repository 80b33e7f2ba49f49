package engine

import (
	"testing"
	"time"
)

func TestGetPresetAliases(t *testing.T) {
	cases := map[string]string{
		"":             "level3",
		"default":      "level3",
		"beginner":     "level1",
		"intermediate": "level2",
		"advanced":     "level4",
		" Level2 ":     "level2",
		"auto":         "auto",
	}
	for in, want := range cases {
		p, err := GetPreset(in)
		if err != nil {
			t.Fatalf("GetPreset(%q): %v", in, err)
		}
		if p.Name != want {
			t.Fatalf("GetPreset(%q) = %s, want %s", in, p.Name, want)
		}
	}
	if _, err := GetPreset("grandmaster"); err == nil {
		t.Fatalf("expected error for unknown preset")
	}
}

func TestDefaultPresetsAreValid(t *testing.T) {
	for _, name := range PresetNames() {
		p, err := GetPreset(name)
		if err != nil {
			t.Fatalf("GetPreset(%s): %v", name, err)
		}
		if err := ValidatePreset(p); err != nil {
			t.Fatalf("preset %s invalid: %v", name, err)
		}
	}
}

func TestLimitsFromPreset(t *testing.T) {
	p, _ := GetPreset("level3")
	l, err := LimitsFromPreset(p)
	if err != nil {
		t.Fatalf("LimitsFromPreset: %v", err)
	}
	if l != DefaultLimits() {
		t.Fatalf("level3 limits = %v, want %v", l, DefaultLimits())
	}

	auto, _ := GetPreset("auto")
	l, _ = LimitsFromPreset(auto)
	if l != AutoPlayLimits() {
		t.Fatalf("auto limits = %v, want %v", l, AutoPlayLimits())
	}

	if _, err := LimitsFromPreset(DifficultyPreset{Name: "bad", DepthCap: 0, MoveTimeMillis: 10, NodeCap: 10}); err == nil {
		t.Fatalf("expected error for zero depth")
	}
}

func TestValidatePreset(t *testing.T) {
	bad := []DifficultyPreset{
		{DepthCap: 0, MoveTimeMillis: 1, NodeCap: 1},
		{DepthCap: maxDepthCap + 1, MoveTimeMillis: 1, NodeCap: 1},
		{DepthCap: 1, MoveTimeMillis: 0, NodeCap: 1},
		{DepthCap: 1, MoveTimeMillis: 1, NodeCap: -1},
	}
	for i, p := range bad {
		if err := ValidatePreset(p); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}

func TestRegisterPreset(t *testing.T) {
	if err := RegisterPreset(DifficultyPreset{Name: "Blitz", DepthCap: 3, MoveTimeMillis: 150, NodeCap: 5000}); err != nil {
		t.Fatalf("RegisterPreset: %v", err)
	}
	p, err := GetPreset("blitz")
	if err != nil {
		t.Fatalf("GetPreset(blitz): %v", err)
	}
	l, _ := LimitsFromPreset(p)
	if l.TimeLimit != 150*time.Millisecond || l.Depth != 3 || l.MaxNodes != 5000 {
		t.Fatalf("unexpected limits %v", l)
	}
	if err := RegisterPreset(DifficultyPreset{Name: " ", DepthCap: 1, MoveTimeMillis: 1, NodeCap: 1}); err == nil {
		t.Fatalf("expected error for empty name")
	}
}

func TestLimitsWithDepth(t *testing.T) {
	l := AutoPlayLimits()
	if got := l.WithDepth(0).Depth; got != 2 {
		t.Fatalf("WithDepth(0) = %d", got)
	}
	if got := l.WithDepth(5).Depth; got != 5 {
		t.Fatalf("WithDepth(5) = %d", got)
	}
}
