package engine

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// DifficultyPreset names a set of search caps.
type DifficultyPreset struct {
	Name           string `yaml:"name"`
	DepthCap       int    `yaml:"depth"`
	MoveTimeMillis int    `yaml:"move_time_ms"`
	NodeCap        int    `yaml:"nodes"`
}

var presetMu sync.RWMutex

const maxDepthCap = 12

var DefaultPresets = map[string]DifficultyPreset{
	"level1": {Name: "level1", DepthCap: 1, MoveTimeMillis: 200, NodeCap: 2000},
	"level2": {Name: "level2", DepthCap: 2, MoveTimeMillis: 500, NodeCap: 10000},
	"level3": {Name: "level3", DepthCap: 4, MoveTimeMillis: 1000, NodeCap: 20000},
	"level4": {Name: "level4", DepthCap: 6, MoveTimeMillis: 3000, NodeCap: 200000},
	"auto":   {Name: "auto", DepthCap: 2, MoveTimeMillis: 1000, NodeCap: 20000},
}

func GetPreset(name string) (DifficultyPreset, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "", "default":
		name = "level3"
	case "beginner":
		name = "level1"
	case "intermediate":
		name = "level2"
	case "advanced":
		name = "level4"
	}
	presetMu.RLock()
	p, ok := DefaultPresets[name]
	presetMu.RUnlock()
	if ok {
		return p, nil
	}
	return DifficultyPreset{}, fmt.Errorf("unknown checkers preset: %s", name)
}

// RegisterPreset adds or replaces a preset after validating it.
func RegisterPreset(p DifficultyPreset) error {
	p.Name = strings.ToLower(strings.TrimSpace(p.Name))
	if p.Name == "" {
		return fmt.Errorf("preset name required")
	}
	if err := ValidatePreset(p); err != nil {
		return fmt.Errorf("preset %s: %w", p.Name, err)
	}
	presetMu.Lock()
	DefaultPresets[p.Name] = p
	presetMu.Unlock()
	return nil
}

func PresetNames() []string {
	presetMu.RLock()
	defer presetMu.RUnlock()
	names := make([]string, 0, len(DefaultPresets))
	for k := range DefaultPresets {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func ValidatePreset(p DifficultyPreset) error {
	switch {
	case p.DepthCap <= 0:
		return fmt.Errorf("depth cap must be > 0: %d", p.DepthCap)
	case p.DepthCap > maxDepthCap:
		return fmt.Errorf("depth cap %d out of range 1-%d", p.DepthCap, maxDepthCap)
	case p.MoveTimeMillis <= 0:
		return fmt.Errorf("move time must be > 0: %d", p.MoveTimeMillis)
	case p.NodeCap <= 0:
		return fmt.Errorf("node cap must be > 0: %d", p.NodeCap)
	}
	return nil
}
