package engine

import (
	"fmt"
	"time"
)

// Limits bounds one search. The search stops expanding once the elapsed
// time exceeds TimeLimit or the visited node count exceeds MaxNodes.
type Limits struct {
	Depth     int
	TimeLimit time.Duration
	MaxNodes  int
}

const (
	defaultDepth     = 4
	autoPlayDepth    = 2
	defaultTimeLimit = 1000 * time.Millisecond
	defaultMaxNodes  = 20000
)

// DefaultLimits applies to direct search calls.
func DefaultLimits() Limits {
	return Limits{Depth: defaultDepth, TimeLimit: defaultTimeLimit, MaxNodes: defaultMaxNodes}
}

// AutoPlayLimits applies when a session plays the automated side.
func AutoPlayLimits() Limits {
	return Limits{Depth: autoPlayDepth, TimeLimit: defaultTimeLimit, MaxNodes: defaultMaxNodes}
}

// WithDepth overrides the depth when depth is positive.
func (l Limits) WithDepth(depth int) Limits {
	if depth > 0 {
		l.Depth = depth
	}
	return l
}

func (l Limits) String() string {
	return fmt.Sprintf("depth %d movetime %d nodes %d", l.Depth, l.TimeLimit.Milliseconds(), l.MaxNodes)
}

// LimitsFromPreset validates p and converts its caps into search limits.
func LimitsFromPreset(p DifficultyPreset) (Limits, error) {
	if err := ValidatePreset(p); err != nil {
		return Limits{}, err
	}
	return Limits{
		Depth:     p.DepthCap,
		TimeLimit: time.Duration(p.MoveTimeMillis) * time.Millisecond,
		MaxNodes:  p.NodeCap,
	}, nil
}
