package engine

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/park285/cheese-checkers/internal/checkers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() Clock {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time { return t0 }
}

// tickingClock advances by step on every read.
func tickingClock(step time.Duration) Clock {
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(step)
		return t
	}
}

func unlimited(depth int) Limits {
	return Limits{Depth: depth, TimeLimit: time.Hour, MaxNodes: math.MaxInt}
}

func isLegal(b checkers.Board, p checkers.Player, m checkers.Move) bool {
	_, ok := checkers.ContainsMove(checkers.GenerateValidMoves(b, p), m)
	return ok
}

func TestSearchIsDeterministic(t *testing.T) {
	s := NewSearcher(WithClock(fixedClock()))
	b := checkers.NewInitialBoard()

	first := s.Search(context.Background(), b, checkers.White, unlimited(4))
	second := s.Search(context.Background(), b, checkers.White, unlimited(4))

	require.True(t, first.Found)
	assert.Equal(t, first.Move, second.Move)
	assert.Equal(t, first.Score, second.Score)
	assert.Equal(t, first.Nodes, second.Nodes)
	assert.False(t, first.Aborted)
	assert.True(t, isLegal(b, checkers.White, first.Move))
}

func TestSearchFindsImmediateWin(t *testing.T) {
	w := func(id string) checkers.Piece { return checkers.Piece{ID: id, Player: checkers.White} }
	b := checkers.NewEmptyBoard().
		With(checkers.Pos(1, 0), checkers.Piece{ID: "b", Player: checkers.Black}).
		With(checkers.Pos(2, 5), w("w1")).
		With(checkers.Pos(3, 0), w("w2")).
		With(checkers.Pos(3, 2), w("w3"))

	s := NewSearcher(WithClock(fixedClock()))
	for _, depth := range []int{1, 2, 3} {
		res := s.Search(context.Background(), b, checkers.White, unlimited(depth))
		require.True(t, res.Found)
		assert.GreaterOrEqual(t, res.Score, WinScore, "depth %d", depth)
		if depth < 3 {
			assert.Equal(t, checkers.Move{From: checkers.Pos(3, 0), To: checkers.Pos(2, 1)}, res.Move, "depth %d", depth)
			continue
		}
		// 2,5-1,4 forces 1,0-2,1 and a capture on the next ply, so it ties
		// at the win score and comes first in generation order.
		assert.Equal(t, checkers.Move{From: checkers.Pos(2, 5), To: checkers.Pos(1, 4)}, res.Move)
	}
}

func TestSearchAvoidsLosingMove(t *testing.T) {
	// black to move; stepping to (2,3) lets white jump the last black piece
	b := checkers.NewEmptyBoard().
		With(checkers.Pos(1, 2), checkers.Piece{ID: "b", Player: checkers.Black}).
		With(checkers.Pos(3, 4), checkers.Piece{ID: "w", Player: checkers.White}).
		With(checkers.Pos(7, 0), checkers.Piece{ID: "w2", Player: checkers.White})

	res := NewSearcher(WithClock(fixedClock())).Search(context.Background(), b, checkers.Black, unlimited(2))
	require.True(t, res.Found)
	assert.Equal(t, checkers.Pos(2, 1), res.Move.To)
}

func TestZeroNodeBudgetStillReturnsMove(t *testing.T) {
	b := checkers.NewInitialBoard()
	s := NewSearcher(WithClock(fixedClock()))

	res := s.Search(context.Background(), b, checkers.White, Limits{Depth: 4, TimeLimit: time.Hour, MaxNodes: 0})
	require.True(t, res.Found)
	assert.True(t, res.Aborted)
	assert.True(t, isLegal(b, checkers.White, res.Move))
}

func TestZeroTimeBudgetStillReturnsMove(t *testing.T) {
	b := checkers.NewInitialBoard()
	s := NewSearcher(WithClock(tickingClock(time.Millisecond)))

	m, ok := s.FindBestMove(context.Background(), b, checkers.Black, Limits{Depth: 6, TimeLimit: 0, MaxNodes: math.MaxInt})
	require.True(t, ok)
	assert.True(t, isLegal(b, checkers.Black, m))
}

func TestCancelledContextActsAsExhaustedBudget(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := NewSearcher(WithClock(fixedClock())).Search(ctx, checkers.NewInitialBoard(), checkers.White, unlimited(6))
	require.True(t, res.Found)
	assert.True(t, res.Aborted)
}

func TestSearchWithoutMoves(t *testing.T) {
	s := NewSearcher(WithClock(fixedClock()))

	blocked := checkers.NewEmptyBoard().
		With(checkers.Pos(0, 1), checkers.Piece{ID: "w", Player: checkers.White}).
		With(checkers.Pos(7, 0), checkers.Piece{ID: "b", Player: checkers.Black})
	_, ok := s.FindBestMove(context.Background(), blocked, checkers.White, DefaultLimits())
	assert.False(t, ok)

	res := s.Search(context.Background(), checkers.NewInitialBoard(), checkers.White, Limits{Depth: 0, TimeLimit: time.Hour, MaxNodes: 10})
	assert.False(t, res.Found)
	assert.Equal(t, 1, res.Nodes)
}

func TestFindBestMoveAmongRestrictsRoot(t *testing.T) {
	b := checkers.NewInitialBoard()
	only := checkers.Move{From: checkers.Pos(5, 6), To: checkers.Pos(4, 7)}

	m, ok := NewSearcher(WithClock(fixedClock())).FindBestMoveAmong(context.Background(), b, checkers.White, unlimited(2), []checkers.Move{only})
	require.True(t, ok)
	assert.Equal(t, only, m)
}

func TestPackageFindBestMove(t *testing.T) {
	b := checkers.NewInitialBoard()
	m, ok := FindBestMove(context.Background(), b, checkers.White, Limits{Depth: 2, TimeLimit: time.Minute, MaxNodes: 5000})
	require.True(t, ok)
	assert.True(t, isLegal(b, checkers.White, m))
}
