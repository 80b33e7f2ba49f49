package engine

import (
	"github.com/park285/cheese-checkers/internal/checkers"
)

const (
	manValue       = 3.0
	kingValue      = 5.0
	mobilityWeight = 0.1
)

type moveGenerator func(checkers.Board, checkers.Player) []checkers.Move

// Evaluator scores a board from one player's point of view: material
// (man 3, king 5) plus a tenth of the legal-move difference.
type Evaluator struct {
	moves moveGenerator
}

func NewEvaluator() *Evaluator {
	return &Evaluator{moves: checkers.GenerateValidMoves}
}

var defaultEvaluator = NewEvaluator()

// Evaluate scores b for player with the default evaluator.
func Evaluate(b checkers.Board, player checkers.Player) float64 {
	return defaultEvaluator.Evaluate(b, player)
}

func (e *Evaluator) Evaluate(b checkers.Board, player checkers.Player) float64 {
	return material(b, player) + e.mobility(b, player)
}

func material(b checkers.Board, player checkers.Player) float64 {
	score := 0.0
	for r := 0; r < checkers.Size; r++ {
		for c := 0; c < checkers.Size; c++ {
			p, ok := b.At(checkers.Pos(r, c))
			if !ok {
				continue
			}
			v := manValue
			if p.King {
				v = kingValue
			}
			if p.Player == player {
				score += v
			} else {
				score -= v
			}
		}
	}
	return score
}

// mobility contributes zero if move generation fails.
func (e *Evaluator) mobility(b checkers.Board, player checkers.Player) (score float64) {
	defer func() {
		if r := recover(); r != nil {
			score = 0
		}
	}()
	own := len(e.moves(b, player))
	opp := len(e.moves(b, player.Opponent()))
	return mobilityWeight * float64(own-opp)
}
