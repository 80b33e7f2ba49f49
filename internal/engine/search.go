package engine

import (
	"context"
	"math"
	"time"

	"github.com/park285/cheese-checkers/internal/checkers"
	"go.uber.org/zap"
)

// WinScore is assigned to a move that ends the game in the mover's favour.
const WinScore = 10000.0

// Clock returns the current time; injected for deterministic tests.
type Clock func() time.Time

// Result carries the chosen move together with search statistics.
type Result struct {
	Move    checkers.Move
	Found   bool
	Score   float64
	Nodes   int
	Elapsed time.Duration
	Aborted bool
}

// Searcher runs fixed-depth negamax with alpha-beta pruning under a
// time and node budget. A Searcher holds no per-search state and is
// safe for concurrent use.
type Searcher struct {
	eval   *Evaluator
	now    Clock
	logger *zap.Logger
}

type Option func(*Searcher)

func WithClock(now Clock) Option {
	return func(s *Searcher) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Searcher) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithEvaluator(e *Evaluator) Option {
	return func(s *Searcher) {
		if e != nil {
			s.eval = e
		}
	}
}

func NewSearcher(opts ...Option) *Searcher {
	s := &Searcher{eval: defaultEvaluator, now: time.Now, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var defaultSearcher = NewSearcher()

// FindBestMove searches with the default searcher.
func FindBestMove(ctx context.Context, b checkers.Board, player checkers.Player, limits Limits) (checkers.Move, bool) {
	return defaultSearcher.FindBestMove(ctx, b, player, limits)
}

func (s *Searcher) FindBestMove(ctx context.Context, b checkers.Board, player checkers.Player, limits Limits) (checkers.Move, bool) {
	res := s.Search(ctx, b, player, limits)
	return res.Move, res.Found
}

// FindBestMoveAmong restricts the root to candidates, e.g. the forced
// continuations of a capture chain. Empty candidates means all legal moves.
func (s *Searcher) FindBestMoveAmong(ctx context.Context, b checkers.Board, player checkers.Player, limits Limits, candidates []checkers.Move) (checkers.Move, bool) {
	res := s.SearchMoves(ctx, b, player, limits, candidates)
	return res.Move, res.Found
}

func (s *Searcher) Search(ctx context.Context, b checkers.Board, player checkers.Player, limits Limits) Result {
	return s.SearchMoves(ctx, b, player, limits, nil)
}

type searchState struct {
	ctx    context.Context
	start  time.Time
	limits Limits
	nodes  int

	aborted bool
}

func (s *Searcher) SearchMoves(ctx context.Context, b checkers.Board, player checkers.Player, limits Limits, candidates []checkers.Move) Result {
	if ctx == nil {
		ctx = context.Background()
	}
	st := &searchState{ctx: ctx, start: s.now(), limits: limits}

	score, move, found := s.negamax(st, b, player, limits.Depth, math.Inf(-1), math.Inf(1), candidates)

	res := Result{
		Move:    move,
		Found:   found,
		Score:   score,
		Nodes:   st.nodes,
		Elapsed: s.now().Sub(st.start),
		Aborted: st.aborted,
	}
	s.logger.Debug("checkers search finished",
		zap.String("player", string(player)),
		zap.Int("depth", limits.Depth),
		zap.Int("nodes", res.Nodes),
		zap.Duration("elapsed", res.Elapsed),
		zap.Float64("score", res.Score),
		zap.Bool("aborted", res.Aborted),
		zap.Bool("found", res.Found),
	)
	return res
}

func (s *Searcher) exhausted(st *searchState) bool {
	if s.now().Sub(st.start) > st.limits.TimeLimit {
		return true
	}
	if st.nodes > st.limits.MaxNodes {
		return true
	}
	return st.ctx.Err() != nil
}

// negamax scores b for player. The root always expands its moves, using
// rootMoves when given; deeper nodes fall back to the static evaluation
// once the budget is spent.
func (s *Searcher) negamax(st *searchState, b checkers.Board, player checkers.Player, depth int, alpha, beta float64, rootMoves []checkers.Move) (float64, checkers.Move, bool) {
	root := st.nodes == 0
	st.nodes++

	if !root && s.exhausted(st) {
		st.aborted = true
		return s.eval.Evaluate(b, player), checkers.Move{}, false
	}

	moves := rootMoves
	if !root || len(moves) == 0 {
		moves = checkers.GenerateValidMoves(b, player)
	}
	if depth <= 0 || len(moves) == 0 {
		return s.eval.Evaluate(b, player), checkers.Move{}, false
	}

	opponent := player.Opponent()
	best := math.Inf(-1)
	var bestMove checkers.Move
	found := false

	for _, m := range moves {
		next := checkers.ApplyMove(b, m)

		var score float64
		switch checkers.Winner(next) {
		case checkers.WinFor(player):
			score = WinScore
		case checkers.WinFor(opponent):
			score = -WinScore
		default:
			// a draw is not a loss for the mover; it falls through to the
			// child, which has no moves and scores statically
			child, _, _ := s.negamax(st, next, opponent, depth-1, -beta, -alpha, nil)
			score = -child
		}

		if score > best {
			best, bestMove, found = score, m, true
		}
		alpha = math.Max(alpha, score)
		if alpha >= beta {
			break
		}
	}
	return best, bestMove, found
}
