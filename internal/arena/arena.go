package arena

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/park285/cheese-checkers/internal/checkers"
	"github.com/park285/cheese-checkers/internal/engine"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Player is one engine configuration taking part in a match.
type Player struct {
	Name   string
	Limits engine.Limits
}

type Config struct {
	Games       int
	Concurrency int
	A, B        Player
	// MaxPlies caps a game; reaching it scores a draw.
	MaxPlies int
	// RandomPlies opening moves are picked at random so games differ.
	RandomPlies int
	Seed        int64
}

func (c Config) normalized() Config {
	if c.Games <= 0 {
		c.Games = 2
	}
	if c.Concurrency <= 0 {
		c.Concurrency = runtime.GOMAXPROCS(0)
	}
	if c.MaxPlies <= 0 {
		c.MaxPlies = 200
	}
	if c.RandomPlies < 0 {
		c.RandomPlies = 0
	}
	return c
}

type gameInfo struct {
	number     int
	aIsWhite   bool
	randomSeed int64
}

type GameResult struct {
	Number   int
	AIsWhite bool
	Result   checkers.Result
	Plies    int
	// Capped is set when the game hit MaxPlies.
	Capped  bool
	Elapsed time.Duration
}

// AScore is 1 for an A win, 0.5 for a draw and 0 for a loss.
func (g GameResult) AScore() float64 {
	switch {
	case g.Result == checkers.ResultDraw:
		return 0.5
	case g.Result == checkers.ResultWhite && g.AIsWhite, g.Result == checkers.ResultBlack && !g.AIsWhite:
		return 1
	}
	return 0
}

// Summary counts results from engine A's point of view.
type Summary struct {
	Games   int
	Wins    int
	Losses  int
	Draws   int
	Results []GameResult
}

func (s *Summary) add(r GameResult) {
	s.Games++
	switch r.AScore() {
	case 1:
		s.Wins++
	case 0.5:
		s.Draws++
	default:
		s.Losses++
	}
	s.Results = append(s.Results, r)
}

type Stat struct {
	WinningFraction float64
	EloDifference   float64
	LOS             float64
}

func (s Summary) Stat() Stat {
	return computeStat(s.Wins, s.Losses, s.Draws)
}

func (s Summary) String() string {
	st := s.Stat()
	return fmt.Sprintf("%d - %d - %d [%.3f] elo %+.1f los %.1f%%",
		s.Wins, s.Losses, s.Draws, st.WinningFraction, st.EloDifference, st.LOS*100)
}

// Run plays cfg.Games games between A and B, alternating colours, on
// cfg.Concurrency workers. Each worker owns its searcher and boards.
func Run(ctx context.Context, cfg Config, logger *zap.Logger) (Summary, error) {
	cfg = cfg.normalized()
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("arena started",
		zap.Int("games", cfg.Games),
		zap.Int("concurrency", cfg.Concurrency),
		zap.String("a", cfg.A.Name),
		zap.String("b", cfg.B.Name),
	)

	g, ctx := errgroup.WithContext(ctx)
	infos := make(chan gameInfo)
	results := make(chan GameResult)

	g.Go(func() error {
		defer close(infos)
		seeds := rand.New(rand.NewSource(cfg.Seed))
		for i := 0; i < cfg.Games; i++ {
			info := gameInfo{number: i + 1, aIsWhite: i%2 == 0, randomSeed: seeds.Int63()}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case infos <- info:
			}
		}
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < cfg.Concurrency; i++ {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			searcher := engine.NewSearcher(engine.WithLogger(logger))
			for info := range infos {
				res, err := playGame(ctx, searcher, cfg, info)
				if err != nil {
					return err
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				case results <- res:
				}
			}
			return nil
		})
	}

	g.Go(func() error {
		wg.Wait()
		close(results)
		return nil
	})

	var summary Summary
	for res := range results {
		summary.add(res)
		logger.Info("arena game finished",
			zap.Int("game", res.Number),
			zap.Bool("a_white", res.AIsWhite),
			zap.String("result", string(res.Result)),
			zap.Int("plies", res.Plies),
			zap.Bool("capped", res.Capped),
			zap.Duration("elapsed", res.Elapsed),
			zap.String("score", summary.String()),
		)
	}
	if err := g.Wait(); err != nil {
		return summary, err
	}
	return summary, nil
}

// playGame runs one game. Forced capture continuations are resolved by
// searching among them only, the same way a session does.
func playGame(ctx context.Context, searcher *engine.Searcher, cfg Config, info gameInfo) (GameResult, error) {
	start := time.Now()
	rng := rand.New(rand.NewSource(info.randomSeed))
	res := GameResult{Number: info.number, AIsWhite: info.aIsWhite}

	limitsFor := func(p checkers.Player) engine.Limits {
		if (p == checkers.White) == info.aIsWhite {
			return cfg.A.Limits
		}
		return cfg.B.Limits
	}

	board := checkers.NewInitialBoard()
	turn := checkers.White
	var cont []checkers.Move

	for res.Plies < cfg.MaxPlies {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if r := checkers.Winner(board); r.Finished() {
			res.Result = r
			res.Elapsed = time.Since(start)
			return res, nil
		}

		moves := cont
		if len(moves) == 0 {
			moves = checkers.GenerateValidMoves(board, turn)
		}
		var mv checkers.Move
		if res.Plies < cfg.RandomPlies && len(cont) == 0 {
			mv = moves[rng.Intn(len(moves))]
		} else {
			var found bool
			mv, found = searcher.FindBestMoveAmong(ctx, board, turn, limitsFor(turn), moves)
			if !found {
				// Winner already covers a side without moves.
				return res, fmt.Errorf("game %d: no move found for %s", info.number, turn)
			}
		}

		board = checkers.ApplyMove(board, mv)
		turn, cont = checkers.NextTurn(board, turn, mv)
		res.Plies++
	}

	res.Result = checkers.Winner(board)
	if !res.Result.Finished() {
		res.Result = checkers.ResultDraw
		res.Capped = true
	}
	res.Elapsed = time.Since(start)
	return res, nil
}

func computeStat(wins, losses, draws int) Stat {
	games := wins + losses + draws
	if games == 0 {
		return Stat{WinningFraction: 0.5, LOS: 0.5}
	}
	wf := (float64(wins) + 0.5*float64(draws)) / float64(games)
	var elo float64
	switch {
	case wf <= 0:
		elo = math.Inf(-1)
	case wf >= 1:
		elo = math.Inf(1)
	default:
		elo = -math.Log(1/wf-1) * 400 / math.Ln10
	}
	los := 0.5
	if decisive := wins + losses; decisive > 0 {
		los = 0.5 + 0.5*math.Erf(float64(wins-losses)/math.Sqrt(2*float64(decisive)))
	}
	return Stat{WinningFraction: wf, EloDifference: elo, LOS: los}
}
