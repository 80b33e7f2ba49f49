package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/park285/cheese-checkers/internal/checkers"
	"github.com/park285/cheese-checkers/internal/engine"
	"go.uber.org/zap"
)

var (
	ErrSessionNotFound = errors.New("checkers session not found")
	ErrIllegalMove     = errors.New("illegal checkers move")
	ErrNotYourTurn     = errors.New("not your turn")
	ErrGameFinished    = errors.New("checkers game already finished")
	ErrNoHistory       = errors.New("no moves available to undo")
	ErrOutOfBounds     = errors.New("position out of bounds")
)

type Phase string

const (
	PhaseIdle                 Phase = "idle"
	PhaseAwaitingContinuation Phase = "awaiting_continuation"
	PhaseAutoMoveScheduled    Phase = "auto_move_scheduled"
	PhaseAIThinking           Phase = "ai_thinking"
	PhaseFinished             Phase = "finished"
)

// MoveFinder picks moves for the automated side and for hints.
type MoveFinder interface {
	FindBestMove(ctx context.Context, b checkers.Board, p checkers.Player, limits engine.Limits) (checkers.Move, bool)
	FindBestMoveAmong(ctx context.Context, b checkers.Board, p checkers.Player, limits engine.Limits, candidates []checkers.Move) (checkers.Move, bool)
}

const (
	defaultAutoMoveCountdown = 5
	defaultContinuationDelay = 100 * time.Millisecond
	defaultMaxAIIterations   = 20
	countdownTick            = time.Second
)

type Config struct {
	// AIPlayer is the automated side; empty means both sides are human.
	AIPlayer checkers.Player
	Preset   string
	AILimits engine.Limits
	// HintLimits bound Hint searches for the side to move.
	HintLimits engine.Limits
	// AutoMoveCountdown is in seconds; zero disables the automatic AI move.
	AutoMoveCountdown int
	ContinuationDelay time.Duration
	MaxAIIterations   int
}

func DefaultConfig() Config {
	return Config{
		AIPlayer:          checkers.Black,
		Preset:            "auto",
		AILimits:          engine.AutoPlayLimits(),
		HintLimits:        engine.DefaultLimits(),
		AutoMoveCountdown: defaultAutoMoveCountdown,
		ContinuationDelay: defaultContinuationDelay,
		MaxAIIterations:   defaultMaxAIIterations,
	}
}

func (c Config) normalized() Config {
	if c.AILimits == (engine.Limits{}) {
		c.AILimits = engine.AutoPlayLimits()
	}
	if c.HintLimits == (engine.Limits{}) {
		c.HintLimits = engine.DefaultLimits()
	}
	if c.AutoMoveCountdown < 0 {
		c.AutoMoveCountdown = 0
	}
	if c.ContinuationDelay < 0 {
		c.ContinuationDelay = 0
	}
	if c.MaxAIIterations <= 0 {
		c.MaxAIIterations = defaultMaxAIIterations
	}
	return c
}

// State is an immutable copy of a session for presenters.
type State struct {
	ID        string
	Board     checkers.Board
	Turn      checkers.Player
	History   []checkers.Board
	Selected  *checkers.Position
	// Pinned is the piece that must continue a capture chain, if any.
	Pinned    *checkers.Position
	Phase     Phase
	Countdown int
	Result    checkers.Result
	AIPlayer  checkers.Player
	Preset    string
	LastMove  *checkers.Move
	UpdatedAt time.Time
}

type historyEntry struct {
	board  checkers.Board
	turn   checkers.Player
	pinned *checkers.Position
}

// Session owns one game. Methods are safe for concurrent use; observer
// callbacks run outside the session lock.
type Session struct {
	id     string
	finder MoveFinder
	sched  Scheduler
	cfg    Config
	logger *zap.Logger

	mu         sync.Mutex
	board      checkers.Board
	turn       checkers.Player
	history    []historyEntry
	selected   *checkers.Position
	pinned     *checkers.Position
	phase      Phase
	countdown  int
	result     checkers.Result
	lastMove   *checkers.Move
	aiThinking bool
	version    uint64
	updatedAt  time.Time
	closed     bool

	autoTimer Timer
	autoGen   uint64
	contTimer Timer
	contGen   uint64

	obsMu     sync.RWMutex
	observers []func(State)
}

func New(finder MoveFinder, sched Scheduler, cfg Config, logger *zap.Logger) *Session {
	if sched == nil {
		sched = RealScheduler()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.NewString()
	s := &Session{
		id:     id,
		finder: finder,
		sched:  sched,
		cfg:    cfg.normalized(),
		logger: logger.With(zap.String("session_id", id)),
	}
	s.mu.Lock()
	s.resetLocked()
	s.mu.Unlock()
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) Config() Config { return s.cfg }

// OnChange registers fn to receive a snapshot after every transition.
func (s *Session) OnChange(fn func(State)) {
	if fn == nil {
		return
	}
	s.obsMu.Lock()
	s.observers = append(s.observers, fn)
	s.obsMu.Unlock()
}

func (s *Session) notify(st State) {
	s.obsMu.RLock()
	obs := append([]func(State){}, s.observers...)
	s.obsMu.RUnlock()
	for _, fn := range obs {
		fn(st)
	}
}

func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() State {
	st := State{
		ID:        s.id,
		Board:     s.board,
		Turn:      s.turn,
		Phase:     s.phase,
		Countdown: s.countdown,
		Result:    s.result,
		AIPlayer:  s.cfg.AIPlayer,
		Preset:    s.cfg.Preset,
		UpdatedAt: s.updatedAt,
	}
	if s.aiThinking && s.phase != PhaseFinished {
		st.Phase = PhaseAIThinking
	}
	if len(s.history) > 0 {
		st.History = make([]checkers.Board, len(s.history))
		for i, h := range s.history {
			st.History[i] = h.board
		}
	}
	if s.selected != nil {
		sel := *s.selected
		st.Selected = &sel
	}
	if s.pinned != nil {
		pin := *s.pinned
		st.Pinned = &pin
	}
	if s.lastMove != nil {
		lm := *s.lastMove
		lm.Captures = append([]checkers.Position(nil), lm.Captures...)
		st.LastMove = &lm
	}
	return st
}

// LastActivity is the time of the last state change.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

func (s *Session) touchLocked() {
	s.version++
	s.updatedAt = s.sched.Now()
}

// Select marks pos as the selected source cell; nil clears it.
func (s *Session) Select(pos *checkers.Position) error {
	s.mu.Lock()
	if pos == nil {
		s.selected = nil
	} else {
		if !checkers.InBounds(pos.Row, pos.Col) {
			s.mu.Unlock()
			return fmt.Errorf("%w: %s", ErrOutOfBounds, pos)
		}
		p := *pos
		s.selected = &p
	}
	s.updatedAt = s.sched.Now()
	st := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(st)
	return nil
}

// LegalMoves lists the moves the side to move may play now. During a
// capture chain only the pinned piece's continuations are legal.
func (s *Session) LegalMoves() []checkers.Move {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result.Finished() {
		return nil
	}
	return s.legalMovesLocked()
}

func (s *Session) legalMovesLocked() []checkers.Move {
	if s.pinned != nil {
		if cont := checkers.CapturesFrom(s.board, *s.pinned); len(cont) > 0 {
			return cont
		}
	}
	return checkers.GenerateValidMoves(s.board, s.turn)
}

func (s *Session) ValidMovesForSelected() []checkers.Move {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil || s.result.Finished() {
		return nil
	}
	var out []checkers.Move
	for _, m := range s.legalMovesLocked() {
		if m.From == *s.selected {
			out = append(out, m)
		}
	}
	return out
}

func (s *Session) isAITurnLocked() bool {
	return s.cfg.AIPlayer != "" && s.turn == s.cfg.AIPlayer
}

// MakeMove plays m for the human side. The move must be legal in the
// current position; a request without captures matches the unique legal
// move with the same endpoints.
func (s *Session) MakeMove(m checkers.Move) error {
	s.mu.Lock()
	if s.result.Finished() {
		s.mu.Unlock()
		return ErrGameFinished
	}
	if s.isAITurnLocked() {
		s.mu.Unlock()
		return ErrNotYourTurn
	}
	st, err := s.applyLocked(m, true)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.notify(st)
	return nil
}

func (s *Session) applyLocked(m checkers.Move, schedule bool) (State, error) {
	if s.result.Finished() {
		return State{}, ErrGameFinished
	}
	mv, ok := checkers.ContainsMove(s.legalMovesLocked(), m)
	if !ok {
		return State{}, fmt.Errorf("%w: %s", ErrIllegalMove, m)
	}

	s.cancelContinuationLocked()
	s.cancelAutoMoveLocked()

	mover := s.turn
	s.history = append(s.history, historyEntry{board: s.board, turn: s.turn, pinned: s.pinned})
	s.board = checkers.ApplyMove(s.board, mv)
	s.lastMove = &mv
	s.touchLocked()

	next, cont := checkers.NextTurn(s.board, mover, mv)
	s.turn = next

	if res := checkers.Winner(s.board); res.Finished() {
		s.result = res
		s.phase = PhaseFinished
		s.selected, s.pinned = nil, nil
		s.logger.Info("checkers game finished",
			zap.String("result", string(res)),
			zap.Int("plies", len(s.history)),
		)
		return s.snapshotLocked(), nil
	}

	if len(cont) > 0 {
		landing := mv.To
		sel := landing
		s.pinned, s.selected = &landing, &sel
		s.phase = PhaseAwaitingContinuation
		if schedule && len(cont) == 1 {
			s.scheduleContinuationLocked(cont[0])
		}
		return s.snapshotLocked(), nil
	}

	s.selected, s.pinned = nil, nil
	s.phase = PhaseIdle
	if schedule && s.isAITurnLocked() {
		s.startCountdownLocked()
	}
	return s.snapshotLocked(), nil
}

func (s *Session) scheduleContinuationLocked(m checkers.Move) {
	gen := s.contGen
	s.contTimer = s.sched.AfterFunc(s.cfg.ContinuationDelay, func() {
		s.mu.Lock()
		if s.closed || gen != s.contGen {
			s.mu.Unlock()
			return
		}
		s.contTimer = nil
		st, err := s.applyLocked(m, true)
		s.mu.Unlock()
		if err != nil {
			s.logger.Warn("scheduled continuation failed", zap.String("move", m.String()), zap.Error(err))
			return
		}
		s.notify(st)
	})
}

func (s *Session) cancelContinuationLocked() {
	s.contGen++
	if s.contTimer != nil {
		s.contTimer.Stop()
		s.contTimer = nil
	}
}

func (s *Session) startCountdownLocked() {
	if s.cfg.AutoMoveCountdown <= 0 {
		return
	}
	s.cancelAutoMoveLocked()
	s.phase = PhaseAutoMoveScheduled
	s.countdown = s.cfg.AutoMoveCountdown
	s.scheduleTickLocked()
}

func (s *Session) scheduleTickLocked() {
	gen := s.autoGen
	s.autoTimer = s.sched.AfterFunc(countdownTick, func() { s.tick(gen) })
}

func (s *Session) tick(gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.autoGen || s.phase != PhaseAutoMoveScheduled {
		s.mu.Unlock()
		return
	}
	s.countdown--
	if s.countdown > 0 {
		s.scheduleTickLocked()
		st := s.snapshotLocked()
		s.mu.Unlock()
		s.notify(st)
		return
	}
	s.countdown = 0
	s.autoTimer = nil
	s.phase = PhaseIdle
	s.mu.Unlock()

	if _, err := s.AIMove(context.Background(), 0); err != nil {
		s.logger.Warn("automatic ai move failed", zap.Error(err))
	}
}

func (s *Session) cancelAutoMoveLocked() {
	s.autoGen++
	if s.autoTimer != nil {
		s.autoTimer.Stop()
		s.autoTimer = nil
	}
	s.countdown = 0
	if s.phase == PhaseAutoMoveScheduled {
		s.phase = PhaseIdle
	}
}

// AIMove plays for the automated side until the turn passes, applying
// forced continuations immediately. depth <= 0 keeps the configured
// depth. It returns the number of moves played.
func (s *Session) AIMove(ctx context.Context, depth int) (int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	if s.aiThinking {
		s.mu.Unlock()
		return 0, nil
	}
	if s.result.Finished() {
		s.mu.Unlock()
		return 0, ErrGameFinished
	}
	if !s.isAITurnLocked() {
		s.mu.Unlock()
		return 0, nil
	}
	s.cancelAutoMoveLocked()
	s.aiThinking = true
	s.updatedAt = s.sched.Now()
	st := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(st)

	defer func() {
		s.mu.Lock()
		s.aiThinking = false
		st := s.snapshotLocked()
		s.mu.Unlock()
		s.notify(st)
	}()

	limits := s.cfg.AILimits.WithDepth(depth)
	played := 0
	for iter := 0; ; iter++ {
		s.mu.Lock()
		if s.closed || s.result.Finished() || !s.isAITurnLocked() {
			s.mu.Unlock()
			return played, nil
		}
		if iter >= s.cfg.MaxAIIterations {
			s.mu.Unlock()
			s.logger.Warn("ai move loop guard reached", zap.Int("iterations", iter))
			return played, nil
		}
		board, turn, version := s.board, s.turn, s.version
		var cont []checkers.Move
		if s.pinned != nil {
			cont = checkers.CapturesFrom(board, *s.pinned)
		}
		s.mu.Unlock()

		var (
			mv    checkers.Move
			found bool
		)
		if len(cont) > 0 {
			mv, found = s.finder.FindBestMoveAmong(ctx, board, turn, limits, cont)
		} else {
			mv, found = s.finder.FindBestMove(ctx, board, turn, limits)
		}
		if !found {
			s.logger.Info("ai found no move", zap.String("player", string(turn)))
			return played, nil
		}

		s.mu.Lock()
		if s.version != version {
			s.mu.Unlock()
			s.logger.Info("session changed during ai search, discarding move")
			return played, nil
		}
		st, err := s.applyLocked(mv, false)
		s.mu.Unlock()
		if err != nil {
			s.logger.Warn("ai produced unusable move", zap.String("move", mv.String()), zap.Error(err))
			return played, err
		}
		played++
		s.notify(st)
	}
}

// Hint returns the best move for the side to move without playing it.
func (s *Session) Hint(ctx context.Context) (checkers.Move, bool) {
	s.mu.Lock()
	if s.result.Finished() {
		s.mu.Unlock()
		return checkers.Move{}, false
	}
	board, turn := s.board, s.turn
	var cont []checkers.Move
	if s.pinned != nil {
		cont = checkers.CapturesFrom(board, *s.pinned)
	}
	s.mu.Unlock()
	if len(cont) > 0 {
		return s.finder.FindBestMoveAmong(ctx, board, turn, s.cfg.HintLimits, cont)
	}
	return s.finder.FindBestMove(ctx, board, turn, s.cfg.HintLimits)
}

func (s *Session) Reset() {
	s.mu.Lock()
	s.resetLocked()
	st := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(st)
}

func (s *Session) resetLocked() {
	s.cancelContinuationLocked()
	s.cancelAutoMoveLocked()
	s.board = checkers.NewInitialBoard()
	s.turn = checkers.White
	s.history = nil
	s.selected, s.pinned = nil, nil
	s.phase = PhaseIdle
	s.result = checkers.ResultNone
	s.lastMove = nil
	s.touchLocked()
	if s.isAITurnLocked() {
		s.startCountdownLocked()
	}
}

// Undo rewinds to the start of the last turn a human side played. Capture
// chain steps and automated replies are rewound along with it.
func (s *Session) Undo() error {
	s.mu.Lock()
	if len(s.history) == 0 {
		s.mu.Unlock()
		return ErrNoHistory
	}
	if s.aiThinking {
		s.mu.Unlock()
		return ErrNotYourTurn
	}
	s.cancelContinuationLocked()
	s.cancelAutoMoveLocked()

	for len(s.history) > 0 {
		last := s.history[len(s.history)-1]
		s.history = s.history[:len(s.history)-1]
		s.board, s.turn, s.pinned = last.board, last.turn, last.pinned
		if s.pinned == nil && !s.isAITurnLocked() {
			break
		}
	}

	s.result = checkers.ResultNone
	s.lastMove = nil
	s.selected = nil
	s.phase = PhaseIdle
	s.touchLocked()
	if s.pinned == nil && s.isAITurnLocked() {
		s.startCountdownLocked()
	}
	st := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(st)
	return nil
}

// Close stops pending timers; later callbacks are ignored.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.cancelContinuationLocked()
	s.cancelAutoMoveLocked()
	s.mu.Unlock()
}
