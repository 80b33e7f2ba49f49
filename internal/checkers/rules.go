package checkers

type direction struct{ dr, dc int }

var (
	whiteDirs = []direction{{-1, -1}, {-1, 1}}
	blackDirs = []direction{{1, -1}, {1, 1}}
	kingDirs  = []direction{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}
)

func directionsFor(p Piece) []direction {
	if p.King {
		return kingDirs
	}
	if p.Player == White {
		return whiteDirs
	}
	return blackDirs
}

func promotionRow(p Player) int {
	if p == White {
		return 0
	}
	return Size - 1
}

func simpleMoves(b Board, from Position, piece Piece) []Move {
	var out []Move
	for _, d := range directionsFor(piece) {
		to := from.offset(d.dr, d.dc)
		if !InBounds(to.Row, to.Col) || b.occupied(to) {
			continue
		}
		out = append(out, Move{From: from, To: to})
	}
	return out
}

type jumpPath struct {
	to       Position
	captures []Position
}

// CapturesFrom lists every maximal capture chain the piece on from can
// make, without the longest-chain filter. It is also the continuation
// query after a capture lands. Empty cell or no captures yields nil.
func CapturesFrom(b Board, from Position) []Move {
	piece, ok := b.At(from)
	if !ok {
		return nil
	}
	paths := jumpPaths(b, from, directionsFor(piece))
	if len(paths) == 0 {
		return nil
	}
	out := make([]Move, 0, len(paths))
	for _, p := range paths {
		out = append(out, Move{From: from, To: p.to, Captures: p.captures})
	}
	return out
}

// jumpPaths explores capture chains depth first on private copies. The
// king flag is read from the board at every step; the piece is not
// promoted while the chain is in progress.
func jumpPaths(b Board, at Position, base []direction) []jumpPath {
	mover, ok := b.At(at)
	if !ok {
		return nil
	}
	dirs := base
	if mover.King {
		dirs = kingDirs
	}
	var out []jumpPath
	for _, d := range dirs {
		over := at.offset(d.dr, d.dc)
		land := at.offset(2*d.dr, 2*d.dc)
		if !InBounds(land.Row, land.Col) {
			continue
		}
		jumped, ok := b.At(over)
		if !ok || jumped.Player == mover.Player || b.occupied(land) {
			continue
		}
		next := b
		next.clear(at)
		next.clear(over)
		next.put(land, mover)

		further := jumpPaths(next, land, base)
		if len(further) == 0 {
			out = append(out, jumpPath{to: land, captures: []Position{over}})
			continue
		}
		for _, f := range further {
			caps := make([]Position, 0, len(f.captures)+1)
			caps = append(caps, over)
			caps = append(caps, f.captures...)
			out = append(out, jumpPath{to: f.to, captures: caps})
		}
	}
	return out
}

// GenerateValidMoves returns the legal moves for player. When any capture
// exists only captures are legal, and only those with the highest
// capture count. Order follows a row-major scan of the pieces.
func GenerateValidMoves(b Board, player Player) []Move {
	var all []Move
	hasCapture := false
	for _, from := range b.Pieces(player) {
		piece, _ := b.At(from)
		if caps := CapturesFrom(b, from); len(caps) > 0 {
			all = append(all, caps...)
			hasCapture = true
			continue
		}
		all = append(all, simpleMoves(b, from, piece)...)
	}
	if !hasCapture {
		return all
	}

	longest := 0
	for _, m := range all {
		if len(m.Captures) > longest {
			longest = len(m.Captures)
		}
	}
	out := all[:0:0]
	for _, m := range all {
		if len(m.Captures) == longest {
			out = append(out, m)
		}
	}
	return out
}

// ApplyMove returns the board after m. The move is not validated; an
// empty source cell yields an unchanged copy.
func ApplyMove(b Board, m Move) Board {
	next := b
	piece, ok := next.At(m.From)
	if !ok {
		return next
	}
	next.clear(m.From)
	for _, c := range m.Captures {
		next.clear(c)
	}
	if m.To.Row == promotionRow(piece.Player) {
		piece.King = true
	}
	next.put(m.To, piece)
	return next
}

func HasAnyMoves(b Board, player Player) bool {
	return len(GenerateValidMoves(b, player)) > 0
}

// Winner decides on piece counts first, then on mobility.
func Winner(b Board) Result {
	switch {
	case b.Count(White) == 0:
		return ResultBlack
	case b.Count(Black) == 0:
		return ResultWhite
	}
	whiteCan := HasAnyMoves(b, White)
	blackCan := HasAnyMoves(b, Black)
	switch {
	case !whiteCan && !blackCan:
		return ResultDraw
	case !whiteCan:
		return ResultBlack
	case !blackCan:
		return ResultWhite
	}
	return ResultNone
}

// NextTurn reports who moves after mover played m on the board that
// produced after. A capture whose landing piece can capture again keeps
// the turn; the returned moves are then the only legal continuations.
func NextTurn(after Board, mover Player, m Move) (Player, []Move) {
	if !m.IsCapture() {
		return mover.Opponent(), nil
	}
	if cont := CapturesFrom(after, m.To); len(cont) > 0 {
		return mover, cont
	}
	return mover.Opponent(), nil
}

// ContainsMove finds m in moves. An exact match wins; otherwise a
// request without captures matches the first move with the same from/to
// in generation order.
func ContainsMove(moves []Move, m Move) (Move, bool) {
	loose := -1
	for i, cand := range moves {
		if cand.Equal(m) {
			return cloneMove(cand), true
		}
		if loose < 0 && len(m.Captures) == 0 && cand.From == m.From && cand.To == m.To {
			loose = i
		}
	}
	if loose >= 0 {
		return cloneMove(moves[loose]), true
	}
	return Move{}, false
}
