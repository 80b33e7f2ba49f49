package checkers

import (
	"fmt"
	"strings"
)

// Size is the number of rows and columns on the board.
const Size = 8

type Player string

const (
	White Player = "white"
	Black Player = "black"
)

func (p Player) Opponent() Player {
	if p == White {
		return Black
	}
	return White
}

func (p Player) Valid() bool { return p == White || p == Black }

// ParsePlayer accepts "white"/"black" and the single-letter forms.
func ParsePlayer(s string) (Player, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "w":
		return White, nil
	case "black", "b":
		return Black, nil
	}
	return "", fmt.Errorf("unknown player: %q", s)
}

// Position addresses a cell. Row 0 is black's home edge, row 7 is white's.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func Pos(row, col int) Position { return Position{Row: row, Col: col} }

func (p Position) offset(dr, dc int) Position {
	return Position{Row: p.Row + dr, Col: p.Col + dc}
}

func (p Position) String() string { return fmt.Sprintf("%d,%d", p.Row, p.Col) }

// InBounds reports whether (row, col) lies on the 8x8 board.
func InBounds(row, col int) bool {
	return row >= 0 && row < Size && col >= 0 && col < Size
}

// Playable reports whether pos is one of the 32 dark cells pieces use.
func Playable(pos Position) bool {
	return InBounds(pos.Row, pos.Col) && (pos.Row+pos.Col)%2 == 1
}

type Piece struct {
	ID     string `json:"id"`
	Player Player `json:"player"`
	King   bool   `json:"king"`
}

// Move is a simple step when Captures is empty, otherwise a full capture
// chain with the jumped cells in jump order.
type Move struct {
	From     Position   `json:"from"`
	To       Position   `json:"to"`
	Captures []Position `json:"captures,omitempty"`
}

func (m Move) IsCapture() bool { return len(m.Captures) > 0 }

func (m Move) Equal(o Move) bool {
	if m.From != o.From || m.To != o.To || len(m.Captures) != len(o.Captures) {
		return false
	}
	for i := range m.Captures {
		if m.Captures[i] != o.Captures[i] {
			return false
		}
	}
	return true
}

func (m Move) String() string {
	if !m.IsCapture() {
		return m.From.String() + "-" + m.To.String()
	}
	parts := make([]string, 0, len(m.Captures))
	for _, c := range m.Captures {
		parts = append(parts, c.String())
	}
	return m.From.String() + "x" + m.To.String() + " [" + strings.Join(parts, " ") + "]"
}

func cloneMove(m Move) Move {
	if len(m.Captures) > 0 {
		m.Captures = append([]Position(nil), m.Captures...)
	}
	return m
}

type Result string

const (
	ResultNone  Result = ""
	ResultWhite Result = "white"
	ResultBlack Result = "black"
	ResultDraw  Result = "draw"
)

// WinFor is the result in which p has won.
func WinFor(p Player) Result {
	if p == White {
		return ResultWhite
	}
	return ResultBlack
}

func (r Result) Finished() bool { return r != ResultNone }
