package checkers

import (
	"fmt"
	"strings"
)

type cell struct {
	piece Piece
	ok    bool
}

// Board is an 8x8 grid held by value. Assigning a Board copies every
// piece, so callers can never observe mutation through another value.
type Board struct {
	cells [Size][Size]cell
}

// NewInitialBoard sets up twelve men per side on the dark cells of the
// three rows nearest each player.
func NewInitialBoard() Board {
	var b Board
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if (r+c)%2 != 1 {
				continue
			}
			switch {
			case r < 3:
				b.put(Pos(r, c), Piece{ID: fmt.Sprintf("b-%d-%d", r, c), Player: Black})
			case r > 4:
				b.put(Pos(r, c), Piece{ID: fmt.Sprintf("w-%d-%d", r, c), Player: White})
			}
		}
	}
	return b
}

// NewEmptyBoard returns a board without pieces, for building positions.
func NewEmptyBoard() Board { return Board{} }

func (b Board) At(pos Position) (Piece, bool) {
	if !InBounds(pos.Row, pos.Col) {
		return Piece{}, false
	}
	c := b.cells[pos.Row][pos.Col]
	return c.piece, c.ok
}

func (b Board) occupied(pos Position) bool {
	_, ok := b.At(pos)
	return ok
}

// With returns a copy of b with piece placed on pos. Out-of-bounds
// positions are ignored.
func (b Board) With(pos Position, piece Piece) Board {
	b.put(pos, piece)
	return b
}

// Without returns a copy of b with pos emptied.
func (b Board) Without(pos Position) Board {
	b.clear(pos)
	return b
}

func (b *Board) put(pos Position, piece Piece) {
	if !InBounds(pos.Row, pos.Col) {
		return
	}
	b.cells[pos.Row][pos.Col] = cell{piece: piece, ok: true}
}

func (b *Board) clear(pos Position) {
	if !InBounds(pos.Row, pos.Col) {
		return
	}
	b.cells[pos.Row][pos.Col] = cell{}
}

func (b Board) Count(p Player) int {
	n := 0
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if cl := b.cells[r][c]; cl.ok && cl.piece.Player == p {
				n++
			}
		}
	}
	return n
}

// Pieces lists the cells holding p's pieces in row-major order.
func (b Board) Pieces(p Player) []Position {
	out := make([]Position, 0, 12)
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if cl := b.cells[r][c]; cl.ok && cl.piece.Player == p {
				out = append(out, Pos(r, c))
			}
		}
	}
	return out
}

// String draws the board as text: w/b men, W/B kings, '.' for empty dark
// cells and ' ' for light ones. Row 0 is printed first.
func (b Board) String() string {
	var sb strings.Builder
	sb.WriteString("  01234567\n")
	for r := 0; r < Size; r++ {
		sb.WriteByte(byte('0' + r))
		sb.WriteByte(' ')
		for c := 0; c < Size; c++ {
			sb.WriteByte(b.glyph(Pos(r, c)))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (b Board) glyph(pos Position) byte {
	p, ok := b.At(pos)
	if !ok {
		if Playable(pos) {
			return '.'
		}
		return ' '
	}
	g := byte('w')
	if p.Player == Black {
		g = 'b'
	}
	if p.King {
		g -= 'a' - 'A'
	}
	return g
}

// ParseBoard reads the String() layout back (header line optional).
// Unknown glyphs are treated as empty cells; IDs are derived from the
// cell the piece is found on.
func ParseBoard(s string) (Board, error) {
	var b Board
	lines := make([]string, 0, Size)
	for _, ln := range strings.Split(strings.TrimRight(s, "\n"), "\n") {
		if strings.HasPrefix(ln, "  01234567") {
			continue
		}
		lines = append(lines, ln)
	}
	if len(lines) != Size {
		return b, fmt.Errorf("board needs %d rows, got %d", Size, len(lines))
	}
	for r, ln := range lines {
		if len(ln) < 2+Size {
			ln += strings.Repeat(" ", 2+Size-len(ln))
		}
		row := ln[2 : 2+Size]
		for c := 0; c < Size; c++ {
			var pc Piece
			switch row[c] {
			case 'w':
				pc = Piece{Player: White}
			case 'W':
				pc = Piece{Player: White, King: true}
			case 'b':
				pc = Piece{Player: Black}
			case 'B':
				pc = Piece{Player: Black, King: true}
			default:
				continue
			}
			pc.ID = fmt.Sprintf("%c-%d-%d", pc.Player[0], r, c)
			b.put(Pos(r, c), pc)
		}
	}
	return b, nil
}
