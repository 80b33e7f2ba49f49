package checkersdto

type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type Move struct {
	From     Position   `json:"from"`
	To       Position   `json:"to"`
	Captures []Position `json:"captures,omitempty"`
}

type Piece struct {
	ID     string   `json:"id"`
	Player string   `json:"player"`
	King   bool     `json:"king"`
	At     Position `json:"at"`
}

// MovesResponse lists legal moves, optionally for one selected cell.
type MovesResponse struct {
	Turn     string    `json:"turn"`
	Selected *Position `json:"selected,omitempty"`
	Moves    []Move    `json:"moves"`
}

type AIResponse struct {
	Played int           `json:"played"`
	State  *SessionState `json:"state"`
}

type HintResponse struct {
	Found bool  `json:"found"`
	Move  *Move `json:"move,omitempty"`
}
