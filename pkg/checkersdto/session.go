package checkersdto

import "time"

type Material struct {
	White int `json:"white"`
	Black int `json:"black"`
}

type SessionState struct {
	ID        string    `json:"id"`
	Turn      string    `json:"turn"`
	Phase     string    `json:"phase"`
	Countdown int       `json:"countdown,omitempty"`
	Result    string    `json:"result,omitempty"`
	AIPlayer  string    `json:"ai_player,omitempty"`
	Preset    string    `json:"preset"`
	Pieces    []Piece   `json:"pieces"`
	Rows      []string  `json:"rows"`
	Selected  *Position `json:"selected,omitempty"`
	Pinned    *Position `json:"pinned,omitempty"`
	LastMove  *Move     `json:"last_move,omitempty"`
	Material  Material  `json:"material"`
	MoveCount int       `json:"move_count"`
	// Status is a human readable line: whose turn, countdown or result.
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Event mirrors the server's event bus message.
type Event struct {
	SessionID string        `json:"session_id"`
	Type      string        `json:"type"`
	State     *SessionState `json:"payload,omitempty"`
	At        time.Time     `json:"at"`
}
