package checkersdto

type CreateSessionRequest struct {
	Preset string `json:"preset,omitempty"`
	// AIPlayer is "white", "black" or "none"; empty keeps the server default.
	AIPlayer string `json:"ai_player,omitempty"`
}

type SelectRequest struct {
	Row int `json:"row"`
	Col int `json:"col"`
	// Clear drops the selection instead of setting it.
	Clear bool `json:"clear,omitempty"`
}

type MoveRequest = Move

type AIRequest struct {
	Depth int `json:"depth,omitempty"`
}

type SessionList struct {
	Sessions []string `json:"sessions"`
}

type Pong struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}
