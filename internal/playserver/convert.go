package playserver

import (
	"strings"

	"github.com/park285/cheese-checkers/internal/checkers"
	"github.com/park285/cheese-checkers/internal/msgcat"
	"github.com/park285/cheese-checkers/internal/session"
	"github.com/park285/cheese-checkers/pkg/checkersdto"
)

func toPositionDTO(p checkers.Position) checkersdto.Position {
	return checkersdto.Position{Row: p.Row, Col: p.Col}
}

func fromPositionDTO(p checkersdto.Position) checkers.Position {
	return checkers.Pos(p.Row, p.Col)
}

func toMoveDTO(m checkers.Move) checkersdto.Move {
	out := checkersdto.Move{From: toPositionDTO(m.From), To: toPositionDTO(m.To)}
	for _, c := range m.Captures {
		out.Captures = append(out.Captures, toPositionDTO(c))
	}
	return out
}

func toMoveDTOs(moves []checkers.Move) []checkersdto.Move {
	out := make([]checkersdto.Move, 0, len(moves))
	for _, m := range moves {
		out = append(out, toMoveDTO(m))
	}
	return out
}

func fromMoveDTO(m checkersdto.Move) checkers.Move {
	out := checkers.Move{From: fromPositionDTO(m.From), To: fromPositionDTO(m.To)}
	for _, c := range m.Captures {
		out.Captures = append(out.Captures, fromPositionDTO(c))
	}
	return out
}

func boardRows(b checkers.Board) []string {
	return strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
}

func toStateDTO(st session.State, cat *msgcat.Catalog) *checkersdto.SessionState {
	out := &checkersdto.SessionState{
		ID:        st.ID,
		Turn:      string(st.Turn),
		Phase:     string(st.Phase),
		Countdown: st.Countdown,
		Result:    string(st.Result),
		AIPlayer:  string(st.AIPlayer),
		Preset:    st.Preset,
		Rows:      boardRows(st.Board),
		Material: checkersdto.Material{
			White: st.Board.Count(checkers.White),
			Black: st.Board.Count(checkers.Black),
		},
		MoveCount: len(st.History),
		Status:    statusText(st, cat),
		UpdatedAt: st.UpdatedAt,
	}
	for _, player := range []checkers.Player{checkers.White, checkers.Black} {
		for _, pos := range st.Board.Pieces(player) {
			pc, _ := st.Board.At(pos)
			out.Pieces = append(out.Pieces, checkersdto.Piece{
				ID:     pc.ID,
				Player: string(pc.Player),
				King:   pc.King,
				At:     toPositionDTO(pos),
			})
		}
	}
	if st.Selected != nil {
		p := toPositionDTO(*st.Selected)
		out.Selected = &p
	}
	if st.Pinned != nil {
		p := toPositionDTO(*st.Pinned)
		out.Pinned = &p
	}
	if st.LastMove != nil {
		m := toMoveDTO(*st.LastMove)
		out.LastMove = &m
	}
	return out
}

func displayName(p checkers.Player) string {
	switch p {
	case checkers.White:
		return "White"
	case checkers.Black:
		return "Black"
	}
	return string(p)
}

func statusText(st session.State, cat *msgcat.Catalog) string {
	who := map[string]any{"Player": displayName(st.Turn)}
	switch {
	case st.Result.Finished():
		key := "finish." + string(st.Result)
		return cat.Text(key, nil, string(st.Result))
	case st.Phase == session.PhaseAIThinking:
		return cat.Text("turn.ai_thinking", who, displayName(st.Turn)+" is thinking")
	case st.Phase == session.PhaseAutoMoveScheduled:
		who["Seconds"] = st.Countdown
		return cat.Text("turn.countdown", who, displayName(st.Turn)+" to move")
	case st.Phase == session.PhaseAwaitingContinuation || st.Pinned != nil:
		return cat.Text("turn.continuation", who, displayName(st.Turn)+" must keep capturing")
	}
	return cat.Text("turn."+string(st.Turn), nil, displayName(st.Turn)+" to move")
}

func hudHeader(st session.State, cat *msgcat.Catalog) string {
	if st.AIPlayer == "" {
		return cat.Text("hud.header_hotseat", nil, "Hot seat")
	}
	return cat.Text("hud.header_ai", map[string]any{"Preset": st.Preset}, "Human vs AI")
}
