package playserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/park285/cheese-checkers/internal/checkers"
	"github.com/park285/cheese-checkers/internal/engine"
	"github.com/park285/cheese-checkers/internal/render"
	"github.com/park285/cheese-checkers/internal/session"
	"github.com/park285/cheese-checkers/pkg/checkersdto"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 16

// decodeBody reads an optional JSON body; an empty body leaves dst as is.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func (s *Server) sessionFrom(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := chi.URLParam(r, "id")
	sess, err := s.mgr.Get(id)
	if err != nil {
		s.writeError(w, err, map[string]any{"ID": id})
		return nil, false
	}
	return sess, true
}

func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, checkersdto.Pong{Status: "ok", Sessions: s.mgr.Len()})
}

func (s *Server) handleListSessions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, checkersdto.SessionList{Sessions: s.mgr.IDs()})
}

func (s *Server) sessionConfig(req checkersdto.CreateSessionRequest) (session.Config, error) {
	cfg := s.defaults
	if name := strings.TrimSpace(req.Preset); name != "" {
		cfg.Preset = name
	}
	if cfg.Preset != "" {
		p, err := engine.GetPreset(cfg.Preset)
		if err != nil {
			return cfg, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		limits, err := engine.LimitsFromPreset(p)
		if err != nil {
			return cfg, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		cfg.Preset = p.Name
		cfg.AILimits = limits
	}
	switch v := strings.ToLower(strings.TrimSpace(req.AIPlayer)); v {
	case "":
	case "none", "off", "hotseat":
		cfg.AIPlayer = ""
	default:
		p, err := checkers.ParsePlayer(v)
		if err != nil {
			return cfg, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		cfg.AIPlayer = p
	}
	return cfg, nil
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req checkersdto.CreateSessionRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err, nil)
		return
	}
	cfg, err := s.sessionConfig(req)
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	sess := s.mgr.Create(cfg)
	writeJSON(w, http.StatusCreated, toStateDTO(sess.Snapshot(), s.cat))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toStateDTO(sess.Snapshot(), s.cat))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.mgr.Delete(id); err != nil {
		s.writeError(w, err, map[string]any{"ID": id})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return
	}
	var req checkersdto.SelectRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err, nil)
		return
	}
	var pos *checkers.Position
	if !req.Clear {
		p := checkers.Pos(req.Row, req.Col)
		pos = &p
	}
	if err := sess.Select(pos); err != nil {
		s.writeError(w, err, map[string]any{"Cell": fmt.Sprintf("%d,%d", req.Row, req.Col)})
		return
	}
	st := sess.Snapshot()
	resp := checkersdto.MovesResponse{Turn: string(st.Turn), Moves: toMoveDTOs(sess.ValidMovesForSelected())}
	if pos != nil {
		p := toPositionDTO(*pos)
		resp.Selected = &p
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLegalMoves(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return
	}
	st := sess.Snapshot()
	writeJSON(w, http.StatusOK, checkersdto.MovesResponse{Turn: string(st.Turn), Moves: toMoveDTOs(sess.LegalMoves())})
}

func (s *Server) handleMakeMove(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return
	}
	var req checkersdto.MoveRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err, nil)
		return
	}
	mv := fromMoveDTO(req)
	if err := sess.MakeMove(mv); err != nil {
		s.writeError(w, err, map[string]any{"Move": mv.String()})
		return
	}
	writeJSON(w, http.StatusOK, toStateDTO(sess.Snapshot(), s.cat))
}

func (s *Server) handleAIMove(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return
	}
	var req checkersdto.AIRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err, nil)
		return
	}
	played, err := sess.AIMove(r.Context(), req.Depth)
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, checkersdto.AIResponse{Played: played, State: toStateDTO(sess.Snapshot(), s.cat)})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return
	}
	sess.Reset()
	writeJSON(w, http.StatusOK, toStateDTO(sess.Snapshot(), s.cat))
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return
	}
	if err := sess.Undo(); err != nil {
		s.writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, toStateDTO(sess.Snapshot(), s.cat))
}

func (s *Server) handleHint(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return
	}
	mv, found := sess.Hint(r.Context())
	resp := checkersdto.HintResponse{Found: found}
	if found {
		dto := toMoveDTO(mv)
		resp.Move = &dto
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleBoardPNG renders the current board; ?flip=1 draws it from
// black's side.
func (s *Server) handleBoardPNG(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return
	}
	st := sess.Snapshot()
	flip, _ := strconv.ParseBool(r.URL.Query().Get("flip"))
	opts := render.Options{
		Selected:  st.Selected,
		HUDHeader: hudHeader(st, s.cat),
		HUDTurn:   statusText(st, s.cat),
		Flip:      flip,
	}
	if st.LastMove != nil {
		opts.Highlight = &render.MoveHighlight{From: st.LastMove.From, To: st.LastMove.To, Captures: st.LastMove.Captures}
	}
	for _, m := range sess.ValidMovesForSelected() {
		opts.Targets = append(opts.Targets, m.To)
	}
	img, err := s.renderer.RenderPNG(r.Context(), st.Board, opts)
	if err != nil {
		s.logger.Warn("render board", zap.String("session_id", st.ID), zap.Error(err))
		s.writeError(w, err, nil)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img)
}
