package playserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/park285/cheese-checkers/internal/session"
	"github.com/park285/cheese-checkers/pkg/checkersdto"
	"go.uber.org/zap"
)

var errBadRequest = errors.New("bad request")

type apiError struct {
	status int
	code   string
	key    string
}

func classify(err error) apiError {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return apiError{http.StatusNotFound, checkersdto.CodeNotFound, "error.not_found"}
	case errors.Is(err, session.ErrIllegalMove):
		return apiError{http.StatusUnprocessableEntity, checkersdto.CodeIllegalMove, "error.illegal_move"}
	case errors.Is(err, session.ErrNotYourTurn):
		return apiError{http.StatusConflict, checkersdto.CodeNotYourTurn, "error.not_your_turn"}
	case errors.Is(err, session.ErrGameFinished):
		return apiError{http.StatusConflict, checkersdto.CodeFinished, "error.finished"}
	case errors.Is(err, session.ErrNoHistory):
		return apiError{http.StatusConflict, checkersdto.CodeNoHistory, "error.no_history"}
	case errors.Is(err, session.ErrOutOfBounds):
		return apiError{http.StatusBadRequest, checkersdto.CodeBadRequest, "error.out_of_bounds"}
	case errors.Is(err, errBadRequest):
		return apiError{http.StatusBadRequest, checkersdto.CodeBadRequest, "error.bad_request"}
	}
	return apiError{http.StatusInternalServerError, checkersdto.CodeInternal, "error.internal"}
}

// writeError renders err with the catalog text for its class; data fills
// the template (ID, Move, Cell, Detail).
func (s *Server) writeError(w http.ResponseWriter, err error, data map[string]any) {
	ae := classify(err)
	if data == nil {
		data = map[string]any{}
	}
	if _, ok := data["Detail"]; !ok {
		data["Detail"] = err.Error()
	}
	msg := s.cat.Text(ae.key, data, err.Error())
	if ae.status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	}
	writeJSON(w, ae.status, checkersdto.ErrorResponse{Code: ae.code, Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
