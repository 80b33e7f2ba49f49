package playserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/park285/cheese-checkers/internal/events"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const wsWriteTimeout = 5 * time.Second

// handleWatch streams a session's events. The first message is always
// the current state so watchers need no separate GET.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return
	}
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  s.origins,
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		s.logger.Debug("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	// client messages are ignored; only the close frame matters
	ctx := conn.CloseRead(r.Context())

	evs, unsubscribe, err := s.bus.Subscribe(ctx, sess.ID())
	if err != nil {
		s.logger.Warn("subscribe session events", zap.String("session_id", sess.ID()), zap.Error(err))
		_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer unsubscribe()

	st := sess.Snapshot()
	payload, err := json.Marshal(toStateDTO(st, s.cat))
	if err != nil {
		_ = conn.Close(websocket.StatusInternalError, "encode failed")
		return
	}
	first := events.Event{SessionID: st.ID, Type: events.TypeState, Payload: payload, At: st.UpdatedAt}
	if err := writeEvent(ctx, conn, first); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-evs:
			if !ok {
				_ = conn.Close(websocket.StatusGoingAway, "event stream closed")
				return
			}
			if err := writeEvent(ctx, conn, ev); err != nil {
				if !errors.Is(err, context.Canceled) {
					s.logger.Debug("websocket write failed", zap.String("session_id", ev.SessionID), zap.Error(err))
				}
				return
			}
			if ev.Type == events.TypeDeleted {
				_ = conn.Close(websocket.StatusNormalClosure, "session deleted")
				return
			}
		}
	}
}

func writeEvent(ctx context.Context, conn *websocket.Conn, ev events.Event) error {
	ctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, ev)
}
