package playserver

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/park285/cheese-checkers/internal/events"
	"github.com/park285/cheese-checkers/internal/msgcat"
	"github.com/park285/cheese-checkers/internal/render"
	"github.com/park285/cheese-checkers/internal/session"
	"go.uber.org/zap"
)

const publishTimeout = 2 * time.Second

type Deps struct {
	Manager  *session.Manager
	Bus      events.Bus
	Renderer render.BoardRenderer
	Catalog  *msgcat.Catalog
	Logger   *zap.Logger
	// Defaults seeds every new session; requests may override the preset
	// and the AI side.
	Defaults session.Config
	// OriginPatterns is passed to the websocket handshake; empty allows
	// same-origin requests only.
	OriginPatterns []string
}

// Server exposes sessions over HTTP and streams their events over
// websockets.
type Server struct {
	mgr      *session.Manager
	bus      events.Bus
	renderer render.BoardRenderer
	cat      *msgcat.Catalog
	logger   *zap.Logger
	defaults session.Config
	origins  []string
	router   chi.Router
}

func New(d Deps) *Server {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Bus == nil {
		d.Bus = events.NewMemoryBus(d.Logger)
	}
	if d.Renderer == nil {
		d.Renderer = render.NewBoardRenderer()
	}
	if d.Catalog == nil {
		d.Catalog = msgcat.MustDefault()
	}
	s := &Server{
		mgr:      d.Manager,
		bus:      d.Bus,
		renderer: d.Renderer,
		cat:      d.Catalog,
		logger:   d.Logger,
		defaults: d.Defaults,
		origins:  d.OriginPatterns,
	}
	s.mgr.OnCreate(func(sess *session.Session) {
		sess.OnChange(func(st session.State) { s.publishState(st) })
	})
	s.mgr.OnDelete(s.publishDeleted)
	s.router = s.routes()
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/api/ping", s.handlePing)
	r.Route("/api/sessions", func(r chi.Router) {
		r.Get("/", s.handleListSessions)
		r.Post("/", s.handleCreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Post("/select", s.handleSelect)
			r.Get("/moves", s.handleLegalMoves)
			r.Post("/moves", s.handleMakeMove)
			r.Post("/ai", s.handleAIMove)
			r.Post("/reset", s.handleReset)
			r.Post("/undo", s.handleUndo)
			r.Get("/hint", s.handleHint)
			r.Get("/board.png", s.handleBoardPNG)
		})
	})
	r.Get("/ws/sessions/{id}", s.handleWatch)
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *Server) publishState(st session.State) {
	payload, err := json.Marshal(toStateDTO(st, s.cat))
	if err != nil {
		s.logger.Warn("marshal state event", zap.String("session_id", st.ID), zap.Error(err))
		return
	}
	s.publish(events.Event{SessionID: st.ID, Type: events.TypeState, Payload: payload, At: st.UpdatedAt})
}

func (s *Server) publishDeleted(id string) {
	s.publish(events.Event{SessionID: id, Type: events.TypeDeleted, At: time.Now()})
}

func (s *Server) publish(ev events.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := s.bus.Publish(ctx, ev); err != nil {
		s.logger.Warn("publish session event",
			zap.String("session_id", ev.SessionID),
			zap.String("type", ev.Type),
			zap.Error(err),
		)
	}
}
