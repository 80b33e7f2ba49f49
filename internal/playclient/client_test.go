package playclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/park285/cheese-checkers/internal/engine"
	"github.com/park285/cheese-checkers/internal/playserver"
	"github.com/park285/cheese-checkers/internal/session"
	"github.com/park285/cheese-checkers/pkg/checkersdto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	searcher := engine.NewSearcher(engine.WithClock(func() time.Time { return t0 }))
	mgr := session.NewManager(searcher, session.RealScheduler(), time.Hour, nil)
	defaults := session.DefaultConfig()
	defaults.AutoMoveCountdown = 0
	srv := httptest.NewServer(playserver.New(playserver.Deps{Manager: mgr, Defaults: defaults}).Handler())
	t.Cleanup(func() {
		srv.Close()
		mgr.Close()
	})
	return srv
}

func TestClientPlaysAgainstServer(t *testing.T) {
	srv := newBackend(t)
	c := NewClient(srv.URL, WithTimeout(5*time.Second))
	ctx := context.Background()

	pong, err := c.Ping(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", pong.Status)

	st, err := c.CreateSession(ctx, checkersdto.CreateSessionRequest{Preset: "level1"})
	require.NoError(t, err)
	assert.Equal(t, "level1", st.Preset)

	ids, err := c.ListSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{st.ID}, ids)

	moves, err := c.LegalMoves(ctx, st.ID)
	require.NoError(t, err)
	require.Len(t, moves.Moves, 7)

	sel, err := c.Select(ctx, st.ID, checkersdto.SelectRequest{Row: 5, Col: 0})
	require.NoError(t, err)
	require.Len(t, sel.Moves, 1)

	after, err := c.MakeMove(ctx, st.ID, sel.Moves[0])
	require.NoError(t, err)
	assert.Equal(t, "black", after.Turn)

	ai, err := c.AIMove(ctx, st.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, ai.Played)
	assert.Equal(t, "white", ai.State.Turn)

	hint, err := c.Hint(ctx, st.ID)
	require.NoError(t, err)
	assert.True(t, hint.Found)

	img, err := c.BoardPNG(ctx, st.ID, false)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), img[:4])

	undone, err := c.Undo(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, undone.MoveCount)

	reset, err := c.Reset(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, "white", reset.Turn)

	require.NoError(t, c.DeleteSession(ctx, st.ID))
	_, err = c.GetSession(ctx, st.ID)
	assert.True(t, IsCode(err, checkersdto.CodeNotFound), "got %v", err)
}

func TestClientAPIError(t *testing.T) {
	srv := newBackend(t)
	c := NewClient(srv.URL)
	ctx := context.Background()

	st, err := c.CreateSession(ctx, checkersdto.CreateSessionRequest{})
	require.NoError(t, err)

	_, err = c.MakeMove(ctx, st.ID, checkersdto.Move{From: checkersdto.Position{Row: 5, Col: 0}, To: checkersdto.Position{Row: 2, Col: 3}})
	var ae *APIError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusUnprocessableEntity, ae.Status)
	assert.Equal(t, checkersdto.CodeIllegalMove, ae.Code)
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","sessions":2}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithRetry(3))
	pong, err := c.Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, pong.Sessions)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClientDoesNotRetryPosts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, WithRetry(3)).CreateSession(context.Background(), checkersdto.CreateSessionRequest{})
	var ae *APIError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusBadGateway, ae.Status)
	assert.Equal(t, "upstream down", ae.Message)
	assert.Equal(t, int32(1), calls.Load())
}

func TestWatchURL(t *testing.T) {
	assert.Equal(t, "ws://localhost:8080/ws/sessions/abc", NewClient("http://localhost:8080/").WatchURL("abc"))
	assert.Equal(t, "wss://play.example/ws/sessions/abc", NewClient("https://play.example").WatchURL("abc"))
}

func TestWatcherReceivesEvents(t *testing.T) {
	srv := newBackend(t)
	c := NewClient(srv.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	st, err := c.CreateSession(ctx, checkersdto.CreateSessionRequest{AIPlayer: "none"})
	require.NoError(t, err)

	var (
		mu    sync.Mutex
		turns []string
		types []string
	)
	w := NewWatcher(c.WatchURL(st.ID), WithReconnectAttempts(0))
	w.OnEvent(func(ev checkersdto.Event) {
		mu.Lock()
		defer mu.Unlock()
		types = append(types, ev.Type)
		if ev.State != nil {
			turns = append(turns, ev.State.Turn)
		}
	})
	require.NoError(t, w.Start(ctx))
	assert.Equal(t, WatchConnected, w.State())

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(turns) == 1
	}, 2*time.Second, 10*time.Millisecond)

	_, err = c.MakeMove(ctx, st.ID, checkersdto.Move{From: checkersdto.Position{Row: 5, Col: 0}, To: checkersdto.Position{Row: 4, Col: 1}})
	require.NoError(t, err)
	require.NoError(t, c.DeleteSession(ctx, st.ID))

	select {
	case <-w.Done():
	case <-ctx.Done():
		t.Fatalf("watcher did not stop after session deletion")
	}
	assert.Equal(t, WatchEnded, w.State())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"white", "black"}, turns)
	assert.Equal(t, []string{"state", "state", "deleted"}, types)
	require.NoError(t, w.Close(ctx))
}
