package playclient

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/park285/cheese-checkers/pkg/checkersdto"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

type WatchState string

const (
	WatchDisconnected WatchState = "disconnected"
	WatchConnecting   WatchState = "connecting"
	WatchConnected    WatchState = "connected"
	WatchReconnecting WatchState = "reconnecting"
	WatchFailed       WatchState = "failed"
	// WatchEnded means the server closed the stream normally, e.g. after
	// the session was deleted. No reconnect follows.
	WatchEnded WatchState = "ended"
)

type EventCallback func(ev checkersdto.Event)

type StateCallback func(state WatchState)

// Watcher follows one session's event stream and reconnects with
// backoff when the connection drops.
type Watcher struct {
	url    string
	logger *zap.Logger

	maxReconnectAttempts int
	pingInterval         time.Duration

	mu    sync.Mutex
	conn  *websocket.Conn
	state WatchState

	cbM      sync.RWMutex
	eventCbs []EventCallback
	stateCbs []StateCallback

	cancel context.CancelFunc
	done   chan struct{}
}

type WatcherOption func(*Watcher)

func WithReconnectAttempts(n int) WatcherOption {
	return func(w *Watcher) { w.maxReconnectAttempts = n }
}

func WithPingInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.pingInterval = d }
}

func WithWatchLogger(l *zap.Logger) WatcherOption {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

func NewWatcher(wsURL string, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		url:                  wsURL,
		logger:               zap.NewNop(),
		maxReconnectAttempts: 5,
		pingInterval:         30 * time.Second,
		state:                WatchDisconnected,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Watcher) OnEvent(cb EventCallback) {
	w.cbM.Lock()
	w.eventCbs = append(w.eventCbs, cb)
	w.cbM.Unlock()
}

func (w *Watcher) OnStateChange(cb StateCallback) {
	w.cbM.Lock()
	w.stateCbs = append(w.stateCbs, cb)
	w.cbM.Unlock()
}

func (w *Watcher) State() WatchState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Start dials once synchronously so callers see handshake errors, then
// keeps reading in the background until Close or a normal closure.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.done != nil {
		w.mu.Unlock()
		return errors.New("watcher already started")
	}
	w.mu.Unlock()

	w.setState(WatchConnecting)
	conn, err := w.dial(ctx)
	if err != nil {
		w.setState(WatchFailed)
		return err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	w.mu.Lock()
	w.cancel = cancel
	w.done = make(chan struct{})
	w.conn = conn
	w.mu.Unlock()
	w.setState(WatchConnected)

	go w.run(runCtx, conn)
	return nil
}

func (w *Watcher) dial(ctx context.Context) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(dialCtx, w.url, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	return conn, err
}

func (w *Watcher) run(ctx context.Context, conn *websocket.Conn) {
	defer close(w.done)
	for {
		ended := w.serve(ctx, conn)
		_ = conn.CloseNow()
		w.mu.Lock()
		w.conn = nil
		w.mu.Unlock()

		if ctx.Err() != nil {
			w.setState(WatchDisconnected)
			return
		}
		if ended {
			w.setState(WatchEnded)
			return
		}

		conn = w.reconnect(ctx)
		if conn == nil {
			if ctx.Err() != nil {
				w.setState(WatchDisconnected)
			} else {
				w.setState(WatchFailed)
			}
			return
		}
		w.mu.Lock()
		w.conn = conn
		w.mu.Unlock()
		w.setState(WatchConnected)
	}
}

// serve reads events until the connection fails; it reports true when
// the server closed the stream normally.
func (w *Watcher) serve(ctx context.Context, conn *websocket.Conn) bool {
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go w.pingLoop(connCtx, conn)

	for {
		var ev checkersdto.Event
		if err := wsjson.Read(connCtx, conn, &ev); err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return true
			}
			if ctx.Err() == nil {
				w.logger.Debug("watch read failed", zap.String("url", w.url), zap.Error(err))
			}
			return false
		}
		w.cbM.RLock()
		cbs := append([]EventCallback(nil), w.eventCbs...)
		w.cbM.RUnlock()
		for _, cb := range cbs {
			cb(ev)
		}
	}
}

func (w *Watcher) pingLoop(ctx context.Context, conn *websocket.Conn) {
	t := time.NewTicker(w.pingInterval)
	defer t.Stop()
	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := conn.Ping(pctx)
			cancel()
			if err == nil {
				failures = 0
				continue
			}
			failures++
			if failures >= 2 {
				_ = conn.Close(websocket.StatusGoingAway, "ping failure")
				return
			}
		}
	}
}

func (w *Watcher) reconnect(ctx context.Context) *websocket.Conn {
	if w.maxReconnectAttempts <= 0 {
		return nil
	}
	w.setState(WatchReconnecting)
	for attempt := 1; attempt <= w.maxReconnectAttempts; attempt++ {
		if err := sleepWithContext(ctx, backoffDuration(attempt)); err != nil {
			return nil
		}
		conn, err := w.dial(ctx)
		if err == nil {
			return conn
		}
		w.logger.Debug("watch reconnect failed", zap.Int("attempt", attempt), zap.Error(err))
	}
	return nil
}

func (w *Watcher) setState(state WatchState) {
	w.mu.Lock()
	w.state = state
	w.mu.Unlock()

	w.cbM.RLock()
	cbs := append([]StateCallback(nil), w.stateCbs...)
	w.cbM.RUnlock()
	for _, cb := range cbs {
		cb(state)
	}
}

// Done is closed once the background reader has stopped.
func (w *Watcher) Done() <-chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.done
}

func (w *Watcher) Close(ctx context.Context) error {
	w.mu.Lock()
	cancel, done, conn := w.cancel, w.done, w.conn
	w.mu.Unlock()
	if cancel == nil {
		return nil
	}
	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "close")
	}
	cancel()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}
