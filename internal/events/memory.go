package events

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

var ErrBusClosed = errors.New("event bus closed")

// MemoryBus delivers events inside one process. A subscriber that falls
// behind loses events rather than blocking publishers.
type MemoryBus struct {
	logger *zap.Logger

	mu     sync.Mutex
	subs   map[string]map[uint64]chan Event
	nextID uint64
	closed bool
}

func NewMemoryBus(logger *zap.Logger) *MemoryBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryBus{logger: logger, subs: make(map[string]map[uint64]chan Event)}
}

func (b *MemoryBus) Publish(_ context.Context, ev Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrBusClosed
	}
	for _, ch := range b.subs[ev.SessionID] {
		select {
		case ch <- ev:
		default:
			b.logger.Warn("event dropped for slow subscriber", zap.String("session_id", ev.SessionID), zap.String("type", ev.Type))
		}
	}
	return nil
}

func (b *MemoryBus) Subscribe(ctx context.Context, sessionID string) (<-chan Event, func(), error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, nil, ErrBusClosed
	}
	id := b.nextID
	b.nextID++
	ch := make(chan Event, subscriberBuffer)
	if b.subs[sessionID] == nil {
		b.subs[sessionID] = make(map[uint64]chan Event)
	}
	b.subs[sessionID][id] = ch
	b.mu.Unlock()

	var once sync.Once
	done := make(chan struct{})
	cancel := func() {
		once.Do(func() {
			close(done)
			b.mu.Lock()
			defer b.mu.Unlock()
			if set, ok := b.subs[sessionID]; ok {
				if c, ok := set[id]; ok {
					delete(set, id)
					close(c)
				}
				if len(set) == 0 {
					delete(b.subs, sessionID)
				}
			}
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-done:
		}
	}()
	return ch, cancel, nil
}

// Subscribers counts open subscriptions for a session.
func (b *MemoryBus) Subscribers(sessionID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[sessionID])
}

func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for sid, set := range b.subs {
		for id, ch := range set {
			close(ch)
			delete(set, id)
		}
		delete(b.subs, sid)
	}
	return nil
}
