package events

import (
	"context"
	"encoding/json"
	"time"
)

const (
	TypeState   = "state"
	TypeDeleted = "deleted"
)

// Event is one notification about a session, usually carrying a JSON
// state snapshot as payload.
type Event struct {
	SessionID string          `json:"session_id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	At        time.Time       `json:"at"`
}

// Bus fans session events out to subscribers. Subscribe returns a
// channel closed after the cancel func is called or ctx ends.
type Bus interface {
	Publish(ctx context.Context, ev Event) error
	Subscribe(ctx context.Context, sessionID string) (<-chan Event, func(), error)
	Close() error
}

const subscriberBuffer = 32
