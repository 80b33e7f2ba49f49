package events

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recv(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for event")
	}
	return Event{}
}

func testEvent(session string, n int) Event {
	return Event{
		SessionID: session,
		Type:      TypeState,
		Payload:   json.RawMessage(fmt.Sprintf(`{"n":%d}`, n)),
		At:        time.Date(2024, 1, 1, 0, 0, n, 0, time.UTC),
	}
}

func exerciseBus(t *testing.T, bus Bus) {
	ctx := context.Background()

	a, cancelA, err := bus.Subscribe(ctx, "s1")
	require.NoError(t, err)
	b, cancelB, err := bus.Subscribe(ctx, "s1")
	require.NoError(t, err)
	other, cancelOther, err := bus.Subscribe(ctx, "s2")
	require.NoError(t, err)
	defer cancelOther()

	require.NoError(t, bus.Publish(ctx, testEvent("s1", 1)))

	for _, ch := range []<-chan Event{a, b} {
		ev := recv(t, ch)
		assert.Equal(t, "s1", ev.SessionID)
		assert.Equal(t, TypeState, ev.Type)
		assert.JSONEq(t, `{"n":1}`, string(ev.Payload))
	}

	select {
	case ev := <-other:
		t.Fatalf("unexpected event on other session: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}

	cancelA()
	cancelA()
	require.NoError(t, bus.Publish(ctx, testEvent("s1", 2)))
	assert.JSONEq(t, `{"n":2}`, string(recv(t, b).Payload))

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-a:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
	cancelB()
}

func TestMemoryBus(t *testing.T) {
	bus := NewMemoryBus(nil)
	exerciseBus(t, bus)
	assert.Equal(t, 0, bus.Subscribers("s1"))

	require.NoError(t, bus.Close())
	assert.ErrorIs(t, bus.Publish(context.Background(), testEvent("s1", 3)), ErrBusClosed)
	_, _, err := bus.Subscribe(context.Background(), "s1")
	assert.ErrorIs(t, err, ErrBusClosed)
}

func TestMemoryBusContextCancelUnsubscribes(t *testing.T) {
	bus := NewMemoryBus(nil)
	ctx, cancel := context.WithCancel(context.Background())
	ch, _, err := bus.Subscribe(ctx, "s1")
	require.NoError(t, err)
	cancel()

	require.Eventually(t, func() bool { return bus.Subscribers("s1") == 0 }, 2*time.Second, 10*time.Millisecond)
	_, ok := <-ch
	assert.False(t, ok)
}

func TestMemoryBusDropsForSlowSubscriber(t *testing.T) {
	bus := NewMemoryBus(nil)
	ch, cancel, err := bus.Subscribe(context.Background(), "s1")
	require.NoError(t, err)
	defer cancel()

	for i := 0; i < subscriberBuffer+5; i++ {
		require.NoError(t, bus.Publish(context.Background(), testEvent("s1", i)))
	}
	assert.Len(t, ch, subscriberBuffer)
}

func TestRedisBus(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()

	bus, err := NewRedisBus(context.Background(), fmt.Sprintf("redis://%s/0", mr.Addr()), nil)
	require.NoError(t, err)
	defer bus.Close()

	exerciseBus(t, bus)
}

func TestNewRedisBusRequiresURL(t *testing.T) {
	_, err := NewRedisBus(context.Background(), " ", nil)
	assert.Error(t, err)
}

func TestParseRedisURL(t *testing.T) {
	opts, err := ParseRedisURL("redis://:secret@cache.local:6380/2")
	require.NoError(t, err)
	assert.Equal(t, "cache.local:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)
	assert.Nil(t, opts.TLSConfig)

	opts, err = ParseRedisURL("rediss://cache.local")
	require.NoError(t, err)
	assert.Equal(t, "cache.local:6379", opts.Addr)
	require.NotNil(t, opts.TLSConfig)

	for _, bad := range []string{"http://x", "redis://host/abc", "redis:///0"} {
		_, err := ParseRedisURL(bad)
		assert.Error(t, err, bad)
	}
}
