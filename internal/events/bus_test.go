package events

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/joescharf/ideas/internal/models"
)

func TestMemoryBus_DeliversToAllHandlers(t *testing.T) {
	bus := NewMemoryBus(zaptest.NewLogger(t))
	defer bus.Close()

	var got []string
	for _, name := range []string{"a", "b"} {
		require.NoError(t, bus.Subscribe(TopicStatusUpdated, func(_ context.Context, ev Event) error {
			got = append(got, name+":"+ev.IdeaID)
			return nil
		}))
	}
	require.NoError(t, bus.Subscribe("other.topic", func(context.Context, Event) error {
		t.Fatal("handler for a different topic invoked")
		return nil
	}))

	require.NoError(t, bus.Publish(context.Background(), TopicStatusUpdated, Event{IdeaID: "i1", Status: models.IdeaStatusDeepDive}))
	require.NoError(t, bus.Publish(context.Background(), TopicStatusUpdated, Event{IdeaID: "i2"}))

	assert.ElementsMatch(t, []string{"a:i1", "b:i1", "a:i2", "b:i2"}, got)
}

func TestMemoryBus_HandlerFailuresContained(t *testing.T) {
	bus := NewMemoryBus(zaptest.NewLogger(t))
	defer bus.Close()

	var reached atomic.Int32
	require.NoError(t, bus.Subscribe(TopicStatusUpdated, func(context.Context, Event) error {
		panic("boom")
	}))
	require.NoError(t, bus.Subscribe(TopicStatusUpdated, func(context.Context, Event) error {
		return errors.New("handler error")
	}))
	require.NoError(t, bus.Subscribe(TopicStatusUpdated, func(context.Context, Event) error {
		reached.Add(1)
		return nil
	}))

	assert.NotPanics(t, func() {
		err := bus.Publish(context.Background(), TopicStatusUpdated, Event{IdeaID: "x"})
		assert.NoError(t, err)
	})
	assert.Equal(t, int32(1), reached.Load())
}

func TestMemoryBus_Closed(t *testing.T) {
	bus := NewMemoryBus(nil)
	require.NoError(t, bus.Close())

	assert.ErrorIs(t, bus.Publish(context.Background(), TopicStatusUpdated, Event{}), ErrClosed)
	assert.ErrorIs(t, bus.Subscribe(TopicStatusUpdated, func(context.Context, Event) error { return nil }), ErrClosed)
}

func TestEventEncoding(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	data, err := encode(Event{IdeaID: "i1", Status: models.IdeaStatusClosed, CollectionID: "c1", OccurredAt: at})
	require.NoError(t, err)
	assert.JSONEq(t, `{"idea_id":"i1","new_status":"closed","collection_id":"c1","occurred_at":"2026-03-01T10:00:00Z"}`, string(data))

	ev, err := decode(data)
	require.NoError(t, err)
	assert.Equal(t, "c1", ev.CollectionID)
	assert.True(t, at.Equal(ev.OccurredAt))

	_, err = decode([]byte("{"))
	assert.Error(t, err)
}

func runNATS(t *testing.T) string {
	t.Helper()
	s := natsserver.RunRandClientPortServer()
	t.Cleanup(s.Shutdown)
	return s.ClientURL()
}

func TestNATSBus_FanOut(t *testing.T) {
	url := runNATS(t)
	logger := zaptest.NewLogger(t)

	// Two buses on separate connections behave like two processes.
	publisher := Connect(url, logger)
	subscriber := Connect(url, logger)
	defer publisher.Close()
	defer subscriber.Close()
	require.IsType(t, &NATSBus{}, publisher)

	var mu sync.Mutex
	var received []Event
	handler := func(_ context.Context, ev Event) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, ev)
		return nil
	}
	require.NoError(t, subscriber.Subscribe(TopicStatusUpdated, handler))
	require.NoError(t, publisher.Subscribe(TopicStatusUpdated, handler))
	require.NoError(t, subscriber.(*NATSBus).Flush(time.Second))

	require.NoError(t, publisher.Publish(context.Background(), TopicStatusUpdated,
		Event{IdeaID: "i1", Status: models.IdeaStatusDeepDive, CollectionID: "c1"}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 2
	}, 5*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for _, ev := range received {
		assert.Equal(t, "i1", ev.IdeaID)
		assert.Equal(t, models.IdeaStatusDeepDive, ev.Status)
		assert.Equal(t, "c1", ev.CollectionID)
		assert.False(t, ev.OccurredAt.IsZero())
	}
}

func TestNATSBus_HandlerPanicDoesNotStopDelivery(t *testing.T) {
	url := runNATS(t)
	bus := Connect(url, zaptest.NewLogger(t))
	defer bus.Close()

	var count atomic.Int32
	require.NoError(t, bus.Subscribe(TopicStatusUpdated, func(_ context.Context, ev Event) error {
		if count.Add(1) == 1 {
			panic("first delivery fails")
		}
		return nil
	}))

	for range 2 {
		require.NoError(t, bus.Publish(context.Background(), TopicStatusUpdated, Event{IdeaID: "i"}))
	}
	require.Eventually(t, func() bool { return count.Load() == 2 }, 5*time.Second, 10*time.Millisecond)
}

func TestNATSBus_SharedConnectionNotClosed(t *testing.T) {
	url := runNATS(t)
	nc, err := nats.Connect(url)
	require.NoError(t, err)
	defer nc.Close()

	bus := NewNATSBus(nc, nil)
	require.NoError(t, bus.Subscribe(TopicStatusUpdated, func(context.Context, Event) error { return nil }))
	require.NoError(t, bus.Close())
	assert.True(t, nc.IsConnected())
	assert.ErrorIs(t, bus.Subscribe(TopicStatusUpdated, func(context.Context, Event) error { return nil }), ErrClosed)
}

func TestConnect_FallsBackToMemory(t *testing.T) {
	t.Run("empty url", func(t *testing.T) {
		bus := Connect("", zaptest.NewLogger(t))
		defer bus.Close()
		assert.IsType(t, &MemoryBus{}, bus)
	})

	t.Run("unreachable server", func(t *testing.T) {
		bus := Connect("nats://127.0.0.1:1", zaptest.NewLogger(t))
		defer bus.Close()
		assert.IsType(t, &MemoryBus{}, bus)
	})
}
