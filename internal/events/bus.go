// Package events carries workflow notifications between components. A Bus is
// either backed by NATS, fanning events out across processes, or by an
// in-process dispatch table.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/joescharf/ideas/internal/models"
)

// TopicStatusUpdated is published after an idea's status changes.
const TopicStatusUpdated = "idea.status.updated"

// Event is the payload of a status notification.
type Event struct {
	IdeaID       string            `json:"idea_id"`
	Status       models.IdeaStatus `json:"new_status"`
	CollectionID string            `json:"collection_id,omitempty"`
	OccurredAt   time.Time         `json:"occurred_at"`
}

// Handler consumes an event. Returned errors are logged by the bus.
type Handler func(ctx context.Context, ev Event) error

// Bus publishes events to topic subscribers. Handler failures never reach the
// publisher. Delivery is at-least-once and unordered across handlers.
type Bus interface {
	Publish(ctx context.Context, topic string, ev Event) error
	Subscribe(topic string, h Handler) error
	Close() error
	// Synchronous reports whether Publish returns only after local handlers ran.
	Synchronous() bool
}

func encode(ev Event) ([]byte, error) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	return data, nil
}

func decode(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	return ev, nil
}

// invoke runs h, converting a panic into a logged error.
func invoke(ctx context.Context, logger *zap.Logger, topic string, h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("event handler panicked",
				zap.String("topic", topic),
				zap.String("idea_id", ev.IdeaID),
				zap.Any("panic", r))
		}
	}()
	if err := h(ctx, ev); err != nil {
		logger.Error("event handler failed",
			zap.String("topic", topic),
			zap.String("idea_id", ev.IdeaID),
			zap.Error(err))
	}
}
