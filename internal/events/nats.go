package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// NATSBus publishes events as JSON on NATS subjects named after the topic.
type NATSBus struct {
	nc     *nats.Conn
	owned  bool
	logger *zap.Logger

	mu     sync.Mutex
	subs   []*nats.Subscription
	closed bool
}

// NewNATSBus wraps an existing connection. The caller keeps ownership of nc.
func NewNATSBus(nc *nats.Conn, logger *zap.Logger) *NATSBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NATSBus{nc: nc, logger: logger.Named("events")}
}

// Conn exposes the underlying connection so other components can share it.
func (b *NATSBus) Conn() *nats.Conn { return b.nc }

// Synchronous is false: handlers run on the connection's delivery goroutine.
func (b *NATSBus) Synchronous() bool { return false }

func (b *NATSBus) Publish(ctx context.Context, topic string, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encode(ev)
	if err != nil {
		return err
	}
	if err := b.nc.Publish(topic, data); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

func (b *NATSBus) Subscribe(topic string, h Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	sub, err := b.nc.Subscribe(topic, func(msg *nats.Msg) {
		ev, err := decode(msg.Data)
		if err != nil {
			b.logger.Warn("dropping malformed event", zap.String("topic", topic), zap.Error(err))
			return
		}
		invoke(context.Background(), b.logger, topic, h, ev)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	b.subs = append(b.subs, sub)
	return nil
}

// Flush waits until the server has processed everything published so far.
func (b *NATSBus) Flush(timeout time.Duration) error {
	return b.nc.FlushTimeout(timeout)
}

func (b *NATSBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	var firstErr error
	for _, sub := range b.subs {
		if err := sub.Unsubscribe(); err != nil && firstErr == nil && b.nc.IsConnected() {
			firstErr = err
		}
	}
	b.subs = nil
	if b.owned {
		b.nc.Close()
	}
	return firstErr
}

// Connect returns a NATS-backed bus for url, or an in-process bus when url is
// empty or the server cannot be reached.
func Connect(url string, logger *zap.Logger) Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	if url == "" {
		logger.Debug("no NATS url configured, using in-process event bus")
		return NewMemoryBus(logger)
	}
	nc, err := nats.Connect(url,
		nats.Name("ideas"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		logger.Warn("could not connect to NATS, falling back to in-process event bus",
			zap.String("url", url), zap.Error(err))
		return NewMemoryBus(logger)
	}
	logger.Info("NATS event bus enabled", zap.String("url", nc.ConnectedUrl()))
	bus := NewNATSBus(nc, logger)
	bus.owned = true
	return bus
}
