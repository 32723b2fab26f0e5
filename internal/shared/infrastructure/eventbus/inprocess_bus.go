package eventbus

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// AllEvents subscribes a handler to every routing key.
const AllEvents = "#"

// Handler processes one published event.
type Handler func(ctx context.Context, routingKey string, payload []byte) error

// InProcessBus delivers events synchronously to handlers in the same process.
// It is used when no broker is configured.
type InProcessBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *zap.Logger
}

// NewInProcessBus creates a new in-process bus.
func NewInProcessBus(logger *zap.Logger) *InProcessBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InProcessBus{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

// Subscribe registers h for routingKey, or for every key with AllEvents.
func (b *InProcessBus) Subscribe(routingKey string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[routingKey] = append(b.handlers[routingKey], h)
	b.logger.Debug("registered event handler", zap.String("routing_key", routingKey))
}

// Publish dispatches to every matching handler. Handler failures are logged
// and never returned: the change that produced the event has already happened.
func (b *InProcessBus) Publish(ctx context.Context, routingKey string, payload []byte) error {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers[routingKey])+len(b.handlers[AllEvents]))
	handlers = append(handlers, b.handlers[routingKey]...)
	handlers = append(handlers, b.handlers[AllEvents]...)
	b.mu.RUnlock()

	start := time.Now()
	var errs []error
	for _, h := range handlers {
		if err := h(ctx, routingKey, payload); err != nil {
			errs = append(errs, err)
		}
	}
	duration := time.Since(start)

	if err := errors.Join(errs...); err != nil {
		b.logger.Error("event dispatch failed",
			zap.String("routing_key", routingKey),
			zap.Int64("duration_ms", duration.Milliseconds()),
			zap.Error(err),
		)
		return nil
	}

	b.logger.Debug("event dispatched",
		zap.String("routing_key", routingKey),
		zap.Int("handlers", len(handlers)),
		zap.Int64("duration_ms", duration.Milliseconds()),
	)
	return nil
}

// Close is a no-op for the in-process bus.
func (b *InProcessBus) Close() error {
	return nil
}

var _ Publisher = (*InProcessBus)(nil)
