package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher interface allows event publication/subscription.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

// inMemoryDispatcher runs handlers synchronously in the publishing goroutine.
type inMemoryDispatcher struct {
	mu        sync.RWMutex
	listeners map[EventType][]EventHandler
	logger    *zap.Logger
}

// NewInMemoryDispatcher creates a dispatcher instance.
func NewInMemoryDispatcher(logger *zap.Logger) Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &inMemoryDispatcher{
		listeners: make(map[EventType][]EventHandler),
		logger:    logger,
	}
}

// Publish invokes every handler for the event. A failing or panicking handler
// is logged and does not stop the others; Publish itself never fails.
func (d *inMemoryDispatcher) Publish(ctx context.Context, event Event) error {
	d.mu.RLock()
	handlers := append([]EventHandler{}, d.listeners[event.Type]...)
	d.mu.RUnlock()

	for _, handler := range handlers {
		d.invoke(ctx, handler, event)
	}
	return nil
}

func (d *inMemoryDispatcher) invoke(ctx context.Context, handler EventHandler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("event handler panicked",
				zap.String("event_type", string(event.Type)),
				zap.String("event_id", event.ID),
				zap.Any("panic", r))
		}
	}()
	if err := handler(ctx, event); err != nil {
		d.logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.String("event_id", event.ID),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
	}
}

// Subscribe registers a handler for the given event type.
func (d *inMemoryDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[eventType] = append(d.listeners[eventType], handler)
}
