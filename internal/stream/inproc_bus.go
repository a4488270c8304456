package stream

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// InProcBus is the default EventBus implementation: synchronous,
// in-memory fan-out to subscribed handlers.
type InProcBus struct {
	mu       sync.RWMutex
	started  bool
	handlers map[string][]*subscription
	nextID   uint64
	lastEmit time.Time
}

type subscription struct {
	id      uint64
	handler Handler
}

// NewInProcBus constructs a ready-to-Start in-process event bus.
func NewInProcBus() *InProcBus {
	return &InProcBus{handlers: make(map[string][]*subscription)}
}

func (b *InProcBus) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.started = true
	log.Info().Msg("event bus started")
	return nil
}

func (b *InProcBus) Stop(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.started = false
	log.Info().Msg("event bus stopped")
	return nil
}

func (b *InProcBus) Health() HealthStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()
	handlers := 0
	for _, subs := range b.handlers {
		handlers += len(subs)
	}
	return HealthStatus{
		Healthy:        true,
		Started:        b.started,
		ActiveTopics:   len(b.handlers),
		ActiveHandlers: handlers,
		LastEmitAt:     b.lastEmit,
	}
}

// Emit delivers the event synchronously to every current subscriber of
// topic. Handler errors are logged and do not stop delivery to other
// subscribers.
func (b *InProcBus) Emit(ctx context.Context, topic string, payload map[string]interface{}) error {
	b.mu.Lock()
	if !b.started {
		b.mu.Unlock()
		return ErrBusNotStarted
	}
	b.lastEmit = time.Now()
	subs := append([]*subscription(nil), b.handlers[topic]...)
	b.mu.Unlock()

	evt := Event{Topic: topic, Payload: payload, Timestamp: b.lastEmit}
	for _, sub := range subs {
		if err := sub.handler(ctx, evt); err != nil {
			log.Error().Err(err).Str("topic", topic).Msg("event handler failed")
		}
	}
	return nil
}

func (b *InProcBus) Subscribe(topic string, handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.handlers[topic] = append(b.handlers[topic], &subscription{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.handlers[topic]
		for i, s := range subs {
			if s.id == id {
				b.handlers[topic] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
	}
}
