package eventbus

import (
	"context"
	"sync"

	"github.com/philly/arch-blog/reader/internal/platform/logger"
)

type subscription struct {
	id      uint64
	handler Handler
}

// Bus manages subscriptions and event dispatching.
type Bus struct {
	mu            sync.RWMutex
	subscriptions map[Topic][]subscription
	nextID        uint64
	logger        logger.Logger
}

// NewBus creates a new event bus.
func NewBus(logger logger.Logger) *Bus {
	return &Bus{
		subscriptions: make(map[Topic][]subscription),
		logger:        logger,
	}
}

// Subscribe adds a handler for a topic and returns a func that removes it.
func (b *Bus) Subscribe(topic Topic, handler Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subscriptions[topic] = append(b.subscriptions[topic], subscription{id: id, handler: handler})

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(topic, id) })
	}
}

func (b *Bus) remove(topic Topic, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subscriptions[topic]
	for i, s := range subs {
		if s.id == id {
			b.subscriptions[topic] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subscriptions[topic]) == 0 {
		delete(b.subscriptions, topic)
	}
}

func (b *Bus) handlers(topic Topic) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()

	subs := b.subscriptions[topic]
	out := make([]Handler, len(subs))
	for i, s := range subs {
		out[i] = s.handler
	}
	return out
}

// Publish sends an event to all subscribers of a topic (fire-and-forget).
// Each handler runs on its own goroutine.
func (b *Bus) Publish(ctx context.Context, event Event) {
	for _, handler := range b.handlers(event.Topic) {
		go func(h Handler) {
			if err := h(ctx, event); err != nil {
				b.logger.Error(ctx, "event handler failed", "topic", event.Topic, "error", err)
			}
		}(handler)
	}
}

// Dispatch delivers an event to every subscriber on the caller's goroutine,
// in subscription order. Handler errors are logged, never returned.
func (b *Bus) Dispatch(ctx context.Context, event Event) {
	for _, handler := range b.handlers(event.Topic) {
		if err := handler(ctx, event); err != nil {
			b.logger.Error(ctx, "event handler failed", "topic", event.Topic, "error", err)
		}
	}
}
