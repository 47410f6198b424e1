package bus

import (
	"context"
	"log/slog"
	"sync"

	"study-helper/internal/message"
)

// NewMemory constructs an in-process bus. Delivery is synchronous.
func NewMemory(log *slog.Logger) *MemoryBus {
	return &MemoryBus{log: log, listeners: map[string]map[int]Handler{}}
}

type MemoryBus struct {
	log       *slog.Logger
	mu        sync.RWMutex
	nextID    int
	listeners map[string]map[int]Handler
}

func (b *MemoryBus) SendToTab(ctx context.Context, tabID string, ev message.Event) error {
	if err := ValidateTabID(tabID); err != nil {
		return err
	}
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.listeners[tabID]))
	for _, h := range b.listeners[tabID] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	if len(handlers) == 0 {
		return ErrNoReceiver
	}
	for _, h := range handlers {
		if err := h(ctx, ev); err != nil {
			b.log.Error("tab handler failed", "tab_id", tabID, "type", ev.Type, "err", err)
		}
	}
	return nil
}

func (b *MemoryBus) Listen(ctx context.Context, tabID string, handler Handler) error {
	if err := ValidateTabID(tabID); err != nil {
		return err
	}
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	if b.listeners[tabID] == nil {
		b.listeners[tabID] = map[int]Handler{}
	}
	b.listeners[tabID][id] = handler
	b.mu.Unlock()

	<-ctx.Done()

	b.mu.Lock()
	delete(b.listeners[tabID], id)
	if len(b.listeners[tabID]) == 0 {
		delete(b.listeners, tabID)
	}
	b.mu.Unlock()
	return nil
}

// Listening reports whether any handler is registered for tabID.
func (b *MemoryBus) Listening(tabID string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners[tabID]) > 0
}

func (b *MemoryBus) Close() error {
	return nil
}
