// Package events is a small in-process publish/subscribe registry. Consumers
// register handlers for named events and are notified synchronously when a
// producer emits one, so independent views can refresh after a write.
package events

import (
	"log"
	"sync"
)

// Event names emitted after successful writes.
const (
	SongsAdded        = "songs:added"
	SongsUpdated      = "songs:updated"
	SongsDeleted      = "songs:deleted"
	MembersAdded      = "members:added"
	MembersUpdated    = "members:updated"
	MembersDeleted    = "members:deleted"
	CategoriesAdded   = "categories:added"
	CategoriesUpdated = "categories:updated"
	CategoriesDeleted = "categories:deleted"
	ChoirsAdded       = "choirs:added"
	ChoirsUpdated     = "choirs:updated"
	ChoirsDeleted     = "choirs:deleted"
	SettingsUpdated   = "settings:updated"
	DataImported      = "data:imported"
	DataReset         = "data:reset"
)

type Handler func(payload any)

type subscription struct {
	id      uint64
	handler Handler
}

type Bus struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[string][]subscription
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]subscription)}
}

// On registers handler for event and returns a function that removes it.
// Registering the same function twice yields two independent subscriptions.
func (b *Bus) On(event string, handler Handler) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.handlers[event] = append(b.handlers[event], subscription{id: id, handler: handler})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(event, id) })
	}
}

func (b *Bus) remove(event string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[event]
	for i, s := range subs {
		if s.id == id {
			subs = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(subs) == 0 {
		delete(b.handlers, event)
		return
	}
	b.handlers[event] = subs
}

// Emit calls every handler registered for event at the time of the call, in
// registration order. A panicking handler is logged and skipped.
func (b *Bus) Emit(event string, payload any) {
	b.mu.RLock()
	subs := make([]subscription, len(b.handlers[event]))
	copy(subs, b.handlers[event])
	b.mu.RUnlock()

	for _, s := range subs {
		b.invoke(event, s.handler, payload)
	}
}

func (b *Bus) invoke(event string, handler Handler, payload any) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Error in event handler for %s: %v", event, r)
		}
	}()
	handler(payload)
}

// Len returns the number of handlers registered for event.
func (b *Bus) Len(event string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[event])
}

// Events returns the names that currently have at least one handler.
func (b *Bus) Events() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	names := make([]string, 0, len(b.handlers))
	for name := range b.handlers {
		names = append(names, name)
	}
	return names
}
