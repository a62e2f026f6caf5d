// Package event provides generic event emission utilities.
package event

import "sync"

// Emitter provides thread-safe event emission with handler registration.
// It handles the common pattern of registering handlers and emitting events
// to all registered handlers safely.
//
// The zero value drops events emitted while no handler is registered. An
// emitter created with NewBuffered holds such events and replays them, in
// order, to the first handler registered.
type Emitter[E any] struct {
	// +checklocks:mu
	handlers []func(E)
	// +checklocks:mu
	pending []E
	mu      sync.RWMutex

	// buffered emitters serialize delivery so replayed events always precede
	// events emitted after registration.
	buffered bool
	deliver  sync.Mutex
}

// NewBuffered returns an emitter that keeps events until a handler arrives.
// Handlers of a buffered emitter must not call OnEvent or Emit on it.
func NewBuffered[E any]() *Emitter[E] {
	return &Emitter[E]{buffered: true}
}

// OnEvent registers an event handler.
// Handlers are called synchronously when events are emitted.
func (e *Emitter[E]) OnEvent(handler func(E)) {
	if e.buffered {
		e.deliver.Lock()
		defer e.deliver.Unlock()
	}

	e.mu.Lock()
	e.handlers = append(e.handlers, handler)
	pending := e.pending
	e.pending = nil
	e.mu.Unlock()

	for _, ev := range pending {
		handler(ev)
	}
}

// Emit sends an event to all registered handlers.
// Handlers are called with a copy of the handler slice to allow
// safe iteration even if new handlers are registered during emission.
// Must not be called with lock held.
func (e *Emitter[E]) Emit(event E) {
	if e.buffered {
		e.deliver.Lock()
		defer e.deliver.Unlock()
	}

	e.mu.Lock()
	if len(e.handlers) == 0 {
		if e.buffered {
			e.pending = append(e.pending, event)
		}
		e.mu.Unlock()
		return
	}
	handlers := make([]func(E), len(e.handlers))
	copy(handlers, e.handlers)
	e.mu.Unlock()

	for _, h := range handlers {
		h(event)
	}
}

// Pending reports how many events are held for replay.
func (e *Emitter[E]) Pending() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.pending)
}
