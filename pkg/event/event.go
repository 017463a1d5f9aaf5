// Package event provides a process-local event dispatcher. Domain code
// fires named events ("file.uploaded", "user.registered") and listeners
// registered at boot react to them.
package event

import (
	"sync"

	"drivebox/pkg/logger"
)

// Handler is a function that receives an event payload.
type Handler func(payload interface{})

var (
	mu       sync.RWMutex
	handlers = map[string][]Handler{}
)

// Listen registers a handler for the given event name.
func Listen(event string, handler Handler) {
	mu.Lock()
	defer mu.Unlock()
	handlers[event] = append(handlers[event], handler)
}

// Fire dispatches an event synchronously to all registered listeners.
func Fire(event string, payload interface{}) {
	for _, h := range snapshot(event) {
		h(payload)
	}
}

// FireAsync dispatches the event to all listeners concurrently and returns
// without waiting. A panicking listener is logged, not propagated.
func FireAsync(event string, payload interface{}) {
	for _, h := range snapshot(event) {
		h := h
		go func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("event: listener panicked", "event", event, "panic", r)
				}
			}()
			h(payload)
		}()
	}
}

func snapshot(event string) []Handler {
	mu.RLock()
	defer mu.RUnlock()
	hs := make([]Handler, len(handlers[event]))
	copy(hs, handlers[event])
	return hs
}

// Flush removes all listeners. Tests use it to isolate registrations.
func Flush() {
	mu.Lock()
	defer mu.Unlock()
	handlers = map[string][]Handler{}
}
