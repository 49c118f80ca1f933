// Package events is a small pub/sub layer for job-lifecycle notifications:
// tiles discovered, detail batches fetched, tokens refreshed, jobs
// finished. Subscribers are typically logging or metrics hooks; nothing in
// the pipeline depends on a subscriber existing.
package events

import (
	"context"
	"fmt"
	"sync"
)

// Event is anything with a stable type name to dispatch on.
type Event interface {
	Type() string
}

// Handler reacts to a published event.
type Handler func(ctx context.Context, event Event) error

// Dispatcher manages event subscription and publishing.
type Dispatcher struct {
	handlers map[string][]Handler
	mutex    sync.RWMutex
}

// NewDispatcher creates a new event dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string][]Handler),
	}
}

// Subscribe registers a handler for a specific event type.
func (d *Dispatcher) Subscribe(eventType string, handler Handler) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.handlers[eventType] = append(d.handlers[eventType], handler)
}

// Publish sends an event to all registered handlers concurrently and waits
// for them to finish, collecting any errors.
func (d *Dispatcher) Publish(ctx context.Context, event Event) error {
	d.mutex.RLock()
	handlers := d.handlers[event.Type()]
	d.mutex.RUnlock()

	if len(handlers) == 0 {
		return nil
	}

	var wg sync.WaitGroup
	errCh := make(chan error, len(handlers))

	for _, handler := range handlers {
		wg.Add(1)
		go func(h Handler) {
			defer wg.Done()
			if err := h(ctx, event); err != nil {
				errCh <- fmt.Errorf("handler error for event %s: %w", event.Type(), err)
			}
		}(handler)
	}

	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("event publishing errors: %v", errs)
	}
	return nil
}

// PublishSync sends an event to all registered handlers in order,
// stopping at the first error.
func (d *Dispatcher) PublishSync(ctx context.Context, event Event) error {
	d.mutex.RLock()
	handlers := d.handlers[event.Type()]
	d.mutex.RUnlock()

	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			return fmt.Errorf("handler error for event %s: %w", event.Type(), err)
		}
	}
	return nil
}

// HasHandlers reports whether any handler is registered for eventType.
func (d *Dispatcher) HasHandlers(eventType string) bool {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	return len(d.handlers[eventType]) > 0
}
