// Package registry implements the callback registry keyed by resource mark.
package registry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/st-keller/eapi-client/apierr"
	"github.com/st-keller/eapi-client/resource"
)

// Handler observes one classified resource.
// A returned error (or a panic) is isolated: it never stops classification.
type Handler func(resource.Resource) error

// Registry maps raw marks (prefix included) to ordered handler lists.
// Entries are only ever appended; registrations made after a request
// completed have no retroactive effect on it.
type Registry struct {
	mu sync.RWMutex

	// handlers: mark -> handlers in registration order
	handlers map[string][]Handler
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		handlers: make(map[string][]Handler),
	}
}

// Register appends handler to the list for mark.
func (r *Registry) Register(mark string, handler Handler) error {
	if mark == "" {
		return fmt.Errorf("mark required")
	}
	if handler == nil {
		return fmt.Errorf("handler required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers[mark] = append(r.handlers[mark], handler)
	return nil
}

// Lookup returns the handlers registered for mark, in registration order.
// Returns an empty (non-nil) slice when nothing is registered.
func (r *Registry) Lookup(mark string) []Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// Copy so later registrations never race with an in-flight dispatch
	out := make([]Handler, len(r.handlers[mark]))
	copy(out, r.handlers[mark])
	return out
}

// Len returns the number of handlers registered for mark.
func (r *Registry) Len(mark string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers[mark])
}

// Marks returns every mark with at least one handler.
func (r *Registry) Marks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	marks := make([]string, 0, len(r.handlers))
	for mark := range r.handlers {
		marks = append(marks, mark)
	}
	return marks
}

// Emit invokes every handler registered for res.Mark synchronously, in
// registration order. Each handler runs isolated: failures are collected as
// CallbackErrors and returned joined, after all handlers ran.
func (r *Registry) Emit(res resource.Resource) error {
	var errs []error
	for i, handler := range r.Lookup(res.Mark) {
		if err := invoke(handler, res); err != nil {
			errs = append(errs, &apierr.Error{
				Kind: apierr.KindCallback,
				Op:   fmt.Sprintf("handler #%d", i),
				Mark: res.Mark,
				Err:  err,
			})
		}
	}
	return errors.Join(errs...)
}

// invoke runs one handler, converting a panic into an error.
func invoke(handler Handler, res resource.Resource) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("handler panicked: %v", p)
		}
	}()
	return handler(res)
}

// Observe adapts a handler that cannot fail.
func Observe(fn func(resource.Resource)) Handler {
	return func(res resource.Resource) error {
		fn(res)
		return nil
	}
}
