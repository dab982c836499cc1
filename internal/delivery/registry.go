// internal/delivery/registry.go
package delivery

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Handler delivers a message to a target such as "telegram:12345".
type Handler func(ctx context.Context, target, message string) error

// Registry routes messages to the handler registered for the target's
// prefix. The longest matching prefix wins.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty delivery registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Register adds a handler for targets starting with prefix.
func (r *Registry) Register(prefix string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[prefix] = handler
}

// Deliver calls the handler matching target. It returns an error if no
// handler is registered for the target.
func (r *Registry) Deliver(ctx context.Context, target, message string) error {
	r.mu.RLock()
	var (
		best    string
		handler Handler
	)
	for prefix, h := range r.handlers {
		if strings.HasPrefix(target, prefix) && len(prefix) >= len(best) {
			best, handler = prefix, h
		}
	}
	r.mu.RUnlock()

	if handler == nil {
		return fmt.Errorf("no delivery handler for target: %s", target)
	}
	return handler(ctx, target, message)
}

// WriterHandler writes each message to w, prefixed with its target.
func WriterHandler(w io.Writer) Handler {
	var mu sync.Mutex
	return func(_ context.Context, target, message string) error {
		mu.Lock()
		defer mu.Unlock()
		_, err := fmt.Fprintf(w, "[%s]\n%s\n", target, strings.TrimRight(message, "\n"))
		return err
	}
}
