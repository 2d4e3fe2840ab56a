// Package registry maps change kinds to the handlers that apply them.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/charsheet/pkg/domain"
	"github.com/aretw0/charsheet/pkg/ports"
)

// Registry manages the supported change kinds.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]ports.ChangeHandler
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]ports.ChangeHandler),
	}
}

// Default returns a registry that understands user-input changes.
func Default() *Registry {
	r := NewRegistry()
	r.Register(domain.ChangeUserInput, UserInput)
	return r
}

// Register adds a handler for kind.
// If a handler for the same kind exists, it is overwritten.
func (r *Registry) Register(kind string, fn ports.ChangeHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[kind] = fn
}

// Apply looks up the handler for change.Type and runs it.
// Unknown kinds return domain.ErrUnsupportedChange.
func (r *Registry) Apply(ctx context.Context, engine ports.SheetEngine, key string, change domain.Change) error {
	r.mu.RLock()
	fn, ok := r.handlers[change.Type]
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedChange, change.Type)
	}

	return fn(ctx, engine, key, change)
}

// Kinds lists the registered change kinds, sorted.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.handlers))
	for k := range r.handlers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// UserInput forwards the change value to the engine as JSON.
func UserInput(ctx context.Context, engine ports.SheetEngine, key string, change domain.Change) error {
	data, err := json.Marshal(change.Value)
	if err != nil {
		return fmt.Errorf("failed to encode value for %q: %w", change.Property, err)
	}
	if err := engine.SetUserValue(ctx, key, change.Property, data); err != nil {
		return fmt.Errorf("failed to set user value %q: %w", change.Property, err)
	}
	return nil
}
