package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/couchcryptid/outage-alert-service/internal/domain"
)

// KindOutagesCheck fetches the outage source and notifies subscriber groups.
const KindOutagesCheck = "outages_check"

// HandlerFunc runs one task kind. runID identifies the whole task run.
type HandlerFunc func(ctx context.Context, task domain.Task, runID string) (KindReport, error)

// Registry maps task kind names to handlers. Registration fails fast on
// empty, nil or duplicate entries; lookups of unknown kinds are reported to
// the caller instead of failing the task.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	order    []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]HandlerFunc)}
}

// Register adds a handler for kind.
func (r *Registry) Register(kind string, h HandlerFunc) error {
	if kind == "" {
		return errors.New("task kind name is empty")
	}
	if h == nil {
		return fmt.Errorf("task kind %q has a nil handler", kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.handlers[kind]; ok {
		return fmt.Errorf("task kind %q already registered", kind)
	}
	r.handlers[kind] = h
	r.order = append(r.order, kind)
	return nil
}

// Lookup returns the handler registered for kind.
func (r *Registry) Lookup(kind string) (HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[kind]
	return h, ok
}

// Kinds returns registered kind names in registration order.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// Split partitions kinds into registered and unknown names, dropping
// duplicates and keeping the task's order.
func (r *Registry) Split(kinds []string) (known, unknown []string) {
	seen := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		if seen[k] {
			continue
		}
		seen[k] = true
		if _, ok := r.Lookup(k); ok {
			known = append(known, k)
		} else {
			unknown = append(unknown, k)
		}
	}
	return known, unknown
}

// Validate returns an error naming every unknown kind. Seed loading uses it
// to flag misconfigured tasks early; execution still only warns.
func (r *Registry) Validate(kinds []string) error {
	_, unknown := r.Split(kinds)
	if len(unknown) > 0 {
		return fmt.Errorf("unknown task kinds %q (registered: %q)", unknown, r.Kinds())
	}
	return nil
}
