package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Effect classifies what a tool invocation does to the world. Read-only
// results may be cached; mutating invocations never are.
type Effect string

const (
	EffectReadOnly Effect = "read_only"
	EffectMutating Effect = "mutating"
)

// HandlerFunc executes one tool invocation. Args have already passed
// schema validation. A returned error is reported to the caller as a
// tool failure; it never crashes the gateway.
type HandlerFunc func(ctx context.Context, args map[string]any) (any, error)

// Tool describes one invocable operation.
type Tool struct {
	// Name is the method callers invoke. Unique within a registry.
	Name string

	// Description is surfaced in tool listings.
	Description string

	// InputSchema is the JSON Schema for the params object.
	InputSchema map[string]any

	// Effect classifies the tool for result caching.
	Effect Effect

	// Handler runs the tool.
	Handler HandlerFunc
}

// ErrFrozen is returned by Register after Freeze.
var ErrFrozen = errors.New("registry: frozen, registration is startup-only")

// DuplicateError reports a second registration under an existing name.
type DuplicateError struct {
	Name string
}

// Error implements the error interface.
func (e *DuplicateError) Error() string {
	return fmt.Sprintf("registry: tool %q already registered", e.Name)
}

// Registry maps tool names to tools.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]Tool
	frozen bool
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool.
//
// Contract:
//   - An empty name or nil handler is rejected.
//   - A duplicate name returns *DuplicateError and leaves the existing
//     registration untouched.
//   - Registration after Freeze returns ErrFrozen.
func (r *Registry) Register(t Tool) error {
	if t.Name == "" {
		return errors.New("registry: tool name is required")
	}
	if t.Handler == nil {
		return fmt.Errorf("registry: tool %q has no handler", t.Name)
	}
	if t.Effect == "" {
		t.Effect = EffectReadOnly
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return ErrFrozen
	}
	if _, exists := r.tools[t.Name]; exists {
		return &DuplicateError{Name: t.Name}
	}
	r.tools[t.Name] = t
	return nil
}

// Freeze makes the registry read-only. Idempotent.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names returns all registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns all registered tools ordered by name.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	tools := make([]Tool, 0, len(names))
	for _, name := range names {
		tools = append(tools, r.tools[name])
	}
	return tools
}

// Len reports the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}
