package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"NewsAgent/internal/ports"
)

var (
	ErrToolUnregistered = errors.New("tool is not registered")
	ErrNilHandler       = errors.New("tool handler is nil")
	ErrToolNameEmpty    = errors.New("tool name is empty")
)

// Handler executes one tool call using parsed arguments.
type Handler func(ctx context.Context, args map[string]any) (string, error)

// Registry stores handlers by tool name.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

var _ ports.ToolGateway = (*Registry)(nil)

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: map[string]Handler{}}
}

// Register adds or replaces a handler.
func (r *Registry) Register(name string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = handler
}

// Names lists registered tools in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute runs the named tool.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if name == "" {
		return "", ErrToolNameEmpty
	}

	r.mu.RLock()
	handler, ok := r.handlers[name]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrToolUnregistered, name)
	}
	if handler == nil {
		return "", fmt.Errorf("%w: %q", ErrNilHandler, name)
	}
	return handler(ctx, args)
}
