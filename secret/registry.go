package secret

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// ProviderFactory builds a Provider from its configuration block.
type ProviderFactory func(cfg map[string]any) (Provider, error)

// Registry maps provider names, as used in secretref values, to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]ProviderFactory
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]ProviderFactory{}}
}

// Register binds name to factory. Names are trimmed and may be bound once.
func (r *Registry) Register(name string, factory ProviderFactory) error {
	name = strings.TrimSpace(name)
	if name == "" || factory == nil {
		return ErrInvalidRegistration
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.factories[name] != nil {
		return fmt.Errorf("%w: %q", ErrAlreadyRegistered, name)
	}
	r.factories[name] = factory
	return nil
}

// Create builds the provider bound to name.
func (r *Registry) Create(name string, cfg map[string]any) (Provider, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: empty provider name", ErrInvalidRef)
	}

	r.mu.RLock()
	factory := r.factories[name]
	r.mu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("%w: %q", ErrProviderNotRegistered, name)
	}
	return factory(cfg)
}

// List returns the bound names in order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.factories))
}

// NewDefaultRegistry returns a registry with the built-in providers:
// "env" (EnvProvider) and "gh" (the GitHub CLI, see NewGHProvider).
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	_ = r.Register("env", func(map[string]any) (Provider, error) { return NewEnvProvider(), nil })
	_ = r.Register("gh", func(map[string]any) (Provider, error) { return NewGHProvider(), nil })
	_ = r.Register("command", newCommandFromConfig)
	return r
}

// newCommandFromConfig reads "name" (string) and "command" ([]string or
// []any of strings).
func newCommandFromConfig(cfg map[string]any) (Provider, error) {
	name, _ := cfg["name"].(string)
	if name == "" {
		name = "command"
	}
	var argv []string
	switch v := cfg["command"].(type) {
	case []string:
		argv = v
	case []any:
		for _, a := range v {
			s, ok := a.(string)
			if !ok {
				return nil, fmt.Errorf("%w: command arguments must be strings", ErrInvalidRef)
			}
			argv = append(argv, s)
		}
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("%w: command is required", ErrInvalidRef)
	}
	return NewCommandProvider(name, argv...), nil
}
