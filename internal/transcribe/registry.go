package transcribe

import (
	"fmt"
	"sort"
	"sync"

	"github.com/WanderingAstronomer/Vociferous-sub003/pkg/logger"
)

// Engine kinds registered by DefaultRegistry
const (
	KindWindowed = "windowed"
	KindStub     = "stub"
)

// Factory builds a configured engine instance
type Factory func(config EngineConfig, log *logger.Logger) (Engine, error)

// Registry maps engine kind names to factories. It is built once by the
// composition root and read-only afterwards, so lookups are cheap.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty engine registry
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under the given kind name
func (r *Registry) Register(kind string, factory Factory) error {
	if kind == "" {
		return fmt.Errorf("engine kind must not be empty")
	}
	if factory == nil {
		return fmt.Errorf("factory for engine kind %q must not be nil", kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[kind]; exists {
		return fmt.Errorf("engine kind %q already registered", kind)
	}
	r.factories[kind] = factory
	return nil
}

// Create builds an engine of the given kind
func (r *Registry) Create(kind string, config EngineConfig, log *logger.Logger) (Engine, error) {
	r.mu.RLock()
	factory, ok := r.factories[kind]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown engine kind %q (available: %v)", kind, r.Kinds())
	}
	engine, err := factory(config, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s engine: %w", kind, err)
	}
	return engine, nil
}

// Has reports whether a kind is registered
func (r *Registry) Has(kind string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.factories[kind]
	return ok
}

// Kinds returns the registered kind names in sorted order
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.factories))
	for kind := range r.factories {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// DefaultRegistry returns a registry with the built-in engine kinds
func DefaultRegistry() *Registry {
	registry := NewRegistry()
	registry.Register(KindWindowed, func(config EngineConfig, log *logger.Logger) (Engine, error) {
		return NewWindowedEngine(config, log)
	})
	registry.Register(KindStub, func(config EngineConfig, log *logger.Logger) (Engine, error) {
		return NewStubEngine(config, log)
	})
	return registry
}
