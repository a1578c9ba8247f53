package sources

import (
	"fmt"
	"sort"
	"sync"
)

// Global registry for adapter self-registration during init().
var globalRegistry = &Registry{
	prototypes: make(map[string]Source),
	sources:    make(map[string]Source),
}

// Registry holds adapter prototypes by type and configured source instances
// by name.
type Registry struct {
	prototypes map[string]Source
	sources    map[string]Source
	mu         sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		prototypes: make(map[string]Source),
		sources:    make(map[string]Source),
	}
}

// RegisterPrototype allows adapters to register themselves during init().
func RegisterPrototype(sourceType string, prototype Source) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	globalRegistry.prototypes[sourceType] = prototype
}

// GetGlobalRegistry returns a registry seeded with every self-registered
// adapter prototype.
func GetGlobalRegistry() *Registry {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	registry := NewRegistry()
	for sourceType, prototype := range globalRegistry.prototypes {
		registry.prototypes[sourceType] = prototype
	}
	return registry
}

// CreateSource instantiates a configured source from a registered prototype.
func (r *Registry) CreateSource(instanceName, sourceType string, config interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prototype, exists := r.prototypes[sourceType]
	if !exists {
		return fmt.Errorf("source type %s not registered", sourceType)
	}

	if validator, ok := config.(interface{ Validate() error }); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("invalid config for source %s: %w", instanceName, err)
		}
	}

	source, err := prototype.Factory(instanceName, config)
	if err != nil {
		return fmt.Errorf("creating source %s: %w", instanceName, err)
	}

	r.sources[instanceName] = source
	return nil
}

// GetSource returns a configured source instance by name.
func (r *Registry) GetSource(name string) (Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	source, exists := r.sources[name]
	if !exists {
		return nil, fmt.Errorf("source %s not found", name)
	}
	return source, nil
}

// AllSources returns every configured source, ordered by instance name so
// rebuilds run in a stable order.
func (r *Registry) AllSources() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)

	sources := make([]Source, 0, len(names))
	for _, name := range names {
		sources = append(sources, r.sources[name])
	}
	return sources
}

// PrototypeConfigType returns an empty config struct for a registered
// adapter type, for the configuration layer to decode into.
func (r *Registry) PrototypeConfigType(sourceType string) (interface{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	prototype, exists := r.prototypes[sourceType]
	if !exists {
		return nil, fmt.Errorf("source type %s not registered", sourceType)
	}
	return prototype.ConfigType(), nil
}

// Types lists the registered adapter types.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.prototypes))
	for t := range r.prototypes {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
