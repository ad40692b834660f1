package operation

import (
	"fmt"
	"sort"
	"sync"

	"github.com/hesitationer/into/errors"
)

// Factory creates an operation instance with the given instance name. The
// factory only constructs; configuration is applied afterwards through the
// property table and I/O happens after Start.
type Factory func(name string) (Operation, error)

// Registration holds factory and metadata for an operation type
type Registration struct {
	Name        string  `json:"name"`        // Type name (e.g. "generator")
	Description string  `json:"description"` // Human-readable description
	Version     string  `json:"version"`     // Operation version
	Factory     Factory `json:"-"`           // Factory function (not serializable)
}

// Registry manages operation factories. It provides thread-safe
// registration and lookup; the engine uses it to reconstruct graphs from
// persisted topology. It is passed explicitly to engine construction
// rather than living in a process-wide singleton.
type Registry struct {
	factories map[string]*Registration
	mu        sync.RWMutex
}

// NewRegistry creates a new empty operation registry
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]*Registration)}
}

// RegisterFactory registers an operation factory under its type name.
// Returns an error if a factory with the same name is already registered.
func (r *Registry) RegisterFactory(registration *Registration) error {
	if registration == nil || registration.Name == "" {
		return errors.WrapConfig(errors.ErrInvalidConfig, "Registry", "RegisterFactory", "registration validation")
	}
	if registration.Factory == nil {
		return errors.WrapConfig(errors.ErrInvalidConfig, "Registry", "RegisterFactory", "factory function validation")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[registration.Name]; exists {
		msg := fmt.Errorf("factory %q is already registered", registration.Name)
		return errors.WrapConfig(msg, "Registry", "RegisterFactory", "duplicate factory check")
	}

	r.factories[registration.Name] = registration
	return nil
}

// Create instantiates an operation of the given type with the given
// instance name.
func (r *Registry) Create(typeName, instanceName string) (Operation, error) {
	if instanceName == "" {
		return nil, errors.WrapConfig(errors.ErrInvalidConfig, "Registry", "Create", "instance name validation")
	}

	r.mu.RLock()
	registration, exists := r.factories[typeName]
	r.mu.RUnlock()
	if !exists {
		return nil, errors.WrapConfig(
			fmt.Errorf("%q: %w", typeName, errors.ErrUnknownFactory),
			"Registry", "Create", "factory lookup")
	}

	op, err := registration.Factory(instanceName)
	if err != nil {
		return nil, errors.WrapConfig(err, "Registry", "Create", "factory "+typeName)
	}
	return op, nil
}

// ListFactories returns the registered type names in sorted order.
func (r *Registry) ListFactories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the registration for a type name.
func (r *Registry) Lookup(typeName string) (*Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.factories[typeName]
	return reg, ok
}
