package property

import (
	"fmt"
	"sort"
	"sync"
)

// Registry stores classes by name so documents can instantiate models from
// their serialised type names.
type Registry struct {
	mu      sync.RWMutex
	classes map[string]*Class
}

// NewRegistry creates an empty registry instance.
func NewRegistry() *Registry {
	return &Registry{
		classes: make(map[string]*Class),
	}
}

// Register adds a class by its Name(). Duplicate names return an error.
func (r *Registry) Register(cls *Class) error {
	if cls == nil {
		return fmt.Errorf("property: class is required")
	}
	name := cls.Name()
	if name == "" {
		return fmt.Errorf("property: class name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.classes[name]; exists {
		return ConfigurationError(name, "", fmt.Errorf("class %q already registered", name))
	}

	r.classes[name] = cls
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *Registry) MustRegister(classes ...*Class) {
	for _, cls := range classes {
		if err := r.Register(cls); err != nil {
			panic(err)
		}
	}
}

// Get retrieves a class by name.
func (r *Registry) Get(name string) (*Class, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cls, ok := r.classes[name]
	if !ok {
		return nil, fmt.Errorf("property: class %q not found", name)
	}
	return cls, nil
}

// List returns a sorted list of class names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.classes))
	for name := range r.classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether a class is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.classes[name]
	return ok
}
