package property

import "sort"

// Kind classifies a Type once, at declaration time, so registration and
// descriptor selection never inspect concrete types.
type Kind int

const (
	KindPlain Kind = iota
	KindContainer
	KindDataSpec
	KindUnitsSpec
)

func (k Kind) String() string {
	switch k {
	case KindPlain:
		return "plain"
	case KindContainer:
		return "container"
	case KindDataSpec:
		return "dataspec"
	case KindUnitsSpec:
		return "unitsspec"
	default:
		return "unknown"
	}
}

// Type is the value-domain logic a descriptor delegates to: validation,
// coercion, change detection, defaults and the JSON codec for one attribute.
type Type interface {
	Kind() Kind

	// Validate reports whether value belongs to the domain without coercing it.
	Validate(value any) error
	// PrepareValue validates and coerces value before it is stored. Failures
	// must match ErrValidation.
	PrepareValue(owner Owner, name string, value any) (any, error)
	// Matches is the equality used for change detection.
	Matches(a, b any) bool

	// HasStableDefault reports whether ThemedDefault yields the same value on
	// every call when no theme value applies.
	HasStableDefault() bool
	// ThemedDefault resolves the default for name on cls, preferring themed
	// values, then class overrides, then the declared default.
	ThemedDefault(cls *Class, name string, themed map[string]any) (any, error)

	SerializeValue(value any) (any, error)
	FromJSON(json any, refs Resolver) (any, error)

	Readonly() bool
	Serialized() bool
	// HasRef reports whether values may be or contain references to other
	// model instances.
	HasRef() bool
}

// DataSpecType is implemented by types whose values may arrive as a plain
// value, a field reference or a full mapping.
type DataSpecType interface {
	Type
	// PlainType validates the bare-value shape.
	PlainType() Type
	// ToSerializable builds the wire form from the owner, attribute name and
	// current value together.
	ToSerializable(owner Owner, name string, value any) (any, error)
}

// UnitsSpecType is a DataSpecType that stores its units in a sibling
// attribute.
type UnitsSpecType interface {
	DataSpecType
	UnitsType() Type
	UnitsName(base string) string
}

// Hint describes how a container changed in place.
type Hint interface {
	HintKind() string
}

// Resolver resolves model references while decoding JSON.
type Resolver interface {
	ResolveRef(id string) (Owner, bool)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(id string) (Owner, bool)

// ResolveRef implements Resolver.
func (f ResolverFunc) ResolveRef(id string) (Owner, bool) {
	if f == nil {
		return nil, false
	}
	return f(id)
}

// Owner is the model instance contract consumed by descriptors.
type Owner interface {
	Class() *Class
	// Storage returns nil until the instance finished initialisation.
	Storage() *Storage
	ThemedValues() map[string]any
	Trigger(name string, old, value any, hint Hint, setter any) error
}

// Storage is the per-instance mapping from attribute name to materialised
// value. The zero value is not usable; call NewStorage.
type Storage struct {
	values map[string]any
}

// NewStorage returns empty storage.
func NewStorage() *Storage {
	return &Storage{values: make(map[string]any)}
}

// Lookup returns the stored value and whether the name is present.
func (s *Storage) Lookup(name string) (any, bool) {
	if s == nil {
		return nil, false
	}
	value, ok := s.values[name]
	return value, ok
}

// Has reports whether name is present.
func (s *Storage) Has(name string) bool {
	_, ok := s.Lookup(name)
	return ok
}

// Put stores value under name.
func (s *Storage) Put(name string, value any) {
	s.values[name] = value
}

// Remove drops name, reporting whether it was present.
func (s *Storage) Remove(name string) bool {
	if s == nil {
		return false
	}
	if _, ok := s.values[name]; !ok {
		return false
	}
	delete(s.values, name)
	return true
}

// Names returns the stored names in sorted order.
func (s *Storage) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.values))
	for name := range s.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of stored names.
func (s *Storage) Len() int {
	if s == nil {
		return 0
	}
	return len(s.values)
}
