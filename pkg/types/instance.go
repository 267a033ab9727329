package types

import (
	"fmt"

	"github.com/goliatone/go-propsync/pkg/property"
)

// Referenceable is implemented by model instances that can be referenced
// from another instance's attributes.
type Referenceable interface {
	property.Owner
	ID() string
}

// InstanceType holds a reference to another model instance.
type InstanceType struct {
	Base
	class *property.Class
}

var _ property.Type = (*InstanceType)(nil)

// Instance declares a reference to an instance of class or any subclass. A
// nil class accepts every model. The default is nil.
func Instance(class *property.Class, opts ...Option) *InstanceType {
	t := &InstanceType{class: class}
	t.Base = newBase(nil, opts)
	t.coerce = func(v any) (any, error) {
		if err := t.Validate(v); err != nil {
			return nil, err
		}
		return v, nil
	}
	return t
}

// Class returns the accepted class.
func (t *InstanceType) Class() *property.Class { return t.class }

// Kind implements property.Type.
func (t *InstanceType) Kind() property.Kind { return property.KindPlain }

// HasRef implements property.Type.
func (t *InstanceType) HasRef() bool { return true }

// Validate implements property.Type.
func (t *InstanceType) Validate(value any) error {
	if value == nil {
		return nil
	}
	ref, ok := value.(Referenceable)
	if !ok {
		return fmt.Errorf("expected a model instance, got %s", describe(value))
	}
	if t.class != nil && !ref.Class().IsSubclassOf(t.class) {
		return fmt.Errorf("expected an instance of %s, got %s", t.class.Name(), ref.Class().Name())
	}
	return nil
}

// PrepareValue implements property.Type.
func (t *InstanceType) PrepareValue(_ property.Owner, name string, value any) (any, error) {
	if err := t.Validate(value); err != nil {
		return nil, property.ValidationError(name, err)
	}
	return value, nil
}

// Matches implements property.Type. References match only when they point
// at the same instance.
func (t *InstanceType) Matches(a, b any) bool {
	ra, okA := a.(Referenceable)
	rb, okB := b.(Referenceable)
	switch {
	case !okA && !okB:
		return a == nil && b == nil
	case okA && okB:
		return ra == rb
	default:
		return false
	}
}

// SerializeValue implements property.Type. References are encoded as
// {"id": <id>}.
func (t *InstanceType) SerializeValue(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	ref, ok := value.(Referenceable)
	if !ok {
		return nil, fmt.Errorf("expected a model instance, got %s", describe(value))
	}
	return map[string]any{"id": ref.ID()}, nil
}

// FromJSON implements property.Type. Accepts {"id": <id>} or a bare id.
func (t *InstanceType) FromJSON(value any, refs property.Resolver) (any, error) {
	if value == nil {
		return nil, nil
	}
	var id string
	switch v := value.(type) {
	case string:
		id = v
	case map[string]any:
		id, _ = v["id"].(string)
	}
	if id == "" {
		return nil, fmt.Errorf("expected a reference, got %s", describe(value))
	}
	if refs == nil {
		return nil, fmt.Errorf("cannot resolve reference %q without a resolver", id)
	}
	owner, ok := refs.ResolveRef(id)
	if !ok {
		return nil, fmt.Errorf("unknown reference %q", id)
	}
	if err := t.Validate(owner); err != nil {
		return nil, err
	}
	return owner, nil
}
