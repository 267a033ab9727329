package property

import "fmt"

// Factory produces the descriptors for one declaration. A single declaration
// may produce several descriptors, e.g. a units spec and its units sibling.
type Factory interface {
	MakeDescriptors(base string) ([]Descriptor, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(base string) ([]Descriptor, error)

// MakeDescriptors implements Factory.
func (f FactoryFunc) MakeDescriptors(base string) ([]Descriptor, error) {
	return f(base)
}

// TypeFactory declares an attribute from a Type, picking the descriptor
// variant from the type's Kind.
type TypeFactory struct {
	Type Type
}

// MakeDescriptors implements Factory.
func (f TypeFactory) MakeDescriptors(base string) ([]Descriptor, error) {
	return Descriptors(f.Type, base)
}

// Descriptors builds the descriptors for t declared under name.
func Descriptors(t Type, name string) ([]Descriptor, error) {
	if t == nil {
		return nil, fmt.Errorf("attribute %q has no type", name)
	}
	switch t.Kind() {
	case KindUnitsSpec:
		spec, ok := t.(UnitsSpecType)
		if !ok {
			return nil, fmt.Errorf("attribute %q: %T declares units spec kind without implementing UnitsSpecType", name, t)
		}
		unitsType := spec.UnitsType()
		if unitsType == nil {
			return nil, fmt.Errorf("attribute %q: units spec has no units type", name)
		}
		units := NewBasicDescriptor(unitsType, spec.UnitsName(name))
		return []Descriptor{NewUnitsSpecDescriptor(spec, name, units), units}, nil
	case KindDataSpec:
		spec, ok := t.(DataSpecType)
		if !ok {
			return nil, fmt.Errorf("attribute %q: %T declares data spec kind without implementing DataSpecType", name, t)
		}
		return []Descriptor{NewDataSpecDescriptor(spec, name)}, nil
	default:
		return []Descriptor{NewBasicDescriptor(t, name)}, nil
	}
}
