package model

import (
	"fmt"

	"github.com/goliatone/go-propsync/pkg/property"
	"github.com/goliatone/go-propsync/pkg/wrappers"
)

// Serialized is the wire form of a model.
type Serialized struct {
	Type       string         `json:"type"`
	ID         string         `json:"id"`
	Attributes map[string]any `json:"attributes"`
}

// ToSerializable exports the serialised attributes through their
// descriptors, so data specs keep their wire shape.
func (m *Model) ToSerializable(includeDefaults bool) (Serialized, error) {
	values, err := m.PropertiesWithValues(includeDefaults)
	if err != nil {
		return Serialized{}, err
	}
	attrs := make(map[string]any, len(values))
	for _, name := range sortedKeys(values) {
		d, _ := m.class.Descriptor(name)
		encoded, err := d.SerializableValue(m)
		if err != nil {
			return Serialized{}, fmt.Errorf("model: serialise %s.%s: %w", m.class.Name(), name, err)
		}
		attrs[name] = encoded
	}
	return Serialized{Type: m.class.Name(), ID: m.id, Attributes: attrs}, nil
}

// ApplySerializable decodes attrs into the model in name order.
func (m *Model) ApplySerializable(attrs map[string]any, refs property.Resolver, setter any) error {
	for _, name := range sortedKeys(attrs) {
		if err := m.SetFromJSON(name, attrs[name], refs, setter); err != nil {
			return err
		}
	}
	return nil
}

// References returns m and every model reachable from it through attributes
// that may hold references, in discovery order.
func (m *Model) References() ([]*Model, error) {
	seen := map[*Model]struct{}{m: {}}
	order := []*Model{m}
	for idx := 0; idx < len(order); idx++ {
		current := order[idx]
		for _, name := range current.class.PropertiesWithRefs() {
			value, err := current.Get(name)
			if err != nil {
				return nil, err
			}
			visitModels(value, func(found *Model) {
				if _, ok := seen[found]; ok {
					return
				}
				seen[found] = struct{}{}
				order = append(order, found)
			})
		}
	}
	return order, nil
}

func visitModels(value any, visit func(*Model)) {
	switch v := value.(type) {
	case *Model:
		if v != nil {
			visit(v)
		}
	case *wrappers.List:
		for _, item := range v.Values() {
			visitModels(item, visit)
		}
	case *wrappers.Map:
		for _, key := range v.Keys() {
			item, _ := v.Get(key)
			visitModels(item, visit)
		}
	case []any:
		for _, item := range v {
			visitModels(item, visit)
		}
	case map[string]any:
		for _, item := range v {
			visitModels(item, visit)
		}
	}
}
