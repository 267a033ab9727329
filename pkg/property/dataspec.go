package property

import "maps"

// DataSpecDescriptor serves attributes whose value may be supplied as a bare
// value, a field reference or a full mapping. Updates decoded from JSON keep
// the shape the instance currently holds.
type DataSpecDescriptor struct {
	*BasicDescriptor
	spec DataSpecType
}

var _ Descriptor = (*DataSpecDescriptor)(nil)

// NewDataSpecDescriptor constructs a descriptor for spec under name.
func NewDataSpecDescriptor(spec DataSpecType, name string) *DataSpecDescriptor {
	return &DataSpecDescriptor{
		BasicDescriptor: NewBasicDescriptor(spec, name),
		spec:            spec,
	}
}

// Spec returns the shape-preserving type.
func (d *DataSpecDescriptor) Spec() DataSpecType { return d.spec }

// SerializableValue derives the wire form from the owner, name and value
// together, since it may depend on sibling attributes.
func (d *DataSpecDescriptor) SerializableValue(obj Owner) (any, error) {
	value, err := d.Get(obj)
	if err != nil {
		return nil, err
	}
	return d.spec.ToSerializable(obj, d.name, value)
}

// SetFromJSON collapses an incoming mapping to the shape currently held: a
// plain current value takes the mapping's "value", a field reference takes
// its "field". Anything else is decoded as the full mapping.
func (d *DataSpecDescriptor) SetFromJSON(obj Owner, json any, refs Resolver, setter any) error {
	if mapping, ok := json.(map[string]any); ok {
		current, err := d.Get(obj)
		if err != nil {
			return err
		}
		json = collapseShape(d.spec, current, mapping)
	}
	return d.BasicDescriptor.SetFromJSON(obj, json, refs, setter)
}

func collapseShape(spec DataSpecType, current any, mapping map[string]any) any {
	if current == nil {
		return mapping
	}
	if plain := spec.PlainType(); plain != nil && plain.Validate(current) == nil {
		if inner, ok := mapping["value"]; ok {
			return inner
		}
		return mapping
	}
	if _, isField := current.(string); isField {
		if inner, ok := mapping["field"].(string); ok && inner != "" {
			return inner
		}
	}
	return mapping
}

// UnitsSpecDescriptor is a DataSpecDescriptor that moves an embedded "units"
// entry into its sibling units attribute before every write.
type UnitsSpecDescriptor struct {
	*DataSpecDescriptor
	units Descriptor
}

var _ Descriptor = (*UnitsSpecDescriptor)(nil)

// NewUnitsSpecDescriptor constructs a descriptor for spec under name that
// writes units through the units descriptor.
func NewUnitsSpecDescriptor(spec UnitsSpecType, name string, units Descriptor) *UnitsSpecDescriptor {
	return &UnitsSpecDescriptor{
		DataSpecDescriptor: NewDataSpecDescriptor(spec, name),
		units:              units,
	}
}

// Units returns the sibling units descriptor.
func (d *UnitsSpecDescriptor) Units() Descriptor { return d.units }

// Set implements Descriptor. The lifecycle and read-only checks run before the
// units are split off so a rejected write leaves the sibling untouched.
func (d *UnitsSpecDescriptor) Set(obj Owner, value any, setter any) error {
	if _, err := d.storage(obj, "set"); err != nil {
		return err
	}
	if d.prop.Readonly() {
		return newError(ErrReadOnly, className(obj), d.name, nil)
	}
	value, err := d.extractUnits(obj, value, setter)
	if err != nil {
		return err
	}
	return d.DataSpecDescriptor.Set(obj, value, setter)
}

// SetFromJSON implements Descriptor.
func (d *UnitsSpecDescriptor) SetFromJSON(obj Owner, json any, refs Resolver, setter any) error {
	if _, err := d.storage(obj, "set"); err != nil {
		return err
	}
	json, err := d.extractUnits(obj, json, setter)
	if err != nil {
		return err
	}
	return d.DataSpecDescriptor.SetFromJSON(obj, json, refs, setter)
}

// mappingValues is implemented by map containers.
type mappingValues interface {
	Values() map[string]any
}

// extractUnits returns value without its "units" entry. The caller's mapping
// is never modified; a copy is taken whenever the entry is present. Map
// containers are read through their values.
func (d *UnitsSpecDescriptor) extractUnits(obj Owner, value any, setter any) (any, error) {
	var mapping map[string]any
	switch v := value.(type) {
	case map[string]any:
		mapping = v
	case mappingValues:
		mapping = v.Values()
	default:
		return value, nil
	}
	units, ok := mapping["units"]
	if !ok {
		return value, nil
	}
	stripped := maps.Clone(mapping)
	delete(stripped, "units")
	if !emptyUnits(units) && d.units != nil {
		if err := d.units.Set(obj, units, setter); err != nil {
			return nil, err
		}
	}
	return stripped, nil
}

func emptyUnits(units any) bool {
	switch v := units.(type) {
	case nil:
		return true
	case string:
		return v == ""
	default:
		return false
	}
}
