package types

import (
	"errors"
	"fmt"
	"maps"

	"github.com/goliatone/go-propsync/pkg/property"
	"github.com/goliatone/go-propsync/pkg/wrappers"
)

// Keys recognised in the mapping form of a spec value.
const (
	SpecValueKey     = "value"
	SpecFieldKey     = "field"
	SpecExprKey      = "expr"
	SpecTransformKey = "transform"
	SpecUnitsKey     = "units"
)

// NumberSpecType is a data spec whose plain form is a number. Values may be
// a number, a field name, or a mapping carrying "value", "field" or "expr".
type NumberSpecType struct {
	Base
	plain *Scalar
}

var _ property.DataSpecType = (*NumberSpecType)(nil)

// NumberSpec declares a number data spec. The default is nil.
func NumberSpec(opts ...Option) *NumberSpecType {
	t := &NumberSpecType{plain: Float()}
	t.Base = newBase(nil, opts)
	t.coerce = t.normalise
	return t
}

// Kind implements property.Type.
func (t *NumberSpecType) Kind() property.Kind { return property.KindDataSpec }

// PlainType implements property.DataSpecType.
func (t *NumberSpecType) PlainType() property.Type { return t.plain }

// Validate implements property.Type.
func (t *NumberSpecType) Validate(value any) error {
	_, err := t.normalise(value)
	return err
}

// PrepareValue implements property.Type.
func (t *NumberSpecType) PrepareValue(_ property.Owner, name string, value any) (any, error) {
	out, err := t.normalise(value)
	if err != nil {
		return nil, property.ValidationError(name, err)
	}
	return out, nil
}

// SerializeValue implements property.Type.
func (t *NumberSpecType) SerializeValue(value any) (any, error) {
	return t.ToSerializable(nil, "", value)
}

// ToSerializable implements property.DataSpecType. The wire form is always a
// mapping: plain values become {"value": v}, field names {"field": f}.
func (t *NumberSpecType) ToSerializable(_ property.Owner, _ string, value any) (any, error) {
	switch v := wrappers.Unwrap(value).(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return maps.Clone(v), nil
	case string:
		return map[string]any{SpecFieldKey: v}, nil
	default:
		if err := t.plain.Validate(v); err != nil {
			return nil, err
		}
		return map[string]any{SpecValueKey: v}, nil
	}
}

// FromJSON implements property.Type.
func (t *NumberSpecType) FromJSON(value any, _ property.Resolver) (any, error) {
	return t.normalise(value)
}

func (t *NumberSpecType) normalise(value any) (any, error) {
	switch v := wrappers.Unwrap(value).(type) {
	case nil:
		return nil, nil
	case string:
		return v, nil
	case map[string]any:
		return normaliseSpecMapping(t.plain, v)
	default:
		return t.plain.convert(v)
	}
}

// normaliseSpecMapping copies the mapping with "value" converted by plain.
// Unknown keys are kept; exactly one of value, field or expr must be present.
func normaliseSpecMapping(plain *Scalar, in map[string]any) (any, error) {
	out := maps.Clone(in)
	found := 0
	if raw, ok := in[SpecValueKey]; ok {
		found++
		if raw != nil {
			converted, err := plain.convert(raw)
			if err != nil {
				return nil, fmt.Errorf("%q: %w", SpecValueKey, err)
			}
			out[SpecValueKey] = converted
		}
	}
	if raw, ok := in[SpecFieldKey]; ok {
		found++
		if _, isString := raw.(string); !isString {
			return nil, fmt.Errorf("%q must be a string, got %s", SpecFieldKey, describe(raw))
		}
	}
	if _, ok := in[SpecExprKey]; ok {
		found++
	}
	switch found {
	case 0:
		return nil, errors.New("expected one of \"value\", \"field\" or \"expr\"")
	case 1:
		return out, nil
	default:
		return nil, errors.New("only one of \"value\", \"field\" or \"expr\" may be given")
	}
}

// StringSpecType is a data spec whose plain form is a string. Unlike
// NumberSpec a bare string is a value; fields need the mapping form.
type StringSpecType struct {
	Base
	plain *Scalar
}

var _ property.DataSpecType = (*StringSpecType)(nil)

// StringSpec declares a string data spec. The default is nil.
func StringSpec(opts ...Option) *StringSpecType {
	t := &StringSpecType{plain: String()}
	t.Base = newBase(nil, opts)
	t.coerce = t.normalise
	return t
}

// Kind implements property.Type.
func (t *StringSpecType) Kind() property.Kind { return property.KindDataSpec }

// PlainType implements property.DataSpecType.
func (t *StringSpecType) PlainType() property.Type { return t.plain }

// Validate implements property.Type.
func (t *StringSpecType) Validate(value any) error {
	_, err := t.normalise(value)
	return err
}

// PrepareValue implements property.Type.
func (t *StringSpecType) PrepareValue(_ property.Owner, name string, value any) (any, error) {
	out, err := t.normalise(value)
	if err != nil {
		return nil, property.ValidationError(name, err)
	}
	return out, nil
}

// SerializeValue implements property.Type.
func (t *StringSpecType) SerializeValue(value any) (any, error) {
	return t.ToSerializable(nil, "", value)
}

// ToSerializable implements property.DataSpecType.
func (t *StringSpecType) ToSerializable(_ property.Owner, _ string, value any) (any, error) {
	switch v := wrappers.Unwrap(value).(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return maps.Clone(v), nil
	case string:
		return map[string]any{SpecValueKey: v}, nil
	default:
		return nil, fmt.Errorf("expected a string or a mapping, got %s", describe(v))
	}
}

// FromJSON implements property.Type.
func (t *StringSpecType) FromJSON(value any, _ property.Resolver) (any, error) {
	return t.normalise(value)
}

func (t *StringSpecType) normalise(value any) (any, error) {
	switch v := wrappers.Unwrap(value).(type) {
	case nil:
		return nil, nil
	case string:
		return v, nil
	case map[string]any:
		return normaliseSpecMapping(t.plain, v)
	default:
		return nil, fmt.Errorf("expected a string or a mapping, got %s", describe(v))
	}
}

// UnitsSpecType is a number spec whose units live in a sibling attribute
// named `<name>_units`.
type UnitsSpecType struct {
	*NumberSpecType
	units *Scalar
}

var _ property.UnitsSpecType = (*UnitsSpecType)(nil)

// UnitsSpec declares a number spec measured in one of units, defaulting to
// defaultUnits.
func UnitsSpec(units []string, defaultUnits string, opts ...Option) *UnitsSpecType {
	return &UnitsSpecType{
		NumberSpecType: NumberSpec(opts...),
		units:          Enum(units, WithDefault(defaultUnits)),
	}
}

// DistanceSpec is a units spec measured in "data" (default) or "screen"
// units.
func DistanceSpec(opts ...Option) *UnitsSpecType {
	return UnitsSpec([]string{"data", "screen"}, "data", opts...)
}

// Kind implements property.Type.
func (t *UnitsSpecType) Kind() property.Kind { return property.KindUnitsSpec }

// UnitsType implements property.UnitsSpecType.
func (t *UnitsSpecType) UnitsType() property.Type { return t.units }

// UnitsName implements property.UnitsSpecType.
func (t *UnitsSpecType) UnitsName(base string) string { return base + "_units" }

// ToSerializable implements property.DataSpecType. The sibling units are
// added to the mapping unless it already carries them.
func (t *UnitsSpecType) ToSerializable(owner property.Owner, name string, value any) (any, error) {
	out, err := t.NumberSpecType.ToSerializable(owner, name, value)
	if err != nil || out == nil || owner == nil {
		return out, err
	}
	mapping := out.(map[string]any)
	if _, ok := mapping[SpecUnitsKey]; ok {
		return mapping, nil
	}
	d, ok := owner.Class().Descriptor(t.UnitsName(name))
	if !ok {
		return mapping, nil
	}
	units, err := d.Get(owner)
	if err != nil {
		return nil, err
	}
	mapping[SpecUnitsKey] = units
	return mapping, nil
}
