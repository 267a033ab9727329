package types

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"

	"github.com/goliatone/go-propsync/pkg/property"
)

// Scalar is a plain, non-container type defined by a conversion function.
type Scalar struct {
	Base
	name    string
	convert func(any) (any, error)
}

var _ property.Type = (*Scalar)(nil)

func newScalar(name string, zero any, convert func(any) (any, error), opts []Option) *Scalar {
	s := &Scalar{name: name, convert: convert}
	s.Base = newBase(zero, opts)
	s.coerce = convert
	return s
}

// String returns the type name.
func (s *Scalar) String() string { return s.name }

// Kind implements property.Type.
func (s *Scalar) Kind() property.Kind { return property.KindPlain }

// Validate implements property.Type.
func (s *Scalar) Validate(value any) error {
	_, err := s.convert(value)
	return err
}

// PrepareValue implements property.Type.
func (s *Scalar) PrepareValue(_ property.Owner, name string, value any) (any, error) {
	out, err := s.convert(value)
	if err != nil {
		return nil, property.ValidationError(name, err)
	}
	return out, nil
}

// SerializeValue implements property.Type.
func (s *Scalar) SerializeValue(value any) (any, error) {
	return value, nil
}

// FromJSON implements property.Type.
func (s *Scalar) FromJSON(value any, _ property.Resolver) (any, error) {
	return s.convert(value)
}

// Any accepts every value unchanged.
func Any(opts ...Option) *Scalar {
	return newScalar("Any", nil, func(v any) (any, error) { return v, nil }, opts)
}

// Bool accepts booleans.
func Bool(opts ...Option) *Scalar {
	return newScalar("Bool", false, func(v any) (any, error) {
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("expected a bool, got %s", describe(v))
		}
		return b, nil
	}, opts)
}

// Int accepts integral numbers and stores them as int.
func Int(opts ...Option) *Scalar {
	return newScalar("Int", 0, toInt, opts)
}

// Float accepts numbers and stores them as float64.
func Float(opts ...Option) *Scalar {
	return newScalar("Float", 0.0, toFloat, opts)
}

// String accepts strings.
func String(opts ...Option) *Scalar {
	return newScalar("String", "", func(v any) (any, error) {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected a string, got %s", describe(v))
		}
		return s, nil
	}, opts)
}

// Enum accepts one of the allowed strings. The first allowed value is the
// default unless WithDefault says otherwise.
func Enum(allowed []string, opts ...Option) *Scalar {
	set := make(map[string]struct{}, len(allowed))
	for _, value := range allowed {
		set[value] = struct{}{}
	}
	sorted := append([]string(nil), allowed...)
	sort.Strings(sorted)

	var zero any
	if len(allowed) > 0 {
		zero = allowed[0]
	}
	return newScalar("Enum("+strings.Join(allowed, ", ")+")", zero, func(v any) (any, error) {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected one of %q, got %s", sorted, describe(v))
		}
		if _, ok := set[s]; !ok {
			return nil, fmt.Errorf("invalid value %q, expected one of %q", s, sorted)
		}
		return s, nil
	}, opts)
}

// NullableType accepts nil or any value of its inner type.
type NullableType struct {
	Base
	inner property.Type
}

var _ property.Type = (*NullableType)(nil)

// Nullable wraps inner so nil is accepted. The default is nil.
func Nullable(inner property.Type, opts ...Option) *NullableType {
	t := &NullableType{inner: inner}
	t.Base = newBase(nil, opts)
	t.coerce = func(v any) (any, error) {
		return t.PrepareValue(nil, "", v)
	}
	return t
}

// Inner returns the wrapped type.
func (t *NullableType) Inner() property.Type { return t.inner }

// Kind implements property.Type.
func (t *NullableType) Kind() property.Kind { return t.inner.Kind() }

// HasRef implements property.Type.
func (t *NullableType) HasRef() bool { return t.inner.HasRef() }

// HasStableDefault implements property.Type.
func (t *NullableType) HasStableDefault() bool {
	return t.Base.HasStableDefault() && (t.inner.Kind() != property.KindContainer || t.def == nil)
}

// Validate implements property.Type.
func (t *NullableType) Validate(value any) error {
	if value == nil {
		return nil
	}
	return t.inner.Validate(value)
}

// PrepareValue implements property.Type.
func (t *NullableType) PrepareValue(owner property.Owner, name string, value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	return t.inner.PrepareValue(owner, name, value)
}

// Matches implements property.Type.
func (t *NullableType) Matches(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return t.inner.Matches(a, b)
}

// SerializeValue implements property.Type.
func (t *NullableType) SerializeValue(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	return t.inner.SerializeValue(value)
}

// FromJSON implements property.Type.
func (t *NullableType) FromJSON(value any, refs property.Resolver) (any, error) {
	if value == nil {
		return nil, nil
	}
	return t.inner.FromJSON(value, refs)
}

func toInt(v any) (any, error) {
	switch n := v.(type) {
	case bool:
		return nil, fmt.Errorf("expected an integer, got %s", describe(v))
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return nil, fmt.Errorf("expected an integer, got %q", n.String())
		}
		return int(i), nil
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if rv.Uint() > math.MaxInt64 {
			return nil, fmt.Errorf("integer %d overflows", rv.Uint())
		}
		return int(rv.Uint()), nil
	}
	return nil, fmt.Errorf("expected an integer, got %s", describe(v))
}

func floatToInt(f float64) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil, fmt.Errorf("expected an integer, got %v", f)
	}
	if f < math.MinInt || f >= -math.MinInt {
		return nil, fmt.Errorf("integer %v overflows", f)
	}
	return int(f), nil
}

func toFloat(v any) (any, error) {
	switch n := v.(type) {
	case bool:
		return nil, fmt.Errorf("expected a number, got %s", describe(v))
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return nil, fmt.Errorf("expected a number, got %q", n.String())
		}
		return f, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), nil
	}
	return nil, fmt.Errorf("expected a number, got %s", describe(v))
}

func describe(v any) string {
	if v == nil {
		return "nil"
	}
	return fmt.Sprintf("%T (%v)", v, v)
}
