package types

import (
	"fmt"
	"reflect"

	"github.com/goliatone/go-propsync/pkg/property"
	"github.com/goliatone/go-propsync/pkg/wrappers"
)

// ListType holds a wrappers.List whose items belong to an item type.
type ListType struct {
	Base
	item property.Type
}

var _ property.Type = (*ListType)(nil)

// List declares a list of item values. The default is an empty list; every
// instance receives its own copy.
func List(item property.Type, opts ...Option) *ListType {
	t := &ListType{item: item}
	t.Base = newBase([]any{}, opts)
	t.unstable = true
	t.coerce = func(v any) (any, error) {
		items, err := sliceOf(wrappers.Unwrap(v))
		if err != nil {
			return nil, err
		}
		return t.wrapItems(nil, "", items)
	}
	return t
}

// Item returns the item type.
func (t *ListType) Item() property.Type { return t.item }

// Kind implements property.Type.
func (t *ListType) Kind() property.Kind { return property.KindContainer }

// HasRef implements property.Type.
func (t *ListType) HasRef() bool { return t.item.HasRef() }

// Validate implements property.Type.
func (t *ListType) Validate(value any) error {
	items, err := sliceOf(wrappers.Unwrap(value))
	if err != nil {
		return err
	}
	for idx, item := range items {
		if err := t.item.Validate(item); err != nil {
			return fmt.Errorf("item %d: %w", idx, err)
		}
	}
	return nil
}

// PrepareValue implements property.Type. A *wrappers.List is validated and
// kept as is so its identity and owners survive; other slices are coerced
// into a new list.
func (t *ListType) PrepareValue(owner property.Owner, name string, value any) (any, error) {
	if list, ok := value.(*wrappers.List); ok && list != nil {
		for idx, item := range list.Values() {
			if err := t.item.Validate(item); err != nil {
				return nil, property.Invalidf(name, "item %d: %v", idx, err)
			}
		}
		return list, nil
	}
	items, err := sliceOf(value)
	if err != nil {
		return nil, property.ValidationError(name, err)
	}
	return t.wrapItems(owner, name, items)
}

func (t *ListType) wrapItems(owner property.Owner, name string, items []any) (any, error) {
	out := make([]any, len(items))
	for idx, item := range items {
		prepared, err := t.item.PrepareValue(owner, name, item)
		if err != nil {
			return nil, property.Invalidf(name, "item %d: %v", idx, err)
		}
		out[idx] = prepared
	}
	return wrappers.NewList(out...), nil
}

// SerializeValue implements property.Type.
func (t *ListType) SerializeValue(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	var items []any
	if list, ok := value.(*wrappers.List); ok {
		items = list.Values()
	} else {
		var err error
		if items, err = sliceOf(value); err != nil {
			return nil, err
		}
	}
	out := make([]any, len(items))
	for idx, item := range items {
		encoded, err := t.item.SerializeValue(item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", idx, err)
		}
		out[idx] = encoded
	}
	return out, nil
}

// FromJSON implements property.Type.
func (t *ListType) FromJSON(value any, refs property.Resolver) (any, error) {
	items, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a JSON array, got %s", describe(value))
	}
	out := make([]any, len(items))
	for idx, item := range items {
		decoded, err := t.item.FromJSON(item, refs)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", idx, err)
		}
		out[idx] = decoded
	}
	return wrappers.NewList(out...), nil
}

// MapType holds a wrappers.Map whose values belong to a value type.
type MapType struct {
	Base
	value property.Type
}

var _ property.Type = (*MapType)(nil)

// Map declares a string-keyed mapping. The default is an empty mapping; every
// instance receives its own copy.
func Map(value property.Type, opts ...Option) *MapType {
	t := &MapType{value: value}
	t.Base = newBase(map[string]any{}, opts)
	t.unstable = true
	t.coerce = func(v any) (any, error) {
		entries, err := mapOf(wrappers.Unwrap(v))
		if err != nil {
			return nil, err
		}
		return t.wrapEntries(nil, "", entries)
	}
	return t
}

// Value returns the value type.
func (t *MapType) Value() property.Type { return t.value }

// Kind implements property.Type.
func (t *MapType) Kind() property.Kind { return property.KindContainer }

// HasRef implements property.Type.
func (t *MapType) HasRef() bool { return t.value.HasRef() }

// Validate implements property.Type.
func (t *MapType) Validate(value any) error {
	entries, err := mapOf(wrappers.Unwrap(value))
	if err != nil {
		return err
	}
	for key, entry := range entries {
		if err := t.value.Validate(entry); err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
	}
	return nil
}

// PrepareValue implements property.Type.
func (t *MapType) PrepareValue(owner property.Owner, name string, value any) (any, error) {
	if m, ok := value.(*wrappers.Map); ok && m != nil {
		for _, key := range m.Keys() {
			entry, _ := m.Get(key)
			if err := t.value.Validate(entry); err != nil {
				return nil, property.Invalidf(name, "key %q: %v", key, err)
			}
		}
		return m, nil
	}
	entries, err := mapOf(value)
	if err != nil {
		return nil, property.ValidationError(name, err)
	}
	return t.wrapEntries(owner, name, entries)
}

func (t *MapType) wrapEntries(owner property.Owner, name string, entries map[string]any) (any, error) {
	out := make(map[string]any, len(entries))
	for key, entry := range entries {
		prepared, err := t.value.PrepareValue(owner, name, entry)
		if err != nil {
			return nil, property.Invalidf(name, "key %q: %v", key, err)
		}
		out[key] = prepared
	}
	return wrappers.NewMap(out), nil
}

// SerializeValue implements property.Type.
func (t *MapType) SerializeValue(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	var entries map[string]any
	if m, ok := value.(*wrappers.Map); ok {
		entries = m.Values()
	} else {
		var err error
		if entries, err = mapOf(value); err != nil {
			return nil, err
		}
	}
	out := make(map[string]any, len(entries))
	for key, entry := range entries {
		encoded, err := t.value.SerializeValue(entry)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}
		out[key] = encoded
	}
	return out, nil
}

// FromJSON implements property.Type.
func (t *MapType) FromJSON(value any, refs property.Resolver) (any, error) {
	entries, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a JSON object, got %s", describe(value))
	}
	out := make(map[string]any, len(entries))
	for key, entry := range entries {
		decoded, err := t.value.FromJSON(entry, refs)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}
		out[key] = decoded
	}
	return wrappers.NewMap(out), nil
}

func sliceOf(value any) ([]any, error) {
	if items, ok := value.([]any); ok {
		return items, nil
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("expected a list, got %s", describe(value))
	}
	out := make([]any, rv.Len())
	for idx := range out {
		out[idx] = rv.Index(idx).Interface()
	}
	return out, nil
}

func mapOf(value any) (map[string]any, error) {
	if entries, ok := value.(map[string]any); ok {
		return entries, nil
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, fmt.Errorf("expected a string-keyed mapping, got %s", describe(value))
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, nil
}
