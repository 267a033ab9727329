package wrappers

import (
	"encoding/json"
	"fmt"
	"maps"
	"sort"

	"github.com/goliatone/go-propsync/pkg/property"
)

// Map wraps a string-keyed mapping so in-place mutations are reported to the
// attribute slots holding it.
type Map struct {
	entries    map[string]any
	owners     property.OwnerSet
	unmodified bool
}

var _ property.Container = (*Map)(nil)

// NewMap returns an unowned map holding a shallow copy of entries.
func NewMap(entries map[string]any) *Map {
	m := &Map{entries: make(map[string]any, len(entries))}
	for key, value := range entries {
		m.entries[key] = value
	}
	return m
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Get returns the value for key.
func (m *Map) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	value, ok := m.entries[key]
	return value, ok
}

// Keys returns the keys in sorted order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	keys := make([]string, 0, len(m.entries))
	for key := range m.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Values returns a shallow copy of the entries.
func (m *Map) Values() map[string]any {
	if m == nil {
		return nil
	}
	return maps.Clone(m.entries)
}

// RegisterOwner implements property.Container.
func (m *Map) RegisterOwner(owner property.Owner, d property.Descriptor) {
	m.owners.Add(owner, d.Name())
}

// UnregisterOwner implements property.Container.
func (m *Map) UnregisterOwner(owner property.Owner, d property.Descriptor) {
	m.owners.Remove(owner, d.Name())
}

// Owners implements property.Container.
func (m *Map) Owners() []property.OwnerKey { return m.owners.Keys() }

// UnmodifiedDefault implements property.Container.
func (m *Map) UnmodifiedDefault() bool { return m.unmodified }

// SetUnmodifiedDefault implements property.Container.
func (m *Map) SetUnmodifiedDefault(flag bool) { m.unmodified = flag }

// Set stores value under key.
func (m *Map) Set(key string, value any) error {
	return m.mutate(nil, func() {
		m.entries[key] = value
	})
}

// Delete removes key. Deleting a missing key is a no-op without notification.
func (m *Map) Delete(key string) error {
	if _, ok := m.entries[key]; !ok {
		return nil
	}
	return m.mutate(nil, func() {
		delete(m.entries, key)
	})
}

// Update merges values into the map.
func (m *Map) Update(values map[string]any) error {
	if len(values) == 0 {
		return nil
	}
	return m.mutate(nil, func() {
		for key, value := range values {
			m.entries[key] = value
		}
	})
}

// Clear removes every entry.
func (m *Map) Clear() error {
	return m.mutate(nil, func() {
		m.entries = make(map[string]any)
	})
}

// Stream appends data to list-valued entries, keeping at most rollover items
// per entry when rollover is positive. Owners receive a StreamedHint so they
// can forward the increment instead of the whole mapping.
func (m *Map) Stream(data map[string][]any, rollover int) error {
	for key := range data {
		if current, ok := m.entries[key]; ok {
			if _, isList := current.([]any); !isList {
				return fmt.Errorf("wrappers: cannot stream into %q holding %T", key, current)
			}
		}
	}
	hint := StreamedHint{Data: data, Rollover: rollover}
	return m.mutate(hint, func() {
		for key, values := range data {
			current, _ := m.entries[key].([]any)
			next := append(append([]any{}, current...), values...)
			if rollover > 0 && len(next) > rollover {
				next = next[len(next)-rollover:]
			}
			m.entries[key] = next
		}
	})
}

// MarshalJSON encodes the entries as a JSON object.
func (m *Map) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Values())
}

func (m *Map) mutate(hint property.Hint, fn func()) error {
	old := m.Values()
	fn()
	m.unmodified = false
	return property.NotifyOwners(m.owners.Keys(), old, hint)
}
