package wrappers

import (
	"encoding/json"
	"fmt"

	"github.com/goliatone/go-propsync/pkg/property"
)

// List wraps a slice so in-place mutations are reported to the attribute slots
// holding it. Reads return copies; mutate only through the List methods.
type List struct {
	items      []any
	owners     property.OwnerSet
	unmodified bool
}

var _ property.Container = (*List)(nil)

// NewList returns an unowned list holding a copy of items.
func NewList(items ...any) *List {
	return &List{items: append([]any(nil), items...)}
}

// Len returns the number of items.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.items)
}

// At returns the item at idx.
func (l *List) At(idx int) (any, bool) {
	if l == nil || idx < 0 || idx >= len(l.items) {
		return nil, false
	}
	return l.items[idx], true
}

// Values returns a copy of the items.
func (l *List) Values() []any {
	if l == nil {
		return nil
	}
	return append([]any{}, l.items...)
}

// RegisterOwner implements property.Container.
func (l *List) RegisterOwner(owner property.Owner, d property.Descriptor) {
	l.owners.Add(owner, d.Name())
}

// UnregisterOwner implements property.Container.
func (l *List) UnregisterOwner(owner property.Owner, d property.Descriptor) {
	l.owners.Remove(owner, d.Name())
}

// Owners implements property.Container.
func (l *List) Owners() []property.OwnerKey { return l.owners.Keys() }

// UnmodifiedDefault implements property.Container.
func (l *List) UnmodifiedDefault() bool { return l.unmodified }

// SetUnmodifiedDefault implements property.Container.
func (l *List) SetUnmodifiedDefault(flag bool) { l.unmodified = flag }

// Append adds values to the end of the list.
func (l *List) Append(values ...any) error {
	return l.mutate(nil, func() {
		l.items = append(l.items, values...)
	})
}

// Insert places value before idx. idx may equal Len().
func (l *List) Insert(idx int, value any) error {
	if idx < 0 || idx > len(l.items) {
		return fmt.Errorf("wrappers: insert index %d out of range [0,%d]", idx, len(l.items))
	}
	return l.mutate(nil, func() {
		l.items = append(l.items, nil)
		copy(l.items[idx+1:], l.items[idx:])
		l.items[idx] = value
	})
}

// SetAt replaces the item at idx.
func (l *List) SetAt(idx int, value any) error {
	if idx < 0 || idx >= len(l.items) {
		return fmt.Errorf("wrappers: index %d out of range [0,%d)", idx, len(l.items))
	}
	return l.mutate(nil, func() {
		l.items[idx] = value
	})
}

// RemoveAt deletes and returns the item at idx.
func (l *List) RemoveAt(idx int) (any, error) {
	if idx < 0 || idx >= len(l.items) {
		return nil, fmt.Errorf("wrappers: index %d out of range [0,%d)", idx, len(l.items))
	}
	removed := l.items[idx]
	err := l.mutate(nil, func() {
		l.items = append(l.items[:idx:idx], l.items[idx+1:]...)
	})
	return removed, err
}

// Pop removes and returns the last item.
func (l *List) Pop() (any, error) {
	if len(l.items) == 0 {
		return nil, fmt.Errorf("wrappers: pop from empty list")
	}
	return l.RemoveAt(len(l.items) - 1)
}

// Replace swaps the whole content in place.
func (l *List) Replace(values []any) error {
	return l.mutate(nil, func() {
		l.items = append([]any{}, values...)
	})
}

// Clear removes every item.
func (l *List) Clear() error {
	return l.mutate(nil, func() {
		l.items = nil
	})
}

// MarshalJSON encodes the items as a JSON array.
func (l *List) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Values())
}

// mutate snapshots the items, applies fn and reports the change to every
// owner with the snapshot as old value.
func (l *List) mutate(hint property.Hint, fn func()) error {
	old := l.Values()
	fn()
	l.unmodified = false
	return property.NotifyOwners(l.owners.Keys(), old, hint)
}
