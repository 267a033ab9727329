// Package wrappers provides the observable container values stored in
// container-backed attributes.
package wrappers

import "github.com/goliatone/go-propsync/pkg/property"

// Hint kinds emitted by the containers in this package.
const (
	HintStreamed = "ColumnsStreamed"
)

// StreamedHint describes data appended through Map.Stream.
type StreamedHint struct {
	Data     map[string][]any
	Rollover int
}

// HintKind implements property.Hint.
func (StreamedHint) HintKind() string { return HintStreamed }

// Wrap returns v as a container when it is a plain slice or string-keyed map.
// Containers and other values are returned unchanged.
func Wrap(v any) any {
	switch value := v.(type) {
	case []any:
		return NewList(value...)
	case map[string]any:
		return NewMap(value)
	default:
		return v
	}
}

// Unwrap returns the plain value held by a container, recursively. Other
// values are returned unchanged.
func Unwrap(v any) any {
	switch value := v.(type) {
	case *List:
		if value == nil {
			return []any(nil)
		}
		items := value.Values()
		for idx, item := range items {
			items[idx] = Unwrap(item)
		}
		return items
	case *Map:
		if value == nil {
			return map[string]any(nil)
		}
		entries := value.Values()
		for key, item := range entries {
			entries[key] = Unwrap(item)
		}
		return entries
	default:
		return v
	}
}

// IsContainer reports whether v is a property.Container.
func IsContainer(v any) bool {
	_, ok := v.(property.Container)
	return ok
}
