// Package types provides the concrete property types attributes are declared
// with: scalars, enums, containers, model references, sanitised markup, JSON
// Schema constrained values and the shape-preserving number/units specs.
package types

import (
	"fmt"
	"reflect"

	"github.com/goliatone/go-propsync/pkg/property"
	"github.com/goliatone/go-propsync/pkg/wrappers"
)

// DefaultFunc produces a fresh default on every call. A type declared with a
// DefaultFunc has no stable default, so its value is materialised on first
// read.
type DefaultFunc func() any

// Option customises the shared settings of a type.
type Option func(*Base)

// WithDefault sets a constant default.
func WithDefault(value any) Option {
	return func(b *Base) {
		b.def = value
	}
}

// WithDefaultFunc sets a generated default.
func WithDefaultFunc(fn func() any) Option {
	return func(b *Base) {
		if fn == nil {
			return
		}
		b.def = DefaultFunc(fn)
	}
}

// AsReadonly marks the attribute as writable only by the remote peer.
func AsReadonly() Option {
	return func(b *Base) {
		b.readonly = true
	}
}

// NotSerialized excludes the attribute from serialised output.
func NotSerialized() Option {
	return func(b *Base) {
		b.serialized = false
	}
}

// WithHelp attaches a description.
func WithHelp(help string) Option {
	return func(b *Base) {
		b.help = help
	}
}

// Base holds the settings shared by every type and implements default
// resolution. Concrete types embed it and install their coercion.
type Base struct {
	def        any
	readonly   bool
	serialized bool
	help       string

	// coerce normalises defaults and theme values.
	coerce func(any) (any, error)
	// unstable forces materialisation of every default.
	unstable bool
}

func newBase(zero any, opts []Option) Base {
	b := Base{def: zero, serialized: true}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&b)
	}
	return b
}

// Readonly implements property.Type.
func (b *Base) Readonly() bool { return b.readonly }

// Serialized implements property.Type.
func (b *Base) Serialized() bool { return b.serialized }

// HasRef implements property.Type.
func (b *Base) HasRef() bool { return false }

// Help returns the attribute description.
func (b *Base) Help() string { return b.help }

// HasStableDefault implements property.Type.
func (b *Base) HasStableDefault() bool {
	if b.unstable {
		return false
	}
	_, generated := b.def.(DefaultFunc)
	return !generated
}

// ThemedDefault implements property.Type. Themed values win over class
// overrides, which win over the declared default.
func (b *Base) ThemedDefault(cls *property.Class, name string, themed map[string]any) (any, error) {
	value, ok := themed[name]
	if !ok {
		if overridden, found := cls.OverriddenDefault(name); found {
			value = overridden
		} else {
			value = b.def
		}
	}
	if fn, generated := value.(DefaultFunc); generated {
		value = fn()
	}
	if b.coerce != nil && value != nil {
		coerced, err := b.coerce(value)
		if err != nil {
			return nil, fmt.Errorf("types: default for %q: %w", name, err)
		}
		value = coerced
	}
	return value, nil
}

// Matches implements property.Type using deep equality of the plain values.
func (b *Base) Matches(a, c any) bool {
	return reflect.DeepEqual(wrappers.Unwrap(a), wrappers.Unwrap(c))
}
