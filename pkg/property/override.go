package property

import (
	"errors"
	"fmt"
	"sort"
)

// OverrideDefaultKey is the only keyword an Override accepts.
const OverrideDefaultKey = "default"

// Override replaces aspects of an inherited attribute on a subclass without
// redeclaring it. Only the default can be replaced.
type Override struct {
	defaultOverridden bool
	value             any
}

// NewOverride validates a keyword bag. It fails with ErrConfiguration when the
// bag is empty or carries keys other than "default".
func NewOverride(kwargs map[string]any) (Override, error) {
	if len(kwargs) == 0 {
		return Override{}, ConfigurationError("", "",
			errors.New("override does not override anything, needs keyword arguments"))
	}

	var o Override
	var unknown []string
	for key, value := range kwargs {
		if key == OverrideDefaultKey {
			o.defaultOverridden = true
			o.value = value
			continue
		}
		unknown = append(unknown, key)
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return Override{}, ConfigurationError("", "",
			fmt.Errorf("unknown keyword arguments to override: %q", unknown))
	}
	return o, nil
}

// MustOverride panics when NewOverride fails. Useful for class declarations.
func MustOverride(kwargs map[string]any) Override {
	o, err := NewOverride(kwargs)
	if err != nil {
		panic(err)
	}
	return o
}

// OverrideDefault returns an Override replacing the default with value.
func OverrideDefault(value any) Override {
	return Override{defaultOverridden: true, value: value}
}

// DefaultOverridden reports whether the default was replaced.
func (o Override) DefaultOverridden() bool { return o.defaultOverridden }

// Default returns the replacement default.
func (o Override) Default() any { return o.value }
