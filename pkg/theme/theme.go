// Package theme resolves themed defaults: attribute values keyed by class
// name that replace declared defaults for every instance of that class and
// its subclasses. Themes load from JSON/YAML documents or from a go-theme
// selection.
package theme

import (
	"sort"

	"github.com/goliatone/go-propsync/pkg/model"
	"github.com/goliatone/go-propsync/pkg/property"
)

// Theme holds attribute values per class name.
type Theme struct {
	classes map[string]map[string]any
}

// New builds a theme from attrs, keyed by class name then attribute name.
func New(attrs map[string]map[string]any) *Theme {
	t := &Theme{classes: make(map[string]map[string]any, len(attrs))}
	for class, values := range attrs {
		if len(values) == 0 {
			continue
		}
		copied := make(map[string]any, len(values))
		for name, value := range values {
			copied[name] = value
		}
		t.classes[class] = copied
	}
	return t
}

// Empty reports whether the theme holds no values.
func (t *Theme) Empty() bool {
	return t == nil || len(t.classes) == 0
}

// Classes returns the themed class names in sorted order.
func (t *Theme) Classes() []string {
	if t == nil {
		return nil
	}
	names := make([]string, 0, len(t.classes))
	for name := range t.classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Attrs returns a copy of the values themed for the class name.
func (t *Theme) Attrs(class string) map[string]any {
	if t == nil {
		return nil
	}
	values, ok := t.classes[class]
	if !ok {
		return nil
	}
	out := make(map[string]any, len(values))
	for name, value := range values {
		out[name] = value
	}
	return out
}

// ValuesFor merges the values themed along the class chain, root first, so a
// subclass entry wins over its parent's.
func (t *Theme) ValuesFor(cls *property.Class) map[string]any {
	if t.Empty() || cls == nil {
		return nil
	}
	out := make(map[string]any)
	for _, ancestor := range cls.Lineage() {
		for name, value := range t.classes[ancestor.Name()] {
			if _, ok := cls.Descriptor(name); ok {
				out[name] = value
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Merge returns a new theme holding t's values overlaid with other's.
func (t *Theme) Merge(other *Theme) *Theme {
	out := New(nil)
	for _, src := range []*Theme{t, other} {
		if src == nil {
			continue
		}
		for class, values := range src.classes {
			if out.classes[class] == nil {
				out.classes[class] = make(map[string]any, len(values))
			}
			for name, value := range values {
				out.classes[class][name] = value
			}
		}
	}
	return out
}

// Apply installs the theme on m, firing one change per affected attribute.
func (t *Theme) Apply(m *model.Model) error {
	if m == nil {
		return nil
	}
	return m.ApplyTheme(t.ValuesFor(m.Class()))
}
