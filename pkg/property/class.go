package property

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Class is the immutable attribute metadata of a model class: its descriptors
// (declared and inherited), the bookkeeping name sets consulted by
// serialisation and traversal, and the defaults overridden along the chain.
type Class struct {
	name   string
	parent *Class

	declared    map[string]struct{}
	descriptors map[string]Descriptor
	overrides   map[string]Override

	names      []string
	withRefs   []string
	containers []string
	dataSpecs  map[string]Descriptor
}

// Name returns the class name.
func (c *Class) Name() string {
	if c == nil {
		return ""
	}
	return c.name
}

// Parent returns the parent class or nil.
func (c *Class) Parent() *Class {
	if c == nil {
		return nil
	}
	return c.parent
}

// Descriptor returns the descriptor for name, declared or inherited.
func (c *Class) Descriptor(name string) (Descriptor, bool) {
	if c == nil {
		return nil, false
	}
	d, ok := c.descriptors[name]
	return d, ok
}

// Properties returns every attribute name in sorted order.
func (c *Class) Properties() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.names...)
}

// PropertiesWithRefs returns the names whose values may reference other
// model instances.
func (c *Class) PropertiesWithRefs() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.withRefs...)
}

// ContainerProperties returns the names backed by container types.
func (c *Class) ContainerProperties() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.containers...)
}

// DataSpecs returns the shape-preserving attributes keyed by name.
func (c *Class) DataSpecs() map[string]Descriptor {
	if c == nil || len(c.dataSpecs) == 0 {
		return nil
	}
	out := make(map[string]Descriptor, len(c.dataSpecs))
	for name, d := range c.dataSpecs {
		out[name] = d
	}
	return out
}

// Declares reports whether the class itself (not a parent) declares name.
func (c *Class) Declares(name string) bool {
	if c == nil {
		return false
	}
	_, ok := c.declared[name]
	return ok
}

// OverriddenDefault returns the closest overridden default for name. The walk
// stops at the class that declares the attribute, so a redeclaration hides
// overrides made further up the chain.
func (c *Class) OverriddenDefault(name string) (any, bool) {
	for cls := c; cls != nil; cls = cls.parent {
		if o, ok := cls.overrides[name]; ok && o.DefaultOverridden() {
			return o.Default(), true
		}
		if cls.Declares(name) {
			return nil, false
		}
	}
	return nil, false
}

// Lineage returns the class chain, root first.
func (c *Class) Lineage() []*Class {
	var chain []*Class
	for cls := c; cls != nil; cls = cls.parent {
		chain = append(chain, cls)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// IsSubclassOf reports whether other appears in the class chain of c.
func (c *Class) IsSubclassOf(other *Class) bool {
	for cls := c; cls != nil; cls = cls.parent {
		if cls == other {
			return true
		}
	}
	return false
}

func (c *Class) String() string {
	return fmt.Sprintf("Class(%s)", c.Name())
}

type declaration struct {
	base    string
	factory Factory
}

// ClassBuilder collects declarations for a class. Build validates them and
// produces the immutable Class.
type ClassBuilder struct {
	name      string
	parent    *Class
	decls     []declaration
	overrides map[string]Override
	errs      []error
}

// NewClass starts a class declaration. parent may be nil.
func NewClass(name string, parent *Class) *ClassBuilder {
	return &ClassBuilder{
		name:      strings.TrimSpace(name),
		parent:    parent,
		overrides: make(map[string]Override),
	}
}

// Property declares name with type t.
func (b *ClassBuilder) Property(name string, t Type) *ClassBuilder {
	return b.Define(name, TypeFactory{Type: t})
}

// Define declares the descriptors produced by factory for base.
func (b *ClassBuilder) Define(base string, factory Factory) *ClassBuilder {
	if factory == nil {
		b.errs = append(b.errs, ConfigurationError(b.name, base, errors.New("factory is required")))
		return b
	}
	b.decls = append(b.decls, declaration{base: base, factory: factory})
	return b
}

// Override replaces aspects of an attribute inherited from the parent chain.
func (b *ClassBuilder) Override(name string, o Override) *ClassBuilder {
	if _, exists := b.overrides[name]; exists {
		b.errs = append(b.errs, ConfigurationError(b.name, name, errors.New("attribute overridden twice")))
		return b
	}
	b.overrides[name] = o
	return b
}

// Build validates the declarations and returns the class. Duplicate attribute
// names, empty names and overrides of unknown attributes fail with
// ErrConfiguration.
func (b *ClassBuilder) Build() (*Class, error) {
	if b.name == "" {
		return nil, ConfigurationError("", "", errors.New("class name is required"))
	}
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}

	cls := &Class{
		name:        b.name,
		parent:      b.parent,
		declared:    make(map[string]struct{}),
		descriptors: make(map[string]Descriptor),
		overrides:   make(map[string]Override, len(b.overrides)),
	}
	if b.parent != nil {
		for name, d := range b.parent.descriptors {
			cls.descriptors[name] = d
		}
	}

	for _, decl := range b.decls {
		descriptors, err := decl.factory.MakeDescriptors(decl.base)
		if err != nil {
			return nil, ConfigurationError(b.name, decl.base, err)
		}
		for _, d := range descriptors {
			if err := cls.addDescriptor(d); err != nil {
				return nil, err
			}
		}
	}

	for name, o := range b.overrides {
		if _, ok := cls.descriptors[name]; !ok {
			return nil, ConfigurationError(b.name, name, errors.New("override of an attribute the class does not have"))
		}
		cls.overrides[name] = o
	}

	cls.index()
	return cls, nil
}

// MustBuild panics when Build fails. Useful for package-level class
// declarations.
func (b *ClassBuilder) MustBuild() *Class {
	cls, err := b.Build()
	if err != nil {
		panic(err)
	}
	return cls
}

func (c *Class) addDescriptor(d Descriptor) error {
	if d == nil {
		return ConfigurationError(c.name, "", errors.New("factory returned a nil descriptor"))
	}
	name := d.Name()
	if strings.TrimSpace(name) == "" {
		return ConfigurationError(c.name, "", errors.New("attribute name is required"))
	}
	if _, exists := c.declared[name]; exists {
		return ConfigurationError(c.name, name, errors.New("two property declarations both created this attribute"))
	}
	c.declared[name] = struct{}{}
	c.descriptors[name] = d
	return nil
}

// index records the bookkeeping sets once; they never change afterwards.
func (c *Class) index() {
	c.names = make([]string, 0, len(c.descriptors))
	for name := range c.descriptors {
		c.names = append(c.names, name)
	}
	sort.Strings(c.names)

	for _, name := range c.names {
		d := c.descriptors[name]
		if d.HasRef() {
			c.withRefs = append(c.withRefs, name)
		}
		switch d.Property().Kind() {
		case KindContainer:
			c.containers = append(c.containers, name)
		case KindDataSpec, KindUnitsSpec:
			if c.dataSpecs == nil {
				c.dataSpecs = make(map[string]Descriptor)
			}
			c.dataSpecs[name] = d
		}
	}
}
