package property

import (
	"fmt"
	"reflect"
)

// Descriptor mediates every access to one declared attribute. Models dispatch
// generic attribute access to the descriptor registered on their Class.
type Descriptor interface {
	Name() string
	Property() Type

	Get(obj Owner) (any, error)
	Set(obj Owner, value any, setter any) error
	Delete(obj Owner) error

	ClassDefault(cls *Class) (any, error)
	InstanceDefault(obj Owner) (any, error)

	SerializableValue(obj Owner) (any, error)
	SetFromJSON(obj Owner, json any, refs Resolver, setter any) error

	// NotifyMutated is called by containers after an in-place change. old is a
	// copy taken before the mutation.
	NotifyMutated(obj Owner, old any, hint Hint) error
	// TriggerIfChanged fires a change notification when the current value no
	// longer matches old.
	TriggerIfChanged(obj Owner, old any) error

	Readonly() bool
	Serialized() bool
	HasRef() bool
}

// BasicDescriptor binds a name to a Type and implements the read, write,
// default and notification paths shared by every descriptor variant.
type BasicDescriptor struct {
	name string
	prop Type
}

var _ Descriptor = (*BasicDescriptor)(nil)

// NewBasicDescriptor constructs a descriptor for prop under name.
func NewBasicDescriptor(prop Type, name string) *BasicDescriptor {
	return &BasicDescriptor{name: name, prop: prop}
}

func (d *BasicDescriptor) Name() string   { return d.name }
func (d *BasicDescriptor) Property() Type { return d.prop }
func (d *BasicDescriptor) Readonly() bool { return d.prop.Readonly() }
func (d *BasicDescriptor) Serialized() bool {
	return d.prop.Serialized()
}
func (d *BasicDescriptor) HasRef() bool { return d.prop.HasRef() }

func (d *BasicDescriptor) String() string {
	return fmt.Sprintf("BasicDescriptor(%s)", d.name)
}

// ClassDefault returns the default for cls, ignoring per-instance theming.
func (d *BasicDescriptor) ClassDefault(cls *Class) (any, error) {
	return d.prop.ThemedDefault(cls, d.name, nil)
}

// InstanceDefault returns the default that would be used for obj.
func (d *BasicDescriptor) InstanceDefault(obj Owner) (any, error) {
	return d.prop.ThemedDefault(obj.Class(), d.name, obj.ThemedValues())
}

// Get returns the stored value verbatim when present, otherwise the default.
func (d *BasicDescriptor) Get(obj Owner) (any, error) {
	st, err := d.storage(obj, "get")
	if err != nil {
		return nil, err
	}
	if value, ok := st.Lookup(d.name); ok {
		return value, nil
	}
	return d.getDefault(obj, st)
}

// getDefault computes the default and materialises it when it is unstable or a
// container that must know its owner.
func (d *BasicDescriptor) getDefault(obj Owner, st *Storage) (any, error) {
	if st.Has(d.name) {
		panic(newError(ErrInternal, className(obj), d.name,
			fmt.Errorf("default requested while a value is already stored")))
	}

	value, err := d.InstanceDefault(obj)
	if err != nil {
		return nil, err
	}

	container, isContainer := value.(Container)
	if !d.prop.HasStableDefault() || isContainer {
		if isContainer {
			container.SetUnmodifiedDefault(true)
			container.RegisterOwner(obj, d)
		}
		st.Put(d.name, value)
	}
	return value, nil
}

// Set validates and stores value, firing a change notification when the value
// changed.
func (d *BasicDescriptor) Set(obj Owner, value any, setter any) error {
	if _, err := d.storage(obj, "set"); err != nil {
		return err
	}
	if d.prop.Readonly() {
		return newError(ErrReadOnly, className(obj), d.name, nil)
	}
	return d.internalSet(obj, value, setter)
}

func (d *BasicDescriptor) internalSet(obj Owner, value any, setter any) error {
	prepared, err := d.prop.PrepareValue(obj, d.name, value)
	if err != nil {
		return ValidationError(d.name, err)
	}
	old, err := d.Get(obj)
	if err != nil {
		return err
	}
	return d.realSet(obj, old, prepared, nil, setter)
}

// realSet commits value and notifies. old is the logical old value; the stored
// slot may already hold value when a container was mutated in place.
func (d *BasicDescriptor) realSet(obj Owner, old, value any, hint Hint, setter any) error {
	if hint == nil && d.prop.Matches(value, old) {
		return nil
	}

	st := obj.Storage()
	slotOld := old
	if stored, ok := st.Lookup(d.name); ok {
		slotOld = stored
	}

	if !sameObject(slotOld, value) {
		if c, ok := slotOld.(Container); ok {
			c.UnregisterOwner(obj, d)
		}
		if c, ok := value.(Container); ok {
			c.RegisterOwner(obj, d)
		}
		st.Put(d.name, value)
	}

	return d.trigger(obj, old, value, hint, setter)
}

// NotifyMutated re-validates the live value after an in-place change and runs
// the commit sequence with the pre-mutation snapshot as old value.
func (d *BasicDescriptor) NotifyMutated(obj Owner, old any, hint Hint) error {
	value, err := d.Get(obj)
	if err != nil {
		return err
	}
	value, err = d.prop.PrepareValue(obj, d.name, value)
	if err != nil {
		return ValidationError(d.name, err)
	}
	return d.realSet(obj, old, value, hint, nil)
}

// Delete drops the stored value so the next read yields the default again. It
// fires no notification and leaves container ownership untouched.
func (d *BasicDescriptor) Delete(obj Owner) error {
	st, err := d.storage(obj, "delete")
	if err != nil {
		return err
	}
	st.Remove(d.name)
	return nil
}

// SerializableValue returns the wire form of the current value.
func (d *BasicDescriptor) SerializableValue(obj Owner) (any, error) {
	value, err := d.Get(obj)
	if err != nil {
		return nil, err
	}
	return d.prop.SerializeValue(value)
}

// SetFromJSON decodes json and writes it. Read-only attributes accept values
// from JSON since the remote peer owns them.
func (d *BasicDescriptor) SetFromJSON(obj Owner, json any, refs Resolver, setter any) error {
	if _, err := d.storage(obj, "set"); err != nil {
		return err
	}
	value, err := d.prop.FromJSON(json, refs)
	if err != nil {
		return ValidationError(d.name, err)
	}
	return d.internalSet(obj, value, setter)
}

// TriggerIfChanged implements Descriptor.
func (d *BasicDescriptor) TriggerIfChanged(obj Owner, old any) error {
	value, err := d.Get(obj)
	if err != nil {
		return err
	}
	if d.prop.Matches(old, value) {
		return nil
	}
	return d.trigger(obj, old, value, nil, nil)
}

func (d *BasicDescriptor) trigger(obj Owner, old, value any, hint Hint, setter any) error {
	return obj.Trigger(d.name, old, value, hint, setter)
}

func (d *BasicDescriptor) storage(obj Owner, op string) (*Storage, error) {
	if obj == nil {
		return nil, newError(ErrLifecycle, "", d.name, fmt.Errorf("cannot %s attribute on a nil instance", op))
	}
	st := obj.Storage()
	if st == nil {
		return nil, newError(ErrLifecycle, className(obj), d.name,
			fmt.Errorf("cannot %s attribute before the instance is initialised", op))
	}
	return st, nil
}

// sameObject reports whether a and b are the same underlying object, not
// merely equal.
func sameObject(a, b any) (same bool) {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	}
	if !va.Type().Comparable() {
		return false
	}
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}
