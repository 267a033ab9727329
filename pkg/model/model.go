package model

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/goliatone/go-propsync/pkg/property"
	"github.com/goliatone/go-propsync/pkg/types"
	"github.com/goliatone/go-propsync/pkg/wrappers"
)

// MaxTriggerDepth bounds nested change notifications on one model. Callbacks
// may write attributes inline; a chain deeper than this fails with
// property.ErrReentrancy.
const MaxTriggerDepth = 32

// Change describes one attribute change delivered to callbacks and sinks.
type Change struct {
	Model  *Model
	Attr   string
	Old    any
	New    any
	Hint   property.Hint
	Setter any
}

// Callback reacts to a change. A returned error is propagated to the writer.
type Callback func(Change) error

// Sink receives every change of the models attached to it, typically a
// document recording events for the remote peer.
type Sink interface {
	ModelChanged(Change) error
}

// Option customises a model at construction.
type Option func(*Model)

// WithID sets the model id instead of a generated UUID.
func WithID(id string) Option {
	return func(m *Model) {
		if id != "" {
			m.id = id
		}
	}
}

// WithThemedValues sets the per-instance themed defaults before any value is
// read.
func WithThemedValues(values map[string]any) Option {
	return func(m *Model) {
		m.themed = m.filterThemed(values)
	}
}

// WithSink attaches the model to sink from the start.
func WithSink(sink Sink) Option {
	return func(m *Model) {
		m.sink = sink
	}
}

// Model is an instance of a property.Class. Attribute access is dispatched to
// the class descriptors; values live in the model's storage.
type Model struct {
	id        string
	class     *property.Class
	storage   *property.Storage
	themed    map[string]any
	callbacks map[string][]*callbackEntry
	sink      Sink
	depth     int
}

type callbackEntry struct {
	fn Callback
}

var (
	_ property.Owner      = (*Model)(nil)
	_ types.Referenceable = (*Model)(nil)
)

// New creates a model of class and writes the initial values through the
// normal write path.
func New(class *property.Class, values map[string]any, opts ...Option) (*Model, error) {
	if class == nil {
		return nil, errors.New("model: class is required")
	}
	m := &Model{
		id:    uuid.NewString(),
		class: class,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(m)
	}
	m.storage = property.NewStorage()
	if err := m.checkThemed(m.themed); err != nil {
		return nil, err
	}

	if err := m.Update(values); err != nil {
		return nil, err
	}
	return m, nil
}

// MustNew panics when New fails.
func MustNew(class *property.Class, values map[string]any, opts ...Option) *Model {
	m, err := New(class, values, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

// ID returns the model id.
func (m *Model) ID() string { return m.id }

// Class implements property.Owner.
func (m *Model) Class() *property.Class { return m.class }

// Storage implements property.Owner.
func (m *Model) Storage() *property.Storage { return m.storage }

// ThemedValues implements property.Owner.
func (m *Model) ThemedValues() map[string]any { return m.themed }

// Sink returns the attached sink, if any.
func (m *Model) Sink() Sink { return m.sink }

// Attach routes every future change to sink. Pass nil to detach.
func (m *Model) Attach(sink Sink) { m.sink = sink }

func (m *Model) String() string {
	return fmt.Sprintf("%s(id=%q)", m.class.Name(), m.id)
}

// Lookup returns the descriptor for name. Unknown names fail with
// property.ErrUnknownAttribute listing similar attribute names.
func (m *Model) Lookup(name string) (property.Descriptor, error) {
	if d, ok := m.class.Descriptor(name); ok {
		return d, nil
	}
	return nil, unknownAttribute(m.class, name)
}

// Get returns the current value of name.
func (m *Model) Get(name string) (any, error) {
	d, err := m.Lookup(name)
	if err != nil {
		return nil, err
	}
	return d.Get(m)
}

// Set writes value to name.
func (m *Model) Set(name string, value any) error {
	return m.SetWithSetter(name, value, nil)
}

// SetWithSetter writes value to name, tagging the change with setter so the
// origin of the change can skip its own echo.
func (m *Model) SetWithSetter(name string, value any, setter any) error {
	d, err := m.Lookup(name)
	if err != nil {
		return err
	}
	return d.Set(m, value, setter)
}

// Update writes several values in name order.
func (m *Model) Update(values map[string]any) error {
	for _, name := range sortedKeys(values) {
		if err := m.Set(name, values[name]); err != nil {
			return err
		}
	}
	return nil
}

// Delete resets name to its default. No change is notified.
func (m *Model) Delete(name string) error {
	d, err := m.Lookup(name)
	if err != nil {
		return err
	}
	return d.Delete(m)
}

// SetFromJSON decodes a wire value into name.
func (m *Model) SetFromJSON(name string, json any, refs property.Resolver, setter any) error {
	d, err := m.Lookup(name)
	if err != nil {
		return err
	}
	return d.SetFromJSON(m, json, refs, setter)
}

// OnChange registers cb for changes of attr. The returned function removes
// the registration.
func (m *Model) OnChange(attr string, cb Callback) (func(), error) {
	if cb == nil {
		return nil, errors.New("model: callback is required")
	}
	if _, err := m.Lookup(attr); err != nil {
		return nil, err
	}
	if m.callbacks == nil {
		m.callbacks = make(map[string][]*callbackEntry)
	}
	entry := &callbackEntry{fn: cb}
	m.callbacks[attr] = append(m.callbacks[attr], entry)
	return func() { m.removeCallback(attr, entry) }, nil
}

func (m *Model) removeCallback(attr string, entry *callbackEntry) {
	entries := m.callbacks[attr]
	for idx, candidate := range entries {
		if candidate == entry {
			m.callbacks[attr] = append(entries[:idx:idx], entries[idx+1:]...)
			return
		}
	}
}

// Trigger implements property.Owner. Callbacks run inline, then the sink is
// notified.
func (m *Model) Trigger(name string, old, value any, hint property.Hint, setter any) error {
	if m.depth >= MaxTriggerDepth {
		return &property.Error{
			Kind:  property.ErrReentrancy,
			Class: m.class.Name(),
			Attr:  name,
			Err:   fmt.Errorf("more than %d nested notifications", MaxTriggerDepth),
		}
	}
	m.depth++
	defer func() { m.depth-- }()

	change := Change{Model: m, Attr: name, Old: old, New: value, Hint: hint, Setter: setter}

	var errs []error
	for _, entry := range append([]*callbackEntry(nil), m.callbacks[name]...) {
		if err := entry.fn(change); err != nil {
			errs = append(errs, err)
		}
	}
	if m.sink != nil {
		if err := m.sink.ModelChanged(change); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PropertiesWithValues returns the serialised attributes and their values.
// Without includeDefaults only written attributes are returned; a container
// default that was materialised but never modified counts as unwritten.
func (m *Model) PropertiesWithValues(includeDefaults bool) (map[string]any, error) {
	out := make(map[string]any)
	for _, name := range m.class.Properties() {
		d, _ := m.class.Descriptor(name)
		if !d.Serialized() {
			continue
		}
		if !includeDefaults {
			stored, ok := m.storage.Lookup(name)
			if !ok {
				continue
			}
			if c, isContainer := stored.(property.Container); isContainer && c.UnmodifiedDefault() {
				continue
			}
		}
		value, err := d.Get(m)
		if err != nil {
			return nil, err
		}
		out[name] = value
	}
	return out, nil
}

// ApplyTheme replaces the themed defaults and fires one notification per
// attribute whose effective value changed. Unmodified container defaults are
// dropped so they are rebuilt from the new theme. A themed value the
// attribute type rejects fails the whole call and leaves the current theme
// installed.
func (m *Model) ApplyTheme(values map[string]any) error {
	next := m.filterThemed(values)
	if err := m.checkThemed(next); err != nil {
		return err
	}

	affected := make(map[string]struct{}, len(m.themed)+len(next))
	for name := range m.themed {
		affected[name] = struct{}{}
	}
	for name := range next {
		affected[name] = struct{}{}
	}
	names := sortedKeys(affected)

	old := make(map[string]any, len(names))
	for _, name := range names {
		value, err := m.Get(name)
		if err != nil {
			return err
		}
		old[name] = snapshot(value)
	}

	m.themed = next

	for _, name := range names {
		stored, ok := m.storage.Lookup(name)
		if !ok {
			continue
		}
		if c, isContainer := stored.(property.Container); isContainer && c.UnmodifiedDefault() {
			d, _ := m.class.Descriptor(name)
			c.UnregisterOwner(m, d)
			m.storage.Remove(name)
		}
	}

	var errs []error
	for _, name := range names {
		d, _ := m.class.Descriptor(name)
		if err := d.TriggerIfChanged(m, old[name]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// UnapplyTheme removes every themed default.
func (m *Model) UnapplyTheme() error {
	return m.ApplyTheme(nil)
}

// checkThemed resolves every themed default in themed without installing it.
func (m *Model) checkThemed(themed map[string]any) error {
	for _, name := range sortedKeys(themed) {
		d, _ := m.class.Descriptor(name)
		if _, err := d.Property().ThemedDefault(m.class, name, themed); err != nil {
			return property.ValidationError(name, err)
		}
	}
	return nil
}

func (m *Model) filterThemed(values map[string]any) map[string]any {
	if len(values) == 0 {
		return nil
	}
	out := make(map[string]any, len(values))
	for name, value := range values {
		if _, ok := m.class.Descriptor(name); ok {
			out[name] = value
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// snapshot keeps container contents, not the live container, so a later
// comparison sees the values as they were.
func snapshot(value any) any {
	if _, ok := value.(property.Container); ok {
		return wrappers.Unwrap(value)
	}
	return value
}

func sortedKeys[V any](values map[string]V) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
