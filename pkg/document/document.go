// Package document groups models that are synchronised with a remote peer.
// It records a ModelChanged event for every attribute change of its models
// and exchanges those events as JSON patches. Changes applied from a patch
// are tagged with the applying setter so they are not echoed back to their
// origin.
package document

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-propsync/pkg/model"
	"github.com/goliatone/go-propsync/pkg/property"
	"github.com/goliatone/go-propsync/pkg/theme"
)

// EventModelChanged is the kind of events recorded for attribute changes.
const EventModelChanged = "ModelChanged"

// Event is one recorded change.
type Event struct {
	Kind  string `json:"kind"`
	Model string `json:"model"`
	Attr  string `json:"attr"`
	New   any    `json:"new"`
	Hint  string `json:"hint,omitempty"`

	// Setter identifies who made the change. It never leaves the process.
	Setter any `json:"-"`
}

// Option customises a Document.
type Option func(*Document)

// WithLogger sets the logger used for document activity.
func WithLogger(logger Logger) Option {
	return func(d *Document) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithRegistry sets the class registry used to instantiate models from JSON.
func WithRegistry(registry *property.Registry) Option {
	return func(d *Document) {
		d.registry = registry
	}
}

// WithTheme applies t to every model added to the document.
func WithTheme(t *theme.Theme) Option {
	return func(d *Document) {
		d.theme = t
	}
}

// Document indexes a set of models and records their changes.
type Document struct {
	registry *property.Registry
	theme    *theme.Theme
	logger   Logger

	roots   []*model.Model
	models  map[string]*model.Model
	order   []string
	events  []Event
	pending map[string]struct{}
	muted   bool
}

var (
	_ model.Sink        = (*Document)(nil)
	_ property.Resolver = (*Document)(nil)
)

// New creates an empty document.
func New(opts ...Option) *Document {
	d := &Document{
		logger:  nopLogger{},
		models:  make(map[string]*model.Model),
		pending: make(map[string]struct{}),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(d)
	}
	return d
}

// Roots returns the root models in insertion order.
func (d *Document) Roots() []*model.Model {
	return append([]*model.Model(nil), d.roots...)
}

// Models returns every indexed model in insertion order.
func (d *Document) Models() []*model.Model {
	out := make([]*model.Model, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.models[id])
	}
	return out
}

// Get returns the model with id.
func (d *Document) Get(id string) (*model.Model, bool) {
	m, ok := d.models[id]
	return m, ok
}

// ResolveRef implements property.Resolver.
func (d *Document) ResolveRef(id string) (property.Owner, bool) {
	m, ok := d.models[id]
	if !ok {
		return nil, false
	}
	return m, true
}

// AddRoot adds m and every model it references.
func (d *Document) AddRoot(m *model.Model) error {
	if m == nil {
		return errors.New("document: model is required")
	}
	for _, root := range d.roots {
		if root == m {
			return nil
		}
	}
	if err := d.index(m); err != nil {
		return err
	}
	d.roots = append(d.roots, m)
	return nil
}

// Theme returns the document theme.
func (d *Document) Theme() *theme.Theme { return d.theme }

// SetTheme applies t to every indexed model. Pass nil to remove theming.
// When a model rejects t the previous theme is restored on every model.
func (d *Document) SetTheme(t *theme.Theme) error {
	previous := d.theme
	d.theme = t
	models := d.Models()
	for idx, m := range models {
		err := d.applyTheme(m)
		if err == nil {
			continue
		}
		d.logger.Error("apply theme", "model", m.ID(), "err", err)
		d.theme = previous
		errs := []error{err}
		for _, applied := range models[:idx] {
			if restoreErr := d.applyTheme(applied); restoreErr != nil {
				errs = append(errs, restoreErr)
			}
		}
		return errors.Join(errs...)
	}
	return nil
}

// index attaches m and its references to the document.
func (d *Document) index(m *model.Model) error {
	refs, err := m.References()
	if err != nil {
		return fmt.Errorf("document: collect references of %s: %w", m, err)
	}
	for _, ref := range refs {
		if err := d.attach(ref); err != nil {
			return err
		}
	}
	return nil
}

func (d *Document) attach(m *model.Model) error {
	if existing, ok := d.models[m.ID()]; ok {
		if existing != m {
			return fmt.Errorf("document: duplicate model id %q", m.ID())
		}
		return nil
	}
	if sink := m.Sink(); sink != nil && sink != model.Sink(d) {
		return fmt.Errorf("document: model %s already belongs to another document", m)
	}
	m.Attach(d)
	d.models[m.ID()] = m
	d.order = append(d.order, m.ID())
	d.pending[m.ID()] = struct{}{}
	d.logger.Debug("model attached", "model", m.ID(), "type", m.Class().Name())
	return d.applyTheme(m)
}

// applyTheme installs the document theme on m. Themed values are local to
// each side, so the resulting changes are not recorded.
func (d *Document) applyTheme(m *model.Model) error {
	d.muted = true
	defer func() { d.muted = false }()
	if d.theme == nil {
		return m.UnapplyTheme()
	}
	return d.theme.Apply(m)
}

// ModelChanged implements model.Sink. The event carries the wire form of the
// new value; models newly referenced by the change join the document.
func (d *Document) ModelChanged(change model.Change) error {
	m := change.Model
	if m == nil {
		return nil
	}
	desc, err := m.Lookup(change.Attr)
	if err != nil {
		return err
	}
	if desc.HasRef() {
		if err := d.index(m); err != nil {
			return err
		}
	}
	if d.muted || !desc.Serialized() {
		return nil
	}
	encoded, err := desc.SerializableValue(m)
	if err != nil {
		d.logger.Error("serialise change", "model", m.ID(), "attr", change.Attr, "err", err)
		return fmt.Errorf("document: serialise %s.%s: %w", m.Class().Name(), change.Attr, err)
	}
	event := Event{
		Kind:   EventModelChanged,
		Model:  m.ID(),
		Attr:   change.Attr,
		New:    encoded,
		Setter: change.Setter,
	}
	if change.Hint != nil {
		event.Hint = change.Hint.HintKind()
	}
	d.events = append(d.events, event)
	d.logger.Debug("model changed", "model", m.ID(), "attr", change.Attr)
	return nil
}

// Events returns the recorded events.
func (d *Document) Events() []Event {
	return append([]Event(nil), d.events...)
}

// ClearEvents drops the recorded events and pending references.
func (d *Document) ClearEvents() {
	d.events = nil
	d.pending = make(map[string]struct{})
}
