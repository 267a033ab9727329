package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/goliatone/go-propsync/pkg/model"
)

// Patch is the JSON message exchanged with the peer.
type Patch struct {
	Events     []Event            `json:"events"`
	References []model.Serialized `json:"references,omitempty"`
}

// Snapshot is the full JSON form of a document.
type Snapshot struct {
	Roots  []string           `json:"roots"`
	Models []model.Serialized `json:"models"`
}

// CreatePatch drains the recorded events into a patch. Events whose setter
// equals exclude are dropped so a peer never receives its own changes back.
// Models that joined the document since the last patch travel as references.
func (d *Document) CreatePatch(exclude any) (Patch, error) {
	patch := Patch{Events: make([]Event, 0, len(d.events))}
	for _, event := range d.events {
		if exclude != nil && sameSetter(event.Setter, exclude) {
			continue
		}
		patch.Events = append(patch.Events, event)
	}
	for _, id := range d.order {
		if _, ok := d.pending[id]; !ok {
			continue
		}
		serialized, err := d.models[id].ToSerializable(false)
		if err != nil {
			return Patch{}, err
		}
		patch.References = append(patch.References, serialized)
	}
	d.ClearEvents()
	return patch, nil
}

// PatchJSON drains the recorded events and encodes them.
func (d *Document) PatchJSON(exclude any) ([]byte, error) {
	patch, err := d.CreatePatch(exclude)
	if err != nil {
		return nil, err
	}
	return json.Marshal(patch)
}

// ApplyPatch decodes data and applies it with setter as the change origin.
// Unknown referenced models are created from the registry first so events
// may point at them.
func (d *Document) ApplyPatch(data []byte, setter any) error {
	var patch Patch
	if err := json.Unmarshal(data, &patch); err != nil {
		return fmt.Errorf("document: decode patch: %w", err)
	}
	if err := d.loadModels(patch.References, setter); err != nil {
		return err
	}

	for _, event := range patch.Events {
		if event.Kind != EventModelChanged {
			return fmt.Errorf("document: unsupported event kind %q", event.Kind)
		}
		m, ok := d.models[event.Model]
		if !ok {
			return fmt.Errorf("document: event for unknown model %q", event.Model)
		}
		if err := m.SetFromJSON(event.Attr, event.New, d, setter); err != nil {
			d.logger.Error("apply event", "model", event.Model, "attr", event.Attr, "err", err)
			return err
		}
	}
	return nil
}

// ToJSON encodes every model of the document.
func (d *Document) ToJSON() ([]byte, error) {
	snapshot := Snapshot{Roots: make([]string, 0, len(d.roots))}
	for _, root := range d.roots {
		snapshot.Roots = append(snapshot.Roots, root.ID())
	}
	for _, m := range d.Models() {
		serialized, err := m.ToSerializable(false)
		if err != nil {
			return nil, err
		}
		snapshot.Models = append(snapshot.Models, serialized)
	}
	return json.Marshal(snapshot)
}

// FromJSON loads a document snapshot produced by ToJSON. The registry must
// hold every class the snapshot names.
func FromJSON(data []byte, opts ...Option) (*Document, error) {
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("document: decode snapshot: %w", err)
	}
	d := New(opts...)
	if err := d.loadModels(snapshot.Models, nil); err != nil {
		return nil, err
	}
	for _, id := range snapshot.Roots {
		root, ok := d.models[id]
		if !ok {
			return nil, fmt.Errorf("document: unknown root %q", id)
		}
		d.roots = append(d.roots, root)
	}
	d.ClearEvents()
	return d, nil
}

// loadModels creates every unknown model before decoding any attribute, so
// references between the new models resolve in both directions.
func (d *Document) loadModels(serialized []model.Serialized, setter any) error {
	var created []model.Serialized
	for _, entry := range serialized {
		if _, ok := d.models[entry.ID]; ok {
			continue
		}
		if d.registry == nil {
			return errors.New("document: registry is required to create models")
		}
		class, err := d.registry.Get(entry.Type)
		if err != nil {
			return fmt.Errorf("document: model %q: %w", entry.ID, err)
		}
		m, err := model.New(class, nil, model.WithID(entry.ID))
		if err != nil {
			return err
		}
		if err := d.attach(m); err != nil {
			return err
		}
		delete(d.pending, entry.ID)
		created = append(created, entry)
	}
	for _, entry := range created {
		if err := d.models[entry.ID].ApplySerializable(entry.Attributes, d, setter); err != nil {
			return fmt.Errorf("document: load %s %q: %w", entry.Type, entry.ID, err)
		}
	}
	return nil
}

// sameSetter compares setters without panicking on uncomparable values.
func sameSetter(a, b any) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}
