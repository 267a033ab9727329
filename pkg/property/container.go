package property

import "errors"

// Container is a composite value wrapped so that in-place mutation is
// observable. Descriptors register the owning instance while the container is
// stored in one of its attributes.
type Container interface {
	RegisterOwner(owner Owner, d Descriptor)
	UnregisterOwner(owner Owner, d Descriptor)
	Owners() []OwnerKey

	// UnmodifiedDefault reports whether the container is a materialised
	// default that nobody changed yet.
	UnmodifiedDefault() bool
	SetUnmodifiedDefault(flag bool)
}

// OwnerKey identifies an attribute slot on an instance.
type OwnerKey struct {
	Owner Owner
	Name  string
}

// OwnerSet is a non-owning index of the attribute slots a container is stored
// in. It records keys only; descriptors are looked up through the owner's
// class when a mutation is reported. The zero value is ready to use.
type OwnerSet struct {
	keys []OwnerKey
}

// Add registers the slot; duplicate registrations are ignored.
func (s *OwnerSet) Add(owner Owner, name string) {
	if owner == nil {
		return
	}
	for _, key := range s.keys {
		if key.Owner == owner && key.Name == name {
			return
		}
	}
	s.keys = append(s.keys, OwnerKey{Owner: owner, Name: name})
}

// Remove drops the slot if present.
func (s *OwnerSet) Remove(owner Owner, name string) {
	for idx, key := range s.keys {
		if key.Owner == owner && key.Name == name {
			s.keys = append(s.keys[:idx:idx], s.keys[idx+1:]...)
			return
		}
	}
}

// Keys returns a copy of the registered slots in registration order.
func (s *OwnerSet) Keys() []OwnerKey {
	if len(s.keys) == 0 {
		return nil
	}
	return append([]OwnerKey(nil), s.keys...)
}

// Len returns the number of registered slots.
func (s *OwnerSet) Len() int {
	return len(s.keys)
}

// NotifyOwners reports an in-place mutation to every slot in keys. old is the
// snapshot taken before the mutation. Errors from individual owners are joined.
func NotifyOwners(keys []OwnerKey, old any, hint Hint) error {
	var errs []error
	for _, key := range keys {
		if key.Owner == nil {
			continue
		}
		cls := key.Owner.Class()
		if cls == nil {
			continue
		}
		d, ok := cls.Descriptor(key.Name)
		if !ok {
			continue
		}
		if err := d.NotifyMutated(key.Owner, old, hint); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
