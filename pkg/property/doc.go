// Package property implements the per-attribute descriptor layer used by
// synchronised model objects. A Class declares its attributes once, at
// definition time, by binding each name to a Type. Every read, write, default
// materialisation, in-place mutation callback and JSON import/export for that
// attribute then flows through the attribute's Descriptor.
//
// Descriptors are stateless. Values live in the Storage owned by each model
// instance (see Owner) and are populated lazily: an attribute is present in
// storage once it was written, or once its default had to be materialised
// because the default is unstable or is a Container that needs an owner. A
// stored value always wins over the default.
//
// Three descriptor variants exist, selected from Type.Kind at declaration time:
//
//   - BasicDescriptor handles plain and container attributes.
//   - DataSpecDescriptor keeps the shape (scalar, field reference or full
//     mapping) of values echoed back from a remote peer.
//   - UnitsSpecDescriptor additionally moves an embedded "units" entry into a
//     sibling `<name>_units` attribute on every write.
//
// Container values (lists and mappings wrapped so in-place mutation is
// observable) keep a non-owning index of (owner, attribute) pairs. Descriptors
// keep that index consistent with storage: the evicted container is
// unregistered, the incoming one registered, storage committed, and only then
// is the change notification fired.
package property
