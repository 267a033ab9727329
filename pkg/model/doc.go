// Package model provides Model, the instance side of a property.Class.
//
// A Model owns the attribute storage descriptors read and write, routes
// generic Get/Set/Delete calls to the class descriptors, delivers change
// notifications to registered callbacks and to an attached Sink, and applies
// themed defaults so that exactly one notification fires per attribute whose
// effective value changed.
//
// Callbacks run synchronously. A callback may write attributes of any model;
// nested notifications are allowed up to MaxTriggerDepth.
package model
