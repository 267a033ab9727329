package property

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Match them with errors.Is against any error returned by this
// package.
var (
	// ErrLifecycle reports access to an attribute before the owning instance
	// initialised its storage.
	ErrLifecycle = errors.New("property: instance storage not initialised")
	// ErrReadOnly reports a write to a read-only attribute.
	ErrReadOnly = errors.New("property: attribute is read-only")
	// ErrValidation reports a value rejected or not coercible by its Type.
	ErrValidation = errors.New("property: invalid value")
	// ErrConfiguration reports a malformed class declaration or Override.
	ErrConfiguration = errors.New("property: invalid configuration")
	// ErrInternal reports a broken internal invariant. It is raised as a panic.
	ErrInternal = errors.New("property: internal consistency error")
	// ErrUnknownAttribute reports a lookup of an attribute the class does not
	// declare.
	ErrUnknownAttribute = errors.New("property: unknown attribute")
	// ErrReentrancy reports change notifications nested deeper than the owner
	// allows.
	ErrReentrancy = errors.New("property: change notification nested too deep")
)

// Error carries the class and attribute an error relates to. Kind is one of the
// package error kinds; Err is the optional underlying cause.
type Error struct {
	Kind  error
	Class string
	Attr  string
	Err   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	if e.Kind != nil {
		b.WriteString(e.Kind.Error())
	} else {
		b.WriteString("property: error")
	}
	switch {
	case e.Class != "" && e.Attr != "":
		fmt.Fprintf(&b, " (%s.%s)", e.Class, e.Attr)
	case e.Attr != "":
		fmt.Fprintf(&b, " (%s)", e.Attr)
	case e.Class != "":
		fmt.Fprintf(&b, " (%s)", e.Class)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e == nil {
		return nil
	}
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

func newError(kind error, class, attr string, cause error) *Error {
	return &Error{Kind: kind, Class: class, Attr: attr, Err: cause}
}

// ValidationError wraps cause as an ErrValidation for the named attribute. Types
// use it from Validate and PrepareValue so callers can match ErrValidation.
func ValidationError(attr string, cause error) error {
	if cause == nil {
		return nil
	}
	var perr *Error
	if errors.As(cause, &perr) && errors.Is(perr.Kind, ErrValidation) {
		if perr.Attr == "" && attr != "" {
			return &Error{Kind: ErrValidation, Class: perr.Class, Attr: attr, Err: perr.Err}
		}
		return cause
	}
	return newError(ErrValidation, "", attr, cause)
}

// Invalidf formats a validation failure for the named attribute.
func Invalidf(attr, format string, args ...any) error {
	return newError(ErrValidation, "", attr, fmt.Errorf(format, args...))
}

// ConfigurationError wraps cause as an ErrConfiguration.
func ConfigurationError(class, attr string, cause error) error {
	return newError(ErrConfiguration, class, attr, cause)
}

func className(obj Owner) string {
	if obj == nil {
		return ""
	}
	if cls := obj.Class(); cls != nil {
		return cls.Name()
	}
	return ""
}
