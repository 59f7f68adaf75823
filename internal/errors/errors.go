// Package errors provides the structured error type shared by the
// conversion pipeline. Import it as apperr.
package errors

import (
	stderrs "errors"
	"fmt"
)

// Kind classifies a failure. Every kind aborts the run; recoverable
// reconciliation problems are reported through reconcile.Report instead.
type Kind uint8

const (
	// KindUnknown is for unclassified errors
	KindUnknown Kind = iota

	// KindStructural is for malformed calendar input: bad nesting, missing
	// required fields, inconsistent start/end or recurrence terminator types
	KindStructural

	// KindZoneResolution is for conversions that need a zone when none
	// could be resolved
	KindZoneResolution

	// KindConfiguration is for invalid flags, config values or profiles
	KindConfiguration

	// KindExpansion is for invariant violations inside recurrence expansion
	KindExpansion

	// KindSource is for input that cannot be read and output that cannot be written
	KindSource
)

func (k Kind) String() string {
	switch k {
	case KindStructural:
		return "structural"
	case KindZoneResolution:
		return "zone_resolution"
	case KindConfiguration:
		return "configuration"
	case KindExpansion:
		return "expansion"
	case KindSource:
		return "source"
	default:
		return "unknown"
	}
}

// Error is the structured error type.
// uid is the calendar UID the failure belongs to, if any.
type Error struct {
	orig error
	msg  string
	kind Kind
	uid  string
}

// Error implements the error interface
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.msg
	if e.uid != "" {
		msg = fmt.Sprintf("%s (uid=%s)", msg, e.uid)
	}
	if e.orig != nil {
		return fmt.Sprintf("%s: %v", msg, e.orig)
	}
	return msg
}

// Unwrap returns the wrapped error, if any
func (e *Error) Unwrap() error { return e.orig }

// Kind returns the error kind
func (e *Error) Kind() Kind { return e.kind }

// UID returns the offending event UID, if set
func (e *Error) UID() string { return e.uid }

// New returns a new *Error with the given kind and message
func New(kind Kind, msg string) error { return &Error{kind: kind, msg: msg} }

// Newf returns a new *Error with kind and formatted message
func Newf(kind Kind, format string, a ...any) error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, a...)}
}

// Wrap returns a new *Error that wraps orig with kind and message
func Wrap(orig error, kind Kind, msg string) error {
	return &Error{kind: kind, msg: msg, orig: orig}
}

// Wrapf returns a new *Error that wraps orig with kind and formatted message
func Wrapf(orig error, kind Kind, format string, a ...any) error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, a...), orig: orig}
}

// WithUID attaches a UID to an *Error (copy-on-write). Foreign errors are
// wrapped with KindUnknown. A UID already present is kept.
func WithUID(err error, uid string) error {
	if err == nil {
		return nil
	}
	if e, ok := As(err); ok {
		if e.uid != "" {
			return err
		}
		c := *e
		c.uid = uid
		return &c
	}
	return &Error{kind: KindUnknown, msg: err.Error(), uid: uid, orig: err}
}

// As unwraps and returns (*Error, true) if err is one of ours
func As(err error) (*Error, bool) {
	var e *Error
	if stderrs.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf extracts a Kind from any error, defaulting to KindUnknown
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.kind
	}
	return KindUnknown
}

// Is reports whether err has the given kind
func Is(err error, kind Kind) bool { return KindOf(err) == kind }

// Sugar

// Structuralf returns a structural input error
func Structuralf(format string, a ...any) error { return Newf(KindStructural, format, a...) }

// ZoneResolutionf returns a zone resolution error
func ZoneResolutionf(format string, a ...any) error { return Newf(KindZoneResolution, format, a...) }

// Configurationf returns a configuration error
func Configurationf(format string, a ...any) error { return Newf(KindConfiguration, format, a...) }

// Expansionf returns an expansion invariant error
func Expansionf(format string, a ...any) error { return Newf(KindExpansion, format, a...) }
