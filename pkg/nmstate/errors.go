package nmstate

import (
	"errors"
	"fmt"
)

// Kind classifies an engine-reported failure. The set of known kinds is
// closed; an unrecognized kind string is carried through verbatim so the
// generic case loses nothing.
type Kind string

const (
	// KindVerification: the applied state did not match the observed
	// state after the post-apply read-back.
	KindVerification Kind = "VerificationError"
	// KindInvalidArgument: malformed or semantically invalid request.
	KindInvalidArgument Kind = "InvalidArgument"
	// KindBug: internal engine inconsistency.
	KindBug Kind = "Bug"
	// KindPluginFailure: an underlying backend or plugin failed.
	KindPluginFailure Kind = "PluginFailure"
	// KindNotImplemented: the requested feature is unsupported by the
	// current engine build.
	KindNotImplemented Kind = "NotImplementedError"
	// KindKernelIntegerRounded: a numeric value was rounded when mapped
	// to a kernel-level representation. Lossy but non-fatal.
	KindKernelIntegerRounded Kind = "KernelIntegerRoundedError"
	// KindNotSupported: the operation is not supported on this platform
	// or configuration.
	KindNotSupported Kind = "NotSupportedError"
	// KindDependency: a required external dependency or service is
	// missing or unreachable.
	KindDependency Kind = "DependencyError"
	// KindPermission: the caller lacks privilege for the operation.
	KindPermission Kind = "PermissionError"
)

// knownKinds is the closed taxonomy; anything else maps to the generic
// case with its kind string preserved.
var knownKinds = map[Kind]bool{
	KindVerification:         true,
	KindInvalidArgument:      true,
	KindBug:                  true,
	KindPluginFailure:        true,
	KindNotImplemented:       true,
	KindKernelIntegerRounded: true,
	KindNotSupported:         true,
	KindDependency:           true,
	KindPermission:           true,
}

// Error is an engine-reported failure mapped into the taxonomy. Kind
// determines the variant; Message is the engine's human-readable text,
// carried through unchanged.
type Error struct {
	Kind    Kind
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is matches errors by kind, so callers can compare against
// &Error{Kind: KindVerification} with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && (t.Message == "" || t.Message == e.Message)
}

// Known reports whether the error's kind belongs to the closed taxonomy.
func (e *Error) Known() bool {
	return knownKinds[e.Kind]
}

// mapError translates an engine-reported (kind, message) pair into a
// caller-facing error. The mapping is total: every input produces a
// value, and an unlisted kind is surfaced verbatim.
func mapError(kind, message string) error {
	return &Error{Kind: Kind(kind), Message: message}
}

// KindOf returns the taxonomy kind of err, or "" if err does not carry
// one.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsVerificationError reports whether err is a post-apply verification
// mismatch.
func IsVerificationError(err error) bool {
	return KindOf(err) == KindVerification
}

// IsPermissionError reports whether err is a privilege failure.
func IsPermissionError(err error) bool {
	return KindOf(err) == KindPermission
}

// IsDependencyError reports whether err is a missing-dependency failure.
func IsDependencyError(err error) bool {
	return KindOf(err) == KindDependency
}
