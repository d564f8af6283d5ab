package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseSetup    Phase = "setup"    // stream setup validation
	PhaseRegistry Phase = "registry" // handle registry access
	PhaseStream   Phase = "stream"   // producer task runtime
	PhaseDelivery Phase = "delivery" // event sink delivery
	PhaseCrypto   Phase = "crypto"   // frame encryption
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidRequest  Kind = "invalid_request"
	KindInvalidHandle   Kind = "invalid_handle"
	KindTypeMismatch    Kind = "type_mismatch"
	KindDuplicateHandle Kind = "duplicate_handle"
	KindDeliveryFailure Kind = "delivery_failure"
	KindUnsupported     Kind = "unsupported"
	KindNotInitialized  Kind = "not_initialized"
	KindEncryption      Kind = "encryption"
	KindDecryption      Kind = "decryption"
	KindMissingKey      Kind = "missing_key"
	KindClosed          Kind = "closed"
)

// Error is the structured error type used throughout the bridge
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Handle uint64
	Detail string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Handle != 0 {
		fmt.Fprintf(&b, " (handle %d)", e.Handle)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. Two bridge errors match when
// their Phase and Kind agree, so callers can compare against sentinel values
// without caring about handle or detail text.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Handle sets the offending handle
func (b *Builder) Handle(h uint64) *Builder {
	b.err.Handle = h
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// InvalidRequest creates a setup validation error
func InvalidRequest(detail string) *Error {
	return &Error{
		Phase:  PhaseSetup,
		Kind:   KindInvalidRequest,
		Detail: detail,
	}
}

// Unsupported creates an unsupported-kind setup error
func Unsupported(what string) *Error {
	return &Error{
		Phase:  PhaseSetup,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// InvalidHandle creates a registry lookup error
func InvalidHandle(handle uint64) *Error {
	return &Error{
		Phase:  PhaseRegistry,
		Kind:   KindInvalidHandle,
		Handle: handle,
		Detail: "no resource stored under handle",
	}
}

// TypeMismatch creates a typed-retrieval error
func TypeMismatch(handle uint64, want, got string) *Error {
	return &Error{
		Phase:  PhaseRegistry,
		Kind:   KindTypeMismatch,
		Handle: handle,
		Detail: fmt.Sprintf("resource is %s, not %s", got, want),
	}
}

// DuplicateHandle creates an internal invariant violation error. This should
// not occur under correct allocation discipline.
func DuplicateHandle(handle uint64) *Error {
	return &Error{
		Phase:  PhaseRegistry,
		Kind:   KindDuplicateHandle,
		Handle: handle,
		Detail: "handle already stores a resource",
	}
}

// DeliveryFailure creates a non-fatal event delivery error
func DeliveryFailure(detail string) *Error {
	return &Error{
		Phase:  PhaseDelivery,
		Kind:   KindDeliveryFailure,
		Detail: detail,
	}
}

// NotInitialized creates a not-initialized error for an inactive subsystem
func NotInitialized(component string) *Error {
	return &Error{
		Phase:  PhaseCrypto,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
	}
}

// MissingKey creates a key lookup error for a participant identity
func MissingKey(identity string) *Error {
	return &Error{
		Phase:  PhaseCrypto,
		Kind:   KindMissingKey,
		Detail: fmt.Sprintf("no key material for %q", identity),
	}
}

// Encryption wraps a frame encryption failure
func Encryption(cause error) *Error {
	return &Error{
		Phase: PhaseCrypto,
		Kind:  KindEncryption,
		Cause: cause,
	}
}

// Decryption wraps a frame decryption failure
func Decryption(cause error) *Error {
	return &Error{
		Phase: PhaseCrypto,
		Kind:  KindDecryption,
		Cause: cause,
	}
}

// Closed creates an error for operations on a closed component
func Closed(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindClosed,
		Detail: fmt.Sprintf("%s is closed", what),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
