// Package errors provides structured error types for the bridge.
//
// Every error carries a Phase (where processing failed) and a Kind (what
// failed), so callers can branch on error identity without parsing strings:
//
//	_, err := registry.Retrieve[*media.Track](reg, h)
//	if errors.Is(err, &bridgeerrors.Error{
//	    Phase: bridgeerrors.PhaseRegistry,
//	    Kind:  bridgeerrors.KindInvalidHandle,
//	}) {
//	    // handle was never issued or already released
//	}
//
// Setup-time errors (invalid_request, unsupported, invalid_handle,
// type_mismatch) surface synchronously to the caller. Runtime errors inside a
// producer (delivery_failure) are absorbed and logged: once a stream is
// running there is no caller left to report to, and the end-of-stream event is
// the only externally visible terminus.
package errors
