// Package registry provides the process-wide handle table that backs the
// bridge's external surface.
//
// Resources are opaque handles representing host-side values the external
// caller may retrieve and release but never reference directly.
//
// # Handle Discipline
//
// Handles are 64-bit, issued monotonically, and never reused for the life of
// the registry — releasing a handle does not recycle its number, so a caller
// holding a stale handle can never accidentally address a newer resource.
//
//	reg := registry.New()
//
//	// Allocate a handle, then store a value under it
//	handle := reg.Allocate()
//	err := reg.Store(handle, myValue)
//
//	// Or do both in one step
//	handle = reg.Insert(myValue)
//
//	// Typed retrieval
//	track, err := registry.Retrieve[*media.Track](reg, handle)
//
//	// Remove and tear down
//	err = reg.Release(handle)
//
// # Ownership
//
// Each handle has exactly one owner, and exactly one owner releases a given
// handle, ever. Individual operations are race-free but not cross-operation
// atomic: a Retrieve immediately followed by a Release from another goroutine
// is a genuine race the ownership discipline must prevent.
//
// # Teardown
//
// Values implementing Dropper get their Drop hook called on Release. Stream
// objects use this to turn an external release into a cooperative cancellation
// signal for their producer task.
//
// There is no implicit garbage collection. Failure to release leaks the
// resource until Clear or Close.
package registry
