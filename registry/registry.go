package registry

import (
	"fmt"
	"sync"

	"go.uber.org/atomic"

	berrors "github.com/mosaicrtc/bridge/errors"
)

// Registry maps opaque handles to owned resource values.
//
// Handles are issued monotonically and never reused, even after release, so a
// stale handle can never alias a newer resource. Resources are not garbage
// collected: every stored handle must be explicitly released by its owner.
type Registry struct {
	next      atomic.Uint64
	entries   map[Handle]any
	mu        sync.RWMutex
	closed    bool
	observers []Observer
	obsMu     sync.RWMutex
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		entries: make(map[Handle]any, 64),
	}
}

// Allocate returns a fresh, never-before-issued handle.
func (r *Registry) Allocate() Handle {
	return Handle(r.next.Inc())
}

// Store inserts a resource under a previously allocated handle.
// Overwriting an existing handle is a programming error.
func (r *Registry) Store(handle Handle, value any) error {
	if handle == InvalidHandle {
		return berrors.InvalidHandle(uint64(handle))
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return berrors.Closed(berrors.PhaseRegistry, "registry")
	}
	if _, exists := r.entries[handle]; exists {
		r.mu.Unlock()
		return berrors.DuplicateHandle(uint64(handle))
	}
	r.entries[handle] = value
	r.mu.Unlock()

	r.notify(Event{Type: EventStored, Handle: handle, Value: value})
	return nil
}

// Insert allocates a handle and stores the value under it.
// Returns InvalidHandle if the registry is closed.
func (r *Registry) Insert(value any) Handle {
	handle := r.Allocate()
	if err := r.Store(handle, value); err != nil {
		return InvalidHandle
	}
	return handle
}

// Get retrieves a resource by handle without type checking.
func (r *Registry) Get(handle Handle) (any, bool) {
	if handle == InvalidHandle {
		return nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	value, ok := r.entries[handle]
	return value, ok
}

// Retrieve returns the resource stored under handle if it has type T.
// Fails with invalid_handle if absent and type_mismatch if the stored
// resource is of a different kind.
func Retrieve[T any](r *Registry, handle Handle) (T, error) {
	var zero T

	value, ok := r.Get(handle)
	if !ok {
		return zero, berrors.InvalidHandle(uint64(handle))
	}

	typed, ok := value.(T)
	if !ok {
		return zero, berrors.TypeMismatch(uint64(handle),
			fmt.Sprintf("%T", zero), fmt.Sprintf("%T", value))
	}
	return typed, nil
}

// Release removes the resource stored under handle and runs its Dropper hook
// if it has one. This is the mechanism by which external callers terminate a
// running stream. Fails with invalid_handle if the handle holds nothing.
func (r *Registry) Release(handle Handle) error {
	if handle == InvalidHandle {
		return berrors.InvalidHandle(uint64(handle))
	}

	r.mu.Lock()
	value, ok := r.entries[handle]
	if !ok {
		r.mu.Unlock()
		return berrors.InvalidHandle(uint64(handle))
	}
	delete(r.entries, handle)
	r.mu.Unlock()

	// Teardown runs outside the lock: a Dropper may take arbitrary time.
	if d, ok := value.(Dropper); ok {
		d.Drop()
	}

	r.notify(Event{Type: EventReleased, Handle: handle, Value: value})
	return nil
}

// Len returns the number of stored resources.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Each iterates over a snapshot of all stored resources.
func (r *Registry) Each(fn func(Handle, any) bool) {
	r.mu.RLock()
	snapshot := make(map[Handle]any, len(r.entries))
	for h, v := range r.entries {
		snapshot[h] = v
	}
	r.mu.RUnlock()

	for h, v := range snapshot {
		if !fn(h, v) {
			return
		}
	}
}

// Clear releases every stored resource.
func (r *Registry) Clear() {
	var handles []Handle
	r.Each(func(h Handle, _ any) bool {
		handles = append(handles, h)
		return true
	})
	for _, h := range handles {
		_ = r.Release(h)
	}
}

// Close releases all resources and stops accepting new ones.
// Handles issued before Close stay unique forever; Allocate after Close still
// returns fresh values but Store refuses them.
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	entries := r.entries
	r.entries = make(map[Handle]any)
	r.mu.Unlock()

	for _, value := range entries {
		if d, ok := value.(Dropper); ok {
			d.Drop()
		}
	}
	return nil
}

// Subscribe adds an observer for lifecycle events.
func (r *Registry) Subscribe(o Observer) {
	r.obsMu.Lock()
	defer r.obsMu.Unlock()
	r.observers = append(r.observers, o)
}

// Unsubscribe removes an observer.
func (r *Registry) Unsubscribe(o Observer) {
	r.obsMu.Lock()
	defer r.obsMu.Unlock()
	for i, obs := range r.observers {
		if obs == o {
			r.observers = append(r.observers[:i], r.observers[i+1:]...)
			return
		}
	}
}

func (r *Registry) notify(e Event) {
	r.obsMu.RLock()
	defer r.obsMu.RUnlock()
	for _, o := range r.observers {
		o.OnRegistryEvent(e)
	}
}
