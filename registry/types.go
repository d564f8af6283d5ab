package registry

// Handle is an opaque reference to a resource owned by a Registry.
// Handle 0 is reserved and always invalid.
type Handle uint64

// InvalidHandle is the zero handle, never issued by Allocate.
const InvalidHandle Handle = 0

// Event types for resource lifecycle notifications.
type EventType uint8

const (
	EventStored EventType = iota
	EventReleased
)

// Event represents a resource lifecycle event.
type Event struct {
	Value  any
	Handle Handle
	Type   EventType
}

// Observer receives notifications about resource lifecycle events.
type Observer interface {
	OnRegistryEvent(Event)
}

// Dropper is optionally implemented by resource values that need teardown
// when their handle is released. Releasing a stream handle, for example,
// signals the producer task to stop through this hook.
type Dropper interface {
	Drop()
}
