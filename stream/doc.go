// Package stream runs one producer task per active media stream.
//
// Setup validates the request against the source track, stores a Stream under
// a fresh handle, and spawns the producer. The producer pulls frames from the
// track's source, stores each frame buffer in the registry, and pushes a
// FrameReceived event through the sink. It stops on cancellation or source
// exhaustion and always emits exactly one EndOfStream event before exiting.
//
// # Cancellation
//
// Cancellation is cooperative and single-shot, wired through the registry:
// releasing the stream's handle fires its Dropper hook, which closes the
// internal close channel. The producer checks that channel ahead of the next
// frame, so cancellation never waits on upstream production. A signal that
// arrives after the producer already reached Closed is a no-op.
//
// # Delivery
//
// Event send failures are logged and absorbed — a running producer has no
// caller to report to. Receivers may observe a FrameReceived for a stream
// that has since closed; such late events are valid and ignorable, not
// protocol violations.
package stream
