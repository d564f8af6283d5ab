// Package event carries structured stream events from internal producers to
// the external caller.
//
// Events reference resources by handle, never by pointer: a FrameReceived
// payload names the registry handle under which the frame buffer was stored,
// and the receiver releases that handle when done.
//
// Delivery is ordered per stream and fallible by design. A producer whose
// Send fails logs and moves on; the only delivery guarantee the bridge makes
// is that each stream's event sequence ends with exactly one EndOfStream.
package event
