package event

import (
	"github.com/mosaicrtc/bridge/media"
	"github.com/mosaicrtc/bridge/registry"
)

// Payload is the sealed variant carried by a StreamEvent.
type Payload interface {
	isPayload()
}

// FrameReceived announces a new frame buffer stored under Frame. The receiver
// owns the handle and must release it when done with the buffer.
type FrameReceived struct {
	Info  media.FrameInfo
	Frame registry.Handle
}

func (FrameReceived) isPayload() {}

// EndOfStream is the definitive terminus of a stream: exactly one is sent per
// stream, always last.
type EndOfStream struct{}

func (EndOfStream) isPayload() {}

// StreamEvent is one immutable message on the bridge's event surface. Events
// for a given stream arrive in production order; there is no ordering
// guarantee across streams.
type StreamEvent struct {
	Payload Payload
	Stream  registry.Handle
}

// Sink is the delivery channel from producers to the external caller.
// Delivery is fallible: the receiver may be slow or gone, and senders treat a
// failed Send as loggable, never fatal.
type Sink interface {
	Send(StreamEvent) error
}
