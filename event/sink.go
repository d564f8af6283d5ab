package event

import (
	"sync"

	berrors "github.com/mosaicrtc/bridge/errors"
)

// DefaultCapacity is the event buffer size used when none is configured.
const DefaultCapacity = 256

// ChannelSink is a bounded, ordered Sink backed by a buffered channel.
//
// Send never blocks: enqueueing is bounded by the buffer, and a full buffer
// fails the send instead of stalling the producer behind a slow receiver.
type ChannelSink struct {
	events    chan StreamEvent
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

// NewChannelSink creates a sink with the given buffer capacity.
// Non-positive capacities fall back to DefaultCapacity.
func NewChannelSink(capacity int) *ChannelSink {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &ChannelSink{
		events: make(chan StreamEvent, capacity),
	}
}

// Send enqueues one event. Fails with delivery_failure when the buffer is
// full and with closed after Close; both are expected, non-fatal conditions
// for the producer.
func (s *ChannelSink) Send(ev StreamEvent) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return berrors.Closed(berrors.PhaseDelivery, "event sink")
	}

	select {
	case s.events <- ev:
		return nil
	default:
		return berrors.DeliveryFailure("event buffer full, receiver too slow")
	}
}

// Events returns the receive side of the sink. The channel closes after
// Close once buffered events are drained by the receiver.
func (s *ChannelSink) Events() <-chan StreamEvent {
	return s.events
}

// Close stops accepting events and closes the receive channel. Events already
// buffered remain readable. Safe to call more than once.
func (s *ChannelSink) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.events)
		s.mu.Unlock()
	})
}
