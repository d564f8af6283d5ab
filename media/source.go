package media

import (
	"sync"

	berrors "github.com/mosaicrtc/bridge/errors"
)

// Source is the asynchronous frame pipe feeding a stream producer.
//
// The capture side calls Push; the producer selects on Frames. Closing the
// send side is how a source reports exhaustion: the Frames channel drains and
// then closes, which the producer treats as end of stream, not as an error.
type Source struct {
	frames    chan Frame
	kind      TrackKind
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

// NewSource creates a source for frames of the given kind with the given
// channel capacity.
func NewSource(kind TrackKind, buffer int) *Source {
	return &Source{
		kind:   kind,
		frames: make(chan Frame, buffer),
	}
}

// Kind returns the frame kind this source carries.
func (s *Source) Kind() TrackKind {
	return s.kind
}

// Frames returns the receive side of the pipe. The channel closes when the
// source is exhausted.
func (s *Source) Frames() <-chan Frame {
	return s.frames
}

// Push delivers one frame into the pipe, blocking while the buffer is full.
// Fails if the frame kind does not match the source or the send side is
// closed.
func (s *Source) Push(f Frame) error {
	if f.Kind != s.kind || !f.Valid() {
		return berrors.InvalidRequest("frame kind does not match source")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return berrors.Closed(berrors.PhaseStream, "frame source")
	}
	s.frames <- f
	return nil
}

// CloseSend marks the source exhausted. Pending frames stay deliverable;
// further Push calls fail. Safe to call more than once.
func (s *Source) CloseSend() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.frames)
		s.mu.Unlock()
	})
}
