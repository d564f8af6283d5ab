package stream

import (
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	berrors "github.com/mosaicrtc/bridge/errors"
	"github.com/mosaicrtc/bridge/event"
	"github.com/mosaicrtc/bridge/media"
	"github.com/mosaicrtc/bridge/registry"
)

// Type classifies a stream at setup time. Anything outside the enumerated
// kinds is rejected with an unsupported error before a producer starts.
type Type uint8

const (
	TypeUnknown Type = iota
	TypeVideoNative
	TypeAudioNative
)

func (t Type) String() string {
	switch t {
	case TypeVideoNative:
		return "video_native"
	case TypeAudioNative:
		return "audio_native"
	default:
		return "unknown"
	}
}

// trackKind returns the track kind a stream type requires.
func (t Type) trackKind() media.TrackKind {
	switch t {
	case TypeVideoNative:
		return media.KindVideo
	case TypeAudioNative:
		return media.KindAudio
	default:
		return media.KindUnknown
	}
}

// State is the producer lifecycle. Closed is terminal.
type State uint32

const (
	StateInitializing State = iota
	StateRunning
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "initializing"
	}
}

// Config carries the collaborators a producer needs.
type Config struct {
	Registry *registry.Registry
	Sink     event.Sink
	Logger   *zap.Logger
}

// Info is the descriptive metadata returned synchronously from Setup.
type Info struct {
	TrackSID string
	Handle   registry.Handle
	Type     Type
}

// Stream is one producer task bound to a track source. It is stored in the
// registry under its handle; releasing that handle fires the Dropper hook,
// which is the only sanctioned way to stop a running stream from outside.
type Stream struct {
	handle    registry.Handle
	typ       Type
	trackSID  string
	closeCh   chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	state     atomic.Uint32
}

// Setup validates the request, registers a new Stream under a fresh handle,
// and starts its producer. The handle and metadata return synchronously; the
// producer runs independently until cancellation or source exhaustion.
func Setup(cfg Config, trackHandle registry.Handle, typ Type) (*Stream, Info, error) {
	if cfg.Registry == nil || cfg.Sink == nil {
		return nil, Info{}, berrors.InvalidRequest("stream config missing registry or sink")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	track, err := registry.Retrieve[*media.Track](cfg.Registry, trackHandle)
	if err != nil {
		return nil, Info{}, err
	}

	want := typ.trackKind()
	if want == media.KindUnknown {
		return nil, Info{}, berrors.Unsupported("stream type " + typ.String())
	}
	if track.Kind != want {
		return nil, Info{}, berrors.InvalidRequest("not a " + want.String() + " track")
	}

	source := track.Source()
	if source == nil {
		return nil, Info{}, berrors.InvalidRequest("track has no frame source")
	}

	s := &Stream{
		handle:   cfg.Registry.Allocate(),
		typ:      typ,
		trackSID: track.SID,
		closeCh:  make(chan struct{}),
		done:     make(chan struct{}),
	}

	if err := cfg.Registry.Store(s.handle, s); err != nil {
		return nil, Info{}, err
	}

	go s.run(cfg, source)

	return s, Info{Handle: s.handle, Type: typ, TrackSID: track.SID}, nil
}

// Handle returns the registry handle this stream is stored under.
func (s *Stream) Handle() registry.Handle {
	return s.handle
}

// Type returns the stream's type tag.
func (s *Stream) Type() Type {
	return s.typ
}

// TrackSID returns the SID of the track feeding this stream.
func (s *Stream) TrackSID() string {
	return s.trackSID
}

// State returns the current producer state.
func (s *Stream) State() State {
	return State(s.state.Load())
}

// Done is closed once the producer has emitted end-of-stream and exited.
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// Close signals cooperative cancellation. Single-shot: later calls, including
// signals arriving after the producer already closed, are silent no-ops.
func (s *Stream) Close() {
	s.closeOnce.Do(func() {
		close(s.closeCh)
	})
}

// Drop implements registry.Dropper so that releasing the stream's handle
// cancels the producer.
func (s *Stream) Drop() {
	s.Close()
}

// run is the producer loop. It races the cancellation signal against the next
// source frame, cancellation first, and unconditionally emits exactly one
// end-of-stream event before exiting.
func (s *Stream) run(cfg Config, source *media.Source) {
	logger := cfg.Logger.With(
		zap.Uint64("stream", uint64(s.handle)),
		zap.String("type", s.typ.String()),
	)

	s.state.Store(uint32(StateRunning))

loop:
	for {
		// Cancellation wins over buffered frames: once signaled, in-flight
		// frame delivery is not guaranteed.
		select {
		case <-s.closeCh:
			break loop
		default:
		}

		select {
		case <-s.closeCh:
			break loop
		case frame, ok := <-source.Frames():
			if !ok {
				// Source exhausted. Not an error.
				break loop
			}
			s.deliver(cfg, logger, frame)
		}
	}

	s.state.Store(uint32(StateClosing))

	// The external side must always observe a definitive terminus, even if
	// regular sends failed along the way.
	eos := event.StreamEvent{Stream: s.handle, Payload: event.EndOfStream{}}
	if err := cfg.Sink.Send(eos); err != nil {
		logger.Warn("failed to send end-of-stream event", zap.Error(err))
	}

	s.state.Store(uint32(StateClosed))
	close(s.done)
}

func (s *Stream) deliver(cfg Config, logger *zap.Logger, frame media.Frame) {
	payload := frame.Payload()
	if payload == nil {
		logger.Warn("dropping frame with empty payload")
		return
	}

	frameHandle := cfg.Registry.Insert(payload)
	if frameHandle == registry.InvalidHandle {
		logger.Warn("registry refused frame buffer, dropping frame")
		return
	}

	ev := event.StreamEvent{
		Stream: s.handle,
		Payload: event.FrameReceived{
			Frame: frameHandle,
			Info:  frame.Info(),
		},
	}

	// A slow or absent receiver must not crash the producer.
	if err := cfg.Sink.Send(ev); err != nil {
		logger.Warn("failed to send frame event", zap.Error(err))
	}
}
