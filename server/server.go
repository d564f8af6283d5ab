package server

import (
	"sync"

	"go.uber.org/zap"

	"github.com/mosaicrtc/bridge/e2ee"
	"github.com/mosaicrtc/bridge/event"
	"github.com/mosaicrtc/bridge/media"
	"github.com/mosaicrtc/bridge/registry"
	"github.com/mosaicrtc/bridge/stream"
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger shared by the server and its producers.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithSinkCapacity sets the event buffer size.
func WithSinkCapacity(capacity int) Option {
	return func(s *Server) {
		s.sinkCapacity = capacity
	}
}

// WithEncryption activates end-to-end encryption for the session.
func WithEncryption(options *e2ee.Options) Option {
	return func(s *Server) {
		s.e2eeOptions = options
	}
}

// Server is the bridge's request surface: it owns the handle registry, the
// event sink, and the session's e2ee manager, and it is what an external
// caller talks to.
type Server struct {
	registry     *registry.Registry
	sink         *event.ChannelSink
	e2ee         *e2ee.Manager
	logger       *zap.Logger
	e2eeOptions  *e2ee.Options
	sinkCapacity int
	closeOnce    sync.Once
}

// New creates a server. Without options it logs nowhere, buffers
// event.DefaultCapacity events, and leaves encryption inactive.
func New(opts ...Option) *Server {
	s := &Server{}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	s.registry = registry.New()
	s.sink = event.NewChannelSink(s.sinkCapacity)
	s.e2ee = e2ee.NewManager(s.e2eeOptions, s.logger)
	return s
}

// Registry exposes the handle table, mainly for monitoring and tests.
func (s *Server) Registry() *registry.Registry {
	return s.registry
}

// Events returns the serialized event surface consumed by the caller.
func (s *Server) Events() <-chan event.StreamEvent {
	return s.sink.Events()
}

// E2EE returns the session's encryption manager.
func (s *Server) E2EE() *e2ee.Manager {
	return s.e2ee
}

// RegisterTrack stores a track and returns its handle, the reference callers
// pass to SetupStream.
func (s *Server) RegisterTrack(track *media.Track) registry.Handle {
	handle := s.registry.Insert(track)
	s.logger.Debug("registered track",
		zap.Uint64("handle", uint64(handle)),
		zap.String("sid", track.SID),
		zap.String("kind", track.Kind.String()))
	return handle
}

// SetupStreamRequest asks for a producer on a previously registered track.
type SetupStreamRequest struct {
	TrackHandle registry.Handle
	Type        stream.Type
}

// SetupStreamResponse returns the stream handle and descriptive metadata.
type SetupStreamResponse struct {
	Info   stream.Info
	Handle registry.Handle
}

// SetupStream validates the request and starts a producer. Validation errors
// surface synchronously; once this returns, the only further signal for the
// stream is its event sequence.
func (s *Server) SetupStream(req SetupStreamRequest) (SetupStreamResponse, error) {
	cfg := stream.Config{
		Registry: s.registry,
		Sink:     s.sink,
		Logger:   s.logger,
	}

	_, info, err := stream.Setup(cfg, req.TrackHandle, req.Type)
	if err != nil {
		return SetupStreamResponse{}, err
	}

	s.logger.Debug("stream started",
		zap.Uint64("handle", uint64(info.Handle)),
		zap.String("type", info.Type.String()),
		zap.String("track", info.TrackSID))

	return SetupStreamResponse{Handle: info.Handle, Info: info}, nil
}

// Release drops the resource stored under handle. Releasing a stream handle
// cancels its producer; the stream's EndOfStream event still follows.
func (s *Server) Release(handle registry.Handle) error {
	return s.registry.Release(handle)
}

// Track lifecycle forwarding from the session's ownership component. Each is
// a plain forwarding call into the e2ee manager.

func (s *Server) OnTrackSubscribed(track *media.Track, pub media.Publication, identity string) {
	s.e2ee.OnTrackSubscribed(track, pub, identity)
}

func (s *Server) OnTrackUnsubscribed(identity, trackSID string) {
	s.e2ee.OnTrackUnsubscribed(identity, trackSID)
}

func (s *Server) OnLocalTrackPublished(track *media.Track, pub media.Publication, identity string) {
	s.e2ee.OnLocalTrackPublished(track, pub, identity)
}

func (s *Server) OnLocalTrackUnpublished(identity, trackSID string) {
	s.e2ee.OnLocalTrackUnpublished(identity, trackSID)
}

// Close tears the session down: encryption bindings are cleared, every
// registered resource is dropped, and the event channel closes after buffered
// events drain. Safe to call more than once.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		s.e2ee.Cleanup()
		if err := s.registry.Close(); err != nil {
			s.logger.Warn("registry close failed", zap.Error(err))
		}
		s.sink.Close()
	})
}
