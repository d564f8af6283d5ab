// Package bridge exposes live, asynchronously produced media resources to an
// external caller through opaque integer handles and a serialized event channel.
//
// The external side never holds direct references to internal objects. Every
// resource it can touch (tracks, streams, frame buffers) lives in a handle
// registry and is addressed by a 64-bit handle. Producers push structured
// events describing new resources through a bounded sink; the caller retrieves
// and releases resources by handle.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	bridge/              Root package documentation
//	├── server/          High-level request surface (setup, release, events)
//	├── registry/        Handle registry: opaque handles to owned resources
//	├── stream/          Per-track producer tasks bridging sources to events
//	├── event/           Ordered event sink between producers and the caller
//	├── media/           Track, publication and frame data model
//	├── e2ee/            Per-(identity, track) frame encryption management
//	├── errors/          Structured error types for debugging
//	└── cmd/bridgemon/   Simulator and interactive monitor
//
// # Quick Start
//
// Set up a server, publish a track, and consume its frame events:
//
//	srv := server.New()
//	defer srv.Close()
//
//	src := media.NewSource(media.KindVideo, 16)
//	trackHandle := srv.RegisterTrack(media.NewVideoTrack("camera", src))
//
//	resp, err := srv.SetupStream(server.SetupStreamRequest{
//	    TrackHandle: trackHandle,
//	    Type:        stream.TypeVideoNative,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for ev := range srv.Events() {
//	    // ev.Payload is FrameReceived or EndOfStream
//	}
//
// Releasing a stream handle is the sanctioned way to stop its producer:
//
//	srv.Release(resp.Handle)
package bridge
