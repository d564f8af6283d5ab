package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/mosaicrtc/bridge/e2ee"
	"github.com/mosaicrtc/bridge/event"
	"github.com/mosaicrtc/bridge/media"
	"github.com/mosaicrtc/bridge/registry"
	"github.com/mosaicrtc/bridge/server"
	"github.com/mosaicrtc/bridge/stream"
)

const simIdentity = "bridgemon"

func main() {
	var (
		tracks      = flag.Int("tracks", 2, "Number of simulated tracks (alternating video/audio)")
		frames      = flag.Int("frames", 30, "Frames to produce per track")
		fps         = flag.Int("fps", 30, "Frame production rate per track")
		capacity    = flag.Int("capacity", 256, "Event sink buffer capacity")
		encrypt     = flag.Bool("encrypt", false, "Enable end-to-end encryption")
		verbose     = flag.Bool("v", false, "Verbose logging")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	cfg := simConfig{
		tracks:   *tracks,
		frames:   *frames,
		fps:      *fps,
		capacity: *capacity,
		encrypt:  *encrypt,
	}
	if *verbose && !*interactive {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		cfg.logger = logger
	}

	if *interactive {
		if err := runInteractive(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type simConfig struct {
	logger   *zap.Logger
	tracks   int
	frames   int
	fps      int
	capacity int
	encrypt  bool
}

type simStream struct {
	trackSID string
	handle   registry.Handle
	typ      stream.Type
}

// buildSession creates a server with the configured options, registers the
// simulated tracks, starts a stream per track, and kicks off the frame
// pushers.
func buildSession(cfg simConfig) (*server.Server, map[registry.Handle]*simStream, error) {
	opts := []server.Option{server.WithSinkCapacity(cfg.capacity)}
	if cfg.logger != nil {
		opts = append(opts, server.WithLogger(cfg.logger))
	}
	if cfg.encrypt {
		provider := e2ee.NewKeyProvider([]byte("bridgemon-salt"))
		provider.SetSharedKey([]byte("bridgemon-demo-key"))
		opts = append(opts, server.WithEncryption(&e2ee.Options{
			KeyProvider: provider,
			Encryption:  media.EncryptionGCM,
		}))
	}
	srv := server.New(opts...)

	streams := make(map[registry.Handle]*simStream, cfg.tracks)
	for i := 0; i < cfg.tracks; i++ {
		kind := media.KindVideo
		typ := stream.TypeVideoNative
		if i%2 == 1 {
			kind = media.KindAudio
			typ = stream.TypeAudioNative
		}

		src := media.NewSource(kind, 16)
		var track *media.Track
		if kind == media.KindVideo {
			track = media.NewVideoTrack(fmt.Sprintf("sim-cam-%d", i), src)
		} else {
			track = media.NewAudioTrack(fmt.Sprintf("sim-mic-%d", i), src)
		}

		trackHandle := srv.RegisterTrack(track)
		if cfg.encrypt {
			srv.OnTrackSubscribed(track, track.Publish(media.EncryptionGCM), simIdentity)
		}

		resp, err := srv.SetupStream(server.SetupStreamRequest{
			TrackHandle: trackHandle,
			Type:        typ,
		})
		if err != nil {
			srv.Close()
			return nil, nil, err
		}
		streams[resp.Handle] = &simStream{
			handle:   resp.Handle,
			trackSID: track.SID,
			typ:      typ,
		}

		go pushFrames(src, kind, cfg.frames, cfg.fps)
	}

	return srv, streams, nil
}

// pushFrames feeds synthetic frames into a source at the configured rate,
// then reports exhaustion.
func pushFrames(src *media.Source, kind media.TrackKind, frames, fps int) {
	interval := time.Second / time.Duration(fps)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for i := 0; i < frames; i++ {
		<-ticker.C

		var f media.Frame
		if kind == media.KindVideo {
			f = media.NewVideoFrame(&media.VideoFrame{
				Data:        make([]byte, 64),
				Width:       640,
				Height:      480,
				Buffer:      media.BufferI420,
				TimestampUs: time.Now().UnixMicro(),
			})
		} else {
			f = media.NewAudioFrame(&media.AudioFrame{
				Data:              make([]byte, 32),
				SampleRate:        48000,
				NumChannels:       1,
				SamplesPerChannel: 480,
			})
		}
		if err := src.Push(f); err != nil {
			return
		}
	}
	src.CloseSend()
}

func run(cfg simConfig) error {
	srv, streams, err := buildSession(cfg)
	if err != nil {
		return err
	}
	defer srv.Close()

	fmt.Printf("Streams: %d\n", len(streams))
	fmt.Printf("Frames per track: %d at %d fps\n", cfg.frames, cfg.fps)
	fmt.Printf("Encryption: %v\n\n", srv.E2EE().Enabled())

	if cfg.encrypt {
		srv.E2EE().OnStateChanged(func(identity string, state e2ee.State) {
			fmt.Printf("  e2ee state: %s -> %s\n", identity, state)
		})
	}

	var framesSeen, sealedBytes int
	eosSeen := 0
	for eosSeen < len(streams) {
		ev, ok := <-srv.Events()
		if !ok {
			break
		}

		st := streams[ev.Stream]
		switch payload := ev.Payload.(type) {
		case event.FrameReceived:
			framesSeen++
			sealedBytes += sealFrame(srv, st, payload)
			if err := srv.Release(payload.Frame); err != nil {
				fmt.Printf("  release frame %d: %v\n", payload.Frame, err)
			}
		case event.EndOfStream:
			eosSeen++
			fmt.Printf("stream %d (%s): end of stream\n", ev.Stream, st.trackSID)
		}
	}

	fmt.Printf("\nFrames received: %d\n", framesSeen)
	if cfg.encrypt {
		fmt.Printf("Encrypted payload bytes: %d\n", sealedBytes)
	}
	fmt.Printf("Handles still registered: %d\n", srv.Registry().Len())
	return nil
}

// sealFrame runs the frame payload through the stream's cryptor when
// encryption is active, returning the sealed size.
func sealFrame(srv *server.Server, st *simStream, payload event.FrameReceived) int {
	if st == nil || !srv.E2EE().Enabled() {
		return 0
	}

	key := e2ee.BindingKey{Identity: simIdentity, TrackSID: st.trackSID}
	cryptor := srv.E2EE().FrameCryptors()[key]
	if cryptor == nil {
		return 0
	}

	data := frameData(srv, payload.Frame, payload.Info.Kind)
	if data == nil {
		return 0
	}
	sealed, err := cryptor.EncryptFrame(data)
	if err != nil {
		fmt.Printf("  encrypt: %v\n", err)
		return 0
	}
	return len(sealed)
}

func frameData(srv *server.Server, handle registry.Handle, kind media.TrackKind) []byte {
	switch kind {
	case media.KindVideo:
		buf, err := registry.Retrieve[*media.VideoFrame](srv.Registry(), handle)
		if err != nil {
			return nil
		}
		return buf.Data
	case media.KindAudio:
		buf, err := registry.Retrieve[*media.AudioFrame](srv.Registry(), handle)
		if err != nil {
			return nil
		}
		return buf.Data
	default:
		return nil
	}
}
