package media

import (
	"strings"

	"github.com/google/uuid"
	"go.uber.org/atomic"
)

// Track is a long-lived media track bound to one frame source.
type Track struct {
	source *Source
	SID    string
	Name   string
	Kind   TrackKind
	muted  atomic.Bool
}

// NewVideoTrack creates a video track backed by the given source.
func NewVideoTrack(name string, source *Source) *Track {
	return newTrack(name, KindVideo, source)
}

// NewAudioTrack creates an audio track backed by the given source.
func NewAudioTrack(name string, source *Source) *Track {
	return newTrack(name, KindAudio, source)
}

func newTrack(name string, kind TrackKind, source *Source) *Track {
	return &Track{
		SID:    newTrackSID(),
		Name:   name,
		Kind:   kind,
		source: source,
	}
}

// Source returns the frame pipe backing this track.
func (t *Track) Source() *Source {
	return t.source
}

// Muted reports whether the track is muted.
func (t *Track) Muted() bool {
	return t.muted.Load()
}

// SetMuted updates the muted flag.
func (t *Track) SetMuted(muted bool) {
	t.muted.Store(muted)
}

// Publication describes how a track is published to a session: its server-side
// identifier, kind, and the encryption scheme negotiated for it. This is the
// ownership info the e2ee manager consumes on track lifecycle notifications.
type Publication struct {
	SID        string
	Name       string
	Kind       TrackKind
	Encryption Encryption
}

// Publish builds the publication record for this track.
func (t *Track) Publish(enc Encryption) Publication {
	return Publication{
		SID:        t.SID,
		Name:       t.Name,
		Kind:       t.Kind,
		Encryption: enc,
	}
}

// newTrackSID generates a track identifier in the server's TR_ format.
func newTrackSID() string {
	return "TR_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
