package media

// VideoFrame is one decoded video frame buffer.
type VideoFrame struct {
	Data        []byte
	TimestampUs int64
	Width       uint32
	Height      uint32
	Rotation    uint16
	Buffer      BufferType
}

// AudioFrame is one block of PCM audio samples.
type AudioFrame struct {
	Data              []byte
	SampleRate        uint32
	NumChannels       uint32
	SamplesPerChannel uint32
}

// Frame is a tagged variant over the supported frame kinds. Exactly one of
// Video or Audio is set, matching Kind.
type Frame struct {
	Video *VideoFrame
	Audio *AudioFrame
	Kind  TrackKind
}

// NewVideoFrame wraps a video buffer as a Frame.
func NewVideoFrame(vf *VideoFrame) Frame {
	return Frame{Kind: KindVideo, Video: vf}
}

// NewAudioFrame wraps an audio buffer as a Frame.
func NewAudioFrame(af *AudioFrame) Frame {
	return Frame{Kind: KindAudio, Audio: af}
}

// Valid reports whether the populated variant matches Kind.
func (f Frame) Valid() bool {
	switch f.Kind {
	case KindVideo:
		return f.Video != nil && f.Audio == nil
	case KindAudio:
		return f.Audio != nil && f.Video == nil
	default:
		return false
	}
}

// Payload returns the owned buffer to store in the registry.
func (f Frame) Payload() any {
	switch f.Kind {
	case KindVideo:
		return f.Video
	case KindAudio:
		return f.Audio
	default:
		return nil
	}
}

// FrameInfo is the descriptive metadata sent alongside a frame handle in an
// event. It is a value copy: events are immutable after construction.
type FrameInfo struct {
	TimestampUs       int64
	Width             uint32
	Height            uint32
	SampleRate        uint32
	NumChannels       uint32
	SamplesPerChannel uint32
	Rotation          uint16
	Buffer            BufferType
	Kind              TrackKind
}

// Info extracts event metadata from the frame.
func (f Frame) Info() FrameInfo {
	info := FrameInfo{Kind: f.Kind}
	switch f.Kind {
	case KindVideo:
		if f.Video != nil {
			info.Width = f.Video.Width
			info.Height = f.Video.Height
			info.Rotation = f.Video.Rotation
			info.Buffer = f.Video.Buffer
			info.TimestampUs = f.Video.TimestampUs
		}
	case KindAudio:
		if f.Audio != nil {
			info.SampleRate = f.Audio.SampleRate
			info.NumChannels = f.Audio.NumChannels
			info.SamplesPerChannel = f.Audio.SamplesPerChannel
		}
	}
	return info
}
