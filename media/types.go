package media

// TrackKind classifies a media track.
type TrackKind uint8

const (
	KindUnknown TrackKind = iota
	KindAudio
	KindVideo
)

func (k TrackKind) String() string {
	switch k {
	case KindAudio:
		return "audio"
	case KindVideo:
		return "video"
	default:
		return "unknown"
	}
}

// Encryption is the encryption scheme attached to a track publication.
// EncryptionNone means the track carries cleartext frames and no cryptor is
// ever bound to it.
type Encryption uint8

const (
	EncryptionNone Encryption = iota
	EncryptionGCM
	EncryptionCustom
)

func (e Encryption) String() string {
	switch e {
	case EncryptionGCM:
		return "gcm"
	case EncryptionCustom:
		return "custom"
	default:
		return "none"
	}
}

// BufferType identifies the pixel layout of a video frame buffer.
type BufferType uint8

const (
	BufferNative BufferType = iota
	BufferI420
	BufferI420A
	BufferNV12
)

func (b BufferType) String() string {
	switch b {
	case BufferI420:
		return "i420"
	case BufferI420A:
		return "i420a"
	case BufferNV12:
		return "nv12"
	default:
		return "native"
	}
}
