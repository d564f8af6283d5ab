package e2ee

// State reports the encryption status of one cryptor. Cryptors emit a state
// only when it changes, tagged with the originating participant identity.
type State uint8

const (
	StateNew State = iota
	StateOk
	StateEncryptionFailed
	StateDecryptionFailed
	StateMissingKey
	StateKeyRatcheted
	StateInternalError
)

func (s State) String() string {
	switch s {
	case StateOk:
		return "ok"
	case StateEncryptionFailed:
		return "encryption_failed"
	case StateDecryptionFailed:
		return "decryption_failed"
	case StateMissingKey:
		return "missing_key"
	case StateKeyRatcheted:
		return "key_ratcheted"
	case StateInternalError:
		return "internal_error"
	default:
		return "new"
	}
}

// StateHandler observes per-cryptor state transitions.
type StateHandler func(identity string, state State)
