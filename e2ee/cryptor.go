package e2ee

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"io"
	"sync"

	"go.uber.org/atomic"

	berrors "github.com/mosaicrtc/bridge/errors"
)

// FrameCryptor is the transform instance bound to one (identity, track SID)
// pair. It encrypts and decrypts frame payloads with AES-GCM using key
// material from its provider. A disabled cryptor passes payloads through
// untouched.
type FrameCryptor struct {
	identity  string
	trackSID  string
	provider  *KeyProvider
	enabled   atomic.Bool
	mu        sync.Mutex
	onState   StateHandler
	lastState State
}

// NewFrameCryptor creates a disabled cryptor for the given binding.
func NewFrameCryptor(identity, trackSID string, provider *KeyProvider) *FrameCryptor {
	return &FrameCryptor{
		identity:  identity,
		trackSID:  trackSID,
		provider:  provider,
		lastState: StateNew,
	}
}

// Identity returns the participant identity this cryptor serves.
func (c *FrameCryptor) Identity() string {
	return c.identity
}

// TrackSID returns the track this cryptor is bound to.
func (c *FrameCryptor) TrackSID() string {
	return c.trackSID
}

// Enabled reports whether the transform is active.
func (c *FrameCryptor) Enabled() bool {
	return c.enabled.Load()
}

// SetEnabled toggles the transform.
func (c *FrameCryptor) SetEnabled(enabled bool) {
	c.enabled.Store(enabled)
}

// OnStateChange registers the single state observer, replacing any prior one.
func (c *FrameCryptor) OnStateChange(h StateHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onState = h
}

// EncryptFrame seals one frame payload. Disabled cryptors pass the payload
// through. The ciphertext carries its nonce as a prefix.
func (c *FrameCryptor) EncryptFrame(plaintext []byte) ([]byte, error) {
	if !c.enabled.Load() {
		return plaintext, nil
	}

	aead, err := c.aead()
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		c.emit(StateInternalError)
		return nil, berrors.Encryption(err)
	}

	out := aead.Seal(nonce, nonce, plaintext, nil)
	c.emit(StateOk)
	return out, nil
}

// DecryptFrame opens one sealed frame payload. Disabled cryptors pass the
// payload through.
func (c *FrameCryptor) DecryptFrame(ciphertext []byte) ([]byte, error) {
	if !c.enabled.Load() {
		return ciphertext, nil
	}

	aead, err := c.aead()
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < aead.NonceSize() {
		c.emit(StateDecryptionFailed)
		return nil, berrors.Decryption(io.ErrUnexpectedEOF)
	}

	nonce, sealed := ciphertext[:aead.NonceSize()], ciphertext[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		c.emit(StateDecryptionFailed)
		return nil, berrors.Decryption(err)
	}

	c.emit(StateOk)
	return plaintext, nil
}

// RatchetKey advances this identity's key material.
func (c *FrameCryptor) RatchetKey() error {
	if _, err := c.provider.RatchetKey(c.identity); err != nil {
		c.emit(StateMissingKey)
		return err
	}
	c.emit(StateKeyRatcheted)
	return nil
}

func (c *FrameCryptor) aead() (cipher.AEAD, error) {
	key, err := c.provider.Key(c.identity)
	if err != nil {
		c.emit(StateMissingKey)
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		c.emit(StateInternalError)
		return nil, berrors.Encryption(err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		c.emit(StateInternalError)
		return nil, berrors.Encryption(err)
	}
	return aead, nil
}

// emit forwards a state transition to the observer. Repeats of the current
// state are suppressed; the handler runs outside the lock.
func (c *FrameCryptor) emit(state State) {
	c.mu.Lock()
	if state == c.lastState {
		c.mu.Unlock()
		return
	}
	c.lastState = state
	handler := c.onState
	c.mu.Unlock()

	if handler != nil {
		handler(c.identity, state)
	}
}
