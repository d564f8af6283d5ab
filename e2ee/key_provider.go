package e2ee

import (
	"crypto/sha256"
	"io"
	"sync"

	"golang.org/x/crypto/hkdf"

	berrors "github.com/mosaicrtc/bridge/errors"
)

// KeySize is the AES-256 key length used by all cryptors.
const KeySize = 32

// KeyProvider holds the key material shared by a session's cryptors: an
// optional shared key plus per-identity overrides, with HKDF-based ratcheting.
type KeyProvider struct {
	mu        sync.RWMutex
	salt      []byte
	sharedKey []byte
	keys      map[string][]byte
}

// NewKeyProvider creates a provider with the given ratchet salt.
func NewKeyProvider(ratchetSalt []byte) *KeyProvider {
	return &KeyProvider{
		salt: append([]byte(nil), ratchetSalt...),
		keys: make(map[string][]byte),
	}
}

// SetSharedKey installs the fallback key used for every identity without a
// per-identity override.
func (p *KeyProvider) SetSharedKey(key []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sharedKey = derive(key, p.salt)
}

// SetKey installs key material for one identity.
func (p *KeyProvider) SetKey(identity string, key []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys[identity] = derive(key, p.salt)
}

// Key returns the current key for an identity, falling back to the shared
// key. Fails with missing_key when neither is set.
func (p *KeyProvider) Key(identity string) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if key, ok := p.keys[identity]; ok {
		return append([]byte(nil), key...), nil
	}
	if p.sharedKey != nil {
		return append([]byte(nil), p.sharedKey...), nil
	}
	return nil, berrors.MissingKey(identity)
}

// RatchetKey advances the identity's key one HKDF step and returns the new
// key. An identity still on the shared key gets a ratcheted private copy.
func (p *KeyProvider) RatchetKey(identity string) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	current, ok := p.keys[identity]
	if !ok {
		if p.sharedKey == nil {
			return nil, berrors.MissingKey(identity)
		}
		current = p.sharedKey
	}

	next := derive(current, p.salt)
	p.keys[identity] = next
	return append([]byte(nil), next...), nil
}

// derive expands secret material into a fixed-size key via HKDF-SHA256.
func derive(secret, salt []byte) []byte {
	key := make([]byte, KeySize)
	kdf := hkdf.New(sha256.New, secret, salt, nil)
	if _, err := io.ReadFull(kdf, key); err != nil {
		// HKDF-SHA256 cannot fail for a 32-byte read.
		panic(err)
	}
	return key
}
