package e2ee

import (
	"sync"

	"go.uber.org/zap"

	"github.com/mosaicrtc/bridge/media"
)

// Options configures end-to-end encryption for a session. A nil Options on
// the manager means the whole subsystem is inactive.
type Options struct {
	KeyProvider *KeyProvider
	Encryption  media.Encryption
}

// BindingKey identifies one cryptor: at most one binding exists per
// (identity, track SID) pair at any time.
type BindingKey struct {
	Identity string
	TrackSID string
}

// Manager owns the per-(identity, track) cryptors of a session and wires them
// to track lifecycle notifications from the room.
//
// All lifecycle methods are fire-and-forget: when the manager is not
// initialized or a publication carries no encryption, they degrade to no-ops
// rather than propagate errors the room could not correct anyway.
type Manager struct {
	logger   *zap.Logger
	mu       sync.Mutex
	options  *Options
	enabled  bool
	cryptors map[BindingKey]*FrameCryptor
	stateMu  sync.Mutex
	onState  StateHandler
}

// NewManager creates a manager. A nil options deactivates the subsystem:
// Initialized reports false and every lifecycle call is a no-op. When options
// are present, encryption starts enabled.
func NewManager(options *Options, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		logger:   logger,
		options:  options,
		enabled:  options != nil,
		cryptors: make(map[BindingKey]*FrameCryptor),
	}
}

// Configure replaces the manager-wide options. Nil deactivates the whole
// subsystem: Initialized reports false and lifecycle calls become no-ops
// until configured again. Existing bindings are disabled and cleared, as on
// Cleanup.
func (m *Manager) Configure(options *Options) {
	m.mu.Lock()
	m.options = options
	m.enabled = options != nil
	cryptors := m.snapshotLocked()
	m.cryptors = make(map[BindingKey]*FrameCryptor)
	m.mu.Unlock()

	for _, c := range cryptors {
		c.SetEnabled(false)
	}
}

// Initialized reports whether encryption options were configured.
func (m *Manager) Initialized() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.options != nil
}

// Enabled reports whether encryption is active: the global flag only means
// something when the subsystem is initialized.
func (m *Manager) Enabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enabled && m.options != nil
}

// SetEnabled applies the flag to every current cryptor. An unchanged value is
// a no-op, so repeated calls cause no redundant downstream propagation.
func (m *Manager) SetEnabled(enabled bool) {
	m.mu.Lock()
	if m.enabled == enabled {
		m.mu.Unlock()
		return
	}
	m.enabled = enabled
	cryptors := m.snapshotLocked()
	m.mu.Unlock()

	for _, c := range cryptors {
		c.SetEnabled(enabled)
	}
}

// OnStateChanged registers the session's single state observer. A later
// registration silently replaces the former one. All cryptor state changes
// are forwarded through it, tagged with the originating identity.
func (m *Manager) OnStateChanged(h StateHandler) {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	m.onState = h
}

// OnTrackSubscribed binds a cryptor for a newly subscribed remote track.
func (m *Manager) OnTrackSubscribed(track *media.Track, pub media.Publication, identity string) {
	m.bind(identity, pub)
}

// OnTrackUnsubscribed removes the cryptor for a dropped remote track.
func (m *Manager) OnTrackUnsubscribed(identity, trackSID string) {
	m.removeCryptor(identity, trackSID)
}

// OnLocalTrackPublished binds a cryptor for a newly published local track.
func (m *Manager) OnLocalTrackPublished(track *media.Track, pub media.Publication, identity string) {
	m.bind(identity, pub)
}

// OnLocalTrackUnpublished removes the cryptor for an unpublished local track.
func (m *Manager) OnLocalTrackUnpublished(identity, trackSID string) {
	m.removeCryptor(identity, trackSID)
}

// bind creates and installs a cryptor for (identity, pub.SID). A prior
// binding for the same key is displaced silently, last writer wins:
// acquisition and release notifications are serialized per track by the room.
func (m *Manager) bind(identity string, pub media.Publication) {
	if pub.Encryption == media.EncryptionNone {
		return
	}

	m.mu.Lock()
	if m.options == nil {
		m.mu.Unlock()
		return
	}
	provider := m.options.KeyProvider
	enabled := m.enabled
	m.mu.Unlock()

	cryptor := NewFrameCryptor(identity, pub.SID, provider)
	cryptor.SetEnabled(enabled)
	cryptor.OnStateChange(m.forwardState)

	key := BindingKey{Identity: identity, TrackSID: pub.SID}

	m.mu.Lock()
	displaced := m.cryptors[key]
	m.cryptors[key] = cryptor
	m.mu.Unlock()

	if displaced != nil {
		displaced.SetEnabled(false)
	}

	m.logger.Debug("bound frame cryptor",
		zap.String("identity", identity),
		zap.String("track", pub.SID))
}

func (m *Manager) removeCryptor(identity, trackSID string) {
	key := BindingKey{Identity: identity, TrackSID: trackSID}

	m.mu.Lock()
	cryptor, ok := m.cryptors[key]
	delete(m.cryptors, key)
	m.mu.Unlock()

	if !ok {
		return
	}
	cryptor.SetEnabled(false)

	m.logger.Debug("removed frame cryptor",
		zap.String("identity", identity),
		zap.String("track", trackSID))
}

// FrameCryptors returns a copy of the current binding table.
func (m *Manager) FrameCryptors() map[BindingKey]*FrameCryptor {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[BindingKey]*FrameCryptor, len(m.cryptors))
	for k, v := range m.cryptors {
		out[k] = v
	}
	return out
}

// KeyProvider returns the configured provider, or nil when inactive.
func (m *Manager) KeyProvider() *KeyProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.options == nil {
		return nil
	}
	return m.options.KeyProvider
}

// EncryptionKind returns the configured scheme, or EncryptionNone when
// inactive.
func (m *Manager) EncryptionKind() media.Encryption {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.options == nil {
		return media.EncryptionNone
	}
	return m.options.Encryption
}

// Cleanup disables and clears every binding. Called on session teardown.
func (m *Manager) Cleanup() {
	m.mu.Lock()
	cryptors := m.snapshotLocked()
	m.cryptors = make(map[BindingKey]*FrameCryptor)
	m.mu.Unlock()

	for _, c := range cryptors {
		c.SetEnabled(false)
	}
}

func (m *Manager) snapshotLocked() []*FrameCryptor {
	out := make([]*FrameCryptor, 0, len(m.cryptors))
	for _, c := range m.cryptors {
		out = append(out, c)
	}
	return out
}

func (m *Manager) forwardState(identity string, state State) {
	m.stateMu.Lock()
	handler := m.onState
	m.stateMu.Unlock()

	if handler != nil {
		handler(identity, state)
	}
}
