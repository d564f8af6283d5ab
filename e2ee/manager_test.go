package e2ee

import (
	"sync"
	"testing"

	"github.com/mosaicrtc/bridge/media"
)

func testOptions() *Options {
	provider := NewKeyProvider([]byte("salt"))
	provider.SetSharedKey([]byte("session secret"))
	return &Options{KeyProvider: provider, Encryption: media.EncryptionGCM}
}

func encryptedTrack(name string) (*media.Track, media.Publication) {
	track := media.NewVideoTrack(name, media.NewSource(media.KindVideo, 1))
	return track, track.Publish(media.EncryptionGCM)
}

func TestManager_Uninitialized(t *testing.T) {
	m := NewManager(nil, nil)

	if m.Initialized() {
		t.Fatal("nil options must leave manager uninitialized")
	}
	if m.Enabled() {
		t.Fatal("uninitialized manager is never enabled")
	}
	if m.EncryptionKind() != media.EncryptionNone {
		t.Fatal("uninitialized manager reports no encryption")
	}
	if m.KeyProvider() != nil {
		t.Fatal("uninitialized manager has no provider")
	}

	// Lifecycle calls are no-ops, not errors.
	track, pub := encryptedTrack("cam")
	m.OnTrackSubscribed(track, pub, "alice")
	if len(m.FrameCryptors()) != 0 {
		t.Fatal("no binding may be created while uninitialized")
	}
	m.OnTrackUnsubscribed("alice", pub.SID)
	m.Cleanup()
}

func TestManager_Configure(t *testing.T) {
	m := NewManager(nil, nil)
	track, pub := encryptedTrack("cam")

	// Inactive: acquisition creates nothing.
	m.OnTrackSubscribed(track, pub, "alice")
	if len(m.FrameCryptors()) != 0 {
		t.Fatal("no binding while unconfigured")
	}

	m.Configure(testOptions())
	if !m.Initialized() || !m.Enabled() {
		t.Fatal("configuring must activate the subsystem")
	}
	m.OnTrackSubscribed(track, pub, "alice")
	held := m.FrameCryptors()
	if len(held) != 1 {
		t.Fatal("expected a binding once configured")
	}

	// Configuring to nil deactivates and clears bindings.
	m.Configure(nil)
	if m.Initialized() || m.Enabled() {
		t.Fatal("nil configuration must deactivate the subsystem")
	}
	if len(m.FrameCryptors()) != 0 {
		t.Fatal("deactivation must clear bindings")
	}
	for _, c := range held {
		if c.Enabled() {
			t.Fatal("cleared cryptors must be disabled")
		}
	}
}

func TestManager_BindAndRelease(t *testing.T) {
	m := NewManager(testOptions(), nil)
	if !m.Initialized() || !m.Enabled() {
		t.Fatal("manager with options starts initialized and enabled")
	}

	track, pub := encryptedTrack("cam")
	m.OnTrackSubscribed(track, pub, "alice")

	cryptors := m.FrameCryptors()
	if len(cryptors) != 1 {
		t.Fatalf("expected 1 binding, got %d", len(cryptors))
	}
	c := cryptors[BindingKey{Identity: "alice", TrackSID: pub.SID}]
	if c == nil {
		t.Fatal("binding stored under wrong key")
	}
	if !c.Enabled() {
		t.Fatal("cryptor inherits the manager's enabled flag")
	}

	m.OnTrackUnsubscribed("alice", pub.SID)
	if len(m.FrameCryptors()) != 0 {
		t.Fatal("binding must be removed on release")
	}
	if c.Enabled() {
		t.Fatal("removed cryptor must be disabled")
	}

	// A second release is a no-op, not an error.
	m.OnTrackUnsubscribed("alice", pub.SID)
}

func TestManager_SkipsUnencryptedPublication(t *testing.T) {
	m := NewManager(testOptions(), nil)

	track := media.NewVideoTrack("cam", media.NewSource(media.KindVideo, 1))
	m.OnTrackSubscribed(track, track.Publish(media.EncryptionNone), "alice")

	if len(m.FrameCryptors()) != 0 {
		t.Fatal("no binding for an unencrypted publication")
	}
}

func TestManager_LastWriterWins(t *testing.T) {
	m := NewManager(testOptions(), nil)
	track, pub := encryptedTrack("cam")

	m.OnTrackSubscribed(track, pub, "alice")
	first := m.FrameCryptors()[BindingKey{Identity: "alice", TrackSID: pub.SID}]

	m.OnTrackSubscribed(track, pub, "alice")
	cryptors := m.FrameCryptors()
	if len(cryptors) != 1 {
		t.Fatalf("expected 1 binding after rebind, got %d", len(cryptors))
	}
	second := cryptors[BindingKey{Identity: "alice", TrackSID: pub.SID}]
	if second == first {
		t.Fatal("rebind must install a fresh cryptor")
	}
	if first.Enabled() {
		t.Fatal("displaced cryptor must be disabled")
	}
	if !second.Enabled() {
		t.Fatal("winning cryptor must be active")
	}
}

func TestManager_ConcurrentBindSameKey(t *testing.T) {
	m := NewManager(testOptions(), nil)
	track, pub := encryptedTrack("cam")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.OnTrackSubscribed(track, pub, "alice")
		}()
	}
	wg.Wait()

	if got := len(m.FrameCryptors()); got != 1 {
		t.Fatalf("expected exactly 1 binding, got %d", got)
	}
}

func TestManager_DistinctKeysDistinctBindings(t *testing.T) {
	m := NewManager(testOptions(), nil)

	trackA, pubA := encryptedTrack("cam")
	trackB, pubB := encryptedTrack("screen")

	m.OnTrackSubscribed(trackA, pubA, "alice")
	m.OnTrackSubscribed(trackB, pubB, "alice")
	m.OnLocalTrackPublished(trackA, pubA, "bob")

	if got := len(m.FrameCryptors()); got != 3 {
		t.Fatalf("expected 3 bindings for 3 distinct keys, got %d", got)
	}
}

func TestManager_SetEnabled(t *testing.T) {
	m := NewManager(testOptions(), nil)
	track, pub := encryptedTrack("cam")
	m.OnTrackSubscribed(track, pub, "alice")

	c := m.FrameCryptors()[BindingKey{Identity: "alice", TrackSID: pub.SID}]

	// Unchanged value: no propagation. Diverge the cryptor by hand and watch
	// the manager leave it alone.
	c.SetEnabled(false)
	m.SetEnabled(true) // already true
	if c.Enabled() {
		t.Fatal("unchanged SetEnabled must not touch cryptors")
	}

	m.SetEnabled(false)
	if m.Enabled() {
		t.Fatal("Enabled() must follow the flag")
	}
	m.SetEnabled(true)
	if !c.Enabled() {
		t.Fatal("changed SetEnabled must propagate to cryptors")
	}
}

func TestManager_StateForwarding(t *testing.T) {
	m := NewManager(testOptions(), nil)
	track, pub := encryptedTrack("cam")
	m.OnTrackSubscribed(track, pub, "alice")

	var (
		mu    sync.Mutex
		gotID string
		gotSt State
		fired int
		stale int
	)
	m.OnStateChanged(func(identity string, state State) {
		mu.Lock()
		defer mu.Unlock()
		stale++
	})
	// A later registration silently replaces the former observer.
	m.OnStateChanged(func(identity string, state State) {
		mu.Lock()
		defer mu.Unlock()
		gotID, gotSt = identity, state
		fired++
	})

	c := m.FrameCryptors()[BindingKey{Identity: "alice", TrackSID: pub.SID}]
	if _, err := c.EncryptFrame([]byte("payload")); err != nil {
		t.Fatalf("EncryptFrame failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if stale != 0 {
		t.Fatal("replaced observer must not fire")
	}
	if fired != 1 || gotID != "alice" || gotSt != StateOk {
		t.Fatalf("forwarded (%q, %v) x%d, want (alice, ok) x1", gotID, gotSt, fired)
	}
}

func TestManager_Cleanup(t *testing.T) {
	m := NewManager(testOptions(), nil)

	trackA, pubA := encryptedTrack("cam")
	trackB, pubB := encryptedTrack("screen")
	m.OnTrackSubscribed(trackA, pubA, "alice")
	m.OnTrackSubscribed(trackB, pubB, "bob")

	held := m.FrameCryptors()
	m.Cleanup()

	if len(m.FrameCryptors()) != 0 {
		t.Fatal("Cleanup must clear all bindings")
	}
	for k, c := range held {
		if c.Enabled() {
			t.Errorf("cryptor %v still enabled after Cleanup", k)
		}
	}
}
