package registry

import (
	stderrors "errors"
	"sync"
	"testing"

	berrors "github.com/mosaicrtc/bridge/errors"
)

func TestRegistry_Basic(t *testing.T) {
	reg := New()

	h := reg.Insert("payload")
	if h == InvalidHandle {
		t.Fatal("Expected non-zero handle")
	}

	val, ok := reg.Get(h)
	if !ok {
		t.Fatal("Get failed")
	}
	if val != "payload" {
		t.Fatalf("Expected 'payload', got %v", val)
	}

	if err := reg.Release(h); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	if reg.Len() != 0 {
		t.Fatal("Expected Len() == 0 after Release")
	}
}

func TestRegistry_HandlesNeverReused(t *testing.T) {
	reg := New()

	seen := make(map[Handle]bool)
	for i := 0; i < 1000; i++ {
		h := reg.Insert(i)
		if seen[h] {
			t.Fatalf("handle %d issued twice", h)
		}
		seen[h] = true

		// Release immediately; the next handle must still be fresh.
		if err := reg.Release(h); err != nil {
			t.Fatalf("Release failed: %v", err)
		}
	}
}

func TestRegistry_AllocateConcurrent(t *testing.T) {
	reg := New()

	const workers = 8
	const perWorker = 500

	var mu sync.Mutex
	seen := make(map[Handle]bool)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]Handle, 0, perWorker)
			for j := 0; j < perWorker; j++ {
				local = append(local, reg.Allocate())
			}
			mu.Lock()
			defer mu.Unlock()
			for _, h := range local {
				if seen[h] {
					t.Errorf("handle %d issued twice", h)
				}
				seen[h] = true
			}
		}()
	}
	wg.Wait()

	if len(seen) != workers*perWorker {
		t.Fatalf("expected %d distinct handles, got %d", workers*perWorker, len(seen))
	}
}

func TestRegistry_RetrieveAfterRelease(t *testing.T) {
	reg := New()

	h := reg.Insert("gone soon")
	if err := reg.Release(h); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	_, err := Retrieve[string](reg, h)
	if !stderrors.Is(err, &berrors.Error{Phase: berrors.PhaseRegistry, Kind: berrors.KindInvalidHandle}) {
		t.Fatalf("expected invalid_handle, got %v", err)
	}
}

func TestRegistry_RetrieveTyped(t *testing.T) {
	reg := New()

	h := reg.Insert("a string")

	s, err := Retrieve[string](reg, h)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if s != "a string" {
		t.Fatalf("Expected 'a string', got %q", s)
	}

	_, err = Retrieve[int](reg, h)
	if !stderrors.Is(err, &berrors.Error{Phase: berrors.PhaseRegistry, Kind: berrors.KindTypeMismatch}) {
		t.Fatalf("expected type_mismatch, got %v", err)
	}
}

func TestRegistry_StoreDuplicate(t *testing.T) {
	reg := New()

	h := reg.Allocate()
	if err := reg.Store(h, "first"); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	err := reg.Store(h, "second")
	if !stderrors.Is(err, &berrors.Error{Phase: berrors.PhaseRegistry, Kind: berrors.KindDuplicateHandle}) {
		t.Fatalf("expected duplicate_handle, got %v", err)
	}

	// The original value is untouched.
	val, _ := reg.Get(h)
	if val != "first" {
		t.Fatalf("Expected 'first', got %v", val)
	}
}

func TestRegistry_ReleaseInvalid(t *testing.T) {
	reg := New()

	err := reg.Release(Handle(12345))
	if !stderrors.Is(err, &berrors.Error{Phase: berrors.PhaseRegistry, Kind: berrors.KindInvalidHandle}) {
		t.Fatalf("expected invalid_handle, got %v", err)
	}

	if err := reg.Release(InvalidHandle); err == nil {
		t.Fatal("expected error releasing handle 0")
	}
}

type dropCounter struct {
	mu    sync.Mutex
	count int
}

func (d *dropCounter) Drop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.count++
}

func (d *dropCounter) drops() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.count
}

func TestRegistry_DropperOnRelease(t *testing.T) {
	reg := New()
	d := &dropCounter{}

	h := reg.Insert(d)
	if err := reg.Release(h); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	if d.drops() != 1 {
		t.Fatalf("Expected Drop() called once, called %d times", d.drops())
	}
}

func TestRegistry_ClearRunsDroppers(t *testing.T) {
	reg := New()

	drops := []*dropCounter{{}, {}, {}}
	for _, d := range drops {
		reg.Insert(d)
	}

	reg.Clear()

	if reg.Len() != 0 {
		t.Fatal("Expected empty registry after Clear")
	}
	for i, d := range drops {
		if d.drops() != 1 {
			t.Errorf("dropper %d: Drop() called %d times", i, d.drops())
		}
	}
}

func TestRegistry_Close(t *testing.T) {
	reg := New()
	d := &dropCounter{}
	reg.Insert(d)

	if err := reg.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if d.drops() != 1 {
		t.Fatal("Expected Drop() on Close")
	}

	// Store refuses after Close; Insert degrades to InvalidHandle.
	if h := reg.Insert("late"); h != InvalidHandle {
		t.Fatal("Expected Insert to fail after Close")
	}

	// Close is idempotent.
	if err := reg.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
}

type testObserver struct {
	mu     sync.Mutex
	events []Event
}

func (o *testObserver) OnRegistryEvent(e Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

func (o *testObserver) snapshot() []Event {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Event(nil), o.events...)
}

func TestRegistry_Observer(t *testing.T) {
	reg := New()
	obs := &testObserver{}
	reg.Subscribe(obs)

	h := reg.Insert("watched")
	if err := reg.Release(h); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	events := obs.snapshot()
	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}
	if events[0].Type != EventStored || events[0].Handle != h {
		t.Errorf("first event = %+v, want Stored for %d", events[0], h)
	}
	if events[1].Type != EventReleased || events[1].Handle != h {
		t.Errorf("second event = %+v, want Released for %d", events[1], h)
	}

	reg.Unsubscribe(obs)
	reg.Insert("unwatched")
	if len(obs.snapshot()) != 2 {
		t.Fatal("Should not receive events after Unsubscribe")
	}
}
