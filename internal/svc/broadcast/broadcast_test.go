package broadcast

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/fabriq/collab/data/events"
	"github.com/fabriq/collab/internal/svc/identity"
	"github.com/fabriq/collab/internal/svc/transport"
	"github.com/fabriq/collab/internal/testutil"
)

type fakeSender struct {
	mu      sync.Mutex
	editing []events.EditingPayload
	viewing []events.ViewingPayload
	err     error
	sent    chan struct{}
}

func newFakeSender() *fakeSender {
	return &fakeSender{sent: make(chan struct{}, 16)}
}

func (f *fakeSender) SendEditing(_ context.Context, p events.EditingPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}

	f.editing = append(f.editing, p)
	f.sent <- struct{}{}

	return nil
}

func (f *fakeSender) SendViewing(_ context.Context, p events.ViewingPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}

	f.viewing = append(f.viewing, p)
	f.sent <- struct{}{}

	return nil
}

func (f *fakeSender) editingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.editing)
}

func (f *fakeSender) viewingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.viewing)
}

func (f *fakeSender) wait(t *testing.T) {
	t.Helper()

	select {
	case <-f.sent:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a send")
	}
}

type manualTimer struct {
	mu      sync.Mutex
	stopped bool
	fn      func()
}

func (m *manualTimer) Stop() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	was := m.stopped
	m.stopped = true

	return !was
}

type manualClock struct {
	mu     sync.Mutex
	timers []*manualTimer
}

func (m *manualClock) After(_ time.Duration, fn func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := &manualTimer{fn: fn}
	m.timers = append(m.timers, t)

	return t
}

// Fire runs every pending (not stopped) timer, emulating the debounce delay
// elapsing.
func (m *manualClock) Fire() {
	m.mu.Lock()
	pending := make([]*manualTimer, 0, len(m.timers))

	for _, t := range m.timers {
		t.mu.Lock()
		if !t.stopped {
			t.stopped = true
			pending = append(pending, t)
		}
		t.mu.Unlock()
	}

	m.timers = m.timers[:0]
	m.mu.Unlock()

	for _, t := range pending {
		t.fn()
	}
}

func (m *manualClock) created() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.timers)
}

func signTestToken(t *testing.T, userID, userName string, expires time.Time) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"u":   userID,
		"n":   userName,
		"exp": expires.Unix(),
	})

	s, err := token.SignedString([]byte("test-secret"))
	testutil.IsNil(t, err, "token signed")

	return s
}

func localIdentity(t *testing.T) identity.Instance {
	t.Helper()

	token := signTestToken(t, "u1", "Ann", time.Now().Add(time.Hour))

	id := identity.New(identity.Options{Token: token, Secret: "test-secret"})

	if _, ok := id.Resolve(); !ok {
		t.Fatal("expected a resolvable identity")
	}

	return id
}

func newBroadcaster(t *testing.T, sender Sender, tr transport.Instance, clock *manualClock, id identity.Instance) Instance {
	t.Helper()

	if id == nil {
		id = localIdentity(t)
	}

	b := New(Options{
		ProjectID: "p1",
		Identity:  id,
		Transport: tr,
		Sender:    sender,
		After:     clock.After,
	})
	t.Cleanup(b.Dispose)

	return b
}

func TestDebounceCoalescing(t *testing.T) {
	t.Parallel()

	sender := newFakeSender()
	clock := &manualClock{}
	b := newBroadcaster(t, sender, transport.NewMemory(), clock, nil)

	b.SignalEditing("fieldA", true)
	b.SignalEditing("fieldA", true)
	b.SignalEditing("fieldA", false)

	clock.Fire()
	sender.wait(t)

	testutil.Assert(t, 1, sender.editingCount(), "three rapid signals produce one send")

	sender.mu.Lock()
	last := sender.editing[0]
	sender.mu.Unlock()

	if last.Element != nil {
		t.Fatalf("expected the final stopped state, got element %q", *last.Element)
	}
	testutil.Assert(t, "u1", last.UserID, "local user attributed")
	testutil.Assert(t, "p1", last.ProjectID, "project scoped")
}

func TestDeduplication(t *testing.T) {
	t.Parallel()

	sender := newFakeSender()
	clock := &manualClock{}
	b := newBroadcaster(t, sender, transport.NewMemory(), clock, nil)

	b.SignalEditing("fieldA", true)
	clock.Fire()
	sender.wait(t)

	// Same effective payload again after the window elapsed.
	b.SignalEditing("fieldA", true)
	clock.Fire()

	testutil.Assert(t, 1, sender.editingCount(), "identical consecutive payload suppressed")

	b.SignalEditing("fieldA", false)
	clock.Fire()
	sender.wait(t)

	testutil.Assert(t, 2, sender.editingCount(), "changed payload goes out")
}

func TestElementIndependence(t *testing.T) {
	t.Parallel()

	sender := newFakeSender()
	clock := &manualClock{}
	b := newBroadcaster(t, sender, transport.NewMemory(), clock, nil)

	b.SignalEditing("fieldA", true)
	b.SignalEditing("fieldB", true)

	clock.Fire()
	sender.wait(t)
	sender.wait(t)

	testutil.Assert(t, 2, sender.editingCount(), "elements debounce independently")
}

func TestViewingImmediate(t *testing.T) {
	t.Parallel()

	sender := newFakeSender()
	clock := &manualClock{}
	b := newBroadcaster(t, sender, transport.NewMemory(), clock, nil)

	b.SignalViewing("overview")
	sender.wait(t)

	testutil.Assert(t, 1, sender.viewingCount(), "viewing sent without debounce")
	testutil.Assert(t, 0, clock.created(), "no timer involved")

	b.SignalViewing("overview")

	testutil.Assert(t, 1, sender.viewingCount(), "identical viewing payload suppressed")

	b.SignalViewing("parts")
	sender.wait(t)

	testutil.Assert(t, 2, sender.viewingCount(), "new location goes out")
}

func TestNoIdentityNoop(t *testing.T) {
	t.Parallel()

	sender := newFakeSender()
	clock := &manualClock{}
	id := identity.New(identity.Options{})

	b := newBroadcaster(t, sender, transport.NewMemory(), clock, id)

	b.SignalEditing("fieldA", true)
	b.SignalViewing("overview")
	clock.Fire()

	testutil.Assert(t, 0, sender.editingCount(), "unauthenticated editing signal skipped")
	testutil.Assert(t, 0, sender.viewingCount(), "unauthenticated viewing signal skipped")
}

func TestDisconnectedNoop(t *testing.T) {
	t.Parallel()

	sender := newFakeSender()
	clock := &manualClock{}
	tr := transport.NewMemory()
	tr.SetConnected(false)

	b := newBroadcaster(t, sender, tr, clock, nil)

	b.SignalEditing("fieldA", true)
	b.SignalViewing("overview")
	clock.Fire()

	testutil.Assert(t, 0, sender.editingCount(), "disconnected editing signal skipped")
	testutil.Assert(t, 0, sender.viewingCount(), "disconnected viewing signal skipped")
}

func TestSendFailureDoesNotDedupe(t *testing.T) {
	t.Parallel()

	sender := newFakeSender()
	sender.err = errors.New("backend unavailable")

	clock := &manualClock{}
	b := newBroadcaster(t, sender, transport.NewMemory(), clock, nil)

	b.SignalEditing("fieldA", true)
	clock.Fire()

	testutil.Assert(t, 0, sender.editingCount(), "failed send recorded nothing")

	sender.mu.Lock()
	sender.err = nil
	sender.mu.Unlock()

	// The next natural signal retries the same payload.
	b.SignalEditing("fieldA", true)
	clock.Fire()
	sender.wait(t)

	testutil.Assert(t, 1, sender.editingCount(), "retry after failure is not treated as a duplicate")
}

func TestDisposeCancelsPending(t *testing.T) {
	t.Parallel()

	sender := newFakeSender()
	clock := &manualClock{}
	b := newBroadcaster(t, sender, transport.NewMemory(), clock, nil)

	b.SignalEditing("fieldA", true)
	b.Dispose()

	clock.Fire()

	testutil.Assert(t, 0, sender.editingCount(), "pending signal dropped on dispose")

	b.SignalEditing("fieldB", true)

	testutil.Assert(t, 0, clock.created(), "no new timers after dispose")
}
