package broadcast

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/fabriq/collab/data/events"
	"github.com/fabriq/collab/internal/svc/identity"
	"github.com/fabriq/collab/internal/svc/transport"
)

// DebounceDelay is the quiet period after the last editing signal before an
// event actually goes out.
const DebounceDelay = time.Millisecond * 300

// Sender delivers presence signals to the collaboration backend.
type Sender interface {
	SendEditing(ctx context.Context, p events.EditingPayload) error
	SendViewing(ctx context.Context, p events.ViewingPayload) error
}

// Metrics is the subset of collab metrics the broadcaster reports into. May
// be left nil in Options.
type Metrics interface {
	SignalsSent() prometheus.Counter
	SignalsDeduped() prometheus.Counter
}

type Instance interface {
	// SignalEditing records that the local user started or stopped editing
	// an element. Rapid calls for the same element coalesce into one
	// outbound event carrying the most recent state.
	SignalEditing(element string, editing bool)

	// SignalViewing announces the local user's current view location. Sent
	// immediately, no debounce.
	SignalViewing(location string)

	Dispose()
}

// Timer is the subset of *time.Timer the debouncer needs; swapped out in
// tests for deterministic firing.
type Timer interface {
	Stop() bool
}

type Options struct {
	ProjectID string
	Identity  identity.Instance
	Transport transport.Instance
	Sender    Sender
	Metrics   Metrics

	// Delay overrides DebounceDelay when non-zero.
	Delay time.Duration
	// Now overrides time.Now.
	Now func() time.Time
	// After overrides time.AfterFunc.
	After func(d time.Duration, fn func()) Timer
}

type inst struct {
	opt   Options
	delay time.Duration
	now   func() time.Time
	after func(d time.Duration, fn func()) Timer

	mu          sync.Mutex
	pending     map[string]Timer
	lastEditing uint32
	lastViewing uint32
	sentAny     bool
	sentAnyView bool
	disposed    bool
	dispose     sync.Once
}

func New(opt Options) Instance {
	b := &inst{
		opt:     opt,
		delay:   opt.Delay,
		now:     opt.Now,
		after:   opt.After,
		pending: map[string]Timer{},
	}

	if b.delay == 0 {
		b.delay = DebounceDelay
	}

	if b.now == nil {
		b.now = time.Now
	}

	if b.after == nil {
		b.after = func(d time.Duration, fn func()) Timer {
			return time.AfterFunc(d, fn)
		}
	}

	return b
}

func (b *inst) SignalEditing(element string, editing bool) {
	if !b.ready() {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.disposed {
		return
	}

	// Trailing-edge debounce, keyed per element: a newer signal for the
	// same element supersedes the pending one.
	if t, ok := b.pending[element]; ok {
		t.Stop()
	}

	b.pending[element] = b.after(b.delay, func() {
		b.flushEditing(element, editing)
	})
}

func (b *inst) SignalViewing(location string) {
	if !b.ready() {
		return
	}

	user, ok := b.opt.Identity.Resolve()
	if !ok {
		return
	}

	p := events.ViewingPayload{
		Type:         events.EventTypeViewing,
		ProjectID:    b.opt.ProjectID,
		UserID:       user.ID,
		UserName:     user.Name,
		ViewLocation: location,
		Timestamp:    b.now(),
	}

	h := viewingHash(p)

	b.mu.Lock()
	dup := b.sentAnyView && h == b.lastViewing
	b.mu.Unlock()

	if dup {
		b.deduped()

		return
	}

	go b.sendViewing(p, h)
}

func (b *inst) flushEditing(element string, editing bool) {
	b.mu.Lock()
	delete(b.pending, element)
	disposed := b.disposed
	b.mu.Unlock()

	if disposed {
		return
	}

	user, ok := b.opt.Identity.Resolve()
	if !ok {
		return
	}

	p := events.EditingPayload{
		Type:      events.EventTypeEditing,
		ProjectID: b.opt.ProjectID,
		UserID:    user.ID,
		UserName:  user.Name,
		Timestamp: b.now(),
	}

	if editing {
		el := element
		p.Element = &el
	}

	h := editingHash(p)

	b.mu.Lock()
	dup := b.sentAny && h == b.lastEditing
	b.mu.Unlock()

	if dup {
		b.deduped()

		return
	}

	b.sendEditing(p, h)
}

// sendEditing is fire-and-forget: failures are logged, never retried, never
// surfaced to the caller. The next focus change tries again.
func (b *inst) sendEditing(p events.EditingPayload, h uint32) {
	if err := b.opt.Sender.SendEditing(context.Background(), p); err != nil {
		zap.S().Errorw("failed to send editing signal",
			"project_id", p.ProjectID,
			"error", err,
		)

		return
	}

	b.mu.Lock()
	b.lastEditing = h
	b.sentAny = true
	b.mu.Unlock()

	b.sent()
}

func (b *inst) sendViewing(p events.ViewingPayload, h uint32) {
	if err := b.opt.Sender.SendViewing(context.Background(), p); err != nil {
		zap.S().Errorw("failed to send viewing signal",
			"project_id", p.ProjectID,
			"error", err,
		)

		return
	}

	b.mu.Lock()
	b.lastViewing = h
	b.sentAnyView = true
	b.mu.Unlock()

	b.sent()
}

// ready reports whether signaling is possible at all: it requires a local
// identity and a connected transport. Anything else is a silent skip, not a
// queue.
func (b *inst) ready() bool {
	if b.opt.Sender == nil {
		return false
	}

	if b.opt.Identity == nil {
		return false
	}

	if _, ok := b.opt.Identity.Resolve(); !ok {
		return false
	}

	if b.opt.Transport != nil && !b.opt.Transport.Connected() {
		return false
	}

	return true
}

func (b *inst) Dispose() {
	b.dispose.Do(func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		b.disposed = true

		for el, t := range b.pending {
			t.Stop()
			delete(b.pending, el)
		}
	})
}

func (b *inst) sent() {
	if b.opt.Metrics != nil {
		b.opt.Metrics.SignalsSent().Inc()
	}
}

func (b *inst) deduped() {
	if b.opt.Metrics != nil {
		b.opt.Metrics.SignalsDeduped().Inc()
	}
}
