package presences

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/fabriq/collab/data/events"
	"github.com/fabriq/collab/data/structures"
	"github.com/fabriq/collab/internal/svc/transport"
)

const (
	// StalenessWindow is the maximum age of a presence record before the
	// sweep evicts it.
	StalenessWindow = time.Second * 30

	// SweepInterval is how often the store evicts stale records on its own.
	SweepInterval = time.Second * 5
)

type Instance interface {
	ApplyEditing(p events.EditingPayload)
	ApplyViewing(p events.ViewingPayload)
	SweepStale(now time.Time) int
	QueryEditors(element string) []structures.EditingUser
	QueryViewers(location string) []structures.ViewingUser
	Dispose()
}

// Metrics is the subset of collab metrics the store reports into. May be
// left nil in Options.
type Metrics interface {
	PresenceApplied() prometheus.Counter
	PresenceDropped() prometheus.Counter
	PresenceEvicted() prometheus.Counter
}

type Options struct {
	ProjectID   string
	LocalUserID string
	ShowViewers bool
	Transport   transport.Instance
	Metrics     Metrics
}

type inst struct {
	opt Options

	mu      sync.RWMutex
	editors map[string]structures.EditingUser
	viewers map[string]structures.ViewingUser

	ticker  *time.Ticker
	done    chan struct{}
	unsubs  []func()
	dispose sync.Once
}

// New creates a presence store scoped to a single collaboration context. It
// registers transport listeners for both collaboration event types (skipped
// entirely while the transport is disconnected) and starts the sweep ticker.
// The caller owns the store and must call Dispose when the view unmounts.
func New(opt Options) Instance {
	s := &inst{
		opt:     opt,
		editors: map[string]structures.EditingUser{},
		viewers: map[string]structures.ViewingUser{},
		done:    make(chan struct{}),
	}

	if opt.Transport != nil && opt.Transport.Connected() {
		s.unsubs = append(s.unsubs,
			opt.Transport.AddEventListener(events.EventTypeEditing, s.onEditing),
			opt.Transport.AddEventListener(events.EventTypeViewing, s.onViewing),
		)
	}

	s.ticker = time.NewTicker(SweepInterval)

	go func() {
		for {
			select {
			case <-s.done:
				return
			case now := <-s.ticker.C:
				s.SweepStale(now)
			}
		}
	}()

	return s
}

func (s *inst) onEditing(msg events.Message[json.RawMessage]) {
	m, err := events.ConvertMessage[events.EditingPayload](msg)
	if err != nil {
		zap.S().Debugw("dropped unparsable editing event",
			"id", msg.ID,
			"error", err,
		)
		s.dropped()

		return
	}

	s.ApplyEditing(m.Payload)
}

func (s *inst) onViewing(msg events.Message[json.RawMessage]) {
	m, err := events.ConvertMessage[events.ViewingPayload](msg)
	if err != nil {
		zap.S().Debugw("dropped unparsable viewing event",
			"id", msg.ID,
			"error", err,
		)
		s.dropped()

		return
	}

	s.ApplyViewing(m.Payload)
}

// Dispose stops the sweep ticker and unregisters every transport listener.
// Safe to call more than once.
func (s *inst) Dispose() {
	s.dispose.Do(func() {
		close(s.done)
		s.ticker.Stop()

		for _, unsub := range s.unsubs {
			unsub()
		}

		s.unsubs = nil
	})
}

func (s *inst) applied() {
	if s.opt.Metrics != nil {
		s.opt.Metrics.PresenceApplied().Inc()
	}
}

func (s *inst) dropped() {
	if s.opt.Metrics != nil {
		s.opt.Metrics.PresenceDropped().Inc()
	}
}

func (s *inst) evicted(n int) {
	if s.opt.Metrics != nil && n > 0 {
		s.opt.Metrics.PresenceEvicted().Add(float64(n))
	}
}
