package transport

import (
	"encoding/json"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/fabriq/collab/data/events"
)

type NatsOptions struct {
	URL  string
	Name string
}

type natsTransport struct {
	nc   *nats.Conn
	seen *cache.Cache

	mu        sync.Mutex
	nextID    uint64
	listeners map[events.EventType]map[uint64]Handler
	subs      map[events.EventType]*nats.Subscription
	closed    bool
}

// NewNats returns a transport backed by a NATS subscription per event type,
// on subject "collab.events.<type>".
func NewNats(opt NatsOptions) (Instance, error) {
	name := opt.Name
	if name == "" {
		name = "collab"
	}

	nc, err := nats.Connect(opt.URL, nats.Name(name))
	if err != nil {
		return nil, err
	}

	return &natsTransport{
		nc:        nc,
		seen:      cache.New(dedupeTTL, dedupeCleanupInterval),
		listeners: map[events.EventType]map[uint64]Handler{},
		subs:      map[events.EventType]*nats.Subscription{},
	}, nil
}

func subjectKey(t events.EventType) string {
	return "collab.events." + string(t)
}

func (n *natsTransport) AddEventListener(t events.EventType, handler Handler) func() {
	if !n.Connected() {
		return func() {}
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return func() {}
	}

	n.nextID++
	id := n.nextID

	if n.listeners[t] == nil {
		n.listeners[t] = map[uint64]Handler{}
	}

	n.listeners[t][id] = handler

	if _, ok := n.subs[t]; !ok {
		sub, err := n.nc.Subscribe(subjectKey(t), func(m *nats.Msg) {
			msg, ok := decodeEnvelope(m.Data)
			if !ok {
				zap.S().Debugw("dropped malformed transport message",
					"subject", m.Subject,
				)

				return
			}

			if _, dup := n.seen.Get(msg.ID); dup {
				return
			}

			n.seen.SetDefault(msg.ID, struct{}{})

			n.dispatch(t, msg)
		})
		if err != nil {
			zap.S().Errorw("failed to subscribe",
				"subject", subjectKey(t),
				"error", err,
			)

			delete(n.listeners[t], id)

			return func() {}
		}

		n.subs[t] = sub
	}

	var once sync.Once

	return func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()

			delete(n.listeners[t], id)
		})
	}
}

func (n *natsTransport) dispatch(t events.EventType, msg events.Message[json.RawMessage]) {
	n.mu.Lock()
	handlers := make([]Handler, 0, len(n.listeners[t]))

	for _, h := range n.listeners[t] {
		handlers = append(handlers, h)
	}
	n.mu.Unlock()

	for _, h := range handlers {
		h(msg)
	}
}

func (n *natsTransport) Connected() bool {
	return n.nc.IsConnected()
}

func (n *natsTransport) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return nil
	}

	n.closed = true

	for t, sub := range n.subs {
		_ = sub.Unsubscribe()
		delete(n.subs, t)
	}

	n.nc.Close()

	return nil
}
