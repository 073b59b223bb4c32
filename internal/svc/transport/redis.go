package transport

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fabriq/collab/data/events"
)

type RedisOptions struct {
	Client redis.UniversalClient
}

type redisTransport struct {
	ctx    context.Context
	client redis.UniversalClient
	seen   *cache.Cache

	mu        sync.Mutex
	nextID    uint64
	listeners map[events.EventType]map[uint64]Handler
	subs      map[events.EventType]*redis.PubSub
	closed    bool
}

// NewRedis returns a transport backed by redis pub/sub. One subscription is
// held per event type, on channel "collab:events:<type>".
func NewRedis(ctx context.Context, opt RedisOptions) (Instance, error) {
	if err := opt.Client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &redisTransport{
		ctx:       ctx,
		client:    opt.Client,
		seen:      cache.New(dedupeTTL, dedupeCleanupInterval),
		listeners: map[events.EventType]map[uint64]Handler{},
		subs:      map[events.EventType]*redis.PubSub{},
	}, nil
}

func channelKey(t events.EventType) string {
	return "collab:events:" + string(t)
}

func (r *redisTransport) AddEventListener(t events.EventType, handler Handler) func() {
	if !r.Connected() {
		return func() {}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return func() {}
	}

	r.nextID++
	id := r.nextID

	if r.listeners[t] == nil {
		r.listeners[t] = map[uint64]Handler{}
	}

	r.listeners[t][id] = handler

	if _, ok := r.subs[t]; !ok {
		sub := r.client.Subscribe(r.ctx, channelKey(t))
		r.subs[t] = sub

		go r.read(t, sub)
	}

	var once sync.Once

	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()

			delete(r.listeners[t], id)
		})
	}
}

func (r *redisTransport) read(t events.EventType, sub *redis.PubSub) {
	ch := sub.Channel()

	for {
		select {
		case <-r.ctx.Done():
			return
		case m, ok := <-ch:
			if !ok {
				return
			}

			msg, ok := decodeEnvelope([]byte(m.Payload))
			if !ok {
				zap.S().Debugw("dropped malformed transport message",
					"channel", m.Channel,
				)

				continue
			}

			if _, dup := r.seen.Get(msg.ID); dup {
				continue
			}

			r.seen.SetDefault(msg.ID, struct{}{})

			r.dispatch(t, msg)
		}
	}
}

func (r *redisTransport) dispatch(t events.EventType, msg events.Message[json.RawMessage]) {
	r.mu.Lock()
	handlers := make([]Handler, 0, len(r.listeners[t]))

	for _, h := range r.listeners[t] {
		handlers = append(handlers, h)
	}
	r.mu.Unlock()

	for _, h := range handlers {
		h(msg)
	}
}

func (r *redisTransport) Connected() bool {
	ctx, cancel := context.WithTimeout(r.ctx, time.Millisecond*250)
	defer cancel()

	return r.client.Ping(ctx).Err() == nil
}

func (r *redisTransport) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}

	r.closed = true

	var err error

	for t, sub := range r.subs {
		if cerr := sub.Close(); cerr != nil {
			err = cerr
		}

		delete(r.subs, t)
	}

	return err
}
