package transport

import (
	"encoding/json"
	"sync"

	"github.com/fabriq/collab/data/events"
)

// Memory is an in-process transport. It backs unit tests and local
// development where no broker is available.
type Memory struct {
	mu        sync.Mutex
	nextID    uint64
	listeners map[events.EventType]map[uint64]Handler
	connected bool
	closed    bool
}

func NewMemory() *Memory {
	return &Memory{
		listeners: map[events.EventType]map[uint64]Handler{},
		connected: true,
	}
}

func (m *Memory) AddEventListener(t events.EventType, handler Handler) func() {
	if !m.Connected() {
		return func() {}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return func() {}
	}

	m.nextID++
	id := m.nextID

	if m.listeners[t] == nil {
		m.listeners[t] = map[uint64]Handler{}
	}

	m.listeners[t][id] = handler

	var once sync.Once

	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()

			delete(m.listeners[t], id)
		})
	}
}

// Publish delivers an envelope to every listener registered for the type,
// synchronously on the caller's goroutine.
func (m *Memory) Publish(t events.EventType, msg events.Message[json.RawMessage]) {
	m.mu.Lock()
	handlers := make([]Handler, 0, len(m.listeners[t]))

	for _, h := range m.listeners[t] {
		handlers = append(handlers, h)
	}
	m.mu.Unlock()

	for _, h := range handlers {
		h(msg)
	}
}

// ListenerCount reports how many handlers are registered for the type.
func (m *Memory) ListenerCount(t events.EventType) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.listeners[t])
}

func (m *Memory) SetConnected(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.connected = v
}

func (m *Memory) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.connected
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.connected = false
	m.listeners = map[events.EventType]map[uint64]Handler{}

	return nil
}
