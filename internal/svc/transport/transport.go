package transport

import (
	"encoding/json"
	"time"

	"github.com/fabriq/collab/data/events"
)

// Handler receives a raw event envelope from the transport.
type Handler func(msg events.Message[json.RawMessage])

// Instance is the subscription contract the presence subsystem needs from a
// real-time event source. Listener registration while disconnected is a
// no-op; the returned unsubscribe is then inert.
type Instance interface {
	AddEventListener(t events.EventType, handler Handler) (unsubscribe func())
	Connected() bool
	Close() error
}

const (
	// dedupeTTL is how long an envelope ID is remembered for redelivery
	// suppression.
	dedupeTTL = time.Minute

	dedupeCleanupInterval = time.Minute * 5
)

func decodeEnvelope(b []byte) (events.Message[json.RawMessage], bool) {
	var msg events.Message[json.RawMessage]

	if err := json.Unmarshal(b, &msg); err != nil {
		return msg, false
	}

	if msg.ID == "" {
		return msg, false
	}

	return msg, true
}
