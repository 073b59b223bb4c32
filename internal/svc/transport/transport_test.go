package transport

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/fabriq/collab/data/events"
	"github.com/fabriq/collab/internal/testutil"
)

func TestDecodeEnvelope(t *testing.T) {
	t.Parallel()

	raw := events.NewMessage(events.EditingPayload{
		Type:      events.EventTypeEditing,
		ProjectID: "p1",
		UserID:    "u1",
		Timestamp: time.Now(),
	}).ToRaw()

	b, err := json.Marshal(raw)
	testutil.IsNil(t, err, "envelope marshals")

	msg, ok := decodeEnvelope(b)
	testutil.Assert(t, true, ok, "well-formed envelope accepted")
	testutil.Assert(t, raw.ID, msg.ID, "id preserved")

	_, ok = decodeEnvelope([]byte("{not json"))
	testutil.Assert(t, false, ok, "bad JSON rejected")

	_, ok = decodeEnvelope([]byte(`{"payload":{}}`))
	testutil.Assert(t, false, ok, "missing id rejected")
}

func TestMemoryUnsubscribe(t *testing.T) {
	t.Parallel()

	m := NewMemory()

	var got int
	unsub := m.AddEventListener(events.EventTypeEditing, func(events.Message[json.RawMessage]) {
		got++
	})

	m.Publish(events.EventTypeEditing, events.Message[json.RawMessage]{ID: "m1", Payload: json.RawMessage(`{}`)})
	testutil.Assert(t, 1, got, "handler invoked")

	unsub()
	unsub() // idempotent

	m.Publish(events.EventTypeEditing, events.Message[json.RawMessage]{ID: "m2", Payload: json.RawMessage(`{}`)})
	testutil.Assert(t, 1, got, "no delivery after unsubscribe")
	testutil.Assert(t, 0, m.ListenerCount(events.EventTypeEditing), "listener removed once")
}

func TestMemoryDisconnected(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	m.SetConnected(false)

	unsub := m.AddEventListener(events.EventTypeEditing, func(events.Message[json.RawMessage]) {
		t.Fatal("handler must never register while disconnected")
	})
	unsub()

	testutil.Assert(t, 0, m.ListenerCount(events.EventTypeEditing), "registration skipped")

	m.Publish(events.EventTypeEditing, events.Message[json.RawMessage]{ID: "m1", Payload: json.RawMessage(`{}`)})
}

func TestMemoryClose(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	testutil.IsNil(t, m.Close(), "close succeeds")
	testutil.Assert(t, false, m.Connected(), "closed transport reports disconnected")
}
