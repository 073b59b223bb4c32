package events

import (
	"encoding/json"
	"errors"

	"github.com/google/uuid"
)

var ErrMissingField = errors.New("missing required field")

// Message is the transport envelope around an event payload. The ID is
// unique per emission and is used by transports to drop redeliveries.
type Message[D AnyPayload] struct {
	ID      string `json:"id"`
	Payload D      `json:"payload"`
}

func NewMessage[D AnyPayload](data D) Message[D] {
	msg := Message[D]{
		ID:      uuid.NewString(),
		Payload: data,
	}

	return msg
}

func (e Message[D]) ToRaw() Message[json.RawMessage] {
	switch x := any(e.Payload).(type) {
	case json.RawMessage:
		return Message[json.RawMessage]{
			ID:      e.ID,
			Payload: x,
		}
	}

	raw, _ := json.Marshal(e.Payload)

	return Message[json.RawMessage]{
		ID:      e.ID,
		Payload: raw,
	}
}

func ConvertMessage[D AnyPayload](c Message[json.RawMessage]) (Message[D], error) {
	var d D
	err := json.Unmarshal(c.Payload, &d)
	c2 := Message[D]{
		ID:      c.ID,
		Payload: d,
	}

	return c2, err
}
