package events

import (
	"encoding/json"
	"fmt"
	"time"
)

type AnyPayload interface {
	json.RawMessage | EditingPayload | ViewingPayload
}

// EditingPayload announces that a user has begun or stopped editing an
// element within a project. A nil Element means the user stopped editing.
type EditingPayload struct {
	Type      EventType `json:"type"`
	ProjectID string    `json:"project_id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Element   *string   `json:"element"`
	Timestamp time.Time `json:"timestamp"`
}

func (p EditingPayload) Validate() error {
	if p.UserID == "" {
		return fmt.Errorf("%w: user_id", ErrMissingField)
	}

	if p.ProjectID == "" {
		return fmt.Errorf("%w: project_id", ErrMissingField)
	}

	if p.Timestamp.IsZero() {
		return fmt.Errorf("%w: timestamp", ErrMissingField)
	}

	return nil
}

// ViewingPayload announces which screen or element a user is currently
// looking at.
type ViewingPayload struct {
	Type         EventType `json:"type"`
	ProjectID    string    `json:"project_id"`
	UserID       string    `json:"user_id"`
	UserName     string    `json:"user_name"`
	ViewLocation string    `json:"view_location"`
	Timestamp    time.Time `json:"timestamp"`
}

func (p ViewingPayload) Validate() error {
	if p.UserID == "" {
		return fmt.Errorf("%w: user_id", ErrMissingField)
	}

	if p.ProjectID == "" {
		return fmt.Errorf("%w: project_id", ErrMissingField)
	}

	if p.ViewLocation == "" {
		return fmt.Errorf("%w: view_location", ErrMissingField)
	}

	if p.Timestamp.IsZero() {
		return fmt.Errorf("%w: timestamp", ErrMissingField)
	}

	return nil
}
