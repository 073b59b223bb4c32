package events

import (
	"strings"
)

type EventType string

const (
	// Collaboration

	EventTypeAnyCollaboration EventType = "collaboration.*"
	EventTypeEditing          EventType = "collaboration.editing"
	EventTypeViewing          EventType = "collaboration.viewing"
)

func (et EventType) Split() []string {
	a := strings.Split(string(et), ".")
	if len(a) == 0 {
		return []string{"any", "*"}
	}

	return a
}

func (et EventType) ObjectName() string {
	return et.Split()[0]
}
