package structures

import (
	"time"
)

type PresenceKind uint8

const (
	PresenceKindEditing PresenceKind = iota + 1
	PresenceKindViewing
)

func (k PresenceKind) String() string {
	switch k {
	case PresenceKindEditing:
		return "EDITING"
	case PresenceKindViewing:
		return "VIEWING"
	default:
		return "UNKNOWN"
	}
}

// EditingUser is a remote collaborator currently editing an element. The
// presence store keeps at most one of these per user.
type EditingUser struct {
	UserID    string
	UserName  string
	Element   string
	Timestamp time.Time
}

// ViewingUser is a remote collaborator currently looking at a location.
type ViewingUser struct {
	UserID       string
	UserName     string
	ViewLocation string
	Timestamp    time.Time
}
