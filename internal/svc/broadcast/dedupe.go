package broadcast

import (
	"hash/crc32"

	"github.com/fabriq/collab/data/events"
)

var dedupeTable = crc32.MakeTable(2596996162)

// editingHash digests the meaningful content of an editing payload. The
// timestamp is excluded: two signals for the same element state are
// duplicates no matter when they fired.
func editingHash(p events.EditingPayload) uint32 {
	h := crc32.New(dedupeTable)

	h.Write([]byte(p.Type))
	h.Write([]byte{0})
	h.Write([]byte(p.ProjectID))
	h.Write([]byte{0})
	h.Write([]byte(p.UserID))
	h.Write([]byte{0})

	if p.Element != nil {
		h.Write([]byte(*p.Element))
	}

	return h.Sum32()
}

func viewingHash(p events.ViewingPayload) uint32 {
	h := crc32.New(dedupeTable)

	h.Write([]byte(p.Type))
	h.Write([]byte{0})
	h.Write([]byte(p.ProjectID))
	h.Write([]byte{0})
	h.Write([]byte(p.UserID))
	h.Write([]byte{0})
	h.Write([]byte(p.ViewLocation))

	return h.Sum32()
}
