package presences

import (
	"sort"
	"time"

	"github.com/fabriq/collab/data/events"
	"github.com/fabriq/collab/data/structures"
)

// ApplyEditing merges one editing event into the store. Events from other
// projects, from the local user, or failing validation are dropped. A nil
// Element removes the user's record; anything else replaces it. An event
// older than the record it would replace is ignored.
func (s *inst) ApplyEditing(p events.EditingPayload) {
	if err := p.Validate(); err != nil {
		s.dropped()

		return
	}

	if p.ProjectID != s.opt.ProjectID || p.UserID == s.opt.LocalUserID {
		s.dropped()

		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.editors[p.UserID]; ok && p.Timestamp.Before(cur.Timestamp) {
		s.dropped()

		return
	}

	if p.Element == nil {
		delete(s.editors, p.UserID)
	} else {
		s.editors[p.UserID] = structures.EditingUser{
			UserID:    p.UserID,
			UserName:  p.UserName,
			Element:   *p.Element,
			Timestamp: p.Timestamp,
		}
	}

	s.applied()
}

// ApplyViewing merges one viewing event into the store. Entirely inert when
// viewer tracking is disabled.
func (s *inst) ApplyViewing(p events.ViewingPayload) {
	if !s.opt.ShowViewers {
		return
	}

	if err := p.Validate(); err != nil {
		s.dropped()

		return
	}

	if p.ProjectID != s.opt.ProjectID || p.UserID == s.opt.LocalUserID {
		s.dropped()

		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.viewers[p.UserID]; ok && p.Timestamp.Before(cur.Timestamp) {
		s.dropped()

		return
	}

	s.viewers[p.UserID] = structures.ViewingUser{
		UserID:       p.UserID,
		UserName:     p.UserName,
		ViewLocation: p.ViewLocation,
		Timestamp:    p.Timestamp,
	}

	s.applied()
}

// SweepStale evicts every record older than the staleness window relative to
// now, from both maps, and returns how many were removed.
func (s *inst) SweepStale(now time.Time) int {
	cutoff := now.Add(-StalenessWindow)

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0

	for id, u := range s.editors {
		if u.Timestamp.Before(cutoff) {
			delete(s.editors, id)

			n++
		}
	}

	for id, u := range s.viewers {
		if u.Timestamp.Before(cutoff) {
			delete(s.viewers, id)

			n++
		}
	}

	s.evicted(n)

	return n
}

func (s *inst) QueryEditors(element string) []structures.EditingUser {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []structures.EditingUser

	for _, u := range s.editors {
		if u.Element == element {
			result = append(result, u)
		}
	}

	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })

	return result
}

func (s *inst) QueryViewers(location string) []structures.ViewingUser {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []structures.ViewingUser

	for _, u := range s.viewers {
		if u.ViewLocation == location {
			result = append(result, u)
		}
	}

	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })

	return result
}
