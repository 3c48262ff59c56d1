package schedule

import (
	"sync"
)

// Store holds the authoritative session list and the bookmark set.
// Single-writer by convention (the engine), but reads are mutex-guarded so
// background fetch completions and CLI subcommands can query safely. A read
// during Replace sees either the fully-old or fully-new list, never a mix.
type Store struct {
	mu        sync.RWMutex
	sessions  []Session
	bookmarks map[string]int // id -> insertion order
	nextOrder int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		bookmarks: make(map[string]int),
	}
}

// Replace atomically swaps the held session list and returns the previous
// one. The diff against a fresh dataset runs on the returned snapshot, so it
// always observes the pre-replace state.
func (s *Store) Replace(sessions []Session) []Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.sessions
	s.sessions = sessions
	return prev
}

// Sessions returns the current session list. The slice header is a copy;
// callers must not mutate the elements.
func (s *Store) Sessions() []Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Session, len(s.sessions))
	copy(out, s.sessions)
	return out
}

// Session looks up a held session by id.
func (s *Store) Session(id string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.sessions {
		if s.sessions[i].ID == id {
			return s.sessions[i], true
		}
	}
	return Session{}, false
}

// Len returns the number of held sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// ToggleBookmark adds id to the bookmark set if absent, removes it if
// present. Returns true if the id is bookmarked after the call. Calling it
// twice with the same id restores the original membership.
func (s *Store) ToggleBookmark(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bookmarks[id]; ok {
		delete(s.bookmarks, id)
		return false
	}
	s.bookmarks[id] = s.nextOrder
	s.nextOrder++
	return true
}

// IsBookmarked reports whether id is in the bookmark set.
func (s *Store) IsBookmarked(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.bookmarks[id]
	return ok
}

// Bookmarks returns the bookmarked ids in insertion order.
func (s *Store) Bookmarks() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.bookmarks))
	for id := range s.bookmarks {
		ids = append(ids, id)
	}
	// Insertion order, not map order
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && s.bookmarks[ids[j-1]] > s.bookmarks[ids[j]]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
	return ids
}

// SetBookmarks replaces the bookmark set, preserving the given order.
// Used to restore persisted bookmarks at startup.
func (s *Store) SetBookmarks(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookmarks = make(map[string]int, len(ids))
	s.nextOrder = 0
	for _, id := range ids {
		if _, ok := s.bookmarks[id]; ok {
			continue
		}
		s.bookmarks[id] = s.nextOrder
		s.nextOrder++
	}
}

// BookmarkedSessions returns the held sessions whose id is bookmarked, in
// session-list order. Active filters are irrelevant here.
func (s *Store) BookmarkedSessions() []Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Session
	for _, sess := range s.sessions {
		if _, ok := s.bookmarks[sess.ID]; ok {
			out = append(out, sess)
		}
	}
	return out
}
