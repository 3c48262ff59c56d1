package schedule

import (
	"strings"
	"time"
)

// FilterAll is the pass-through value for the day/track/room selectors.
const FilterAll = "all"

// FilterState holds the active filter selections. Created with all-default
// values at startup, mutated only by explicit user actions, never persisted.
type FilterState struct {
	SearchTerm string
	Day        string
	Track      string
	Room       string
}

// NewFilterState returns the identity filter.
func NewFilterState() FilterState {
	return FilterState{Day: FilterAll, Track: FilterAll, Room: FilterAll}
}

// IsDefault reports whether every selector is at its pass-through value.
func (f FilterState) IsDefault() bool {
	return f.SearchTerm == "" && f.Day == FilterAll && f.Track == FilterAll && f.Room == FilterAll
}

// ApplyFilters narrows the indexed sessions through the predicates in fixed
// order: search term, day, track, room. Each stage only sees the survivors
// of the previous one and the whole pipeline stops early once the set is
// empty. Relative input order is preserved.
func ApplyFilters(indexed []IndexedSession, state FilterState, loc *time.Location) []Session {
	survivors := indexed

	if term := strings.ToLower(state.SearchTerm); term != "" {
		survivors = narrow(survivors, func(s *IndexedSession) bool {
			return strings.Contains(s.SearchText, term)
		})
	}
	if state.Day != FilterAll && len(survivors) > 0 {
		survivors = narrow(survivors, func(s *IndexedSession) bool {
			return DayLabel(s.SlotStart, loc) == state.Day
		})
	}
	if state.Track != FilterAll && len(survivors) > 0 {
		survivors = narrow(survivors, func(s *IndexedSession) bool {
			return s.Track == state.Track
		})
	}
	if state.Room != FilterAll && len(survivors) > 0 {
		survivors = narrow(survivors, func(s *IndexedSession) bool {
			return s.RoomName() == state.Room
		})
	}

	out := make([]Session, len(survivors))
	for i := range survivors {
		out[i] = survivors[i].Session
	}
	return out
}

func narrow(in []IndexedSession, keep func(*IndexedSession) bool) []IndexedSession {
	out := in[:0:0]
	for i := range in {
		if keep(&in[i]) {
			out = append(out, in[i])
		}
	}
	return out
}
