package schedule

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Mode selects which source sequence grouping operates on.
type Mode int

const (
	// ModeSchedule groups the filtered result.
	ModeSchedule Mode = iota
	// ModeBookmarks groups the bookmarked subset of all sessions,
	// ignoring active filters.
	ModeBookmarks
)

// Engine owns the session store, the search index, and the filter state,
// and exposes the query/command surface the presentation layer consumes.
// There is no ambient state: everything flows through this object.
//
// Commands are intended to be called from a single goroutine (the TUI event
// loop); internal locking exists so CLI paths and fetch completions can
// read concurrently.
type Engine struct {
	store *Store
	loc   *time.Location

	mu       sync.RWMutex
	indexed  []IndexedSession
	filter   FilterState
	visible  []Session
	stats    UpdateStats
	hasStats bool

	debounce *Debouncer

	// onVisible fires after a debounced recomputation lands, so the UI can
	// repaint. Nil outside the TUI.
	onVisible func()
}

// NewEngine creates an engine grouping days in loc (nil means local time)
// and debouncing filter recomputation by the given window.
func NewEngine(loc *time.Location, debounce time.Duration, clock Clock) *Engine {
	if loc == nil {
		loc = time.Local
	}
	return &Engine{
		store:    NewStore(),
		loc:      loc,
		filter:   NewFilterState(),
		debounce: NewDebouncer(debounce, clock),
	}
}

// Store exposes the underlying session store for bookmark persistence.
func (e *Engine) Store() *Store { return e.store }

// Location returns the injected grouping time zone.
func (e *Engine) Location() *time.Location { return e.loc }

// OnVisibleChanged registers the callback fired after each debounced
// recomputation.
func (e *Engine) OnVisibleChanged(fn func()) {
	e.mu.Lock()
	e.onVisible = fn
	e.mu.Unlock()
}

// ApplyDataset installs a freshly fetched dataset: diff against the held
// snapshot, atomic replace, full index rebuild, immediate filter
// recompute. ok is false on first load, when no diff is produced.
func (e *Engine) ApplyDataset(sessions []Session) (UpdateStats, bool) {
	prev := e.store.Replace(sessions)
	stats, ok := Diff(prev, sessions)

	e.mu.Lock()
	e.indexed = BuildIndex(sessions)
	e.stats = stats
	e.hasStats = ok
	e.visible = ApplyFilters(e.indexed, e.filter, e.loc)
	e.mu.Unlock()

	if ok {
		engineLog.Info("dataset_refreshed",
			slog.Int("added", stats.Added),
			slog.Int("modified", stats.Modified),
			slog.Int("unchanged", stats.Unchanged),
			slog.Int("removed", stats.Removed))
	}
	return stats, ok
}

// Stats returns the result of the last refresh diff; ok is false until a
// second dataset has been applied.
func (e *Engine) Stats() (UpdateStats, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.stats, e.hasStats
}

// Filter returns the current filter selections.
func (e *Engine) Filter() FilterState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.filter
}

// SetSearchTerm updates the search term and schedules a debounced
// recompute.
func (e *Engine) SetSearchTerm(term string) {
	e.updateFilter(func(f *FilterState) { f.SearchTerm = term })
}

// SetDay updates the day selector and schedules a debounced recompute.
func (e *Engine) SetDay(day string) {
	e.updateFilter(func(f *FilterState) { f.Day = day })
}

// SetTrack updates the track selector and schedules a debounced recompute.
func (e *Engine) SetTrack(track string) {
	e.updateFilter(func(f *FilterState) { f.Track = track })
}

// SetRoom updates the room selector and schedules a debounced recompute.
func (e *Engine) SetRoom(room string) {
	e.updateFilter(func(f *FilterState) { f.Room = room })
}

// SetFilter replaces the whole filter state and recomputes immediately,
// bypassing the debouncer. The TUI uses this after coalescing keystrokes
// itself; the debounced setters remain the default path.
func (e *Engine) SetFilter(state FilterState) {
	e.mu.Lock()
	e.filter = state
	e.visible = ApplyFilters(e.indexed, e.filter, e.loc)
	e.mu.Unlock()
	e.debounce.Stop()
}

// ResetFilters restores the identity filter and recomputes immediately.
func (e *Engine) ResetFilters() {
	e.mu.Lock()
	e.filter = NewFilterState()
	e.visible = ApplyFilters(e.indexed, e.filter, e.loc)
	e.mu.Unlock()
	e.debounce.Stop()
}

func (e *Engine) updateFilter(apply func(*FilterState)) {
	e.mu.Lock()
	apply(&e.filter)
	e.mu.Unlock()

	// Coalesce bursts: only the state at the end of the quiet window runs.
	e.debounce.Trigger(e.Recompute)
}

// Recompute runs the filter pipeline with the latest state. Called by the
// debouncer; exported so tests and the refresh path can force a pass.
func (e *Engine) Recompute() {
	e.mu.Lock()
	e.visible = ApplyFilters(e.indexed, e.filter, e.loc)
	cb := e.onVisible
	e.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// Visible returns the filtered session list in source order.
func (e *Engine) Visible() []Session {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Session, len(e.visible))
	copy(out, e.visible)
	return out
}

// Groups buckets the mode's source sequence by day. ModeSchedule groups
// the filtered result; ModeBookmarks groups the bookmarked subset of all
// sessions regardless of filters.
func (e *Engine) Groups(mode Mode, now time.Time) Grouped {
	var src []Session
	switch mode {
	case ModeBookmarks:
		src = e.store.BookmarkedSessions()
	default:
		src = e.Visible()
	}
	return Group(src, now, e.loc)
}

// ToggleBookmark flips bookmark membership for id and returns the new state.
func (e *Engine) ToggleBookmark(id string) bool {
	return e.store.ToggleBookmark(id)
}

// Days returns the distinct day labels of the held dataset in
// chronological order, for the day filter menu.
func (e *Engine) Days() []string {
	sessions := e.store.Sessions()
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].SlotStart.Before(sessions[j].SlotStart)
	})
	var days []string
	seen := make(map[string]struct{})
	for _, s := range sessions {
		label := DayLabel(s.SlotStart, e.loc)
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		days = append(days, label)
	}
	return days
}

// Tracks returns the distinct non-empty track names, sorted.
func (e *Engine) Tracks() []string {
	return e.distinct(func(s *Session) string { return s.Track })
}

// Rooms returns the distinct non-empty room names, sorted.
func (e *Engine) Rooms() []string {
	return e.distinct(func(s *Session) string { return s.RoomName() })
}

func (e *Engine) distinct(field func(*Session) string) []string {
	sessions := e.store.Sessions()
	seen := make(map[string]struct{})
	var out []string
	for i := range sessions {
		v := field(&sessions[i])
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Close releases the engine's timers.
func (e *Engine) Close() {
	e.debounce.Stop()
}
