package schedule

import (
	"testing"
	"time"
)

func conferenceFixture() []IndexedSession {
	// A: Mon/Core, B: Mon/Core, C: Tue/Apps — the canonical filter scenario
	return BuildIndex([]Session{
		{ID: "1", Title: "Scheduler Deep Dive", Track: "Core",
			SlotStart: ts("2026-09-07T09:00:00Z"), SlotEnd: ts("2026-09-07T10:00:00Z"),
			SlotRoom: &Room{Name: "Main Hall"}},
		{ID: "2", Title: "Memory Model", Track: "Core",
			SlotStart: ts("2026-09-07T11:00:00Z"), SlotEnd: ts("2026-09-07T12:00:00Z"),
			SlotRoom: &Room{Name: "Side Room"}},
		{ID: "3", Title: "Building CLIs", Track: "Apps",
			SlotStart: ts("2026-09-08T09:00:00Z"), SlotEnd: ts("2026-09-08T10:00:00Z"),
			SlotRoom: &Room{Name: "Main Hall"}},
	})
}

func ids(sessions []Session) []string {
	out := make([]string, len(sessions))
	for i, s := range sessions {
		out[i] = s.ID
	}
	return out
}

func assertIDs(t *testing.T, got []Session, want ...string) {
	t.Helper()
	gotIDs := ids(got)
	if len(gotIDs) != len(want) {
		t.Fatalf("Expected ids %v, got %v", want, gotIDs)
	}
	for i := range want {
		if gotIDs[i] != want[i] {
			t.Fatalf("Expected ids %v, got %v", want, gotIDs)
		}
	}
}

func TestIdentityFilterReturnsInput(t *testing.T) {
	indexed := conferenceFixture()
	got := ApplyFilters(indexed, NewFilterState(), time.UTC)
	assertIDs(t, got, "1", "2", "3")
}

func TestFilterByTrack(t *testing.T) {
	indexed := conferenceFixture()
	state := NewFilterState()
	state.Track = "Core"
	assertIDs(t, ApplyFilters(indexed, state, time.UTC), "1", "2")
}

func TestFilterByDay(t *testing.T) {
	indexed := conferenceFixture()
	state := NewFilterState()
	state.Day = DayLabel(ts("2026-09-08T00:00:00Z"), time.UTC)
	assertIDs(t, ApplyFilters(indexed, state, time.UTC), "3")
}

func TestFilterTrackAndDayDisjoint(t *testing.T) {
	indexed := conferenceFixture()
	state := NewFilterState()
	state.Track = "Core"
	state.Day = DayLabel(ts("2026-09-08T00:00:00Z"), time.UTC)
	if got := ApplyFilters(indexed, state, time.UTC); len(got) != 0 {
		t.Errorf("Core on Tuesday should be empty, got %v", ids(got))
	}
}

func TestFilterByRoom(t *testing.T) {
	indexed := conferenceFixture()
	state := NewFilterState()
	state.Room = "Main Hall"
	assertIDs(t, ApplyFilters(indexed, state, time.UTC), "1", "3")
}

func TestFilterBySearchTerm(t *testing.T) {
	indexed := conferenceFixture()
	state := NewFilterState()
	state.SearchTerm = "SCHEDULER"
	assertIDs(t, ApplyFilters(indexed, state, time.UTC), "1")

	state.SearchTerm = "no such talk"
	if got := ApplyFilters(indexed, state, time.UTC); len(got) != 0 {
		t.Errorf("Expected no matches, got %v", ids(got))
	}
}

func TestFilterStagesCombine(t *testing.T) {
	indexed := conferenceFixture()
	state := NewFilterState()
	state.SearchTerm = "m" // matches all three blobs
	state.Track = "Core"
	state.Room = "Side Room"
	assertIDs(t, ApplyFilters(indexed, state, time.UTC), "2")
}

func TestFilterStateIsDefault(t *testing.T) {
	state := NewFilterState()
	if !state.IsDefault() {
		t.Error("Fresh state should be default")
	}
	state.Day = "Mon Sep 7"
	if state.IsDefault() {
		t.Error("State with day selected is not default")
	}
}
