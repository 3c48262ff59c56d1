package schedule

import (
	"testing"
)

func TestDiffFirstLoadSuppressed(t *testing.T) {
	stats, ok := Diff(nil, []Session{{ID: "1"}, {ID: "2"}})
	if ok {
		t.Error("First load must not produce stats")
	}
	if stats != (UpdateStats{}) {
		t.Errorf("Expected zero stats, got %+v", stats)
	}
}

func TestDiffDisjointDatasets(t *testing.T) {
	old := []Session{{ID: "1"}, {ID: "2"}}
	new := []Session{{ID: "3"}, {ID: "4"}, {ID: "5"}}

	stats, ok := Diff(old, new)
	if !ok {
		t.Fatal("Expected stats")
	}
	if stats.Added != 3 || stats.Modified != 0 || stats.Unchanged != 0 {
		t.Errorf("Expected 3 added, got %+v", stats)
	}
	if stats.Removed != 2 {
		t.Errorf("Expected 2 removed, got %d", stats.Removed)
	}
}

func TestDiffIdenticalDatasets(t *testing.T) {
	sessions := []Session{
		{ID: "1", Title: "A", SlotStart: ts("2026-09-07T09:00:00Z")},
		{ID: "2", Title: "B", SlotStart: ts("2026-09-07T10:00:00Z")},
	}

	stats, ok := Diff(sessions, sessions)
	if !ok {
		t.Fatal("Expected stats")
	}
	if stats.Unchanged != 2 || stats.Added != 0 || stats.Modified != 0 || stats.Removed != 0 {
		t.Errorf("Expected 2 unchanged, got %+v", stats)
	}
	if stats.Changed() {
		t.Error("Identical datasets should not report a change")
	}
}

func TestDiffModifiedAndAdded(t *testing.T) {
	a1 := Session{ID: "A", Title: "Talk", Description: "v1",
		SlotStart: ts("2026-09-07T09:00:00Z"), SlotEnd: ts("2026-09-07T10:00:00Z")}
	a2 := a1
	a2.Description = "v2"
	d := Session{ID: "D", Title: "New Talk",
		SlotStart: ts("2026-09-07T11:00:00Z"), SlotEnd: ts("2026-09-07T12:00:00Z")}

	stats, ok := Diff([]Session{a1}, []Session{a2, d})
	if !ok {
		t.Fatal("Expected stats")
	}
	if stats.Added != 1 || stats.Modified != 1 || stats.Unchanged != 0 || stats.Removed != 0 {
		t.Errorf("Expected {added:1 modified:1}, got %+v", stats)
	}
	if !stats.Changed() {
		t.Error("Expected a reported change")
	}
}

func TestDiffSpeakerReorderIsModified(t *testing.T) {
	old := []Session{{ID: "1", Speakers: []Speaker{{Name: "Ada"}, {Name: "Grace"}},
		SlotStart: ts("2026-09-07T09:00:00Z")}}
	new := []Session{{ID: "1", Speakers: []Speaker{{Name: "Grace"}, {Name: "Ada"}},
		SlotStart: ts("2026-09-07T09:00:00Z")}}

	stats, _ := Diff(old, new)
	if stats.Modified != 1 {
		t.Errorf("Speaker reorder should classify as modified, got %+v", stats)
	}
}
