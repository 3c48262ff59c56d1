package schedule

import (
	"strings"
	"testing"
)

func TestBuildIndexPreservesLengthAndOrder(t *testing.T) {
	sessions := []Session{
		{ID: "1", Title: "Profiling Go"},
		{ID: "2", Title: "Generics in Practice"},
		{ID: "3", Title: "Fuzzing"},
	}

	indexed := BuildIndex(sessions)
	if len(indexed) != len(sessions) {
		t.Fatalf("Expected %d indexed sessions, got %d", len(sessions), len(indexed))
	}
	for i := range sessions {
		if indexed[i].ID != sessions[i].ID {
			t.Errorf("Index %d: expected id %s, got %s", i, sessions[i].ID, indexed[i].ID)
		}
		if !strings.Contains(indexed[i].SearchText, strings.ToLower(sessions[i].Title)) {
			t.Errorf("SearchText %q missing lower-cased title", indexed[i].SearchText)
		}
	}
}

func TestBuildIndexSearchText(t *testing.T) {
	sessions := []Session{{
		ID:          "1",
		Title:       "Advanced GC Tuning",
		Description: "Heap Internals",
		Track:       "Runtime",
		Speakers:    []Speaker{{Name: "Rob"}, {Name: "Ken"}},
	}}

	indexed := BuildIndex(sessions)
	text := indexed[0].SearchText
	for _, want := range []string{"advanced gc tuning", "heap internals", "runtime", "rob", "ken"} {
		if !strings.Contains(text, want) {
			t.Errorf("SearchText %q missing %q", text, want)
		}
	}
	if text != strings.ToLower(text) {
		t.Error("SearchText must be fully lower-cased")
	}
}

func TestBuildIndexEmptyOptionalFields(t *testing.T) {
	indexed := BuildIndex([]Session{{ID: "1", Title: "T"}})
	if indexed[0].SearchText == "" {
		t.Error("SearchText should still contain the title")
	}
}
