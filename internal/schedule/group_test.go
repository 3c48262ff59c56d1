package schedule

import (
	"testing"
	"time"
)

func TestGroupBucketsByDay(t *testing.T) {
	sessions := []Session{
		{ID: "tue", SlotStart: ts("2026-09-08T09:00:00Z"), SlotEnd: ts("2026-09-08T10:00:00Z")},
		{ID: "mon-late", SlotStart: ts("2026-09-07T15:00:00Z"), SlotEnd: ts("2026-09-07T16:00:00Z")},
		{ID: "mon-early", SlotStart: ts("2026-09-07T09:00:00Z"), SlotEnd: ts("2026-09-07T10:00:00Z")},
	}

	grouped := Group(sessions, ts("2026-09-01T00:00:00Z"), time.UTC)
	if len(grouped.Days) != 2 {
		t.Fatalf("Expected 2 day buckets, got %d", len(grouped.Days))
	}
	if grouped.Days[0].Label != "Mon Sep 7" {
		t.Errorf("Expected Monday first, got %s", grouped.Days[0].Label)
	}
	if grouped.Days[1].Label != "Tue Sep 8" {
		t.Errorf("Expected Tuesday second, got %s", grouped.Days[1].Label)
	}
	mon := grouped.Days[0].Sessions
	if mon[0].ID != "mon-early" || mon[1].ID != "mon-late" {
		t.Error("Monday bucket not sorted by start time")
	}
}

func TestGroupIntraBucketOrdering(t *testing.T) {
	sessions := []Session{
		{ID: "c", SlotStart: ts("2026-09-07T12:00:00Z")},
		{ID: "a", SlotStart: ts("2026-09-07T09:00:00Z")},
		{ID: "b", SlotStart: ts("2026-09-07T10:00:00Z")},
	}

	grouped := Group(sessions, time.Time{}, time.UTC)
	bucket := grouped.Days[0].Sessions
	for i := 1; i < len(bucket); i++ {
		if bucket[i-1].SlotStart.After(bucket[i].SlotStart) {
			t.Errorf("Bucket out of order at %d: %s after %s", i, bucket[i-1].ID, bucket[i].ID)
		}
	}
}

func TestGroupStableOnEqualStarts(t *testing.T) {
	start := ts("2026-09-07T09:00:00Z")
	sessions := []Session{
		{ID: "first", SlotStart: start},
		{ID: "second", SlotStart: start},
		{ID: "third", SlotStart: start},
	}

	grouped := Group(sessions, time.Time{}, time.UTC)
	bucket := grouped.Days[0].Sessions
	if bucket[0].ID != "first" || bucket[1].ID != "second" || bucket[2].ID != "third" {
		t.Error("Equal starts must retain input order")
	}
}

func TestGroupLiveFlag(t *testing.T) {
	sessions := []Session{
		{ID: "past", SlotStart: ts("2026-09-07T08:00:00Z"), SlotEnd: ts("2026-09-07T09:00:00Z")},
		{ID: "live", SlotStart: ts("2026-09-07T10:00:00Z"), SlotEnd: ts("2026-09-07T11:00:00Z")},
		{ID: "future", SlotStart: ts("2026-09-07T14:00:00Z"), SlotEnd: ts("2026-09-07T15:00:00Z")},
	}

	if !Group(sessions, ts("2026-09-07T10:30:00Z"), time.UTC).HasLive {
		t.Error("Expected a live session at 10:30")
	}
	if Group(sessions, ts("2026-09-07T09:30:00Z"), time.UTC).HasLive {
		t.Error("No session is live at 09:30")
	}
	if Group(sessions[:1], ts("2026-09-07T10:30:00Z"), time.UTC).HasLive {
		t.Error("Past-only list should not be live")
	}
}

func TestDayLabelRespectsLocation(t *testing.T) {
	// 23:30 UTC Monday is already Tuesday in UTC+2
	instant := ts("2026-09-07T23:30:00Z")
	utcLabel := DayLabel(instant, time.UTC)
	cestLabel := DayLabel(instant, time.FixedZone("CEST", 2*3600))

	if utcLabel != "Mon Sep 7" {
		t.Errorf("Expected Mon Sep 7 in UTC, got %s", utcLabel)
	}
	if cestLabel != "Tue Sep 8" {
		t.Errorf("Expected Tue Sep 8 in UTC+2, got %s", cestLabel)
	}
}

func TestGroupEmptyInput(t *testing.T) {
	grouped := Group(nil, time.Now(), time.UTC)
	if len(grouped.Days) != 0 || grouped.HasLive {
		t.Errorf("Empty input should group to nothing, got %+v", grouped)
	}
}
