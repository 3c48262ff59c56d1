package statedb

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestDB(t *testing.T) *StateDB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "state.db")
	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := db.Migrate(); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenCloseReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "state.db")

	db1, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := db1.Migrate(); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if err := db1.SaveBookmarks([]string{"a"}); err != nil {
		t.Fatalf("SaveBookmarks: %v", err)
	}
	if err := db1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db2, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Reopen: %v", err)
	}
	defer db2.Close()
	if got := db2.LoadBookmarks(); len(got) != 1 || got[0] != "a" {
		t.Errorf("Expected [a] after reopen, got %v", got)
	}
}

func TestBookmarksRoundTrip(t *testing.T) {
	db := newTestDB(t)

	want := []string{"session-3", "session-1", "session-2"}
	if err := db.SaveBookmarks(want); err != nil {
		t.Fatalf("SaveBookmarks: %v", err)
	}

	got := db.LoadBookmarks()
	if len(got) != len(want) {
		t.Fatalf("Expected %d bookmarks, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Bookmark %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestSaveBookmarksReplacesWholeSet(t *testing.T) {
	db := newTestDB(t)

	if err := db.SaveBookmarks([]string{"x", "y", "z"}); err != nil {
		t.Fatalf("SaveBookmarks: %v", err)
	}
	if err := db.SaveBookmarks([]string{"y"}); err != nil {
		t.Fatalf("SaveBookmarks: %v", err)
	}

	got := db.LoadBookmarks()
	if len(got) != 1 || got[0] != "y" {
		t.Errorf("Expected [y], got %v", got)
	}
}

func TestLoadBookmarksEmptyDB(t *testing.T) {
	db := newTestDB(t)
	if got := db.LoadBookmarks(); len(got) != 0 {
		t.Errorf("Fresh DB should have no bookmarks, got %v", got)
	}
}

func TestSaveBookmarksTouchesLastModified(t *testing.T) {
	db := newTestDB(t)

	before, err := db.LastModified()
	if err != nil {
		t.Fatalf("LastModified: %v", err)
	}
	time.Sleep(time.Millisecond)
	if err := db.SaveBookmarks([]string{"a"}); err != nil {
		t.Fatalf("SaveBookmarks: %v", err)
	}
	after, err := db.LastModified()
	if err != nil {
		t.Fatalf("LastModified: %v", err)
	}
	if after <= before {
		t.Error("SaveBookmarks should advance last_modified")
	}
}

func TestScheduleCacheRoundTrip(t *testing.T) {
	db := newTestDB(t)

	payload := []byte(`[{"id":"1"}]`)
	if err := db.SaveScheduleCache(payload, `W/"abc"`); err != nil {
		t.Fatalf("SaveScheduleCache: %v", err)
	}

	got, etag, fetchedAt, ok := db.LoadScheduleCache()
	if !ok {
		t.Fatal("Expected cached payload")
	}
	if string(got) != string(payload) {
		t.Errorf("Payload mismatch: %s", got)
	}
	if etag != `W/"abc"` {
		t.Errorf("ETag mismatch: %s", etag)
	}
	if fetchedAt.IsZero() {
		t.Error("Expected a fetch timestamp")
	}
}

func TestLoadScheduleCacheMissing(t *testing.T) {
	db := newTestDB(t)
	if _, _, _, ok := db.LoadScheduleCache(); ok {
		t.Error("Fresh DB should have no schedule cache")
	}
}

func TestMetaRoundTrip(t *testing.T) {
	db := newTestDB(t)

	if v, err := db.GetMeta("missing"); err != nil || v != "" {
		t.Errorf("Missing key should yield empty, got %q err %v", v, err)
	}
	if err := db.SetMeta("k", "v"); err != nil {
		t.Fatalf("SetMeta: %v", err)
	}
	if v, _ := db.GetMeta("k"); v != "v" {
		t.Errorf("Expected v, got %q", v)
	}
}

func TestTouchAdvances(t *testing.T) {
	db := newTestDB(t)

	if err := db.Touch(); err != nil {
		t.Fatalf("Touch: %v", err)
	}
	first, _ := db.LastModified()
	time.Sleep(time.Millisecond)
	if err := db.Touch(); err != nil {
		t.Fatalf("Touch: %v", err)
	}
	second, _ := db.LastModified()
	if second <= first {
		t.Error("Touch should advance the stamp")
	}
}
