package fetch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFileWatcherDetectsWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schedule.json")
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0600))

	fw, err := NewFileWatcher(path)
	require.NoError(t, err)
	defer fw.Close()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(samplePayload), 0600))

	select {
	case <-fw.ReloadChannel():
		// Success
	case <-time.After(5 * time.Second):
		t.Fatal("Expected reload signal but got timeout")
	}
}

func TestFileWatcherIgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schedule.json")
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0600))

	fw, err := NewFileWatcher(path)
	require.NoError(t, err)
	defer fw.Close()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0600))

	select {
	case <-fw.ReloadChannel():
		t.Fatal("Sibling file changes must not trigger a reload")
	case <-time.After(300 * time.Millisecond):
		// Success
	}
}
