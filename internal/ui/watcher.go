package ui

import (
	"log/slog"
	"sync"
	"time"

	"github.com/asheshgoplani/conf-deck/internal/logging"
	"github.com/asheshgoplani/conf-deck/internal/statedb"
)

var watcherLog = logging.ForComponent(logging.CompStorage)

// StorageWatcher monitors the SQLite database for external changes
// by polling the metadata.last_modified timestamp. Polling works on
// every filesystem, unlike inotify-style watchers (9p, NFS, WSL).
type StorageWatcher struct {
	db        *statedb.StateDB
	reloadCh  chan struct{}
	closeCh   chan struct{}
	closeOnce sync.Once

	// lastModified tracks the last seen modification timestamp
	lastModified int64
	modMu        sync.RWMutex

	// Tracks when the TUI saved, to ignore self-triggered changes
	lastSaveTime time.Time
	saveMu       sync.RWMutex
}

// ignoreWindow is the time window after NotifySave during which changes are
// ignored. Must be > pollInterval so the first poll after a self-save always
// falls within the window.
const ignoreWindow = 3 * time.Second

// pollInterval is how often we check for external changes.
const pollInterval = 2 * time.Second

// NewStorageWatcher creates a watcher that polls the SQLite metadata for changes.
func NewStorageWatcher(db *statedb.StateDB) (*StorageWatcher, error) {
	if db == nil {
		return nil, nil
	}

	lastMod, _ := db.LastModified()

	return &StorageWatcher{
		db:           db,
		lastModified: lastMod,
		reloadCh:     make(chan struct{}, 1), // Buffered to prevent blocking
		closeCh:      make(chan struct{}),
	}, nil
}

// Start begins polling for changes (non-blocking).
func (sw *StorageWatcher) Start() {
	go sw.pollLoop()
}

func (sw *StorageWatcher) pollLoop() {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-sw.closeCh:
			return
		case <-ticker.C:
			sw.checkAndNotify()
		}
	}
}

func (sw *StorageWatcher) checkAndNotify() {
	ts, err := sw.db.LastModified()
	if err != nil {
		watcherLog.Debug("watcher_poll_failed", slog.String("error", err.Error()))
		return
	}

	sw.modMu.Lock()
	changed := ts > sw.lastModified
	if changed {
		sw.lastModified = ts
	}
	sw.modMu.Unlock()

	if !changed {
		return
	}

	// Skip changes caused by the TUI's own save.
	sw.saveMu.RLock()
	lastSave := sw.lastSaveTime
	sw.saveMu.RUnlock()

	if time.Since(lastSave) < ignoreWindow {
		watcherLog.Debug("watcher_ignoring_own_save")
		return
	}

	watcherLog.Debug("watcher_db_changed", slog.Int64("timestamp", ts))

	// Non-blocking send (drop if channel full)
	select {
	case sw.reloadCh <- struct{}{}:
	default:
		watcherLog.Debug("watcher_reload_channel_full")
	}
}

// ReloadChannel returns the channel that signals when a reload is needed.
func (sw *StorageWatcher) ReloadChannel() <-chan struct{} {
	return sw.reloadCh
}

// NotifySave should be called by the TUI right before it saves bookmarks.
// This marks the current time so the watcher can ignore the resulting change.
func (sw *StorageWatcher) NotifySave() {
	sw.saveMu.Lock()
	sw.lastSaveTime = time.Now()
	sw.saveMu.Unlock()
}

// TriggerReload sends a reload signal. Used after CLI commands mutate storage.
func (sw *StorageWatcher) TriggerReload() {
	if ts, err := sw.db.LastModified(); err == nil {
		sw.modMu.Lock()
		sw.lastModified = ts
		sw.modMu.Unlock()
	}
	select {
	case sw.reloadCh <- struct{}{}:
		watcherLog.Debug("watcher_trigger_reload")
	default:
		watcherLog.Debug("watcher_trigger_reload_channel_full")
	}
}

// Close stops the watcher. Safe to call multiple times.
func (sw *StorageWatcher) Close() error {
	sw.closeOnce.Do(func() {
		close(sw.closeCh)
	})
	return nil
}
