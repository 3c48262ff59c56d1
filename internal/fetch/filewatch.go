package fetch

import (
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher signals when a local schedule file changes, so the TUI can
// reload it without a manual refresh. The parent directory is watched
// rather than the file itself: editors that rename-and-replace would
// otherwise drop the watch after the first save.
type FileWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	reloadCh chan struct{}
	done     chan struct{}
}

// NewFileWatcher watches the given schedule file.
func NewFileWatcher(path string) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}

	fw := &FileWatcher{
		path:     path,
		watcher:  watcher,
		reloadCh: make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	go fw.loop()
	return fw, nil
}

func (fw *FileWatcher) loop() {
	for {
		select {
		case <-fw.done:
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != filepath.Clean(fw.path) {
				continue
			}
			fetchLog.Debug("schedule_file_changed", slog.String("path", fw.path))
			select {
			case fw.reloadCh <- struct{}{}:
			default: // a reload is already pending
			}
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fetchLog.Warn("file_watch_error", slog.String("error", err.Error()))
		}
	}
}

// ReloadChannel delivers a signal per detected change.
func (fw *FileWatcher) ReloadChannel() <-chan struct{} {
	return fw.reloadCh
}

// Close stops the watcher.
func (fw *FileWatcher) Close() error {
	close(fw.done)
	return fw.watcher.Close()
}
