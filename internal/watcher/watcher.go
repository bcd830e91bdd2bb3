// Package watcher translates OS file system events into work-queue
// pushes and direct store deletions (spec.md §4.I). Grounded on
// internal/watcher/hybrid.go's fsnotify wiring and recursive watch
// attachment; the rename handling is a deliberate departure from the
// teacher (see handleEvent).
package watcher

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kestr-dev/kestr/internal/hasher"
	"github.com/kestr-dev/kestr/internal/ignore"
	"github.com/kestr-dev/kestr/internal/queue"
	"github.com/kestr-dev/kestr/internal/scanner"
	"github.com/kestr-dev/kestr/internal/store"
)

// readTimeout bounds each wait on the underlying fsnotify channels so the
// run loop can recheck its stop flag (spec.md §5's 500ms cap).
const readTimeout = 500 * time.Millisecond

// Watcher attaches a recursive fsnotify watch under a root directory and
// feeds the queue/store accordingly.
type Watcher struct {
	fsw    *fsnotify.Watcher
	root   string
	queue  *queue.Queue
	store  *store.Store
	ignore *ignore.Matcher

	mu      sync.Mutex
	stopped bool
	stopCh  chan struct{}
}

// New creates a Watcher rooted at root. It does not start watching until
// Run is called.
func New(root string, q *queue.Queue, s *store.Store, m *ignore.Matcher) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		fsw.Close()
		return nil, err
	}
	return &Watcher{
		fsw:    fsw,
		root:   absRoot,
		queue:  q,
		store:  s,
		ignore: m,
		stopCh: make(chan struct{}),
	}, nil
}

// Run attaches a recursive watch and processes events until Stop is
// called. It blocks and should be run on its own goroutine.
func (w *Watcher) Run() error {
	if err := w.attachRecursive(w.root); err != nil {
		return err
	}

	for {
		select {
		case <-w.stopCh:
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			// Queue-overflow / OS-layer drops are non-fatal: the next full
			// scan repairs any drift (spec.md §4.I reliability note).
			slog.Warn("watcher: OS layer error, continuing", "error", err)
		case <-time.After(readTimeout):
			// Rechecks stopCh on the next loop iteration.
		}
	}
}

// Stop releases the underlying OS watch. Safe to call multiple times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopCh)
	return w.fsw.Close()
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if w.ignore.Check(event.Name) {
		return
	}

	switch {
	case event.Op&fsnotify.Create != 0:
		w.handleCreate(event.Name)
	case event.Op&fsnotify.Write != 0:
		w.pushFile(event.Name)
	case event.Op&fsnotify.Remove != 0:
		w.deleteFile(event.Name)
	case event.Op&fsnotify.Rename != 0:
		// fsnotify reports Rename against the OLD name only; the new
		// name arrives as a separate Create event. Treating Rename as a
		// no-op (as index/coordinator.go's handleEvent historically did,
		// relying on a Create that never carried the deletion) leaves a
		// stale file row behind forever. The correct synthesis is to
		// delete the old path directly here; the Create event for the
		// new path is handled by the case above and pushes it as new
		// work, completing the delete-then-create pair.
		w.deleteFile(event.Name)
	case event.Op&fsnotify.Chmod != 0:
		// Metadata-only change; not a content or presence change.
	}
}

func (w *Watcher) handleCreate(path string) {
	info, err := os.Stat(path)
	if err != nil {
		// Vanished between the event and the stat; drop silently.
		return
	}
	if info.IsDir() {
		if err := w.attachRecursive(path); err != nil {
			slog.Warn("watcher: failed to attach watch to new directory", "path", path, "error", err)
		}
		return
	}
	w.pushFile(path)
}

// pushFile reconstructs a FileInfo for path and pushes it to the queue.
// Any failure (file vanished, unreadable) drops the event silently, per
// spec.md §4.I.
func (w *Watcher) pushFile(path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	if info.IsDir() {
		return
	}
	hash := hasher.File(path)
	if hash == "" {
		return
	}
	w.queue.Push(scanner.FileInfo{
		Path:  path,
		Size:  info.Size(),
		Mtime: info.ModTime().UnixMilli(),
		Hash:  hash,
	})
}

// deleteFile removes path's row directly, under the store's writer
// mutex, per spec.md §4.I. The ANN keeps the stale id; the query
// coordinator filters it out by probing the store at read time.
func (w *Watcher) deleteFile(path string) {
	w.store.Lock()
	defer w.store.Unlock()
	if err := w.store.DeleteFile(path); err != nil {
		slog.Warn("watcher: delete_file failed", "path", path, "error", err)
	}
}

// attachRecursive adds root and every non-ignored subdirectory beneath
// it to the fsnotify watch set.
func (w *Watcher) attachRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.ignore.Check(path) {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}
