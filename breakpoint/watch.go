package breakpoint

import (
	"context"

	"github.com/fsnotify/fsnotify"

	"github.com/tracecore/tracecore/logging"
)

// Watcher eagerly invalidates Cache entries on file writes/removals instead
// of waiting for the next lazy mtime check. The lazy Cache.Get mtime check
// remains the primary correctness mechanism; this is strictly an
// optimization that shortens the staleness window for files under active
// edit.
type Watcher struct {
	cache  *Collection
	lines  *Cache
	logger logging.Logger
}

// NewWatcher returns a Watcher that clears breakpoint-line cache entries for
// files as fsnotify reports writes, creates, renames, or removals on them.
func NewWatcher(lines *Cache, col *Collection, logger logging.Logger) *Watcher {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &Watcher{cache: col, lines: lines, logger: logger}
}

// Start begins watching every file currently holding a breakpoint and runs
// until ctx is canceled. Best-effort: a watch failure is logged, never
// fatal, since the lazy mtime check in Cache.Get still guards correctness.
func (w *Watcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	for _, file := range w.cache.Files() {
		if err := watcher.Add(file); err != nil {
			w.logger.WithFields(map[string]interface{}{"path": file}).Warn("breakpoint watch: add failed: %v", err)
		}
	}

	go w.run(ctx, watcher)
	return nil
}

func (w *Watcher) run(ctx context.Context, watcher *fsnotify.Watcher) {
	defer watcher.Close()

	mask := fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-watcher.Events:
			if !ok {
				return
			}
			if evt.Op&mask == 0 {
				continue
			}
			w.logger.WithFields(map[string]interface{}{"event": evt.String()}).Debug("breakpoint watch: file event")
			w.lines.Invalidate(evt.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("breakpoint watch: error: %v", err)
		}
	}
}
