package replay

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DirWatcher replays capture files as they appear in a directory. Files
// already present at start are replayed first, in name order. New files are
// replayed once they have stopped changing for Settle, so partially written
// captures are not opened. Each file is replayed at most once.
type DirWatcher struct {
	Dir     string
	Pattern string        // glob matched against the base name, e.g. "*.pcap"
	Settle  time.Duration // quiet period before a new file is opened
	Log     *zap.Logger
	Replay  func(path string) error

	seen map[string]bool
}

// Start watches until ctx is done. Replay failures are logged, not fatal:
// one bad capture must not stop the watch.
func (w *DirWatcher) Start(ctx context.Context) error {
	if w.Replay == nil {
		return errors.New("watcher needs a replay callback")
	}
	if w.Pattern == "" {
		w.Pattern = "*.pcap"
	}
	if w.Settle <= 0 {
		w.Settle = 500 * time.Millisecond
	}
	log := w.Log
	if log == nil {
		log = zap.NewNop()
	}
	w.seen = make(map[string]bool)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(w.Dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.Dir, err)
	}

	existing, err := filepath.Glob(filepath.Join(w.Dir, w.Pattern))
	if err != nil {
		return fmt.Errorf("glob %s: %w", w.Pattern, err)
	}
	sort.Strings(existing)
	for _, path := range existing {
		w.replayOnce(log, path)
	}

	// pending tracks files still being written: last event per path. The
	// ticker promotes entries that have been quiet for a full settle period.
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(w.Settle)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) {
				continue
			}
			if match, _ := filepath.Match(w.Pattern, filepath.Base(ev.Name)); !match || w.seen[ev.Name] {
				continue
			}
			pending[ev.Name] = time.Now()
		case now := <-ticker.C:
			for path, last := range pending {
				if now.Sub(last) >= w.Settle {
					delete(pending, path)
					w.replayOnce(log, path)
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", zap.Error(err))
		}
	}
}

func (w *DirWatcher) replayOnce(log *zap.Logger, path string) {
	if w.seen[path] {
		return
	}
	w.seen[path] = true
	log.Info("replaying capture", zap.String("path", path))
	if err := w.Replay(path); err != nil {
		log.Error("replay failed", zap.String("path", path), zap.Error(err))
	}
}
