// Package inbox watches a directory for new FIT activities.
package inbox

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultSettle is how long a file must stay quiet before it is handed on.
// Devices and sync clients write FIT files in several chunks.
const DefaultSettle = 500 * time.Millisecond

// Inbox reports .fit files that are created or rewritten in one directory.
type Inbox struct {
	dir     string
	settle  time.Duration
	logger  *slog.Logger
	watcher *fsnotify.Watcher
}

// New starts watching dir. Call Run to receive files; Run closes the watch.
func New(dir string, settle time.Duration, logger *slog.Logger) (*Inbox, error) {
	if settle <= 0 {
		settle = DefaultSettle
	}
	if logger == nil {
		logger = slog.Default()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("inbox: watch %s: %w", dir, err)
	}
	logger.Info("inbox: watching for activities", "dir", dir)
	return &Inbox{dir: dir, settle: settle, logger: logger, watcher: w}, nil
}

// Run calls onFile once per settled .fit file until ctx is cancelled.
// onFile runs on the Run goroutine, one file at a time.
func (in *Inbox) Run(ctx context.Context, onFile func(path string)) error {
	defer in.watcher.Close()

	pending := map[string]time.Time{}
	timer := time.NewTimer(in.settle)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-in.watcher.Events:
			if !ok {
				return nil
			}
			if !isFIT(event.Name) {
				continue
			}
			switch {
			case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
				delete(pending, event.Name)
			case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
				pending[event.Name] = time.Now().Add(in.settle)
				timer.Reset(in.settle)
			}

		case now := <-timer.C:
			var next time.Duration
			for path, due := range pending {
				if wait := due.Sub(now); wait > 0 {
					if next == 0 || wait < next {
						next = wait
					}
					continue
				}
				delete(pending, path)
				in.logger.Debug("inbox: activity ready", "path", path)
				onFile(path)
			}
			if next > 0 {
				timer.Reset(next)
			}

		case err, ok := <-in.watcher.Errors:
			if !ok {
				return nil
			}
			in.logger.Error("inbox: watcher error", "err", err)
		}
	}
}

func isFIT(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".fit")
}
