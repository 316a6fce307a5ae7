// Package watch triggers debounced graph rebuilds from file system events.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is used when Options.Debounce is not positive.
const DefaultDebounce = 500 * time.Millisecond

// ChangeCallback is called for every relevant file event.
// kind is one of "created", "updated", "deleted".
type ChangeCallback func(kind, path string)

// RebuildFunc rebuilds the graph once a burst of events has settled.
type RebuildFunc func(ctx context.Context) error

// Options tunes a watcher.
type Options struct {
	Debounce time.Duration
	Logger   *slog.Logger
	OnChange ChangeCallback
}

// Watch observes roots recursively and calls rebuild after events stop
// arriving for the debounce interval. It returns when ctx is cancelled.
//
// Directories created at runtime are added to the watch list. A failed
// rebuild is logged and retried on the next event.
func Watch(ctx context.Context, roots []string, rebuild RebuildFunc, opts Options) error {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	for _, root := range roots {
		if err := addDirsRecursive(w, root); err != nil {
			return err
		}
		logger.Info("watcher: started", slog.String("root", root))
	}

	var timer *time.Timer
	var timerC <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(opts.Debounce)
			timerC = timer.C
			return
		}
		timer.Reset(opts.Debounce)
		timerC = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-timerC:
			timerC = nil
			if err := rebuild(ctx); err != nil {
				logger.Warn("watcher: rebuild failed", slog.String("error", err.Error()))
				continue
			}
			logger.Debug("watcher: rebuilt")

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", ev.Name))
					}
					schedule()
					continue
				}
			}

			kind := classify(ev.Op)
			if kind == "" {
				continue
			}
			logger.Debug("watcher: change", slog.String("path", ev.Name), slog.String("op", kind))
			if opts.OnChange != nil {
				opts.OnChange(kind, relTo(roots, ev.Name))
			}
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func classify(op fsnotify.Op) string {
	switch {
	case op&fsnotify.Create != 0:
		return "created"
	case op&fsnotify.Write != 0:
		return "updated"
	case op&(fsnotify.Remove|fsnotify.Rename) != 0:
		// fsnotify reports a rename on the old path; the new one arrives as Create.
		return "deleted"
	default:
		return ""
	}
}

// relTo reports p relative to the first root containing it, slash-separated.
func relTo(roots []string, p string) string {
	for _, root := range roots {
		if rel, err := filepath.Rel(root, p); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(p)
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
