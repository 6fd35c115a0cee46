package seed

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/udisondev/portalgo/internal/game/portal"
)

// debounce collapses the burst of events an editor produces on save.
const debounce = 100 * time.Millisecond

// Watch reloads the seed file whenever it changes and passes the result to fn.
// A file that fails to parse is logged and skipped, fn keeps the last good
// content. Blocks until ctx is canceled.
//
// The parent directory is watched, not the file: editors often save by
// renaming a temp file over the original, which drops a file watch.
func Watch(ctx context.Context, path string, fn func([]*portal.Portal)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving seed path %s: %w", path, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating seed watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	slog.Info("watching portal seed", "path", abs)

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			timer.Reset(debounce)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("seed watcher error", "path", abs, "err", err)

		case <-timer.C:
			portals, err := Load(abs)
			if err != nil {
				// файл могли удалить или сохранить наполовину, ждём следующего события
				slog.Warn("seed reload skipped", "path", abs, "err", err)
				continue
			}
			slog.Info("portal seed reloaded", "path", abs, "portals", len(portals))
			fn(portals)
		}
	}
}

// WatchStore keeps store in sync with the seed file.
func WatchStore(ctx context.Context, path string, store portal.Store) error {
	return Watch(ctx, path, func(portals []*portal.Portal) {
		if err := store.Replace(ctx, portals); err != nil {
			slog.Error("applying reloaded seed", "path", path, "err", err)
		}
	})
}
