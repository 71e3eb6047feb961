package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/gogpu/sprite"
)

// Watch calls fn with the reloaded settings every time the file at path
// is written or created. It blocks until ctx is done.
//
// The parent directory is watched rather than the file, so editors that
// save by replacing the file are followed. Load errors are passed to fn
// and watching continues.
func Watch(ctx context.Context, path string, fn func(*Config, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	target := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", target, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&fsnotify.Write == fsnotify.Write ||
				event.Op&fsnotify.Create == fsnotify.Create {
				fn(LoadOptional(target))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			sprite.Logger().Warn("config: watch error", "path", target, "err", err)
		}
	}
}
