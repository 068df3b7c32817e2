package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/oshokin/exe-builder/internal/logger"
)

// Watch reloads the settings file whenever it changes and passes every
// successfully validated result to onChange. It blocks until ctx is done.
//
// The parent directory is watched instead of the file itself because most
// editors replace files by rename, which drops a watch on the old inode.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	if path == "" {
		path = DefaultConfigFilename
	}

	target, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("resolve settings path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create settings watcher: %w", err)
	}

	defer func() {
		_ = watcher.Close()
	}()

	if err = watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if filepath.Clean(event.Name) != target || !event.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}

			cfg, err := Load(target)
			if err != nil {
				logger.WarnKV(ctx, "Ignoring invalid settings change", "path", target, "error", err)

				continue
			}

			logger.InfoKV(ctx, "Settings reloaded", "path", target)
			onChange(cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			logger.WarnKV(ctx, "Settings watcher error", "error", err)
		}
	}
}
