package renderer

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch monitors the preset file for changes and requests a reload through
// NotifyPresetChanged until the context is cancelled. The parent directory
// is watched rather than the file itself so editors that replace the file
// (rename-over-write) keep triggering events.
func (e *Engine) Watch(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Name != abs {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					e.NotifyPresetChanged(abs)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("preset watcher: %v", err)
			}
		}
	}()
	return nil
}
