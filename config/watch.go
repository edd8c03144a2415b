package config

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/blogem/devlog-collector/models"
)

// Watch reloads the YAML file at path whenever it changes and passes the new
// dashboard settings to onChange. Only dashboard settings are hot-reloadable.
// Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, onChange func(models.DashboardSettings)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors often replace the file instead of writing it
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve config path: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch config directory: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			cfg, err := LoadFile(abs)
			if err != nil {
				log.Printf("Ignoring config change: %v", err)
				continue
			}
			if err := cfg.Validate(); err != nil {
				log.Printf("Ignoring config change: %v", err)
				continue
			}

			log.Printf("🔄 Reloaded dashboard settings from %s", abs)
			onChange(cfg.Dashboard)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("Config watcher error: %v", err)
		}
	}
}
