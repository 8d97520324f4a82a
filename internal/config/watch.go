package config

import (
	"context"
	"os"
	"time"

	"storefront/internal/store"
)

// WatchSchedules reloads the schedule seed file on change and calls onUpdate with the
// new record. It performs an initial load before entering the watch loop. Files that
// fail to load are skipped until they change again.
func WatchSchedules(ctx context.Context, path string, interval time.Duration, onUpdate func(*store.ConfigRecord)) error {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	rec, _, err := LoadSchedules(path)
	if err != nil {
		return err
	}
	if onUpdate != nil {
		onUpdate(rec)
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	lastMod := info.ModTime()

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				info, err := os.Stat(path)
				if err != nil {
					continue // transient errors
				}
				if !info.ModTime().After(lastMod) {
					continue
				}
				lastMod = info.ModTime()
				rec, _, err := LoadSchedules(path)
				if err != nil {
					continue
				}
				if onUpdate != nil {
					onUpdate(rec)
				}
			}
		}
	}()

	return nil
}
