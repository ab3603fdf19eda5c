package config

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/hbray/voxterm/internal/logger"
)

// Watch reloads the config file whenever it changes and calls onChange with
// the freshly validated result. Invalid intermediate saves are logged and
// skipped. Watching the parent directory survives editors that replace the
// file instead of writing in place. Returns when ctx is cancelled; if no
// watcher can be created it falls back to periodic polling.
func Watch(ctx context.Context, path string, onChange func(*Config)) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("config: watcher unavailable, polling instead", "error", err)
		watchPoll(ctx, path, onChange)
		return
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		logger.Warn("config: watch failed, polling instead", "path", path, "error", err)
		watchPoll(ctx, path, onChange)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if ev.Name != path || !ev.Op.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			reload(path, onChange)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("config: watch error", "error", err)
		}
	}
}

// watchPoll is a fallback polling loop when fsnotify is unavailable.
func watchPoll(ctx context.Context, path string, onChange func(*Config)) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	var lastMod time.Time
	if info, err := os.Stat(path); err == nil {
		lastMod = info.ModTime()
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			info, err := os.Stat(path)
			if err != nil {
				continue
			}
			if info.ModTime().After(lastMod) {
				lastMod = info.ModTime()
				reload(path, onChange)
			}
		}
	}
}

func reload(path string, onChange func(*Config)) {
	cfg, err := Load(path)
	if err != nil {
		logger.Warn("config: reload skipped", "path", path, "error", err)
		return
	}
	logger.Info("config: reloaded", "path", path)
	onChange(cfg)
}
