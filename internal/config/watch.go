package config

import (
	"context"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the bot config from path whenever it changes on disk and
// invokes onReload with the new value. Only non-network-affecting fields
// are meant to be hot-reloaded in practice (kick delays, latency bounds);
// ports and bind addresses take effect on the next restart regardless of
// what this reports.
func Watch(ctx context.Context, path string, onReload func(BotConfig)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := LoadBotConfig(path)
			if err != nil {
				slog.Error("config reload failed", "path", path, "err", err)
				continue
			}
			slog.Info("config reloaded", "path", path)
			onReload(cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("config watcher error", "err", err)
		}
	}
}
