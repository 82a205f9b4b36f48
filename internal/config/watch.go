package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/TimurManjosov/interceptor/internal/session"
)

// WatchAdmins reloads path whenever it changes and passes the new
// administrator list to onChange. The parent directory is watched so editors
// that replace the file are noticed too. Reloads that fail to parse are
// logged and skipped. WatchAdmins blocks until ctx is done.
func WatchAdmins(ctx context.Context, path string, logger zerolog.Logger, onChange func([]session.Identity)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			cfg, err := LoadFile(abs)
			if err != nil {
				logger.Error().Err(err).Str("file", abs).Msg("config reload failed")
				continue
			}
			admins, err := cfg.AdminIdentities()
			if err != nil {
				logger.Error().Err(err).Str("file", abs).Msg("invalid ADMINS, keeping previous list")
				continue
			}
			logger.Info().Int("admins", len(admins)).Msg("administrator list reloaded")
			onChange(admins)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("config watcher error")
		}
	}
}
