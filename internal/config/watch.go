package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rileyhilliard/lookout/internal/errors"
	"github.com/rileyhilliard/lookout/internal/logger"
)

// DefaultReloadDebounce collapses the burst of events editors emit on save.
const DefaultReloadDebounce = 500 * time.Millisecond

// Watch blocks until ctx is done, calling onChange with every successfully
// loaded and validated revision of the file at path. Broken revisions are
// logged and skipped so the previous config keeps running.
func Watch(ctx context.Context, path string, debounce time.Duration, log logger.Logger, onChange func(*Config)) error {
	if log == nil {
		log = logger.Noop()
	}
	if debounce <= 0 {
		debounce = DefaultReloadDebounce
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, "Cannot watch config file", "Check the path is correct")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, "Cannot create file watcher", "Check the inotify limits on this machine")
	}
	defer w.Close()

	// Editors often replace the file, so watch the directory and filter.
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, "Cannot watch config directory", "Check directory permissions")
	}

	var timer *time.Timer
	fire := make(chan struct{}, 1)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("config watcher: %v", err)
		case <-fire:
			cfg, err := Load(abs)
			if err == nil {
				err = Validate(cfg)
			}
			if err != nil {
				log.Warn("ignoring config change in %s: %v", abs, err)
				continue
			}
			log.Info("config reloaded from %s", abs)
			onChange(cfg)
		}
	}
}
