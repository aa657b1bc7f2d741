package application

import (
	"context"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// watchFiles calls reload with the changed paths after file events settle.
// Parent directories are watched so editors that replace files atomically
// are still observed. It returns when ctx is cancelled.
func watchFiles(ctx context.Context, paths []string, debounce time.Duration, logger *zap.Logger, reload func(changed []string)) error {
	if reload == nil || len(paths) == 0 {
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("watch disabled", zap.Error(err))
		return nil
	}
	defer w.Close()

	targets := make(map[string]struct{}, len(paths))
	dirs := make(map[string]struct{})
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			logger.Warn("cannot watch file", zap.String("path", p), zap.Error(err))
			continue
		}
		targets[abs] = struct{}{}

		dir := filepath.Dir(abs)
		if _, ok := dirs[dir]; ok {
			continue
		}
		if err := w.Add(dir); err != nil {
			logger.Warn("cannot watch directory", zap.String("dir", dir), zap.Error(err))
			continue
		}
		dirs[dir] = struct{}{}
	}
	if len(dirs) == 0 {
		return nil
	}
	logger.Info("watching input files", zap.Strings("paths", paths))

	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}

	pending := make(map[string]struct{})
	var timer *time.Timer
	var timerCh <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
		} else {
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(debounce)
		}
		timerCh = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			name, err := filepath.Abs(ev.Name)
			if err != nil {
				continue
			}
			if _, ok := targets[name]; !ok {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			pending[name] = struct{}{}
			schedule()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", zap.Error(err))
		case <-timerCh:
			timerCh = nil
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			clear(pending)
			reload(changed)
		}
	}
}
