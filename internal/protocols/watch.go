package protocols

import (
	"context"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// watchDebounce coalesces the burst of events an editor save produces into a
// single reload.
const watchDebounce = 200 * time.Millisecond

// Watch reloads the registry whenever a descriptor file in one of its
// directories changes. It blocks until ctx is cancelled; callers run it in
// their own goroutine. Directories that do not exist yet are skipped — they
// are picked up on the next Watch call, not dynamically.
func (r *Registry) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	watched := 0
	for _, dir := range r.dirs {
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		if err := w.Add(dir); err != nil {
			r.log.Warn("cannot watch protocol dir", zap.String("dir", dir), zap.Error(err))
			continue
		}
		watched++
	}
	if watched == 0 {
		r.log.Debug("no protocol dirs to watch")
		<-ctx.Done()
		return ctx.Err()
	}

	var timer *time.Timer
	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !isYAML(ev.Name) {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
				pending = timer.C
			} else {
				timer.Reset(watchDebounce)
			}

		case <-pending:
			timer = nil
			pending = nil
			if err := r.Reload(); err != nil {
				r.log.Warn("protocol registry reload failed", zap.Error(err))
				continue
			}
			r.log.Info("protocol registry reloaded", zap.Int("descriptors", r.Len()))

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			r.log.Warn("protocol watcher error", zap.Error(err))
		}
	}
}
