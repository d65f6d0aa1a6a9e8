package reload

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/wippyai/native-bridge/errors"
	"github.com/wippyai/native-bridge/script"
)

// DefaultDebounce is how long a file must stay quiet before a reload.
const DefaultDebounce = 150 * time.Millisecond

// Reloader is implemented by Coordinator.
type Reloader interface {
	Reload(ctx context.Context, src script.Source) (Result, error)
}

// Watcher reloads a program whenever its file changes. Editors that replace
// the file through a rename are handled by watching the parent directory.
type Watcher struct {
	path     string
	target   Reloader
	debounce time.Duration
	logger   *zap.Logger
	fs       *fsnotify.Watcher
}

// NewWatcher watches path and hands every settled change to target.
func NewWatcher(path string, target Reloader, debounce time.Duration) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Load("resolve "+path, err)
	}
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Load("create file watcher", err)
	}
	if err := fs.Add(filepath.Dir(abs)); err != nil {
		_ = fs.Close()
		return nil, errors.Load("watch "+filepath.Dir(abs), err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{path: abs, target: target, debounce: debounce, logger: Logger(), fs: fs}, nil
}

// Run delivers reloads until ctx ends. It closes the watcher on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			timer.Reset(w.debounce)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", zap.String("path", w.path), zap.Error(err))
		case <-timer.C:
			w.fire(ctx)
		}
	}
}

func (w *Watcher) fire(ctx context.Context) {
	src, err := script.ReadFile(w.path)
	if err != nil {
		// the file may be mid-write; the next event retries
		w.logger.Debug("changed program not readable", zap.String("path", w.path), zap.Error(err))
		return
	}
	if _, err := w.target.Reload(ctx, src); err != nil {
		w.logger.Warn("reload after file change failed", zap.String("path", w.path), zap.Error(err))
	}
}
