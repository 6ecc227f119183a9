package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is used when no window is given.
const DefaultDebounce = 300 * time.Millisecond

// ChangeEvent is a settled change to the watched file.
type ChangeEvent struct {
	Path string
	Op   string // "create", "write" or "rename"
	At   time.Time
}

// FileWatcher watches one file. It watches the parent directory so that
// editors replacing the file through a rename are still seen.
type FileWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   *zap.Logger
	onChange func(ChangeEvent)
}

// NewFileWatcher watches path and calls onChange once per debounced burst.
func NewFileWatcher(path string, debounce time.Duration, logger *zap.Logger, onChange func(ChangeEvent)) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	return &FileWatcher{
		path:     abs,
		watcher:  w,
		debounce: debounce,
		logger:   logger,
		onChange: onChange,
	}, nil
}

// Path is the absolute path being watched.
func (w *FileWatcher) Path() string {
	return w.path
}

// Close releases the watch without running it.
func (w *FileWatcher) Close() error {
	return w.watcher.Close()
}

// Run delivers change events until ctx is cancelled.
func (w *FileWatcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	debouncer := NewDebouncer(w.debounce, func(ev ChangeEvent) {
		if w.onChange != nil {
			w.onChange(ev)
		}
	})
	defer debouncer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			op := opName(event.Op)
			if op == "" {
				continue
			}
			w.logger.Debug("file event", zap.String("path", event.Name), zap.String("op", op))
			debouncer.Trigger(ChangeEvent{Path: w.path, Op: op, At: time.Now()})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

// Removal is not reported: an atomic save removes and recreates the file,
// and the create that follows is enough.
func opName(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Create):
		return "create"
	case op.Has(fsnotify.Write):
		return "write"
	case op.Has(fsnotify.Rename):
		return "rename"
	default:
		return ""
	}
}
