package file

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/caravel-labs/rosterqa/internal/logger"
)

// debounceWindow coalesces the burst of write events editors and atomic
// renames produce into one callback.
const debounceWindow = 500 * time.Millisecond

// Watcher invokes a callback when the corpus file changes on disk.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
}

// NewWatcher watches the given corpus file. The parent directory is
// watched rather than the file itself, so rename-over-save (the common
// atomic write pattern) keeps working.
func NewWatcher(path string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("resolve corpus path: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch corpus directory: %w", err)
	}

	return &Watcher{path: abs, watcher: w}, nil
}

// Run blocks, invoking onChange after each debounced change to the corpus
// file, until the context is cancelled.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	var timer *time.Timer
	fire := make(chan struct{}, 1)

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
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			logger.Debug("Corpus file changed: %s", event.Op)
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounceWindow, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case <-fire:
			onChange()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Corpus watcher error: %v", err)
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
