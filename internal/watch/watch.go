// Package watch reruns a batch analysis whenever its input files change.
//
// It is not a streaming reader: every change triggers a full re-read of the
// watched files by the caller. Bursts of filesystem events are collapsed into
// a single rerun with a debounce timer, and files replaced by log rotation or
// an editor's atomic save are re-attached once they reappear.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-errors/errors"

	"github.com/bimmerbailey/logreason/internal/config"
)

// DefaultDebounce is used when Options.Debounce is not positive.
const DefaultDebounce = 500 * time.Millisecond

// reattachTimeout bounds how long a removed file may stay missing.
const reattachTimeout = 10 * time.Second

// Options configures the watcher behavior.
type Options struct {
	Files    []string                        // Paths to watch
	Debounce time.Duration                   // Quiet period before a rerun
	OnChange func(ctx context.Context) error // Called once per burst of changes
}

// Watcher watches files and calls Options.OnChange after they change.
type Watcher struct {
	opts    Options
	files   map[string]bool
	logger  *slog.Logger
	watcher *fsnotify.Watcher
}

// New creates a new Watcher with the given options.
func New(opts Options, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if opts.OnChange == nil {
		return nil, errors.New("OnChange cannot be nil")
	}
	if len(opts.Files) == 0 {
		return nil, errors.New("no files to watch")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	files := make(map[string]bool, len(opts.Files))
	for _, f := range opts.Files {
		if f == config.StdinPath {
			return nil, errors.New("cannot watch stdin")
		}
		files[filepath.Clean(f)] = true
	}

	return &Watcher{opts: opts, files: files, logger: logger}, nil
}

// Run blocks until ctx is cancelled or the underlying watcher fails.
// A failing OnChange is logged and does not stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Errorf("failed to create watcher: %w", err)
	}
	w.watcher = fw
	defer fw.Close()

	for f := range w.files {
		if err := fw.Add(f); err != nil {
			return errors.Errorf("failed to watch %s: %w", f, err)
		}
		w.logger.Debug("watching file", "path", f)
	}

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return errors.New("watcher closed unexpectedly")
			}
			if !w.handleEvent(ctx, event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.opts.Debounce)
			} else {
				timer.Reset(w.opts.Debounce)
			}
			fire = timer.C

		case err, ok := <-fw.Errors:
			if !ok {
				return errors.New("watcher error channel closed")
			}
			return errors.Errorf("watcher error: %w", err)

		case <-fire:
			fire = nil
			w.logger.Info("input changed, rerunning analysis")
			if err := w.opts.OnChange(ctx); err != nil {
				w.logger.Warn("analysis rerun failed", "error", err)
			}
		}
	}
}

// handleEvent reports whether event should schedule a rerun.
func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) bool {
	name := filepath.Clean(event.Name)
	if !w.files[name] {
		return false
	}

	switch {
	case event.Has(fsnotify.Write), event.Has(fsnotify.Create):
		return true

	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		if err := w.reattach(ctx, name); err != nil {
			w.logger.Warn("stopped watching file", "path", name, "error", err)
			return false
		}
		return true
	}

	// Chmod
	return false
}

// reattach waits for a rotated or replaced file to reappear and watches it again.
func (w *Watcher) reattach(ctx context.Context, path string) error {
	timeout := time.After(reattachTimeout)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if _, err := os.Stat(path); err == nil {
			if err := w.watcher.Add(path); err != nil {
				return errors.Errorf("failed to watch replaced file: %w", err)
			}
			w.logger.Debug("file replaced, watching new file", "path", path)
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timeout:
			return errors.New("timeout waiting for file to reappear")
		case <-ticker.C:
		}
	}
}
