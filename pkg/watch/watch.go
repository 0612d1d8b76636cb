// Package watch regenerates feature stylesheets when markup files change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/multierr"

	"github.com/gnana997/classmod/pkg/convert"
	"github.com/gnana997/classmod/pkg/discover"
)

// ErrReplaceUnsupported is returned when watch mode is asked to rewrite
// sources; every rewrite would trigger another run.
var ErrReplaceUnsupported = errors.New("watch mode cannot rewrite sources")

// DefaultDebounce groups the events of one save into a single run.
const DefaultDebounce = 200 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration
	// OnRegenerate, when set, is called after every run including the
	// initial one.
	OnRegenerate func(rc *convert.RunContext, err error)
}

// Watcher converts a set of feature folders and converts them again
// whenever one of their markup files is written, created, removed or
// renamed.
//
// Usage:
//
//	w, err := watch.New(conv, targets, watch.Options{}, logger)
//	if err != nil {
//	    return err
//	}
//	return w.Run(ctx)
type Watcher struct {
	watcher *fsnotify.Watcher
	conv    *convert.Converter
	targets []string
	options Options
	logger  *slog.Logger

	// debouncing
	timer   *time.Timer
	pending map[string]struct{}
	timerMu sync.Mutex

	// runMu serialises runs; lastErr is the error of the latest one
	runMu   sync.Mutex
	runs    int
	lastErr error

	stopChan chan struct{}
	stopped  bool
	mu       sync.Mutex
}

// New creates a Watcher over the given feature folders. The converter must
// not be in replace mode.
func New(conv *convert.Converter, targets []string, options Options, logger *slog.Logger) (*Watcher, error) {
	if conv.Options().Replace {
		return nil, ErrReplaceUnsupported
	}
	if logger == nil {
		logger = slog.Default()
	}
	if options.Debounce <= 0 {
		options.Debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	abs := make([]string, 0, len(targets))
	for _, t := range targets {
		a, err := filepath.Abs(t)
		if err != nil {
			watcher.Close()
			return nil, fmt.Errorf("failed to resolve %s: %w", t, err)
		}
		abs = append(abs, a)
	}

	return &Watcher{
		watcher:  watcher,
		conv:     conv,
		targets:  abs,
		options:  options,
		logger:   logger,
		pending:  make(map[string]struct{}),
		stopChan: make(chan struct{}),
	}, nil
}

// Run converts all targets once, then watches them until ctx is done. The
// returned error combines the shutdown error and the error of the last run.
func (w *Watcher) Run(ctx context.Context) error {
	w.regenerate(ctx)

	if err := w.Start(ctx); err != nil {
		return multierr.Append(err, w.Stop())
	}

	<-ctx.Done()
	return w.Stop()
}

// Start adds watches for every directory below the targets and starts the
// event loop.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return fmt.Errorf("watcher already stopped")
	}
	w.mu.Unlock()

	opts := w.conv.Options().Discover
	for _, root := range w.targets {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil || !d.IsDir() {
				return nil
			}
			if rel, ok := relTo(root, path); ok && rel != "." && opts.Excluded(rel) {
				return filepath.SkipDir
			}
			if err := w.watcher.Add(path); err != nil {
				w.logger.Warn("failed to watch directory", "path", path, "error", err)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to setup watches for %s: %w", root, err)
		}
	}

	w.logger.Info("watching features", "features", len(w.targets), "debounce", w.options.Debounce)

	go w.eventLoop(ctx)
	return nil
}

// Stop ends the event loop and closes the underlying watcher. It is safe to
// call more than once.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopChan)

	w.timerMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timerMu.Unlock()

	err := w.watcher.Close()

	// wait for a run in progress
	w.runMu.Lock()
	err = multierr.Append(err, w.lastErr)
	w.runMu.Unlock()

	w.logger.Info("watcher stopped")
	return err
}

// Runs returns the number of completed runs.
func (w *Watcher) Runs() int {
	w.runMu.Lock()
	defer w.runMu.Unlock()
	return w.runs
}

func (w *Watcher) eventLoop(ctx context.Context) {
	for {
		select {
		case <-w.stopChan:
			return

		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if event.Op&fsnotify.Create == fsnotify.Create {
		w.watchNewDir(event.Name)
	}

	if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) &&
		!event.Op.Has(fsnotify.Remove) && !event.Op.Has(fsnotify.Rename) {
		return
	}

	feature, ok := w.featureOf(event.Name)
	if !ok {
		return
	}

	w.logger.Debug("file event", "op", event.Op.String(), "file", event.Name)
	if event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename) {
		w.conv.Forget(feature, event.Name)
	}
	w.schedule(ctx, feature)
}

// watchNewDir adds a watch for a directory created after Start.
func (w *Watcher) watchNewDir(path string) {
	for _, root := range w.targets {
		rel, ok := relTo(root, path)
		if !ok || w.conv.Options().Discover.Excluded(rel) {
			continue
		}
		if err := w.watcher.Add(path); err == nil {
			w.logger.Debug("watching new directory", "path", path)
		}
		return
	}
}

// featureOf returns the target containing path when path is a markup file
// the converter would read.
func (w *Watcher) featureOf(path string) (string, bool) {
	opts := w.conv.Options().Discover
	for _, root := range w.targets {
		rel, ok := relTo(root, path)
		if !ok || rel == "." {
			continue
		}
		if opts.Match(rel) {
			return root, true
		}
	}
	return "", false
}

// schedule runs the conversion after the debounce delay. Events arriving in
// the meantime push the run back.
func (w *Watcher) schedule(ctx context.Context, feature string) {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	w.pending[feature] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.options.Debounce, func() {
		w.timerMu.Lock()
		changed := make([]string, 0, len(w.pending))
		for f := range w.pending {
			changed = append(changed, filepath.Base(f))
		}
		clear(w.pending)
		w.timerMu.Unlock()

		w.logger.Info("markup changed, regenerating", "features", changed)
		w.regenerate(ctx)
	})
}

// regenerate converts every target with a fresh run context. Unchanged
// files are served from the converter's cache.
func (w *Watcher) regenerate(ctx context.Context) {
	w.runMu.Lock()
	defer w.runMu.Unlock()

	if ctx.Err() != nil {
		return
	}

	rc := convert.NewRunContext(w.conv.Options())
	rc.Target = discover.AllFeatures
	if len(w.targets) == 1 {
		rc.Target = filepath.Base(w.targets[0])
	}

	err := w.conv.Run(ctx, rc, w.targets)
	switch {
	case err != nil:
		w.logger.Error("regeneration failed", "error", err)
	case rc.Err() != nil:
		w.logger.Warn("regeneration skipped files", "error", rc.Err())
	}

	w.runs++
	w.lastErr = err
	if w.options.OnRegenerate != nil {
		w.options.OnRegenerate(rc, err)
	}
}

func relTo(root, path string) (string, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
