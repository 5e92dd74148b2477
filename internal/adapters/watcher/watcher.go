// Package watcher reloads spatial documents when files change on disk.
package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jobrunner/geopipe/internal/domain"
)

// Event represents a change to a document file.
type Event struct {
	Path      string
	Operation Operation
}

// Operation represents the type of file operation.
type Operation int

// File operation types.
const (
	OpCreate Operation = iota
	OpModify
	OpDelete
)

// String returns the string representation of the operation.
func (o Operation) String() string {
	switch o {
	case OpCreate:
		return "create"
	case OpModify:
		return "modify"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Handler is called once per debounced document event.
type Handler func(ctx context.Context, event Event) error

type pendingEvent struct {
	timestamp time.Time
	op        Operation
}

// Watcher watches directory trees for document file changes. Bursts of
// events on one path are folded into a single event after the debounce
// interval.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	handler   Handler
	logger    *slog.Logger
	paths     []string
	debounce  time.Duration

	mu      sync.Mutex
	pending map[string]*pendingEvent

	stop     chan struct{}
	stopOnce sync.Once
	loops    sync.WaitGroup
	inflight sync.WaitGroup
}

// Config holds watcher configuration.
type Config struct {
	Paths    []string
	Debounce time.Duration
}

// New creates a new file watcher.
func New(cfg Config, handler Handler, logger *slog.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 500 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{
		fsWatcher: fsWatcher,
		handler:   handler,
		logger:    logger,
		paths:     cfg.Paths,
		debounce:  cfg.Debounce,
		pending:   make(map[string]*pendingEvent),
		stop:      make(chan struct{}),
	}, nil
}

// Start watches the configured directory trees until ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	for _, path := range w.paths {
		if err := w.AddPath(path); err != nil {
			w.logger.Warn("failed to watch path", "path", path, "error", err)
		}
	}

	w.loops.Add(2)
	go func() {
		defer w.loops.Done()
		w.eventLoop(ctx)
	}()
	go func() {
		defer w.loops.Done()
		w.debounceLoop(ctx)
	}()

	return nil
}

// Stop stops the watcher and waits for running handlers. No handler is
// started after Stop returns.
func (w *Watcher) Stop() error {
	err := w.fsWatcher.Close()
	w.stopOnce.Do(func() { close(w.stop) })
	w.loops.Wait()
	w.inflight.Wait()
	return err
}

// AddPath watches a directory and all its subdirectories.
func (w *Watcher) AddPath(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	err = filepath.WalkDir(absPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return w.fsWatcher.Add(p)
	})
	if err != nil {
		return err
	}

	w.logger.Info("watching directory", "path", absPath)
	return nil
}

// RemovePath stops watching a directory.
func (w *Watcher) RemovePath(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.fsWatcher.Remove(absPath); err != nil {
		return err
	}

	w.logger.Info("removed watch path", "path", absPath)
	return nil
}

func (w *Watcher) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleFsEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleFsEvent(event fsnotify.Event) {
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.AddPath(event.Name); err != nil {
				w.logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
			}
			return
		}
	}

	if !domain.IsDocumentPath(event.Name) {
		return
	}

	w.logger.Debug("file event", "path", event.Name, "op", event.Op.String())
	w.enqueue(event.Name, fsnotifyOpToOperation(event.Op), time.Now())
}

func (w *Watcher) enqueue(path string, op Operation, now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	existing, ok := w.pending[path]
	if !ok {
		w.pending[path] = &pendingEvent{timestamp: now, op: op}
		return
	}

	existing.timestamp = now
	switch {
	case existing.op == OpDelete && op != OpDelete:
		// Deleted and written again.
		existing.op = OpCreate
	case op == OpDelete:
		existing.op = OpDelete
	}
}

func (w *Watcher) debounceLoop(ctx context.Context) {
	ticker := time.NewTicker(max(w.debounce/4, time.Millisecond))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case now := <-ticker.C:
			for _, e := range w.takeDue(now) {
				w.dispatch(ctx, e)
			}
		}
	}
}

// takeDue removes and returns the events that have been quiet for the
// debounce interval, ordered by path.
func (w *Watcher) takeDue(now time.Time) []Event {
	w.mu.Lock()
	defer w.mu.Unlock()

	var due []Event
	for path, p := range w.pending {
		if now.Sub(p.timestamp) < w.debounce {
			continue
		}
		delete(w.pending, path)
		due = append(due, Event{Path: path, Operation: p.op})
	}
	sort.Slice(due, func(i, j int) bool { return due[i].Path < due[j].Path })
	return due
}

func (w *Watcher) dispatch(ctx context.Context, e Event) {
	w.logger.Info("processing file event", "path", e.Path, "operation", e.Operation.String())

	w.inflight.Add(1)
	go func() {
		defer w.inflight.Done()
		if err := w.handler(ctx, e); err != nil {
			w.logger.Error("handler error",
				"path", e.Path,
				"operation", e.Operation.String(),
				"error", err,
			)
		}
	}()
}

func fsnotifyOpToOperation(op fsnotify.Op) Operation {
	switch {
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		// A renamed file is gone from its original location.
		return OpDelete
	case op.Has(fsnotify.Create):
		return OpCreate
	default:
		return OpModify
	}
}
