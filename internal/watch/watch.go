// Package watch rebuilds a documentation source tree when its files change.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/docharness/internal/builder"
	"git.home.luguber.info/inful/docharness/internal/foundation/errors"
	"git.home.luguber.info/inful/docharness/internal/logfields"
)

// DefaultDebounce is the quiet period after the last change before a rebuild.
const DefaultDebounce = 300 * time.Millisecond

// RebuildFunc is invoked once per burst of changes.
type RebuildFunc func(ctx context.Context) error

// Watcher observes a source tree and calls its RebuildFunc after changes.
type Watcher struct {
	root     string
	rebuild  RebuildFunc
	debounce time.Duration
	logger   *slog.Logger
	fs       *fsnotify.Watcher

	requests chan struct{}
	mu       sync.Mutex
	timer    *time.Timer
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period. Non-positive values keep the default.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// New starts watching every directory below root except build output.
func New(root string, rebuild RebuildFunc, opts ...Option) (*Watcher, error) {
	if rebuild == nil {
		return nil, errors.ConfigError("watch requires a rebuild function").Build()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "resolve watch root").
			WithContext("path", root).Build()
	}
	if info, statErr := os.Stat(abs); statErr != nil || !info.IsDir() {
		return nil, errors.NewError(errors.CategoryNotFound, "source directory does not exist").
			WithContext("path", abs).Build()
	}

	w := &Watcher{
		root:     abs,
		rebuild:  rebuild,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
		requests: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "create filesystem watcher").Build()
	}
	w.fs = fs
	w.addDirs(abs)
	return w, nil
}

// Root returns the absolute watched directory.
func (w *Watcher) Root() string { return w.root }

// Run dispatches events until ctx is done. Rebuilds run one at a time; a
// change during a rebuild schedules exactly one more.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.fs.Close() }()

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go w.worker(ctx, done)
	defer func() {
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
		cancel()
		<-done
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if Ignored(w.root, ev.Name) {
		return
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			w.addDirs(ev.Name)
		}
	}
	w.logger.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	w.trigger()
}

func (w *Watcher) trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case w.requests <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) worker(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.requests:
			w.logger.Info("Change detected; rebuilding", logfields.SrcDir(w.root))
			if err := w.rebuild(ctx); err != nil {
				w.logger.Warn("rebuild failed", logfields.Error(err))
			}
		}
	}
}

func (w *Watcher) addDirs(root string) {
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != w.root && Ignored(w.root, path) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			w.logger.Warn("watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// Ignored reports whether a change to path below root must not trigger a
// rebuild: build output, hidden entries and editor scratch files.
func Ignored(root, path string) bool {
	if rel, err := filepath.Rel(root, path); err == nil {
		for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
			if part == builder.BuildDir || (strings.HasPrefix(part, ".") && part != "." && part != "..") {
				return true
			}
		}
	}

	base := filepath.Base(path)
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	return base == "Thumbs.db"
}
