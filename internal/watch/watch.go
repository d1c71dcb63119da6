// Package watch reloads open pages when their files change on disk.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Watcher reports changes to a set of files. Parent directories are
// watched so that editors which replace files by renaming are seen too.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce *Debouncer
	onChange func(path string)
	logger   zerolog.Logger

	mu    sync.Mutex
	files map[string]struct{}
	dirs  map[string]int
}

// Option modifies a Watcher during creation.
type Option func(*Watcher)

// WithLogger sets the logger used for watch errors.
func WithLogger(l zerolog.Logger) Option { return func(w *Watcher) { w.logger = l } }

// New creates a Watcher that calls onChange, from its own goroutine, once a
// watched file has been quiet for debounce.
func New(debounce time.Duration, onChange func(path string), opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &Watcher{
		fsw:      fsw,
		debounce: NewDebouncer(debounce),
		onChange: onChange,
		logger:   log.Logger,
		files:    make(map[string]struct{}),
		dirs:     make(map[string]int),
	}
	for _, o := range opts {
		o(w)
	}
	return w, nil
}

// Set replaces the watched files. Empty paths are skipped.
func (w *Watcher) Set(paths ...string) error {
	want := make(map[string]struct{})
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		want[abs] = struct{}{}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for f := range w.files {
		if _, ok := want[f]; !ok {
			w.debounce.Cancel(f)
			w.releaseDir(filepath.Dir(f))
			delete(w.files, f)
		}
	}
	for f := range want {
		if _, ok := w.files[f]; ok {
			continue
		}
		dir := filepath.Dir(f)
		if w.dirs[dir] == 0 {
			if err := w.fsw.Add(dir); err != nil {
				return fmt.Errorf("watch %s: %w", dir, err)
			}
		}
		w.dirs[dir]++
		w.files[f] = struct{}{}
	}
	return nil
}

func (w *Watcher) releaseDir(dir string) {
	w.dirs[dir]--
	if w.dirs[dir] > 0 {
		return
	}
	delete(w.dirs, dir)
	if err := w.fsw.Remove(dir); err != nil {
		w.logger.Debug().Err(err).Str("dir", dir).Msg("unwatch")
	}
}

// Run delivers change notifications until ctx is done or the watcher is
// closed.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("watch")
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return
	}
	path, err := filepath.Abs(ev.Name)
	if err != nil {
		return
	}
	w.mu.Lock()
	_, ok := w.files[path]
	w.mu.Unlock()
	if !ok {
		return
	}
	w.logger.Debug().Str("path", path).Stringer("op", ev.Op).Msg("page changed")
	w.debounce.Trigger(path, func() { w.onChange(path) })
}

// Close stops watching and drops pending notifications.
func (w *Watcher) Close() error {
	w.debounce.Stop()
	return w.fsw.Close()
}
