// Package watch re-reads a source file when it changes on disk.
//
// The file's directory is watched rather than the file itself so that
// editors which save by writing a temporary file and renaming it over the
// original keep being tracked.
package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// ErrClosed is returned by Run after Close.
var ErrClosed = errors.New("watcher closed")

// DefaultDebounce is the debounce used when none is configured.
const DefaultDebounce = 100 * time.Millisecond

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long the file must be quiet before a reload.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(w *Watcher) {
		w.log = l
	}
}

// Watcher tracks one file.
type Watcher struct {
	path     string
	debounce time.Duration
	log      zerolog.Logger

	fsw *fsnotify.Watcher

	mu     sync.Mutex
	closed bool
}

// New starts watching path. The file's directory must exist.
func New(path string, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:     abs,
		debounce: DefaultDebounce,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	w.fsw = fsw
	return w, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string { return w.path }

// Run calls onChange with the file's new contents after each burst of
// changes. It returns nil when ctx is done and ErrClosed after Close.
// Errors from onChange and transient read failures are logged and do not
// stop the loop.
func (w *Watcher) Run(ctx context.Context, onChange func([]byte) error) error {
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return ErrClosed
			}
			if !w.relevant(ev) {
				continue
			}
			w.log.Debug().Str("path", ev.Name).Str("op", ev.Op.String()).Msg("file event")
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return ErrClosed
			}
			w.log.Warn().Err(err).Str("path", w.path).Msg("watch error")

		case <-fire:
			fire = nil
			w.reload(onChange)
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}

func (w *Watcher) reload(onChange func([]byte) error) {
	data, err := os.ReadFile(w.path)
	if err != nil {
		// A rename-based save may not have landed yet; the Create that
		// follows triggers another reload.
		w.log.Warn().Err(err).Str("path", w.path).Msg("cannot read watched file")
		return
	}
	if err := onChange(data); err != nil {
		w.log.Error().Err(err).Str("path", w.path).Msg("reload failed")
		return
	}
	w.log.Info().Str("path", w.path).Int("bytes", len(data)).Msg("reloaded")
}

// Close stops the watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.fsw.Close()
}
