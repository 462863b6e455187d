package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// DefaultDebounce is how long the watcher waits after the last relevant
// event before running.
const DefaultDebounce = 2 * time.Second

// RunFunc performs one full run. Errors are logged and do not stop watching.
type RunFunc func(ctx context.Context) error

// PathsFunc returns the directories to watch. It is called before the first
// run and after every run.
type PathsFunc func() []string

// Watcher triggers RunFunc when files in the watched directories change.
type Watcher struct {
	run      RunFunc
	paths    PathsFunc
	debounce time.Duration
	clock    clockwork.Clock
	watched  map[string]bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a run.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithClock replaces the real clock, for tests.
func WithClock(c clockwork.Clock) Option {
	return func(w *Watcher) { w.clock = c }
}

// New creates a Watcher.
func New(run RunFunc, paths PathsFunc, opts ...Option) *Watcher {
	w := &Watcher{
		run:      run,
		paths:    paths,
		debounce: DefaultDebounce,
		clock:    clockwork.NewRealClock(),
		watched:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run performs an initial run and then one run per debounced burst of
// relevant events, until ctx is cancelled. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fsw.Close()

	w.sync(fsw)
	w.trigger(ctx)
	w.sync(fsw)

	var timer clockwork.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !Relevant(event) {
				continue
			}
			log.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("library change")
			if timer == nil {
				timer = w.clock.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.Chan()

		case watchErr, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(watchErr).Msg("error in watcher")

		case <-fire:
			fire = nil
			w.trigger(ctx)
			w.sync(fsw)
		}
	}
}

func (w *Watcher) trigger(ctx context.Context) {
	if err := w.run(ctx); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("run failed, waiting for next change")
	}
}

// sync brings the fsnotify watch list in line with PathsFunc.
func (w *Watcher) sync(fsw *fsnotify.Watcher) {
	want := make(map[string]bool)
	for _, p := range w.paths() {
		want[filepath.Clean(p)] = true
	}

	for p := range w.watched {
		if !want[p] {
			if err := fsw.Remove(p); err != nil {
				log.Debug().Err(err).Str("path", p).Msg("cannot remove watch")
			}
			delete(w.watched, p)
		}
	}
	for p := range want {
		if w.watched[p] {
			continue
		}
		if err := fsw.Add(p); err != nil {
			log.Warn().Err(err).Str("path", p).Msg("cannot watch directory")
			continue
		}
		log.Debug().Str("path", p).Msg("watching")
		w.watched[p] = true
	}
}

// Watched returns the directories currently watched.
func (w *Watcher) Watched() []string {
	out := make([]string, 0, len(w.watched))
	for p := range w.watched {
		out = append(out, p)
	}
	return out
}

// Relevant reports whether event concerns a library list or app manifest.
// Chmod-only events are ignored.
func Relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	base := filepath.Base(event.Name)
	if base == "libraryfolders.vdf" {
		return true
	}
	return strings.HasPrefix(base, "appmanifest_") && strings.HasSuffix(base, ".acf")
}
