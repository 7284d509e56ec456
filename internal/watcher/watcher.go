// Package watcher turns filesystem events for one file into a coalesced
// "something changed" signal.
//
// The signal is a dirty flag, not an event queue: it is a channel of
// capacity one and a pending, unread signal absorbs every later change. The
// watcher never reads the file; consumers re-check it when they drain the flag.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"schedwatch/internal/eventbus"
	logx "schedwatch/pkg/logx"
)

// ErrSetup wraps failures to register the platform watch.
var ErrSetup = errors.New("watch setup failed")

const (
	defaultBackoffBase = 250 * time.Millisecond
	defaultBackoffMax  = 5 * time.Second
)

type Options struct {
	Log        logx.Logger
	Bus        eventbus.Bus
	BackoffMax time.Duration
}

type Watcher struct {
	path string
	dir  string
	file string

	log logx.Logger
	bus eventbus.Bus

	backoffMax time.Duration

	signal chan struct{}

	// newWatcher is swapped in tests to simulate setup failures.
	newWatcher func() (*fsnotify.Watcher, error)
}

func New(path string, opts Options) *Watcher {
	if opts.Log.IsZero() {
		opts.Log = logx.Nop()
	}
	if opts.BackoffMax <= 0 {
		opts.BackoffMax = defaultBackoffMax
	}
	return &Watcher{
		path:       path,
		dir:        filepath.Dir(path),
		file:       filepath.Base(path),
		log:        opts.Log,
		bus:        opts.Bus,
		backoffMax: opts.BackoffMax,
		signal:     make(chan struct{}, 1),
		newWatcher: fsnotify.NewWatcher,
	}
}

// Signal returns the receive side of the dirty flag.
func (w *Watcher) Signal() <-chan struct{} { return w.signal }

// Mark raises the dirty flag. It never blocks; if a signal is already
// pending the call is a no-op.
func (w *Watcher) Mark() {
	select {
	case w.signal <- struct{}{}:
	default:
	}
}

// Run watches until ctx is cancelled. Setup failures and broken watchers
// are reported on the bus and retried with a jittered exponential backoff,
// so callers keep running without live reload in the meantime.
func (w *Watcher) Run(ctx context.Context) error {
	base := defaultBackoffBase
	if base > w.backoffMax {
		base = w.backoffMax
	}
	backoff := base
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	sleep := func() bool {
		wait := backoff + time.Duration(rng.Int63n(int64(backoff/2)+1))
		if backoff < w.backoffMax {
			backoff *= 2
			if backoff > w.backoffMax {
				backoff = w.backoffMax
			}
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(wait):
			return true
		}
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		fw, err := w.open()
		if err != nil {
			w.log.Warn("watch setup failed; live reload paused", logx.Err(err), logx.String("dir", w.dir))
			eventbus.Publish(w.bus, eventbus.WatchSetupFailed, err, w.path)
			if !sleep() {
				return nil
			}
			continue
		}

		backoff = base
		w.log.Debug("watcher started", logx.String("dir", w.dir), logx.String("file", w.file))
		eventbus.Publish(w.bus, eventbus.WatchStarted, nil, w.path)

		werr := w.loop(ctx, fw)
		_ = fw.Close()
		if ctx.Err() != nil {
			return nil
		}
		w.log.Warn("watcher stopped; restarting", logx.Err(werr), logx.String("dir", w.dir))
		eventbus.Publish(w.bus, eventbus.WatchStopped, werr, w.path)
		// Changes may have been missed while the watcher was down.
		w.Mark()
		if !sleep() {
			return nil
		}
	}
}

func (w *Watcher) open() (*fsnotify.Watcher, error) {
	fw, err := w.newWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSetup, err)
	}
	// Watch the directory: editors often replace the file (rename/create),
	// which drops a watch on the file itself.
	if err := fw.Add(w.dir); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("%w: add %s: %v", ErrSetup, w.dir, err)
	}
	return fw, nil
}

// loop runs until the watcher breaks or ctx ends.
func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return errors.New("events channel closed")
			}
			if w.matches(ev) {
				w.log.Trace("schedule file event", logx.String("op", ev.Op.String()))
				w.Mark()
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return errors.New("errors channel closed")
			}
			if err == nil {
				continue
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				w.log.Warn("watch overflow; forcing reload", logx.Err(err))
				w.Mark()
				continue
			}
			w.log.Warn("watch error", logx.Err(err))
		}
	}
}

func (w *Watcher) matches(ev fsnotify.Event) bool {
	// Compare by basename (robust across absolute/relative paths).
	if !strings.EqualFold(filepath.Base(ev.Name), w.file) {
		return false
	}
	return ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove|fsnotify.Chmod) != 0
}
