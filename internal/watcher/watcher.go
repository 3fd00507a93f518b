// Package watcher invalidates cached analyses when files under a watched
// project change. Events are debounced so an editor save burst produces one
// invalidation, and only events on analyzable files count.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/codescope/codescope/internal/debug"
	"github.com/codescope/codescope/internal/types"
)

// DefaultDebounce is the quiet period required before the callback fires.
const DefaultDebounce = 500 * time.Millisecond

// skipDirs are never watched.
var skipDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
	"__pycache__":  true,
	".venv":        true,
	"venv":         true,
	"dist":         true,
	"build":        true,
	"coverage":     true,
	".next":        true,
	"vendor":       true,
}

// Watcher monitors one project root and fires a callback after a debounced
// burst of relevant file events.
type Watcher struct {
	root     string
	fsw      *fsnotify.Watcher
	debounce time.Duration
	onChange func(root string)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a watcher for root. onChange runs once per debounced burst
// with the watched root as its argument. A non-positive debounce falls back
// to the default.
func New(root string, debounce time.Duration, onChange func(root string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		root:     filepath.Clean(root),
		fsw:      fsw,
		debounce: debounce,
		onChange: onChange,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Start adds watches for every directory under the root and begins
// processing events.
func (w *Watcher) Start() error {
	err := filepath.WalkDir(w.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable subtrees
		}
		if !entry.IsDir() {
			return nil
		}
		if path != w.root && skipDirs[entry.Name()] {
			return filepath.SkipDir
		}
		if addErr := w.fsw.Add(path); addErr != nil {
			debug.LogWatcher("failed to watch %s: %v\n", path, addErr)
		}
		return nil
	})
	if err != nil {
		return err
	}

	w.wg.Add(1)
	go w.run()

	debug.LogWatcher("watching %s\n", w.root)
	return nil
}

// Stop cancels event processing and closes the underlying watcher.
func (w *Watcher) Stop() error {
	w.cancel()
	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

// run drains fsnotify events, arming a debounce timer on each relevant one.
func (w *Watcher) run() {
	defer w.wg.Done()

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-w.ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			debug.LogWatcher("event %s on %s\n", event.Op, event.Name)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			debug.LogWatcher("error: %v\n", err)

		case <-timerC:
			timer = nil
			timerC = nil
			if w.onChange != nil {
				w.onChange(w.root)
			}
		}
	}
}

// relevant filters to create/write/remove/rename events on analyzable files.
// Newly created directories get watched so later files inside them are seen.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	op := event.Op & (fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename)
	if op == 0 {
		return false
	}

	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !skipDirs[filepath.Base(event.Name)] {
				if err := w.fsw.Add(event.Name); err != nil {
					debug.LogWatcher("failed to watch new dir %s: %v\n", event.Name, err)
				}
			}
			return false
		}
	}

	return types.KindForPath(event.Name) != types.KindUnknown
}
