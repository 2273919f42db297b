// Package watch reports changes to floor asset files.
//
// Events arriving within the debounce window are collected and delivered as
// one batch, so an editor saving several floors, or writing one file in
// several steps, triggers a single rebuild.
package watch

import (
	"context"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period before a batch is delivered.
const DefaultDebounce = 500 * time.Millisecond

// Handler receives the sorted, deduplicated paths changed in one batch.
type Handler func(ctx context.Context, paths []string)

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration
	// Match selects the files of interest. Nil matches *.json.
	Match  func(path string) bool
	Logger *log.Logger
}

// Watcher delivers debounced change batches for a set of directories.
type Watcher struct {
	fs      *fsnotify.Watcher
	handler Handler
	opts    Options
}

// New watches dirs (not recursively). Events are buffered from the moment
// New returns, so files written before Run starts are still reported.
func New(dirs []string, handler Handler, opts Options) (*Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Match == nil {
		opts.Match = isJSON
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, dir := range dirs {
		if err := fw.Add(dir); err != nil {
			_ = fw.Close()
			return nil, err
		}
	}
	return &Watcher{fs: fw, handler: handler, opts: opts}, nil
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// Run delivers batches until ctx is done, then releases the watcher.
// A batch pending at cancellation is dropped.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()

	pending := make(map[string]struct{})
	var (
		timer  *time.Timer
		timerC <-chan time.Time
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

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
				continue
			}
			if !w.opts.Match(ev.Name) {
				continue
			}
			pending[ev.Name] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.opts.Debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.opts.Debounce)
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.opts.Logger.Warn("watch error", "err", err)

		case <-timerC:
			timer, timerC = nil, nil
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			clear(pending)
			slices.Sort(paths)
			w.opts.Logger.Debug("assets changed", "files", len(paths))
			w.handler(ctx, paths)
		}
	}
}
