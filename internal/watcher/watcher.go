// Package watcher reports edits to a single manifest file. A burst of
// filesystem events collapses into one notification once the file has been
// quiet for a while, so an editor's save sequence triggers a single reload.
package watcher

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/walkabout/internal/log"
)

// Config selects the watched file and how long it must stay quiet before a
// change is reported.
type Config struct {
	Path  string
	Quiet time.Duration
}

// DefaultConfig watches path with a 250ms quiet period.
func DefaultConfig(path string) Config {
	return Config{Path: path, Quiet: 250 * time.Millisecond}
}

// Watcher notifies when its file is written, created or renamed over.
type Watcher struct {
	target  string
	quiet   time.Duration
	fsw     *fsnotify.Watcher
	changes chan struct{}

	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a watcher for cfg.Path. Nothing is watched until Start.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	return &Watcher{
		target:  filepath.Clean(cfg.Path),
		quiet:   cfg.Quiet,
		fsw:     fsw,
		changes: make(chan struct{}, 1),
		stop:    make(chan struct{}),
	}, nil
}

// Start watches the file's directory, so saves that replace the file by
// rename are seen too. The returned channel receives one value per settled
// change; notifications are dropped while one is still pending.
func (w *Watcher) Start() (<-chan struct{}, error) {
	dir := filepath.Dir(w.target)
	if err := w.fsw.Add(dir); err != nil {
		return nil, fmt.Errorf("watching directory %s: %w", dir, err)
	}
	go w.run()
	return w.changes, nil
}

// Stop ends watching. It is safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stop)
		err = w.fsw.Close()
	})
	return err
}

func (w *Watcher) run() {
	// nil until an event for the target arrives; re-armed by each later one
	var settled <-chan time.Time
	for {
		select {
		case <-w.stop:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if w.touches(ev) {
				settled = time.After(w.quiet)
			}
		case <-settled:
			settled = nil
			w.notify()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatManifest, "Watch error", err, "path", w.target)
		}
	}
}

func (w *Watcher) touches(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return false
	}
	return filepath.Clean(ev.Name) == w.target
}

func (w *Watcher) notify() {
	select {
	case w.changes <- struct{}{}:
	default:
	}
}
