// SPDX-FileCopyrightText: 2026 specforge
// SPDX-License-Identifier: FSL-1.1-MIT

// Package watcher triggers regeneration when input files change.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/specforge/specforge/internal/logging"
)

// DefaultDebounce is used when Options.Debounce is zero.
const DefaultDebounce = 500 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	// Paths are files or directories to watch. Directories are watched
	// recursively.
	Paths []string

	// Debounce is the quiet period before a batch of changes is delivered
	Debounce time.Duration

	// Filter selects relevant files below watched directories. Explicitly
	// listed files are always relevant.
	Filter func(path string) bool

	// SkipDir excludes directories from recursive watching
	SkipDir func(path string) bool
}

// Event is a debounced batch of changes.
type Event struct {
	// Paths are the changed files, sorted
	Paths []string
}

// Handler is called once per debounced batch.
type Handler func(ctx context.Context, e Event) error

// Watcher watches files and directories for changes.
type Watcher struct {
	fs    *fsnotify.Watcher
	opts  Options
	files map[string]bool
	roots []string
	log   *logrus.Entry
}

// New creates a watcher for the configured paths.
func New(opts Options) (*Watcher, error) {
	if len(opts.Paths) == 0 {
		return nil, fmt.Errorf("no paths to watch")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &Watcher{
		fs:    fsw,
		opts:  opts,
		files: make(map[string]bool),
		log:   logging.WithFields(logrus.Fields{"component": "watcher"}),
	}

	for _, p := range opts.Paths {
		if err := w.add(p); err != nil {
			fsw.Close()
			return nil, err
		}
	}

	return w, nil
}

func (w *Watcher) add(p string) error {
	abs, err := filepath.Abs(p)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", p, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", p, err)
	}

	if !info.IsDir() {
		// Editors replace files on save, so the parent directory is watched.
		w.files[abs] = true
		return w.fs.Add(filepath.Dir(abs))
	}

	w.roots = append(w.roots, abs)
	return w.addTree(abs)
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != root && w.opts.SkipDir != nil && w.opts.SkipDir(path) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// WatchList returns the directories currently watched.
func (w *Watcher) WatchList() []string {
	list := w.fs.WatchList()
	sort.Strings(list)
	return list
}

func (w *Watcher) relevant(path string) bool {
	if w.files[path] {
		return true
	}
	for _, root := range w.roots {
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			return w.opts.Filter == nil || w.opts.Filter(path)
		}
	}
	return false
}

// Run delivers debounced change batches to h until ctx is done. Handler
// errors are logged and do not stop the watcher. The watcher is closed
// when Run returns.
func (w *Watcher) Run(ctx context.Context, h Handler) error {
	defer w.fs.Close()

	var (
		pending = make(map[string]struct{})
		timer   *time.Timer
		fire    <-chan time.Time
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
			if ev.Has(fsnotify.Create) && w.isRecursive(ev.Name) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.addTree(ev.Name); err != nil {
						w.log.WithError(err).Warn("failed to watch new directory")
					}
					continue
				}
			}
			if ev.Op == fsnotify.Chmod || !w.relevant(ev.Name) {
				continue
			}

			pending[ev.Name] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.opts.Debounce)
			} else {
				timer.Reset(w.opts.Debounce)
			}
			fire = timer.C

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.WithError(err).Warn("watch error")

		case <-fire:
			fire = nil
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			clear(pending)

			w.log.WithField("files", len(paths)).Debug("change detected")
			if err := h(ctx, Event{Paths: paths}); err != nil {
				w.log.WithError(err).Error("regeneration failed")
			}
		}
	}
}

func (w *Watcher) isRecursive(path string) bool {
	for _, root := range w.roots {
		if strings.HasPrefix(path, root+string(filepath.Separator)) {
			return w.opts.SkipDir == nil || !w.opts.SkipDir(path)
		}
	}
	return false
}
