package main

import (
	"io/fs"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kcsearch/kcs/internal/index"
	"github.com/kcsearch/kcs/internal/walk"
)

// debounceWindow coalesces a burst of filesystem events (a save that
// fires both a WRITE and a CHMOD, a git checkout touching hundreds of
// files) into a single Update call.
const debounceWindow = 300 * time.Millisecond

// watch runs until the process is killed, re-invoking index.Update
// against root whenever fsnotify reports a write, create, remove, or
// rename under the watched tree, debounced so a burst of events
// triggers at most one rebuild. This is the one place in the
// repository that loops around blocking I/O (SPEC_FULL.md §5); the
// loop itself is both the sole writer and the sole watcher, so the
// single-writer invariant holds by construction.
func watch(ix *index.Index, root string, w walk.Walker) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := addTree(watcher, root); err != nil {
		return err
	}

	var timer *time.Timer
	pending := make(chan struct{}, 1)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.AfterFunc(debounceWindow, func() {
					select {
					case pending <- struct{}{}:
					default:
					}
				})
			} else {
				timer.Reset(debounceWindow)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("watch: %s", err)
		case <-pending:
			changed, err := index.Update(ix, root, w, nil)
			if err != nil {
				log.Printf("update: %s", err)
				continue
			}
			if changed {
				log.Printf("index updated: %d documents, %d trigrams", ix.DocumentCount(), ix.NgramCount())
			}
		}
	}
}

// addTree registers every directory under root with watcher; fsnotify
// watches are not recursive on any platform.
func addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d == nil || !d.IsDir() {
			return nil
		}
		return watcher.Add(path)
	})
}
