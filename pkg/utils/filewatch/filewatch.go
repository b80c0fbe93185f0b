package filewatch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Modified starts watching pathes and streams a notice
// for each modification (= write, create, remove, or rename) under them.
//
// Directories are watched deeply: subdirectories found at start or
// created while watching are watched too. fsnotify itself watches a
// single directory level only.
//
// # Args
//
// - ctx: watching stops when ctx is Done.
//
// - pathes: files or directories to be watched.
//
// # Returns
//
// - <-chan string: receives the name of a modified file, once per event.
// The channel is closed when ctx is Done or the watcher breaks.
//
// - error: caused when it fails to start watching.
func Modified(ctx context.Context, pathes ...string) (<-chan string, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	for _, p := range pathes {
		if err := watchDeep(w, p); err != nil {
			w.Close()
			return nil, err
		}
	}

	ch := make(chan string)
	go func() {
		defer w.Close()
		defer close(ch)

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Create) {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						// the directory may be gone already; stream the event anyway
						_ = w.Add(event.Name)
					}
				}
				select {
				case ch <- event.Name:
				case <-ctx.Done():
					return
				}
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
				// watch errors are not fatal for the watched side; keep going.
			}
		}
	}()

	return ch, nil
}

func watchDeep(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p != root && !d.IsDir() {
			return nil
		}
		return w.Add(p)
	})
}
