package daemon

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/anrosca/softice/internal/logfields"
)

// Watcher monitors the site input trees and forwards change notifications
// to the debouncer. fsnotify does not watch recursively, so every directory
// is registered individually and newly created directories are added on the
// fly.
type Watcher struct {
	watcher   *fsnotify.Watcher
	debouncer *Debouncer

	// restricted maps a watched directory to the basenames that matter in
	// it. Used for the config file: its directory is watched, but events
	// for sibling files (like the output dir) must not trigger rebuilds.
	restricted map[string]map[string]bool
}

// NewWatcher watches the given roots. Missing roots are skipped; a site may
// have no static or layouts directory.
func NewWatcher(debouncer *Debouncer, roots ...string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	w := &Watcher{watcher: fsw, debouncer: debouncer, restricted: map[string]map[string]bool{}}

	for _, root := range roots {
		if root == "" {
			continue
		}
		if err := w.addTree(root); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && p == root {
				return fs.SkipAll
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && p != root {
			return fs.SkipDir
		}
		if err := w.watcher.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		return nil
	})
}

// WatchFile watches a single file by registering its directory and
// filtering out events for everything else in it. Watching the directory is
// more reliable than watching the file: editors replace files on save.
func (w *Watcher) WatchFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	dir := filepath.Dir(abs)
	if w.restricted[dir] == nil {
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		w.restricted[dir] = map[string]bool{}
	}
	w.restricted[dir][filepath.Base(abs)] = true
	return nil
}

// Run pumps filesystem events until the context is canceled.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if isIgnorable(event.Name) {
				continue
			}
			if allowed, ok := w.restricted[filepath.Dir(event.Name)]; ok && !allowed[filepath.Base(event.Name)] {
				continue
			}
			if event.Op.Has(fsnotify.Create) {
				if st, err := os.Stat(event.Name); err == nil && st.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						slog.Warn("Failed to watch new directory",
							logfields.Path(event.Name), logfields.Error(err))
					}
				}
			}
			slog.Debug("Change detected",
				logfields.Path(event.Name),
				slog.String("op", event.Op.String()))
			w.debouncer.Trigger()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("File watcher error", logfields.Error(err))
		}
	}
}

// Close releases the underlying fsnotify watcher.
func (w *Watcher) Close() error { return w.watcher.Close() }

// isIgnorable filters editor noise: hidden files, backup suffixes.
func isIgnorable(name string) bool {
	base := filepath.Base(name)
	return strings.HasPrefix(base, ".") ||
		strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp")
}
