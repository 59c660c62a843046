// Package watch turns filesystem activity in a repository's .git directory
// into "something happened to repository X" events for the engine. Fetches
// touch FETCH_HEAD and merges touch MERGE_HEAD/ORIG_HEAD; that level of
// detail is all the reconciler needs.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/bral/git-tend/internal/logging"
)

// Files inside .git whose writes signal a fetch or merge completed.
var triggerFiles = map[string]bool{
	"FETCH_HEAD": true,
	"MERGE_HEAD": true,
	"ORIG_HEAD":  true,
}

// Watcher maps .git-directory write events onto per-repository callbacks.
// The debouncing lives in the engine, not here; the watcher fires for every
// relevant write.
type Watcher struct {
	fs      *fsnotify.Watcher
	onEvent func(repoPath string)

	mu    sync.Mutex
	repos map[string]string // watched .git dir -> repository path
}

// New creates a watcher that calls onEvent with the repository path whenever
// a fetch or merge completes in one of the added repositories.
func New(onEvent func(repoPath string)) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("could not create filesystem watcher: %w", err)
	}
	return &Watcher{
		fs:      fs,
		onEvent: onEvent,
		repos:   make(map[string]string),
	}, nil
}

// AddRepo starts watching a repository's .git directory.
func (w *Watcher) AddRepo(repoPath string) error {
	gitDir := filepath.Join(repoPath, ".git")
	info, err := os.Stat(gitDir)
	if err != nil {
		return fmt.Errorf("cannot watch %q: %w", repoPath, err)
	}
	if !info.IsDir() {
		// Worktrees keep a .git file pointing elsewhere; watching those is
		// not supported yet.
		return fmt.Errorf("cannot watch %q: .git is not a directory", repoPath)
	}

	if err := w.fs.Add(gitDir); err != nil {
		return fmt.Errorf("cannot watch %q: %w", gitDir, err)
	}

	w.mu.Lock()
	w.repos[gitDir] = repoPath
	w.mu.Unlock()

	logging.Logger.Debug("watching repository", "repo", repoPath)
	return nil
}

// Run processes events until the context is cancelled or the watcher closes.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !triggerFiles[filepath.Base(event.Name)] {
				continue
			}

			w.mu.Lock()
			repoPath, known := w.repos[filepath.Dir(event.Name)]
			w.mu.Unlock()
			if !known {
				continue
			}

			logging.Logger.Debug("repository event", "repo", repoPath, "file", filepath.Base(event.Name))
			w.onEvent(repoPath)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			logging.Logger.Warn("filesystem watcher error", "error", err)
		}
	}
}

// Close releases the underlying filesystem watcher.
func (w *Watcher) Close() error {
	return w.fs.Close()
}
