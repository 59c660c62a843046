// Package recovery keeps the append-only ledger of deleted branches that
// makes cleanup reversible. Every destructive path writes here before it
// deletes anything.
package recovery

import (
	"context"
	"crypto/sha1"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bral/git-tend/internal/gitcmd"
	"github.com/bral/git-tend/internal/storage"
	"github.com/bral/git-tend/internal/types"
)

// MaxEntries caps the ledger; the oldest entry is evicted first.
const MaxEntries = 50

// ErrObjectMissing means the recorded commit has been garbage-collected and
// the branch cannot be restored.
var ErrObjectMissing = errors.New("recorded commit no longer exists")

// ErrNameCollision means a branch with the recorded name already exists;
// restoration never overwrites an existing branch.
var ErrNameCollision = errors.New("a branch with that name already exists")

// ErrEntryNotFound means no ledger entry matches the given name and hash.
var ErrEntryNotFound = errors.New("no matching recovery entry")

// Log is the per-repository recovery ledger, persisted as JSON under the
// git-tend data directory. Entries are ordered newest first.
type Log struct {
	repoPath string
	filePath string
	entries  []types.RecoveryEntry
}

// Open loads (or initializes) the recovery log for a repository. A missing
// file is an empty log, not an error.
func Open(repoPath string) (*Log, error) {
	dir, err := storage.Dir()
	if err != nil {
		return nil, fmt.Errorf("could not resolve data directory: %w", err)
	}
	return OpenAt(repoPath, filepath.Join(dir, "recovery", fileNameFor(repoPath)))
}

// OpenAt is Open with an explicit file path, for tests.
func OpenAt(repoPath, filePath string) (*Log, error) {
	l := &Log{repoPath: repoPath, filePath: filePath}
	if err := storage.LoadJSON(filePath, &l.entries); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("could not load recovery log %q: %w", filePath, err)
		}
	}
	return l, nil
}

// Add records a deletion at the head of the ledger and evicts the oldest
// entries beyond the cap. Callers must Add before running the delete.
func (l *Log) Add(entry types.RecoveryEntry) error {
	l.entries = append([]types.RecoveryEntry{entry}, l.entries...)
	if len(l.entries) > MaxEntries {
		l.entries = l.entries[:MaxEntries]
	}
	return l.save()
}

// List returns the entries, newest first. The returned slice is a copy.
func (l *Log) List() []types.RecoveryEntry {
	out := make([]types.RecoveryEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries currently held.
func (l *Log) Len() int { return len(l.entries) }

// Remove drops the entry matching both name and hash. A branch name alone is
// not unique across recreations, so both fields must match exactly.
func (l *Log) Remove(branchName, commitHash string) error {
	for i, e := range l.entries {
		if e.BranchName == branchName && e.CommitHash == commitHash {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return l.save()
		}
	}
	return ErrEntryNotFound
}

// Restore recreates a deleted branch at its recorded commit. It fails with
// ErrObjectMissing when the commit has been garbage-collected and with
// ErrNameCollision when the name is already taken; neither case is retried.
// On success the matching ledger entry is removed.
func (l *Log) Restore(ctx context.Context, branchName, commitHash string) error {
	found := false
	for _, e := range l.entries {
		if e.BranchName == branchName && e.CommitHash == commitHash {
			found = true
			break
		}
	}
	if !found {
		return ErrEntryNotFound
	}

	if !gitcmd.ObjectExists(ctx, l.repoPath, commitHash) {
		return fmt.Errorf("cannot restore %q: %w", branchName, ErrObjectMissing)
	}
	if gitcmd.BranchExists(ctx, l.repoPath, branchName) {
		return fmt.Errorf("cannot restore %q: %w", branchName, ErrNameCollision)
	}

	if err := gitcmd.CreateBranchAt(ctx, l.repoPath, branchName, commitHash); err != nil {
		return err
	}

	return l.Remove(branchName, commitHash)
}

func (l *Log) save() error {
	if err := storage.SaveJSON(l.filePath, l.entries); err != nil {
		return fmt.Errorf("could not save recovery log %q: %w", l.filePath, err)
	}
	return nil
}

// fileNameFor derives a stable, filesystem-safe file name from a repository
// path: its base name plus a short hash of the full path, so two repos with
// the same directory name don't share a ledger.
func fileNameFor(repoPath string) string {
	abs, err := filepath.Abs(repoPath)
	if err != nil {
		abs = repoPath
	}
	sum := sha1.Sum([]byte(abs))
	return fmt.Sprintf("%s-%x.json", filepath.Base(abs), sum[:4])
}
