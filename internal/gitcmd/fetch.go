package gitcmd

import (
	"context"
	"errors"
	"fmt"
)

// FetchAndPrune updates remote-tracking refs and drops the stale ones, which
// is what flips upstream branches into the gone state. Callers treat a
// failure as a warning; a pass still runs against the last known state.
func FetchAndPrune(ctx context.Context, repoPath, remoteName string) error {
	if remoteName == "" {
		return errors.New("remote name is required for fetch --prune")
	}
	if _, err := RunGitCommand(ctx, repoArgs(repoPath, "fetch", remoteName, "--prune")...); err != nil {
		return fmt.Errorf("fetch --prune from %q failed: %w", remoteName, err)
	}
	return nil
}
