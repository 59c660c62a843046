// Package gitcmd provides functions for interacting with the git command-line tool.
package gitcmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/bral/git-tend/internal/types"
)

// BranchToDelete holds information needed to delete a specific local branch.
type BranchToDelete struct {
	Name     string
	IsMerged bool   // Determines -d vs -D
	Hash     string // Recorded for recovery before the delete runs
}

// DeleteBranches attempts to delete the specified local branches.
// Merged branches use the safe form ("git branch -d"); unmerged ones are
// force-deleted ("git branch -D"). When dryRun is set, the commands are
// recorded but not executed. A failure on one branch never stops the rest;
// each attempt yields its own DeleteResult.
func DeleteBranches(ctx context.Context, repoPath string, branches []BranchToDelete, dryRun bool) []types.DeleteResult {
	results := make([]types.DeleteResult, 0, len(branches))

	for _, branch := range branches {
		var result types.DeleteResult
		result.BranchName = branch.Name

		var cmdArgs []string
		if branch.IsMerged {
			cmdArgs = []string{"branch", "-d", branch.Name} // Safe delete
		} else {
			cmdArgs = []string{"branch", "-D", branch.Name} // Force delete
		}
		result.Cmd = "git " + strings.Join(cmdArgs, " ")

		if dryRun {
			result.Success = true // Indicate success in dry-run context
			result.Message = fmt.Sprintf("Dry Run: Would execute: %s", result.Cmd)
			results = append(results, result)
			continue
		}

		_, err := RunGitCommand(ctx, repoArgs(repoPath, cmdArgs...)...)
		if err != nil {
			result.Success = false
			result.Message = fmt.Sprintf("Failed: %s", cleanGitError(err))
		} else {
			result.Success = true
			result.Message = "Successfully deleted"
			result.DeletedHash = branch.Hash
		}
		results = append(results, result)
	}

	return results
}

// CreateBranchAt creates a new local branch pointing at the given commit.
// It never overwrites an existing branch; git itself refuses that without -f,
// and we deliberately do not pass -f.
func CreateBranchAt(ctx context.Context, repoPath, name, hash string) error {
	if name == "" || hash == "" {
		return fmt.Errorf("branch name and commit hash are required")
	}
	_, err := RunGitCommand(ctx, repoArgs(repoPath, "branch", name, hash)...)
	if err != nil {
		return fmt.Errorf("failed to create branch %q at %s: %w", name, hash, err)
	}
	return nil
}

// cleanGitError extracts the stderr portion of a wrapped git error when
// present, so user-facing messages aren't a multi-line wall of text.
func cleanGitError(err error) string {
	errMsg := err.Error()
	if strings.Contains(errMsg, "stderr:") {
		parts := strings.SplitN(errMsg, "stderr:", 2)
		if len(parts) > 1 && strings.TrimSpace(parts[1]) != "" {
			return strings.TrimSpace(parts[1])
		}
	}
	return errMsg
}
