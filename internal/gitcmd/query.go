package gitcmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bral/git-tend/internal/logging"
	"github.com/bral/git-tend/internal/types"
)

const (
	// Format: name<NULL>upstream:short<NULL>upstream:track<NULL>committerdate:iso8601<NULL>objectname<NULL>authorname<NEWLINE>
	// Using the NULL character (\x00) as the field separator and newline (\n) as the record separator.
	branchRefFormat = "%(refname:short)%00%(upstream:short)%00%(upstream:track)%00%(committerdate:iso8601)%00%(objectname)%00%(authorname)"
	fieldSeparator  = "\x00"

	// goneMarker is what upstream:track prints when the tracking ref's target
	// has been deleted on the remote.
	goneMarker = "[gone]"
)

// ListBranches fetches details for all local branches using git for-each-ref.
// It parses the output into a slice of BranchRef structs. Malformed records
// are skipped with a warning rather than failing the whole listing.
func ListBranches(ctx context.Context, repoPath string) ([]types.BranchRef, error) {
	args := repoArgs(repoPath,
		"for-each-ref",
		"refs/heads/", // Limit to local branches
		"--format="+branchRefFormat,
	)

	output, err := RunGitCommand(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute git for-each-ref: %w", err)
	}

	output = strings.TrimSpace(output)
	if output == "" {
		// No local branches at all (e.g., a freshly initialized repo).
		return []types.BranchRef{}, nil
	}

	var branches []types.BranchRef
	for _, record := range strings.Split(output, "\n") {
		if record == "" {
			continue
		}

		fields := strings.Split(record, fieldSeparator)
		if len(fields) != 6 {
			logging.Logger.Warn("skipping malformed branch record from git",
				"expected_fields", 6, "got_fields", len(fields), "record", record)
			continue
		}

		name := fields[0]
		upstream := fields[1]
		track := fields[2]
		dateStr := fields[3] // Format: "YYYY-MM-DD HH:MM:SS +/-ZZZZ"
		hash := fields[4]
		author := fields[5]

		commitDate, err := time.Parse("2006-01-02 15:04:05 -0700", dateStr)
		if err != nil {
			logging.Logger.Warn("skipping branch due to date parse error",
				"branch", name, "date", dateStr, "error", err)
			continue
		}

		branches = append(branches, types.BranchRef{
			Name:           name,
			Upstream:       upstream,
			UpstreamGone:   strings.Contains(track, goneMarker),
			LastCommitDate: commitDate,
			CommitHash:     hash,
			Author:         author,
		})
	}

	return branches, nil
}

// CurrentBranch returns the name of the currently checked-out branch.
// A detached HEAD yields an empty string and no error.
func CurrentBranch(ctx context.Context, repoPath string) (string, error) {
	args := repoArgs(repoPath, "branch", "--show-current")
	output, err := RunGitCommand(ctx, args...)
	if err != nil {
		return "", fmt.Errorf("failed to determine current branch: %w", err)
	}
	return strings.TrimSpace(output), nil
}

// BaseBranch resolves the repository's base branch from the origin HEAD
// symbolic ref (e.g., "refs/remotes/origin/main" -> "main").
func BaseBranch(ctx context.Context, repoPath string) (string, error) {
	args := repoArgs(repoPath, "symbolic-ref", "refs/remotes/origin/HEAD", "--short")
	output, err := RunGitCommand(ctx, args...)
	if err != nil {
		return "", fmt.Errorf("failed to resolve origin HEAD: %w", err)
	}
	// Output looks like "origin/main"; strip the remote prefix.
	_, base, found := strings.Cut(strings.TrimSpace(output), "/")
	if !found || base == "" {
		return "", fmt.Errorf("unexpected origin HEAD ref: %q", output)
	}
	return base, nil
}

// MergedBranches returns a map of branch names that are fully merged
// into the given base branch or hash. The map value is always true.
func MergedBranches(ctx context.Context, repoPath, base string) (map[string]bool, error) {
	if base == "" {
		return nil, fmt.Errorf("base branch cannot be empty")
	}
	args := repoArgs(repoPath, "branch", "--merged", base, "--format=%(refname:short)")
	output, err := RunGitCommand(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get merged branches for %q: %w", base, err)
	}

	merged := make(map[string]bool)
	for _, line := range strings.Split(output, "\n") {
		name := strings.TrimSpace(line)
		if name != "" {
			merged[name] = true
		}
	}
	return merged, nil
}

// AheadBehind returns how many commits branch is ahead of and behind base.
func AheadBehind(ctx context.Context, repoPath, base, branch string) (ahead, behind int, err error) {
	if base == "" || branch == "" {
		return 0, 0, fmt.Errorf("base and branch are required for ahead/behind")
	}
	args := repoArgs(repoPath, "rev-list", "--left-right", "--count", base+"..."+branch)
	output, err := RunGitCommand(ctx, args...)
	if err != nil {
		return 0, 0, fmt.Errorf("failed rev-list for %q against %q: %w", branch, base, err)
	}

	// Output: "BEHIND<TAB>AHEAD". The left side counts commits only on base.
	parts := strings.Fields(strings.TrimSpace(output))
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("unexpected rev-list output for %q: %q", branch, output)
	}
	behind, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("failed to parse behind count %q: %w", parts[0], err)
	}
	ahead, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("failed to parse ahead count %q: %w", parts[1], err)
	}
	return ahead, behind, nil
}

// CommitHash retrieves the full commit hash for the specified ref.
func CommitHash(ctx context.Context, repoPath, ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("ref cannot be empty")
	}
	args := repoArgs(repoPath, "rev-parse", ref)
	hash, err := RunGitCommand(ctx, args...)
	if err != nil {
		return "", fmt.Errorf("failed to get hash for %q: %w", ref, err)
	}
	if hash == "" {
		return "", fmt.Errorf("no hash returned for %q (does it exist?)", ref)
	}
	return hash, nil
}

// ObjectExists reports whether the given commit object is still reachable in
// the object database (it may have been garbage-collected after a deletion).
func ObjectExists(ctx context.Context, repoPath, hash string) bool {
	if hash == "" {
		return false
	}
	args := repoArgs(repoPath, "cat-file", "-e", hash+"^{commit}")
	_, err := RunGitCommand(ctx, args...)
	return err == nil
}

// BranchExists reports whether a local branch with the given name exists.
func BranchExists(ctx context.Context, repoPath, name string) bool {
	args := repoArgs(repoPath, "show-ref", "--verify", "--quiet", "refs/heads/"+name)
	_, err := RunGitCommand(ctx, args...)
	return err == nil
}

// Identity returns the configured git user.name for the repository.
// Callers treat failure as "identity unknown", never as an empty identity.
func Identity(ctx context.Context, repoPath string) (string, error) {
	args := repoArgs(repoPath, "config", "user.name")
	output, err := RunGitCommand(ctx, args...)
	if err != nil {
		return "", fmt.Errorf("failed to read git identity: %w", err)
	}
	name := strings.TrimSpace(output)
	if name == "" {
		return "", fmt.Errorf("git identity is not configured")
	}
	return name, nil
}

// RemoteURL returns the fetch URL of the named remote.
func RemoteURL(ctx context.Context, repoPath, remote string) (string, error) {
	if remote == "" {
		remote = "origin"
	}
	args := repoArgs(repoPath, "remote", "get-url", remote)
	output, err := RunGitCommand(ctx, args...)
	if err != nil {
		return "", fmt.Errorf("failed to get URL for remote %q: %w", remote, err)
	}
	return strings.TrimSpace(output), nil
}

// IsInGitRepo checks if the given path is within a Git working tree.
func IsInGitRepo(ctx context.Context, repoPath string) (bool, error) {
	args := repoArgs(repoPath, "rev-parse", "--is-inside-work-tree")
	output, err := RunGitCommand(ctx, args...)
	if err != nil {
		// The command failing is the expected "not a repo" signal.
		return false, nil
	}
	return output == "true", nil
}
