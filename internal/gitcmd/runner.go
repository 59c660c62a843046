// Package gitcmd wraps every git invocation the tool makes. All calls go
// through the package-level Runner so tests can substitute a fake without
// touching a real repository.
package gitcmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// GitRunner executes one git command and returns its trimmed stdout.
type GitRunner func(ctx context.Context, args ...string) (stdout string, err error)

// Runner is the active implementation. Tests swap it for a mock and restore
// it afterwards.
var Runner GitRunner = execGit

const defaultTimeout = 30 * time.Second

// execGit runs git as a subprocess. Contexts without a deadline get the
// package default so a hung remote cannot stall a pass forever.
func execGit(ctx context.Context, args ...string) (string, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTimeout)
		defer cancel()
	}

	var out, errOut bytes.Buffer
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Stdout = &out
	cmd.Stderr = &errOut

	if err := cmd.Run(); err != nil {
		return strings.TrimSpace(out.String()),
			fmt.Errorf("git %s: %w\nstderr: %s",
				strings.Join(args, " "), err, strings.TrimSpace(errOut.String()))
	}
	return strings.TrimSpace(out.String()), nil
}

// RunGitCommand dispatches through Runner. Every function in this package
// uses it rather than calling execGit directly.
func RunGitCommand(ctx context.Context, args ...string) (string, error) {
	if Runner == nil {
		return "", errors.New("gitcmd: Runner is nil")
	}
	return Runner(ctx, args...)
}

// repoArgs prefixes args with "-C <repoPath>" so every query can be scoped to
// an arbitrary repository without changing the process working directory.
// An empty repoPath means the current directory.
func repoArgs(repoPath string, args ...string) []string {
	if repoPath == "" {
		return args
	}
	return append([]string{"-C", repoPath}, args...)
}
