// Package forge looks up pull/merge request status for branches from a git
// hosting service, via the service's own CLI (gh or glab). The engine treats
// this as an external collaborator: a failed lookup just leaves the snapshot
// field empty.
package forge

import (
	"context"
	"fmt"
	"strings"

	"github.com/bral/git-tend/internal/gitcmd"
	"github.com/bral/git-tend/internal/types"
)

// Forge represents a git hosting service (GitHub, GitLab, ...).
type Forge interface {
	// Name returns the forge name ("github" or "gitlab").
	Name() string

	// PRForBranch fetches PR/MR info for a branch. A branch without an open
	// or merged PR yields (nil, nil).
	PRForBranch(ctx context.Context, repoPath, branch string) (*types.PRStatus, error)
}

// Detect picks a forge implementation from the repository's origin URL.
func Detect(ctx context.Context, repoPath string) (Forge, error) {
	url, err := gitcmd.RemoteURL(ctx, repoPath, "origin")
	if err != nil {
		return nil, fmt.Errorf("could not detect forge: %w", err)
	}

	switch {
	case strings.Contains(url, "github.com"):
		return &GitHub{}, nil
	case strings.Contains(url, "gitlab"):
		return &GitLab{}, nil
	default:
		return nil, fmt.Errorf("no known forge for remote %q", url)
	}
}
