package forge

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/bral/git-tend/internal/types"
)

// GitLab implements Forge for GitLab repositories using the glab CLI.
type GitLab struct{}

// Name returns "gitlab".
func (g *GitLab) Name() string {
	return "gitlab"
}

type glabMR struct {
	IID    int    `json:"iid"`
	State  string `json:"state"` // opened, merged, closed
	Title  string `json:"title"`
	WebURL string `json:"web_url"`
}

// PRForBranch fetches MR info for a branch using the glab CLI. GitLab states
// are normalized to the GitHub-style OPEN/MERGED/CLOSED the rest of the
// program expects.
func (g *GitLab) PRForBranch(ctx context.Context, repoPath, branch string) (*types.PRStatus, error) {
	cmd := exec.CommandContext(ctx, "glab", "mr", "list",
		"--source-branch", branch,
		"--all",
		"--output", "json")
	cmd.Dir = repoPath

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("glab command failed: %w", err)
	}

	var mrs []glabMR
	if err := json.Unmarshal(output, &mrs); err != nil {
		return nil, fmt.Errorf("failed to parse glab output: %w", err)
	}
	if len(mrs) == 0 {
		return nil, nil // No MR for this branch
	}

	state := strings.ToUpper(mrs[0].State)
	if state == "OPENED" {
		state = "OPEN"
	}

	return &types.PRStatus{
		Number: mrs[0].IID,
		State:  state,
		Title:  mrs[0].Title,
		URL:    mrs[0].WebURL,
	}, nil
}
