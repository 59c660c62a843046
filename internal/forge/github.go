package forge

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"

	"github.com/bral/git-tend/internal/types"
)

// GitHub implements Forge for GitHub repositories using the gh CLI.
type GitHub struct{}

// Name returns "github".
func (g *GitHub) Name() string {
	return "github"
}

type ghPR struct {
	Number int    `json:"number"`
	State  string `json:"state"` // OPEN, MERGED, CLOSED
	Title  string `json:"title"`
	URL    string `json:"url"`
}

// PRForBranch fetches PR info for a branch using the gh CLI. The lookup runs
// in the repository directory so gh resolves the right remote.
func (g *GitHub) PRForBranch(ctx context.Context, repoPath, branch string) (*types.PRStatus, error) {
	cmd := exec.CommandContext(ctx, "gh", "pr", "list",
		"--head", branch,
		"--state", "all",
		"--json", "number,state,title,url",
		"--limit", "1")
	cmd.Dir = repoPath

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("gh command failed: %w", err)
	}

	var prs []ghPR
	if err := json.Unmarshal(output, &prs); err != nil {
		return nil, fmt.Errorf("failed to parse gh output: %w", err)
	}
	if len(prs) == 0 {
		return nil, nil // No PR for this branch
	}

	return &types.PRStatus{
		Number: prs[0].Number,
		State:  prs[0].State,
		Title:  prs[0].Title,
		URL:    prs[0].URL,
	}, nil
}
