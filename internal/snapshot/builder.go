// Package snapshot assembles the per-branch view one reconciliation pass
// works from: raw ref data, merge status, ahead/behind counts, and the
// computed health score.
package snapshot

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bral/git-tend/internal/gitcmd"
	"github.com/bral/git-tend/internal/health"
	"github.com/bral/git-tend/internal/logging"
	"github.com/bral/git-tend/internal/types"
)

// defaultBatchSize bounds how many ahead/behind git calls run concurrently.
const defaultBatchSize = 10

// Builder constructs BranchSnapshot lists for a repository under a cleanup
// policy. It fails soft: a repository whose branches cannot be listed yields
// an empty snapshot set, and per-branch enrichment failures degrade that one
// branch instead of aborting the pass.
type Builder struct {
	StaleDays  int
	BaseBranch string // empty means resolve from origin HEAD, falling back to "main"
	Protected  map[string]bool
	BatchSize  int // 0 means defaultBatchSize

	// now allows tests to pin the clock. Nil means time.Now.
	now func() time.Time
}

// Build returns the full snapshot list for the repository, sorted ascending
// by health score (worst first, name as tie-break).
func (b *Builder) Build(ctx context.Context, repoPath string) []types.BranchSnapshot {
	refs, err := gitcmd.ListBranches(ctx, repoPath)
	if err != nil {
		// Total backend unavailability aborts the pass with an empty result.
		logging.Logger.Warn("branch listing failed, skipping pass", "repo", repoPath, "error", err)
		return []types.BranchSnapshot{}
	}
	if len(refs) == 0 {
		return []types.BranchSnapshot{}
	}

	current, err := gitcmd.CurrentBranch(ctx, repoPath)
	if err != nil {
		logging.Logger.Warn("could not determine current branch", "repo", repoPath, "error", err)
		current = ""
	}

	base := b.resolveBase(ctx, repoPath)

	merged, err := gitcmd.MergedBranches(ctx, repoPath, base)
	if err != nil {
		// Unknown, not empty: treat every branch as unmerged rather than
		// pretend we checked.
		logging.Logger.Warn("merged-branch lookup failed", "repo", repoPath, "base", base, "error", err)
		merged = map[string]bool{}
	}

	now := time.Now
	if b.now != nil {
		now = b.now
	}

	snapshots := make([]types.BranchSnapshot, 0, len(refs))
	for _, ref := range refs {
		snap := types.BranchSnapshot{
			Name:        ref.Name,
			IsMerged:    merged[ref.Name],
			IsCurrent:   ref.Name == current,
			IsProtected: b.Protected[ref.Name] || ref.Name == base,
			DaysOld:     daysSince(now(), ref.LastCommitDate),
			Author:      ref.Author,
			HasRemote:   ref.Upstream != "",
			RemoteGone:  ref.UpstreamGone,
			TrackingRef: ref.Upstream,
			LinkedIssue: LinkedIssue(ref.Name),
			CommitHash:  ref.CommitHash,
		}
		snapshots = append(snapshots, snap)
	}

	b.enrichAheadBehind(ctx, repoPath, base, snapshots)

	for i := range snapshots {
		score, status, reason := health.Score(snapshots[i], b.StaleDays)
		snapshots[i].HealthScore = score
		snapshots[i].HealthStatus = status
		snapshots[i].HealthReason = reason
	}

	sort.SliceStable(snapshots, func(i, j int) bool {
		if snapshots[i].HealthScore != snapshots[j].HealthScore {
			return snapshots[i].HealthScore < snapshots[j].HealthScore
		}
		return snapshots[i].Name < snapshots[j].Name
	})

	return snapshots
}

// enrichAheadBehind fans out ahead/behind computation for non-merged,
// non-current branches in bounded-size concurrent batches. A failed lookup
// leaves that branch at zero ahead/behind; it never aborts the batch.
func (b *Builder) enrichAheadBehind(ctx context.Context, repoPath, base string, snapshots []types.BranchSnapshot) {
	batch := b.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batch)

	for i := range snapshots {
		if snapshots[i].IsMerged || snapshots[i].IsCurrent || snapshots[i].Name == base {
			continue
		}
		i := i // per-iteration copy for Go <1.22 loop semantics
		g.Go(func() error {
			ahead, behind, err := gitcmd.AheadBehind(gctx, repoPath, base, snapshots[i].Name)
			if err != nil {
				logging.Logger.Warn("ahead/behind lookup failed",
					"repo", repoPath, "branch", snapshots[i].Name, "error", err)
				return nil // Degrade to zero, never fail the group
			}
			snapshots[i].Ahead = ahead
			snapshots[i].Behind = behind
			return nil
		})
	}

	_ = g.Wait() // Always nil; failures were degraded per branch
}

func (b *Builder) resolveBase(ctx context.Context, repoPath string) string {
	if b.BaseBranch != "" {
		return b.BaseBranch
	}
	base, err := gitcmd.BaseBranch(ctx, repoPath)
	if err != nil || base == "" {
		logging.Logger.Debug("falling back to default base branch", "repo", repoPath, "error", err)
		return "main"
	}
	return base
}

func daysSince(now, then time.Time) int {
	days := int(now.Sub(then).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
