package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bral/git-tend/internal/forge"
	"github.com/bral/git-tend/internal/gitcmd"
	"github.com/bral/git-tend/internal/types"
)

var (
	reportHeaderStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	reportScoreStyles = map[types.HealthStatus]lipgloss.Style{
		types.HealthHealthy:  lipgloss.NewStyle().Foreground(lipgloss.Color("78")),
		types.HealthWarning:  lipgloss.NewStyle().Foreground(lipgloss.Color("202")),
		types.HealthCritical: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		types.HealthDanger:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show a health report for every local branch",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		repoPath, err := requireRepo(ctx)
		if err != nil {
			return err
		}

		remoteName, _ := cmd.Flags().GetString("remote")
		if err := gitcmd.FetchAndPrune(ctx, repoPath, remoteName); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: fetch from %q failed, working from the last known remote state: %v\n",
				remoteName, err)
		}

		eng := newEngine(cmd)
		snaps := eng.Builder().Build(ctx, repoPath)
		if len(snaps) == 0 {
			fmt.Println("No local branches found.")
			return nil
		}

		withPRs, _ := cmd.Flags().GetBool("prs")
		if withPRs {
			attachPRStatus(cmd, repoPath, snaps)
		}

		fmt.Println(reportHeaderStyle.Render(fmt.Sprintf("%-30s %5s  %-8s  %s", "BRANCH", "SCORE", "STATUS", "DETAIL")))
		for _, b := range snaps {
			style, ok := reportScoreStyles[b.HealthStatus]
			if !ok {
				style = lipgloss.NewStyle()
			}

			detail := b.HealthReason
			if b.LinkedIssue != "" {
				detail += "  issue:" + b.LinkedIssue
			}
			if b.PR != nil {
				detail += fmt.Sprintf("  PR #%d %s", b.PR.Number, b.PR.State)
			}

			marker := " "
			if b.IsCurrent {
				marker = "*"
			}
			fmt.Printf("%s%-29s %s  %-8s  %s\n",
				marker, b.Name,
				style.Render(fmt.Sprintf("%5d", b.HealthScore)),
				b.HealthStatus, detail)
		}
		return nil
	},
}

// attachPRStatus enriches snapshots with PR state from the detected forge.
// Lookup failures leave the snapshot without PR info rather than failing the
// report.
func attachPRStatus(cmd *cobra.Command, repoPath string, snaps []types.BranchSnapshot) {
	ctx := cmd.Context()

	f, err := forge.Detect(ctx, repoPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not detect a forge for PR lookups: %v\n", err)
		return
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(5)
	for i := range snaps {
		if !snaps[i].HasRemote {
			continue
		}
		i := i // per-iteration copy for Go <1.22 loop semantics
		group.Go(func() error {
			pr, prErr := f.PRForBranch(groupCtx, repoPath, snaps[i].Name)
			if prErr != nil || pr == nil {
				return nil
			}
			snaps[i].PR = pr
			return nil
		})
	}
	_ = group.Wait()
}

func init() {
	reportCmd.Flags().Bool("prs", false, "Look up pull request status for each branch (requires gh or glab).")
	rootCmd.AddCommand(reportCmd)
}
