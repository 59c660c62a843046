package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bral/git-tend/internal/config"
	"github.com/bral/git-tend/internal/gitcmd"
)

var goneCmd = &cobra.Command{
	Use:   "gone",
	Short: "Clean up branches whose remote counterpart was deleted",
	Long: `Lists every local branch whose upstream is marked gone, typically
because its pull request merged and the remote branch was deleted,
and offers to remove them.`,
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

		// The explicit command always asks; "notify" mode would only point
		// back at this command.
		appConfig.GoneResponse = config.GonePrompt

		eng := newEngine(cmd)
		snaps := eng.Builder().Build(ctx, repoPath)

		// A fresh detector treats everything currently gone as a finding,
		// which is exactly what an explicit invocation wants.
		eng.RunGoneDetection(ctx, repoPath, snaps)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(goneCmd)
}
