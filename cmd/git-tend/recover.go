package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bral/git-tend/internal/recovery"
)

var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Undo branch deletions",
	Long: `Every branch git-tend deletes is recorded with its commit hash. As
long as the commit has not been garbage collected, the branch can be
restored exactly where it was.`,
}

var recoverListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recoverable deletions, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		log, err := openRecoveryLog(cmd)
		if err != nil {
			return err
		}

		entries := log.List()
		if len(entries) == 0 {
			fmt.Println("Nothing to recover.")
			return nil
		}
		for _, entry := range entries {
			when := time.Unix(entry.DeletedAt, 0).Format("2006-01-02 15:04")
			fmt.Printf("%s  %-30s %.12s  %s\n", when, entry.BranchName, entry.CommitHash, entry.Reason)
		}
		return nil
	},
}

var recoverRestoreCmd = &cobra.Command{
	Use:   "restore <branch> [hash]",
	Short: "Recreate a deleted branch at its recorded commit",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := openRecoveryLog(cmd)
		if err != nil {
			return err
		}

		name, hash, err := resolveEntry(log, args)
		if err != nil {
			return err
		}

		switch err := log.Restore(cmd.Context(), name, hash); {
		case err == nil:
			fmt.Printf("Restored %s at %.12s\n", name, hash)
			return nil
		case errors.Is(err, recovery.ErrObjectMissing):
			return fmt.Errorf("commit %.12s no longer exists (garbage collected?); cannot restore %s", hash, name)
		case errors.Is(err, recovery.ErrNameCollision):
			return fmt.Errorf("a branch named %s already exists; delete or rename it first", name)
		default:
			return err
		}
	},
}

var recoverDismissCmd = &cobra.Command{
	Use:   "dismiss <branch> [hash]",
	Short: "Drop an entry from the recovery list without restoring it",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := openRecoveryLog(cmd)
		if err != nil {
			return err
		}

		name, hash, err := resolveEntry(log, args)
		if err != nil {
			return err
		}
		if err := log.Remove(name, hash); err != nil {
			return err
		}
		fmt.Printf("Dismissed %s\n", name)
		return nil
	},
}

func openRecoveryLog(cmd *cobra.Command) (*recovery.Log, error) {
	repoPath, err := requireRepo(cmd.Context())
	if err != nil {
		return nil, err
	}
	return recovery.Open(repoPath)
}

// resolveEntry turns "branch [hash]" arguments into an exact entry reference.
// Without a hash it picks the newest entry for that branch name, and errors
// when the name is ambiguous across different hashes.
func resolveEntry(log *recovery.Log, args []string) (name, hash string, err error) {
	name = args[0]
	if len(args) == 2 {
		return name, args[1], nil
	}

	for _, entry := range log.List() {
		if entry.BranchName != name {
			continue
		}
		if hash != "" && hash != entry.CommitHash {
			return "", "", fmt.Errorf(
				"multiple deletions recorded for %s; pass the commit hash (see 'git-tend recover list')", name)
		}
		if hash == "" {
			hash = entry.CommitHash
		}
	}
	if hash == "" {
		return "", "", fmt.Errorf("no recorded deletion for %s", name)
	}
	return name, hash, nil
}

func init() {
	recoverCmd.AddCommand(recoverListCmd, recoverRestoreCmd, recoverDismissCmd)
	rootCmd.AddCommand(recoverCmd)
}
