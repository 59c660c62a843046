package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bral/git-tend/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [repo...]",
	Short: "Watch repositories and reconcile after every fetch",
	Long: `Watches the given repositories (default: the current one) for fetch
and merge activity. Each burst of activity triggers one reconciliation
pass once the repository has been quiet for half a second.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		repos := args
		if len(repos) == 0 {
			repoPath, err := requireRepo(ctx)
			if err != nil {
				return err
			}
			repos = []string{repoPath}
		}

		eng := newEngine(cmd)

		watcher, err := watch.New(func(repoPath string) {
			eng.OnFetchCompleted(ctx, repoPath)
		})
		if err != nil {
			return fmt.Errorf("could not start filesystem watcher: %w", err)
		}
		defer func() { _ = watcher.Close() }()

		for _, repoPath := range repos {
			if err := watcher.AddRepo(repoPath); err != nil {
				return fmt.Errorf("cannot watch %q: %w", repoPath, err)
			}
			// Remember what is already gone so startup state is not re-alerted.
			eng.InitializeGoneState(ctx, repoPath)
			fmt.Printf("Watching %s\n", repoPath)
		}

		if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		fmt.Println("\nStopped watching.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
