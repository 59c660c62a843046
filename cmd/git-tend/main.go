package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bral/git-tend/internal/config"
	"github.com/bral/git-tend/internal/engine"
	"github.com/bral/git-tend/internal/gitcmd"
	"github.com/bral/git-tend/internal/logging"
	"github.com/bral/git-tend/internal/tui"
	"github.com/bral/git-tend/internal/types"
	"github.com/bral/git-tend/internal/version"
)

const appVersion = "0.3.0"

// appConfig is loaded once in PersistentPreRunE and shared by every command.
var appConfig config.Config

var rootCmd = &cobra.Command{
	Use:     "git-tend",
	Version: appVersion,
	Short:   "git-tend keeps local Git branches healthy",
	Long: `git-tend scores the health of your local branches, evaluates your
cleanup rules against them, and interactively proposes deletions.
Every deletion is recorded and can be undone with 'git-tend recover'.`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		debug, _ := cmd.Flags().GetBool("debug")
		if err := logging.Initialize(debug, ""); err != nil {
			return err
		}

		customConfigPath, _ := cmd.Flags().GetString("config")
		var err error
		appConfig, err = config.LoadConfig(customConfigPath)
		if err != nil {
			if !errors.Is(err, config.ErrConfigNotFound) {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			fmt.Println("No configuration found. Starting first-time setup...")
			appConfig, err = config.FirstRunSetup(bufio.NewReader(os.Stdin), os.Stdout)
			if err != nil {
				return fmt.Errorf("first-time setup failed: %w", err)
			}
			savedPath, saveErr := config.SaveConfig(appConfig, customConfigPath)
			if saveErr != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not save configuration to %q: %v\n", savedPath, saveErr)
			} else {
				fmt.Printf("Configuration saved to %q\n", savedPath)
			}
		}

		applyFlagOverrides(cmd, &appConfig)
		return nil
	},
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
			fmt.Println("No local branches found. Nothing to do.")
			return nil
		}

		if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
			printDryRun(eng.ProposeRules(ctx, repoPath, snaps))
			return nil
		}

		if up := version.Check(ctx, appVersion, &appConfig); up != nil {
			version.ShowUpdateNotification(appVersion, up)
		}

		eng.RunGoneDetection(ctx, repoPath, snaps)
		if len(appConfig.EnabledRules()) == 0 {
			fmt.Println("No cleanup rules enabled. Add one with 'git-tend rules add'.")
			return nil
		}
		eng.RunRules(ctx, repoPath, snaps)
		return nil
	},
}

// newEngine wires the engine for interactive use. With --yes the whole
// proposal is approved without the picker.
func newEngine(cmd *cobra.Command) *engine.Engine {
	confirm := tui.Confirmer()
	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		confirm = func(_ context.Context, p engine.Proposal) ([]types.BranchSnapshot, error) {
			return p.Candidates, nil
		}
	}
	return engine.New(appConfig, confirm, func(message string) {
		fmt.Println(message)
	})
}

// requireRepo resolves the working directory and insists it is a Git repo.
func requireRepo(ctx context.Context) (string, error) {
	repoPath, err := os.Getwd()
	if err != nil {
		return "", err
	}
	inRepo, err := gitcmd.IsInGitRepo(ctx, repoPath)
	if err != nil {
		return "", fmt.Errorf("could not check repository status: %w", err)
	}
	if !inRepo {
		return "", errors.New("not inside a Git repository")
	}
	return repoPath, nil
}

func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	if staleDays, _ := cmd.Flags().GetInt("stale-days"); staleDays > 0 {
		cfg.StaleDays = staleDays
	}
	if base, _ := cmd.Flags().GetString("base"); base != "" {
		cfg.BaseBranch = base
	}
	if protected, _ := cmd.Flags().GetStringSlice("protected"); len(protected) > 0 {
		cfg.ProtectedBranches = protected
		cfg.ProtectedBranchMap = make(map[string]bool, len(protected))
		for _, branch := range protected {
			cfg.ProtectedBranchMap[branch] = true
		}
	}
}

func printDryRun(candidates []types.BranchSnapshot) {
	if len(candidates) == 0 {
		fmt.Println("No branches match the enabled cleanup rules.")
		return
	}
	fmt.Println("Would propose for deletion:")
	for _, b := range candidates {
		delType := "-d (safe)"
		if !b.IsMerged {
			delType = "-D (force)"
		}
		fmt.Printf("  - %s  %s  [health %d, %s]\n", b.Name, delType, b.HealthScore, b.HealthReason)
	}
	fmt.Println("\n(Dry run, no changes made)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging.")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a custom configuration file.")
	rootCmd.PersistentFlags().StringP("remote", "r", "origin", "Remote to fetch from.")
	rootCmd.PersistentFlags().Int("stale-days", 0, "Override config: staleness threshold in days (0 uses config).")
	rootCmd.PersistentFlags().String("base", "", "Override config: base branch for merge checks (empty uses config).")
	rootCmd.PersistentFlags().StringSlice("protected", nil, "Override config: comma-separated protected branch names.")
	rootCmd.PersistentFlags().BoolP("yes", "y", false, "Skip the interactive picker and approve every proposal.")
	rootCmd.Flags().Bool("dry-run", false, "Show what would be proposed without deleting anything.")
}
