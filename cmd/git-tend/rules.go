package main

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/bral/git-tend/internal/config"
	"github.com/bral/git-tend/internal/types"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage cleanup rules",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured cleanup rules",
	RunE: func(_ *cobra.Command, _ []string) error {
		if len(appConfig.Rules) == 0 {
			fmt.Println("No cleanup rules configured. Add one with 'git-tend rules add'.")
			return nil
		}
		for _, rule := range appConfig.Rules {
			state := "enabled"
			if !rule.Enabled {
				state = "disabled"
			}
			fmt.Printf("%s  %-24s %-8s %s  (%s)\n",
				shortID(rule.ID), rule.Name, state, describeConditions(rule.Conditions), rule.Action)
		}
		return nil
	},
}

var rulesAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a cleanup rule",
	Long: `Adds a rule. All given conditions must hold for a branch to match.
A branch matching any enabled rule becomes a cleanup candidate.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rule := types.CleanupRule{
			ID:      uuid.NewString(),
			Name:    args[0],
			Enabled: true,
			Action:  types.ActionDelete,
		}

		if cmd.Flags().Changed("merged") {
			merged, _ := cmd.Flags().GetBool("merged")
			rule.Conditions.Merged = &merged
		}
		if cmd.Flags().Changed("no-remote") {
			noRemote, _ := cmd.Flags().GetBool("no-remote")
			rule.Conditions.NoRemote = &noRemote
		}
		rule.Conditions.OlderThanDays, _ = cmd.Flags().GetInt("older-than")
		rule.Conditions.Pattern, _ = cmd.Flags().GetString("pattern")
		if rule.Conditions.Pattern != "" {
			if _, err := regexp.Compile(rule.Conditions.Pattern); err != nil {
				return fmt.Errorf("invalid pattern: %w", err)
			}
		}
		if action, _ := cmd.Flags().GetString("action"); action != "" {
			rule.Action = types.RuleAction(action)
			if !rule.Action.Valid() {
				return fmt.Errorf("unknown action %q (want delete, archive, or notify)", action)
			}
		}

		if rule.Conditions.Empty() {
			fmt.Println("Warning: this rule has no conditions and will match every" +
				" non-protected branch.")
		}

		appConfig.Rules = append(appConfig.Rules, rule)
		return saveRules()
	},
}

var rulesRmCmd = &cobra.Command{
	Use:   "rm <id-or-name>",
	Short: "Remove a cleanup rule",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		idx, err := findRule(args[0])
		if err != nil {
			return err
		}
		appConfig.Rules = append(appConfig.Rules[:idx], appConfig.Rules[idx+1:]...)
		return saveRules()
	},
}

var rulesEnableCmd = &cobra.Command{
	Use:   "enable <id-or-name>",
	Short: "Enable a cleanup rule",
	Args:  cobra.ExactArgs(1),
	RunE:  func(_ *cobra.Command, args []string) error { return setRuleEnabled(args[0], true) },
}

var rulesDisableCmd = &cobra.Command{
	Use:   "disable <id-or-name>",
	Short: "Disable a cleanup rule",
	Args:  cobra.ExactArgs(1),
	RunE:  func(_ *cobra.Command, args []string) error { return setRuleEnabled(args[0], false) },
}

func setRuleEnabled(key string, enabled bool) error {
	idx, err := findRule(key)
	if err != nil {
		return err
	}
	appConfig.Rules[idx].Enabled = enabled
	return saveRules()
}

// findRule resolves a rule by full ID, ID prefix, or exact name.
func findRule(key string) (int, error) {
	for i, rule := range appConfig.Rules {
		if rule.ID == key || rule.Name == key || strings.HasPrefix(rule.ID, key) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("no rule matches %q", key)
}

func saveRules() error {
	path, err := config.SaveConfig(appConfig, "")
	if err != nil {
		return fmt.Errorf("could not save configuration: %w", err)
	}
	fmt.Printf("Saved %d rule(s) to %s\n", len(appConfig.Rules), path)
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func describeConditions(c types.RuleConditions) string {
	var parts []string
	if c.Merged != nil {
		parts = append(parts, fmt.Sprintf("merged=%t", *c.Merged))
	}
	if c.OlderThanDays > 0 {
		parts = append(parts, fmt.Sprintf("older than %dd", c.OlderThanDays))
	}
	if c.Pattern != "" {
		parts = append(parts, "pattern "+c.Pattern)
	}
	if c.NoRemote != nil {
		parts = append(parts, fmt.Sprintf("no-remote=%t", *c.NoRemote))
	}
	if len(parts) == 0 {
		return "matches everything"
	}
	return strings.Join(parts, " and ")
}

func init() {
	rulesAddCmd.Flags().Bool("merged", false, "Require the branch to be merged (or unmerged with --merged=false).")
	rulesAddCmd.Flags().Int("older-than", 0, "Require the last commit to be at least this many days old.")
	rulesAddCmd.Flags().String("pattern", "", "Require the branch name to match this regular expression.")
	rulesAddCmd.Flags().Bool("no-remote", false, "Require the branch to have no upstream (or have one with --no-remote=false).")
	rulesAddCmd.Flags().String("action", "delete", "Action when the rule matches: delete, archive, or notify.")

	rulesCmd.AddCommand(rulesListCmd, rulesAddCmd, rulesRmCmd, rulesEnableCmd, rulesDisableCmd)
	rootCmd.AddCommand(rulesCmd)
}
