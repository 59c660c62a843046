// Package rules evaluates user-authored cleanup rules against a snapshot set
// and narrows the matches through the cross-cutting safety filters.
package rules

import (
	"context"
	"path"
	"regexp"

	"github.com/bral/git-tend/internal/logging"
	"github.com/bral/git-tend/internal/types"
)

// Evaluate runs every enabled rule independently against the snapshot set and
// unions the matches, deduplicated by branch name. Conditions within one rule
// are a conjunction; matches across rules are a union. The result preserves
// the snapshot ordering (worst health first).
//
// A rule whose pattern fails to compile is skipped with a warning; the other
// rules still run. A rule with no conditions matches every non-current,
// non-protected branch. That is intended catch-all behavior, but it gets a
// warning so an authoring mistake is visible.
func Evaluate(snapshots []types.BranchSnapshot, ruleSet []types.CleanupRule) []types.BranchSnapshot {
	matched := make(map[string]bool)

	for _, rule := range ruleSet {
		if !rule.Enabled {
			continue
		}

		var pattern *regexp.Regexp
		if rule.Conditions.Pattern != "" {
			var err error
			pattern, err = regexp.Compile(rule.Conditions.Pattern)
			if err != nil {
				logging.Logger.Warn("skipping rule with invalid pattern",
					"rule", rule.Name, "pattern", rule.Conditions.Pattern, "error", err)
				continue
			}
		}

		if rule.Conditions.Empty() {
			logging.Logger.Warn("rule has no conditions and matches every non-current branch",
				"rule", rule.Name)
		}

		for _, b := range snapshots {
			if matches(b, rule.Conditions, pattern) {
				matched[b.Name] = true
			}
		}
	}

	result := make([]types.BranchSnapshot, 0, len(matched))
	for _, b := range snapshots {
		if matched[b.Name] {
			result = append(result, b)
		}
	}
	return result
}

// matches applies one rule's conjunction to one branch. The current branch
// and protected branches never match, regardless of conditions.
func matches(b types.BranchSnapshot, c types.RuleConditions, pattern *regexp.Regexp) bool {
	if b.IsCurrent || b.IsProtected {
		return false
	}
	if c.Merged != nil && b.IsMerged != *c.Merged {
		return false
	}
	if c.OlderThanDays > 0 && b.DaysOld < c.OlderThanDays {
		return false
	}
	if pattern != nil && !pattern.MatchString(b.Name) {
		return false
	}
	if c.NoRemote != nil && b.HasRemote == *c.NoRemote {
		return false
	}
	return true
}

// IdentityFunc looks up the current version-control identity.
type IdentityFunc func(ctx context.Context) (string, error)

// ApplyFilters narrows rule matches through the two cross-cutting filters,
// in order: exclusion globs, then team-safe authorship. When team-safe mode
// is on but the identity lookup fails, the authorship filter is skipped
// rather than blocking the whole batch.
func ApplyFilters(ctx context.Context, candidates []types.BranchSnapshot,
	excludeGlobs []string, teamSafe bool, identity IdentityFunc) []types.BranchSnapshot {

	kept := make([]types.BranchSnapshot, 0, len(candidates))
	for _, b := range candidates {
		if matchesAnyGlob(b.Name, excludeGlobs) {
			logging.Logger.Debug("excluding branch by pattern", "branch", b.Name)
			continue
		}
		kept = append(kept, b)
	}

	if !teamSafe || identity == nil {
		return kept
	}

	me, err := identity(ctx)
	if err != nil {
		logging.Logger.Warn("team-safe mode: identity lookup failed, skipping author filter", "error", err)
		return kept
	}

	own := make([]types.BranchSnapshot, 0, len(kept))
	for _, b := range kept {
		if b.Author == me {
			own = append(own, b)
		}
	}
	return own
}

func matchesAnyGlob(name string, globs []string) bool {
	for _, g := range globs {
		if g == "" {
			continue
		}
		ok, err := path.Match(g, name)
		if err != nil {
			logging.Logger.Warn("invalid exclusion pattern", "pattern", g, "error", err)
			continue
		}
		if ok {
			return true
		}
	}
	return false
}
