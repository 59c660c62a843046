package types

import "time"

// BranchRef holds raw Git data for a local branch, straight from for-each-ref.
type BranchRef struct {
	Name           string
	Upstream       string // e.g., "origin/feature/x"; empty when no tracking ref
	UpstreamGone   bool   // tracking ref configured but its target no longer exists
	LastCommitDate time.Time
	CommitHash     string
	Author         string
}

// HealthStatus is the tier a branch falls into after scoring.
type HealthStatus string

const (
	HealthHealthy  HealthStatus = "healthy"
	HealthWarning  HealthStatus = "warning"
	HealthCritical HealthStatus = "critical"
	HealthDanger   HealthStatus = "danger"
)

// PRStatus is pull/merge request info supplied by an external forge lookup.
// It is never computed locally.
type PRStatus struct {
	Number int    `json:"number"`
	State  string `json:"state"` // Normalized: OPEN, MERGED, CLOSED
	Title  string `json:"title"`
	URL    string `json:"url"`
}

// BranchSnapshot is the fully enriched view of one local branch for a single
// reconciliation pass. Snapshots are rebuilt wholesale on every pass and never
// mutated in place or persisted.
type BranchSnapshot struct {
	Name        string
	IsMerged    bool
	IsCurrent   bool
	IsProtected bool
	DaysOld     int // age of the last commit
	Ahead       int // commits not on the base branch
	Behind      int // commits the base branch has that this one lacks
	Author      string
	HasRemote   bool
	RemoteGone  bool
	TrackingRef string
	LinkedIssue string // derived from the branch name, not stored state
	CommitHash  string

	HealthScore  int // 0-100
	HealthStatus HealthStatus
	HealthReason string

	PR *PRStatus
}

// RuleAction is what a cleanup rule does with its matches. Only delete is a
// terminal action; archive and notify surface the matches without deleting.
type RuleAction string

const (
	ActionDelete  RuleAction = "delete"
	ActionArchive RuleAction = "archive"
	ActionNotify  RuleAction = "notify"
)

// Valid reports whether the action is one of the known values.
func (a RuleAction) Valid() bool {
	switch a {
	case ActionDelete, ActionArchive, ActionNotify:
		return true
	}
	return false
}

// RuleConditions is the conjunction a branch must satisfy to match a rule.
// Absent conditions (nil pointers, zero values) are not evaluated, so a rule
// with no conditions at all matches every non-current branch.
type RuleConditions struct {
	Merged        *bool  `toml:"merged" json:"merged,omitempty"`
	OlderThanDays int    `toml:"older_than_days" json:"older_than_days,omitempty"`
	Pattern       string `toml:"pattern" json:"pattern,omitempty"`
	NoRemote      *bool  `toml:"no_remote" json:"no_remote,omitempty"`
}

// Empty reports whether no condition is present at all.
func (c RuleConditions) Empty() bool {
	return c.Merged == nil && c.OlderThanDays <= 0 && c.Pattern == "" && c.NoRemote == nil
}

// CleanupRule is a user-authored cleanup policy, persisted per repository
// in the configuration file.
type CleanupRule struct {
	ID         string         `toml:"id" json:"id"`
	Name       string         `toml:"name" json:"name"`
	Enabled    bool           `toml:"enabled" json:"enabled"`
	Conditions RuleConditions `toml:"conditions" json:"conditions"`
	Action     RuleAction     `toml:"action" json:"action"`
}

// RecoveryEntry records one branch deletion so it can be undone.
type RecoveryEntry struct {
	BranchName string `json:"branch_name"`
	CommitHash string `json:"commit_hash"` // full SHA at the time of deletion
	DeletedAt  int64  `json:"deleted_at"`  // unix seconds
	DeletedBy  string `json:"deleted_by,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// DeleteResult holds the outcome of one delete attempt.
type DeleteResult struct {
	BranchName  string
	Success     bool
	Message     string // Success message or error details
	Cmd         string // The command attempted
	DeletedHash string // Hash of the branch at deletion time, for recovery
}
