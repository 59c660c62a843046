// Package engine owns the reconciliation loop: it reacts to repository
// events, rebuilds snapshots, runs gone-branch detection and cleanup rules
// against them, and executes confirmed deletions through the log-then-delete
// discipline.
package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bral/git-tend/internal/config"
	"github.com/bral/git-tend/internal/gitcmd"
	"github.com/bral/git-tend/internal/gone"
	"github.com/bral/git-tend/internal/logging"
	"github.com/bral/git-tend/internal/recovery"
	"github.com/bral/git-tend/internal/rules"
	"github.com/bral/git-tend/internal/snapshot"
	"github.com/bral/git-tend/internal/types"
)

// DebounceInterval is how long a repository's trigger must stay quiet before
// a pass runs. Repeated triggers within the window reset it, so a burst of
// fetch events yields exactly one pass.
const DebounceInterval = 500 * time.Millisecond

// ProposalSource says which subsystem produced a set of deletion candidates.
type ProposalSource string

const (
	SourceGone  ProposalSource = "gone"
	SourceRules ProposalSource = "rules"
)

// Proposal is a set of candidate branches the engine wants to delete, handed
// to the caller for confirmation before anything destructive happens.
type Proposal struct {
	RepoPath   string
	Source     ProposalSource
	Candidates []types.BranchSnapshot
}

// Confirmer decides which of the proposed branches actually get deleted.
// Returning an empty slice (or an error) cancels the batch. The engine never
// assumes a specific UI; anything that can answer yes/no/partial works.
type Confirmer func(ctx context.Context, p Proposal) ([]types.BranchSnapshot, error)

// Notifier receives human-readable outcome summaries.
type Notifier func(message string)

// Engine is one reconciliation instance. Per-repository state (debounce
// timers, known-gone sets, recovery logs) lives here, keyed by repository
// path, so multiple repositories and test instances stay isolated.
type Engine struct {
	cfg     config.Config
	confirm Confirmer
	notify  Notifier

	debounce time.Duration
	openLog  func(repoPath string) (*recovery.Log, error)

	mu        sync.Mutex
	timers    map[string]*time.Timer
	detectors map[string]*gone.Detector
	logs      map[string]*recovery.Log
	passes    map[string]*sync.Mutex
}

// Option adjusts an Engine at construction time.
type Option func(*Engine)

// WithDebounce overrides the debounce interval (tests use a short one).
func WithDebounce(d time.Duration) Option {
	return func(e *Engine) { e.debounce = d }
}

// WithLogOpener overrides how per-repo recovery logs are opened (tests point
// this at a temp directory).
func WithLogOpener(open func(repoPath string) (*recovery.Log, error)) Option {
	return func(e *Engine) { e.openLog = open }
}

// New creates an engine for the given policy. confirm may be nil, in which
// case prompt-mode proposals are treated as declined; notify may be nil.
func New(cfg config.Config, confirm Confirmer, notify Notifier, opts ...Option) *Engine {
	e := &Engine{
		cfg:       cfg,
		confirm:   confirm,
		notify:    notify,
		debounce:  DebounceInterval,
		openLog:   recovery.Open,
		timers:    make(map[string]*time.Timer),
		detectors: make(map[string]*gone.Detector),
		logs:      make(map[string]*recovery.Log),
		passes:    make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Builder returns the snapshot builder configured from this engine's policy.
func (e *Engine) Builder() *snapshot.Builder {
	return &snapshot.Builder{
		StaleDays:  e.cfg.StaleDays,
		BaseBranch: e.cfg.BaseBranch,
		Protected:  e.cfg.ProtectedBranchMap,
	}
}

// OnFetchCompleted is the entry point for fetch- and merge-completed events.
// It debounces per repository: the pass runs once the repository has been
// quiet for the debounce interval, and only the latest burst is honored.
func (e *Engine) OnFetchCompleted(ctx context.Context, repoPath string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if timer, ok := e.timers[repoPath]; ok {
		timer.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(e.debounce, func() {
		e.mu.Lock()
		// A retrigger may have replaced this timer while it was firing;
		// only the current handle may be dropped.
		if e.timers[repoPath] == timer {
			delete(e.timers, repoPath)
		}
		e.mu.Unlock()

		if err := e.Reconcile(ctx, repoPath); err != nil {
			logging.Logger.Warn("reconciliation pass failed", "repo", repoPath, "error", err)
		}
	})
	e.timers[repoPath] = timer
}

// Reconcile runs one full pass for a repository: snapshot build, gone
// detection, then rule evaluation (when any rule is enabled). There is no
// mid-pass cancellation; once started, a pass runs to completion with
// per-item error tolerance. Passes for the same repository never overlap:
// a pass that outlasts the debounce window makes the next one wait, so the
// per-repo detector state only ever sees one pass at a time.
func (e *Engine) Reconcile(ctx context.Context, repoPath string) error {
	lock := e.passLock(repoPath)
	lock.Lock()
	defer lock.Unlock()

	snaps := e.Builder().Build(ctx, repoPath)
	if len(snaps) == 0 {
		logging.Logger.Debug("empty snapshot set, nothing to reconcile", "repo", repoPath)
		return nil
	}

	e.RunGoneDetection(ctx, repoPath, snaps)

	if len(e.cfg.EnabledRules()) > 0 {
		e.RunRules(ctx, repoPath, snaps)
	}
	return nil
}

// InitializeGoneState seeds the known-gone set for a repository from the
// current snapshot so branches already gone at startup are not re-alerted.
func (e *Engine) InitializeGoneState(ctx context.Context, repoPath string) {
	lock := e.passLock(repoPath)
	lock.Lock()
	defer lock.Unlock()

	snaps := e.Builder().Build(ctx, repoPath)
	e.detector(repoPath).Initialize(snaps)
}

// passLock returns the mutex serializing passes for one repository.
func (e *Engine) passLock(repoPath string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.passes[repoPath]
	if !ok {
		lock = &sync.Mutex{}
		e.passes[repoPath] = lock
	}
	return lock
}

// RunGoneDetection diffs the current gone set against the remembered one and
// drives the configured response for newly gone branches.
func (e *Engine) RunGoneDetection(ctx context.Context, repoPath string, snaps []types.BranchSnapshot) {
	newlyGone := e.detector(repoPath).Detect(snaps)
	if len(newlyGone) == 0 {
		return
	}

	logging.Logger.Info("detected newly gone branches",
		"repo", repoPath, "count", len(newlyGone))

	switch e.cfg.GoneResponse {
	case config.GoneAuto:
		summary := e.deleteBranches(ctx, repoPath, newlyGone, "remote branch deleted")
		e.notifyf("Cleaned up gone branches: %s", summary)

	case config.GoneNotify:
		names := branchNames(newlyGone)
		e.notifyf("%d branch(es) lost their remote: %s. Run 'git-tend gone' to clean up.",
			len(names), strings.Join(names, ", "))

	default: // config.GonePrompt
		approved := e.confirmProposal(ctx, Proposal{
			RepoPath:   repoPath,
			Source:     SourceGone,
			Candidates: newlyGone,
		})
		if len(approved) == 0 {
			return
		}
		summary := e.deleteBranches(ctx, repoPath, approved, "remote branch deleted")
		e.notifyf("%s", summary)
	}
}

// RunRules evaluates the enabled cleanup rules against the snapshot set,
// applies the exclusion and team-safety filters, and runs the confirmed
// batch through the usual log-then-delete flow.
func (e *Engine) RunRules(ctx context.Context, repoPath string, snaps []types.BranchSnapshot) {
	deleteRules, noticeRules := splitByAction(e.cfg.EnabledRules())

	// Rules with a notify or archive action surface their matches but are
	// never fed into the delete flow.
	if noticed := rules.Evaluate(snaps, noticeRules); len(noticed) > 0 {
		e.notifyf("%d branch(es) flagged by non-delete rules: %s",
			len(noticed), strings.Join(branchNames(noticed), ", "))
	}

	candidates := rules.Evaluate(snaps, deleteRules)
	candidates = rules.ApplyFilters(ctx, candidates, e.cfg.ExcludePatterns, e.cfg.TeamSafe,
		func(ctx context.Context) (string, error) { return gitcmd.Identity(ctx, repoPath) })
	if len(candidates) == 0 {
		return
	}

	approved := e.confirmProposal(ctx, Proposal{
		RepoPath:   repoPath,
		Source:     SourceRules,
		Candidates: candidates,
	})
	if len(approved) == 0 {
		return
	}

	summary := e.deleteBranches(ctx, repoPath, approved, "matched cleanup rule")
	e.notifyf("%s", summary)
}

// ProposeRules returns the filtered rule candidates without deleting
// anything, so it serves as the dry-run view.
func (e *Engine) ProposeRules(ctx context.Context, repoPath string, snaps []types.BranchSnapshot) []types.BranchSnapshot {
	deleteRules, _ := splitByAction(e.cfg.EnabledRules())
	candidates := rules.Evaluate(snaps, deleteRules)
	return rules.ApplyFilters(ctx, candidates, e.cfg.ExcludePatterns, e.cfg.TeamSafe,
		func(ctx context.Context) (string, error) { return gitcmd.Identity(ctx, repoPath) })
}

// splitByAction separates the rules that may delete from the ones that only
// report.
func splitByAction(ruleSet []types.CleanupRule) (deletes, notices []types.CleanupRule) {
	for _, r := range ruleSet {
		if r.Action == types.ActionDelete {
			deletes = append(deletes, r)
		} else {
			notices = append(notices, r)
		}
	}
	return deletes, notices
}

// RecoveryLog exposes the per-repository ledger (opening it on first use).
func (e *Engine) RecoveryLog(repoPath string) (*recovery.Log, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if l, ok := e.logs[repoPath]; ok {
		return l, nil
	}
	l, err := e.openLog(repoPath)
	if err != nil {
		return nil, err
	}
	e.logs[repoPath] = l
	return l, nil
}

// Summary describes the outcome of a batch delete.
type Summary struct {
	Deleted []string
	Failed  map[string]string // branch name -> short failure message
}

// String renders the outcome the way users see it, e.g.
// "deleted 4, failed 1: branch-x".
func (s Summary) String() string {
	out := fmt.Sprintf("deleted %d", len(s.Deleted))
	if len(s.Failed) > 0 {
		names := make([]string, 0, len(s.Failed))
		for name := range s.Failed {
			names = append(names, name)
		}
		sort.Strings(names)
		out += fmt.Sprintf(", failed %d: %s", len(names), strings.Join(names, ", "))
	}
	return out
}

// deleteBranches runs the log-then-delete discipline for a confirmed batch:
// each branch's current commit hash is written to the recovery log before
// its delete executes, and one bad branch never blocks the rest. A failed
// delete rolls its ledger entry back out so the log only holds real
// deletions.
func (e *Engine) deleteBranches(ctx context.Context, repoPath string,
	branches []types.BranchSnapshot, reason string) Summary {

	summary := Summary{Failed: make(map[string]string)}

	log, err := e.RecoveryLog(repoPath)
	if err != nil {
		// Without a working ledger nothing gets deleted: recoverability is
		// part of the contract.
		logging.Logger.Warn("recovery log unavailable, refusing to delete",
			"repo", repoPath, "error", err)
		for _, b := range branches {
			summary.Failed[b.Name] = "recovery log unavailable"
		}
		return summary
	}

	deletedBy, idErr := gitcmd.Identity(ctx, repoPath)
	if idErr != nil {
		deletedBy = ""
	}

	for _, b := range branches {
		hash := b.CommitHash
		if current, err := gitcmd.CommitHash(ctx, repoPath, b.Name); err == nil {
			// Prefer the hash at this very moment over the snapshot's.
			hash = current
		}

		entry := types.RecoveryEntry{
			BranchName: b.Name,
			CommitHash: hash,
			DeletedAt:  time.Now().Unix(),
			DeletedBy:  deletedBy,
			Reason:     reason,
		}
		if err := log.Add(entry); err != nil {
			logging.Logger.Warn("could not record recovery entry, skipping branch",
				"branch", b.Name, "error", err)
			summary.Failed[b.Name] = "could not record recovery entry"
			continue
		}

		results := gitcmd.DeleteBranches(ctx, repoPath,
			[]gitcmd.BranchToDelete{{Name: b.Name, IsMerged: b.IsMerged, Hash: hash}}, false)
		res := results[0]
		if !res.Success {
			logging.Logger.Warn("branch delete failed", "branch", b.Name, "message", res.Message)
			summary.Failed[b.Name] = res.Message
			if rmErr := log.Remove(b.Name, hash); rmErr != nil {
				logging.Logger.Warn("could not roll back recovery entry",
					"branch", b.Name, "error", rmErr)
			}
			continue
		}
		summary.Deleted = append(summary.Deleted, b.Name)
	}

	return summary
}

// DeleteBranches is the exported log-then-delete entry point for callers that
// collected their own confirmed candidate set (e.g. the CLI commands).
func (e *Engine) DeleteBranches(ctx context.Context, repoPath string,
	branches []types.BranchSnapshot, reason string) Summary {
	return e.deleteBranches(ctx, repoPath, branches, reason)
}

func (e *Engine) confirmProposal(ctx context.Context, p Proposal) []types.BranchSnapshot {
	if e.confirm == nil {
		logging.Logger.Debug("no confirmer set, declining proposal",
			"repo", p.RepoPath, "source", p.Source)
		return nil
	}
	approved, err := e.confirm(ctx, p)
	if err != nil {
		logging.Logger.Warn("confirmation failed, declining proposal",
			"repo", p.RepoPath, "source", p.Source, "error", err)
		return nil
	}
	return approved
}

func (e *Engine) detector(repoPath string) *gone.Detector {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, ok := e.detectors[repoPath]
	if !ok {
		d = gone.New()
		e.detectors[repoPath] = d
	}
	return d
}

func (e *Engine) notifyf(format string, args ...any) {
	if e.notify == nil {
		return
	}
	e.notify(fmt.Sprintf(format, args...))
}

func branchNames(branches []types.BranchSnapshot) []string {
	names := make([]string, 0, len(branches))
	for _, b := range branches {
		names = append(names, b.Name)
	}
	return names
}
