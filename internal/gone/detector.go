// Package gone tracks which branches have lost their remote counterpart and
// reports only the newly gone ones, so a branch is alerted on exactly once
// per disappearance.
package gone

import (
	"sort"

	"github.com/bral/git-tend/internal/types"
)

// Detector remembers, for one repository, the set of branch names already
// known to be remote-gone at the last check. It holds no other state and is
// only ever touched by the engine that owns it.
type Detector struct {
	known       map[string]struct{}
	initialized bool
}

// New returns a detector with an empty known-gone set. Until Initialize (or
// the first Detect) runs, every gone branch counts as newly gone.
func New() *Detector {
	return &Detector{known: make(map[string]struct{})}
}

// Initialize seeds the known-gone set from the current snapshot so branches
// already gone at startup are not reported as newly gone.
func (d *Detector) Initialize(snapshots []types.BranchSnapshot) {
	d.known = goneSet(snapshots)
	d.initialized = true
}

// Initialized reports whether the known-gone set has been seeded.
func (d *Detector) Initialized() bool { return d.initialized }

// Detect computes the delta of gone branches against the remembered set and
// returns the newly gone ones, sorted by name. The known set is always
// replaced with the current one, even when the caller later fails to act on
// the result; a transient failure to report must not cause repeat alerts.
//
// A dismissed branch folds back into the known set like any other, so if it
// is later recreated and goes gone again, detection correctly re-fires.
func (d *Detector) Detect(snapshots []types.BranchSnapshot) []types.BranchSnapshot {
	now := goneSet(snapshots)

	var newly []types.BranchSnapshot
	for _, b := range snapshots {
		if !isGone(b) {
			continue
		}
		if _, seen := d.known[b.Name]; !seen {
			newly = append(newly, b)
		}
	}

	d.known = now
	d.initialized = true

	sort.Slice(newly, func(i, j int) bool { return newly[i].Name < newly[j].Name })
	return newly
}

func goneSet(snapshots []types.BranchSnapshot) map[string]struct{} {
	set := make(map[string]struct{})
	for _, b := range snapshots {
		if isGone(b) {
			set[b.Name] = struct{}{}
		}
	}
	return set
}

// isGone: the remote tracking ref existed but its target vanished. The
// current and protected branches are never candidates.
func isGone(b types.BranchSnapshot) bool {
	return b.RemoteGone && !b.IsCurrent && !b.IsProtected
}
