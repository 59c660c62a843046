// Package health scores branches and maps scores to status tiers.
package health

import (
	"fmt"
	"strings"

	"github.com/bral/git-tend/internal/types"
)

// Deduction amounts. Age tiers are mutually exclusive: only the highest
// applicable multiple of the stale threshold is charged.
const (
	mergedPenalty     = 40
	ageDoublePenalty  = 30 // older than 2x the stale threshold
	ageFullPenalty    = 20 // older than 1x
	ageHalfPenalty    = 10 // older than 0.5x
	remoteGonePenalty = 20
	farBehindPenalty  = 10 // behind more than 50
	behindPenalty     = 5  // behind more than 20
)

// Status thresholds on the final score.
const (
	healthyMin  = 80
	warningMin  = 60
	criticalMin = 40
)

// ageMentionDays is the fixed age above which the reason string mentions the
// branch's age. It is deliberately independent of the stale threshold, so the
// reason and the score can disagree at the boundary: a branch 70 days old
// with a 90-day threshold is mentioned as old without losing age points.
const ageMentionDays = 60

// Score computes the health of a branch from its snapshot fields and the
// configured stale-age threshold. It is a pure function: the same inputs
// always produce the same (score, status, reason).
//
// Scoring starts at 100 and deducts for each unhealthy factor; the result is
// clamped to [0, 100].
func Score(b types.BranchSnapshot, staleDays int) (int, types.HealthStatus, string) {
	score := 100
	var reasons []string

	if b.IsMerged {
		score -= mergedPenalty
		reasons = append(reasons, "merged")
	}

	if staleDays > 0 {
		switch {
		case b.DaysOld > 2*staleDays:
			score -= ageDoublePenalty
		case b.DaysOld > staleDays:
			score -= ageFullPenalty
		case b.DaysOld*2 > staleDays:
			score -= ageHalfPenalty
		}
	}
	if b.DaysOld > ageMentionDays {
		reasons = append(reasons, fmt.Sprintf("%dd old", b.DaysOld))
	}

	if b.RemoteGone {
		score -= remoteGonePenalty
		reasons = append(reasons, "remote deleted")
	}

	switch {
	case b.Behind > 50:
		score -= farBehindPenalty
	case b.Behind > 20:
		score -= behindPenalty
	}
	if b.Behind > 20 {
		reasons = append(reasons, fmt.Sprintf("%d behind", b.Behind))
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	reason := "active"
	if len(reasons) > 0 {
		reason = strings.Join(reasons, ", ")
	}

	return score, StatusFor(score), reason
}

// StatusFor maps a score to its tier via the fixed 80/60/40 thresholds.
func StatusFor(score int) types.HealthStatus {
	switch {
	case score >= healthyMin:
		return types.HealthHealthy
	case score >= warningMin:
		return types.HealthWarning
	case score >= criticalMin:
		return types.HealthCritical
	default:
		return types.HealthDanger
	}
}
