package health

import (
	"testing"

	"github.com/bral/git-tend/internal/types"
)

func TestScore(t *testing.T) {
	testCases := []struct {
		name           string
		branch         types.BranchSnapshot
		staleDays      int
		expectedScore  int
		expectedStatus types.HealthStatus
		expectedReason string
	}{
		{
			name:           "Fresh active branch",
			branch:         types.BranchSnapshot{Name: "feature/a", DaysOld: 2},
			staleDays:      30,
			expectedScore:  100,
			expectedStatus: types.HealthHealthy,
			expectedReason: "active",
		},
		{
			name:           "Merged recent branch",
			branch:         types.BranchSnapshot{Name: "feature/x", IsMerged: true, DaysOld: 5},
			staleDays:      30,
			expectedScore:  60,
			expectedStatus: types.HealthWarning,
			expectedReason: "merged",
		},
		{
			name: "Old gone branch well behind",
			branch: types.BranchSnapshot{
				Name: "old/y", DaysOld: 95, RemoteGone: true, Behind: 25,
			},
			staleDays:      30,
			expectedScore:  45, // 100 - 30 (age > 2x) - 20 (gone) - 5 (behind > 20)
			expectedStatus: types.HealthCritical,
			expectedReason: "95d old, remote deleted, 25 behind",
		},
		{
			name: "Half stale threshold tier",
			branch: types.BranchSnapshot{
				Name: "feature/halfway", DaysOld: 16,
			},
			staleDays:      30,
			expectedScore:  90,
			expectedStatus: types.HealthHealthy,
			expectedReason: "active",
		},
		{
			name: "Full stale threshold tier",
			branch: types.BranchSnapshot{
				Name: "feature/stale", DaysOld: 31,
			},
			staleDays:      30,
			expectedScore:  80,
			expectedStatus: types.HealthHealthy,
			expectedReason: "active", // 31d does not cross the 60d mention line
		},
		{
			name: "Reason mentions age even without an age deduction",
			branch: types.BranchSnapshot{
				Name: "feature/old-but-within-threshold", DaysOld: 70,
			},
			staleDays:      200, // 70 < 0.5 * 200, so no age points lost
			expectedScore:  100,
			expectedStatus: types.HealthHealthy,
			expectedReason: "70d old",
		},
		{
			name: "Far behind",
			branch: types.BranchSnapshot{
				Name: "feature/lagging", DaysOld: 1, Behind: 120,
			},
			staleDays:      30,
			expectedScore:  90,
			expectedStatus: types.HealthHealthy,
			expectedReason: "120 behind",
		},
		{
			name: "Everything wrong clamps at zero",
			branch: types.BranchSnapshot{
				Name: "abandoned", IsMerged: true, DaysOld: 400, RemoteGone: true, Behind: 300,
			},
			staleDays:      30,
			expectedScore:  0,
			expectedStatus: types.HealthDanger,
			expectedReason: "merged, 400d old, remote deleted, 300 behind",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			score, status, reason := Score(tc.branch, tc.staleDays)
			if score != tc.expectedScore {
				t.Errorf("score: got %d, want %d", score, tc.expectedScore)
			}
			if status != tc.expectedStatus {
				t.Errorf("status: got %q, want %q", status, tc.expectedStatus)
			}
			if reason != tc.expectedReason {
				t.Errorf("reason: got %q, want %q", reason, tc.expectedReason)
			}
		})
	}
}

// TestScoreMonotonicity verifies the score never improves as individual
// factors worsen.
func TestScoreMonotonicity(t *testing.T) {
	base := types.BranchSnapshot{Name: "b", DaysOld: 10}
	staleDays := 30

	baseScore, _, _ := Score(base, staleDays)

	worse := []types.BranchSnapshot{
		{Name: "b", DaysOld: 10, IsMerged: true},
		{Name: "b", DaysOld: 40},
		{Name: "b", DaysOld: 70},
		{Name: "b", DaysOld: 10, RemoteGone: true},
		{Name: "b", DaysOld: 10, Behind: 30},
		{Name: "b", DaysOld: 10, Behind: 60},
	}
	for _, w := range worse {
		score, _, _ := Score(w, staleDays)
		if score > baseScore {
			t.Errorf("worsened branch %+v scored %d, above baseline %d", w, score, baseScore)
		}
		if score < 0 || score > 100 {
			t.Errorf("score %d out of [0,100] for %+v", score, w)
		}
	}
}

func TestStatusFor(t *testing.T) {
	cases := map[int]types.HealthStatus{
		100: types.HealthHealthy,
		80:  types.HealthHealthy,
		79:  types.HealthWarning,
		60:  types.HealthWarning,
		59:  types.HealthCritical,
		40:  types.HealthCritical,
		39:  types.HealthDanger,
		0:   types.HealthDanger,
	}
	for score, want := range cases {
		if got := StatusFor(score); got != want {
			t.Errorf("StatusFor(%d): got %q, want %q", score, got, want)
		}
	}
}
