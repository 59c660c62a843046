package gitcmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestListBranches(t *testing.T) {
	ctx := context.Background()

	record := func(fields ...string) string { return strings.Join(fields, "\x00") }

	t.Run("Parses well-formed records", func(t *testing.T) {
		output := strings.Join([]string{
			record("main", "origin/main", "", "2026-01-10 10:00:00 +0000", "aaa111", "Alice"),
			record("feature/x", "origin/feature/x", "[gone]", "2026-01-05 09:30:00 +0100", "bbb222", "Bob"),
			record("local/only", "", "", "2026-01-01 08:00:00 +0000", "ccc333", "Carol"),
		}, "\n")

		teardown := setup(t, func(_ context.Context, args ...string) (string, error) {
			if args[0] != "for-each-ref" {
				return "", fmt.Errorf("unexpected command: %v", args)
			}
			return output, nil
		})
		defer teardown()

		branches, err := ListBranches(ctx, "")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if len(branches) != 3 {
			t.Fatalf("Expected 3 branches, got %d", len(branches))
		}

		if branches[0].Name != "main" || branches[0].Upstream != "origin/main" {
			t.Errorf("Unexpected first branch: %+v", branches[0])
		}
		if branches[0].UpstreamGone {
			t.Error("main should not be marked gone")
		}
		if !branches[1].UpstreamGone {
			t.Error("feature/x should be marked gone")
		}
		if branches[1].Author != "Bob" {
			t.Errorf("Expected author Bob, got %q", branches[1].Author)
		}
		if branches[2].Upstream != "" {
			t.Errorf("local/only should have no upstream, got %q", branches[2].Upstream)
		}

		wantDate := time.Date(2026, 1, 10, 10, 0, 0, 0, time.UTC)
		if !branches[0].LastCommitDate.Equal(wantDate) {
			t.Errorf("Unexpected commit date: got %v, want %v", branches[0].LastCommitDate, wantDate)
		}
	})

	t.Run("Skips malformed records", func(t *testing.T) {
		output := strings.Join([]string{
			record("ok", "origin/ok", "", "2026-01-10 10:00:00 +0000", "aaa111", "Alice"),
			"garbage-without-separators",
			record("bad-date", "origin/bad", "", "not a date", "bbb222", "Bob"),
		}, "\n")

		teardown := setup(t, func(_ context.Context, _ ...string) (string, error) {
			return output, nil
		})
		defer teardown()

		branches, err := ListBranches(ctx, "")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if len(branches) != 1 || branches[0].Name != "ok" {
			t.Errorf("Expected only the well-formed record, got %+v", branches)
		}
	})

	t.Run("Empty output means no branches", func(t *testing.T) {
		teardown := setup(t, func(_ context.Context, _ ...string) (string, error) {
			return "", nil
		})
		defer teardown()

		branches, err := ListBranches(ctx, "")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if len(branches) != 0 {
			t.Errorf("Expected no branches, got %d", len(branches))
		}
	})

	t.Run("Backend failure propagates", func(t *testing.T) {
		teardown := setup(t, func(_ context.Context, _ ...string) (string, error) {
			return "", errors.New("simulated git error")
		})
		defer teardown()

		if _, err := ListBranches(ctx, ""); err == nil {
			t.Fatal("Expected an error, got nil")
		}
	})

	t.Run("Repo path is passed via -C", func(t *testing.T) {
		teardown := setup(t, func(_ context.Context, args ...string) (string, error) {
			if len(args) < 2 || args[0] != "-C" || args[1] != "/some/repo" {
				return "", fmt.Errorf("expected -C /some/repo prefix, got %v", args)
			}
			return "", nil
		})
		defer teardown()

		if _, err := ListBranches(ctx, "/some/repo"); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
	})
}

func TestAheadBehind(t *testing.T) {
	ctx := context.Background()

	t.Run("Parses counts", func(t *testing.T) {
		teardown := setup(t, func(_ context.Context, args ...string) (string, error) {
			expected := []string{"rev-list", "--left-right", "--count", "main...feature/x"}
			if !reflectDeepEqual(args, expected) {
				return "", fmt.Errorf("unexpected args: got %v, want %v", args, expected)
			}
			return "7\t3", nil
		})
		defer teardown()

		ahead, behind, err := AheadBehind(ctx, "", "main", "feature/x")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if ahead != 3 || behind != 7 {
			t.Errorf("Expected ahead=3 behind=7, got ahead=%d behind=%d", ahead, behind)
		}
	})

	t.Run("Unexpected output errors", func(t *testing.T) {
		teardown := setup(t, func(_ context.Context, _ ...string) (string, error) {
			return "not numbers", nil
		})
		defer teardown()

		if _, _, err := AheadBehind(ctx, "", "main", "feature/x"); err == nil {
			t.Fatal("Expected an error, got nil")
		}
	})

	t.Run("Missing arguments error", func(t *testing.T) {
		if _, _, err := AheadBehind(ctx, "", "", "feature/x"); err == nil {
			t.Fatal("Expected an error for empty base, got nil")
		}
	})
}

func TestMergedBranches(t *testing.T) {
	ctx := context.Background()

	t.Run("Builds the merged map", func(t *testing.T) {
		teardown := setup(t, func(_ context.Context, _ ...string) (string, error) {
			return "main\nfeature/done\n\n", nil
		})
		defer teardown()

		merged, err := MergedBranches(ctx, "", "main")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if !merged["main"] || !merged["feature/done"] {
			t.Errorf("Expected main and feature/done merged, got %v", merged)
		}
		if len(merged) != 2 {
			t.Errorf("Expected 2 entries, got %d", len(merged))
		}
	})

	t.Run("Empty base errors", func(t *testing.T) {
		if _, err := MergedBranches(ctx, "", ""); err == nil {
			t.Fatal("Expected an error, got nil")
		}
	})
}

func TestBaseBranch(t *testing.T) {
	ctx := context.Background()

	t.Run("Strips the remote prefix", func(t *testing.T) {
		teardown := setup(t, func(_ context.Context, _ ...string) (string, error) {
			return "origin/main", nil
		})
		defer teardown()

		base, err := BaseBranch(ctx, "")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if base != "main" {
			t.Errorf("Expected main, got %q", base)
		}
	})

	t.Run("Unresolvable HEAD errors", func(t *testing.T) {
		teardown := setup(t, func(_ context.Context, _ ...string) (string, error) {
			return "", errors.New("no such ref")
		})
		defer teardown()

		if _, err := BaseBranch(ctx, ""); err == nil {
			t.Fatal("Expected an error, got nil")
		}
	})
}

func TestObjectExists(t *testing.T) {
	ctx := context.Background()

	teardown := setup(t, func(_ context.Context, args ...string) (string, error) {
		if strings.Contains(strings.Join(args, " "), "deadbeef") {
			return "", nil
		}
		return "", errors.New("missing object")
	})
	defer teardown()

	if !ObjectExists(ctx, "", "deadbeef") {
		t.Error("Expected deadbeef to exist")
	}
	if ObjectExists(ctx, "", "cafebabe") {
		t.Error("Expected cafebabe to be missing")
	}
	if ObjectExists(ctx, "", "") {
		t.Error("Empty hash never exists")
	}
}

func TestIdentity(t *testing.T) {
	ctx := context.Background()

	t.Run("Returns the configured name", func(t *testing.T) {
		teardown := setup(t, func(_ context.Context, args ...string) (string, error) {
			expected := []string{"config", "user.name"}
			if !reflectDeepEqual(args, expected) {
				return "", fmt.Errorf("unexpected args: %v", args)
			}
			return "Alice Example\n", nil
		})
		defer teardown()

		name, err := Identity(ctx, "")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if name != "Alice Example" {
			t.Errorf("Expected 'Alice Example', got %q", name)
		}
	})

	t.Run("Unconfigured identity errors", func(t *testing.T) {
		teardown := setup(t, func(_ context.Context, _ ...string) (string, error) {
			return "", nil
		})
		defer teardown()

		if _, err := Identity(ctx, ""); err == nil {
			t.Fatal("Expected an error for empty identity, got nil")
		}
	})
}

func TestIsInGitRepo(t *testing.T) {
	ctx := context.Background()

	t.Run("Inside a work tree", func(t *testing.T) {
		teardown := setup(t, func(_ context.Context, _ ...string) (string, error) {
			return "true", nil
		})
		defer teardown()

		ok, err := IsInGitRepo(ctx, "")
		if err != nil || !ok {
			t.Errorf("Expected (true, nil), got (%v, %v)", ok, err)
		}
	})

	t.Run("Not a repository", func(t *testing.T) {
		teardown := setup(t, func(_ context.Context, _ ...string) (string, error) {
			return "", errors.New("fatal: not a git repository")
		})
		defer teardown()

		ok, err := IsInGitRepo(ctx, "")
		if err != nil {
			t.Fatalf("Expected no error for non-repo, got %v", err)
		}
		if ok {
			t.Error("Expected false for non-repo")
		}
	})
}
