package gitcmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestDeleteBranches(t *testing.T) {
	ctx := context.Background()

	t.Run("Merged branches use safe delete", func(t *testing.T) {
		teardown := setup(t, func(_ context.Context, args ...string) (string, error) {
			expected := []string{"branch", "-d", "feature/merged"}
			if !reflectDeepEqual(args, expected) {
				return "", fmt.Errorf("unexpected args: got %v, want %v", args, expected)
			}
			return "Deleted branch feature/merged", nil
		})
		defer teardown()

		results := DeleteBranches(ctx, "", []BranchToDelete{
			{Name: "feature/merged", IsMerged: true, Hash: "aaa111"},
		}, false)

		if len(results) != 1 {
			t.Fatalf("Expected 1 result, got %d", len(results))
		}
		if !results[0].Success {
			t.Errorf("Expected success, got: %s", results[0].Message)
		}
		if results[0].DeletedHash != "aaa111" {
			t.Errorf("Expected deleted hash recorded, got %q", results[0].DeletedHash)
		}
		if results[0].Cmd != "git branch -d feature/merged" {
			t.Errorf("Unexpected command string: %q", results[0].Cmd)
		}
	})

	t.Run("Unmerged branches use force delete", func(t *testing.T) {
		teardown := setup(t, func(_ context.Context, args ...string) (string, error) {
			expected := []string{"branch", "-D", "feature/wip"}
			if !reflectDeepEqual(args, expected) {
				return "", fmt.Errorf("unexpected args: got %v, want %v", args, expected)
			}
			return "", nil
		})
		defer teardown()

		results := DeleteBranches(ctx, "", []BranchToDelete{
			{Name: "feature/wip", IsMerged: false, Hash: "bbb222"},
		}, false)
		if !results[0].Success {
			t.Errorf("Expected success, got: %s", results[0].Message)
		}
	})

	t.Run("Dry run executes nothing", func(t *testing.T) {
		teardown := setup(t, func(_ context.Context, args ...string) (string, error) {
			t.Fatalf("No git command should run in dry-run mode, got: %v", args)
			return "", nil
		})
		defer teardown()

		results := DeleteBranches(ctx, "", []BranchToDelete{
			{Name: "feature/x", IsMerged: true, Hash: "ccc333"},
		}, true)

		if !results[0].Success {
			t.Error("Dry-run results should report success")
		}
		if !strings.Contains(results[0].Message, "Dry Run") {
			t.Errorf("Expected dry-run message, got %q", results[0].Message)
		}
	})

	t.Run("One failure does not stop the batch", func(t *testing.T) {
		teardown := setup(t, func(_ context.Context, args ...string) (string, error) {
			if args[len(args)-1] == "bad" {
				return "", errors.New("simulated git error\nstderr: branch not fully merged")
			}
			return "", nil
		})
		defer teardown()

		results := DeleteBranches(ctx, "", []BranchToDelete{
			{Name: "bad", IsMerged: false, Hash: "aaa"},
			{Name: "good", IsMerged: false, Hash: "bbb"},
		}, false)

		if len(results) != 2 {
			t.Fatalf("Expected 2 results, got %d", len(results))
		}
		if results[0].Success {
			t.Error("Expected first delete to fail")
		}
		if !strings.Contains(results[0].Message, "branch not fully merged") {
			t.Errorf("Expected cleaned stderr in message, got %q", results[0].Message)
		}
		if !results[1].Success {
			t.Errorf("Expected second delete to succeed, got: %s", results[1].Message)
		}
	})

	t.Run("Repo path is passed via -C", func(t *testing.T) {
		teardown := setup(t, func(_ context.Context, args ...string) (string, error) {
			expected := []string{"-C", "/some/repo", "branch", "-d", "feature/x"}
			if !reflectDeepEqual(args, expected) {
				return "", fmt.Errorf("unexpected args: got %v, want %v", args, expected)
			}
			return "", nil
		})
		defer teardown()

		results := DeleteBranches(ctx, "/some/repo", []BranchToDelete{
			{Name: "feature/x", IsMerged: true},
		}, false)
		if !results[0].Success {
			t.Errorf("Expected success, got: %s", results[0].Message)
		}
	})
}

func TestCreateBranchAt(t *testing.T) {
	ctx := context.Background()

	t.Run("Creates without force", func(t *testing.T) {
		teardown := setup(t, func(_ context.Context, args ...string) (string, error) {
			expected := []string{"branch", "restored", "aaa111"}
			if !reflectDeepEqual(args, expected) {
				return "", fmt.Errorf("unexpected args: got %v, want %v", args, expected)
			}
			return "", nil
		})
		defer teardown()

		if err := CreateBranchAt(ctx, "", "restored", "aaa111"); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
	})

	t.Run("Missing inputs error", func(t *testing.T) {
		if err := CreateBranchAt(ctx, "", "", "aaa111"); err == nil {
			t.Fatal("Expected an error for empty name, got nil")
		}
		if err := CreateBranchAt(ctx, "", "restored", ""); err == nil {
			t.Fatal("Expected an error for empty hash, got nil")
		}
	})

	t.Run("Existing branch fails", func(t *testing.T) {
		teardown := setup(t, func(_ context.Context, _ ...string) (string, error) {
			return "", errors.New("fatal: a branch named 'restored' already exists")
		})
		defer teardown()

		if err := CreateBranchAt(ctx, "", "restored", "aaa111"); err == nil {
			t.Fatal("Expected an error, got nil")
		}
	})
}
