package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bral/git-tend/internal/engine"
	"github.com/bral/git-tend/internal/types"
)

// Confirmer returns an engine.Confirmer that runs the interactive picker
// for each proposal and reports the confirmed subset.
func Confirmer() engine.Confirmer {
	return func(ctx context.Context, p engine.Proposal) ([]types.BranchSnapshot, error) {
		if len(p.Candidates) == 0 {
			return nil, nil
		}

		program := tea.NewProgram(InitialModel(p))
		final, err := program.Run()
		if err != nil {
			return nil, fmt.Errorf("interactive selection failed: %w", err)
		}

		model, ok := final.(Model)
		if !ok {
			return nil, fmt.Errorf("unexpected model type %T", final)
		}
		return model.Approved(), nil
	}
}
