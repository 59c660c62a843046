// Package tui implements the interactive dry-run preview using Bubble Tea.
// It only collects the user's selection; execution stays with the engine.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/bral/git-tend/internal/engine"
	"github.com/bral/git-tend/internal/types"
)

// --- Styles ---
var (
	docStyle           = lipgloss.NewStyle().Margin(1, 2)
	cursorStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	helpStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	headingStyle       = lipgloss.NewStyle().Bold(true).Underline(true).MarginBottom(1)
	confirmPromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	warningStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("202"))
	successStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dangerStyle        = errorStyle.Bold(true)
	fadedStyle         = helpStyle.Faint(true)

	statusStyleMap = map[types.HealthStatus]lipgloss.Style{
		types.HealthHealthy:  successStyle,
		types.HealthWarning:  warningStyle,
		types.HealthCritical: errorStyle,
		types.HealthDanger:   dangerStyle,
	}
)

const (
	checkboxChecked   = "[x]"
	checkboxUnchecked = "[ ]"
)

// ViewState represents the different views the picker can be in.
type ViewState int

const (
	// StateSelecting is the candidate selection state.
	StateSelecting ViewState = iota
	// StateConfirming asks for a final yes/no on the selection.
	StateConfirming
	// StateDone means the user confirmed; Approved() holds the result.
	StateDone
	// StateAborted means the user cancelled; nothing gets deleted.
	StateAborted
)

// Model is the interactive preview over one engine proposal. Every candidate
// starts pre-checked; unchecking keeps the branch.
type Model struct {
	Proposal  engine.Proposal
	Selected  map[int]bool // candidate index -> still selected
	Cursor    int
	ViewState ViewState

	filter  textinput.Model
	visible []int // candidate indices currently shown, in display order

	Width  int
	Height int
}

// InitialModel creates the starting model for a proposal, with every
// candidate pre-checked and no filter applied.
func InitialModel(p engine.Proposal) Model {
	ti := textinput.New()
	ti.Placeholder = "type to filter"
	ti.Prompt = "/ "
	ti.CharLimit = 80

	selected := make(map[int]bool, len(p.Candidates))
	visible := make([]int, len(p.Candidates))
	for i := range p.Candidates {
		selected[i] = true
		visible[i] = i
	}

	return Model{
		Proposal:  p,
		Selected:  selected,
		Cursor:    0,
		ViewState: StateSelecting,
		filter:    ti,
		visible:   visible,
	}
}

// Init is the first command that runs when the Bubble Tea program starts.
func (m Model) Init() tea.Cmd {
	return nil
}

// Approved returns the confirmed subset, or nil when the user aborted.
func (m Model) Approved() []types.BranchSnapshot {
	if m.ViewState != StateDone {
		return nil
	}
	out := make([]types.BranchSnapshot, 0, len(m.Selected))
	for i, b := range m.Proposal.Candidates {
		if m.Selected[i] {
			out = append(out, b)
		}
	}
	return out
}

// Update handles messages and updates the model accordingly.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.ViewState = StateAborted
			return m, tea.Quit
		}

		switch m.ViewState {
		case StateSelecting:
			return m.updateSelecting(msg)
		case StateConfirming:
			return m.updateConfirming(msg)
		case StateDone, StateAborted:
			return m, tea.Quit
		}
	}

	return m, nil
}

// updateSelecting handles key presses in the selection state.
func (m Model) updateSelecting(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// While the filter input has focus, most keys go to it.
	if m.filter.Focused() {
		switch msg.String() {
		case "esc":
			m.filter.Blur()
			m.filter.SetValue("")
			m.applyFilter()
			return m, nil
		case "enter":
			m.filter.Blur()
			return m, nil
		default:
			var cmd tea.Cmd
			m.filter, cmd = m.filter.Update(msg)
			m.applyFilter()
			return m, cmd
		}
	}

	switch msg.String() {
	case "q", "esc":
		m.ViewState = StateAborted
		return m, tea.Quit

	case "/":
		m.filter.Focus()
		return m, textinput.Blink

	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if m.Cursor < len(m.visible)-1 {
			m.Cursor++
		}

	case " ":
		if m.Cursor < len(m.visible) {
			idx := m.visible[m.Cursor]
			m.Selected[idx] = !m.Selected[idx]
		}

	case "a": // Toggle all visible
		allOn := true
		for _, idx := range m.visible {
			if !m.Selected[idx] {
				allOn = false
				break
			}
		}
		for _, idx := range m.visible {
			m.Selected[idx] = !allOn
		}

	case "enter":
		if m.selectedCount() == 0 {
			// Nothing selected means there is nothing to confirm.
			m.ViewState = StateAborted
			return m, tea.Quit
		}
		m.ViewState = StateConfirming
	}

	return m, nil
}

// updateConfirming handles key presses in the confirmation state.
func (m Model) updateConfirming(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "n", "N", "esc":
		m.ViewState = StateSelecting
		return m, nil
	case "y", "Y", "enter":
		m.ViewState = StateDone
		return m, tea.Quit
	}
	return m, nil
}

// applyFilter recomputes the visible candidate set from the filter text
// using fuzzy matching over branch names.
func (m *Model) applyFilter() {
	query := strings.TrimSpace(m.filter.Value())
	if query == "" {
		m.visible = m.visible[:0]
		for i := range m.Proposal.Candidates {
			m.visible = append(m.visible, i)
		}
	} else {
		names := make([]string, len(m.Proposal.Candidates))
		for i, b := range m.Proposal.Candidates {
			names[i] = b.Name
		}
		matches := fuzzy.Find(query, names)
		m.visible = m.visible[:0]
		for _, match := range matches {
			m.visible = append(m.visible, match.Index)
		}
	}

	if m.Cursor >= len(m.visible) {
		m.Cursor = 0
	}
}

func (m Model) selectedCount() int {
	n := 0
	for _, on := range m.Selected {
		if on {
			n++
		}
	}
	return n
}

// --- View ---

// View renders the picker for the current state.
func (m Model) View() string {
	var b strings.Builder

	switch m.ViewState {
	case StateSelecting:
		m.renderSelecting(&b)
	case StateConfirming:
		m.renderConfirming(&b)
	case StateDone:
		b.WriteString(successStyle.Render("Selection confirmed."))
		b.WriteString("\n")
	case StateAborted:
		b.WriteString(fadedStyle.Render("Cancelled, no branches deleted."))
		b.WriteString("\n")
	}

	return docStyle.Render(b.String())
}

func (m Model) renderSelecting(b *strings.Builder) {
	title := "Cleanup candidates"
	if m.Proposal.Source == engine.SourceGone {
		title = "Branches whose remote is gone"
	}
	b.WriteString(headingStyle.Render(title))
	b.WriteString("\n")

	if m.filter.Focused() || m.filter.Value() != "" {
		b.WriteString(m.filter.View())
		b.WriteString("\n\n")
	}

	if len(m.visible) == 0 {
		b.WriteString(fadedStyle.Render("  (no branches match the filter)"))
		b.WriteString("\n")
	}

	for displayIdx, idx := range m.visible {
		branch := m.Proposal.Candidates[idx]

		cursor := " "
		if m.Cursor == displayIdx {
			cursor = cursorStyle.Render(">")
		}

		checkbox := checkboxUnchecked
		if m.Selected[idx] {
			checkbox = checkboxChecked
		}

		statusStyle, ok := statusStyleMap[branch.HealthStatus]
		if !ok {
			statusStyle = fadedStyle
		}

		line := fmt.Sprintf("%s %s %s %s",
			cursor,
			checkbox,
			branch.Name,
			statusStyle.Render(fmt.Sprintf("(%d, %s)", branch.HealthScore, branch.HealthReason)),
		)
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render(fmt.Sprintf(
		"%d of %d selected · space toggle · a toggle all · / filter · enter continue · q cancel",
		m.selectedCount(), len(m.Proposal.Candidates))))
	b.WriteString("\n")
}

func (m Model) renderConfirming(b *strings.Builder) {
	b.WriteString(headingStyle.Render("Confirm deletion"))
	b.WriteString("\n")

	for i, branch := range m.Proposal.Candidates {
		if !m.Selected[i] {
			continue
		}
		b.WriteString(fmt.Sprintf("  - %s", branch.Name))
		if !branch.IsMerged {
			b.WriteString(" " + warningStyle.Render("(not merged, force delete)"))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(confirmPromptStyle.Render(
		fmt.Sprintf("Delete %d branch(es)? Deletions are recorded and can be undone with 'git-tend recover'. (y/N)",
			m.selectedCount())))
	b.WriteString("\n")
}
