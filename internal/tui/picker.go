// Package tui provides the interactive terminal surfaces: the identity
// picker and the device-flow login screen.
package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ksteinfeldt/gitshift/internal/identity"
)

// pickerItem adapts an identity to the bubbles list.
type pickerItem struct {
	ident  identity.Identity
	active bool
}

func (i pickerItem) Title() string {
	title := i.ident.Label()
	if i.active {
		title += " (active)"
	}
	return title
}

func (i pickerItem) Description() string {
	desc := i.ident.Email
	if i.ident.RemoteUsername != "" {
		desc += " · @" + i.ident.RemoteUsername
	}
	if !i.ident.Authenticated() {
		desc += " · not authenticated"
	}
	return desc
}

func (i pickerItem) FilterValue() string {
	return i.ident.Label() + " " + i.ident.Email
}

// pickerModel is the bubbletea model for identity selection.
type pickerModel struct {
	list     list.Model
	selected *identity.Identity
	quit     bool
}

func (m pickerModel) Init() tea.Cmd { return nil }

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.quit = true
			return m, tea.Quit
		case "enter":
			if item, ok := m.list.SelectedItem().(pickerItem); ok {
				ident := item.ident
				m.selected = &ident
			}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height-2)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m pickerModel) View() string {
	return lipgloss.NewStyle().Margin(1, 2).Render(m.list.View())
}

// PickIdentity shows an interactive list and returns the selection.
// Returns false when the user cancels.
func PickIdentity(idents []identity.Identity, activeID string) (identity.Identity, bool, error) {
	items := make([]list.Item, 0, len(idents))
	for _, ident := range idents {
		items = append(items, pickerItem{ident: ident, active: ident.ID == activeID})
	}

	l := list.New(items, list.NewDefaultDelegate(), 60, 14)
	l.Title = "Switch identity"
	l.SetShowStatusBar(false)

	final, err := tea.NewProgram(pickerModel{list: l}).Run()
	if err != nil {
		return identity.Identity{}, false, fmt.Errorf("running picker: %w", err)
	}

	m, ok := final.(pickerModel)
	if !ok || m.selected == nil {
		return identity.Identity{}, false, nil
	}
	return *m.selected, true, nil
}
