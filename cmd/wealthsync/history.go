package main

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dashetica/wealthsync/pkg/api"
)

type historyPanel struct {
	items     []api.ProfileSummary
	showOwner bool
	cursor    int
	busy      bool
}

func newHistoryPanel() historyPanel {
	return historyPanel{}
}

func (p *historyPanel) setItems(items []api.ProfileSummary, showOwner bool) {
	p.items = items
	p.showOwner = showOwner
	if p.cursor >= len(items) {
		p.cursor = 0
	}
}

func (m model) updateHistory(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.showHistory = false
		return m, nil
	case tea.KeyUp:
		if m.history.cursor > 0 {
			m.history.cursor--
		}
		return m, nil
	case tea.KeyDown:
		if m.history.cursor < len(m.history.items)-1 {
			m.history.cursor++
		}
		return m, nil
	case tea.KeyEnter:
		if m.history.busy || len(m.history.items) == 0 {
			return m, nil
		}
		m.history.busy = true
		m.err = nil
		return m, m.loadProfileCmd(m.history.items[m.history.cursor].ID)
	}

	switch msg.String() {
	case "h":
		m.showHistory = false
		return m, nil
	}
	return m, nil
}

func (p historyPanel) view(width int) string {
	var lines []string
	lines = append(lines, sectionStyle.Render("Client Profiles"))

	if len(p.items) == 0 {
		lines = append(lines, labelStyle.Render("No saved profiles yet."))
	}

	for i, item := range p.items {
		cursor := " "
		line := fmt.Sprintf("%s (%s)", item.Name, item.CreatedAt.Format(time.RFC822))
		if p.showOwner {
			line += "  " + ownerTagStyle.Render("owner: "+item.Owner)
		}
		if i == p.cursor {
			cursor = ">"
			line = selectedItemStyle.Render(line)
		}
		lines = append(lines, fmt.Sprintf("%s %s", cursorStyle.Render(cursor), line))
	}

	if p.busy {
		lines = append(lines, statusStyle.Render("Loading..."))
	}

	return panelStyle.Width(width - 2).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
