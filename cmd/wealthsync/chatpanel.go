package main

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/dashetica/wealthsync/pkg/agent"
)

type chatPanel struct {
	input    textinput.Model
	history  viewport.Model
	renderer *glamour.TermRenderer
	modelIdx int
	busy     bool
}

func newChatPanel() chatPanel {
	input := textinput.New()
	input.Placeholder = "Ask about this client..."
	input.CharLimit = 500

	vp := viewport.New(80, 10)

	// Standard style avoids terminal queries that leak into input.
	r, _ := glamour.NewTermRenderer(
		glamour.WithStandardStyle("light"),
		glamour.WithWordWrap(76),
	)

	return chatPanel{input: input, history: vp, renderer: r}
}

func (p chatPanel) Init() tea.Cmd {
	return textinput.Blink
}

func (p *chatPanel) setSize(width, height int) {
	p.input.Width = width - 6
	p.history.Width = width - 4
	p.history.Height = height / 3
	if p.history.Height < 4 {
		p.history.Height = 4
	}
	p.renderer, _ = glamour.NewTermRenderer(
		glamour.WithStandardStyle("light"),
		glamour.WithWordWrap(width-8),
	)
}

func (p *chatPanel) open(conv *agent.Conversation) {
	p.busy = false
	p.modelIdx = 0
	for i, name := range agent.Models {
		if name == conv.Model() {
			p.modelIdx = i
			break
		}
	}
	p.input.Reset()
	p.input.Focus()
	p.refresh(conv)
}

// refresh re-renders the transcript from the conversation.
func (p *chatPanel) refresh(conv *agent.Conversation) {
	p.busy = conv.Busy()

	var sb strings.Builder
	for _, msg := range conv.Messages() {
		if msg.Role == agent.RoleUser {
			sb.WriteString(userStyle.Render("You: "))
			sb.WriteString(msg.Content)
			sb.WriteString("\n")
			continue
		}

		sb.WriteString(assistantStyle.Render("WealthSync: "))
		content := msg.Content
		if p.renderer != nil {
			if rendered, err := p.renderer.Render(msg.Content); err == nil {
				content = rendered
			}
		}
		sb.WriteString("\n")
		sb.WriteString(content)
	}

	p.history.SetContent(sb.String())
	p.history.GotoBottom()
}

func (m model) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.conv == nil {
		return m.closeAgentPanel(), nil
	}

	switch msg.Type {
	case tea.KeyEsc:
		return m.closeAgentPanel(), nil

	case tea.KeyCtrlP:
		m.chat.modelIdx = (m.chat.modelIdx + 1) % len(agent.Models)
		m.conv.SetModel(agent.Models[m.chat.modelIdx])
		return m, nil

	case tea.KeyEnter:
		if m.chat.busy {
			return m, nil
		}
		text := strings.TrimSpace(m.chat.input.Value())
		if text == "" {
			return m, nil
		}
		m.chat.input.Reset()
		m.chat.busy = true
		return m, m.sendChatCmd(m.conv, text)
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.chat.input, cmd = m.chat.input.Update(msg)
	cmds = append(cmds, cmd)
	m.chat.history, cmd = m.chat.history.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (p chatPanel) view(width int) string {
	header := sectionStyle.Render("Assistant") +
		labelStyle.Render("  model: "+agent.Models[p.modelIdx])

	var lines []string
	lines = append(lines, header, p.history.View())
	if p.busy {
		lines = append(lines, statusStyle.Render("Thinking..."))
	}
	lines = append(lines, p.input.View())

	return panelStyle.Width(width - 2).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
