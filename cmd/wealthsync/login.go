package main

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type loginForm struct {
	username textinput.Model
	password textinput.Model
	focus    int
	busy     bool
	errText  string
	notice   string
}

func newLoginForm() loginForm {
	user := textinput.New()
	user.Placeholder = "username"
	user.CharLimit = 64
	user.Focus()

	pass := textinput.New()
	pass.Placeholder = "password"
	pass.CharLimit = 64
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '•'

	return loginForm{username: user, password: pass}
}

func (f loginForm) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.login.busy {
		return m, nil
	}

	switch msg.Type {
	case tea.KeyEsc:
		return m, tea.Quit

	case tea.KeyTab, tea.KeyShiftTab, tea.KeyUp, tea.KeyDown:
		m.login.focus = (m.login.focus + 1) % 2
		if m.login.focus == 0 {
			m.login.username.Focus()
			m.login.password.Blur()
		} else {
			m.login.username.Blur()
			m.login.password.Focus()
		}
		return m, nil

	case tea.KeyCtrlD:
		// Demo account shortcut.
		m.login.busy = true
		m.login.errText = ""
		return m, m.loginCmd("admin", "admin123")

	case tea.KeyEnter:
		if m.login.focus == 0 {
			m.login.focus = 1
			m.login.username.Blur()
			m.login.password.Focus()
			return m, nil
		}
		username := m.login.username.Value()
		password := m.login.password.Value()
		if username == "" || password == "" {
			m.login.errText = "Username and password are required"
			return m, nil
		}
		m.login.busy = true
		m.login.errText = ""
		return m, m.loginCmd(username, password)
	}

	var cmd tea.Cmd
	if m.login.focus == 0 {
		m.login.username, cmd = m.login.username.Update(msg)
	} else {
		m.login.password, cmd = m.login.password.Update(msg)
	}
	return m, cmd
}

func (m model) loginView() string {
	header := titleStyle.Render("WealthSync · Sign In")

	var lines []string
	lines = append(lines, header, "")
	if m.login.notice != "" {
		lines = append(lines, statusStyle.Render(m.login.notice), "")
	}
	lines = append(lines,
		labelStyle.Render("Username"),
		m.login.username.View(),
		"",
		labelStyle.Render("Password"),
		m.login.password.View(),
		"",
	)

	if m.login.busy {
		lines = append(lines, statusStyle.Render("Signing in..."))
	}
	if m.login.errText != "" {
		lines = append(lines, errorStyle.Render(m.login.errText))
	}

	lines = append(lines, "", helpStyle.Render("enter sign in · ctrl+d demo account · esc quit"))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
