package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dashetica/wealthsync/pkg/api"
)

type uploadForm struct {
	path       textinput.Model
	transcript textarea.Model
	files      []api.Attachment
	focus      int // 0 = path input, 1 = transcript
	busy       bool
	errText    string
}

func newUploadForm() uploadForm {
	path := textinput.New()
	path.Placeholder = "path to a PDF, image, audio, or video file"
	path.CharLimit = 512
	path.Focus()

	ta := textarea.New()
	ta.Placeholder = "Paste meeting transcript text here (optional)..."
	ta.SetWidth(80)
	ta.SetHeight(6)
	ta.ShowLineNumbers = false

	return uploadForm{path: path, transcript: ta}
}

func (f uploadForm) Init() tea.Cmd {
	return textinput.Blink
}

func (f *uploadForm) setSize(width, height int) {
	f.path.Width = width - 4
	f.transcript.SetWidth(width - 4)
}

// addFile reads the file at path and stages it as an attachment.
func (f *uploadForm) addFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		f.errText = fmt.Sprintf("Cannot read %s: %v", path, err)
		return
	}
	f.files = append(f.files, api.Attachment{
		Name:        filepath.Base(path),
		ContentType: contentTypeFor(path),
		Data:        data,
	})
	f.errText = ""
	f.path.Reset()
}

func contentTypeFor(path string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func (m model) updateUpload(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.upload.busy {
		return m, nil
	}

	switch msg.Type {
	case tea.KeyEsc:
		// Back out of "add more" when an analysis is already on screen.
		if m.doc != nil {
			m.state = stateViewing
			return m, nil
		}
		return m, nil

	case tea.KeyTab:
		if m.upload.focus == 0 {
			m.upload.focus = 1
			m.upload.path.Blur()
			return m, m.upload.transcript.Focus()
		}
		m.upload.focus = 0
		m.upload.transcript.Blur()
		m.upload.path.Focus()
		return m, nil

	case tea.KeyCtrlU:
		if n := len(m.upload.files); n > 0 {
			m.upload.files = m.upload.files[:n-1]
		}
		return m, nil

	case tea.KeyCtrlS:
		files := m.upload.files
		transcript := strings.TrimSpace(m.upload.transcript.Value())
		if len(files) == 0 && transcript == "" {
			m.upload.errText = "Add at least one file or paste a transcript"
			return m, nil
		}
		m.upload.busy = true
		m.upload.errText = ""
		return m, m.submitCmd(files, transcript, m.profiles.CurrentID())

	case tea.KeyEnter:
		if m.upload.focus == 0 {
			if path := strings.TrimSpace(m.upload.path.Value()); path != "" {
				m.upload.addFile(path)
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	if m.upload.focus == 0 {
		m.upload.path, cmd = m.upload.path.Update(msg)
	} else {
		m.upload.transcript, cmd = m.upload.transcript.Update(msg)
	}
	return m, cmd
}

func (m model) uploadView() string {
	title := "WealthSync · New Analysis"
	if id := m.profiles.CurrentID(); id != nil {
		title = fmt.Sprintf("WealthSync · Add Evidence to Profile %d", *id)
	}
	header := titleStyle.Render(title)

	var lines []string
	lines = append(lines, header, "")

	lines = append(lines, labelStyle.Render("File path (enter to add)"), m.upload.path.View(), "")

	if len(m.upload.files) > 0 {
		lines = append(lines, sectionStyle.Render("Staged files"))
		for _, f := range m.upload.files {
			lines = append(lines, fmt.Sprintf("  • %s (%s, %d bytes)", f.Name, f.ContentType, len(f.Data)))
		}
		lines = append(lines, "")
	}

	lines = append(lines, labelStyle.Render("Meeting transcript"), m.upload.transcript.View(), "")

	if m.upload.busy {
		lines = append(lines, statusStyle.Render("Analyzing... this can take a while"))
	}
	if m.upload.errText != "" {
		lines = append(lines, errorStyle.Width(m.width).Render(m.upload.errText))
	}

	help := "tab switch field · enter add file · ctrl+u remove last · ctrl+s analyze · ctrl+l logout"
	if m.doc != nil {
		help += " · esc back"
	}
	lines = append(lines, "", helpStyle.Render(help))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
