package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dashetica/wealthsync/pkg/agent"
	"github.com/dashetica/wealthsync/pkg/analysis"
	"github.com/dashetica/wealthsync/pkg/api"
	"github.com/dashetica/wealthsync/pkg/profile"
	"github.com/dashetica/wealthsync/pkg/session"
)

type viewState int

const (
	stateLoggedOut viewState = iota
	stateUploading
	stateViewing
)

type errMsg struct{ err error }

type loginResultMsg struct {
	sess session.Session
	err  error
}

type profilesMsg struct {
	summaries []api.ProfileSummary
	err       error
}

type analyzeResultMsg struct {
	res analysis.Result
	err error
}

type profileLoadedMsg struct {
	res profile.LoadResult
	err error
}

type saveResultMsg struct {
	id  int64
	err error
}

type chatReplyMsg struct {
	convID string
}

type model struct {
	ctx context.Context

	client       *api.Client
	sessions     *session.Manager
	profiles     *profile.Repository
	orchestrator *analysis.Orchestrator

	state       viewState
	showHistory bool
	showAgent   bool

	doc  *analysis.Document
	conv *agent.Conversation

	login   loginForm
	upload  uploadForm
	history historyPanel
	chat    chatPanel

	viewport viewport.Model
	width    int
	height   int
	err      error
	status   string
}

func initialModel(ctx context.Context, client *api.Client, sessions *session.Manager, profiles *profile.Repository, orch *analysis.Orchestrator) model {
	vp := viewport.New(80, 20)

	m := model{
		ctx:          ctx,
		client:       client,
		sessions:     sessions,
		profiles:     profiles,
		orchestrator: orch,
		state:        stateLoggedOut,
		login:        newLoginForm(),
		upload:       newUploadForm(),
		history:      newHistoryPanel(),
		chat:         newChatPanel(),
		viewport:     vp,
	}

	// A persisted session skips the login surface.
	if sessions.Authenticated() {
		m.state = stateUploading
	}
	return m
}

func (m model) Init() tea.Cmd {
	if m.state != stateLoggedOut {
		return m.fetchProfilesCmd()
	}
	return m.login.Init()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - 4
		if m.viewport.Height < 0 {
			m.viewport.Height = 0
		}
		m.upload.setSize(msg.Width, msg.Height)
		m.chat.setSize(msg.Width, msg.Height)
		if m.doc != nil {
			m.viewport.SetContent(renderDashboard(m.doc, m.width))
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case loginResultMsg:
		return m.handleLoginResult(msg)

	case profilesMsg:
		// A fetch that was in flight at logout resolves after teardown; drop
		// it so the login notice is not overwritten.
		if m.state == stateLoggedOut {
			return m, nil
		}
		// An auth failure on listing degrades to an empty sequence rather than
		// an error, so the teardown is detected by the session going away.
		if !m.sessions.Authenticated() {
			return m.teardown("Session expired. Please sign in again."), nil
		}
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.history.setItems(msg.summaries, m.sessions.Current().IsAdmin())
		return m, nil

	case analyzeResultMsg:
		return m.handleAnalyzeResult(msg)

	case profileLoadedMsg:
		return m.handleProfileLoaded(msg)

	case saveResultMsg:
		if ok, next := m.checkSession(msg.err); !ok {
			return next, nil
		}
		if msg.err != nil {
			m.err = fmt.Errorf("save failed: %w", msg.err)
			return m, nil
		}
		m.err = nil
		m.status = fmt.Sprintf("Profile saved (id %d)", msg.id)
		return m, m.fetchProfilesCmd()

	case chatReplyMsg:
		// The conversation already appended the reply (real or synthetic).
		if m.conv != nil && m.conv.ID() == msg.convID {
			m.chat.refresh(m.conv)
		}
		return m, nil

	case errMsg:
		if ok, next := m.checkSession(msg.err); !ok {
			return next, nil
		}
		m.err = msg.err
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	if m.state == stateLoggedOut {
		return m.updateLogin(msg)
	}

	if msg.Type == tea.KeyCtrlL {
		return m.teardown("Logged out."), nil
	}

	// Panel focus order: agent panel first, then history, then the base state.
	if m.showAgent {
		return m.updateChat(msg)
	}
	if m.showHistory {
		return m.updateHistory(msg)
	}

	switch m.state {
	case stateUploading:
		return m.updateUpload(msg)
	case stateViewing:
		return m.updateViewing(msg)
	}
	return m, nil
}

func (m model) updateViewing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "a":
		// Add more evidence to the current profile; the binding is retained.
		m.state = stateUploading
		m.upload = newUploadForm()
		m.upload.setSize(m.width, m.height)
		m.err = nil
		m.status = ""
		return m, m.upload.Init()
	case "n":
		// Start over: unbound, no analysis.
		m.profiles.ClearCurrent()
		m.doc = nil
		m.conv = nil
		m.state = stateUploading
		m.upload = newUploadForm()
		m.upload.setSize(m.width, m.height)
		m.err = nil
		m.status = ""
		return m, m.upload.Init()
	case "s":
		if m.doc == nil {
			return m, nil
		}
		m.status = "Saving..."
		return m, m.saveProfileCmd(m.doc)
	case "h":
		m.showHistory = !m.showHistory
		if m.showHistory {
			return m, m.fetchProfilesCmd()
		}
		return m, nil
	case "c":
		return m.openAgentPanel()
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m model) openAgentPanel() (tea.Model, tea.Cmd) {
	if m.doc == nil {
		return m, nil
	}
	// Every opening is a fresh conversation; the context binding is taken now
	// and never follows later profile or analysis changes.
	m.conv = agent.New(m.client, m.profiles.CurrentID(), m.doc)
	m.showAgent = true
	m.chat.open(m.conv)
	return m, m.chat.Init()
}

func (m model) closeAgentPanel() model {
	m.showAgent = false
	m.conv = nil
	return m
}

func (m model) handleLoginResult(msg loginResultMsg) (tea.Model, tea.Cmd) {
	m.login.busy = false
	if msg.err != nil {
		var authErr *api.AuthError
		if errors.As(msg.err, &authErr) {
			m.login.errText = authErr.Message
		} else {
			m.login.errText = msg.err.Error()
		}
		return m, nil
	}

	m.err = nil
	m.status = fmt.Sprintf("Signed in as %s", msg.sess.Username)
	m.state = stateUploading
	m.upload = newUploadForm()
	m.upload.setSize(m.width, m.height)
	return m, tea.Batch(m.upload.Init(), m.fetchProfilesCmd())
}

func (m model) handleAnalyzeResult(msg analyzeResultMsg) (tea.Model, tea.Cmd) {
	m.upload.busy = false
	if ok, next := m.checkSession(msg.err); !ok {
		return next, nil
	}
	if !m.orchestrator.Latest(msg.res.Token) {
		slog.Debug("Discarding stale analysis result", "token", msg.res.Token)
		return m, nil
	}
	if msg.err != nil {
		// Shown near the uploader; any previously rendered analysis is kept.
		m.upload.errText = msg.err.Error()
		return m, nil
	}

	m.doc = msg.res.Doc
	m.state = stateViewing
	m.err = nil
	m.status = ""
	m.viewport.SetContent(renderDashboard(m.doc, m.width))
	m.viewport.GotoTop()
	return m, nil
}

func (m model) handleProfileLoaded(msg profileLoadedMsg) (tea.Model, tea.Cmd) {
	m.history.busy = false
	if ok, next := m.checkSession(msg.err); !ok {
		return next, nil
	}
	if !m.profiles.LatestLoad(msg.res.Token) {
		slog.Debug("Discarding stale profile load", "token", msg.res.Token)
		return m, nil
	}
	if msg.err != nil {
		// Prior analysis stays until a load succeeds.
		m.err = msg.err
		return m, nil
	}

	m.doc = msg.res.Doc
	// An open assistant keeps its conversation: the binding was frozen when
	// the panel opened and does not follow the newly loaded profile.
	if !m.showAgent {
		m.conv = nil
	}
	m.state = stateViewing
	m.showHistory = false
	m.err = nil
	m.status = fmt.Sprintf("Loaded profile %d", msg.res.ID)
	m.viewport.SetContent(renderDashboard(m.doc, m.width))
	m.viewport.GotoTop()
	return m, nil
}

// checkSession inspects an operation error for session expiry. When the token
// was rejected the whole client state is torn down and the login surface is
// shown; ok=false means the caller should stop handling the message.
func (m model) checkSession(err error) (bool, model) {
	if err == nil || !errors.Is(err, api.ErrSessionExpired) {
		return true, m
	}
	return false, m.teardown("Session expired. Please sign in again.")
}

// teardown drops everything derived from the session and returns to the login
// surface. The session manager itself has already been cleared, either by
// Logout or by the 401 handler.
func (m model) teardown(notice string) model {
	if m.sessions.Authenticated() {
		m.sessions.Logout()
	}
	m.profiles.Reset()
	m.doc = nil
	m.conv = nil
	m.showHistory = false
	m.showAgent = false
	m.state = stateLoggedOut
	m.err = nil
	m.status = ""
	m.login = newLoginForm()
	m.login.notice = notice
	m.history = newHistoryPanel()
	return m
}

func (m model) View() string {
	switch m.state {
	case stateLoggedOut:
		return m.loginView()
	case stateUploading:
		return m.uploadView()
	default:
		return m.viewingView()
	}
}

func (m model) viewingView() string {
	header := titleStyle.Render("WealthSync")
	if m.doc != nil {
		if name := m.doc.ClientName(); name != "" {
			header = titleStyle.Render("WealthSync · " + name)
		}
	}
	if id := m.profiles.CurrentID(); id != nil {
		header += labelStyle.Render(fmt.Sprintf("  profile %d", *id))
	} else {
		header += labelStyle.Render("  unsaved")
	}

	var statusLine string
	if m.err != nil {
		statusLine = errorStyle.Width(m.width).Render("Error: " + m.err.Error())
	} else if m.status != "" {
		statusLine = statusStyle.Render(m.status)
	}

	body := m.viewport.View()
	if m.showAgent {
		body = lipgloss.JoinVertical(lipgloss.Left, body, m.chat.view(m.width))
	} else if m.showHistory {
		body = lipgloss.JoinVertical(lipgloss.Left, body, m.history.view(m.width))
	}

	help := helpStyle.Render("s save · a add more · n new profile · h history · c assistant · ctrl+l logout · ctrl+c quit")
	if m.showAgent {
		help = helpStyle.Render("enter send · ctrl+p switch model · esc close assistant")
	} else if m.showHistory {
		help = helpStyle.Render("↑/↓ select · enter load · esc close history")
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, statusLine, help)
}

// Commands. Each backend call runs on its own goroutine and reports back as a
// message; results carry tokens so late arrivals are discarded.

func (m model) loginCmd(username, password string) tea.Cmd {
	return func() tea.Msg {
		sess, err := m.sessions.Login(m.ctx, username, password)
		return loginResultMsg{sess: sess, err: err}
	}
}

func (m model) fetchProfilesCmd() tea.Cmd {
	return func() tea.Msg {
		summaries, err := m.profiles.List(m.ctx)
		return profilesMsg{summaries: summaries, err: err}
	}
}

func (m model) submitCmd(files []api.Attachment, transcript string, target *int64) tea.Cmd {
	return func() tea.Msg {
		res, err := m.orchestrator.Submit(m.ctx, files, transcript, target)
		return analyzeResultMsg{res: res, err: err}
	}
}

func (m model) loadProfileCmd(id int64) tea.Cmd {
	return func() tea.Msg {
		res, err := m.profiles.Load(m.ctx, id)
		return profileLoadedMsg{res: res, err: err}
	}
}

func (m model) saveProfileCmd(doc *analysis.Document) tea.Cmd {
	return func() tea.Msg {
		id, err := m.profiles.Save(m.ctx, doc)
		return saveResultMsg{id: id, err: err}
	}
}

func (m model) sendChatCmd(conv *agent.Conversation, text string) tea.Cmd {
	return func() tea.Msg {
		conv.Send(m.ctx, text)
		return chatReplyMsg{convID: conv.ID()}
	}
}
