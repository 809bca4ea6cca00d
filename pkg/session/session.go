// Package session owns the authenticated identity: the token/role/username
// triple issued at login, persisted across restarts, and consumed as the
// bearer credential by every backend request.
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dashetica/wealthsync/pkg/api"
)

// RoleAdmin is the privileged role; the backend shows admins every profile
// with an owner tag. All other role values are passed through opaquely.
const RoleAdmin = "admin"

// Session is the credential triple. The three fields are always set or
// cleared together, never partially present.
type Session struct {
	Token    string `json:"token"`
	Role     string `json:"role"`
	Username string `json:"username"`
}

// Valid reports whether the triple is fully populated.
func (s Session) Valid() bool {
	return s.Token != "" && s.Role != "" && s.Username != ""
}

// IsAdmin reports whether the session carries the administrative role.
func (s Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}

// Manager owns the process-wide session. Login installs the credential on the
// API client and in the store atomically; Logout and HandleUnauthorized clear
// both. Only one session is ever active client-side.
type Manager struct {
	client *api.Client
	store  Store

	mu      sync.Mutex
	current Session
}

// NewManager creates a manager bound to client and store, restores any
// persisted session, and registers itself as the client's sole 401 recovery
// path.
func NewManager(client *api.Client, store Store) *Manager {
	m := &Manager{client: client, store: store}
	client.SetUnauthorizedHandler(m.HandleUnauthorized)

	sess, err := store.Load()
	if err != nil {
		slog.Warn("Failed to restore persisted session", "error", err)
		return m
	}
	if sess.Valid() {
		m.current = sess
		client.SetToken(sess.Token)
		slog.Info("Restored persisted session", "username", sess.Username, "role", sess.Role)
	}
	return m
}

// Login exchanges credentials for a session. On success the triple is
// persisted and the bearer header is armed for all subsequent requests; on
// failure nothing changes and the *api.AuthError is returned for inline
// display.
func (m *Manager) Login(ctx context.Context, username, password string) (Session, error) {
	resp, err := m.client.Login(ctx, username, password)
	if err != nil {
		return Session{}, err
	}

	sess := Session{Token: resp.AccessToken, Role: resp.Role, Username: resp.Username}

	m.mu.Lock()
	m.current = sess
	m.mu.Unlock()

	m.client.SetToken(sess.Token)
	if err := m.store.Save(sess); err != nil {
		// The in-memory session stays usable; persistence failure only costs
		// the restore-on-restart behavior.
		slog.Warn("Failed to persist session", "error", err)
	}

	slog.Info("Logged in", "username", sess.Username, "role", sess.Role)
	return sess, nil
}

// Logout clears the persisted triple and strips the bearer header. Dependent
// state (current analysis, cached profile list, open conversations) is
// discarded by the orchestration layer when it observes the session go away.
func (m *Manager) Logout() {
	m.mu.Lock()
	m.current = Session{}
	m.mu.Unlock()

	m.client.ClearToken()
	if err := m.store.Clear(); err != nil {
		slog.Warn("Failed to clear persisted session", "error", err)
	}
	slog.Info("Logged out")
}

// HandleUnauthorized is invoked when any backend call reports the token
// invalid or expired. It has identical effect to Logout; there is no silent
// refresh.
func (m *Manager) HandleUnauthorized() {
	m.Logout()
}

// Current returns the active session, which may be the zero value.
func (m *Manager) Current() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Authenticated reports whether a full credential triple is active.
func (m *Manager) Authenticated() bool {
	return m.Current().Valid()
}
