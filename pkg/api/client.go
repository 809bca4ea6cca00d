// Package api implements the HTTP client for the WealthSync backend. It is a
// pure transport layer: analysis documents pass through as raw JSON and are
// interpreted by the packages that own them.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Attachment is one uploaded evidence file, tagged with its content type so
// the backend can route it to the right modality.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// ProfileSummary is one row of the profile listing. Ordering is whatever the
// backend returned; the client never re-sorts.
type ProfileSummary struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Owner     string    `json:"owner"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginResponse is the credential triple issued by POST /login.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Role        string `json:"role"`
	Username    string `json:"username"`
}

// ChatRequest carries one conversation turn. Exactly one of ProfileID and
// Context is set: a persisted profile is referenced by id, an unsaved
// analysis travels inline as the snapshot taken when the conversation opened.
type ChatRequest struct {
	ProfileID *int64          `json:"profile_id"`
	Context   json.RawMessage `json:"context,omitempty"`
	Message   string          `json:"message"`
	Model     string          `json:"model"`
}

// Client talks to the backend. The bearer token is process-wide mutable
// state with last-writer-wins semantics: login installs it, logout and any
// 401 clear it, and every outbound request reads the current value.
type Client struct {
	baseURL string
	httpc   *http.Client

	mu             sync.RWMutex
	token          string
	onUnauthorized func()
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetUnauthorizedHandler registers the single recovery path for an expired or
// invalid token. Any authenticated call that comes back 401 invokes it before
// returning ErrSessionExpired, so one stale-token detection anywhere forces a
// full re-login.
func (c *Client) SetUnauthorizedHandler(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = fn
}

// SetToken arms the Authorization header for all subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// ClearToken strips the Authorization header.
func (c *Client) ClearToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
}

// Token returns the currently armed bearer token, or "".
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Login exchanges credentials for a token/role/username triple. A rejected
// pair yields *AuthError; any other failure surfaces as *APIError. The
// session state is untouched either way.
func (c *Client) Login(ctx context.Context, username, password string) (LoginResponse, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/login", strings.NewReader(form.Encode()))
	if err != nil {
		return LoginResponse{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return LoginResponse{}, fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return LoginResponse{}, fmt.Errorf("read login response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return LoginResponse{}, &AuthError{Message: decodeDetail(body, "Invalid credentials. Please try again.")}
	}
	if resp.StatusCode != http.StatusOK {
		return LoginResponse{}, &APIError{
			StatusCode: resp.StatusCode,
			Message:    decodeDetail(body, http.StatusText(resp.StatusCode)),
		}
	}

	var out LoginResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return LoginResponse{}, fmt.Errorf("decode login response: %w", err)
	}
	return out, nil
}

// ListProfiles fetches all profiles visible to the current session.
func (c *Client) ListProfiles(ctx context.Context) ([]ProfileSummary, error) {
	var out []ProfileSummary
	if err := c.getJSON(ctx, "/profiles", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetProfile fetches one profile's stored analysis document by id.
func (c *Client) GetProfile(ctx context.Context, id int64) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.getJSON(ctx, "/profiles/"+strconv.FormatInt(id, 10), &out); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, &NotFoundError{ID: id}
		}
		return nil, err
	}
	return out, nil
}

// SaveProfile persists an analysis document under the given name and returns
// the backend-assigned id.
func (c *Client) SaveProfile(ctx context.Context, name string, data json.RawMessage) (int64, error) {
	payload, err := json.Marshal(map[string]json.RawMessage{
		"name": mustMarshal(name),
		"data": data,
	})
	if err != nil {
		return 0, err
	}

	var out struct {
		ID int64 `json:"id"`
	}
	if err := c.postJSON(ctx, "/save_profile", payload, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

// Analyze submits attachments and/or a transcript for analysis. A non-nil
// profileID marks the submission as an augmentation of that profile; the
// backend merges the new evidence and returns the merged document.
func (c *Client) Analyze(ctx context.Context, files []Attachment, transcript string, profileID *int64) (json.RawMessage, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := mw.CreateFormFile("files", f.Name)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, err
		}
	}
	if transcript != "" {
		if err := mw.WriteField("transcript", transcript); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	path := "/analyze"
	if profileID != nil {
		path += "?profile_id=" + strconv.FormatInt(*profileID, 10)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out json.RawMessage
	if err := c.doAuthed(req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Chat sends one conversation turn and returns the assistant's reply text.
func (c *Client) Chat(ctx context.Context, chatReq ChatRequest) (string, error) {
	payload, err := json.Marshal(chatReq)
	if err != nil {
		return "", err
	}
	var out struct {
		Response string `json:"response"`
	}
	if err := c.postJSON(ctx, "/chat", payload, &out); err != nil {
		return "", err
	}
	return out.Response, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.doAuthed(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doAuthed(req, out)
}

// doAuthed issues an authenticated request. Any 401 routes through the
// unauthorized handler and surfaces as ErrSessionExpired; the caller never
// handles token expiry locally.
func (c *Client) doAuthed(req *http.Request, out any) error {
	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		slog.Warn("Backend rejected token, tearing down session", "path", req.URL.Path)
		c.mu.RLock()
		handler := c.onUnauthorized
		c.mu.RUnlock()
		if handler != nil {
			handler()
		}
		return ErrSessionExpired
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    decodeDetail(body, http.StatusText(resp.StatusCode)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func mustMarshal(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
