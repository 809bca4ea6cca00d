package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLoginSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/login" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		if r.PostFormValue("username") != "admin" || r.PostFormValue("password") != "admin123" {
			t.Errorf("credentials not form-encoded: %v", r.PostForm)
		}
		json.NewEncoder(w).Encode(map[string]string{
			"access_token": "tok-1",
			"token_type":   "bearer",
			"role":         "admin",
			"username":     "admin",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	resp, err := c.Login(context.Background(), "admin", "admin123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.AccessToken != "tok-1" || resp.Role != "admin" || resp.Username != "admin" {
		t.Errorf("unexpected login response: %+v", resp)
	}
}

func TestLoginRejectedIsAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Incorrect username or password"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Login(context.Background(), "admin", "wrong")

	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected *AuthError, got %T: %v", err, err)
	}
	if authErr.Message != "Incorrect username or password" {
		t.Errorf("unexpected message: %q", authErr.Message)
	}
}

func TestLoginServerErrorIsNotAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Internal server error"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Login(context.Background(), "admin", "admin123")

	var authErr *AuthError
	if errors.As(err, &authErr) {
		t.Fatalf("a backend failure must not read as rejected credentials: %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", apiErr.StatusCode)
	}
	if apiErr.Message != "Internal server error" {
		t.Errorf("unexpected message: %q", apiErr.Message)
	}
}

func TestUnauthorizedTriggersHandlerAndSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	c.SetToken("stale")

	handled := false
	c.SetUnauthorizedHandler(func() { handled = true })

	_, err := c.ListProfiles(context.Background())
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if !handled {
		t.Error("unauthorized handler was not invoked")
	}
}

func TestGetProfileNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Profile not found"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	c.SetToken("tok")

	_, err := c.GetProfile(context.Background(), 42)
	var nfErr *NotFoundError
	if !errors.As(err, &nfErr) {
		t.Fatalf("expected *NotFoundError, got %T: %v", err, err)
	}
	if nfErr.ID != 42 {
		t.Errorf("NotFoundError.ID = %d, want 42", nfErr.ID)
	}
}

func TestAnalyzeSendsMultipartAndProfileID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("profile_id"); got != "7" {
			t.Errorf("profile_id query = %q, want 7", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("not multipart: %v", err)
		}
		if got := len(r.MultipartForm.File["files"]); got != 2 {
			t.Errorf("got %d files, want 2", got)
		}
		if got := r.PostFormValue("transcript"); got != "we discussed retirement" {
			t.Errorf("transcript = %q", got)
		}
		w.Write([]byte(`{"client_profile": {"name": "Asha"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	c.SetToken("tok")

	id := int64(7)
	raw, err := c.Analyze(context.Background(), []Attachment{
		{Name: "statement.pdf", ContentType: "application/pdf", Data: []byte("%PDF")},
		{Name: "board.png", ContentType: "image/png", Data: []byte{0x89}},
	}, "we discussed retirement", &id)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !json.Valid(raw) {
		t.Error("Analyze returned invalid JSON")
	}
}

func TestSaveProfileReturnsID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name string          `json:"name"`
			Data json.RawMessage `json:"data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.Name != "Asha Verma" {
			t.Errorf("name = %q", req.Name)
		}
		json.NewEncoder(w).Encode(map[string]int64{"id": 12})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	c.SetToken("tok")

	id, err := c.SaveProfile(context.Background(), "Asha Verma", json.RawMessage(`{"a":1}`))
	if err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}
	if id != 12 {
		t.Errorf("id = %d, want 12", id)
	}
}

func TestChatCarriesInlineContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.ProfileID != nil {
			t.Error("profile_id should be nil for an unsaved analysis")
		}
		if len(req.Context) == 0 {
			t.Error("context missing")
		}
		json.NewEncoder(w).Encode(map[string]string{"response": "ok"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	c.SetToken("tok")

	reply, err := c.Chat(context.Background(), ChatRequest{
		Context: json.RawMessage(`{"client_profile":{"name":"Asha"}}`),
		Message: "What is the net worth?",
		Model:   "Gemini 3.1 Pro (Latest)",
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if reply != "ok" {
		t.Errorf("reply = %q", reply)
	}
}
