package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/dashetica/wealthsync/pkg/api"
)

func newLoginServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/login" {
			http.NotFound(w, r)
			return
		}
		r.ParseForm()
		if r.PostFormValue("password") != "admin123" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Incorrect username or password"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{
			"access_token": "tok-abc",
			"token_type":   "bearer",
			"role":         "admin",
			"username":     "admin",
		})
	}))
}

func TestLoginLogoutRoundTrip(t *testing.T) {
	srv := newLoginServer(t)
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "credentials.json")
	client := api.NewClient(srv.URL)
	mgr := NewManager(client, NewFileStore(path))

	if mgr.Authenticated() {
		t.Fatal("fresh manager should not be authenticated")
	}

	sess, err := mgr.Login(context.Background(), "admin", "admin123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if sess.Token != "tok-abc" || sess.Role != "admin" || sess.Username != "admin" {
		t.Errorf("unexpected session: %+v", sess)
	}
	if client.Token() != "tok-abc" {
		t.Error("token not armed on client")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("credentials not persisted: %v", err)
	}

	mgr.Logout()
	if mgr.Authenticated() {
		t.Error("still authenticated after logout")
	}
	if client.Token() != "" {
		t.Error("token still armed after logout")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("credentials file not removed on logout")
	}
}

func TestLoginFailureLeavesStateUntouched(t *testing.T) {
	srv := newLoginServer(t)
	defer srv.Close()

	client := api.NewClient(srv.URL)
	mgr := NewManager(client, NewFileStore(filepath.Join(t.TempDir(), "credentials.json")))

	_, err := mgr.Login(context.Background(), "admin", "wrong")
	if err == nil {
		t.Fatal("expected error")
	}
	if mgr.Authenticated() {
		t.Error("failed login must not authenticate")
	}
	if client.Token() != "" {
		t.Error("failed login must not arm a token")
	}
}

func TestRestorePersistedSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	store := NewFileStore(path)
	if err := store.Save(Session{Token: "tok-xyz", Role: "employee", Username: "employee1"}); err != nil {
		t.Fatal(err)
	}

	client := api.NewClient("http://localhost:0")
	mgr := NewManager(client, store)

	if !mgr.Authenticated() {
		t.Fatal("persisted session not restored")
	}
	if client.Token() != "tok-xyz" {
		t.Error("restored session did not arm the client token")
	}
	if mgr.Current().IsAdmin() {
		t.Error("employee restored as admin")
	}
}

func TestUnauthorizedTearsDownSession(t *testing.T) {
	// Accepts login, rejects everything authenticated.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/login" {
			json.NewEncoder(w).Encode(map[string]string{
				"access_token": "tok", "token_type": "bearer", "role": "admin", "username": "admin",
			})
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL)
	mgr := NewManager(client, NewFileStore(filepath.Join(t.TempDir(), "credentials.json")))

	if _, err := mgr.Login(context.Background(), "admin", "admin123"); err != nil {
		t.Fatal(err)
	}

	if _, err := client.ListProfiles(context.Background()); err == nil {
		t.Fatal("expected error from rejected call")
	}
	if mgr.Authenticated() {
		t.Error("401 must tear the session down")
	}
}

func TestFileStorePartialTripleLoadsAsAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	if err := os.WriteFile(path, []byte(`{"token": "tok-only"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	sess, err := NewFileStore(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if sess.Valid() || sess.Token != "" {
		t.Errorf("partial triple must load as no session, got %+v", sess)
	}
}
