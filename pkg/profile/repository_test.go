package profile

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dashetica/wealthsync/pkg/analysis"
	"github.com/dashetica/wealthsync/pkg/api"
)

func mustParse(t *testing.T, raw string) *analysis.Document {
	t.Helper()
	doc, err := analysis.Parse(json.RawMessage(raw))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestListCachesResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": 1, "name": "Asha Verma", "owner": "admin", "created_at": "2026-08-01T10:00:00Z"},
		})
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL)
	client.SetToken("tok")
	repo := NewRepository(client)

	summaries, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(summaries) != 1 || summaries[0].Name != "Asha Verma" {
		t.Errorf("unexpected summaries: %+v", summaries)
	}
	if got := repo.Cached(); len(got) != 1 {
		t.Errorf("cache not populated: %+v", got)
	}
}

func TestListSessionExpiryDegradesToEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL)
	client.SetToken("stale")
	repo := NewRepository(client)

	summaries, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("expiry must not surface as an error, got %v", err)
	}
	if summaries != nil {
		t.Errorf("expected empty listing, got %+v", summaries)
	}
}

func TestLoadBindsCurrentID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/42") {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Profile not found"})
			return
		}
		w.Write([]byte(`{"client_profile": {"name": "Asha Verma"}}`))
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL)
	client.SetToken("tok")
	repo := NewRepository(client)

	// A failed load leaves the binding untouched.
	if _, err := repo.Load(context.Background(), 99); err == nil {
		t.Fatal("expected not-found error")
	}
	if repo.CurrentID() != nil {
		t.Error("failed load must not bind a profile id")
	}

	res, err := repo.Load(context.Background(), 42)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.ID != 42 || res.Doc.ClientName() != "Asha Verma" {
		t.Errorf("unexpected load result: %+v", res)
	}
	if id := repo.CurrentID(); id == nil || *id != 42 {
		t.Errorf("CurrentID = %v, want 42", id)
	}
	if !repo.LatestLoad(res.Token) {
		t.Error("returned token must be the latest load")
	}
}

func TestSaveUsesFallbackNameAndBindsID(t *testing.T) {
	var savedName string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name string          `json:"name"`
			Data json.RawMessage `json:"data"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		savedName = req.Name
		json.NewEncoder(w).Encode(map[string]int64{"id": 7})
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL)
	client.SetToken("tok")
	repo := NewRepository(client)
	repo.now = func() time.Time { return time.UnixMilli(1717171717000) }

	id, err := repo.Save(context.Background(), mustParse(t, `{}`))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if id != 7 {
		t.Errorf("id = %d", id)
	}
	if savedName != "Client_1717171717000" {
		t.Errorf("fallback name = %q", savedName)
	}
	if got := repo.CurrentID(); got == nil || *got != 7 {
		t.Errorf("CurrentID = %v, want 7", got)
	}
}

func TestClearCurrentKeepsCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/profiles":
			json.NewEncoder(w).Encode([]map[string]any{
				{"id": 1, "name": "A", "owner": "admin", "created_at": "2026-08-01T10:00:00Z"},
			})
		default:
			w.Write([]byte(`{}`))
		}
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL)
	client.SetToken("tok")
	repo := NewRepository(client)

	if _, err := repo.List(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Load(context.Background(), 1); err != nil {
		t.Fatal(err)
	}

	repo.ClearCurrent()
	if repo.CurrentID() != nil {
		t.Error("ClearCurrent must drop the binding")
	}
	if len(repo.Cached()) != 1 {
		t.Error("ClearCurrent must keep the cached listing")
	}

	repo.Reset()
	if repo.Cached() != nil {
		t.Error("Reset must drop the cached listing")
	}
}
