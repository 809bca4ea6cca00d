// Package profile coordinates persisted client profiles: listing, loading a
// stored analysis, and saving the current one under a derived name.
package profile

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dashetica/wealthsync/pkg/analysis"
	"github.com/dashetica/wealthsync/pkg/api"
)

// LoadResult is a completed profile load, tagged so late arrivals can be
// discarded once a newer load has been issued.
type LoadResult struct {
	ID    int64
	Doc   *analysis.Document
	Token uint64
}

// Repository lists, fetches, and creates persisted profiles, and tracks
// which one the current analysis is bound to. There is deliberately no
// update-in-place: save always creates a new profile.
type Repository struct {
	client *api.Client
	now    func() time.Time

	loadSeq atomic.Uint64

	mu        sync.Mutex
	cached    []api.ProfileSummary
	currentID *int64
}

// NewRepository creates a repository over the given API client.
func NewRepository(client *api.Client) *Repository {
	return &Repository{client: client, now: time.Now}
}

// List fetches all profiles visible to the current session and caches the
// result. An authentication failure has already torn the session down inside
// the transport layer; here it degrades to an empty listing rather than an
// error, since the user is being sent back to login anyway.
func (r *Repository) List(ctx context.Context) ([]api.ProfileSummary, error) {
	summaries, err := r.client.ListProfiles(ctx)
	if err != nil {
		if errors.Is(err, api.ErrSessionExpired) {
			return nil, nil
		}
		return nil, err
	}

	r.mu.Lock()
	r.cached = summaries
	r.mu.Unlock()
	return summaries, nil
}

// Cached returns the most recent successful listing.
func (r *Repository) Cached() []api.ProfileSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cached
}

// Load fetches one profile's stored analysis. The current profile id and the
// held analysis change only on success; a failed load leaves prior state
// untouched.
func (r *Repository) Load(ctx context.Context, id int64) (LoadResult, error) {
	token := r.loadSeq.Add(1)

	raw, err := r.client.GetProfile(ctx, id)
	if err != nil {
		return LoadResult{Token: token}, err
	}
	doc, err := analysis.Parse(raw)
	if err != nil {
		return LoadResult{Token: token}, err
	}

	r.mu.Lock()
	r.currentID = &id
	r.mu.Unlock()

	slog.Info("Loaded profile", "id", id, "client", doc.ClientName())
	return LoadResult{ID: id, Doc: doc, Token: token}, nil
}

// LatestLoad reports whether token belongs to the most recently issued load.
func (r *Repository) LatestLoad(token uint64) bool {
	return token == r.loadSeq.Load()
}

// Save persists doc under its client name, or a generated Client_<timestamp>
// fallback, and binds the current analysis to the returned id. Saving the
// same in-memory result twice creates two independent profiles.
func (r *Repository) Save(ctx context.Context, doc *analysis.Document) (int64, error) {
	name := doc.SaveName(r.now())

	id, err := r.client.SaveProfile(ctx, name, doc.Raw())
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	r.currentID = &id
	r.mu.Unlock()

	slog.Info("Saved profile", "id", id, "name", name)
	return id, nil
}

// CurrentID returns the id the current analysis is bound to, or nil for an
// unsaved, ephemeral analysis.
func (r *Repository) CurrentID() *int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.currentID == nil {
		return nil
	}
	id := *r.currentID
	return &id
}

// ClearCurrent drops the current profile binding, returning to an unsaved
// analysis state. The cached listing is kept; the history panel stays valid.
func (r *Repository) ClearCurrent() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.currentID = nil
}

// Reset clears both the current profile binding and the cached listing.
// Called on logout.
func (r *Repository) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.currentID = nil
	r.cached = nil
}
