package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUserRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	missing, err := s.GetUserByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)

	u := &User{Username: "employee1", HashedPassword: "hash", Role: RoleEmployee}
	require.NoError(t, s.CreateUser(ctx, u))
	assert.NotZero(t, u.ID)

	got, err := s.GetUserByUsername(ctx, "employee1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, RoleEmployee, got.Role)
}

func TestProfileScoping(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := &User{Username: "alice", HashedPassword: "h", Role: RoleEmployee}
	bob := &User{Username: "bob", HashedPassword: "h", Role: RoleEmployee}
	require.NoError(t, s.CreateUser(ctx, alice))
	require.NoError(t, s.CreateUser(ctx, bob))

	_, err := s.CreateProfile(ctx, &Profile{Name: "Client A", Data: []byte(`{}`), OwnerID: alice.ID})
	require.NoError(t, err)
	_, err = s.CreateProfile(ctx, &Profile{Name: "Client B", Data: []byte(`{}`), OwnerID: bob.ID})
	require.NoError(t, err)

	own, err := s.ListProfiles(ctx, alice.ID, false)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "Client A", own[0].Name)
	assert.Equal(t, "alice", own[0].Owner)

	all, err := s.ListProfiles(ctx, alice.ID, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSaveAlwaysCreates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := &User{Username: "alice", HashedPassword: "h", Role: RoleEmployee}
	require.NoError(t, s.CreateUser(ctx, u))

	first, err := s.CreateProfile(ctx, &Profile{Name: "Asha Verma", Data: []byte(`{"v":1}`), OwnerID: u.ID})
	require.NoError(t, err)
	second, err := s.CreateProfile(ctx, &Profile{Name: "Asha Verma", Data: []byte(`{"v":2}`), OwnerID: u.ID})
	require.NoError(t, err)
	assert.NotEqual(t, first, second, "same name must create an independent profile")

	rows, err := s.ListProfiles(ctx, u.ID, false)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestGetProfileAbsentIsNil(t *testing.T) {
	s := newTestStore(t)

	p, err := s.GetProfile(context.Background(), 12345)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestSeedIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, Seed(ctx, s))
	require.NoError(t, Seed(ctx, s))

	admin, err := s.GetUserByUsername(ctx, "admin")
	require.NoError(t, err)
	require.NotNil(t, admin)
	assert.Equal(t, RoleAdmin, admin.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.HashedPassword), []byte("admin123")))

	for _, username := range []string{"employee1", "employee2"} {
		u, err := s.GetUserByUsername(ctx, username)
		require.NoError(t, err)
		require.NotNil(t, u)
		assert.Equal(t, RoleEmployee, u.Role)
	}
}
