// Package store provides persistence for users and client profiles.
package store

import (
	"context"
	"time"
)

// Role values stored on users.
const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

// User is an operator account.
type User struct {
	ID             int64
	Username       string
	HashedPassword string
	Role           string
}

// Profile is one persisted client analysis. Data is the analysis document
// exactly as the client submitted it; the store never interprets it.
type Profile struct {
	ID        int64
	Name      string
	Data      []byte
	OwnerID   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProfileSummary is the listing row, including the owner's username for the
// admin view.
type ProfileSummary struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Owner     string    `json:"owner"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository defines the persistence operations the server needs. Lookups
// return (nil, nil) when the record does not exist.
type Repository interface {
	// GetUserByUsername retrieves an account for credential verification.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// CreateUser inserts an account and sets its ID.
	CreateUser(ctx context.Context, u *User) error

	// ListProfiles returns summaries of every profile when all is true,
	// otherwise only those owned by ownerID.
	ListProfiles(ctx context.Context, ownerID int64, all bool) ([]ProfileSummary, error)

	// GetProfile retrieves one profile with its stored document.
	GetProfile(ctx context.Context, id int64) (*Profile, error)

	// CreateProfile inserts a new profile and returns its id. Saving is
	// always an insert; there is no update-in-place.
	CreateProfile(ctx context.Context, p *Profile) (int64, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
