package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a SQLite-backed repository at dbPath, initializing the
// schema if needed.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		hashed_password TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'employee'
	);

	CREATE TABLE IF NOT EXISTS profiles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		data TEXT NOT NULL,
		owner_id INTEGER NOT NULL REFERENCES users(id),
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_profiles_owner ON profiles(owner_id);
	CREATE INDEX IF NOT EXISTS idx_profiles_name ON profiles(name);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, hashed_password, role FROM users WHERE username = ?`, username)

	var u User
	err := row.Scan(&u.ID, &u.Username, &u.HashedPassword, &u.Role)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user row: %w", err)
	}
	return &u, nil
}

func (s *SQLiteStore) CreateUser(ctx context.Context, u *User) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, hashed_password, role) VALUES (?, ?, ?)`,
		u.Username, u.HashedPassword, u.Role)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	u.ID, err = res.LastInsertId()
	return err
}

func (s *SQLiteStore) ListProfiles(ctx context.Context, ownerID int64, all bool) ([]ProfileSummary, error) {
	query := `
		SELECT p.id, p.name, u.username, p.created_at
		FROM profiles p JOIN users u ON u.id = p.owner_id`
	args := []any{}
	if !all {
		query += ` WHERE p.owner_id = ?`
		args = append(args, ownerID)
	}
	query += ` ORDER BY p.created_at DESC, p.id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var out []ProfileSummary
	for rows.Next() {
		var p ProfileSummary
		var createdAt int64
		if err := rows.Scan(&p.ID, &p.Name, &p.Owner, &createdAt); err != nil {
			return nil, fmt.Errorf("scan profile row: %w", err)
		}
		p.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetProfile(ctx context.Context, id int64) (*Profile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, data, owner_id, created_at, updated_at FROM profiles WHERE id = ?`, id)

	var p Profile
	var createdAt, updatedAt int64
	err := row.Scan(&p.ID, &p.Name, &p.Data, &p.OwnerID, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan profile row: %w", err)
	}
	p.CreatedAt = time.Unix(createdAt, 0).UTC()
	p.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &p, nil
}

func (s *SQLiteStore) CreateProfile(ctx context.Context, p *Profile) (int64, error) {
	now := time.Now().Unix()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (name, data, owner_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		p.Name, p.Data, p.OwnerID, now, now)
	if err != nil {
		return 0, fmt.Errorf("insert profile: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	p.ID = id
	return id, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Seed ensures the demo accounts exist: admin/admin123, employee1/emp123,
// employee2/emp456.
func Seed(ctx context.Context, repo Repository) error {
	accounts := []struct {
		username, password, role string
	}{
		{"admin", "admin123", RoleAdmin},
		{"employee1", "emp123", RoleEmployee},
		{"employee2", "emp456", RoleEmployee},
	}

	for _, a := range accounts {
		existing, err := repo.GetUserByUsername(ctx, a.username)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(a.password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		u := &User{Username: a.username, HashedPassword: string(hash), Role: a.role}
		if err := repo.CreateUser(ctx, u); err != nil {
			return err
		}
		slog.Info("Seeded account", "username", a.username, "role", a.role)
	}
	return nil
}
