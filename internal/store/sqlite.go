package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite backs the store with a local database file. It exists for
// development and tests; production deployments use Postgres.
type SQLite struct {
	db *sql.DB
}

var _ Store = (*SQLite)(nil)

// OpenSQLite opens (and creates if needed) the database at path and
// ensures required tables exist.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(pctx, "PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign_keys: %w", err)
	}
	if _, err := db.ExecContext(pctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy_timeout: %w", err)
	}

	if err := bootstrap(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

func bootstrap(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS appointments (
  id          TEXT PRIMARY KEY,
  owner_email TEXT NOT NULL,
  customer    TEXT NOT NULL DEFAULT '',
  starts_at   TEXT NOT NULL
);`,
		`CREATE TABLE IF NOT EXISTS tenants (
  email               TEXT PRIMARY KEY,
  subscription_status TEXT NOT NULL DEFAULT 'trial',
  trial_ends_at       TEXT NOT NULL,
  created_at          TEXT NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS appointments_owner_email_idx ON appointments(owner_email);`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap sqlite: %w", err)
		}
	}
	return nil
}

func (s *SQLite) AppointmentOwner(ctx context.Context, id string) (string, error) {
	var owner string
	err := s.db.QueryRowContext(ctx,
		`SELECT owner_email FROM appointments WHERE id = ?`, id,
	).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("query appointment owner: %w", err)
	}
	return owner, nil
}

func (s *SQLite) TenantByEmail(ctx context.Context, email string) (Tenant, error) {
	var (
		t        Tenant
		trialEnd string
		created  string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT email, subscription_status, trial_ends_at, created_at
		   FROM tenants WHERE email = ?`, email,
	).Scan(&t.Email, &t.SubscriptionStatus, &trialEnd, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Tenant{}, ErrNotFound
	}
	if err != nil {
		return Tenant{}, fmt.Errorf("query tenant: %w", err)
	}
	t.TrialEndsAt, _ = time.Parse(time.RFC3339, trialEnd)
	t.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return t, nil
}

func (s *SQLite) UpsertTenant(ctx context.Context, t Tenant) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tenants (email, subscription_status, trial_ends_at, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (email) DO UPDATE
		    SET subscription_status = excluded.subscription_status,
		        trial_ends_at      = excluded.trial_ends_at`,
		t.Email, t.SubscriptionStatus,
		t.TrialEndsAt.UTC().Format(time.RFC3339),
		t.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upsert tenant: %w", err)
	}
	return nil
}

// CreateAppointment inserts an appointment row. Used by dev seeding and
// tests, not by the request path.
func (s *SQLite) CreateAppointment(ctx context.Context, a Appointment) error {
	if a.ID == "" {
		a.ID = NewAppointmentID()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO appointments (id, owner_email, customer, starts_at)
		 VALUES (?, ?, ?, ?)`,
		a.ID, a.OwnerEmail, a.Customer, a.StartsAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
