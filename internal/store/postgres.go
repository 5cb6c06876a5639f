package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres backs the store with a pgx connection pool. This is the
// production adapter.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var _ Store = (*Postgres)(nil)

// PostgresConfig carries pool settings.
type PostgresConfig struct {
	DSN      string
	MaxConns int32
}

// ConnectPostgres builds the pool and verifies connectivity.
func ConnectPostgres(ctx context.Context, cfg PostgresConfig, logger *slog.Logger) (*Postgres, error) {
	pgxCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		pgxCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	logger.Info("connected to postgres", "max_conns", pgxCfg.MaxConns)
	return &Postgres{pool: pool, logger: logger}, nil
}

func (p *Postgres) AppointmentOwner(ctx context.Context, id string) (string, error) {
	var owner string
	err := p.pool.QueryRow(ctx,
		`SELECT owner_email FROM appointments WHERE id = $1`, id,
	).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("query appointment owner: %w", err)
	}
	return owner, nil
}

func (p *Postgres) TenantByEmail(ctx context.Context, email string) (Tenant, error) {
	var t Tenant
	err := p.pool.QueryRow(ctx,
		`SELECT email, subscription_status, trial_ends_at, created_at
		   FROM tenants WHERE email = $1`, email,
	).Scan(&t.Email, &t.SubscriptionStatus, &t.TrialEndsAt, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Tenant{}, ErrNotFound
	}
	if err != nil {
		return Tenant{}, fmt.Errorf("query tenant: %w", err)
	}
	return t, nil
}

func (p *Postgres) UpsertTenant(ctx context.Context, t Tenant) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO tenants (email, subscription_status, trial_ends_at, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (email) DO UPDATE
		    SET subscription_status = EXCLUDED.subscription_status,
		        trial_ends_at      = EXCLUDED.trial_ends_at`,
		t.Email, t.SubscriptionStatus, t.TrialEndsAt, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert tenant: %w", err)
	}
	return nil
}

// CreateAppointment inserts an appointment row. Used by provisioning
// tooling, not by the request path.
func (p *Postgres) CreateAppointment(ctx context.Context, a Appointment) error {
	if a.ID == "" {
		a.ID = NewAppointmentID()
	}
	_, err := p.pool.Exec(ctx,
		`INSERT INTO appointments (id, owner_email, customer, starts_at)
		 VALUES ($1, $2, $3, $4)`,
		a.ID, a.OwnerEmail, a.Customer, a.StartsAt,
	)
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

func (p *Postgres) Close() error {
	p.logger.Info("closing postgres pool")
	p.pool.Close()
	return nil
}
