package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/donaldgifford/meli-client/internal/meli"
)

// PostgresStore implements Store using pgxpool (connection-pooled PostgreSQL).
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore with connection pooling.
// Pool size comes from pool_max_conns in connString.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close gracefully shuts down the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Ping verifies the database connection is alive.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies pending SQL schema migrations.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return RunMigrations(ctx, s.pool)
}

// SaveCredentials inserts or replaces the credentials for clientID.
func (s *PostgresStore) SaveCredentials(ctx context.Context, clientID string, c meli.Credentials) error {
	var expiresAt *time.Time
	if !c.ExpiresAt.IsZero() {
		expiresAt = &c.ExpiresAt
	}

	args := pgx.NamedArgs{
		"client_id":     clientID,
		"user_id":       c.UserID,
		"access_token":  c.AccessToken,
		"refresh_token": c.RefreshToken,
		"token_type":    c.TokenType,
		"scope":         c.Scope,
		"expires_at":    expiresAt,
	}
	if _, err := s.pool.Exec(ctx, queryUpsertCredentials, args); err != nil {
		return fmt.Errorf("saving credentials: %w", err)
	}
	return nil
}

// LoadCredentials returns the saved credentials for clientID or ErrNotFound.
func (s *PostgresStore) LoadCredentials(ctx context.Context, clientID string) (meli.Credentials, error) {
	var (
		c         meli.Credentials
		expiresAt *time.Time
	)
	err := s.pool.QueryRow(ctx, queryGetCredentials, clientID).Scan(
		&c.UserID, &c.AccessToken, &c.RefreshToken, &c.TokenType, &c.Scope, &expiresAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return meli.Credentials{}, ErrNotFound
	}
	if err != nil {
		return meli.Credentials{}, fmt.Errorf("loading credentials: %w", err)
	}
	if expiresAt != nil {
		c.ExpiresAt = *expiresAt
	}
	return c, nil
}

// DeleteCredentials removes any saved credentials for clientID.
func (s *PostgresStore) DeleteCredentials(ctx context.Context, clientID string) error {
	if _, err := s.pool.Exec(ctx, queryDeleteCredentials, clientID); err != nil {
		return fmt.Errorf("deleting credentials: %w", err)
	}
	return nil
}
