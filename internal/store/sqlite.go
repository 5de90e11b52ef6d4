package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver

	"github.com/donaldgifford/meli-client/internal/meli"
)

// SQLiteStore implements Store on a local SQLite file. It is the default
// for the CLI, which runs as short-lived processes.
type SQLiteStore struct {
	db      *sql.DB
	nowFunc func() time.Time
}

// NewSQLiteStore opens (or creates) the database at path. Use ":memory:" for
// a throwaway database.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One writer at a time; also keeps a ":memory:" database on one connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &SQLiteStore{db: db, nowFunc: time.Now}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate applies pending SQL schema migrations.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	return runSQLiteMigrations(ctx, s.db)
}

// SaveCredentials inserts or replaces the credentials for clientID.
// ExpiresAt is stored as Unix nanoseconds, zero meaning absent.
func (s *SQLiteStore) SaveCredentials(ctx context.Context, clientID string, c meli.Credentials) error {
	var expiresAt int64
	if !c.ExpiresAt.IsZero() {
		expiresAt = c.ExpiresAt.UnixNano()
	}

	_, err := s.db.ExecContext(ctx, sqliteUpsertCredentials,
		clientID, c.UserID, c.AccessToken, c.RefreshToken,
		c.TokenType, c.Scope, expiresAt, s.nowFunc().Unix(),
	)
	if err != nil {
		return fmt.Errorf("saving credentials: %w", err)
	}
	return nil
}

// LoadCredentials returns the saved credentials for clientID or ErrNotFound.
func (s *SQLiteStore) LoadCredentials(ctx context.Context, clientID string) (meli.Credentials, error) {
	var (
		c         meli.Credentials
		expiresAt int64
	)
	err := s.db.QueryRowContext(ctx, sqliteGetCredentials, clientID).Scan(
		&c.UserID, &c.AccessToken, &c.RefreshToken, &c.TokenType, &c.Scope, &expiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return meli.Credentials{}, ErrNotFound
	}
	if err != nil {
		return meli.Credentials{}, fmt.Errorf("loading credentials: %w", err)
	}
	if expiresAt != 0 {
		c.ExpiresAt = time.Unix(0, expiresAt)
	}
	return c, nil
}

// DeleteCredentials removes any saved credentials for clientID.
func (s *SQLiteStore) DeleteCredentials(ctx context.Context, clientID string) error {
	if _, err := s.db.ExecContext(ctx, sqliteDeleteCredentials, clientID); err != nil {
		return fmt.Errorf("deleting credentials: %w", err)
	}
	return nil
}
