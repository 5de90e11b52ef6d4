// Package store persists OAuth2 credentials so a rotated refresh token
// survives process restarts. Every implementation satisfies meli.Saver and
// can be handed to the client with meli.WithCredentialSaver.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/donaldgifford/meli-client/internal/config"
	"github.com/donaldgifford/meli-client/internal/meli"
)

// ErrNotFound is returned when no credentials are stored for a client id.
var ErrNotFound = errors.New("credentials not found")

// Store defines credential persistence operations.
type Store interface {
	// LoadCredentials returns the last saved credentials for clientID.
	LoadCredentials(ctx context.Context, clientID string) (meli.Credentials, error)
	// SaveCredentials inserts or replaces the credentials for clientID.
	SaveCredentials(ctx context.Context, clientID string, c meli.Credentials) error
	// DeleteCredentials removes any saved credentials for clientID.
	DeleteCredentials(ctx context.Context, clientID string) error

	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

var _ meli.Saver = Store(nil)

// Open builds the Store selected by cfg.Driver. Migrations are not applied.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverMemory, "":
		return NewMemoryStore(), nil
	case config.DriverSQLite:
		return NewSQLiteStore(ctx, cfg.SQLite.Path)
	case config.DriverPostgres:
		return NewPostgresStore(ctx, cfg.Postgres.DSN())
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// Merge overlays saved credentials on the configured ones. Saved values win:
// the configured refresh token is stale after its first use.
func Merge(configured, saved meli.Credentials) meli.Credentials {
	out := configured
	if saved.RefreshToken != "" {
		out.RefreshToken = saved.RefreshToken
	}
	if saved.AccessToken != "" {
		out.AccessToken = saved.AccessToken
		out.ExpiresAt = saved.ExpiresAt
		out.TokenType = saved.TokenType
		out.Scope = saved.Scope
	}
	if saved.UserID != 0 {
		out.UserID = saved.UserID
	}
	return out
}
