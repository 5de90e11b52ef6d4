package meli

import (
	"sync"
	"time"

	"golang.org/x/oauth2"
)

const defaultExpiryBuffer = 60 * time.Second

// Credentials is the OAuth2 token pair held for one application.
type Credentials struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	TokenType    string    `json:"token_type,omitempty"`
	Scope        string    `json:"scope,omitempty"`
	UserID       int64     `json:"user_id,omitempty"`
}

// credentialsFromToken converts an oauth2 token, keeping the previous
// refresh token when the endpoint did not rotate it.
func credentialsFromToken(tok *oauth2.Token, previousRefresh string) Credentials {
	c := Credentials{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
		TokenType:    tok.TokenType,
	}
	if c.RefreshToken == "" {
		c.RefreshToken = previousRefresh
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		c.Scope = scope
	}
	// encoding/json decodes numbers into float64.
	if uid, ok := tok.Extra("user_id").(float64); ok {
		c.UserID = int64(uid)
	}
	return c
}

// TokenStore holds the current credentials. It is safe for concurrent use.
// Only the Authenticator mutates it after construction.
type TokenStore struct {
	mu      sync.RWMutex
	creds   Credentials
	setAt   time.Time
	buffer  time.Duration
	nowFunc func() time.Time
}

// StoreOption configures the TokenStore.
type StoreOption func(*TokenStore)

// WithStoreNowFunc overrides the time function for testing.
func WithStoreNowFunc(f func() time.Time) StoreOption {
	return func(s *TokenStore) {
		s.nowFunc = f
	}
}

// WithExpiryBuffer treats tokens expiring within d as already expired.
// The buffer never exceeds half of a token's lifetime, so short-lived
// tokens stay usable for a while after they are stored.
func WithExpiryBuffer(d time.Duration) StoreOption {
	return func(s *TokenStore) {
		s.buffer = d
	}
}

// NewTokenStore creates a store seeded with the initial credentials,
// usually only a refresh token loaded from configuration.
func NewTokenStore(initial Credentials, opts ...StoreOption) *TokenStore {
	s := &TokenStore{
		creds:   initial,
		buffer:  defaultExpiryBuffer,
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setAt = s.nowFunc()
	return s
}

// Get returns a copy of the current credentials.
func (s *TokenStore) Get() Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds
}

// Set replaces the current credentials.
func (s *TokenStore) Set(c Credentials) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = c
	s.setAt = s.nowFunc()
}

// IsExpired reports whether the access token is missing or past its expiry.
// A zero expiry counts as expired.
func (s *TokenStore) IsExpired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiredLocked(s.creds)
}

func (s *TokenStore) expiredLocked(c Credentials) bool {
	if c.AccessToken == "" || c.ExpiresAt.IsZero() {
		return true
	}
	return !s.nowFunc().Before(c.ExpiresAt.Add(-s.bufferLocked(c)))
}

func (s *TokenStore) bufferLocked(c Credentials) time.Duration {
	half := c.ExpiresAt.Sub(s.setAt) / 2
	if half < 0 {
		return 0
	}
	return min(s.buffer, half)
}

// usable reports whether c is present and unexpired, evaluated against
// the store's clock.
func (s *TokenStore) usable(c Credentials) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.expiredLocked(c)
}
