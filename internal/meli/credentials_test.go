package meli_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/donaldgifford/meli-client/internal/meli"
)

func TestTokenStore_IsExpired(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		creds    meli.Credentials
		storedAt time.Time
		buffer   time.Duration
		want     bool
	}{
		{
			name:  "empty store",
			creds: meli.Credentials{},
			want:  true,
		},
		{
			name:  "refresh token only",
			creds: meli.Credentials{RefreshToken: "TG-1"},
			want:  true,
		},
		{
			name:  "access token without expiry",
			creds: meli.Credentials{AccessToken: "APP_USR-1"},
			want:  true,
		},
		{
			name:  "expired in the past",
			creds: meli.Credentials{AccessToken: "APP_USR-1", ExpiresAt: now.Add(-time.Second)},
			want:  true,
		},
		{
			name:  "expires exactly now",
			creds: meli.Credentials{AccessToken: "APP_USR-1", ExpiresAt: now},
			want:  true,
		},
		{
			name:  "valid token",
			creds: meli.Credentials{AccessToken: "APP_USR-1", ExpiresAt: now.Add(time.Hour)},
			want:  false,
		},
		{
			name:     "within expiry buffer",
			creds:    meli.Credentials{AccessToken: "APP_USR-1", ExpiresAt: now.Add(30 * time.Second)},
			storedAt: now.Add(-time.Hour),
			buffer:   time.Minute,
			want:     true,
		},
		{
			name:     "outside expiry buffer",
			creds:    meli.Credentials{AccessToken: "APP_USR-1", ExpiresAt: now.Add(2 * time.Minute)},
			storedAt: now.Add(-time.Hour),
			buffer:   time.Minute,
			want:     false,
		},
		{
			name:   "lifetime shorter than buffer just stored",
			creds:  meli.Credentials{AccessToken: "APP_USR-1", ExpiresAt: now.Add(30 * time.Second)},
			buffer: time.Minute,
			want:   false,
		},
		{
			name:   "lifetime equal to buffer just stored",
			creds:  meli.Credentials{AccessToken: "APP_USR-1", ExpiresAt: now.Add(time.Minute)},
			buffer: time.Minute,
			want:   false,
		},
		{
			name:     "short lifetime past its halfway point",
			creds:    meli.Credentials{AccessToken: "APP_USR-1", ExpiresAt: now.Add(10 * time.Second)},
			storedAt: now.Add(-20 * time.Second),
			buffer:   time.Minute,
			want:     true,
		},
	}

	for _, tt := range tests {

		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			clock := tt.storedAt
			if clock.IsZero() {
				clock = now
			}
			store := meli.NewTokenStore(tt.creds,
				meli.WithStoreNowFunc(func() time.Time { return clock }),
				meli.WithExpiryBuffer(tt.buffer),
			)
			clock = now
			assert.Equal(t, tt.want, store.IsExpired())
		})
	}
}

func TestTokenStore_ShortLivedTokenUsableAfterSet(t *testing.T) {
	t.Parallel()

	store := meli.NewTokenStore(meli.Credentials{RefreshToken: "TG-initial"})
	store.Set(meli.Credentials{
		AccessToken:  "APP_USR-short",
		RefreshToken: "TG-initial",
		ExpiresAt:    time.Now().Add(30 * time.Second),
	})

	assert.False(t, store.IsExpired())
}

func TestTokenStore_GetSet(t *testing.T) {
	t.Parallel()

	store := meli.NewTokenStore(meli.Credentials{RefreshToken: "TG-initial"})
	assert.Equal(t, "TG-initial", store.Get().RefreshToken)

	next := meli.Credentials{
		AccessToken:  "APP_USR-2",
		RefreshToken: "TG-2",
		ExpiresAt:    time.Now().Add(time.Hour),
		UserID:       42,
	}
	store.Set(next)
	assert.Equal(t, next, store.Get())
	assert.False(t, store.IsExpired())
}

func TestTokenStore_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	store := meli.NewTokenStore(meli.Credentials{})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		i := i
		wg.Add(2)
		go func() {
			defer wg.Done()
			store.Set(meli.Credentials{AccessToken: "APP_USR", UserID: int64(i)})
		}()
		go func() {
			defer wg.Done()
			_ = store.Get()
			_ = store.IsExpired()
		}()
	}
	wg.Wait()

	assert.Equal(t, "APP_USR", store.Get().AccessToken)
}
