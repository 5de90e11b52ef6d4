package meli_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/meli-client/internal/meli"
)

func TestRateLimiter_Wait(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		rate    float64
		burst   int
		daily   int64
		calls   int
		wantErr bool
	}{
		{
			name:  "allows calls within rate",
			rate:  100,
			burst: 10,
			daily: 5000,
			calls: 3,
		},
		{
			name:  "allows burst",
			rate:  100,
			burst: 5,
			daily: 5000,
			calls: 5,
		},
		{
			name:  "zero daily limit disables quota",
			rate:  1000,
			burst: 20,
			daily: 0,
			calls: 20,
		},
		{
			name:    "rejects when daily limit reached",
			rate:    100,
			burst:   10,
			daily:   2,
			calls:   3,
			wantErr: true,
		},
	}

	for _, tt := range tests {

		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rl := meli.NewRateLimiter(tt.rate, tt.burst, tt.daily)

			var lastErr error
			for i := 0; i < tt.calls; i++ {
				lastErr = rl.Wait(context.Background())
				if lastErr != nil {
					break
				}
			}

			if tt.wantErr {
				require.ErrorIs(t, lastErr, meli.ErrRateLimited)
				assert.Contains(t, lastErr.Error(), "daily quota used")
			} else {
				require.NoError(t, lastErr)
			}
		})
	}
}

func TestRateLimiter_UsedAndRemaining(t *testing.T) {
	t.Parallel()

	rl := meli.NewRateLimiter(100, 10, 5000)

	assert.Equal(t, int64(0), rl.Used())
	assert.Equal(t, int64(5000), rl.Remaining())

	require.NoError(t, rl.Wait(context.Background()))
	require.NoError(t, rl.Wait(context.Background()))
	assert.Equal(t, int64(2), rl.Used())
	assert.Equal(t, int64(4998), rl.Remaining())

	unlimited := meli.NewRateLimiter(100, 10, 0)
	assert.Equal(t, int64(-1), unlimited.Remaining())
}

func TestRateLimiter_WindowReset(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	currentTime := start

	rl := meli.NewRateLimiter(
		100, 10, 2,
		meli.WithRateLimiterNowFunc(func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			return currentTime
		}),
	)
	assert.Equal(t, start.Add(24*time.Hour), rl.ResetAt())

	require.NoError(t, rl.Wait(context.Background()))
	require.NoError(t, rl.Wait(context.Background()))
	require.ErrorIs(t, rl.Wait(context.Background()), meli.ErrRateLimited)

	// Move past the end of the window.
	mu.Lock()
	currentTime = start.Add(24*time.Hour + time.Minute)
	mu.Unlock()

	require.NoError(t, rl.Wait(context.Background()))
	assert.Equal(t, int64(1), rl.Used())
	assert.Equal(t, currentTime.Add(24*time.Hour), rl.ResetAt())
}

func TestRateLimiter_ContextCanceled(t *testing.T) {
	t.Parallel()

	// 1 per 10 seconds, burst 1.
	rl := meli.NewRateLimiter(0.1, 1, 5000)

	require.NoError(t, rl.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := rl.Wait(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limiter wait")
	assert.NotErrorIs(t, err, meli.ErrRateLimited)
}
