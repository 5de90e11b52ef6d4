package meli_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/meli-client/internal/meli"
	"github.com/donaldgifford/meli-client/internal/meli/mocks"
)

func testConfig(baseURL string) meli.Config {
	return meli.Config{
		Environment:  meli.Environment{BaseURL: baseURL, Site: meli.SiteBrazil},
		ClientID:     "test-client-id",
		ClientSecret: "test-client-secret",
		RefreshToken: "TG-initial",
	}
}

func readBody(t *testing.T, r *http.Request) []byte {
	t.Helper()
	if r.Body == nil {
		return nil
	}
	data, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	return data
}

func TestNew_RequiresClientID(t *testing.T) {
	t.Parallel()

	_, err := meli.New(meli.Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client id is required")
}

func TestNew_InstallsAuthenticatingTransport(t *testing.T) {
	t.Parallel()

	var tokenCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/token":
			tokenCalls.Add(1)
			writeJSON(w, http.StatusOK, tokenJSON("APP_USR-fresh", "TG-rotated"))
		case "/users/me":
			assert.Equal(t, "Bearer APP_USR-fresh", r.Header.Get("Authorization"))
			writeJSON(w, http.StatusOK, []byte(`{"id":123456789,"nickname":"TESTUSER"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client, err := meli.New(testConfig(srv.URL))
	require.NoError(t, err)

	var me struct {
		ID       int64  `json:"id"`
		Nickname string `json:"nickname"`
	}
	require.NoError(t, client.Get(context.Background(), "/users/me", &me))
	assert.Equal(t, int64(123456789), me.ID)
	assert.Equal(t, "TESTUSER", me.Nickname)

	// Token is now cached.
	require.NoError(t, client.Get(context.Background(), "/users/me", nil))
	assert.Equal(t, int32(1), tokenCalls.Load())
	assert.Equal(t, "TG-rotated", client.Tokens().Get().RefreshToken)
}

func TestNew_UsesGivenHTTPClient(t *testing.T) {
	t.Parallel()

	doer := mocks.NewMockDoer(t)
	doer.EXPECT().
		Do(mock.MatchedBy(func(r *http.Request) bool {
			return r.Header.Get("Authorization") == ""
		})).
		Return(response(http.StatusOK, `{"result":true}`), nil).
		Once()

	client, err := meli.New(testConfig("https://test.com"), meli.WithHTTPClient(doer))
	require.NoError(t, err)

	require.NoError(t, client.Get(context.Background(), "/test", nil))
}

func TestClient_PostSendsBodyUnchanged(t *testing.T) {
	t.Parallel()

	data := map[string]string{
		"grant_type":    "granttype",
		"client_id":     "clientid",
		"client_secret": "clientsecret",
		"refresh_token": "refreshtoken",
	}

	doer := mocks.NewMockDoer(t)
	doer.EXPECT().
		Do(mock.Anything).
		Run(func(r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "https://test.com/test", r.URL.String())
			for k, v := range meli.DefaultHeaders() {
				assert.Equal(t, v, r.Header.Values(k), "header %s", k)
			}

			var got map[string]string
			require.NoError(t, json.Unmarshal(readBody(t, r), &got))
			assert.Equal(t, data, got)
		}).
		Return(response(http.StatusOK, `{"result":true}`), nil).
		Once()

	client, err := meli.New(testConfig("https://test.com"), meli.WithHTTPClient(doer))
	require.NoError(t, err)

	var result map[string]any
	require.NoError(t, client.Post(context.Background(), "/test", data, &result))
	assert.Equal(t, map[string]any{"result": true}, result)
}

func TestClient_GetConfiguresHeaders(t *testing.T) {
	t.Parallel()

	doer := mocks.NewMockDoer(t)
	doer.EXPECT().
		Do(mock.Anything).
		Run(func(r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/test", r.URL.Path)
			assert.Equal(t, "Test", r.URL.Query().Get("name"))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.Equal(t, "application/json", r.Header.Get("Accept"))
			assert.Empty(t, readBody(t, r))
		}).
		Return(response(http.StatusOK, `{"result":true}`), nil).
		Once()

	client, err := meli.New(testConfig("https://test.com"), meli.WithHTTPClient(doer))
	require.NoError(t, err)

	var result map[string]any
	require.NoError(t, client.Get(context.Background(), "/test?name=Test", &result))
	assert.Equal(t, map[string]any{"result": true}, result)
}

func TestClient_RequestHeadersOverrideDefaults(t *testing.T) {
	t.Parallel()

	doer := mocks.NewMockDoer(t)
	doer.EXPECT().
		Do(mock.Anything).
		Run(func(r *http.Request) {
			assert.Equal(t, "text/plain", r.Header.Get("Accept"))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.Equal(t, "extra", r.Header.Get("X-Format-New"))
			assert.Equal(t, "b", r.URL.Query().Get("a"))
			assert.Equal(t, "Test", r.URL.Query().Get("name"))
		}).
		Return(response(http.StatusOK, `{}`), nil).
		Once()

	client, err := meli.New(testConfig("https://test.com"), meli.WithHTTPClient(doer))
	require.NoError(t, err)

	err = client.Get(context.Background(), "/test?name=Test", nil,
		meli.WithRequestHeader("accept", "text/plain"),
		meli.WithRequestHeader("X-Format-New", "extra"),
		meli.WithQuery(url.Values{"a": {"b"}}),
	)
	require.NoError(t, err)
}

func TestClient_FormBody(t *testing.T) {
	t.Parallel()

	doer := mocks.NewMockDoer(t)
	doer.EXPECT().
		Do(mock.Anything).
		Run(func(r *http.Request) {
			assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
			assert.Equal(t, "a=1&b=2", string(readBody(t, r)))
		}).
		Return(response(http.StatusOK, `{}`), nil).
		Once()

	client, err := meli.New(testConfig("https://test.com"), meli.WithHTTPClient(doer))
	require.NoError(t, err)

	require.NoError(t, client.Post(context.Background(), "/form", url.Values{"a": {"1"}, "b": {"2"}}, nil))
}

func TestClient_ErrorResponses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		status     int
		body       string
		wantAuth   bool
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "not found",
			status:     http.StatusNotFound,
			body:       `{"message":"Item with id MLB1 not found","error":"not_found","status":404,"cause":[]}`,
			wantStatus: http.StatusNotFound,
			wantMsg:    "Item with id MLB1 not found",
		},
		{
			name:       "validation error with causes",
			status:     http.StatusBadRequest,
			body:       `{"message":"Validation error","error":"validation_error","status":400,"cause":[{"code":"item.title.invalid","message":"title is required"}]}`,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Validation error",
		},
		{
			name:       "non JSON error body",
			status:     http.StatusBadGateway,
			body:       `<html>bad gateway</html>`,
			wantStatus: http.StatusBadGateway,
		},
		{
			name:     "unauthorized without interceptor",
			status:   http.StatusUnauthorized,
			body:     `{"message":"invalid access token","error":"unauthorized","status":401}`,
			wantAuth: true,
		},
	}

	for _, tt := range tests {

		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doer := mocks.NewMockDoer(t)
			doer.EXPECT().Do(mock.Anything).Return(response(tt.status, tt.body), nil).Once()

			client, err := meli.New(testConfig("https://test.com"), meli.WithHTTPClient(doer))
			require.NoError(t, err)

			resp, err := client.Do(context.Background(), meli.NewRequest(http.MethodGet, "/items/MLB1", nil))
			require.Error(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, tt.status, resp.StatusCode)

			if tt.wantAuth {
				require.ErrorIs(t, err, meli.ErrAuth)
				return
			}

			var apiErr *meli.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
			assert.Equal(t, tt.body, string(apiErr.Body))
		})
	}
}

func TestClient_UnauthorizedTwiceThroughTransport(t *testing.T) {
	t.Parallel()

	var apiCalls, tokenCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/token" {
			tokenCalls.Add(1)
			writeJSON(w, http.StatusOK, tokenJSON("APP_USR-fresh", "TG-rotated"))
			return
		}
		apiCalls.Add(1)
		writeJSON(w, http.StatusUnauthorized, []byte(`{"message":"invalid access token","error":"unauthorized","status":401}`))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.AccessToken = "APP_USR-revoked"
	cfg.ExpiresAt = time.Now().Add(time.Hour)

	client, err := meli.New(cfg)
	require.NoError(t, err)

	err = client.Get(context.Background(), "/orders/search?seller=1", nil)
	require.ErrorIs(t, err, meli.ErrAuth)

	var authErr *meli.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusUnauthorized, authErr.StatusCode)

	assert.Equal(t, int32(2), apiCalls.Load())
	assert.Equal(t, int32(1), tokenCalls.Load())
}

func TestClient_TransportFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/token" {
			writeJSON(w, http.StatusOK, tokenJSON("APP_USR-fresh", "TG-rotated"))
			return
		}
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := meli.New(testConfig(srv.URL), meli.WithTimeout(50*time.Millisecond))
	require.NoError(t, err)

	err = client.Get(context.Background(), "/slow", nil)
	require.ErrorIs(t, err, meli.ErrTransport)
	assert.NotErrorIs(t, err, meli.ErrAuth)
}

func TestClient_RateLimited(t *testing.T) {
	t.Parallel()

	doer := mocks.NewMockDoer(t)
	doer.EXPECT().Do(mock.Anything).Return(response(http.StatusOK, `{}`), nil).Once()

	client, err := meli.New(testConfig("https://test.com"),
		meli.WithHTTPClient(doer),
		meli.WithRateLimiter(meli.NewRateLimiter(100, 10, 1)),
	)
	require.NoError(t, err)

	require.NoError(t, client.Get(context.Background(), "/sites/MLB", nil))

	err = client.Get(context.Background(), "/sites/MLB", nil)
	require.ErrorIs(t, err, meli.ErrRateLimited)
	assert.Contains(t, err.Error(), "rate limit:")
}

func TestClient_TimeoutBoundsRateLimiterWait(t *testing.T) {
	t.Parallel()

	doer := mocks.NewMockDoer(t)
	doer.EXPECT().Do(mock.Anything).Return(response(http.StatusOK, `{}`), nil).Once()

	client, err := meli.New(testConfig("https://test.com"),
		meli.WithHTTPClient(doer),
		meli.WithTimeout(200*time.Millisecond),
		meli.WithRateLimiter(meli.NewRateLimiter(0.5, 1, 0)),
	)
	require.NoError(t, err)

	require.NoError(t, client.Get(context.Background(), "/sites/MLB", nil))

	start := time.Now()
	err = client.Get(context.Background(), "/sites/MLB", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit:")
	assert.Less(t, time.Since(start), time.Second)
}

func TestClient_DefaultHeader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts []meli.RequestOption
		want string
	}{
		{
			name: "sent with every request",
			want: "inventory-sync",
		},
		{
			name: "overridden per request",
			opts: []meli.RequestOption{meli.WithRequestHeader("x-caller", "backfill")},
			want: "backfill",
		},
	}

	for _, tt := range tests {

		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doer := mocks.NewMockDoer(t)
			doer.EXPECT().
				Do(mock.Anything).
				Run(func(r *http.Request) {
					assert.Equal(t, []string{tt.want}, r.Header.Values("X-Caller"))
					assert.Equal(t, "application/json", r.Header.Get("Accept"))
				}).
				Return(response(http.StatusOK, `{}`), nil).
				Once()

			client, err := meli.New(testConfig("https://test.com"),
				meli.WithHTTPClient(doer),
				meli.WithDefaultHeader("X-Caller", "inventory-sync"),
			)
			require.NoError(t, err)

			require.NoError(t, client.Get(context.Background(), "/users/me", nil, tt.opts...))
		})
	}
}

func TestNew_PassesTokenStoreOptions(t *testing.T) {
	t.Parallel()

	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := issued

	cfg := testConfig("https://test.com")
	cfg.AccessToken = "APP_USR-seeded"
	cfg.ExpiresAt = issued.Add(time.Hour)

	client, err := meli.New(cfg,
		meli.WithHTTPClient(mocks.NewMockDoer(t)),
		meli.WithTokenStoreOptions(
			meli.WithStoreNowFunc(func() time.Time { return clock }),
			meli.WithExpiryBuffer(10*time.Minute),
		),
	)
	require.NoError(t, err)
	assert.False(t, client.Tokens().IsExpired())

	// Outside the default one-minute buffer but inside the configured one.
	clock = issued.Add(55 * time.Minute)
	assert.True(t, client.Tokens().IsExpired())
}

func TestClient_RedirectToForeignHostDropsToken(t *testing.T) {
	t.Parallel()

	var foreignAuth atomic.Value
	foreign := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		foreignAuth.Store(r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, []byte(`{"landed":true}`))
	}))
	defer foreign.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/token":
			writeJSON(w, http.StatusOK, tokenJSON("APP_USR-secret", "TG-rotated"))
		case "/pictures/1":
			assert.Equal(t, "Bearer APP_USR-secret", r.Header.Get("Authorization"))
			http.Redirect(w, r, foreign.URL+"/landing", http.StatusFound)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer api.Close()

	client, err := meli.New(testConfig(api.URL))
	require.NoError(t, err)

	var out map[string]bool
	require.NoError(t, client.Get(context.Background(), "/pictures/1", &out))
	assert.True(t, out["landed"])
	assert.Equal(t, "", foreignAuth.Load())

	// An absolute URL for another host is sent without the token too.
	require.NoError(t, client.Get(context.Background(), foreign.URL+"/direct", nil))
	assert.Equal(t, "", foreignAuth.Load())
}

func TestResponse_Decode(t *testing.T) {
	t.Parallel()

	resp := &meli.Response{StatusCode: http.StatusOK, Body: []byte(`{"id":"MLB1"}`)}

	var raw json.RawMessage
	require.NoError(t, resp.Decode(&raw))
	assert.JSONEq(t, `{"id":"MLB1"}`, string(raw))

	var item struct {
		ID string `json:"id"`
	}
	require.NoError(t, resp.Decode(&item))
	assert.Equal(t, "MLB1", item.ID)

	require.NoError(t, resp.Decode(nil))
	require.NoError(t, (&meli.Response{}).Decode(&item))

	bad := &meli.Response{Body: []byte("not json")}
	err := bad.Decode(&item)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding response")
}
