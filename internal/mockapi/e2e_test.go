package mockapi_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/meli-client/internal/meli"
	"github.com/donaldgifford/meli-client/internal/mockapi"
	"github.com/donaldgifford/meli-client/internal/store"
)

func newClient(t *testing.T, baseURL, refreshToken string, opts ...meli.Option) *meli.Client {
	t.Helper()

	client, err := meli.New(meli.Config{
		Environment:  meli.Environment{BaseURL: baseURL, Site: meli.SiteBrazil},
		ClientID:     mockapi.DefaultClientID,
		ClientSecret: mockapi.DefaultClientSecret,
		RefreshToken: refreshToken,
	}, opts...)
	require.NoError(t, err)
	return client
}

func TestClient_RefreshesMissingTokenAndPersistsRotation(t *testing.T) {
	t.Parallel()

	s, srv := newTestServer(t)
	saved := store.NewMemoryStore()
	client := newClient(t, srv.URL, mockapi.DefaultRefreshToken, meli.WithCredentialSaver(saved))

	var me mockapi.User
	require.NoError(t, client.Get(context.Background(), "/users/me", &me))
	assert.Equal(t, mockapi.DefaultUserID, me.ID)
	assert.Equal(t, int64(1), s.TokenCalls())

	creds := client.Tokens().Get()
	assert.NotEqual(t, mockapi.DefaultRefreshToken, creds.RefreshToken)
	assert.Equal(t, mockapi.DefaultUserID, creds.UserID)
	assert.Equal(t, "offline_access read write", creds.Scope)

	persisted, err := saved.LoadCredentials(context.Background(), mockapi.DefaultClientID)
	require.NoError(t, err)
	assert.Equal(t, creds, persisted)
}

func TestClient_RetriesOnceAfterRevocation(t *testing.T) {
	t.Parallel()

	s, srv := newTestServer(t)
	client := newClient(t, srv.URL, mockapi.DefaultRefreshToken)

	require.NoError(t, client.Get(context.Background(), "/users/me", nil))
	before := client.Tokens().Get()

	s.RevokeAccessTokens()

	require.NoError(t, client.Get(context.Background(), "/users/me", nil))
	after := client.Tokens().Get()

	assert.NotEqual(t, before.AccessToken, after.AccessToken)
	assert.NotEqual(t, before.RefreshToken, after.RefreshToken)
	assert.Equal(t, int64(2), s.TokenCalls())
}

func TestClient_ConcurrentRevocationRefreshesOnce(t *testing.T) {
	t.Parallel()

	s, srv := newTestServer(t)
	client := newClient(t, srv.URL, mockapi.DefaultRefreshToken)

	require.NoError(t, client.Get(context.Background(), "/users/me", nil))
	s.RevokeAccessTokens()

	const callers = 16
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- client.Get(context.Background(), "/users/me", nil)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	// One initial refresh plus exactly one after revocation.
	assert.Equal(t, int64(2), s.TokenCalls())
}

func TestClient_RejectedRefreshToken(t *testing.T) {
	t.Parallel()

	_, srv := newTestServer(t)
	client := newClient(t, srv.URL, "TG-revoked")

	err := client.Get(context.Background(), "/users/me", nil)
	require.ErrorIs(t, err, meli.ErrAuth)

	var authErr *meli.AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, "invalid_grant", authErr.Code)
	assert.Equal(t, http.StatusBadRequest, authErr.StatusCode)
}

func TestClient_PostToEchoEndpoint(t *testing.T) {
	t.Parallel()

	_, srv := newTestServer(t)
	client := newClient(t, srv.URL, mockapi.DefaultRefreshToken)

	data := map[string]string{
		"grant_type":    "granttype",
		"client_id":     "clientid",
		"client_secret": "clientsecret",
		"refresh_token": "refreshtoken",
	}

	var got struct {
		Result bool              `json:"result"`
		Method string            `json:"method"`
		Body   map[string]string `json:"body"`
	}
	require.NoError(t, client.Post(context.Background(), "/test", data, &got))
	assert.True(t, got.Result)
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, data, got.Body)
}

func TestClient_ItemLifecycle(t *testing.T) {
	t.Parallel()

	_, srv := newTestServer(t)
	client := newClient(t, srv.URL, mockapi.DefaultRefreshToken)
	ctx := context.Background()

	var item mockapi.Item
	require.NoError(t, client.Post(ctx, "/items", map[string]any{
		"title": "Placa-mãe X99", "price": 899.0, "available_quantity": 1,
	}, &item))
	require.NotEmpty(t, item.ID)

	require.NoError(t, client.Put(ctx, "/items/"+item.ID, map[string]any{"price": 799.0}, &item))
	assert.InDelta(t, 799.0, item.Price, 0.001)

	require.NoError(t, client.Delete(ctx, "/items/"+item.ID, &item))
	assert.Equal(t, "closed", item.Status)

	err := client.Get(ctx, "/items/"+item.ID, &item)
	var apiErr *meli.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "not_found", apiErr.Code)
}

func TestAuthenticator_ExchangeAuthorizationCode(t *testing.T) {
	t.Parallel()

	const redirect = "https://example.com/callback"
	_, srv := newTestServer(t, mockapi.WithAuthorizationCode("TG-code-1", redirect))
	client := newClient(t, srv.URL, "")

	creds, err := client.Authenticator().Exchange(context.Background(), "TG-code-1", redirect)
	require.NoError(t, err)
	assert.NotEmpty(t, creds.AccessToken)
	assert.NotEmpty(t, creds.RefreshToken)
	assert.Equal(t, creds, client.Tokens().Get())

	require.NoError(t, client.Get(context.Background(), "/users/me", nil))
}
