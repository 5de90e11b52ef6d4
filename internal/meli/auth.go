package meli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/donaldgifford/meli-client/internal/metrics"
)

const (
	instrumentationName = "github.com/donaldgifford/meli-client/internal/meli"
	refreshKey          = "refresh"
)

var errNoRefreshToken = errors.New("no refresh token available")

// Saver persists credentials after they change, so the rotated refresh
// token survives a restart.
type Saver interface {
	SaveCredentials(ctx context.Context, clientID string, c Credentials) error
}

// Authenticator exchanges refresh tokens for access tokens at the OAuth2
// token endpoint and keeps the TokenStore current. Concurrent refreshes
// collapse into a single token endpoint call.
type Authenticator struct {
	clientID     string
	clientSecret string
	env          Environment
	store        *TokenStore
	client       *http.Client
	saver        Saver
	log          *slog.Logger
	tracer       trace.Tracer
	timeout      time.Duration

	group singleflight.Group
}

// AuthOption configures the Authenticator.
type AuthOption func(*Authenticator)

// WithAuthHTTPClient overrides the client used for token endpoint calls.
// It must not be wrapped by a Transport.
func WithAuthHTTPClient(c *http.Client) AuthOption {
	return func(a *Authenticator) {
		a.client = c
	}
}

// WithSaver persists credentials after every successful exchange.
func WithSaver(s Saver) AuthOption {
	return func(a *Authenticator) {
		a.saver = s
	}
}

// WithAuthLogger sets a custom logger.
func WithAuthLogger(l *slog.Logger) AuthOption {
	return func(a *Authenticator) {
		a.log = l
	}
}

// WithAuthTracerProvider sets the tracer provider used for refresh spans.
func WithAuthTracerProvider(tp trace.TracerProvider) AuthOption {
	return func(a *Authenticator) {
		a.tracer = tp.Tracer(instrumentationName)
	}
}

// NewAuthenticator creates an Authenticator that refreshes into store.
func NewAuthenticator(
	clientID, clientSecret string,
	env Environment,
	store *TokenStore,
	opts ...AuthOption,
) *Authenticator {
	a := &Authenticator{
		clientID:     clientID,
		clientSecret: clientSecret,
		env:          env,
		store:        store,
		client:       &http.Client{Timeout: Timeout},
		log:          slog.Default(),
		tracer:       otel.GetTracerProvider().Tracer(instrumentationName),
		timeout:      Timeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Store returns the TokenStore the Authenticator writes to.
func (a *Authenticator) Store() *TokenStore {
	return a.store
}

func (a *Authenticator) oauthConfig(redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     a.clientID,
		ClientSecret: a.clientSecret,
		RedirectURL:  redirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL:   a.env.AuthorizationEndpoint(),
			TokenURL:  a.env.TokenEndpoint(),
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

func (a *Authenticator) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, a.client)
}

// Token returns the stored credentials, refreshing them first when the
// access token is missing or expired.
func (a *Authenticator) Token(ctx context.Context) (Credentials, error) {
	creds := a.store.Get()
	if a.store.usable(creds) {
		return creds, nil
	}
	a.log.Debug("access token expired or missing, refreshing")
	return a.Refresh(ctx, creds.AccessToken)
}

// Refresh exchanges the stored refresh token for a new access token.
// stale is the access token the caller saw fail or expire; when the store
// already holds a different, unexpired token the call returns it without
// contacting the token endpoint.
func (a *Authenticator) Refresh(ctx context.Context, stale string) (Credentials, error) {
	// The shared flight must not die with the first caller's context.
	flightCtx := context.WithoutCancel(ctx)

	ch := a.group.DoChan(refreshKey, func() (any, error) {
		return a.refresh(flightCtx, stale)
	})

	select {
	case <-ctx.Done():
		return Credentials{}, &TransportError{Op: "refreshing token", Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return Credentials{}, res.Err
		}
		creds, _ := res.Val.(Credentials)
		return creds, nil
	}
}

func (a *Authenticator) refresh(ctx context.Context, stale string) (Credentials, error) {
	current := a.store.Get()
	if current.AccessToken != stale && a.store.usable(current) {
		a.log.Debug("access token already refreshed by another caller")
		return current, nil
	}

	if current.RefreshToken == "" {
		return Credentials{}, &AuthError{Op: "refreshing token", Err: errNoRefreshToken}
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	ctx, span := a.tracer.Start(ctx, "meli.token.refresh",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("oauth2.grant_type", "refresh_token")),
	)
	defer span.End()

	metrics.TokenRefreshesTotal.Inc()

	src := a.oauthConfig("").TokenSource(
		a.oauthContext(ctx),
		&oauth2.Token{RefreshToken: current.RefreshToken},
	)
	tok, err := src.Token()
	if err != nil {
		metrics.TokenRefreshFailuresTotal.Inc()
		err = classifyTokenError("refreshing token", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "token refresh failed")
		a.log.Warn("token refresh failed", "error", err)
		return Credentials{}, err
	}

	creds := credentialsFromToken(tok, current.RefreshToken)
	a.store.Set(creds)
	a.save(ctx, creds)

	span.SetAttributes(attribute.Bool("oauth2.refresh_token_rotated", creds.RefreshToken != current.RefreshToken))
	a.log.Info("refreshed access token",
		"expires_at", creds.ExpiresAt.Format(time.RFC3339),
		"user_id", creds.UserID,
	)

	return creds, nil
}

// AuthCodeURL returns the site's authorization page URL that starts the
// authorization code flow.
func (a *Authenticator) AuthCodeURL(state, redirectURI string) string {
	return a.oauthConfig(redirectURI).AuthCodeURL(state)
}

// Exchange trades an authorization code for credentials and stores them.
// It shares the refresh flight so store writes never interleave: a refresh
// already in flight finishes first, and refreshes started meanwhile
// receive the exchanged credentials.
func (a *Authenticator) Exchange(ctx context.Context, code, redirectURI string) (Credentials, error) {
	flightCtx := context.WithoutCancel(ctx)

	for {
		var ran bool
		ch := a.group.DoChan(refreshKey, func() (any, error) {
			ran = true
			return a.exchange(flightCtx, code, redirectURI)
		})

		select {
		case <-ctx.Done():
			return Credentials{}, &TransportError{Op: "exchanging authorization code", Err: ctx.Err()}
		case res := <-ch:
			if !ran {
				// Joined a refresh flight; exchange once it settles.
				continue
			}
			if res.Err != nil {
				return Credentials{}, res.Err
			}
			creds, _ := res.Val.(Credentials)
			return creds, nil
		}
	}
}

func (a *Authenticator) exchange(ctx context.Context, code, redirectURI string) (Credentials, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	ctx, span := a.tracer.Start(ctx, "meli.token.exchange",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("oauth2.grant_type", "authorization_code")),
	)
	defer span.End()

	metrics.TokenRefreshesTotal.Inc()

	tok, err := a.oauthConfig(redirectURI).Exchange(a.oauthContext(ctx), code)
	if err != nil {
		metrics.TokenRefreshFailuresTotal.Inc()
		err = classifyTokenError("exchanging authorization code", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "code exchange failed")
		return Credentials{}, err
	}

	creds := credentialsFromToken(tok, "")
	a.store.Set(creds)
	a.save(ctx, creds)

	a.log.Info("exchanged authorization code", "user_id", creds.UserID)
	return creds, nil
}

// save persists creds. The token endpoint has already rotated the refresh
// token at this point, so a failure is reported but not returned.
func (a *Authenticator) save(ctx context.Context, creds Credentials) {
	if a.saver == nil {
		return
	}
	if err := a.saver.SaveCredentials(ctx, a.clientID, creds); err != nil {
		metrics.CredentialSaveFailuresTotal.Inc()
		a.log.Error("saving refreshed credentials", "error", err)
	}
}

// classifyTokenError maps oauth2 errors onto the package's error taxonomy.
func classifyTokenError(op string, err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		authErr := &AuthError{
			Op:          op,
			Code:        retrieveErr.ErrorCode,
			Description: retrieveErr.ErrorDescription,
		}
		if retrieveErr.Response != nil {
			authErr.StatusCode = retrieveErr.Response.StatusCode
		}
		return authErr
	}

	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &TransportError{Op: op, Err: err}
	}

	return &AuthError{Op: op, Err: fmt.Errorf("%w: %w", ErrMalformedResponse, err)}
}
