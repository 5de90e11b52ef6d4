// Package meli provides an OAuth2-authenticated client for the Mercado Livre
// marketplace REST API. Requests go through a Transport that attaches the
// bearer token and recovers from an expired token with one refresh and one
// retry.
package meli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Timeout bounds every call made through the Client, including a refresh
// and the retry.
const Timeout = 10 * time.Second

const (
	jsonMediaType = "application/json"
	userAgent     = "meli-client-go"
)

// DefaultHeaders returns the headers sent with every request.
func DefaultHeaders() http.Header {
	return http.Header{
		"Content-Type": {jsonMediaType},
		"Accept":       {jsonMediaType},
		"User-Agent":   {userAgent},
	}
}

// Doer sends HTTP requests. *http.Client implements it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds the application credentials and environment. It is
// usually built from the YAML config file.
type Config struct {
	Environment  Environment
	ClientID     string
	ClientSecret string
	RefreshToken string
	// AccessToken and ExpiresAt may seed a token obtained elsewhere.
	AccessToken string
	ExpiresAt   time.Time
}

// Client is a thin facade over the marketplace API.
type Client struct {
	env     Environment
	doer    Doer
	auth    *Authenticator
	tokens  *TokenStore
	limiter *RateLimiter
	timeout time.Duration
	headers http.Header

	base      http.RoundTripper
	saver     Saver
	storeOpts []StoreOption
	log       *slog.Logger
	tp        trace.TracerProvider
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sends requests through d as-is. No Transport is
// installed, so d is responsible for authentication.
func WithHTTPClient(d Doer) Option {
	return func(c *Client) {
		c.doer = d
	}
}

// WithRoundTripper sets the round tripper beneath the authenticating
// Transport and the token endpoint client.
func WithRoundTripper(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.base = rt
	}
}

// WithRateLimiter makes every call wait on r first.
func WithRateLimiter(r *RateLimiter) Option {
	return func(c *Client) {
		c.limiter = r
	}
}

// WithTimeout overrides Timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithCredentialSaver persists credentials after each refresh.
func WithCredentialSaver(s Saver) Option {
	return func(c *Client) {
		c.saver = s
	}
}

// WithTokenStoreOptions passes options to the client's TokenStore.
func WithTokenStoreOptions(opts ...StoreOption) Option {
	return func(c *Client) {
		c.storeOpts = append(c.storeOpts, opts...)
	}
}

// WithDefaultHeader adds or replaces a header sent with every request.
func WithDefaultHeader(key, value string) Option {
	return func(c *Client) {
		c.headers.Set(key, value)
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// WithTracerProvider sets the tracer provider for request and refresh spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		c.tp = tp
	}
}

// New creates a Client. Without WithHTTPClient it builds an http.Client
// whose transport is an authenticating Transport.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("client id is required")
	}

	c := &Client{
		env:     cfg.Environment,
		timeout: Timeout,
		headers: DefaultHeaders(),
		base:    http.DefaultTransport,
		log:     slog.Default(),
		tp:      otel.GetTracerProvider(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.base == nil {
		c.base = http.DefaultTransport
	}

	c.tokens = NewTokenStore(Credentials{
		AccessToken:  cfg.AccessToken,
		RefreshToken: cfg.RefreshToken,
		ExpiresAt:    cfg.ExpiresAt,
	}, c.storeOpts...)

	authOpts := []AuthOption{
		WithAuthHTTPClient(&http.Client{Timeout: c.timeout, Transport: c.base}),
		WithAuthLogger(c.log),
		WithAuthTracerProvider(c.tp),
	}
	if c.saver != nil {
		authOpts = append(authOpts, WithSaver(c.saver))
	}
	c.auth = NewAuthenticator(cfg.ClientID, cfg.ClientSecret, c.env, c.tokens, authOpts...)

	if c.doer == nil {
		c.doer = &http.Client{
			Timeout: c.timeout,
			Transport: NewTransport(c.auth, c.env,
				WithBaseTransport(c.base),
				WithTransportLogger(c.log),
				WithTransportTracerProvider(c.tp),
			),
		}
	}

	return c, nil
}

// Authenticator returns the client's Authenticator.
func (c *Client) Authenticator() *Authenticator {
	return c.auth
}

// Tokens returns the client's TokenStore.
func (c *Client) Tokens() *TokenStore {
	return c.tokens
}

// Environment returns the environment the client targets.
func (c *Client) Environment() Environment {
	return c.env
}

// Get performs a GET request and decodes the JSON response into dst.
func (c *Client) Get(ctx context.Context, path string, dst any, opts ...RequestOption) error {
	return c.call(ctx, http.MethodGet, path, nil, dst, opts)
}

// Post performs a POST request with body and decodes the response into dst.
func (c *Client) Post(ctx context.Context, path string, body, dst any, opts ...RequestOption) error {
	return c.call(ctx, http.MethodPost, path, body, dst, opts)
}

// Put performs a PUT request with body and decodes the response into dst.
func (c *Client) Put(ctx context.Context, path string, body, dst any, opts ...RequestOption) error {
	return c.call(ctx, http.MethodPut, path, body, dst, opts)
}

// Delete performs a DELETE request and decodes the response into dst.
func (c *Client) Delete(ctx context.Context, path string, dst any, opts ...RequestOption) error {
	return c.call(ctx, http.MethodDelete, path, nil, dst, opts)
}

func (c *Client) call(
	ctx context.Context,
	method, path string,
	body, dst any,
	opts []RequestOption,
) error {
	req := NewRequest(method, path, body, opts...)
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	return resp.Decode(dst)
}

// Do sends r and returns the buffered response. Non-2xx responses are
// returned together with an *APIError, or an *AuthError for 401.
func (c *Client) Do(ctx context.Context, r *Request) (*Response, error) {
	// The timeout covers the rate limiter wait too.
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	body, contentType, err := encodeBody(r.Body)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, r.Method, c.resolve(r.Path), body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	mergeHeaders(httpReq.Header, c.headers, r.Header)
	if contentType != "" && r.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	resp, err := c.doer.Do(httpReq)
	if err != nil {
		return nil, unwrapDoError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "reading response body", Err: err}
	}

	out := &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := newAPIError(resp.StatusCode, data)
		if IsUnauthorized(resp.StatusCode) {
			return out, &AuthError{
				Op:          fmt.Sprintf("%s %s", r.Method, r.Path),
				StatusCode:  resp.StatusCode,
				Code:        apiErr.Code,
				Description: apiErr.Message,
			}
		}
		return out, apiErr
	}

	return out, nil
}

func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "https://") || strings.HasPrefix(path, "http://") {
		return path
	}
	return c.env.WsHost() + "/" + strings.TrimLeft(path, "/")
}

// unwrapDoError strips the *url.Error added by http.Client so callers see
// the package's typed errors directly.
func unwrapDoError(err error) error {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return transportErr
	}
	return &TransportError{Op: "sending request", Err: err}
}

func mergeHeaders(dst http.Header, layers ...http.Header) {
	for _, layer := range layers {
		for k, vs := range layer {
			dst[http.CanonicalHeaderKey(k)] = append([]string(nil), vs...)
		}
	}
}
