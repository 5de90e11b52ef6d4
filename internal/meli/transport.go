package meli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/donaldgifford/meli-client/internal/metrics"
)

const (
	// RequestIDHeader carries an id shared by both attempts of a logical
	// request.
	RequestIDHeader = "X-Request-ID"

	maxErrorBody = 64 << 10
)

// Refresher supplies and renews access tokens. *Authenticator implements it.
type Refresher interface {
	Token(ctx context.Context) (Credentials, error)
	Refresh(ctx context.Context, stale string) (Credentials, error)
}

// Transport is an http.RoundTripper that attaches the bearer token to
// requests for the environment's API host. A 401 response triggers one
// token refresh and exactly one retry; a second 401 is returned as an
// *AuthError. Requests for any other host, including redirect targets,
// pass through untouched.
type Transport struct {
	base    http.RoundTripper
	auth    Refresher
	apiHost string
	log     *slog.Logger
	tracer  trace.Tracer
}

// TransportOption configures the Transport.
type TransportOption func(*Transport)

// WithBaseTransport sets the round tripper that actually sends requests.
func WithBaseTransport(rt http.RoundTripper) TransportOption {
	return func(t *Transport) {
		t.base = rt
	}
}

// WithTransportLogger sets a custom logger.
func WithTransportLogger(l *slog.Logger) TransportOption {
	return func(t *Transport) {
		t.log = l
	}
}

// WithTransportTracerProvider sets the tracer provider for request spans.
func WithTransportTracerProvider(tp trace.TracerProvider) TransportOption {
	return func(t *Transport) {
		t.tracer = tp.Tracer(instrumentationName)
	}
}

// NewTransport wraps http.DefaultTransport unless WithBaseTransport is given.
// Only requests for env's API host carry the token.
func NewTransport(auth Refresher, env Environment, opts ...TransportOption) *Transport {
	t := &Transport{
		base:   http.DefaultTransport,
		auth:   auth,
		log:    slog.Default(),
		tracer: otel.GetTracerProvider().Tracer(instrumentationName),
	}
	if u, err := url.Parse(env.WsHost()); err == nil {
		t.apiHost = u.Host
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !t.authorizes(req) {
		t.log.Debug("request outside api host, sending without token",
			"method", req.Method,
			"host", req.URL.Host,
		)
		return t.base.RoundTrip(req)
	}

	start := time.Now()
	defer func() {
		metrics.RequestDuration.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())
	}()

	ctx, span := t.tracer.Start(req.Context(), "meli.request",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.path", req.URL.Path),
		),
	)
	defer span.End()

	getBody, err := bodyFactory(req)
	if err != nil {
		return nil, t.fail(span, &TransportError{Op: "buffering request body", Err: err})
	}

	reqID := req.Header.Get(RequestIDHeader)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	span.SetAttributes(attribute.String("meli.request_id", reqID))

	creds, err := t.auth.Token(ctx)
	if err != nil {
		return nil, t.fail(span, err)
	}

	resp, err := t.attempt(ctx, req, getBody, reqID, creds.AccessToken)
	if err != nil {
		return nil, t.fail(span, err)
	}
	if !IsUnauthorized(resp.StatusCode) {
		span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
		return resp, nil
	}

	discard(resp)
	metrics.AuthRetriesTotal.Inc()
	span.SetAttributes(attribute.Bool("meli.retried", true))
	t.log.Debug("request unauthorized, refreshing token",
		"method", req.Method,
		"path", req.URL.Path,
		"request_id", reqID,
	)

	creds, err = t.auth.Refresh(ctx, creds.AccessToken)
	if err != nil {
		return nil, t.fail(span, err)
	}

	resp, err = t.attempt(ctx, req, getBody, reqID, creds.AccessToken)
	if err != nil {
		return nil, t.fail(span, err)
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if IsUnauthorized(resp.StatusCode) {
		metrics.AuthFailuresTotal.Inc()
		body := discard(resp)
		apiErr := newAPIError(resp.StatusCode, body)
		return nil, t.fail(span, &AuthError{
			Op:          fmt.Sprintf("%s %s", req.Method, req.URL.Path),
			StatusCode:  resp.StatusCode,
			Code:        apiErr.Code,
			Description: apiErr.Message,
		})
	}

	return resp, nil
}

func (t *Transport) attempt(
	ctx context.Context,
	req *http.Request,
	getBody func() (io.ReadCloser, error),
	reqID, token string,
) (*http.Response, error) {
	out := req.Clone(ctx)
	if getBody != nil {
		body, err := getBody()
		if err != nil {
			return nil, &TransportError{Op: "rewinding request body", Err: err}
		}
		out.Body = body
	}
	out.Header.Set("Authorization", "Bearer "+token)
	out.Header.Set(RequestIDHeader, reqID)

	resp, err := t.base.RoundTrip(out)
	if err != nil {
		metrics.TransportErrorsTotal.Inc()
		return nil, &TransportError{Op: "executing request", Err: err}
	}

	metrics.RequestsTotal.WithLabelValues(req.Method, strconv.Itoa(resp.StatusCode)).Inc()
	return resp, nil
}

func (t *Transport) authorizes(req *http.Request) bool {
	return t.apiHost != "" && strings.EqualFold(req.URL.Host, t.apiHost)
}

func (t *Transport) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// bodyFactory returns a function yielding a fresh copy of the request
// body for each attempt. Bodies without GetBody are buffered in memory.
// The original body is always closed, as RoundTrip requires.
func bodyFactory(req *http.Request) (func() (io.ReadCloser, error), error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	defer req.Body.Close()

	if req.GetBody != nil {
		return req.GetBody, nil
	}

	data, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}
	return func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}, nil
}

// discard reads a bounded prefix of the body and closes it so the
// connection can be reused.
func discard(resp *http.Response) []byte {
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody)) //nolint:errcheck // best-effort drain
	return body
}
