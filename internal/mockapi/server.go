// Package mockapi is an in-process stand-in for the marketplace API. It
// serves the OAuth2 token endpoint with refresh token rotation, a
// bearer-protected user and item resources, and an echo endpoint used by
// client tests and local development.
package mockapi

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
)

// Defaults for a Server built without options.
const (
	DefaultClientID     = "1234567890"
	DefaultClientSecret = "mock-client-secret"
	DefaultRefreshToken = "TG-mock-initial"
	DefaultUserID       = int64(123456789)
	DefaultTokenTTL     = 6 * time.Hour
)

// Server holds the mock's token and resource state.
type Server struct {
	clientID     string
	clientSecret string
	userID       int64
	nickname     string
	siteID       string
	tokenTTL     time.Duration
	log          *slog.Logger
	nowFunc      func() time.Time

	mu            sync.Mutex
	seq           int
	accessTokens  map[string]time.Time
	refreshTokens map[string]struct{}
	codes         map[string]string // code -> redirect_uri
	items         map[string]Item

	tokenCalls atomic.Int64
}

// Option configures the Server.
type Option func(*Server)

// WithClient sets the accepted application credentials.
func WithClient(id, secret string) Option {
	return func(s *Server) {
		s.clientID = id
		s.clientSecret = secret
	}
}

// WithRefreshToken seeds an additional valid refresh token.
func WithRefreshToken(token string) Option {
	return func(s *Server) {
		s.refreshTokens[token] = struct{}{}
	}
}

// WithAuthorizationCode seeds a single-use authorization code bound to
// redirectURI.
func WithAuthorizationCode(code, redirectURI string) Option {
	return func(s *Server) {
		s.codes[code] = redirectURI
	}
}

// WithTokenTTL sets expires_in for issued access tokens.
func WithTokenTTL(d time.Duration) Option {
	return func(s *Server) {
		s.tokenTTL = d
	}
}

// WithUser sets the identity returned by /users/me.
func WithUser(id int64, nickname, siteID string) Option {
	return func(s *Server) {
		s.userID = id
		s.nickname = nickname
		s.siteID = siteID
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.log = l
	}
}

// WithNowFunc overrides the time function for testing.
func WithNowFunc(f func() time.Time) Option {
	return func(s *Server) {
		s.nowFunc = f
	}
}

// New creates a Server. DefaultRefreshToken is always accepted until it is
// rotated away.
func New(opts ...Option) *Server {
	s := &Server{
		clientID:      DefaultClientID,
		clientSecret:  DefaultClientSecret,
		userID:        DefaultUserID,
		nickname:      "TESTUSER",
		siteID:        "MLB",
		tokenTTL:      DefaultTokenTTL,
		log:           slog.Default(),
		nowFunc:       time.Now,
		accessTokens:  make(map[string]time.Time),
		refreshTokens: map[string]struct{}{DefaultRefreshToken: {}},
		codes:         make(map[string]string),
		items:         make(map[string]Item),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the Echo instance serving the mock routes.
func (s *Server) Handler() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.errorHandler

	e.Use(Recovery(s.log))
	e.Use(RequestLog(s.log))

	e.POST("/oauth/token", s.token)
	e.Any("/test", s.echoRequest)

	e.GET("/users/me", s.me, s.requireBearer)
	e.GET("/sites/:site", s.site, s.requireBearer)
	e.POST("/items", s.createItem, s.requireBearer)
	e.GET("/items/:id", s.getItem, s.requireBearer)
	e.PUT("/items/:id", s.updateItem, s.requireBearer)
	e.DELETE("/items/:id", s.deleteItem, s.requireBearer)

	return e
}

// TokenCalls returns how many requests reached the token endpoint.
func (s *Server) TokenCalls() int64 {
	return s.tokenCalls.Load()
}

// RevokeAccessTokens invalidates every issued access token so the next
// request gets a 401.
func (s *Server) RevokeAccessTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.accessTokens)
}

// IssueAccessToken mints a valid access token without a token endpoint
// call, for seeding clients in tests.
func (s *Server) IssueAccessToken() (string, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token := s.nextTokenLocked("APP_USR")
	expiresAt := s.nowFunc().Add(s.tokenTTL)
	s.accessTokens[token] = expiresAt
	return token, expiresAt
}

func (s *Server) nextTokenLocked(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%s-%06d-%d", prefix, s.clientID, s.seq, s.userID)
}

// apiError is the marketplace's error body.
type apiError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Status  int    `json:"status"`
	Cause   []any  `json:"cause"`
}

func writeError(c echo.Context, status int, code, message string) error {
	return c.JSON(status, apiError{
		Message: message,
		Error:   code,
		Status:  status,
		Cause:   []any{},
	})
}

// errorHandler renders Echo's own errors (404 routes, 405) in the
// marketplace's error shape.
func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "internal server error"
	if he, ok := err.(*echo.HTTPError); ok { //nolint:errorlint // echo returns *HTTPError unwrapped
		status = he.Code
		message = fmt.Sprint(he.Message)
	}

	code := "internal_error"
	switch status {
	case http.StatusNotFound:
		code = "not_found"
	case http.StatusMethodNotAllowed:
		code = "method_not_allowed"
	}

	if werr := writeError(c, status, code, message); werr != nil {
		s.log.Error("writing error response", "error", werr)
	}
}
