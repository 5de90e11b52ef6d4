package mockapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	grantRefreshToken      = "refresh_token"
	grantAuthorizationCode = "authorization_code"
	tokenScope             = "offline_access read write"
)

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope"`
	UserID       int64  `json:"user_id"`
	RefreshToken string `json:"refresh_token"`
}

type tokenError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Message          string `json:"message"`
	Status           int    `json:"status"`
	Cause            []any  `json:"cause"`
}

func writeTokenError(c echo.Context, status int, code, description string) error {
	return c.JSON(status, tokenError{
		Error:            code,
		ErrorDescription: description,
		Message:          description,
		Status:           status,
		Cause:            []any{},
	})
}

// token implements POST /oauth/token for the refresh_token and
// authorization_code grants. Each successful exchange rotates the refresh
// token: the one presented stops working.
func (s *Server) token(c echo.Context) error {
	s.tokenCalls.Add(1)

	clientID, clientSecret := c.FormValue("client_id"), c.FormValue("client_secret")
	if id, secret, ok := c.Request().BasicAuth(); ok {
		clientID, clientSecret = id, secret
	}
	if clientID != s.clientID || clientSecret != s.clientSecret {
		s.log.Warn("token request with invalid client credentials", "client_id", clientID)
		return writeTokenError(c, http.StatusUnauthorized, "invalid_client", "invalid client_id or client_secret")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch grant := c.FormValue("grant_type"); grant {
	case grantRefreshToken:
		presented := c.FormValue("refresh_token")
		if _, ok := s.refreshTokens[presented]; !ok {
			return writeTokenError(c, http.StatusBadRequest, "invalid_grant",
				"Error validating grant. Your authorization code or refresh token may be expired or it was already used")
		}
		delete(s.refreshTokens, presented)

	case grantAuthorizationCode:
		code := c.FormValue("code")
		redirectURI, ok := s.codes[code]
		if !ok {
			return writeTokenError(c, http.StatusBadRequest, "invalid_grant",
				"Error validating grant. Your authorization code or refresh token may be expired or it was already used")
		}
		if redirectURI != c.FormValue("redirect_uri") {
			return writeTokenError(c, http.StatusBadRequest, "invalid_grant", "the redirect_uri does not match")
		}
		delete(s.codes, code)

	default:
		return writeTokenError(c, http.StatusBadRequest, "unsupported_grant_type",
			"the grant_type "+grant+" is not supported")
	}

	resp := tokenResponse{
		AccessToken:  s.nextTokenLocked("APP_USR"),
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.tokenTTL.Seconds()),
		Scope:        tokenScope,
		UserID:       s.userID,
		RefreshToken: s.nextTokenLocked("TG"),
	}
	s.accessTokens[resp.AccessToken] = s.nowFunc().Add(s.tokenTTL)
	s.refreshTokens[resp.RefreshToken] = struct{}{}

	s.log.Info("issued token", "user_id", s.userID, "expires_in", resp.ExpiresIn)
	return c.JSON(http.StatusOK, resp)
}
