package meli

import (
	"fmt"
	"strings"
)

const (
	// DefaultBaseURL is the production API host shared by every site.
	DefaultBaseURL = "https://api.mercadolibre.com"

	tokenPath         = "/oauth/token"
	authorizationPath = "/authorization"
)

// Site identifies a country marketplace.
type Site string

// Known sites.
const (
	SiteArgentina Site = "MLA"
	SiteBrazil    Site = "MLB"
	SiteColombia  Site = "MCO"
	SiteMexico    Site = "MLM"
	SiteUruguay   Site = "MLU"
	SiteChile     Site = "MLC"
	SiteVenezuela Site = "MLV"
	SitePeru      Site = "MPE"
	SiteEcuador   Site = "MEC"
)

var authHosts = map[Site]string{
	SiteArgentina: "https://auth.mercadolibre.com.ar",
	SiteBrazil:    "https://auth.mercadolivre.com.br",
	SiteColombia:  "https://auth.mercadolibre.com.co",
	SiteMexico:    "https://auth.mercadolibre.com.mx",
	SiteUruguay:   "https://auth.mercadolibre.com.uy",
	SiteChile:     "https://auth.mercadolibre.cl",
	SiteVenezuela: "https://auth.mercadolibre.com.ve",
	SitePeru:      "https://auth.mercadolibre.com.pe",
	SiteEcuador:   "https://auth.mercadolibre.com.ec",
}

// ParseSite validates a site identifier such as "MLB".
func ParseSite(s string) (Site, error) {
	site := Site(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := authHosts[site]; !ok {
		return "", fmt.Errorf("unknown site %q", s)
	}
	return site, nil
}

// Environment resolves the hosts the client talks to.
type Environment struct {
	// BaseURL is the REST API host, e.g. https://api.mercadolibre.com.
	BaseURL string
	// TokenURL defaults to BaseURL + /oauth/token.
	TokenURL string
	// AuthURL overrides the site's authorization page, mostly for tests.
	AuthURL string
	Site    Site
}

// Production returns the production environment for the given site.
func Production(site Site) Environment {
	return Environment{BaseURL: DefaultBaseURL, Site: site}
}

// WsHost returns the API base URL without a trailing slash.
func (e Environment) WsHost() string {
	if e.BaseURL == "" {
		return DefaultBaseURL
	}
	return strings.TrimRight(e.BaseURL, "/")
}

// TokenEndpoint returns the OAuth2 token URL.
func (e Environment) TokenEndpoint() string {
	if e.TokenURL != "" {
		return e.TokenURL
	}
	return e.WsHost() + tokenPath
}

// AuthorizationEndpoint returns the user-facing authorization page for the
// environment's site. Unknown sites fall back to Brazil.
func (e Environment) AuthorizationEndpoint() string {
	if e.AuthURL != "" {
		return e.AuthURL
	}
	host, ok := authHosts[e.Site]
	if !ok {
		host = authHosts[SiteBrazil]
	}
	return host + authorizationPath
}
