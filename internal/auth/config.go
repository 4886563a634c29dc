package auth

import (
	"fmt"
	"strings"
	"time"
)

// SigningAlgorithm is the only algorithm tokens may be signed with.
const SigningAlgorithm = "RS256"

const (
	defaultHTTPTimeout = 10 * time.Second
	jwksPath           = "/.well-known/jwks.json"
)

// Config holds the identity provider settings shared by the resolver and
// the verifier.
type Config struct {
	// Domain is the Auth0 tenant domain, e.g. "example.us.auth0.com".
	Domain string
	// Audience is the API identifier tokens must be issued for.
	Audience string
	// JWKSURL overrides the key set URL derived from Domain.
	JWKSURL string
	// CacheTTL is how long a fetched key set is reused. Zero refetches on
	// every verification.
	CacheTTL time.Duration
	// HTTPTimeout bounds a single key set fetch.
	HTTPTimeout time.Duration
	// MinRefreshInterval rate limits forced refreshes triggered by an
	// unknown kid.
	MinRefreshInterval time.Duration
	// Leeway is the clock skew tolerated on exp.
	Leeway time.Duration
}

// Issuer returns the expected "iss" claim.
func (c Config) Issuer() string {
	return fmt.Sprintf("https://%s/", strings.TrimSuffix(c.Domain, "/"))
}

// KeySetURL returns the URL the key set is fetched from.
func (c Config) KeySetURL() string {
	if c.JWKSURL != "" {
		return c.JWKSURL
	}
	return fmt.Sprintf("https://%s%s", strings.TrimSuffix(c.Domain, "/"), jwksPath)
}
