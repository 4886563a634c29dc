// Package auth provides authentication and authorization primitives
// for the coffee shop API.
//
// This package implements:
//   - Bearer token extraction from the Authorization header
//   - JWKS retrieval and caching for the configured Auth0 domain
//   - RS256 token verification (signature, issuer, audience, expiry)
//   - Permission checks against the token's "permissions" claim
//
// Every protected drink operation passes through Guard.Authorize before
// it runs. Failures are returned as *AuthError values carrying the HTTP
// status the boundary should render.
package auth
