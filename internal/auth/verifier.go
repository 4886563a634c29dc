package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Verifier validates bearer tokens issued by the configured Auth0 tenant.
type Verifier struct {
	resolver KeyResolver
	issuer   string
	audience string
	parser   *jwt.Parser
	logger   *zap.Logger
}

// NewVerifier creates a verifier that resolves signing keys through resolver.
func NewVerifier(cfg Config, resolver KeyResolver, logger *zap.Logger) *Verifier {
	issuer := cfg.Issuer()

	return &Verifier{
		resolver: resolver,
		issuer:   issuer,
		audience: cfg.Audience,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{SigningAlgorithm}),
			jwt.WithIssuer(issuer),
			jwt.WithAudience(cfg.Audience),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(cfg.Leeway),
		),
		logger: logger,
	}
}

// Verify checks the token's signature and standard claims and returns all
// of its claims. No claims are returned unless every check passed.
func (v *Verifier) Verify(ctx context.Context, tokenString string) (Claims, error) {
	// The header is read unverified only to select the key.
	unverified, _, err := v.parser.ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return nil, errUnparseable(err)
	}

	kid, ok := unverified.Header["kid"].(string)
	if !ok || kid == "" {
		return nil, newAuthError(CodeInvalidHeader, http.StatusUnauthorized,
			"Authorization malformed.", nil)
	}

	publicKey, err := v.lookupKey(ctx, kid)
	if err != nil {
		return nil, err
	}

	claims := jwt.MapClaims{}
	_, err = v.parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return publicKey, nil
	})
	if err != nil {
		return nil, v.classify(err)
	}

	return Claims(claims), nil
}

// lookupKey finds kid in the current key set. An unknown kid triggers one
// refresh so keys rotated by the provider are picked up without restart.
func (v *Verifier) lookupKey(ctx context.Context, kid string) (interface{}, error) {
	keySet, err := v.resolver.Resolve(ctx)
	if err != nil {
		return nil, asKeySetUnavailable(err)
	}

	publicKey, err := keySet.PublicKey(kid)
	if errors.Is(err, ErrKeyNotFound) {
		v.logger.Debug("kid not in cached key set, refreshing", zap.String("kid", kid))
		keySet, err = v.resolver.Refresh(ctx)
		if err != nil {
			return nil, asKeySetUnavailable(err)
		}
		publicKey, err = keySet.PublicKey(kid)
	}
	if err != nil {
		return nil, newAuthError(CodeInvalidHeader, http.StatusBadRequest,
			"Unable to find the appropriate key.", err)
	}

	return publicKey, nil
}

// classify maps jwt validation errors onto the auth error taxonomy.
// Expiry takes precedence when several claims fail at once.
func (v *Verifier) classify(err error) *AuthError {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return newAuthError(CodeTokenExpired, http.StatusUnauthorized, "Token expired.", err)
	case errors.Is(err, jwt.ErrTokenInvalidAudience),
		errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return newAuthError(CodeInvalidClaims, http.StatusUnauthorized,
			"Incorrect claims. Please, check the audience and issuer.", err)
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing),
		errors.Is(err, jwt.ErrTokenNotValidYet),
		errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return newAuthError(CodeInvalidClaims, http.StatusUnauthorized,
			"Token claims are not valid.", err)
	default:
		return errUnparseable(err)
	}
}

func errUnparseable(err error) *AuthError {
	return newAuthError(CodeInvalidHeader, http.StatusBadRequest,
		"Unable to parse authentication token.", err)
}

func asKeySetUnavailable(err error) error {
	if IsAuthError(err) {
		return err
	}
	return keySetUnavailable(err)
}
