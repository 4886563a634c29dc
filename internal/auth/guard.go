package auth

import (
	"context"
	"net/http"

	"github.com/coffeeshop/backend/internal/observability"
	"go.uber.org/zap"
)

// TokenVerifier validates a bearer token and returns its claims.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}

// Guard composes extraction, verification and the permission check.
type Guard struct {
	verifier TokenVerifier
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// NewGuard creates a guard backed by verifier.
func NewGuard(verifier TokenVerifier, logger *zap.Logger, metrics *observability.Metrics) *Guard {
	return &Guard{
		verifier: verifier,
		logger:   logger,
		metrics:  metrics,
	}
}

// Authorize runs the request headers through the auth pipeline and
// returns the decoded claims when permission is granted. The first failing
// stage ends the pipeline; later stages do not run.
func (g *Guard) Authorize(ctx context.Context, header http.Header, permission string) (Claims, error) {
	token, err := ExtractBearerToken(header)
	if err != nil {
		return nil, g.reject(err, permission)
	}

	claims, err := g.verifier.Verify(ctx, token)
	if err != nil {
		return nil, g.reject(err, permission)
	}

	if err := CheckPermissions(permission, claims); err != nil {
		return nil, g.reject(err, permission)
	}

	g.metrics.RecordAuthGranted()
	g.logger.Debug("permission granted",
		zap.String("sub", claims.Subject()),
		zap.String("permission", permission))

	return claims, nil
}

func (g *Guard) reject(err error, permission string) error {
	code := "unexpected"
	if authErr, ok := AsAuthError(err); ok {
		code = string(authErr.Code)
	}
	g.metrics.RecordAuthRejected(code)
	g.logger.Debug("request rejected",
		zap.String("code", code),
		zap.String("permission", permission),
		zap.Error(err))
	return err
}
