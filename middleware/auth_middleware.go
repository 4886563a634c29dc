package middleware

import (
	"context"
	"net/http"

	"github.com/coffeeshop/backend/internal/auth"
	"github.com/coffeeshop/backend/utils"
	"go.uber.org/zap"
)

// Authorizer decides whether a request may run an operation guarded by
// permission.
type Authorizer interface {
	Authorize(ctx context.Context, header http.Header, permission string) (auth.Claims, error)
}

// ProtectedHandlerFunc is a handler that receives the caller's verified claims.
type ProtectedHandlerFunc func(w http.ResponseWriter, r *http.Request, claims auth.Claims)

// AuthMiddleware adapts the auth guard to HTTP handlers
type AuthMiddleware struct {
	authorizer Authorizer
	logger     *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(authorizer Authorizer, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		authorizer: authorizer,
		logger:     logger,
	}
}

// RequiresAuth wraps next so that it only runs when the request carries a
// valid token granting permission. The verified claims are passed to next.
func (m *AuthMiddleware) RequiresAuth(permission string, next ProtectedHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := m.authorize(w, r, permission)
		if !ok {
			return
		}
		next(w, r.WithContext(auth.WithClaims(r.Context(), claims)), claims)
	}
}

// RequirePermission is the router middleware form of RequiresAuth. Claims
// are available to downstream handlers via auth.ClaimsFromContext.
func (m *AuthMiddleware) RequirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return m.RequiresAuth(permission, func(w http.ResponseWriter, r *http.Request, _ auth.Claims) {
			next.ServeHTTP(w, r)
		})
	}
}

func (m *AuthMiddleware) authorize(w http.ResponseWriter, r *http.Request, permission string) (auth.Claims, bool) {
	ctx := r.Context()
	requestID := GetRequestIDFromContext(ctx)

	claims, err := m.authorizer.Authorize(ctx, r.Header, permission)
	if err == nil {
		return claims, true
	}

	authErr, ok := auth.AsAuthError(err)
	if !ok {
		m.logger.Error("unexpected authorization failure",
			zap.String("request_id", requestID),
			zap.String("permission", permission),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "")
		return nil, false
	}

	m.logger.Warn("request rejected",
		zap.String("request_id", requestID),
		zap.String("permission", permission),
		zap.String("code", string(authErr.Code)),
		zap.Int("status", authErr.StatusCode))
	_ = utils.WriteErrorWithCode(w, authErr.StatusCode, string(authErr.Code), authErr.Description)
	return nil, false
}
