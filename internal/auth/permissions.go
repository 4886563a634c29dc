package auth

import "net/http"

// CheckPermissions verifies that claims grant permission. An empty
// permission means the caller only needs a valid token and always passes.
func CheckPermissions(permission string, claims Claims) error {
	if permission == "" {
		return nil
	}

	if _, ok := claims.Permissions(); !ok {
		return newAuthError(CodeInvalidClaims, http.StatusUnauthorized,
			"Permissions not included in JWT.", nil)
	}

	if !claims.HasPermission(permission) {
		return newAuthError(CodeUnauthorized, http.StatusUnauthorized,
			"Permission not found.", nil)
	}

	return nil
}
