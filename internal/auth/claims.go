package auth

import "context"

// PermissionsClaim is the claim Auth0 uses for RBAC permissions.
const PermissionsClaim = "permissions"

// Claims holds every claim of a verified token, keyed by claim name.
type Claims map[string]interface{}

// Subject returns the "sub" claim, or "" when absent.
func (c Claims) Subject() string {
	sub, _ := c["sub"].(string)
	return sub
}

// Permissions returns the permission strings granted by the token. ok is
// false when the claim is absent or is not a list of strings.
func (c Claims) Permissions() (permissions []string, ok bool) {
	raw, present := c[PermissionsClaim]
	if !present {
		return nil, false
	}

	switch v := raw.(type) {
	case []string:
		return v, true
	case []interface{}:
		permissions = make([]string, 0, len(v))
		for _, item := range v {
			s, isString := item.(string)
			if !isString {
				return nil, false
			}
			permissions = append(permissions, s)
		}
		return permissions, true
	default:
		return nil, false
	}
}

// HasPermission reports whether the token grants permission.
func (c Claims) HasPermission(permission string) bool {
	permissions, ok := c.Permissions()
	if !ok {
		return false
	}
	for _, p := range permissions {
		if p == permission {
			return true
		}
	}
	return false
}

type claimsContextKey struct{}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// ClaimsFromContext returns the claims stored by WithClaims, or nil.
func ClaimsFromContext(ctx context.Context) Claims {
	claims, _ := ctx.Value(claimsContextKey{}).(Claims)
	return claims
}
