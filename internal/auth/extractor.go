package auth

import (
	"net/http"
	"strings"
)

// BearerScheme is the only accepted Authorization scheme. Comparison is
// case sensitive.
const BearerScheme = "Bearer"

// ExtractBearerToken returns the bearer token carried by the Authorization
// header. The token is returned verbatim; no decoding happens here.
func ExtractBearerToken(header http.Header) (string, error) {
	values, present := header[http.CanonicalHeaderKey("Authorization")]
	if !present || len(values) == 0 {
		return "", newAuthError(CodeAuthHeaderMissing, http.StatusUnauthorized,
			"Authorization header is expected.", nil)
	}

	parts := strings.Fields(values[0])
	if len(parts) != 2 {
		return "", newAuthError(CodeAuthHeaderInvalid, http.StatusUnauthorized,
			"Authorization header must contain the token type and the token.", nil)
	}

	if parts[0] != BearerScheme {
		return "", newAuthError(CodeAuthHeaderInvalid, http.StatusUnauthorized,
			"Authorization header must use a Bearer token.", nil)
	}

	return parts[1], nil
}
