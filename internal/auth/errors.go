package auth

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode is the machine-readable category of an authentication failure.
type ErrorCode string

const (
	CodeAuthHeaderMissing ErrorCode = "auth_header_missing"
	CodeAuthHeaderInvalid ErrorCode = "auth_header_invalid"
	CodeInvalidHeader     ErrorCode = "invalid_header"
	CodeTokenExpired      ErrorCode = "token_expired"
	CodeInvalidClaims     ErrorCode = "invalid_claims"
	CodeUnauthorized      ErrorCode = "unauthorized"
	CodeKeySetUnavailable ErrorCode = "key_set_unavailable"
)

// AuthError is a structured authentication or authorization failure.
type AuthError struct {
	Code        ErrorCode
	Description string
	StatusCode  int
	Err         error
}

// Error implements the error interface
func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Description, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Unwrap implements errors.Unwrap
func (e *AuthError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *AuthError with the same code.
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func newAuthError(code ErrorCode, status int, description string, err error) *AuthError {
	return &AuthError{
		Code:        code,
		Description: description,
		StatusCode:  status,
		Err:         err,
	}
}

// Sentinels for errors.Is comparisons. Matching is by code only, so the
// description and status of a returned error may differ from these.
var (
	ErrAuthHeaderMissing = newAuthError(CodeAuthHeaderMissing, http.StatusUnauthorized, "Authorization header is expected.", nil)
	ErrAuthHeaderInvalid = newAuthError(CodeAuthHeaderInvalid, http.StatusUnauthorized, "Authorization header must be bearer token.", nil)
	ErrInvalidHeader     = newAuthError(CodeInvalidHeader, http.StatusBadRequest, "Unable to parse authentication token.", nil)
	ErrTokenExpired      = newAuthError(CodeTokenExpired, http.StatusUnauthorized, "Token expired.", nil)
	ErrInvalidClaims     = newAuthError(CodeInvalidClaims, http.StatusUnauthorized, "Incorrect claims. Please, check the audience and issuer.", nil)
	ErrUnauthorized      = newAuthError(CodeUnauthorized, http.StatusUnauthorized, "Permission not found.", nil)
	ErrKeySetUnavailable = newAuthError(CodeKeySetUnavailable, http.StatusServiceUnavailable, "Unable to retrieve signing keys.", nil)
)

// IsAuthError reports whether err is, or wraps, an *AuthError.
func IsAuthError(err error) bool {
	_, ok := AsAuthError(err)
	return ok
}

// AsAuthError extracts the *AuthError from err's chain.
func AsAuthError(err error) (*AuthError, bool) {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr, true
	}
	return nil, false
}
