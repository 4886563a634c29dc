package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestVerifier(t *testing.T, server *jwksServer) *Verifier {
	t.Helper()
	cfg := testConfig(server.URL)
	return NewVerifier(cfg, NewJWKSResolver(cfg, zap.NewNop(), nil), zap.NewNop())
}

func assertAuthError(t *testing.T, err error, code ErrorCode, status int) {
	t.Helper()
	require.Error(t, err)
	authErr, ok := AsAuthError(err)
	require.True(t, ok, "expected *AuthError, got %T", err)
	assert.Equal(t, code, authErr.Code)
	assert.Equal(t, status, authErr.StatusCode)
}

func TestVerifier_Verify(t *testing.T) {
	ctx := context.Background()
	key := generateTestKey(t, "kid-1")
	server := newJWKSServer(t, key)
	verifier := newTestVerifier(t, server)

	t.Run("valid token returns all claims", func(t *testing.T) {
		claims := validClaims("get:drinks-detail")
		claims["https://coffee/roles"] = "barista"

		got, err := verifier.Verify(ctx, signToken(t, key, claims))
		require.NoError(t, err)
		assert.Equal(t, "auth0|barista", got.Subject())
		assert.Equal(t, "barista", got["https://coffee/roles"])
		perms, ok := got.Permissions()
		require.True(t, ok)
		assert.Equal(t, []string{"get:drinks-detail"}, perms)
	})

	t.Run("audience given as a list", func(t *testing.T) {
		claims := validClaims()
		claims["aud"] = []string{"other-api", testAudience}

		_, err := verifier.Verify(ctx, signToken(t, key, claims))
		assert.NoError(t, err)
	})

	t.Run("expired token", func(t *testing.T) {
		claims := validClaims()
		claims["exp"] = time.Now().Add(-time.Minute).Unix()

		_, err := verifier.Verify(ctx, signToken(t, key, claims))
		assertAuthError(t, err, CodeTokenExpired, http.StatusUnauthorized)
	})

	t.Run("expiry wins over a bad audience", func(t *testing.T) {
		claims := validClaims()
		claims["exp"] = time.Now().Add(-time.Minute).Unix()
		claims["aud"] = "someone-else"

		_, err := verifier.Verify(ctx, signToken(t, key, claims))
		assertAuthError(t, err, CodeTokenExpired, http.StatusUnauthorized)
	})

	t.Run("wrong audience", func(t *testing.T) {
		claims := validClaims()
		claims["aud"] = "someone-else"

		_, err := verifier.Verify(ctx, signToken(t, key, claims))
		assertAuthError(t, err, CodeInvalidClaims, http.StatusUnauthorized)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		claims := validClaims()
		claims["iss"] = "https://evil.example.com/"

		_, err := verifier.Verify(ctx, signToken(t, key, claims))
		assertAuthError(t, err, CodeInvalidClaims, http.StatusUnauthorized)
	})

	t.Run("missing expiry", func(t *testing.T) {
		claims := validClaims()
		delete(claims, "exp")

		_, err := verifier.Verify(ctx, signToken(t, key, claims))
		assertAuthError(t, err, CodeInvalidClaims, http.StatusUnauthorized)
	})

	t.Run("missing kid", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodRS256, validClaims())
		signed, err := token.SignedString(key.private)
		require.NoError(t, err)

		_, err = verifier.Verify(ctx, signed)
		assertAuthError(t, err, CodeInvalidHeader, http.StatusUnauthorized)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := verifier.Verify(ctx, "not-a-jwt")
		assertAuthError(t, err, CodeInvalidHeader, http.StatusBadRequest)
	})

	t.Run("signed by a different key with the same kid", func(t *testing.T) {
		impostor := generateTestKey(t, key.kid)

		_, err := verifier.Verify(ctx, signToken(t, impostor, validClaims()))
		assertAuthError(t, err, CodeInvalidHeader, http.StatusBadRequest)
	})

	t.Run("HS256 token", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims())
		token.Header["kid"] = key.kid
		signed, err := token.SignedString([]byte("shared-secret"))
		require.NoError(t, err)

		_, err = verifier.Verify(ctx, signed)
		assertAuthError(t, err, CodeInvalidHeader, http.StatusBadRequest)
	})

	t.Run("unsigned token", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, validClaims())
		token.Header["kid"] = key.kid
		signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = verifier.Verify(ctx, signed)
		assertAuthError(t, err, CodeInvalidHeader, http.StatusBadRequest)
	})
}

func TestVerifier_UnknownKid(t *testing.T) {
	ctx := context.Background()
	known := generateTestKey(t, "known")
	server := newJWKSServer(t, known)
	verifier := newTestVerifier(t, server)

	stranger := generateTestKey(t, "stranger")
	_, err := verifier.Verify(ctx, signToken(t, stranger, validClaims()))
	assertAuthError(t, err, CodeInvalidHeader, http.StatusBadRequest)

	// Initial fetch plus one forced refresh.
	assert.Equal(t, 2, server.requests())
}

func TestVerifier_KeyRotation(t *testing.T) {
	ctx := context.Background()
	oldKey := generateTestKey(t, "2025-01")
	newKey := generateTestKey(t, "2025-02")
	server := newJWKSServer(t, oldKey)
	verifier := newTestVerifier(t, server)

	_, err := verifier.Verify(ctx, signToken(t, oldKey, validClaims()))
	require.NoError(t, err)

	server.setKeys(t, oldKey, newKey)

	_, err = verifier.Verify(ctx, signToken(t, newKey, validClaims()))
	require.NoError(t, err)
	assert.Equal(t, 2, server.requests())

	// The refreshed snapshot is cached again.
	_, err = verifier.Verify(ctx, signToken(t, newKey, validClaims()))
	require.NoError(t, err)
	assert.Equal(t, 2, server.requests())
}

func TestVerifier_KeyPosition(t *testing.T) {
	ctx := context.Background()
	keys := make([]testKey, 4)
	for i := range keys {
		keys[i] = generateTestKey(t, fmt.Sprintf("kid-%d", i))
	}
	server := newJWKSServer(t, keys...)
	verifier := newTestVerifier(t, server)

	for i, k := range keys {
		t.Run(k.kid, func(t *testing.T) {
			claims := validClaims()
			claims["sub"] = fmt.Sprintf("user-%d", i)

			got, err := verifier.Verify(ctx, signToken(t, k, claims))
			require.NoError(t, err)
			assert.Equal(t, fmt.Sprintf("user-%d", i), got.Subject())
		})
	}
}

func TestVerifier_KeySetUnavailable(t *testing.T) {
	key := generateTestKey(t, "kid-1")
	server := newJWKSServer(t, key)
	url := server.URL
	server.Close()

	cfg := testConfig(url)
	verifier := NewVerifier(cfg, NewJWKSResolver(cfg, zap.NewNop(), nil), zap.NewNop())

	_, err := verifier.Verify(context.Background(), signToken(t, key, validClaims()))
	assertAuthError(t, err, CodeKeySetUnavailable, http.StatusServiceUnavailable)
}

func TestVerifier_CancelledCallerDoesNotFailOthers(t *testing.T) {
	key := generateTestKey(t, "kid-1")
	doc := jwksDocument(t, key)

	arrived := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() { close(arrived) })
		<-release
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(doc)
	}))
	t.Cleanup(server.Close)
	var releaseOnce sync.Once
	unblock := func() { releaseOnce.Do(func() { close(release) }) }
	t.Cleanup(unblock)

	cfg := testConfig(server.URL)
	verifier := NewVerifier(cfg, NewJWKSResolver(cfg, zap.NewNop(), nil), zap.NewNop())
	token := signToken(t, key, validClaims("get:drinks-detail"))

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := verifier.Verify(ctxA, token)
		errA <- err
	}()
	<-arrived

	errB := make(chan error, 1)
	go func() {
		_, err := verifier.Verify(context.Background(), token)
		errB <- err
	}()
	time.Sleep(50 * time.Millisecond)

	cancelA()
	select {
	case err := <-errA:
		assertAuthError(t, err, CodeKeySetUnavailable, http.StatusServiceUnavailable)
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled caller kept waiting on the shared fetch")
	}

	unblock()
	select {
	case err := <-errB:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("second caller never completed")
	}
}
