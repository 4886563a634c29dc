package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const (
	testDomain   = "coffee-test.us.auth0.com"
	testAudience = "coffee-api"
)

type testKey struct {
	kid     string
	private *rsa.PrivateKey
}

func generateTestKey(t *testing.T, kid string) testKey {
	t.Helper()
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return testKey{kid: kid, private: privateKey}
}

type testJWK struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func jwksDocument(t *testing.T, keys ...testKey) []byte {
	t.Helper()
	doc := struct {
		Keys []testJWK `json:"keys"`
	}{Keys: []testJWK{}}

	for _, k := range keys {
		pub := k.private.PublicKey
		doc.Keys = append(doc.Keys, testJWK{
			Kty: "RSA",
			Kid: k.kid,
			Use: "sig",
			Alg: "RS256",
			N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		})
	}

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	return data
}

// jwksServer serves a swappable JWKS document and counts requests.
type jwksServer struct {
	*httptest.Server
	mu   sync.Mutex
	body []byte
	hits int32
}

func newJWKSServer(t *testing.T, keys ...testKey) *jwksServer {
	t.Helper()
	s := &jwksServer{body: jwksDocument(t, keys...)}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&s.hits, 1)
		s.mu.Lock()
		body := s.body
		s.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *jwksServer) setKeys(t *testing.T, keys ...testKey) {
	doc := jwksDocument(t, keys...)
	s.mu.Lock()
	s.body = doc
	s.mu.Unlock()
}

func (s *jwksServer) requests() int {
	return int(atomic.LoadInt32(&s.hits))
}

func testConfig(jwksURL string) Config {
	return Config{
		Domain:      testDomain,
		Audience:    testAudience,
		JWKSURL:     jwksURL,
		CacheTTL:    time.Hour,
		HTTPTimeout: 5 * time.Second,
	}
}

func validClaims(permissions ...string) jwt.MapClaims {
	now := time.Now()
	perms := make([]interface{}, 0, len(permissions))
	for _, p := range permissions {
		perms = append(perms, p)
	}
	return jwt.MapClaims{
		"iss":         "https://" + testDomain + "/",
		"sub":         "auth0|barista",
		"aud":         testAudience,
		"iat":         now.Unix(),
		"exp":         now.Add(time.Hour).Unix(),
		"permissions": perms,
	}
}

func signToken(t *testing.T, key testKey, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = key.kid
	signed, err := token.SignedString(key.private)
	require.NoError(t, err)
	return signed
}
