package auth

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/coffeeshop/backend/internal/observability"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// maxKeySetSize caps the size of a JWKS response body.
const maxKeySetSize = 1 << 20

var (
	// ErrKeyNotFound is returned by KeySet.PublicKey when no key has the kid.
	ErrKeyNotFound = errors.New("key not found")

	// ErrUnsupportedKey is returned when the matching key is not an RSA key.
	ErrUnsupportedKey = errors.New("unsupported key type")
)

// KeySet is an immutable snapshot of the provider's published keys.
type KeySet struct {
	keys      jwk.Set
	fetchedAt time.Time
}

// ParseKeySet decodes a JWKS document.
func ParseKeySet(data []byte, fetchedAt time.Time) (*KeySet, error) {
	set, err := jwk.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWKS: %w", err)
	}
	return &KeySet{keys: set, fetchedAt: fetchedAt}, nil
}

// Len returns the number of keys in the set.
func (ks *KeySet) Len() int {
	return ks.keys.Len()
}

// FetchedAt returns when the snapshot was retrieved.
func (ks *KeySet) FetchedAt() time.Time {
	return ks.fetchedAt
}

// PublicKey returns the RSA public key identified by kid. Lookup is by
// kid only; the position of the key in the set does not matter.
func (ks *KeySet) PublicKey(kid string) (*rsa.PublicKey, error) {
	key, ok := ks.keys.LookupKeyID(kid)
	if !ok {
		return nil, fmt.Errorf("%w: kid %s", ErrKeyNotFound, kid)
	}
	if key.KeyType() != jwa.RSA {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKey, key.KeyType())
	}

	var publicKey rsa.PublicKey
	if err := key.Raw(&publicKey); err != nil {
		return nil, fmt.Errorf("failed to convert JWK to RSA public key: %w", err)
	}
	return &publicKey, nil
}

// KeyResolver supplies the current key set.
type KeyResolver interface {
	// Resolve returns the current key set, fetching it when the cached
	// snapshot is missing or stale.
	Resolve(ctx context.Context) (*KeySet, error)

	// Refresh refetches the key set, subject to a minimum refresh interval.
	Refresh(ctx context.Context) (*KeySet, error)
}

// JWKSResolver fetches the key set over HTTP and caches it for CacheTTL.
// Snapshots are replaced atomically, so readers never observe a partially
// updated set.
type JWKSResolver struct {
	url        string
	httpClient *http.Client
	cacheTTL   time.Duration
	minRefresh time.Duration
	logger     *zap.Logger
	metrics    *observability.Metrics

	current atomic.Pointer[KeySet]
	group   singleflight.Group
	now     func() time.Time
}

// NewJWKSResolver creates a resolver for the configured domain.
func NewJWKSResolver(cfg Config, logger *zap.Logger, metrics *observability.Metrics) *JWKSResolver {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	return &JWKSResolver{
		url:        cfg.KeySetURL(),
		httpClient: &http.Client{Timeout: timeout},
		cacheTTL:   cfg.CacheTTL,
		minRefresh: cfg.MinRefreshInterval,
		logger:     logger,
		metrics:    metrics,
		now:        time.Now,
	}
}

// Resolve implements KeyResolver.
func (r *JWKSResolver) Resolve(ctx context.Context) (*KeySet, error) {
	if ks := r.current.Load(); ks != nil && r.cacheTTL > 0 && r.now().Sub(ks.fetchedAt) < r.cacheTTL {
		return ks, nil
	}
	return r.fetch(ctx)
}

// Refresh implements KeyResolver.
func (r *JWKSResolver) Refresh(ctx context.Context) (*KeySet, error) {
	if ks := r.current.Load(); ks != nil && r.minRefresh > 0 && r.now().Sub(ks.fetchedAt) < r.minRefresh {
		return ks, nil
	}
	return r.fetch(ctx)
}

// fetch downloads the key set. Concurrent callers share one request, which
// is detached from any single caller's cancellation and bounded by the HTTP
// client timeout. Each caller stops waiting when its own ctx is done.
func (r *JWKSResolver) fetch(ctx context.Context) (*KeySet, error) {
	flight := context.WithoutCancel(ctx)
	ch := r.group.DoChan(r.url, func() (interface{}, error) {
		ks, err := r.download(flight)
		if err != nil {
			return nil, err
		}
		r.current.Store(ks)
		return ks, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*KeySet), nil
	case <-ctx.Done():
		return nil, keySetUnavailable(ctx.Err())
	}
}

func (r *JWKSResolver) download(ctx context.Context) (ks *KeySet, err error) {
	start := time.Now()
	defer func() {
		r.metrics.RecordJWKSFetch(err, time.Since(start))
		if err != nil {
			r.logger.Warn("JWKS fetch failed",
				zap.String("url", r.url),
				zap.Error(err))
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return nil, keySetUnavailable(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, keySetUnavailable(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, keySetUnavailable(fmt.Errorf("status code %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxKeySetSize))
	if err != nil {
		return nil, keySetUnavailable(fmt.Errorf("failed to read response: %w", err))
	}

	ks, err = ParseKeySet(body, r.now())
	if err != nil {
		return nil, keySetUnavailable(err)
	}

	r.logger.Debug("JWKS fetched",
		zap.String("url", r.url),
		zap.Int("keys", ks.Len()))
	return ks, nil
}

func keySetUnavailable(err error) *AuthError {
	return newAuthError(CodeKeySetUnavailable, http.StatusServiceUnavailable,
		"Unable to retrieve signing keys.", err)
}
