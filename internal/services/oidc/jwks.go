package oidc

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

// DefaultJWKSTTL is how long a fetched key set is trusted before refetching.
const DefaultJWKSTTL = time.Hour

// JWKSCache caches JWKS keys
type JWKSCache struct {
	keys    jwk.Set
	expires time.Time
}

// JWKSManager manages JWKS fetching and caching
type JWKSManager struct {
	cache      map[string]*JWKSCache
	mu         sync.RWMutex
	ttl        time.Duration
	httpClient *http.Client
	now        func() time.Time
}

// NewJWKSManager creates a new JWKS manager. A nil client uses a 10s timeout client.
func NewJWKSManager(httpClient *http.Client) *JWKSManager {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &JWKSManager{
		cache:      make(map[string]*JWKSCache),
		ttl:        DefaultJWKSTTL,
		httpClient: httpClient,
		now:        time.Now,
	}
}

// GetJWKS retrieves JWKS for a given JWKS URL, with caching. cached reports
// whether the set came from the cache rather than a fresh fetch.
func (m *JWKSManager) GetJWKS(ctx context.Context, jwksURL string) (keys jwk.Set, cached bool, err error) {
	m.mu.RLock()
	entry, exists := m.cache[jwksURL]
	m.mu.RUnlock()

	if exists && m.now().Before(entry.expires) && entry.keys != nil {
		return entry.keys, true, nil
	}

	keys, err = m.fetchJWKS(ctx, jwksURL)
	if err != nil {
		return nil, false, fmt.Errorf("failed to fetch JWKS: %w", err)
	}

	m.mu.Lock()
	m.cache[jwksURL] = &JWKSCache{
		keys:    keys,
		expires: m.now().Add(m.ttl),
	}
	m.mu.Unlock()

	return keys, false, nil
}

// Invalidate drops the cached set for jwksURL so the next lookup refetches.
func (m *JWKSManager) Invalidate(jwksURL string) {
	m.mu.Lock()
	delete(m.cache, jwksURL)
	m.mu.Unlock()
}

func (m *JWKSManager) fetchJWKS(ctx context.Context, jwksURL string) (jwk.Set, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jwksURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read JWKS response: %w", err)
	}

	keys, err := jwk.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWKS: %w", err)
	}

	return keys, nil
}
