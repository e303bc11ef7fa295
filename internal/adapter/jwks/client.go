package jwks

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/agentgate/agentgate/internal/adapter/metrics"
	"github.com/agentgate/agentgate/internal/domain"
)

const defaultFetchTimeout = 5 * time.Second

// Client fetches signing keys from a JWKS endpoint and caches them for a
// fixed TTL. Entries within the TTL are served without refetching and are
// never invalidated early. Concurrent misses may each fetch; the last
// write wins, which is safe because the document is fetched whole.
type Client struct {
	url        string
	httpClient *http.Client
	ttl        time.Duration
	logger     *slog.Logger
	metrics    *metrics.GatewayMetrics
	now        func() time.Time

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	expiresAt time.Time
}

// NewClient creates a JWKS client for the given endpoint. metrics may be nil.
func NewClient(url string, ttl time.Duration, logger *slog.Logger, m *metrics.GatewayMetrics) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: defaultFetchTimeout},
		ttl:        ttl,
		logger:     logger,
		metrics:    m,
		now:        time.Now,
		keys:       make(map[string]*rsa.PublicKey),
	}
}

// Key returns the public key for the given key identifier, implementing
// domain.KeyProvider. Transport failures surface as
// domain.ErrKeyUnavailable so callers can fail closed as an internal
// fault rather than a bad credential.
func (c *Client) Key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if kid == "" {
		return nil, domain.ErrKeyNotFound
	}

	c.mu.RLock()
	key, ok := c.keys[kid]
	fresh := c.now().Before(c.expiresAt)
	c.mu.RUnlock()

	if ok && fresh {
		if c.metrics != nil {
			c.metrics.JWKSCacheHits.Inc()
		}
		return key, nil
	}
	if c.metrics != nil {
		c.metrics.JWKSCacheMisses.Inc()
	}

	keys, err := c.fetch(ctx)
	if err != nil {
		c.logger.Warn("jwks fetch failed", "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrKeyUnavailable, err)
	}

	c.mu.Lock()
	c.keys = keys
	c.expiresAt = c.now().Add(c.ttl)
	c.mu.Unlock()

	if key, ok := keys[kid]; ok {
		return key, nil
	}
	return nil, domain.ErrKeyNotFound
}

type jwksDocument struct {
	Keys []jwk `json:"keys"`
}

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func (c *Client) fetch(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("jwks endpoint returned status %d", resp.StatusCode)
	}

	var doc jwksDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, err
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		pub, err := rsaPublicKey(k)
		if err != nil {
			c.logger.Warn("skipping unusable jwk", "kid", k.Kid, "error", err)
			continue
		}
		keys[k.Kid] = pub
	}
	if len(keys) == 0 {
		return nil, errors.New("jwks document contains no usable keys")
	}
	return keys, nil
}

func rsaPublicKey(k jwk) (*rsa.PublicKey, error) {
	if k.N == "" || k.E == "" {
		return nil, errors.New("missing rsa parameters")
	}
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, err
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, err
	}
	e := new(big.Int).SetBytes(eBytes).Int64()
	if e <= 0 || e > int64(^uint32(0)) {
		return nil, errors.New("invalid rsa exponent")
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: int(e),
	}, nil
}
