package provider

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/foodpal/foodpal/pkg/errors"
)

// KeySet holds a provider's signing keys by key ID. A KeySet is immutable once
// fetched; the cache replaces whole entries on refresh so a verification in
// flight never observes partially updated key material.
type KeySet struct {
	Provider  string
	Keys      map[string]crypto.PublicKey
	FetchedAt time.Time
}

// Key returns the public key for the given key ID
func (ks *KeySet) Key(kid string) (crypto.PublicKey, bool) {
	k, ok := ks.Keys[kid]
	return k, ok
}

// KeySetCache fetches and caches provider JWKS documents. Entries expire after
// the configured freshness window; an expired or invalidated entry triggers a
// blocking refetch on the next GetKeys call. Concurrent misses may fetch
// redundantly, which is harmless because entries are swapped atomically.
type KeySetCache struct {
	cache      *gocache.Cache
	httpClient *http.Client
}

// KeySetCacheOption configures a KeySetCache
type KeySetCacheOption func(*KeySetCache)

// WithHTTPClient sets the HTTP client used for JWKS fetches
func WithHTTPClient(client *http.Client) KeySetCacheOption {
	return func(c *KeySetCache) {
		c.httpClient = client
	}
}

// NewKeySetCache creates a KeySetCache whose entries stay fresh for ttl
func NewKeySetCache(ttl time.Duration, opts ...KeySetCacheOption) *KeySetCache {
	c := &KeySetCache{
		cache:      gocache.New(ttl, 2*ttl),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetKeys returns the provider's key set, fetching it from the JWKS endpoint
// when there is no fresh cached entry. Callers must not retry a failed fetch
// more than once per verification attempt.
func (c *KeySetCache) GetKeys(ctx context.Context, cfg Config) (*KeySet, error) {
	if cached, ok := c.cache.Get(cfg.Name); ok {
		return cached.(*KeySet), nil
	}

	ks, err := c.fetch(ctx, cfg)
	if err != nil {
		return nil, err
	}

	c.cache.SetDefault(cfg.Name, ks)
	slog.Info("Provider key set refreshed", "provider", cfg.Name, "keys", len(ks.Keys))
	return ks, nil
}

// Invalidate drops the cached key set so the next GetKeys call refetches
func (c *KeySetCache) Invalidate(providerName string) {
	c.cache.Delete(providerName)
}

func (c *KeySetCache) fetch(ctx context.Context, cfg Config) (*KeySet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.JWKSURI, http.NoBody)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeKeyFetchFailed, "failed to create JWKS request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrCodeKeyFetchFailed, "failed to fetch JWKS for provider %s", cfg.Name)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, errors.Newf(errors.ErrCodeKeyFetchFailed,
			"JWKS endpoint for provider %s returned %d: %s", cfg.Name, resp.StatusCode, string(body))
	}

	var doc jwksDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, errors.Wrapf(err, errors.ErrCodeKeyFetchFailed, "failed to decode JWKS for provider %s", cfg.Name)
	}

	keys := make(map[string]crypto.PublicKey, len(doc.Keys))
	for _, jwk := range doc.Keys {
		if jwk.Use != "" && jwk.Use != "sig" {
			continue
		}
		pub, err := jwk.publicKey()
		if err != nil {
			slog.Warn("Skipping unusable JWKS entry", "provider", cfg.Name, "kid", jwk.Kid, "err", err)
			continue
		}
		keys[jwk.Kid] = pub
	}
	if len(keys) == 0 {
		return nil, errors.Newf(errors.ErrCodeKeyFetchFailed, "JWKS for provider %s contains no usable signing keys", cfg.Name)
	}

	return &KeySet{
		Provider:  cfg.Name,
		Keys:      keys,
		FetchedAt: time.Now().UTC(),
	}, nil
}

// jwksDocument is the wire shape of a provider's JWKS endpoint
type jwksDocument struct {
	Keys []jwk `json:"keys"`
}

// jwk represents a JSON Web Key
type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Alg string `json:"alg"`
	Use string `json:"use"`

	// RSA fields
	N string `json:"n"`
	E string `json:"e"`

	// EC fields
	Crv string `json:"crv"`
	X   string `json:"x"`
	Y   string `json:"y"`
}

// publicKey converts a JWK to a Go crypto.PublicKey
func (k jwk) publicKey() (crypto.PublicKey, error) {
	switch k.Kty {
	case "RSA":
		return k.rsaPublicKey()
	case "EC":
		return k.ecPublicKey()
	default:
		return nil, fmt.Errorf("unsupported key type: %s", k.Kty)
	}
}

func (k jwk) rsaPublicKey() (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("failed to decode RSA modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("failed to decode RSA exponent: %w", err)
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: int(new(big.Int).SetBytes(eBytes).Int64()),
	}, nil
}

func (k jwk) ecPublicKey() (*ecdsa.PublicKey, error) {
	xBytes, err := base64.RawURLEncoding.DecodeString(k.X)
	if err != nil {
		return nil, fmt.Errorf("failed to decode EC x coordinate: %w", err)
	}
	yBytes, err := base64.RawURLEncoding.DecodeString(k.Y)
	if err != nil {
		return nil, fmt.Errorf("failed to decode EC y coordinate: %w", err)
	}

	var curve elliptic.Curve
	switch k.Crv {
	case "P-256":
		curve = elliptic.P256()
	case "P-384":
		curve = elliptic.P384()
	case "P-521":
		curve = elliptic.P521()
	default:
		return nil, fmt.Errorf("unsupported curve: %s", k.Crv)
	}

	return &ecdsa.PublicKey{
		Curve: curve,
		X:     new(big.Int).SetBytes(xBytes),
		Y:     new(big.Int).SetBytes(yBytes),
	}, nil
}
