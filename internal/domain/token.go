package domain

import (
	"context"
	"crypto/rsa"
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ScopedTenantClaim is the namespaced tenant claim emitted by the legacy
// identity provider integration. TODO: drop the fallback once all tokens
// are minted with the plain tenant_id claim.
const ScopedTenantClaim = "https://agentgate.dev/claims/tenant_id"

// AgentClaims is the only supported claims shape for gateway tokens.
type AgentClaims struct {
	jwt.RegisteredClaims

	TenantID       string `json:"tenant_id,omitempty"`
	ScopedTenantID string `json:"https://agentgate.dev/claims/tenant_id,omitempty"`
}

// ResolveTenantID derives the tenant identifier from the claims, in
// priority order: dedicated claim, namespaced claim, subject prefix before
// the first colon. Returns "" when no source is present.
func (c *AgentClaims) ResolveTenantID() string {
	if c.TenantID != "" {
		return c.TenantID
	}
	if c.ScopedTenantID != "" {
		return c.ScopedTenantID
	}
	if i := strings.Index(c.Subject, ":"); i > 0 {
		return c.Subject[:i]
	}
	return ""
}

var (
	// ErrKeyNotFound means the key identifier is unknown to the provider.
	ErrKeyNotFound = errors.New("signing key not found")

	// ErrKeyUnavailable means the provider could not be reached. Callers
	// must treat this as an internal fault, not a bad credential.
	ErrKeyUnavailable = errors.New("signing key endpoint unavailable")
)

// KeyProvider retrieves the public key for a token's key identifier.
// Implementations should cache keys; the gateway performs a lookup per
// verification.
type KeyProvider interface {
	Key(ctx context.Context, kid string) (*rsa.PublicKey, error)
}
