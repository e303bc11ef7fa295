package domain

import (
	"context"
	"errors"
	"time"
)

// TenantTier is the service level a tenant is subscribed to.
type TenantTier string

const (
	TierStarter      TenantTier = "starter"
	TierProfessional TenantTier = "professional"
	TierEnterprise   TenantTier = "enterprise"
)

// TenantStatus is the lifecycle state of a tenant account.
type TenantStatus string

const (
	StatusActive       TenantStatus = "active"
	StatusSuspended    TenantStatus = "suspended"
	StatusProvisioning TenantStatus = "provisioning"
)

// TenantConfig holds the per-tenant quota settings.
type TenantConfig struct {
	RateLimitRPS       int `json:"rate_limit_rps"`
	MemoryQuotaMB      int `json:"memory_quota_mb"`
	ConcurrentSessions int `json:"concurrent_sessions"`
}

// Tenant represents a registered tenant account. Records are created by the
// onboarding tooling and are read-only from the gateway's perspective.
type Tenant struct {
	ID               string       `json:"tenant_id"`
	Name             string       `json:"name"`
	Tier             TenantTier   `json:"tier"`
	Status           TenantStatus `json:"status"`
	ExecutionRoleARN string       `json:"execution_role_arn"`
	MemoryNamespace  string       `json:"memory_namespace,omitempty"`
	Config           TenantConfig `json:"config"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// Namespace returns the tenant's memory namespace, deriving the default
// from the tenant ID when the record does not carry one.
func (t *Tenant) Namespace() string {
	if t.MemoryNamespace != "" {
		return t.MemoryNamespace
	}
	return "/tenants/" + t.ID
}

// ErrTenantNotFound is returned by repositories when no record exists for
// the given tenant ID.
var ErrTenantNotFound = errors.New("tenant not found")

// TenantRepository defines the interface for the tenant registry.
// FindByID must be a point lookup, never a scan.
type TenantRepository interface {
	FindByID(ctx context.Context, id string) (*Tenant, error)

	// Store writes a tenant record. Used by onboarding tooling only; the
	// request path never writes.
	Store(ctx context.Context, t *Tenant) error
}
