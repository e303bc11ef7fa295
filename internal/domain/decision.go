package domain

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// Effect is the outcome of an authorization decision.
type Effect string

const (
	EffectAllow Effect = "Allow"
	EffectDeny  Effect = "Deny"
)

// Sentinel principals used when no subject claim is available.
const (
	PrincipalAnonymous = "anonymous"
	PrincipalError     = "error"
)

// DenyReason classifies why a request was denied. Reasons are internal:
// they feed metrics and audit events but are never returned to the caller.
type DenyReason string

const (
	ReasonNone              DenyReason = ""
	ReasonMissingCredential DenyReason = "missing_credential"
	ReasonInvalidToken      DenyReason = "invalid_token"
	ReasonNoTenantClaim     DenyReason = "no_tenant_claim"
	ReasonTenantNotFound    DenyReason = "tenant_not_found"
	ReasonTenantInactive    DenyReason = "tenant_inactive"
	ReasonInternalError     DenyReason = "internal_error"
)

// Decision is the result of authorizing a single request. It is ephemeral
// and never persisted. A Deny decision carries no context; an Allow
// decision always carries the full tenant context bundle.
type Decision struct {
	PrincipalID string            `json:"principalId"`
	Effect      Effect            `json:"effect"`
	Resource    string            `json:"resource"`
	Context     map[string]string `json:"context,omitempty"`

	Reason DenyReason `json:"-"`
}

// Allowed reports whether the decision grants access.
func (d Decision) Allowed() bool {
	return d.Effect == EffectAllow
}

// NewAllowDecision builds an Allow decision with the context bundle
// populated from the tenant record.
func NewAllowDecision(principal, resource string, t *Tenant) Decision {
	return Decision{
		PrincipalID: principal,
		Effect:      EffectAllow,
		Resource:    resource,
		Context: map[string]string{
			"tenantId":           t.ID,
			"tenantName":         t.Name,
			"tier":               string(t.Tier),
			"executionRoleArn":   t.ExecutionRoleARN,
			"memoryNamespace":    t.Namespace(),
			"rateLimitRps":       strconv.Itoa(t.Config.RateLimitRPS),
			"concurrentSessions": strconv.Itoa(t.Config.ConcurrentSessions),
		},
	}
}

// NewDenyDecision builds a Deny decision. No tenant context is ever
// attached to a denial.
func NewDenyDecision(principal, resource string, reason DenyReason) Decision {
	return Decision{
		PrincipalID: principal,
		Effect:      EffectDeny,
		Resource:    resource,
		Reason:      reason,
	}
}

// TenantContext is the typed view of an Allow decision's context bundle,
// used by the invocation path downstream of the authorizer.
type TenantContext struct {
	TenantID           string
	TenantName         string
	Tier               string
	ExecutionRoleARN   string
	MemoryNamespace    string
	RateLimitRPS       int
	ConcurrentSessions int
}

// TenantContext parses the decision's context bundle. It fails on Deny
// decisions and on bundles with missing or non-numeric fields.
func (d Decision) TenantContext() (*TenantContext, error) {
	if !d.Allowed() || d.Context == nil {
		return nil, fmt.Errorf("decision carries no tenant context")
	}
	rps, err := strconv.Atoi(d.Context["rateLimitRps"])
	if err != nil {
		return nil, fmt.Errorf("parse rateLimitRps: %w", err)
	}
	sessions, err := strconv.Atoi(d.Context["concurrentSessions"])
	if err != nil {
		return nil, fmt.Errorf("parse concurrentSessions: %w", err)
	}
	tc := &TenantContext{
		TenantID:           d.Context["tenantId"],
		TenantName:         d.Context["tenantName"],
		Tier:               d.Context["tier"],
		ExecutionRoleARN:   d.Context["executionRoleArn"],
		MemoryNamespace:    d.Context["memoryNamespace"],
		RateLimitRPS:       rps,
		ConcurrentSessions: sessions,
	}
	if tc.TenantID == "" {
		return nil, fmt.Errorf("tenant context missing tenantId")
	}
	return tc, nil
}

// DecisionEvent is the audit record emitted for every decision.
type DecisionEvent struct {
	Principal  string     `json:"principal"`
	TenantID   string     `json:"tenant_id,omitempty"`
	Effect     Effect     `json:"effect"`
	Reason     DenyReason `json:"reason,omitempty"`
	Resource   string     `json:"resource"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// DecisionPublisher publishes decision audit events. Implementations must
// be safe for concurrent use; publishing is best-effort on the request path.
type DecisionPublisher interface {
	Publish(ctx context.Context, event DecisionEvent) error
}
