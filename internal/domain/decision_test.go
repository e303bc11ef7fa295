package domain

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestNewAllowDecision(t *testing.T) {
	tenant := &Tenant{
		ID:               "acme",
		Name:             "Acme Corp",
		Tier:             TierEnterprise,
		Status:           StatusActive,
		ExecutionRoleARN: "arn:aws:iam::123456789012:role/acme-agent",
		Config: TenantConfig{
			RateLimitRPS:       50,
			MemoryQuotaMB:      2048,
			ConcurrentSessions: 20,
		},
	}

	d := NewAllowDecision("user@acme.example", "POST /v1/invocations", tenant)

	if !d.Allowed() {
		t.Fatal("expected an Allow decision")
	}
	for _, field := range []string{"tenantId", "tenantName", "tier", "executionRoleArn", "memoryNamespace", "rateLimitRps", "concurrentSessions"} {
		if d.Context[field] == "" {
			t.Errorf("context field %q is empty", field)
		}
	}

	tc, err := d.TenantContext()
	if err != nil {
		t.Fatalf("failed to parse tenant context: %v", err)
	}
	if tc.TenantID != "acme" || tc.RateLimitRPS != 50 || tc.ConcurrentSessions != 20 {
		t.Errorf("unexpected tenant context: %+v", tc)
	}
	if tc.MemoryNamespace != "/tenants/acme" {
		t.Errorf("expected derived namespace, got %q", tc.MemoryNamespace)
	}
}

func TestNewDenyDecision(t *testing.T) {
	d := NewDenyDecision(PrincipalAnonymous, "POST /v1/invocations", ReasonMissingCredential)

	if d.Allowed() {
		t.Fatal("expected a Deny decision")
	}
	if d.Context != nil {
		t.Errorf("deny decision must not carry context, got %v", d.Context)
	}
	if _, err := d.TenantContext(); err == nil {
		t.Error("expected TenantContext to fail on a deny decision")
	}
}

func TestTenantNamespace(t *testing.T) {
	explicit := &Tenant{ID: "acme", MemoryNamespace: "/custom/acme"}
	if got := explicit.Namespace(); got != "/custom/acme" {
		t.Errorf("expected explicit namespace, got %q", got)
	}

	derived := &Tenant{ID: "acme"}
	if got := derived.Namespace(); got != "/tenants/acme" {
		t.Errorf("expected derived namespace, got %q", got)
	}
}

func TestAgentClaims_ResolveTenantID(t *testing.T) {
	tests := []struct {
		name   string
		claims AgentClaims
		want   string
	}{
		{
			name: "Dedicated Claim Wins",
			claims: AgentClaims{
				RegisteredClaims: jwt.RegisteredClaims{Subject: "other:user"},
				TenantID:         "acme",
				ScopedTenantID:   "globex",
			},
			want: "acme",
		},
		{
			name: "Namespaced Claim Second",
			claims: AgentClaims{
				RegisteredClaims: jwt.RegisteredClaims{Subject: "other:user"},
				ScopedTenantID:   "globex",
			},
			want: "globex",
		},
		{
			name: "Subject Prefix Last",
			claims: AgentClaims{
				RegisteredClaims: jwt.RegisteredClaims{Subject: "initech:user-7"},
			},
			want: "initech",
		},
		{
			name: "Subject Without Separator",
			claims: AgentClaims{
				RegisteredClaims: jwt.RegisteredClaims{Subject: "plain-user"},
			},
			want: "",
		},
		{
			name: "Leading Separator",
			claims: AgentClaims{
				RegisteredClaims: jwt.RegisteredClaims{Subject: ":user"},
			},
			want: "",
		},
		{
			name:   "Empty Claims",
			claims: AgentClaims{},
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.claims.ResolveTenantID(); got != tt.want {
				t.Errorf("ResolveTenantID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecisionEventTimestamps(t *testing.T) {
	event := DecisionEvent{
		Principal:  "user@acme.example",
		Effect:     EffectDeny,
		Reason:     ReasonInvalidToken,
		OccurredAt: time.Now().UTC(),
	}
	if event.OccurredAt.Location() != time.UTC {
		t.Error("audit timestamps must be UTC")
	}
}
