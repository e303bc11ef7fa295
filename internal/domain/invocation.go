package domain

import "context"

// InvocationRequest is a single agent invocation from a tenant user.
type InvocationRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId,omitempty"`
	UserID    string `json:"userId,omitempty"`
}

// InvocationMetrics carries the usage figures reported by the runtime.
type InvocationMetrics struct {
	InputTokens  int64 `json:"inputTokens"`
	OutputTokens int64 `json:"outputTokens"`
	LatencyMs    int64 `json:"latencyMs"`
}

// InvocationResult is the runtime's reply to an invocation.
type InvocationResult struct {
	Response  string            `json:"response"`
	SessionID string            `json:"sessionId,omitempty"`
	Metrics   InvocationMetrics `json:"metrics"`
}

// RuntimeInvoker forwards an invocation to the agent runtime on behalf of
// a tenant.
type RuntimeInvoker interface {
	Invoke(ctx context.Context, tenant *TenantContext, req InvocationRequest) (*InvocationResult, error)
}

// SessionRegistry tracks live sessions per tenant and admits new ones
// against the tenant's concurrent-session ceiling.
type SessionRegistry interface {
	// Acquire admits sessionID for the tenant. Re-acquiring a session that
	// is already live always succeeds. Returns false when admitting a new
	// session would exceed the ceiling.
	Acquire(ctx context.Context, tenantID, sessionID string, ceiling int) (bool, error)

	Release(ctx context.Context, tenantID, sessionID string) error
}
