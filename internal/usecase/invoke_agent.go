package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agentgate/agentgate/internal/adapter/metrics"
	"github.com/agentgate/agentgate/internal/domain"
	"github.com/agentgate/agentgate/internal/pkg/ratelimit"
)

var (
	// ErrEmptyMessage means the invocation carried no message.
	ErrEmptyMessage = errors.New("message is required")

	// ErrRateLimited means the tenant's token bucket is exhausted.
	ErrRateLimited = errors.New("tenant rate limit exceeded")

	// ErrSessionCeiling means the tenant is at its concurrent-session ceiling.
	ErrSessionCeiling = errors.New("concurrent session ceiling reached")
)

// InvokeAgentUseCase runs an authorized invocation through the tenant's
// quota gates and forwards it to the agent runtime.
type InvokeAgentUseCase struct {
	invoker  domain.RuntimeInvoker
	sessions domain.SessionRegistry
	limits   *ratelimit.Registry
	logger   *slog.Logger
	metrics  *metrics.GatewayMetrics
}

// NewInvokeAgentUseCase creates a new InvokeAgentUseCase. metrics may be nil.
func NewInvokeAgentUseCase(
	invoker domain.RuntimeInvoker,
	sessions domain.SessionRegistry,
	limits *ratelimit.Registry,
	logger *slog.Logger,
	m *metrics.GatewayMetrics,
) *InvokeAgentUseCase {
	return &InvokeAgentUseCase{
		invoker:  invoker,
		sessions: sessions,
		limits:   limits,
		logger:   logger,
		metrics:  m,
	}
}

// Invoke admits the request against the tenant's rate limit and session
// ceiling, then calls the runtime. Session admission errors fail closed.
func (uc *InvokeAgentUseCase) Invoke(ctx context.Context, tenant *domain.TenantContext, req domain.InvocationRequest) (*domain.InvocationResult, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, ErrEmptyMessage
	}

	if !uc.limits.Allow(tenant.TenantID, tenant.RateLimitRPS) {
		if uc.metrics != nil {
			uc.metrics.RateLimitRejections.Inc()
		}
		uc.logger.Warn("invocation rate limited", "tenant_id", tenant.TenantID)
		return nil, ErrRateLimited
	}

	// One-shot invocations get an ephemeral session whose slot is freed on
	// completion. A caller-supplied session keeps its slot until the
	// registry TTL expires it.
	sessionID := req.SessionID
	ephemeral := sessionID == ""
	if ephemeral {
		sessionID = uuid.NewString()
		req.SessionID = sessionID
	}

	admitted, err := uc.sessions.Acquire(ctx, tenant.TenantID, sessionID, tenant.ConcurrentSessions)
	if err != nil {
		uc.logger.Error("session admission failed", "tenant_id", tenant.TenantID, "error", err)
		return nil, fmt.Errorf("session admission: %w", err)
	}
	if !admitted {
		if uc.metrics != nil {
			uc.metrics.SessionRejections.Inc()
		}
		uc.logger.Warn("session ceiling reached", "tenant_id", tenant.TenantID, "ceiling", tenant.ConcurrentSessions)
		return nil, ErrSessionCeiling
	}
	if ephemeral {
		defer func() {
			if err := uc.sessions.Release(ctx, tenant.TenantID, sessionID); err != nil {
				uc.logger.Warn("session release failed", "tenant_id", tenant.TenantID, "error", err)
			}
		}()
	}

	start := time.Now()
	result, err := uc.invoker.Invoke(ctx, tenant, req)
	if uc.metrics != nil {
		uc.metrics.InvocationDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		uc.logger.Error("runtime invocation failed", "tenant_id", tenant.TenantID, "error", err)
		return nil, fmt.Errorf("runtime invocation: %w", err)
	}

	if result.SessionID == "" {
		result.SessionID = sessionID
	}
	if result.Metrics.LatencyMs == 0 {
		result.Metrics.LatencyMs = time.Since(start).Milliseconds()
	}
	return result, nil
}
