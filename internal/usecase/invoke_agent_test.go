package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/agentgate/agentgate/internal/domain"
	"github.com/agentgate/agentgate/internal/domain/mocks"
	"github.com/agentgate/agentgate/internal/pkg/ratelimit"
)

func testTenantContext() *domain.TenantContext {
	return &domain.TenantContext{
		TenantID:           "acme",
		TenantName:         "Acme Corp",
		Tier:               "professional",
		ExecutionRoleARN:   "arn:aws:iam::123456789012:role/acme-agent",
		MemoryNamespace:    "/tenants/acme",
		RateLimitRPS:       100,
		ConcurrentSessions: 5,
	}
}

func TestInvokeAgent(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("Successful Invocation", func(t *testing.T) {
		invoker := &mocks.MockRuntimeInvoker{
			InvokeFunc: func(ctx context.Context, tenant *domain.TenantContext, req domain.InvocationRequest) (*domain.InvocationResult, error) {
				return &domain.InvocationResult{
					Response:  "hello",
					SessionID: req.SessionID,
					Metrics:   domain.InvocationMetrics{InputTokens: 12, OutputTokens: 40},
				}, nil
			},
		}
		sessions := &mocks.MockSessionRegistry{AcquireOK: true}
		uc := NewInvokeAgentUseCase(invoker, sessions, ratelimit.NewRegistry(), logger, nil)

		result, err := uc.Invoke(context.Background(), testTenantContext(), domain.InvocationRequest{Message: "hi", SessionID: "sess-1"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.Response != "hello" {
			t.Errorf("unexpected response %q", result.Response)
		}
		if result.SessionID != "sess-1" {
			t.Errorf("unexpected session id %q", result.SessionID)
		}
		if len(sessions.Released) != 0 {
			t.Error("caller-supplied session must keep its slot")
		}
	})

	t.Run("Empty Message", func(t *testing.T) {
		uc := NewInvokeAgentUseCase(&mocks.MockRuntimeInvoker{}, &mocks.MockSessionRegistry{AcquireOK: true}, ratelimit.NewRegistry(), logger, nil)
		_, err := uc.Invoke(context.Background(), testTenantContext(), domain.InvocationRequest{Message: "   "})
		if !errors.Is(err, ErrEmptyMessage) {
			t.Fatalf("expected ErrEmptyMessage, got %v", err)
		}
	})

	t.Run("Ephemeral Session Gets Generated And Released", func(t *testing.T) {
		invoker := &mocks.MockRuntimeInvoker{}
		sessions := &mocks.MockSessionRegistry{AcquireOK: true}
		uc := NewInvokeAgentUseCase(invoker, sessions, ratelimit.NewRegistry(), logger, nil)

		result, err := uc.Invoke(context.Background(), testTenantContext(), domain.InvocationRequest{Message: "hi"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.SessionID == "" {
			t.Error("expected generated session id in result")
		}
		if len(sessions.Released) != 1 {
			t.Fatalf("expected ephemeral session release, got %d", len(sessions.Released))
		}
		if sessions.Released[0] != result.SessionID {
			t.Error("released session does not match generated one")
		}
	})

	t.Run("Rate Limited", func(t *testing.T) {
		uc := NewInvokeAgentUseCase(&mocks.MockRuntimeInvoker{}, &mocks.MockSessionRegistry{AcquireOK: true}, ratelimit.NewRegistry(), logger, nil)
		tenant := testTenantContext()
		tenant.RateLimitRPS = 1

		if _, err := uc.Invoke(context.Background(), tenant, domain.InvocationRequest{Message: "first"}); err != nil {
			t.Fatalf("first invocation should pass, got %v", err)
		}
		_, err := uc.Invoke(context.Background(), tenant, domain.InvocationRequest{Message: "second"})
		if !errors.Is(err, ErrRateLimited) {
			t.Fatalf("expected ErrRateLimited, got %v", err)
		}
	})

	t.Run("Session Ceiling", func(t *testing.T) {
		uc := NewInvokeAgentUseCase(&mocks.MockRuntimeInvoker{}, &mocks.MockSessionRegistry{AcquireOK: false}, ratelimit.NewRegistry(), logger, nil)
		_, err := uc.Invoke(context.Background(), testTenantContext(), domain.InvocationRequest{Message: "hi"})
		if !errors.Is(err, ErrSessionCeiling) {
			t.Fatalf("expected ErrSessionCeiling, got %v", err)
		}
	})

	t.Run("Session Registry Error Fails Closed", func(t *testing.T) {
		sessions := &mocks.MockSessionRegistry{AcquireErr: fmt.Errorf("redis down")}
		uc := NewInvokeAgentUseCase(&mocks.MockRuntimeInvoker{}, sessions, ratelimit.NewRegistry(), logger, nil)
		_, err := uc.Invoke(context.Background(), testTenantContext(), domain.InvocationRequest{Message: "hi"})
		if err == nil {
			t.Fatal("expected an error when session admission is unavailable")
		}
	})

	t.Run("Runtime Error", func(t *testing.T) {
		invoker := &mocks.MockRuntimeInvoker{
			InvokeFunc: func(ctx context.Context, tenant *domain.TenantContext, req domain.InvocationRequest) (*domain.InvocationResult, error) {
				return nil, fmt.Errorf("runtime returned status 500")
			},
		}
		sessions := &mocks.MockSessionRegistry{AcquireOK: true}
		uc := NewInvokeAgentUseCase(invoker, sessions, ratelimit.NewRegistry(), logger, nil)

		_, err := uc.Invoke(context.Background(), testTenantContext(), domain.InvocationRequest{Message: "hi"})
		if err == nil {
			t.Fatal("expected an error from the runtime")
		}
		if len(sessions.Released) != 1 {
			t.Error("ephemeral session must be released even on runtime failure")
		}
	})
}
