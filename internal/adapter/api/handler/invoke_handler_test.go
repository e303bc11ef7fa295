package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/agentgate/agentgate/internal/adapter/api/middleware"
	"github.com/agentgate/agentgate/internal/domain"
	"github.com/agentgate/agentgate/internal/usecase"
)

type fakeAgentInvoker struct {
	result  *domain.InvocationResult
	err     error
	tenants []*domain.TenantContext
}

func (f *fakeAgentInvoker) Invoke(ctx context.Context, tenant *domain.TenantContext, req domain.InvocationRequest) (*domain.InvocationResult, error) {
	f.tenants = append(f.tenants, tenant)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func allowedRequest(t *testing.T, body string) *http.Request {
	t.Helper()
	tenant := &domain.Tenant{
		ID:     "acme",
		Name:   "Acme Corp",
		Tier:   domain.TierProfessional,
		Status: domain.StatusActive,
		Config: domain.TenantConfig{RateLimitRPS: 25, ConcurrentSessions: 10},
	}
	decision := domain.NewAllowDecision("user@acme.example", "POST /v1/invocations", tenant)
	req := httptest.NewRequest(http.MethodPost, "/v1/invocations", bytes.NewBufferString(body))
	return req.WithContext(middleware.ContextWithDecision(req.Context(), decision))
}

func TestInvokeHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("Successful Invocation", func(t *testing.T) {
		invoker := &fakeAgentInvoker{result: &domain.InvocationResult{
			Response:  "hello from the agent",
			SessionID: "sess-1",
		}}
		h := NewInvokeHandler(invoker, logger)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, allowedRequest(t, `{"message":"hi","sessionId":"sess-1"}`))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var result domain.InvocationResult
		if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
			t.Fatalf("failed to decode result: %v", err)
		}
		if result.Response != "hello from the agent" {
			t.Errorf("unexpected response %q", result.Response)
		}
		if len(invoker.tenants) != 1 || invoker.tenants[0].TenantID != "acme" {
			t.Error("use case did not receive the decision's tenant context")
		}
	})

	t.Run("Missing Decision Fails Closed", func(t *testing.T) {
		h := NewInvokeHandler(&fakeAgentInvoker{}, logger)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/invocations", bytes.NewBufferString(`{"message":"hi"}`))
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 without a decision, got %d", rec.Code)
		}
	})

	t.Run("Malformed Body", func(t *testing.T) {
		h := NewInvokeHandler(&fakeAgentInvoker{}, logger)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, allowedRequest(t, "{not json"))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("Error Mapping", func(t *testing.T) {
		tests := []struct {
			name string
			err  error
			want int
		}{
			{"Empty Message", usecase.ErrEmptyMessage, http.StatusBadRequest},
			{"Rate Limited", usecase.ErrRateLimited, http.StatusTooManyRequests},
			{"Session Ceiling", usecase.ErrSessionCeiling, http.StatusTooManyRequests},
			{"Runtime Failure", fmt.Errorf("runtime returned status 500"), http.StatusBadGateway},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				h := NewInvokeHandler(&fakeAgentInvoker{err: tt.err}, logger)

				rec := httptest.NewRecorder()
				h.ServeHTTP(rec, allowedRequest(t, `{"message":"hi"}`))

				if rec.Code != tt.want {
					t.Errorf("expected %d, got %d", tt.want, rec.Code)
				}
			})
		}
	})
}
