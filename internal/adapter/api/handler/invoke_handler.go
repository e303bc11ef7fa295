package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/agentgate/agentgate/internal/adapter/api/middleware"
	"github.com/agentgate/agentgate/internal/domain"
	"github.com/agentgate/agentgate/internal/usecase"
)

// agentInvoker is the slice of InvokeAgentUseCase the handler needs.
type agentInvoker interface {
	Invoke(ctx context.Context, tenant *domain.TenantContext, req domain.InvocationRequest) (*domain.InvocationResult, error)
}

// InvokeHandler handles agent invocation requests. It runs strictly behind
// the authorization middleware and consumes the decision's tenant context.
type InvokeHandler struct {
	useCase agentInvoker
	logger  *slog.Logger
}

// NewInvokeHandler creates a new InvokeHandler.
func NewInvokeHandler(uc agentInvoker, logger *slog.Logger) *InvokeHandler {
	return &InvokeHandler{useCase: uc, logger: logger}
}

// ServeHTTP processes an invocation request.
func (h *InvokeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	decision, ok := middleware.DecisionFrom(r.Context())
	if !ok {
		// Reaching here without a decision is a wiring bug; fail closed.
		h.logger.Error("invocation request without authorization decision")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	tenant, err := decision.TenantContext()
	if err != nil {
		h.logger.Error("malformed tenant context on allow decision", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var req domain.InvocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	result, err := h.useCase.Invoke(r.Context(), tenant, req)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrEmptyMessage):
			http.Error(w, "Bad request: message is required", http.StatusBadRequest)
		case errors.Is(err, usecase.ErrRateLimited):
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
		case errors.Is(err, usecase.ErrSessionCeiling):
			http.Error(w, "Too many concurrent sessions", http.StatusTooManyRequests)
		default:
			h.logger.Error("invocation failed", "tenant_id", tenant.TenantID, "error", err)
			http.Error(w, "Bad gateway", http.StatusBadGateway)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		h.logger.Error("failed to encode invocation result", "error", err)
	}
}
