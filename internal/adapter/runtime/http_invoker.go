package runtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/agentgate/agentgate/internal/domain"
)

// HTTPInvoker implements domain.RuntimeInvoker against the agent runtime's
// invocations endpoint.
type HTTPInvoker struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPInvoker creates an invoker for the given endpoint with a bounded
// per-call timeout.
func NewHTTPInvoker(endpoint string, timeout time.Duration, logger *slog.Logger) *HTTPInvoker {
	return &HTTPInvoker{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// invokePayload is the runtime wire format. Tenant identity and memory
// namespace ride along so the runtime can scope model memory per tenant.
type invokePayload struct {
	Message         string `json:"message"`
	SessionID       string `json:"sessionId,omitempty"`
	UserID          string `json:"userId,omitempty"`
	TenantID        string `json:"tenantId"`
	MemoryNamespace string `json:"memoryNamespace"`
}

func (i *HTTPInvoker) Invoke(ctx context.Context, tenant *domain.TenantContext, req domain.InvocationRequest) (*domain.InvocationResult, error) {
	payload := invokePayload{
		Message:         req.Message,
		SessionID:       req.SessionID,
		UserID:          req.UserID,
		TenantID:        tenant.TenantID,
		MemoryNamespace: tenant.MemoryNamespace,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal invocation: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, i.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := i.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("runtime request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("runtime returned status %d", resp.StatusCode)
	}

	var result domain.InvocationResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode runtime response: %w", err)
	}
	return &result, nil
}
