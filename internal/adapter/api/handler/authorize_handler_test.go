package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/agentgate/agentgate/internal/domain"
	"github.com/agentgate/agentgate/internal/usecase"
)

type fakeDecider struct {
	decision domain.Decision
	requests []usecase.AuthRequest
}

func (f *fakeDecider) Authorize(ctx context.Context, req usecase.AuthRequest) domain.Decision {
	f.requests = append(f.requests, req)
	return f.decision
}

func TestAuthorizeHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("Allow Decision Is Returned Verbatim", func(t *testing.T) {
		tenant := &domain.Tenant{
			ID:     "acme",
			Name:   "Acme Corp",
			Tier:   domain.TierProfessional,
			Status: domain.StatusActive,
			Config: domain.TenantConfig{RateLimitRPS: 25, ConcurrentSessions: 10},
		}
		decider := &fakeDecider{decision: domain.NewAllowDecision("user@acme.example", "POST /v1/invocations", tenant)}
		h := NewAuthorizeHandler(decider, logger)

		body := bytes.NewBufferString(`{"token":"some.jwt.token","resource":"POST /v1/invocations"}`)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/authorize", body))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var decision domain.Decision
		if err := json.NewDecoder(rec.Body).Decode(&decision); err != nil {
			t.Fatalf("failed to decode decision: %v", err)
		}
		if decision.Effect != domain.EffectAllow || decision.PrincipalID != "user@acme.example" {
			t.Errorf("unexpected decision: %+v", decision)
		}
		if decision.Context["tenantId"] != "acme" {
			t.Errorf("expected tenant context in body, got %v", decision.Context)
		}
	})

	t.Run("Deny Is Still 200 With No Context", func(t *testing.T) {
		decider := &fakeDecider{decision: domain.NewDenyDecision(domain.PrincipalAnonymous, "POST /v1/invocations", domain.ReasonMissingCredential)}
		h := NewAuthorizeHandler(decider, logger)

		body := bytes.NewBufferString(`{"resource":"POST /v1/invocations"}`)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/authorize", body))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var decision domain.Decision
		if err := json.NewDecoder(rec.Body).Decode(&decision); err != nil {
			t.Fatalf("failed to decode decision: %v", err)
		}
		if decision.Effect != domain.EffectDeny {
			t.Errorf("expected Deny, got %s", decision.Effect)
		}
		if decision.Context != nil {
			t.Errorf("deny body must not carry context, got %v", decision.Context)
		}
		if strings.Contains(rec.Body.String(), "missing_credential") {
			t.Error("deny reason must not leak into the response body")
		}
	})

	t.Run("Body Token Wins Over Header", func(t *testing.T) {
		decider := &fakeDecider{decision: domain.NewDenyDecision(domain.PrincipalAnonymous, "r", domain.ReasonInvalidToken)}
		h := NewAuthorizeHandler(decider, logger)

		body := bytes.NewBufferString(`{"token":"body-token","resource":"r"}`)
		req := httptest.NewRequest(http.MethodPost, "/v1/authorize", body)
		req.Header.Set("Authorization", "Bearer header-token")
		h.ServeHTTP(httptest.NewRecorder(), req)

		if len(decider.requests) != 1 {
			t.Fatalf("expected 1 authorize call, got %d", len(decider.requests))
		}
		if decider.requests[0].AuthorizationHeader != "Bearer body-token" {
			t.Errorf("expected body token to win, got %q", decider.requests[0].AuthorizationHeader)
		}
	})

	t.Run("Header Is The Fallback", func(t *testing.T) {
		decider := &fakeDecider{decision: domain.NewDenyDecision(domain.PrincipalAnonymous, "r", domain.ReasonInvalidToken)}
		h := NewAuthorizeHandler(decider, logger)

		body := bytes.NewBufferString(`{"resource":"r"}`)
		req := httptest.NewRequest(http.MethodPost, "/v1/authorize", body)
		req.Header.Set("Authorization", "Bearer header-token")
		h.ServeHTTP(httptest.NewRecorder(), req)

		if decider.requests[0].AuthorizationHeader != "Bearer header-token" {
			t.Errorf("expected header fallback, got %q", decider.requests[0].AuthorizationHeader)
		}
	})

	t.Run("Malformed Body", func(t *testing.T) {
		decider := &fakeDecider{}
		h := NewAuthorizeHandler(decider, logger)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/authorize", strings.NewReader("{not json")))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if len(decider.requests) != 0 {
			t.Error("authorize must not run on a malformed body")
		}
	})
}
