package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/agentgate/agentgate/internal/domain"
	"github.com/agentgate/agentgate/internal/usecase"
)

// decider is the slice of AuthorizeUseCase the handler needs.
type decider interface {
	Authorize(ctx context.Context, req usecase.AuthRequest) domain.Decision
}

// AuthorizeHandler exposes the raw decision document for the platform
// gateway integration. It always answers 200 with a decision; denial is
// expressed in the body, not the status code.
type AuthorizeHandler struct {
	authz  decider
	logger *slog.Logger
}

// NewAuthorizeHandler creates a new AuthorizeHandler.
func NewAuthorizeHandler(authz decider, logger *slog.Logger) *AuthorizeHandler {
	return &AuthorizeHandler{authz: authz, logger: logger}
}

type authorizeRequest struct {
	Token    string `json:"token,omitempty"`
	Resource string `json:"resource"`
}

// ServeHTTP processes an authorization check request. The credential comes
// from the request body's token field, falling back to the Authorization
// header.
func (h *AuthorizeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req authorizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	header := r.Header.Get("Authorization")
	if req.Token != "" {
		header = "Bearer " + req.Token
	}

	decision := h.authz.Authorize(r.Context(), usecase.AuthRequest{
		AuthorizationHeader: header,
		Resource:            req.Resource,
	})

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(decision); err != nil {
		h.logger.Error("failed to encode decision", "error", err)
	}
}
