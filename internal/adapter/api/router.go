package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/agentgate/agentgate/internal/adapter/api/handler"
	"github.com/agentgate/agentgate/internal/adapter/api/middleware"
	"github.com/agentgate/agentgate/internal/usecase"
)

// NewRouter creates and configures the main HTTP router for the gateway.
func NewRouter(
	logger *slog.Logger,
	authz *usecase.AuthorizeUseCase,
	invokeUC *usecase.InvokeAgentUseCase,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logging(logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Decision endpoint for the platform gateway integration. Not guarded:
	// it evaluates credentials rather than requiring one.
	r.Method(http.MethodPost, "/v1/authorize", handler.NewAuthorizeHandler(authz, logger))

	// Data plane, strictly behind the decision pipeline.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authorize(authz, logger))
		r.Method(http.MethodPost, "/v1/invocations", handler.NewInvokeHandler(invokeUC, logger))
	})

	return r
}
