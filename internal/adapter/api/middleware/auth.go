package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/agentgate/agentgate/internal/domain"
	"github.com/agentgate/agentgate/internal/usecase"
)

type contextKey int

const decisionKey contextKey = iota

// Authorize is a middleware factory that runs every request through the
// authorization decision pipeline. Denied requests get a bare 401; the
// reason never leaves the process. Allowed requests proceed with the
// decision attached to the request context.
func Authorize(authz *usecase.AuthorizeUseCase, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := authz.Authorize(r.Context(), usecase.AuthRequest{
				AuthorizationHeader: r.Header.Get("Authorization"),
				Resource:            r.Method + " " + r.URL.Path,
			})

			if !decision.Allowed() {
				logger.Debug("request denied", "principal", decision.PrincipalID, "resource", decision.Resource)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := ContextWithDecision(r.Context(), decision)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ContextWithDecision attaches an authorization decision to the context.
func ContextWithDecision(ctx context.Context, d domain.Decision) context.Context {
	return context.WithValue(ctx, decisionKey, d)
}

// DecisionFrom extracts the authorization decision from the context.
func DecisionFrom(ctx context.Context) (domain.Decision, bool) {
	d, ok := ctx.Value(decisionKey).(domain.Decision)
	return d, ok
}
