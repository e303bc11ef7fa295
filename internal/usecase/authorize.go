package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/agentgate/agentgate/internal/adapter/metrics"
	"github.com/agentgate/agentgate/internal/domain"
)

// AuthRequest describes the inbound request being authorized. Resource is
// opaque and echoed back in the decision unmodified.
type AuthRequest struct {
	AuthorizationHeader string
	Resource            string
}

// AuthorizeConfig is the environment-fixed validation configuration.
type AuthorizeConfig struct {
	// Issuer must match the token's iss claim exactly, byte for byte.
	Issuer string

	// Audience must be contained in the token's aud claim. Each deployment
	// environment is provisioned with a distinct audience, which makes
	// tokens minted for one environment unusable against another.
	Audience string

	// LookupTimeout bounds the tenant registry call.
	LookupTimeout time.Duration
}

// AuthorizeUseCase maps a bearer credential to an allow/deny decision. It
// is fail-closed: every input, including internal faults, resolves to a
// decision value. Nothing is ever propagated to the caller as an error.
type AuthorizeUseCase struct {
	cfg     AuthorizeConfig
	keys    domain.KeyProvider
	tenants domain.TenantRepository
	audit   domain.DecisionPublisher
	logger  *slog.Logger
	metrics *metrics.GatewayMetrics
}

// NewAuthorizeUseCase creates a new AuthorizeUseCase. audit and metrics
// may be nil.
func NewAuthorizeUseCase(
	cfg AuthorizeConfig,
	keys domain.KeyProvider,
	tenants domain.TenantRepository,
	audit domain.DecisionPublisher,
	logger *slog.Logger,
	m *metrics.GatewayMetrics,
) *AuthorizeUseCase {
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = 2 * time.Second
	}
	return &AuthorizeUseCase{
		cfg:     cfg,
		keys:    keys,
		tenants: tenants,
		audit:   audit,
		logger:  logger,
		metrics: m,
	}
}

// Authorize runs the decision pipeline. It always returns a decision: a
// panic or downstream fault resolves to Deny with principal "error".
func (uc *AuthorizeUseCase) Authorize(ctx context.Context, req AuthRequest) (decision domain.Decision) {
	defer func() {
		if r := recover(); r != nil {
			uc.logger.Error("authorization panicked", "panic", r)
			decision = domain.NewDenyDecision(domain.PrincipalError, req.Resource, domain.ReasonInternalError)
		}
		uc.observe(ctx, decision)
	}()

	decision = uc.decide(ctx, req)
	return decision
}

func (uc *AuthorizeUseCase) decide(ctx context.Context, req AuthRequest) domain.Decision {
	// Gate 1: bearer extraction.
	raw, ok := extractBearer(req.AuthorizationHeader)
	if !ok {
		uc.logger.Debug("missing or malformed authorization header")
		return domain.NewDenyDecision(domain.PrincipalAnonymous, req.Resource, domain.ReasonMissingCredential)
	}

	// Gate 2: signature and claim verification. RS256 only; a token that
	// names any other algorithm is rejected before key lookup.
	claims := &domain.AgentClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, uc.keyFunc(ctx),
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(uc.cfg.Issuer),
		jwt.WithAudience(uc.cfg.Audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, domain.ErrKeyUnavailable) {
			uc.logger.Error("signing key retrieval failed", "error", err)
			return domain.NewDenyDecision(domain.PrincipalError, req.Resource, domain.ReasonInternalError)
		}
		// Class only; the credential and the raw crypto error stay out of
		// the logs.
		uc.logger.Warn("token verification failed", "error_class", verifyErrorClass(err))
		return domain.NewDenyDecision(subjectOrAnonymous(claims), req.Resource, domain.ReasonInvalidToken)
	}

	// Gate 3: tenant identifier derivation.
	tenantID := claims.ResolveTenantID()
	if tenantID == "" {
		uc.logger.Warn("no tenant identifier in token", "subject", claims.Subject)
		return domain.NewDenyDecision(subjectOrAnonymous(claims), req.Resource, domain.ReasonNoTenantClaim)
	}

	// Gate 4: tenant lookup and status check.
	lookupCtx, cancel := context.WithTimeout(ctx, uc.cfg.LookupTimeout)
	defer cancel()

	tenant, err := uc.tenants.FindByID(lookupCtx, tenantID)
	if err != nil {
		if errors.Is(err, domain.ErrTenantNotFound) {
			uc.logger.Warn("tenant not registered", "tenant_id", tenantID)
			return domain.NewDenyDecision(subjectOrAnonymous(claims), req.Resource, domain.ReasonTenantNotFound)
		}
		uc.logger.Error("tenant lookup failed", "tenant_id", tenantID, "error", err)
		return domain.NewDenyDecision(domain.PrincipalError, req.Resource, domain.ReasonInternalError)
	}
	if tenant.Status != domain.StatusActive {
		// Suspended and provisioning tenants are denied identically; the
		// caller never learns which.
		uc.logger.Warn("tenant not active", "tenant_id", tenantID, "status", tenant.Status)
		return domain.NewDenyDecision(subjectOrAnonymous(claims), req.Resource, domain.ReasonTenantInactive)
	}

	// Gate 5: allow with the full context bundle.
	return domain.NewAllowDecision(claims.Subject, req.Resource, tenant)
}

func (uc *AuthorizeUseCase) keyFunc(ctx context.Context) jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, domain.ErrKeyNotFound
		}
		return uc.keys.Key(ctx, kid)
	}
}

func (uc *AuthorizeUseCase) observe(ctx context.Context, d domain.Decision) {
	if uc.metrics != nil {
		uc.metrics.DecisionsTotal.WithLabelValues(string(d.Effect), string(d.Reason)).Inc()
	}
	if uc.audit == nil {
		return
	}
	event := domain.DecisionEvent{
		Principal:  d.PrincipalID,
		TenantID:   d.Context["tenantId"],
		Effect:     d.Effect,
		Reason:     d.Reason,
		Resource:   d.Resource,
		OccurredAt: time.Now().UTC(),
	}
	if err := uc.audit.Publish(ctx, event); err != nil {
		uc.logger.Warn("audit publish failed", "error", err)
	}
}

// extractBearer pulls the token out of an Authorization header value. The
// scheme comparison is case-insensitive and the value must be exactly two
// space-separated parts.
func extractBearer(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func subjectOrAnonymous(claims *domain.AgentClaims) string {
	if claims.Subject != "" {
		return claims.Subject
	}
	return domain.PrincipalAnonymous
}

// verifyErrorClass maps a jwt verification error to a coarse class for
// logging and metrics.
func verifyErrorClass(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "malformed"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "bad_signature"
	case errors.Is(err, jwt.ErrTokenExpired):
		return "expired"
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return "issuer_mismatch"
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return "audience_mismatch"
	case errors.Is(err, domain.ErrKeyNotFound):
		return "unknown_key"
	default:
		return "invalid"
	}
}
