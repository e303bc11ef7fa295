package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// GatewayMetrics holds all Prometheus metrics for the gateway.
type GatewayMetrics struct {
	DecisionsTotal      *prometheus.CounterVec
	JWKSCacheHits       prometheus.Counter
	JWKSCacheMisses     prometheus.Counter
	InvocationDuration  prometheus.Histogram
	RateLimitRejections prometheus.Counter
	SessionRejections   prometheus.Counter
}

// NewGatewayMetrics initializes and registers the Prometheus metrics.
func NewGatewayMetrics() *GatewayMetrics {
	return &GatewayMetrics{
		DecisionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentgate",
			Subsystem: "authz",
			Name:      "decisions_total",
			Help:      "Total number of authorization decisions by effect and reason.",
		}, []string{"effect", "reason"}),
		JWKSCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "agentgate",
			Subsystem: "authz",
			Name:      "jwks_cache_hits_total",
			Help:      "Total number of signing key cache hits.",
		}),
		JWKSCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "agentgate",
			Subsystem: "authz",
			Name:      "jwks_cache_misses_total",
			Help:      "Total number of signing key cache misses.",
		}),
		InvocationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "agentgate",
			Subsystem: "runtime",
			Name:      "invocation_duration_seconds",
			Help:      "Duration of agent runtime invocations.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		RateLimitRejections: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "agentgate",
			Subsystem: "runtime",
			Name:      "rate_limit_rejections_total",
			Help:      "Total number of invocations rejected by the per-tenant rate limit.",
		}),
		SessionRejections: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "agentgate",
			Subsystem: "runtime",
			Name:      "session_rejections_total",
			Help:      "Total number of invocations rejected by the concurrent-session ceiling.",
		}),
	}
}
