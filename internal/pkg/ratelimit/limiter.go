package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	sweepInterval = 5 * time.Minute
	idleEviction  = 15 * time.Minute
)

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Registry keeps one token bucket per tenant. Limits come from the tenant's
// context bundle on each call, so a tier change takes effect on the next
// request without a restart.
type Registry struct {
	mu        sync.Mutex
	tenants   map[string]*entry
	lastSweep time.Time
	now       func() time.Time
}

// NewRegistry creates an empty limiter registry.
func NewRegistry() *Registry {
	return &Registry{
		tenants: make(map[string]*entry),
		now:     time.Now,
	}
}

// Allow reports whether the tenant may proceed under its rate limit.
// A non-positive rps disables limiting for the tenant.
func (r *Registry) Allow(tenantID string, rps int) bool {
	if rps <= 0 {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	e, ok := r.tenants[tenantID]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(rate.Limit(rps), rps)}
		r.tenants[tenantID] = e
	} else if e.limiter.Limit() != rate.Limit(rps) {
		// Tier change: resize in place, keeping the accumulated debt.
		e.limiter.SetLimitAt(now, rate.Limit(rps))
		e.limiter.SetBurstAt(now, rps)
	}
	e.lastSeen = now

	r.sweep(now)

	return e.limiter.AllowN(now, 1)
}

// sweep drops buckets for tenants that have gone quiet. Caller holds r.mu.
func (r *Registry) sweep(now time.Time) {
	if now.Sub(r.lastSweep) < sweepInterval {
		return
	}
	r.lastSweep = now
	for id, e := range r.tenants {
		if now.Sub(e.lastSeen) > idleEviction {
			delete(r.tenants, id)
		}
	}
}
