package memory

import (
	"context"
	"sync"
	"time"
)

type session struct {
	expiresAt time.Time
}

// SessionRegistry is an in-process domain.SessionRegistry used when no
// Redis is configured. Ceilings are only enforced within a single gateway
// instance; multi-instance deployments need the Redis registry.
type SessionRegistry struct {
	mu      sync.Mutex
	ttl     time.Duration
	tenants map[string]map[string]session
	now     func() time.Time
}

// NewSessionRegistry creates an in-memory session registry.
func NewSessionRegistry(ttl time.Duration) *SessionRegistry {
	return &SessionRegistry{
		ttl:     ttl,
		tenants: make(map[string]map[string]session),
		now:     time.Now,
	}
}

func (r *SessionRegistry) Acquire(ctx context.Context, tenantID, sessionID string, ceiling int) (bool, error) {
	if ceiling <= 0 {
		return true, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	sessions, ok := r.tenants[tenantID]
	if !ok {
		sessions = make(map[string]session)
		r.tenants[tenantID] = sessions
	}
	for id, s := range sessions {
		if now.After(s.expiresAt) {
			delete(sessions, id)
		}
	}

	if _, live := sessions[sessionID]; !live && len(sessions) >= ceiling {
		return false, nil
	}
	sessions[sessionID] = session{expiresAt: now.Add(r.ttl)}
	return true, nil
}

func (r *SessionRegistry) Release(ctx context.Context, tenantID, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sessions, ok := r.tenants[tenantID]; ok {
		delete(sessions, sessionID)
		if len(sessions) == 0 {
			delete(r.tenants, tenantID)
		}
	}
	return nil
}
