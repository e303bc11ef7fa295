package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "agentgate:sessions:"

// SessionRegistry implements domain.SessionRegistry on a Redis set per
// tenant. The whole set carries a TTL that is refreshed on every
// admission, so abandoned sessions age out instead of pinning slots.
type SessionRegistry struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewSessionRegistry creates a Redis-backed session registry.
func NewSessionRegistry(client *redis.Client, ttl time.Duration, logger *slog.Logger) *SessionRegistry {
	return &SessionRegistry{client: client, ttl: ttl, logger: logger}
}

func (r *SessionRegistry) Acquire(ctx context.Context, tenantID, sessionID string, ceiling int) (bool, error) {
	if ceiling <= 0 {
		return true, nil
	}
	key := sessionKeyPrefix + tenantID

	pipe := r.client.TxPipeline()
	addCmd := pipe.SAdd(ctx, key, sessionID)
	cardCmd := pipe.SCard(ctx, key)
	pipe.Expire(ctx, key, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("session admission for %s: %w", tenantID, err)
	}

	// A session that is already live keeps its slot regardless of the
	// ceiling; only a newly added one can push the set over.
	if addCmd.Val() == 1 && cardCmd.Val() > int64(ceiling) {
		if err := r.client.SRem(ctx, key, sessionID).Err(); err != nil {
			r.logger.Warn("failed to roll back over-ceiling session", "tenant_id", tenantID, "error", err)
		}
		return false, nil
	}
	return true, nil
}

func (r *SessionRegistry) Release(ctx context.Context, tenantID, sessionID string) error {
	key := sessionKeyPrefix + tenantID
	if err := r.client.SRem(ctx, key, sessionID).Err(); err != nil {
		return fmt.Errorf("session release for %s: %w", tenantID, err)
	}
	return nil
}
