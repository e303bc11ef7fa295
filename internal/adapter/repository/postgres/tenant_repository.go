package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/agentgate/agentgate/internal/domain"
)

// TenantRepository implements domain.TenantRepository on PostgreSQL, for
// self-hosted deployments that do not run against DynamoDB.
type TenantRepository struct {
	db *sql.DB
}

// NewTenantRepository creates a Postgres-backed tenant repository.
func NewTenantRepository(db *sql.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

func (r *TenantRepository) FindByID(ctx context.Context, id string) (*domain.Tenant, error) {
	query := `
        SELECT tenant_id, name, tier, status, execution_role_arn, memory_namespace,
               rate_limit_rps, memory_quota_mb, concurrent_sessions,
               created_at, updated_at
        FROM tenants
        WHERE tenant_id = $1
    `

	var tenant domain.Tenant
	var namespace sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&tenant.ID,
		&tenant.Name,
		&tenant.Tier,
		&tenant.Status,
		&tenant.ExecutionRoleARN,
		&namespace,
		&tenant.Config.RateLimitRPS,
		&tenant.Config.MemoryQuotaMB,
		&tenant.Config.ConcurrentSessions,
		&tenant.CreatedAt,
		&tenant.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTenantNotFound
		}
		return nil, fmt.Errorf("find tenant by ID: %w", err)
	}
	tenant.MemoryNamespace = namespace.String

	return &tenant, nil
}

func (r *TenantRepository) Store(ctx context.Context, t *domain.Tenant) error {
	query := `
        INSERT INTO tenants (tenant_id, name, tier, status, execution_role_arn, memory_namespace,
                             rate_limit_rps, memory_quota_mb, concurrent_sessions,
                             created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9, $10, $11)
        ON CONFLICT (tenant_id) DO UPDATE SET
            name = EXCLUDED.name,
            tier = EXCLUDED.tier,
            status = EXCLUDED.status,
            execution_role_arn = EXCLUDED.execution_role_arn,
            memory_namespace = EXCLUDED.memory_namespace,
            rate_limit_rps = EXCLUDED.rate_limit_rps,
            memory_quota_mb = EXCLUDED.memory_quota_mb,
            concurrent_sessions = EXCLUDED.concurrent_sessions,
            updated_at = EXCLUDED.updated_at
    `

	_, err := r.db.ExecContext(ctx, query,
		t.ID,
		t.Name,
		t.Tier,
		t.Status,
		t.ExecutionRoleARN,
		t.MemoryNamespace,
		t.Config.RateLimitRPS,
		t.Config.MemoryQuotaMB,
		t.Config.ConcurrentSessions,
		t.CreatedAt,
		t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("store tenant: %w", err)
	}

	return nil
}
