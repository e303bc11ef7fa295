package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/agentgate/agentgate/internal/domain"
)

// tenantItem is the DynamoDB representation of a tenant record. The table
// is keyed by tenant_id alone; lookups are point reads, never scans.
type tenantItem struct {
	TenantID         string           `dynamodbav:"tenant_id"`
	Name             string           `dynamodbav:"name"`
	Tier             string           `dynamodbav:"tier"`
	Status           string           `dynamodbav:"status"`
	ExecutionRoleARN string           `dynamodbav:"execution_role_arn"`
	MemoryNamespace  string           `dynamodbav:"memory_namespace,omitempty"`
	Config           tenantItemConfig `dynamodbav:"config"`
	CreatedAt        time.Time        `dynamodbav:"created_at"`
	UpdatedAt        time.Time        `dynamodbav:"updated_at"`
}

type tenantItemConfig struct {
	RateLimitRPS       int `dynamodbav:"rate_limit_rps"`
	MemoryQuotaMB      int `dynamodbav:"memory_quota_mb"`
	ConcurrentSessions int `dynamodbav:"concurrent_sessions"`
}

// TenantRepository implements domain.TenantRepository on a DynamoDB table.
type TenantRepository struct {
	client *dynamodb.Client
	table  string
}

// NewTenantRepository creates a DynamoDB-backed tenant repository.
func NewTenantRepository(client *dynamodb.Client, table string) *TenantRepository {
	return &TenantRepository{client: client, table: table}
}

func (r *TenantRepository) FindByID(ctx context.Context, id string) (*domain.Tenant, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			"tenant_id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get tenant %s: %w", id, err)
	}
	if out.Item == nil {
		return nil, domain.ErrTenantNotFound
	}

	var item tenantItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal tenant %s: %w", id, err)
	}
	return item.toDomain(), nil
}

func (r *TenantRepository) Store(ctx context.Context, t *domain.Tenant) error {
	item, err := attributevalue.MarshalMap(fromDomain(t))
	if err != nil {
		return fmt.Errorf("marshal tenant %s: %w", t.ID, err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put tenant %s: %w", t.ID, err)
	}
	return nil
}

func (i tenantItem) toDomain() *domain.Tenant {
	return &domain.Tenant{
		ID:               i.TenantID,
		Name:             i.Name,
		Tier:             domain.TenantTier(i.Tier),
		Status:           domain.TenantStatus(i.Status),
		ExecutionRoleARN: i.ExecutionRoleARN,
		MemoryNamespace:  i.MemoryNamespace,
		Config: domain.TenantConfig{
			RateLimitRPS:       i.Config.RateLimitRPS,
			MemoryQuotaMB:      i.Config.MemoryQuotaMB,
			ConcurrentSessions: i.Config.ConcurrentSessions,
		},
		CreatedAt: i.CreatedAt,
		UpdatedAt: i.UpdatedAt,
	}
}

func fromDomain(t *domain.Tenant) tenantItem {
	return tenantItem{
		TenantID:         t.ID,
		Name:             t.Name,
		Tier:             string(t.Tier),
		Status:           string(t.Status),
		ExecutionRoleARN: t.ExecutionRoleARN,
		MemoryNamespace:  t.MemoryNamespace,
		Config: tenantItemConfig{
			RateLimitRPS:       t.Config.RateLimitRPS,
			MemoryQuotaMB:      t.Config.MemoryQuotaMB,
			ConcurrentSessions: t.Config.ConcurrentSessions,
		},
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}
