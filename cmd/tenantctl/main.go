// tenantctl creates and inspects tenant registry records. Onboarding is an
// operator action; the gateway itself never writes to the registry.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/agentgate/agentgate/internal/adapter/repository/dynamo"
	postgresrepo "github.com/agentgate/agentgate/internal/adapter/repository/postgres"
	"github.com/agentgate/agentgate/internal/domain"

	_ "github.com/lib/pq" // Keep for postgres driver
)

func main() {
	store := flag.String("store", "dynamodb", "Tenant store backend: dynamodb or postgres")
	table := flag.String("table", "tenants", "DynamoDB table name")
	region := flag.String("region", "eu-west-2", "AWS region")
	dsn := flag.String("dsn", os.Getenv("POSTGRES_URL"), "Postgres connection string")

	get := flag.String("get", "", "Tenant ID to fetch")
	create := flag.String("create", "", "Tenant ID to create")
	name := flag.String("name", "", "Display name for the new tenant")
	tier := flag.String("tier", string(domain.TierStarter), "Tier: starter, professional or enterprise")
	status := flag.String("status", string(domain.StatusProvisioning), "Initial status")
	role := flag.String("role", "", "Execution role ARN")
	rps := flag.Int("rps", 10, "Rate limit in requests per second")
	sessionLimit := flag.Int("sessions", 5, "Concurrent session ceiling")
	quota := flag.Int("quota", 512, "Memory quota in MB")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := buildRepository(ctx, *store, *table, *region, *dsn)
	if err != nil {
		log.Fatalf("failed to initialize tenant store: %v", err)
	}

	switch {
	case *get != "":
		tenant, err := repo.FindByID(ctx, *get)
		if err != nil {
			log.Fatalf("lookup failed: %v", err)
		}
		printJSON(tenant)

	case *create != "":
		now := time.Now().UTC()
		tenant := &domain.Tenant{
			ID:               *create,
			Name:             *name,
			Tier:             domain.TenantTier(*tier),
			Status:           domain.TenantStatus(*status),
			ExecutionRoleARN: *role,
			Config: domain.TenantConfig{
				RateLimitRPS:       *rps,
				MemoryQuotaMB:      *quota,
				ConcurrentSessions: *sessionLimit,
			},
			CreatedAt: now,
			UpdatedAt: now,
		}
		if tenant.Name == "" {
			tenant.Name = tenant.ID
		}
		if err := repo.Store(ctx, tenant); err != nil {
			log.Fatalf("store failed: %v", err)
		}
		printJSON(tenant)

	default:
		flag.Usage()
		os.Exit(2)
	}
}

func buildRepository(ctx context.Context, store, table, region, dsn string) (domain.TenantRepository, error) {
	switch store {
	case "postgres":
		if dsn == "" {
			return nil, fmt.Errorf("postgres store requires -dsn or POSTGRES_URL")
		}
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, err
		}
		return postgresrepo.NewTenantRepository(db), nil
	case "dynamodb":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
		if err != nil {
			return nil, err
		}
		return dynamo.NewTenantRepository(dynamodb.NewFromConfig(awsCfg), table), nil
	default:
		return nil, fmt.Errorf("unsupported store %q", store)
	}
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("encode failed: %v", err)
	}
	fmt.Println(string(out))
}
