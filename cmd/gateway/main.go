package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/agentgate/agentgate/internal/adapter/api"
	"github.com/agentgate/agentgate/internal/adapter/audit"
	"github.com/agentgate/agentgate/internal/adapter/jwks"
	"github.com/agentgate/agentgate/internal/adapter/metrics"
	"github.com/agentgate/agentgate/internal/adapter/repository/dynamo"
	memoryrepo "github.com/agentgate/agentgate/internal/adapter/repository/memory"
	postgresrepo "github.com/agentgate/agentgate/internal/adapter/repository/postgres"
	redisrepo "github.com/agentgate/agentgate/internal/adapter/repository/redis"
	"github.com/agentgate/agentgate/internal/adapter/runtime"
	"github.com/agentgate/agentgate/internal/domain"
	"github.com/agentgate/agentgate/internal/pkg/config"
	"github.com/agentgate/agentgate/internal/pkg/logger"
	"github.com/agentgate/agentgate/internal/pkg/ratelimit"
	"github.com/agentgate/agentgate/internal/usecase"

	_ "github.com/lib/pq" // Keep for postgres driver
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logger.New(cfg.LogLevel)
	slog.SetDefault(logger)

	m := metrics.NewGatewayMetrics()

	// --- Start Admin and Metrics Server ---
	adminMux := http.NewServeMux()
	adminMux.Handle("/metrics", promhttp.Handler())

	adminServer := &http.Server{
		Addr:    cfg.AdminAddr,
		Handler: adminMux,
	}

	go func() {
		logger.Info("starting admin & metrics server", "addr", adminServer.Addr)
		if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("admin & metrics server failed", "error", err)
		}
	}()

	// --- Graceful Shutdown Context ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Tenant Registry ---
	var tenantRepo domain.TenantRepository
	switch cfg.TenantStore {
	case "postgres":
		db, err := sql.Open("postgres", cfg.PostgresURL)
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		tenantRepo = postgresrepo.NewTenantRepository(db)
	default:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			logger.Error("failed to load aws config", "error", err)
			os.Exit(1)
		}
		tenantRepo = dynamo.NewTenantRepository(dynamodb.NewFromConfig(awsCfg), cfg.TenantTable)
	}

	// --- Session Registry ---
	var sessions domain.SessionRegistry
	if cfg.RedisAddr != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisAddr)
		if err != nil {
			logger.Error("failed to parse redis url", "error", err)
			os.Exit(1)
		}
		redisClient := redis.NewClient(redisOpts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("could not connect to redis at startup", "error", err)
		}
		sessions = redisrepo.NewSessionRegistry(redisClient, cfg.SessionTTL, logger)
	} else {
		logger.Warn("no redis configured, session ceilings are per-instance only")
		sessions = memoryrepo.NewSessionRegistry(cfg.SessionTTL)
	}

	// --- Audit Publisher ---
	var publisher domain.DecisionPublisher
	if cfg.KafkaBrokers != "" {
		kafkaPublisher := audit.NewKafkaPublisher(strings.Split(cfg.KafkaBrokers, ","), cfg.AuditTopic, logger)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	}

	// --- Initialize Use Cases ---
	keyProvider := jwks.NewClient(cfg.JWKSURL, cfg.JWKSCacheTTL, logger, m)
	authzUC := usecase.NewAuthorizeUseCase(usecase.AuthorizeConfig{
		Issuer:        cfg.TokenIssuer,
		Audience:      cfg.TokenAudience,
		LookupTimeout: cfg.TenantLookupTimeout,
	}, keyProvider, tenantRepo, publisher, logger, m)

	invoker := runtime.NewHTTPInvoker(cfg.RuntimeEndpoint, cfg.RuntimeTimeout, logger)
	invokeUC := usecase.NewInvokeAgentUseCase(invoker, sessions, ratelimit.NewRegistry(), logger, m)

	// --- Initialize Gateway Server ---
	router := api.NewRouter(logger, authzUC, invokeUC)
	gatewayServer := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.RuntimeTimeout + 10*time.Second,
		IdleTimeout:  15 * time.Second,
	}

	go func() {
		logger.Info("starting gateway server", "addr", gatewayServer.Addr)
		if err := gatewayServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("gateway server failed", "error", err)
			stop() // Trigger shutdown on server error
		}
	}()

	// --- Wait for shutdown signal ---
	<-ctx.Done()
	logger.Info("shutting down servers...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("admin server shutdown failed", "error", err)
	}
	if err := gatewayServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("gateway server shutdown failed", "error", err)
	}

	logger.Info("servers shut down gracefully")
}
