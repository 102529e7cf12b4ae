package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flarenet/platform/internal/analytics"
	"github.com/flarenet/platform/internal/codehosting"
	"github.com/flarenet/platform/internal/config"
	"github.com/flarenet/platform/internal/db"
	"github.com/flarenet/platform/internal/events"
	"github.com/flarenet/platform/internal/llm"
	"github.com/flarenet/platform/internal/logger"
	"github.com/flarenet/platform/internal/middleware"
	"github.com/flarenet/platform/internal/models"
	"github.com/flarenet/platform/internal/modules/auth"
	"github.com/flarenet/platform/internal/modules/chat"
	"github.com/flarenet/platform/internal/modules/deployments"
	"github.com/flarenet/platform/internal/modules/projects"
	"github.com/flarenet/platform/internal/modules/repos"
	"github.com/flarenet/platform/internal/ratelimit"
	"github.com/flarenet/platform/internal/router"
	"github.com/flarenet/platform/internal/server"
	"github.com/flarenet/platform/internal/store"
	"github.com/flarenet/platform/internal/telemetry"
	"github.com/flarenet/platform/internal/worker"
)

func main() {
	config.Load()

	shutdownTelemetry := setupTelemetry()
	defer shutdownTelemetry()

	connectCoreDatabases()
	defer db.DisconnectMongo()
	defer db.DisconnectRedis()

	postgresPool := connectPostgres()
	defer postgresPool.Close()

	ensureIndexes()

	projectStore := store.New(postgresPool)
	if err := projectStore.EnsureSchema(context.Background()); err != nil {
		logger.Fatal("failed to ensure postgres schema", zap.Error(err))
	}

	eventPublisher := connectEvents()
	if eventPublisher != nil {
		defer eventPublisher.Close()
	}

	logReader := connectAnalytics()

	startWorkers(projectStore, eventPublisher)

	handler := setupApp(projectStore, logReader, eventPublisher)

	srv := server.New(handler, config.Env.Port)
	srv.ListenAndServeWithGracefulShutdown()
}

func setupTelemetry() func() {
	shutdownTracing, err := telemetry.InitTracer(config.Env.OTELExporterEndpoint)
	if err != nil {
		logger.Fatal("failed to initialize tracer", zap.Error(err))
	}

	if err := logger.Init(config.Env.Environment, nil); err != nil {
		panic("failed to initialize logger: " + err.Error())
	}

	return func() {
		ctx := context.Background()
		_ = shutdownTracing(ctx)
		logger.Sync()
	}
}

func connectCoreDatabases() {
	if err := db.ConnectMongo(config.Env.MongoDBURI); err != nil {
		logger.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	if err := db.ConnectRedis(config.Env.RedisURI); err != nil {
		logger.Fatal("failed to connect to Redis", zap.Error(err))
	}
}

func connectPostgres() *pgxpool.Pool {
	if err := db.ConnectPostgres(config.Env.PostgresDSN); err != nil {
		logger.Fatal("failed to connect to Postgres", zap.Error(err))
	}
	return db.Postgres
}

func connectAnalytics() analytics.LogReader {
	if err := db.ConnectClickHouse(config.Env.ClickHouseDSN); err != nil {
		logger.Warn("failed to connect to ClickHouse, deployment logs unavailable", zap.Error(err))
		return analytics.NewFakeLogReader()
	}
	return analytics.NewClickHouseLogReader(db.ClickHouse)
}

func connectEvents() *events.Publisher {
	publisher, err := events.Connect(config.Env.NATSURL)
	if err != nil {
		logger.Warn("failed to connect to NATS, deployment events will not publish", zap.Error(err))
		return nil
	}
	return publisher
}

func ensureIndexes() {
	ctx := context.Background()
	userRepo := models.NewUserRepository()
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		logger.Fatal("failed to ensure user indexes", zap.Error(err))
	}
	if err := models.EnsureIdempotencyIndexes(ctx); err != nil {
		logger.Fatal("failed to ensure idempotency indexes", zap.Error(err))
	}
}

func startWorkers(projectStore *store.Store, publisher *events.Publisher) {
	sweeper := worker.NewSweeper(projectStore, 30*time.Minute, 5*time.Minute)
	sweeper.Start()

	buildWorker := worker.NewBuildWorker(projectStore, publisher, 10*time.Second, func(ctx context.Context, d store.Deployment) error {
		// The build step itself (fetching the repo, running the build
		// command, pushing the artifact) lives outside this module's
		// scope; the worker's job here is lifecycle bookkeeping.
		return nil
	})
	buildWorker.Start()

	webhookClient := &http.Client{Timeout: 10 * time.Second}
	webhookWorker := worker.NewWebhookWorker(projectStore, 10*time.Second, func(ctx context.Context, job store.WebhookJob) error {
		payload, err := json.Marshal(job)
		if err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, job.URL, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := webhookClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 300 {
			return fmt.Errorf("webhook endpoint returned status %d", resp.StatusCode)
		}
		return nil
	}, 5, 2*time.Second)
	webhookWorker.Start()
}

func setupApp(projectStore *store.Store, logReader analytics.LogReader, publisher *events.Publisher) http.Handler {
	userRepo := models.NewUserRepository()
	authHandler := auth.NewHandler(userRepo, config.Env.JWTSecret)

	projectsHandler := projects.NewHandler(projectStore)
	deploymentsHandler := deployments.NewHandler(projectStore, logReader, publisher)

	controller, err := llm.New(config.Env.LLMProvider, config.Env.AnthropicAPIKey, config.Env.OpenAIAPIKey, "")
	if err != nil {
		logger.Warn("no LLM provider configured, chat completions will fail", zap.Error(err))
	}
	chatHandler := chat.NewHandler(controller)

	validator := codehosting.NewValidator(config.Env.GitHubToken)
	reposHandler := repos.NewHandler(validator)

	storeClient, err := ratelimit.NewRedisStoreClient(db.RedisClient, config.Env.StoreConnectTimeout, config.Env.StoreOpTimeout, config.Env.StoreMaxReconnectTries)
	if err != nil {
		logger.Fatal("failed to construct rate limit store client", zap.Error(err))
	}
	bucketStore := ratelimit.NewBucketStore(storeClient, config.Env.RateLimitKeyPrefix, config.Env.RateLimitKeyTTL)
	resolver := ratelimit.NewResolver(config.Env.DefaultBucketCapacity, config.Env.DefaultRefillRate)
	degradationPolicy := ratelimit.DegradationPolicy{FailOpen: config.Env.RateLimitFailOpen}
	admission := middleware.NewAdmissionMiddleware(bucketStore, storeClient, resolver, degradationPolicy)
	mwManager := middleware.NewManager(admission, config.Env.RateLimitEnabled)

	return router.Setup(config.Env.JWTSecret, authHandler, projectsHandler, deploymentsHandler, chatHandler, reposHandler, mwManager)
}
