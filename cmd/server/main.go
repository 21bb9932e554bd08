package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/Aldiwildan77/repo-pulse-sub000/common/id"
	"github.com/Aldiwildan77/repo-pulse-sub000/common/logger"
	"github.com/Aldiwildan77/repo-pulse-sub000/common/otel"
	"github.com/Aldiwildan77/repo-pulse-sub000/core/config"
	"github.com/Aldiwildan77/repo-pulse-sub000/core/db"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/admission"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/http/middleware"
	httprouter "github.com/Aldiwildan77/repo-pulse-sub000/internal/http/router"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/metrics"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/push"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/queue"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/retention"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/routing"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/service"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/store"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/worker"
)

const drainTimeout = 30 * time.Second

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// Logger reads the OTel log provider, so telemetry goes first.
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "repopulse starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)
	if err := id.Init(cfg.NodeID); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	if err := db.Migrate(ctx, database); err != nil {
		slog.ErrorContext(ctx, "failed to run migrations", "error", err)
		os.Exit(1)
	}

	redisOpts, err := redis.ParseURL(cfg.Admission.RedisURL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
		os.Exit(1)
	}
	slog.InfoContext(ctx, "redis connected", "prefix", cfg.Admission.KeyPrefix)

	pushers, err := setupPushers(cfg.Platforms)
	if err != nil {
		slog.ErrorContext(ctx, "failed to initialize chat platforms", "error", err)
		os.Exit(1)
	}
	slog.InfoContext(ctx, "chat platforms registered", "platforms", pushers.Platforms())

	m := metrics.New()
	tasks, err := setupQueue(ctx, cfg.Pipeline, redisClient)
	if err != nil {
		slog.ErrorContext(ctx, "failed to initialize task queue", "error", err)
		os.Exit(1)
	}
	m.RegisterQueueDepth(tasks.Depth)
	slog.InfoContext(ctx, "task queue ready", "backend", cfg.Pipeline.QueueBackend, "size", cfg.Pipeline.QueueSize)

	stores := store.NewStores(database.Queries())
	recorder := service.NewProcessingLog(stores.ProcessingLogs(), m)
	router := routing.New(stores.Targets(), stores.Toggles(), recorder)

	pipeline := service.NewPipeline(
		service.NewDispatcher(stores, router, pushers, recorder),
		service.NewReconciler(stores, router, pushers, recorder),
		service.NewInstallationService(service.NewTxRunner(database)),
		m,
	)

	pool := worker.New(tasks, pipeline, worker.Config{Concurrency: cfg.Pipeline.Workers})
	go pool.Run(ctx)

	sweeper := retention.NewSweeper(stores.ProcessingLogs(), cfg.Retention.MaxAge, cfg.Retention.Schedule)
	if err := sweeper.Start(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to start retention sweeper", "error", err)
		os.Exit(1)
	}

	ingest := service.NewIngestService(
		service.NewProviderTable(cfg.Webhooks),
		admission.NewRedisRateLimiter(redisClient, cfg.Admission.KeyPrefix, cfg.Admission.RateLimit, cfg.Admission.RateWindow),
		admission.NewRedisDeduplicator(redisClient, cfg.Admission.KeyPrefix, cfg.Admission.DedupTTL),
		tasks,
		m,
	)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	pingRedis := func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	}

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: setupRouter(cfg, httprouter.Dependencies{
			Ingest:  ingest,
			Pushers: pushers,
			Metrics: m,
			Checks:  map[string]httprouter.HealthCheck{
				"postgres": database.Ping,
				"redis":    pingRedis,
			},
		}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// Stop admitting first, then let workers drain what was already acknowledged.
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	_ = tasks.Close()
	select {
	case <-pool.Done():
		slog.InfoContext(ctx, "worker pool drained")
	case <-time.After(drainTimeout):
		slog.WarnContext(ctx, "worker pool drain timed out", "pending", tasks.Depth())
	}

	sweeper.Stop()

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func setupQueue(ctx context.Context, cfg config.PipelineConfig, client *redis.Client) (queue.Queue, error) {
	if cfg.QueueBackend != config.QueueBackendRedis {
		return queue.NewMemoryQueue(cfg.QueueSize), nil
	}

	q, err := queue.NewRedisQueue(ctx, client, queue.StreamConfig{
		Stream:   cfg.StreamName,
		Group:    cfg.ConsumerGroup,
		Consumer: cfg.ConsumerName,
		MaxLen:   int64(cfg.QueueSize),
	})
	if err != nil {
		return nil, err
	}
	q.Start(ctx)
	return q, nil
}

func setupPushers(cfg config.PlatformConfig) (*push.Registry, error) {
	var pushers []push.Pusher
	if cfg.DiscordEnabled() {
		discord, err := push.NewDiscord(cfg.DiscordBotToken, cfg.HTTPTimeout)
		if err != nil {
			return nil, fmt.Errorf("creating discord client: %w", err)
		}
		pushers = append(pushers, discord)
	}
	if cfg.SlackEnabled() {
		pushers = append(pushers, push.NewSlack(cfg.SlackBotToken, cfg.HTTPTimeout))
	}
	return push.NewRegistry(pushers...), nil
}

func setupRouter(cfg config.Config, deps httprouter.Dependencies) *gin.Engine {
	router := gin.New()

	// OTel span first so recovery and request logs carry the trace.
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	httprouter.SetupRoutes(router, deps, httprouter.RouterConfig{
		AdminAPIKey:     cfg.AdminAPIKey,
		TraceHeaderName: cfg.Pipeline.TraceHeaderName,
	})

	return router
}

const banner = `
 ____  _____ ____   ___    ____  _   _ _     ____  _____
|  _ \| ____|  _ \ / _ \  |  _ \| | | | |   / ___|| ____|
| |_) |  _| | |_) | | | | | |_) | | | | |   \___ \|  _|
|  _ <| |___|  __/| |_| | |  __/| |_| | |___ ___) | |___
|_| \_\_____|_|    \___/  |_|    \___/|_____|____/|_____|
`
