package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/labdraft/backend/internal/adapters/cache"
	"github.com/labdraft/backend/internal/adapters/database"
	"github.com/labdraft/backend/internal/adapters/events"
	"github.com/labdraft/backend/internal/api/handlers"
	"github.com/labdraft/backend/internal/api/routes"
	"github.com/labdraft/backend/internal/application/services"
	"github.com/labdraft/backend/internal/domain/providers"
	"github.com/labdraft/backend/internal/domain/repositories"
	"github.com/labdraft/backend/internal/generation"
	"github.com/labdraft/backend/internal/infrastructure/clients/genai"
	"github.com/labdraft/backend/internal/infrastructure/clients/postgres"
	"github.com/labdraft/backend/internal/infrastructure/clients/redis"
	"github.com/labdraft/backend/internal/infrastructure/observability"
	"github.com/labdraft/backend/pkg/config"
	"github.com/labdraft/backend/pkg/secrets"
)

func main() {
	// Local development convenience; a missing .env file is not an error
	_ = godotenv.Load()

	// Vault can supply GENAI_API_KEY and DB credentials; env vars win unless
	// VAULT_OVERWRITE is set
	vaultResult, err := secrets.ApplyVaultSecrets(context.Background(), secrets.LoadVaultConfigFromEnv(""))
	if err != nil {
		log.Warn().Err(err).Msg("failed to apply vault secrets")
	} else if vaultResult.Enabled {
		log.Info().Int("loaded", vaultResult.Loaded).Int("skipped", vaultResult.Skipped).Msg("vault secrets applied")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Env)

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Warn().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()
	log.Info().Msg("PostgreSQL client initialized")

	// Redis is optional; the service degrades to uncached, eventless operation
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("failed to initialize Redis client, continuing without it")
		redisClient = nil
	} else {
		defer redisClient.Close()
		log.Info().Msg("Redis client initialized")
	}

	var cacheProvider providers.CacheProvider
	var eventBus providers.EventBus
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
		eventBus = events.NewRedisEventBus(redisClient)
		log.Info().Msg("event bus initialized")
	}

	// Repository chain: base adapter, per-operation retry budgets, then the
	// read cache on the outside so retried writes invalidate it.
	var draftRepo repositories.DraftRepository = database.NewDraftAdapter(pgClient)
	draftRepo = database.NewRetryingDraftAdapter(draftRepo)
	if cacheProvider != nil {
		draftRepo = database.NewCachedDraftAdapter(draftRepo, cacheProvider, metrics)
		log.Info().Msg("draft repository wrapped with caching layer")
	}

	// Cross-instance cache invalidation driven by draft lifecycle events
	var cacheInvalidation *services.CacheInvalidationService
	if cacheProvider != nil && eventBus != nil {
		cacheInvalidation = services.NewCacheInvalidationService(cacheProvider, eventBus)
		if err := cacheInvalidation.Start(); err != nil {
			log.Warn().Err(err).Msg("failed to start cache invalidation service")
			cacheInvalidation = nil
		}
	}

	generator, err := genai.NewClient(&cfg.GenAI)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize generation client")
	}

	generationService := services.NewGenerationService(
		draftRepo,
		generator,
		generation.NewRecoverer(generation.DefaultRecovererConfig()),
		generation.NewNormalizer(generation.DefaultNormalizerConfig()),
		eventBus,
		"",
	)

	draftHandler := handlers.NewDraftHandler(generationService)

	var streamHandler *handlers.DraftStreamHandler
	if eventBus != nil {
		streamHandler = handlers.NewDraftStreamHandler(eventBus)
	}

	router := routes.NewRouter(draftHandler, streamHandler, metrics)
	handler := router.SetupRoutes()

	// Write timeout must cover the full generation retry budget; SSE streams
	// are also held open past any fixed response deadline.
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("error during server shutdown")
	}

	if cacheInvalidation != nil {
		cacheInvalidation.Stop()
	}

	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing event bus")
		}
	}

	log.Info().Msg("server stopped")
}
