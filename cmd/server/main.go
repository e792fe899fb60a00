package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/keyword-rotator/api/openapi"
	"github.com/benvon/keyword-rotator/internal/cache"
	"github.com/benvon/keyword-rotator/internal/config"
	"github.com/benvon/keyword-rotator/internal/database"
	"github.com/benvon/keyword-rotator/internal/handlers"
	"github.com/benvon/keyword-rotator/internal/logger"
	"github.com/benvon/keyword-rotator/internal/metrics"
	"github.com/benvon/keyword-rotator/internal/middleware"
	"github.com/benvon/keyword-rotator/internal/queue"
	"github.com/benvon/keyword-rotator/internal/services/admintoken"
	"github.com/benvon/keyword-rotator/internal/services/ai"
	"github.com/benvon/keyword-rotator/internal/services/diversifier"
	"github.com/benvon/keyword-rotator/internal/services/rotation"
	"github.com/benvon/keyword-rotator/internal/services/tiktok"
	"github.com/benvon/keyword-rotator/internal/telemetry"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
)

const serviceName = "keyword-rotator-api"

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Parse command-line flags
	debugFlag := flag.Bool("debug", false, "Enable debug mode for LLM API logging")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Override debug mode if flag is set
	debugMode := cfg.ServerDebugMode || *debugFlag

	// Initialize logger
	zapLogger, err := logger.NewProductionLogger(serviceName, debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	loc, err := cfg.Location()
	if err != nil {
		zapLogger.Fatal("invalid_rotation_timezone", zap.Error(err))
	}

	zapLogger.Info("starting_server",
		zap.String("version", version),
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("frontend_url", cfg.FrontendURL),
		zap.String("rotation_timezone", loc.String()),
		zap.Int("rotation_default_count", cfg.RotationDefaultCount),
		zap.String("ai_provider", cfg.AIProvider),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	// Initialize OpenTelemetry if enabled
	var tracerProvider interface{ Shutdown(context.Context) error }
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(context.Background(), telemetry.Config{
				ServiceName:    serviceName,
				ServiceVersion: version,
				Endpoint:       cfg.OTELEndpoint,
				Secure:         cfg.OTELSecure,
				SampleRatio:    cfg.OTELSampleRatio,
			})
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				tracerProvider = tp
				zapLogger.Info("otel_tracer_initialized",
					zap.String("endpoint", cfg.OTELEndpoint),
				)
				defer func() {
					shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer shutdownCancel()
					if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

	// Apply schema migrations before serving
	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		zapLogger.Fatal("failed_to_run_migrations", zap.Error(err))
	}

	// Connect to database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	if err := metrics.RegisterDBStats(db.DB, "keywords"); err != nil {
		zapLogger.Warn("failed_to_register_db_stats", zap.Error(err))
	}
	zapLogger.Info("connected_to_database")

	// Connect to Redis for the selection cache and rate limiting
	redisClient, err := cache.NewClient(cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_redis")

	// RabbitMQ is optional for the API; the DLQ collector runs only when it is configured
	var jobQueue *queue.RabbitMQQueue
	if cfg.RabbitMQURL != "" {
		jobQueue = connectQueue(cfg.RabbitMQURL, zapLogger)
		defer func() {
			if err := jobQueue.Close(); err != nil {
				zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
			}
		}()
	} else {
		zapLogger.Warn("rabbitmq_not_configured")
	}

	// Initialize repositories
	poolRepo := database.NewKeywordPoolRepository(db)
	daysRepo := database.NewDailySelectionRepository(db)
	queriesRepo := database.NewKeywordQueryRepository(db)
	corsConfigRepo := database.NewCorsConfigRepository(db)
	ratelimitConfigRepo := database.NewRatelimitConfigRepository(db)

	// Initialize services
	rotationService := rotation.NewService(poolRepo, daysRepo, queriesRepo,
		rotation.WithCache(cache.NewDailySelectionCache(redisClient, cache.DefaultDailySelectionTTL)),
		rotation.WithLocation(loc),
		rotation.WithDefaultCount(cfg.RotationDefaultCount),
		rotation.WithLogger(zapLogger),
	)

	suggester, err := createSuggester(cfg, zapLogger, debugMode)
	if err != nil {
		zapLogger.Warn("failed_to_create_ai_provider_suggestions_disabled", zap.Error(err))
		suggester = nil
	}

	var ranker handlers.VideoRanker
	if cfg.RapidAPIKey != "" {
		ranker = tiktok.NewRanker(tiktok.NewClient(cfg.RapidAPIKey, cfg.RapidAPITikTokHost), tiktok.Filters{}, zapLogger)
	} else {
		zapLogger.Warn("rapidapi_key_not_configured_video_search_disabled")
	}

	var verifier middleware.TokenVerifier
	if cfg.AdminJWTSecret != "" {
		v, err := admintoken.NewVerifier(cfg.AdminJWTSecret)
		if err != nil {
			zapLogger.Fatal("invalid_admin_jwt_secret", zap.Error(err))
		}
		verifier = v
	} else {
		zapLogger.Warn("admin_jwt_secret_not_configured_admin_routes_disabled")
	}

	// Initialize handlers
	keywordHandler := handlers.NewKeywordHandler(rotationService, suggester, zapLogger)
	queryHandler := handlers.NewQueryHandler(diversifier.New(), rotationService, zapLogger)
	videoHandler := handlers.NewVideoHandler(keywordHandler, ranker, zapLogger)
	healthChecker := handlers.NewHealthChecker(db).
		WithCheck("redis", func(ctx context.Context) error { return redisClient.Ping(ctx).Err() })
	if jobQueue != nil {
		healthChecker.WithCheck("rabbitmq", jobQueue.HealthCheck)
	} else {
		healthChecker.WithCheck("rabbitmq", nil)
	}
	openAPIHandler, err := handlers.NewOpenAPIHandler(openapi.Spec)
	if err != nil {
		zapLogger.Fatal("failed_to_load_openapi_document", zap.Error(err))
	}

	// Setup router
	r := mux.NewRouter()

	// Middleware registered first wraps outermost
	zapLogger.Info("setting_up_middleware")

	// 0. OpenTelemetry tracing (if enabled); access logs pick up the trace ID
	if cfg.OTELEnabled && tracerProvider != nil {
		r.Use(otelmux.Middleware(serviceName))
		zapLogger.Info("otel_middleware_enabled")
	}
	// 1. Request ID and access log, outside everything that can reject a request
	r.Use(middleware.AccessLog(zapLogger))
	// 2. Panic recovery, inside the access log so a recovered panic is logged as a 500
	r.Use(middleware.Recover(zapLogger))
	// 3. Request metrics
	r.Use(metrics.Middleware)
	// 4. Security headers
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	// 5. CORS (load from DB, hot-reload; fallback to FRONTEND_URL)
	corsReloader := middleware.NewCORSReloader(corsConfigRepo, cfg.FrontendURL, zapLogger, 1*time.Minute)
	r.Use(corsReloader.Middleware())
	// 6. Body size cap and JSON content type for bodies
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType)
	// 7. Request deadline
	r.Use(middleware.Timeout(middleware.DefaultRequestTimeout))

	// Rate limiting covers /api/v1 only; health checks and scrapes are exempt
	rateLimitReloader, err := middleware.NewRateLimitReloader(redisClient, ratelimitConfigRepo, "", zapLogger, 1*time.Minute)
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limit_reloader", zap.Error(err))
	}

	zapLogger.Info("middleware_setup_complete")

	// Public routes (no rate limiting for health checks and scrapes)
	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")
	r.HandleFunc("/version", versionInfo).Methods("GET")
	r.Handle("/metrics", metrics.Handler()).Methods("GET")
	openAPIHandler.RegisterRoutes(r)

	// API v1 routes
	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(rateLimitReloader.Middleware())

	keywordsRouter := apiRouter.PathPrefix("/keywords").Subrouter()
	keywordHandler.RegisterRoutes(keywordsRouter)

	adminRouter := apiRouter.PathPrefix("/keywords").Subrouter()
	adminRouter.Use(middleware.AdminAuth(verifier, zapLogger))
	keywordHandler.RegisterAdminRoutes(adminRouter)

	queryHandler.RegisterRoutes(apiRouter.PathPrefix("/queries").Subrouter())
	videoHandler.RegisterRoutes(apiRouter.PathPrefix("/videos").Subrouter())

	// Catch-all OPTIONS handler; CORS middleware has already written the headers
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// Setup server
	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   60 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB max header size
	}

	// CORS and rate limit hot-reload loops
	reloadCtx, reloadCancel := context.WithCancel(context.Background())
	defer reloadCancel()
	go corsReloader.Start(reloadCtx)
	go rateLimitReloader.Start(reloadCtx)

	// Run every hour, retain dead-lettered jobs for 24 hours
	if jobQueue != nil {
		janitor := queue.NewDLQJanitor(jobQueue, 1*time.Hour, 24*time.Hour, zapLogger)
		go func() {
			if err := janitor.Run(reloadCtx); err != nil && !errors.Is(err, context.Canceled) {
				zapLogger.Error("dlq_janitor_stopped", zap.Error(err))
			}
		}()
	}

	// Start server in a goroutine
	go func() {
		zapLogger.Info("server_starting",
			zap.String("port", cfg.ServerPort),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")
	reloadCancel()

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

// connectQueue dials RabbitMQ with exponential backoff to ride out broker startup
func connectQueue(url string, zapLogger *zap.Logger) *queue.RabbitMQQueue {
	const maxRetries = 10
	const initialDelay = 2 * time.Second

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		q, err := queue.NewRabbitMQQueue(url, zapLogger)
		if err == nil {
			zapLogger.Info("connected_to_rabbitmq")
			return q
		}

		lastErr = err
		delay := initialDelay * time.Duration(1<<uint(attempt))
		if delay > 30*time.Second {
			delay = 30 * time.Second
		}
		zapLogger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries),
			zap.Error(err),
			zap.Duration("retry_delay", delay),
		)
		time.Sleep(delay)
	}

	zapLogger.Fatal("failed_to_connect_to_rabbitmq_after_retries",
		zap.Int("max_retries", maxRetries),
		zap.Error(lastErr),
	)
	return nil
}

// createSuggester builds the keyword suggester AI_PROVIDER selects
func createSuggester(cfg *config.Config, logger *zap.Logger, debugMode bool) (rotation.Suggester, error) {
	return ai.NewSuggester(ai.ProviderConfig{
		Provider: cfg.AIProvider,
		APIKey:   cfg.OpenAIKey,
		Model:    cfg.AIModel,
		BaseURL:  cfg.AIBaseURL,
		Logger:   logger,
		Debug:    debugMode,
	})
}

func versionInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	// Only expose minimal version info
	_, _ = fmt.Fprintf(w, `{"version":%q,"timestamp":"%s"}`, version, time.Now().UTC().Format(time.RFC3339))
}
