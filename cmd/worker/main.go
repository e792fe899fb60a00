package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/keyword-rotator/internal/cache"
	"github.com/benvon/keyword-rotator/internal/config"
	"github.com/benvon/keyword-rotator/internal/database"
	"github.com/benvon/keyword-rotator/internal/logger"
	"github.com/benvon/keyword-rotator/internal/queue"
	"github.com/benvon/keyword-rotator/internal/services/ai"
	"github.com/benvon/keyword-rotator/internal/services/rotation"
	"github.com/benvon/keyword-rotator/internal/telemetry"
	"github.com/benvon/keyword-rotator/internal/workers"
	"go.uber.org/zap"
)

const serviceName = "keyword-rotator-worker"

func main() {
	// Parse command-line flags
	debugFlag := flag.Bool("debug", false, "Enable debug mode for LLM API logging")
	scheduleFlag := flag.Bool("schedule", true, "Enqueue the daily rotation jobs from this worker")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.RabbitMQURL == "" {
		log.Fatalf("RABBITMQ_URL is required for the worker")
	}

	// Override debug mode if flag is set
	debugMode := cfg.WorkerDebugMode || *debugFlag

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

	zapLogger.Info("starting_worker",
		zap.Bool("debug_mode", debugMode),
		zap.Bool("schedule", *scheduleFlag),
		zap.Int("rotation_schedule_hour", cfg.RotationScheduleHour),
		zap.String("rotation_timezone", loc.String()),
	)

	if cfg.OTELEnabled && cfg.OTELEndpoint != "" {
		tp, err := telemetry.InitTracer(context.Background(), telemetry.Config{
			ServiceName: serviceName,
			Endpoint:    cfg.OTELEndpoint,
			Secure:      cfg.OTELSecure,
			SampleRatio: cfg.OTELSampleRatio,
		})
		if err != nil {
			zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		} else {
			defer func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
					zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
				}
			}()
		}
	}

	// Initialize database connection
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_database")

	opts := []rotation.Option{
		rotation.WithLocation(loc),
		rotation.WithDefaultCount(cfg.RotationDefaultCount),
		rotation.WithLogger(zapLogger),
	}

	// The cache is optional here; a rotation still commits without it
	redisClient, err := cache.NewClient(cfg.RedisURL)
	if err != nil {
		zapLogger.Warn("redis_unavailable_selection_cache_disabled", zap.Error(err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()
		opts = append(opts, rotation.WithCache(cache.NewDailySelectionCache(redisClient, 0)))
	}

	rotationService := rotation.NewService(
		database.NewKeywordPoolRepository(db),
		database.NewDailySelectionRepository(db),
		database.NewKeywordQueryRepository(db),
		opts...,
	)

	// Initialize RabbitMQ queue
	jobQueue, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_rabbitmq",
		zap.Int("prefetch", cfg.RabbitMQPrefetch),
	)

	var suggester rotation.Suggester
	if s, err := ai.NewSuggester(ai.ProviderConfig{
		Provider: cfg.AIProvider,
		APIKey:   cfg.OpenAIKey,
		Model:    cfg.AIModel,
		BaseURL:  cfg.AIBaseURL,
		Logger:   zapLogger,
		Debug:    debugMode,
	}); err == nil {
		suggester = s
	} else {
		zapLogger.Warn("ai_provider_not_configured_suggest_jobs_disabled", zap.Error(err))
	}

	worker := workers.NewRotationWorker(rotationService, suggester, jobQueue, zapLogger)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if *scheduleFlag {
		scheduler := workers.NewScheduler(jobQueue, cfg.RotationScheduleHour, loc, cfg.RotationDefaultCount, zapLogger)
		go func() {
			if err := scheduler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				zapLogger.Error("scheduler_stopped_with_error", zap.Error(err))
			}
		}()
	}

	// Start consuming messages
	msgChan, errChan, err := jobQueue.Consume(ctx, cfg.RabbitMQPrefetch)
	if err != nil {
		zapLogger.Fatal("failed_to_start_consuming_messages", zap.Error(err))
	}
	zapLogger.Info("worker_started")

	done := make(chan error, 1)
	go func() {
		done <- worker.Run(ctx, msgChan, errChan)
	}()

	// Wait for shutdown signal or a dead consumer
	select {
	case <-sigChan:
		zapLogger.Info("shutdown_signal_received")
	case err := <-done:
		zapLogger.Error("worker_stopped_unexpectedly", zap.Error(err))
	}

	// Cancel context to stop processing
	cancel()

	zapLogger.Info("worker_stopped")
}
