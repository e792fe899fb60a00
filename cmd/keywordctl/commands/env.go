package commands

import (
	"fmt"

	"github.com/benvon/keyword-rotator/internal/cache"
	"github.com/benvon/keyword-rotator/internal/config"
	"github.com/benvon/keyword-rotator/internal/database"
	"github.com/benvon/keyword-rotator/internal/logger"
	"github.com/benvon/keyword-rotator/internal/services/rotation"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// cliLog is replaced by SetupLogging before any command runs
var cliLog = zap.NewNop()

// SetupLogging installs the stderr logger commands and the services they build log to.
func SetupLogging(verbose bool) error {
	log, err := logger.NewCLILogger(verbose)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	cliLog = log
	return nil
}

// FlushLogs syncs the CLI logger
func FlushLogs() {
	_ = logger.Sync(cliLog)
}

// env holds the connections a command opened. Close releases them.
type env struct {
	cfg   *config.Config
	db    *database.DB
	redis *redis.Client
}

func openEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return &env{cfg: cfg, db: db}, nil
}

func (e *env) Close() {
	if e.redis != nil {
		_ = e.redis.Close()
	}
	_ = e.db.Close()
}

// rotationService builds the service on the same daily selection cache the API reads, so a
// rotation made here replaces the cached day.
func (e *env) rotationService() (*rotation.Service, error) {
	loc, err := e.cfg.Location()
	if err != nil {
		return nil, err
	}
	opts := []rotation.Option{
		rotation.WithLocation(loc),
		rotation.WithDefaultCount(e.cfg.RotationDefaultCount),
		rotation.WithLogger(cliLog),
	}
	if c := e.selectionCache(); c != nil {
		opts = append(opts, rotation.WithCache(c))
	}
	return rotation.NewService(
		database.NewKeywordPoolRepository(e.db),
		database.NewDailySelectionRepository(e.db),
		database.NewKeywordQueryRepository(e.db),
		opts...,
	), nil
}

// selectionCache connects to REDIS_URL on first use. It returns nil when Redis is not
// reachable; the API may then serve the previous selection of a day rotated here.
func (e *env) selectionCache() *cache.DailySelectionCache {
	if e.redis == nil {
		if e.cfg.RedisURL == "" {
			return nil
		}
		client, err := cache.NewClient(e.cfg.RedisURL)
		if err != nil {
			cliLog.Warn("redis_unavailable_cached_selections_not_refreshed", zap.Error(err))
			return nil
		}
		e.redis = client
	}
	return cache.NewDailySelectionCache(e.redis, cache.DefaultDailySelectionTTL)
}
