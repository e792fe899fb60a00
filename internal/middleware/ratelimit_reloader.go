package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/benvon/keyword-rotator/internal/database"
	"github.com/benvon/keyword-rotator/internal/models"
	"github.com/benvon/keyword-rotator/internal/request"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"
)

const (
	// defaultRatelimitRate applies when neither the caller nor the database sets a rate
	defaultRatelimitRate = "5-S"
	ratelimitKeyPrefix   = "keyword-rotator:ratelimit"
)

// RateLimitReloader limits requests per client IP with ulule/limiter backed by Redis. The
// rate lives in the ratelimit_config table and is re-read on an interval; counters survive
// a reload because the store is shared.
type RateLimitReloader struct {
	reloader[*limiter.Limiter]
	store       limiter.Store
	repo        database.RatelimitConfigRepositoryInterface
	defaultRate string
	log         *zap.Logger
}

// NewRateLimitReloader creates the rate limit middleware.
func NewRateLimitReloader(redisClient *redis.Client, repo database.RatelimitConfigRepositoryInterface, defaultRate string, log *zap.Logger, reloadInterval time.Duration) (*RateLimitReloader, error) {
	store, err := redisstore.NewStoreWithOptions(redisClient, limiter.StoreOptions{
		Prefix: ratelimitKeyPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("create rate limit store: %w", err)
	}
	return newRateLimitReloader(store, repo, defaultRate, log, reloadInterval), nil
}

func newRateLimitReloader(store limiter.Store, repo database.RatelimitConfigRepositoryInterface, defaultRate string, log *zap.Logger, reloadInterval time.Duration) *RateLimitReloader {
	if defaultRate == "" {
		defaultRate = defaultRatelimitRate
	}
	rl := &RateLimitReloader{
		store:       store,
		repo:        repo,
		defaultRate: defaultRate,
		log:         log,
	}
	rl.interval = reloadInterval
	rl.load = func(ctx context.Context) *limiter.Limiter { return limiter.New(rl.store, rl.rate(ctx)) }
	rl.reload(context.Background())
	return rl
}

// Middleware returns the hot-reloading rate limit middleware.
func (rl *RateLimitReloader) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rl.handler(rl.get(), next).ServeHTTP(w, r)
		})
	}
}

// rate resolves the configured rate. A missing row is filled with the default so
// keywordctl ratelimit list shows what is in force.
func (rl *RateLimitReloader) rate(ctx context.Context) limiter.Rate {
	formatted := rl.defaultRate
	cfg, err := rl.repo.Get(ctx)
	switch {
	case err != nil:
		rl.log.Warn("ratelimit_config_load_failed_using_default",
			zap.Error(err),
			zap.String("default_rate", rl.defaultRate),
		)
	case cfg == nil || cfg.Rate == "":
		if err := rl.repo.Set(ctx, &models.RatelimitConfig{Rate: rl.defaultRate}); err != nil {
			rl.log.Error("ratelimit_config_save_default_failed",
				zap.Error(err),
				zap.String("default_rate", rl.defaultRate),
			)
		}
	default:
		formatted = cfg.Rate
	}

	rate, err := limiter.NewRateFromFormatted(formatted)
	if err == nil {
		return rate
	}
	rl.log.Error("ratelimit_config_invalid_using_default",
		zap.Error(err),
		zap.String("rate", formatted),
		zap.String("default_rate", rl.defaultRate),
	)
	rate, err = limiter.NewRateFromFormatted(rl.defaultRate)
	if err != nil {
		// Unreachable for the built-in default.
		return limiter.Rate{Period: time.Second, Limit: 5, Formatted: defaultRatelimitRate}
	}
	return rate
}

func (rl *RateLimitReloader) handler(instance *limiter.Limiter, next http.Handler) http.Handler {
	rate := instance.Rate
	mw := stdlibmw.NewMiddleware(instance,
		stdlibmw.WithKeyGetter(request.ClientIP),
		stdlibmw.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, r, http.StatusTooManyRequests, fmt.Sprintf("Rate limit of %s exceeded", rate.Formatted))
		}),
		// A Redis outage must not take the API down with it.
		stdlibmw.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			rl.log.Warn("ratelimit_store_unavailable",
				zap.Error(err),
				zap.String("request_id", request.ID(r.Context())),
			)
			next.ServeHTTP(w, r)
		}),
	)
	return mw.Handler(next)
}
