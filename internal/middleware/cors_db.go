package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/benvon/keyword-rotator/internal/database"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

const (
	defaultCORSOrigin = "http://localhost:3000"
	defaultCORSMaxAge = 86400
)

// corsMethods and corsHeaders cover the whole API surface: reads, admin POSTs and the
// bearer token header.
var (
	corsMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	corsHeaders = []string{"Authorization", "Content-Type", "X-Request-ID"}
	corsExposed = []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"}
)

// CORSReloader applies rs/cors with origins read from the cors_config table and
// rebuilt on an interval so operators can change them without a restart.
type CORSReloader struct {
	reloader[*cors.Cors]
	repo     database.CorsConfigRepositoryInterface
	fallback string
	log      *zap.Logger
}

// NewCORSReloader creates the CORS middleware. frontendURL is used when the table is empty
// or unreadable.
func NewCORSReloader(repo database.CorsConfigRepositoryInterface, frontendURL string, log *zap.Logger, reloadInterval time.Duration) *CORSReloader {
	c := &CORSReloader{
		repo:     repo,
		fallback: strings.TrimSpace(frontendURL),
		log:      log,
	}
	c.interval = reloadInterval
	c.load = func(ctx context.Context) *cors.Cors { return cors.New(c.options(ctx)) }
	c.reload(context.Background())
	return c
}

// Middleware returns the hot-reloading CORS middleware.
func (c *CORSReloader) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.get().ServeHTTP(w, r, next.ServeHTTP)
		})
	}
}

func (c *CORSReloader) options(ctx context.Context) cors.Options {
	opts := cors.Options{
		AllowedMethods:   corsMethods,
		AllowedHeaders:   corsHeaders,
		ExposedHeaders:   corsExposed,
		AllowCredentials: true,
		MaxAge:           defaultCORSMaxAge,
	}

	cfg, err := c.repo.Get(ctx)
	switch {
	case err != nil:
		c.log.Warn("cors_config_load_failed_using_fallback",
			zap.Error(err),
			zap.String("fallback", c.fallback),
		)
		opts.AllowedOrigins = database.AllowedOriginsSlice(c.fallback)
	case cfg == nil:
		opts.AllowedOrigins = database.AllowedOriginsSlice(c.fallback)
	default:
		opts.AllowedOrigins = database.AllowedOriginsSlice(cfg.AllowedOrigins)
		opts.AllowCredentials = cfg.AllowCredentials
		opts.MaxAge = cfg.MaxAge
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{defaultCORSOrigin}
	}
	return opts
}
