package middleware

import (
	"context"
	"sync"
	"time"
)

// reloader holds a value rebuilt from the database on a ticker. gorilla/mux applies
// middleware per matched request, so middlewares read the current value on every call
// instead of capturing a handler once.
type reloader[T any] struct {
	interval time.Duration
	load     func(ctx context.Context) T

	mu      sync.RWMutex
	current T
}

func (r *reloader[T]) reload(ctx context.Context) {
	v := r.load(ctx)
	r.mu.Lock()
	r.current = v
	r.mu.Unlock()
}

func (r *reloader[T]) get() T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Start reloads on every tick until ctx is cancelled.
func (r *reloader[T]) Start(ctx context.Context) {
	if r.interval <= 0 {
		return
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.reload(ctx)
		}
	}
}
