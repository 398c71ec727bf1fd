package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/handlers"
	"github.com/vidtube/backend/internal/media"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/storage"
)

const (
	reclaimTimeout  = 30 * time.Second
	limiterIdleTTL  = 10 * time.Minute
	limiterMinBurst = 1
)

// buildDependencies wires together concrete implementations used by the HTTP
// handlers. The returned cleanup drains the reclaimer and closes the pool.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, func(context.Context) error, error) {
	store, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
	if err != nil {
		return handlers.Dependencies{}, nil, fmt.Errorf("configure media storage: %w", err)
	}

	prober := media.NewProber(cfg.FFProbePath, cfg.ProbeTimeout)
	uploader := media.NewUploader(store, prober, cfg.Upload.Dir)
	reclaimer := media.NewReclaimer(store, media.ReclaimerConfig{
		QueueSize: cfg.Reclaimer.QueueSize,
		Workers:   cfg.Reclaimer.Workers,
		Timeout:   reclaimTimeout,
	}, slog.Default().With("component", "reclaimer"))

	users := repositories.NewPostgresUserRepository(pool)

	burst := cfg.RateLimit.Requests
	if burst < limiterMinBurst {
		burst = limiterMinBurst
	}

	deps := handlers.Dependencies{
		Users:         users,
		Videos:        repositories.NewPostgresVideoRepository(pool),
		Comments:      repositories.NewPostgresCommentRepository(pool),
		Tweets:        repositories.NewPostgresTweetRepository(pool),
		Likes:         repositories.NewPostgresLikeRepository(pool),
		Subscriptions: repositories.NewPostgresSubscriptionRepository(pool),
		Playlists:     repositories.NewPostgresPlaylistRepository(pool),
		Sessions:      auth.NewManager(cfg.Auth, users),
		Media:         uploader,
		Reclaimer:     reclaimer,
		AuthLimiter:   middleware.NewIPRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window, burst, limiterIdleTTL),
		SecureCookies: cfg.Auth.SecureCookies,
		PageMaxLimit:  cfg.PageMaxLimit,
	}
	if checker, ok := pool.(handlers.HealthChecker); ok {
		deps.Database = checker
	}

	cleanup := func(ctx context.Context) error {
		err := reclaimer.Shutdown(ctx)
		pool.Close()
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("shutdown reclaimer: %w", err)
		}
		return nil
	}
	return deps, cleanup, nil
}
