package media

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
)

// ReclaimerConfig controls the concurrency characteristics of the reclaimer.
type ReclaimerConfig struct {
	QueueSize int
	Workers   int
	// Timeout bounds a single delete call.
	Timeout time.Duration
}

// Reclaimer deletes assets from the media store in the background once the
// records pointing at them have been updated or removed.
type Reclaimer struct {
	store   Store
	logger  *slog.Logger
	timeout time.Duration

	jobs   chan models.Asset
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
	mu     sync.RWMutex
	closed bool
}

// ErrReclaimerClosed is returned by Enqueue after Shutdown.
var ErrReclaimerClosed = errors.New("asset reclaimer closed")

// NewReclaimer starts the worker pool.
func NewReclaimer(store Store, cfg ReclaimerConfig, logger *slog.Logger) *Reclaimer {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &Reclaimer{
		store:   store,
		logger:  logger,
		timeout: cfg.Timeout,
		jobs:    make(chan models.Asset, cfg.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
	}

	r.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go r.worker()
	}
	return r
}

// Enqueue schedules deletion of the asset. Assets without a storage id are ignored.
func (r *Reclaimer) Enqueue(ctx context.Context, asset models.Asset) error {
	if asset.StorageID == "" {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return ErrReclaimerClosed
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case r.jobs <- asset:
		return nil
	}
}

// Shutdown stops accepting work and waits for queued deletions to finish.
func (r *Reclaimer) Shutdown(ctx context.Context) error {
	r.once.Do(func() {
		r.mu.Lock()
		r.closed = true
		close(r.jobs)
		r.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		r.cancel()
		return ctx.Err()
	case <-done:
		r.cancel()
		return nil
	}
}

func (r *Reclaimer) worker() {
	defer r.wg.Done()
	for asset := range r.jobs {
		r.handleJob(asset)
	}
}

func (r *Reclaimer) handleJob(asset models.Asset) {
	if r.store == nil {
		r.logger.Error("asset reclaimer missing store", "storageId", asset.StorageID)
		return
	}

	ctx, cancel := context.WithTimeout(r.ctx, r.timeout)
	defer cancel()

	ctx = logging.WithLogger(ctx, r.logger)
	ctx, span := logging.StartSpan(ctx, "media.reclaim", "storageId", asset.StorageID)
	err := r.store.Delete(ctx, asset.StorageID)
	span.End(err)
}
