package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/darwis-taxii/taxii-server/internal/domain/taxii2"
)

// DefaultJobCleanupInterval is how often the retention sweep runs.
const DefaultJobCleanupInterval = 5 * time.Minute

// JobCleaner periodically deletes completed TAXII 2.1 jobs older than the
// repository's retention window (spec.md §3, §4.8). Mirrors the
// start/stop-goroutine shape used elsewhere in this codebase for background
// maintenance loops.
type JobCleaner struct {
	repo     taxii2.Repository
	interval time.Duration
	logger   *slog.Logger
	metrics  *Metrics

	stopChan chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

// NewJobCleaner builds a cleaner; call Start to begin the background loop.
func NewJobCleaner(repo taxii2.Repository, interval time.Duration, metrics *Metrics, logger *slog.Logger) *JobCleaner {
	if interval <= 0 {
		interval = DefaultJobCleanupInterval
	}
	return &JobCleaner{
		repo:     repo,
		interval: interval,
		logger:   logger,
		metrics:  metrics,
		stopChan: make(chan struct{}),
	}
}

// Start launches the background sweep goroutine. Call Stop to shut it down.
func (c *JobCleaner) Start(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-c.stopChan:
				return
			case <-ticker.C:
				c.sweep(ctx)
			}
		}
	}()
}

func (c *JobCleaner) sweep(ctx context.Context) {
	deleted, err := c.repo.JobCleanup(ctx)
	if err != nil {
		c.logger.Warn("job cleanup sweep failed", "error", err)
		return
	}
	if c.metrics != nil {
		c.metrics.JobCleanupRuns.Inc()
		c.metrics.JobsDeleted.Add(float64(deleted))
	}
	if deleted > 0 {
		c.logger.Debug("job cleanup sweep removed completed jobs", "count", deleted)
	}
}

// Stop halts the background goroutine and waits for it to exit. Safe to
// call multiple times.
func (c *JobCleaner) Stop() {
	c.once.Do(func() {
		close(c.stopChan)
	})
	c.wg.Wait()
}
