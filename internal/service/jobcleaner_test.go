package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/goleak"

	"github.com/darwis-taxii/taxii-server/internal/adapter/outbound/memory"
)

func TestJobCleanerSweepsPeriodically(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := memory.NewTaxii2Store()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := NewMetrics(prometheus.NewRegistry())

	cleaner := NewJobCleaner(store, 10*time.Millisecond, metrics, logger)
	ctx, cancel := context.WithCancel(context.Background())
	cleaner.Start(ctx)

	time.Sleep(50 * time.Millisecond)
	cancel()
	cleaner.Stop()

	if got := testutil.ToFloat64(metrics.JobCleanupRuns); got == 0 {
		t.Fatal("expected at least one cleanup sweep to have run")
	}
}

func TestJobCleanerStopIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := memory.NewTaxii2Store()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cleaner := NewJobCleaner(store, time.Hour, nil, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cleaner.Start(ctx)

	cleaner.Stop()
	cleaner.Stop()
}
