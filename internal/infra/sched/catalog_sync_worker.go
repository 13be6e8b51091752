// File: internal/infra/sched/catalog_sync_worker.go
package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/HOLYLABS972/esim-main-sub001/internal/infra/metrics"
	"github.com/HOLYLABS972/esim-main-sub001/internal/usecase"
)

// CatalogSyncWorker refreshes the plan/country/region catalog from the
// provisioner on a fixed interval, plus once at startup so a fresh deployment
// is not empty until the first tick.
type CatalogSyncWorker struct {
	uc       usecase.SyncUseCase
	interval time.Duration
	log      *zerolog.Logger
}

func NewCatalogSyncWorker(uc usecase.SyncUseCase, interval time.Duration, logger *zerolog.Logger) *CatalogSyncWorker {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &CatalogSyncWorker{uc: uc, interval: interval, log: logger}
}

func (w *CatalogSyncWorker) Start(ctx context.Context) {
	w.tick(ctx)
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *CatalogSyncWorker) tick(ctx context.Context) {
	report, err := w.uc.SyncAll(ctx)
	if err != nil {
		metrics.IncCatalogSync("failed")
		w.log.Error().Err(err).Msg("catalog-sync: run failed")
		return
	}
	metrics.IncCatalogSync("ok")
	metrics.SetCatalogPlansSynced(report.Plans)
}
