// File: internal/infra/sched/order_reconciler.go
package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/HOLYLABS972/esim-main-sub001/internal/domain/model"
	"github.com/HOLYLABS972/esim-main-sub001/internal/domain/ports/adapter"
	"github.com/HOLYLABS972/esim-main-sub001/internal/domain/ports/repository"
)

// OrderReconciler periodically scans orders left pending by the poll ceiling
// (degraded-complete landings, crashes mid-reconcile) and tries to finalize
// them from the provisioning-status document and the provider's QR endpoint.
type OrderReconciler struct {
	orders     repository.OrderRepository
	statuses   repository.ProvisioningStatusRepository
	esim       adapter.EsimProvider
	interval   time.Duration
	staleAfter time.Duration
	log        *zerolog.Logger
}

func NewOrderReconciler(
	orders repository.OrderRepository,
	statuses repository.ProvisioningStatusRepository,
	esim adapter.EsimProvider,
	interval, staleAfter time.Duration,
	logger *zerolog.Logger,
) *OrderReconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}
	return &OrderReconciler{
		orders:     orders,
		statuses:   statuses,
		esim:       esim,
		interval:   interval,
		staleAfter: staleAfter,
		log:        logger,
	}
}

func (w *OrderReconciler) Start(ctx context.Context) {
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

func (w *OrderReconciler) tick(ctx context.Context) {
	cutoff := time.Now().Add(-w.staleAfter)
	stale, err := w.orders.ListStalePending(ctx, cutoff, 200)
	if err != nil {
		w.log.Error().Err(err).Msg("order-reconciler: list stale error")
		return
	}
	for _, o := range stale {
		w.finalize(ctx, o)
	}
}

func (w *OrderReconciler) finalize(ctx context.Context, o *model.Order) {
	st, err := w.statuses.Get(ctx, o.ID)
	if err == nil && st.Failed() {
		o.Status = model.OrderStatusFailed
		o.UpdatedAt = time.Now()
		w.save(ctx, o)
		w.log.Warn().Str("order_id", o.ID).Str("error", st.Error).Msg("order-reconciler: marked failed")
		return
	}

	lookup := o.ID
	if o.Provider != nil && o.Provider.ProviderOrderID != "" {
		lookup = o.Provider.ProviderOrderID
	}
	qr, err := w.esim.GetQRCode(ctx, lookup)
	if err != nil || qr.Empty() {
		return // still not ready; next tick will retry
	}

	o.Status = model.OrderStatusActive
	o.ICCID = qr.ICCID
	if o.Provider == nil {
		o.Provider = &model.ProviderResponse{}
	}
	o.Provider.QRCode = qr.QRCode
	o.Provider.QRCodeURL = qr.QRCodeURL
	o.Provider.ActivationCode = qr.ActivationCode
	o.Provider.LPA = qr.LPA
	o.Provider.MatchingID = qr.MatchingID
	o.Provider.ICCID = qr.ICCID
	o.Provider.DirectAppleInstallationURL = qr.DirectAppleInstallationURL
	o.UpdatedAt = time.Now()
	w.save(ctx, o)
	w.log.Info().Str("order_id", o.ID).Msg("order-reconciler: finalized")
}

func (w *OrderReconciler) save(ctx context.Context, o *model.Order) {
	if err := w.orders.SaveGlobal(ctx, o); err != nil {
		w.log.Error().Err(err).Str("order_id", o.ID).Msg("order-reconciler: global write failed")
	}
	if o.UserID != "" {
		if err := w.orders.SaveForUser(ctx, o.UserID, o); err != nil {
			w.log.Error().Err(err).Str("order_id", o.ID).Msg("order-reconciler: per-user write failed")
		}
	}
}
