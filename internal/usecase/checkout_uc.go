// File: internal/usecase/checkout_uc.go
package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/HOLYLABS972/esim-main-sub001/internal/domain"
	"github.com/HOLYLABS972/esim-main-sub001/internal/domain/model"
	"github.com/HOLYLABS972/esim-main-sub001/internal/domain/ports/adapter"
	"github.com/HOLYLABS972/esim-main-sub001/internal/domain/ports/repository"
)

// CheckoutRequest starts a storefront purchase or topup. Amount and currency
// come from the catalog, never from the client.
type CheckoutRequest struct {
	PackageID     string `json:"package_id"`
	CustomerEmail string `json:"customer_email"`
	PaymentMethod string `json:"payment_method"` // stripe | coinbase | lemonsqueezy
	Type          string `json:"type"`           // order | topup
	ICCID         string `json:"iccid,omitempty"`
}

type CheckoutResult struct {
	OrderID     string `json:"order_id"`
	RedirectURL string `json:"redirect_url"`
}

// CheckoutUseCase mints the synthetic order ID, writes the authoritative
// pending-order record, and opens the provider-hosted checkout.
type CheckoutUseCase interface {
	Start(ctx context.Context, buyer *model.User, req CheckoutRequest) (*CheckoutResult, error)
}

var _ CheckoutUseCase = (*checkoutUC)(nil)

type checkoutUC struct {
	plans      repository.PlanRepository
	pending    repository.PendingOrderCache
	payments   map[string]adapter.PaymentProvider
	successURL string
	cancelURL  string
	log        *zerolog.Logger
}

func NewCheckoutUseCase(
	plans repository.PlanRepository,
	pending repository.PendingOrderCache,
	payments map[string]adapter.PaymentProvider,
	successURL, cancelURL string,
	logger *zerolog.Logger,
) *checkoutUC {
	return &checkoutUC{
		plans:      plans,
		pending:    pending,
		payments:   payments,
		successURL: successURL,
		cancelURL:  cancelURL,
		log:        logger,
	}
}

func (u *checkoutUC) Start(ctx context.Context, buyer *model.User, req CheckoutRequest) (*CheckoutResult, error) {
	if req.PackageID == "" {
		return nil, domain.ErrInvalidArgument
	}
	isTopup := strings.EqualFold(req.Type, "topup")
	if isTopup && req.ICCID == "" {
		return nil, domain.ErrInvalidArgument
	}
	provider, ok := u.payments[strings.ToLower(req.PaymentMethod)]
	if !ok {
		return nil, domain.ErrUnknownProvider
	}

	plan, err := u.plans.FindBySlug(ctx, req.PackageID)
	if err != nil {
		return nil, err
	}
	if isTopup && !plan.AvailableForTopup {
		return nil, domain.ErrInvalidArgument
	}
	if !isTopup && !plan.AvailableForPurchase {
		return nil, domain.ErrInvalidArgument
	}

	email := req.CustomerEmail
	if email == "" && !buyer.IsZero() {
		email = buyer.Email
	}

	now := time.Now()
	orderID := model.NewOrderID(plan.Slug, now)
	kind := "order"
	if isTopup {
		orderID = model.NewTopupOrderID(req.ICCID, now)
		kind = "topup"
	}

	p := &model.PendingOrder{
		OrderID:       orderID,
		PackageID:     plan.Slug,
		PlanName:      plan.Name,
		CustomerEmail: email,
		AmountCents:   plan.PriceCents,
		Currency:      plan.Currency,
		Type:          kind,
		ICCID:         req.ICCID,
		PaymentMethod: provider.Name(),
		CreatedAt:     now,
	}
	if err := u.pending.Put(ctx, p); err != nil {
		// The reconciler's fallback chain can still recover without the
		// cache, so checkout proceeds.
		u.log.Warn().Err(err).Str("order_id", orderID).Msg("pending-order cache write failed")
	}

	sess, err := provider.CreateCheckout(ctx, p, u.successURL, u.cancelURL)
	if err != nil {
		u.log.Error().Err(err).Str("order_id", orderID).Str("provider", provider.Name()).Msg("checkout session creation failed")
		return nil, err
	}
	return &CheckoutResult{OrderID: orderID, RedirectURL: sess.URL}, nil
}
