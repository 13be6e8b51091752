package adapter

import (
	"context"

	"github.com/HOLYLABS972/esim-main-sub001/internal/domain/model"
)

// CheckoutSession is the provider-hosted payment page the buyer is sent to.
type CheckoutSession struct {
	ID  string
	URL string
}

// SessionInfo is the server-side view of a completed checkout session, used
// by the Stripe path where the redirect does not carry the amount.
type SessionInfo struct {
	AmountCents   int64
	Currency      string
	CustomerEmail string
	PaymentStatus string
	Metadata      map[string]string
}

// PaymentProvider is the hex port for a checkout provider. Not every provider
// supports every call: VerifyCharge only exists for Coinbase-style charge
// APIs, RetrieveSession only for Stripe-style sessions. Unsupported calls
// return domain.ErrUnsupported.
type PaymentProvider interface {
	Name() string

	// CreateCheckout opens a hosted checkout for a pending order and returns
	// the redirect target.
	CreateCheckout(ctx context.Context, pending *model.PendingOrder, successURL, cancelURL string) (*CheckoutSession, error)

	// VerifyCharge is a best-effort confirmation of a charge reference.
	VerifyCharge(ctx context.Context, chargeID string) (bool, error)

	// RetrieveSession resolves a checkout session server-side.
	RetrieveSession(ctx context.Context, sessionID string) (*SessionInfo, error)
}
