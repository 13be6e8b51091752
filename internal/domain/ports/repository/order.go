package repository

import (
	"context"
	"time"

	"github.com/HOLYLABS972/esim-main-sub001/internal/domain/model"
)

// -----------------------------
// Orders
// -----------------------------

// OrderRepository persists the two independent copies of an order. SaveGlobal
// and SaveForUser are set-with-merge upserts; neither implies the other and
// no transaction spans them.
type OrderRepository interface {
	SaveGlobal(ctx context.Context, o *model.Order) error
	SaveForUser(ctx context.Context, userID string, o *model.Order) error
	FindByID(ctx context.Context, id string) (*model.Order, error)
	FindByICCID(ctx context.Context, iccid string) (*model.Order, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Order, error)
	// ListStalePending feeds the background reconciler.
	ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]*model.Order, error)
}

// ProvisioningStatusRepository reads/writes the backend-job status document
// polled after create-order.
type ProvisioningStatusRepository interface {
	Get(ctx context.Context, orderID string) (*model.ProvisioningStatus, error)
	Set(ctx context.Context, st *model.ProvisioningStatus) error
}

type TopupRepository interface {
	Save(ctx context.Context, t *model.Topup) error
	ListByICCID(ctx context.Context, iccid string) ([]*model.Topup, error)
}

// -----------------------------
// Pending-order cache
// -----------------------------

// PendingOrderCache holds the checkout-time order -> package mapping, keyed
// by the synthetic order ID, with a TTL.
type PendingOrderCache interface {
	Put(ctx context.Context, p *model.PendingOrder) error
	Get(ctx context.Context, orderID string) (*model.PendingOrder, error)
	Delete(ctx context.Context, orderID string) error
}

// Locker is a distributed try-lock used to derive provisioning idempotency
// from the payment provider's own reference.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}
