// File: internal/usecase/order_uc.go
package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/HOLYLABS972/esim-main-sub001/internal/domain"
	"github.com/HOLYLABS972/esim-main-sub001/internal/domain/model"
	"github.com/HOLYLABS972/esim-main-sub001/internal/domain/ports/adapter"
	"github.com/HOLYLABS972/esim-main-sub001/internal/domain/ports/repository"
)

// OrderUseCase serves the read side: the public QR page looks orders up by ID
// with no authentication, buyers list their own history, and the usage
// endpoint proxies the provisioner.
type OrderUseCase interface {
	Get(ctx context.Context, orderID string) (*model.Order, error)
	ListForUser(ctx context.Context, userID string) ([]*model.Order, error)
	Usage(ctx context.Context, iccid string) (*adapter.UsageResult, error)
	Topups(ctx context.Context, iccid string) ([]*model.Topup, error)
}

var _ OrderUseCase = (*orderUC)(nil)

type orderUC struct {
	orders repository.OrderRepository
	topups repository.TopupRepository
	esim   adapter.EsimProvider
	log    *zerolog.Logger
}

func NewOrderUseCase(orders repository.OrderRepository, topups repository.TopupRepository, esim adapter.EsimProvider, logger *zerolog.Logger) *orderUC {
	return &orderUC{orders: orders, topups: topups, esim: esim, log: logger}
}

func (u *orderUC) Get(ctx context.Context, orderID string) (*model.Order, error) {
	if orderID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.orders.FindByID(ctx, orderID)
}

func (u *orderUC) ListForUser(ctx context.Context, userID string) ([]*model.Order, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.orders.ListByUser(ctx, userID)
}

func (u *orderUC) Usage(ctx context.Context, iccid string) (*adapter.UsageResult, error) {
	if iccid == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.esim.GetUsage(ctx, iccid)
}

func (u *orderUC) Topups(ctx context.Context, iccid string) ([]*model.Topup, error) {
	if iccid == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.topups.ListByICCID(ctx, iccid)
}
