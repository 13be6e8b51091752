// File: internal/usecase/plan_uc.go
package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/HOLYLABS972/esim-main-sub001/internal/domain"
	"github.com/HOLYLABS972/esim-main-sub001/internal/domain/model"
	"github.com/HOLYLABS972/esim-main-sub001/internal/domain/ports/repository"
)

// PlanUseCase covers both storefront listing (purchase side / topup side,
// never mixed) and admin plan management.
type PlanUseCase interface {
	ListForCountry(ctx context.Context, countryCode string, capability model.PlanCapability) ([]*model.Plan, error)
	ListTopups(ctx context.Context, countryCode string) ([]*model.Plan, error)
	Get(ctx context.Context, slug string) (*model.Plan, error)

	// Admin side
	ListAll(ctx context.Context) ([]*model.Plan, error)
	Upsert(ctx context.Context, p *model.Plan) error
	Delete(ctx context.Context, slug string) error
}

var _ PlanUseCase = (*planUC)(nil)

type planUC struct {
	plans     repository.PlanRepository
	countries repository.CountryRepository
	log       *zerolog.Logger
}

func NewPlanUseCase(plans repository.PlanRepository, countries repository.CountryRepository, logger *zerolog.Logger) *planUC {
	return &planUC{plans: plans, countries: countries, log: logger}
}

func (u *planUC) ListForCountry(ctx context.Context, countryCode string, capability model.PlanCapability) ([]*model.Plan, error) {
	if countryCode == "" {
		return nil, domain.ErrInvalidArgument
	}
	if hidden, err := u.countryHidden(ctx, countryCode); err == nil && hidden {
		return nil, domain.ErrNotFound
	}
	all, err := u.plans.ListByCountry(ctx, countryCode, capability)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Plan, 0, len(all))
	for _, p := range all {
		if p.Enabled && p.AvailableForPurchase {
			out = append(out, p)
		}
	}
	return out, nil
}

func (u *planUC) ListTopups(ctx context.Context, countryCode string) ([]*model.Plan, error) {
	all, err := u.plans.ListForTopup(ctx, countryCode)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Plan, 0, len(all))
	for _, p := range all {
		if p.Enabled && p.AvailableForTopup && p.PriceCents > 0 {
			out = append(out, p)
		}
	}
	return out, nil
}

func (u *planUC) Get(ctx context.Context, slug string) (*model.Plan, error) {
	if slug == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.plans.FindBySlug(ctx, slug)
}

func (u *planUC) ListAll(ctx context.Context) ([]*model.Plan, error) {
	return u.plans.ListAll(ctx)
}

func (u *planUC) Upsert(ctx context.Context, p *model.Plan) error {
	if p.IsZero() || p.Name == "" || p.PriceCents <= 0 {
		return domain.ErrInvalidArgument
	}
	// available_for_purchase and available_for_topup are mutually exclusive;
	// the store itself cannot enforce this.
	if p.AvailableForPurchase && p.AvailableForTopup {
		return domain.ErrInvalidArgument
	}
	return u.plans.Save(ctx, p)
}

func (u *planUC) Delete(ctx context.Context, slug string) error {
	if slug == "" {
		return domain.ErrInvalidArgument
	}
	return u.plans.Delete(ctx, slug)
}

func (u *planUC) countryHidden(ctx context.Context, code string) (bool, error) {
	c, err := u.countries.FindByCode(ctx, code)
	if err != nil {
		return false, err
	}
	return c.Hidden, nil
}
