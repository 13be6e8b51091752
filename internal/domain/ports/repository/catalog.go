package repository

import (
	"context"

	"github.com/HOLYLABS972/esim-main-sub001/internal/domain/model"
)

// PlanRepository is the port for the capability-split package catalog.
type PlanRepository interface {
	Save(ctx context.Context, p *model.Plan) error
	FindBySlug(ctx context.Context, slug string) (*model.Plan, error)
	ListByCountry(ctx context.Context, countryCode string, capability model.PlanCapability) ([]*model.Plan, error)
	ListForTopup(ctx context.Context, countryCode string) ([]*model.Plan, error)
	ListAll(ctx context.Context) ([]*model.Plan, error)
	Delete(ctx context.Context, slug string) error
}

// CountryRepository stores synced country metadata. Save upserts the sync
// fields only; the hidden flag is owned by SetHidden and survives a Save.
type CountryRepository interface {
	Save(ctx context.Context, c *model.Country) error
	FindByCode(ctx context.Context, code string) (*model.Country, error)
	List(ctx context.Context, includeHidden bool) ([]*model.Country, error)
	SetHidden(ctx context.Context, code string, hidden bool) error
}

// RegionRepository mirrors CountryRepository, including the Save/SetHidden
// split.
type RegionRepository interface {
	Save(ctx context.Context, r *model.Region) error
	List(ctx context.Context, includeHidden bool) ([]*model.Region, error)
	SetHidden(ctx context.Context, slug string, hidden bool) error
}

type ReferralRepository interface {
	Save(ctx context.Context, rc *model.ReferralCode) error
	FindByCode(ctx context.Context, code string) (*model.ReferralCode, error)
	FindByOwner(ctx context.Context, ownerID string) (*model.ReferralCode, error)
	DeleteByOwner(ctx context.Context, ownerID string) error
	IncrementUsage(ctx context.Context, code string) error
	ListAll(ctx context.Context) ([]*model.ReferralCode, error)
}

type UserRepository interface {
	Save(ctx context.Context, u *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, limit int) ([]*model.User, error)
}
