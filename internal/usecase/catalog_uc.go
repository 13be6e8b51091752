// File: internal/usecase/catalog_uc.go
package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/HOLYLABS972/esim-main-sub001/internal/domain"
	"github.com/HOLYLABS972/esim-main-sub001/internal/domain/model"
	"github.com/HOLYLABS972/esim-main-sub001/internal/domain/ports/repository"
)

// CatalogUseCase serves country/region listings and the admin hide toggle.
type CatalogUseCase interface {
	Countries(ctx context.Context, includeHidden bool) ([]*model.Country, error)
	Regions(ctx context.Context, includeHidden bool) ([]*model.Region, error)
	SetCountryHidden(ctx context.Context, code string, hidden bool) error
	SetRegionHidden(ctx context.Context, slug string, hidden bool) error
}

var _ CatalogUseCase = (*catalogUC)(nil)

type catalogUC struct {
	countries repository.CountryRepository
	regions   repository.RegionRepository
	log       *zerolog.Logger
}

func NewCatalogUseCase(countries repository.CountryRepository, regions repository.RegionRepository, logger *zerolog.Logger) *catalogUC {
	return &catalogUC{countries: countries, regions: regions, log: logger}
}

func (u *catalogUC) Countries(ctx context.Context, includeHidden bool) ([]*model.Country, error) {
	return u.countries.List(ctx, includeHidden)
}

func (u *catalogUC) Regions(ctx context.Context, includeHidden bool) ([]*model.Region, error) {
	return u.regions.List(ctx, includeHidden)
}

func (u *catalogUC) SetCountryHidden(ctx context.Context, code string, hidden bool) error {
	if code == "" {
		return domain.ErrInvalidArgument
	}
	return u.countries.SetHidden(ctx, code, hidden)
}

func (u *catalogUC) SetRegionHidden(ctx context.Context, slug string, hidden bool) error {
	if slug == "" {
		return domain.ErrInvalidArgument
	}
	return u.regions.SetHidden(ctx, slug, hidden)
}
