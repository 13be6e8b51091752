// File: internal/usecase/sync_uc.go
package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/HOLYLABS972/esim-main-sub001/internal/domain/model"
	"github.com/HOLYLABS972/esim-main-sub001/internal/domain/ports/adapter"
	"github.com/HOLYLABS972/esim-main-sub001/internal/domain/ports/repository"
	"github.com/HOLYLABS972/esim-main-sub001/internal/infra/worker"
)

// SyncReport counts what a catalog sync touched.
type SyncReport struct {
	Countries int `json:"countries"`
	Regions   int `json:"regions"`
	Plans     int `json:"plans"`
	Errors    int `json:"errors"`
}

// SyncUseCase pulls the provisioner catalog into the capability-split plan
// collections plus countries and regions. Safe to run repeatedly; writes are
// upserts keyed by slug/code.
type SyncUseCase interface {
	SyncAll(ctx context.Context) (*SyncReport, error)
}

var _ SyncUseCase = (*syncUC)(nil)

type syncUC struct {
	esim      adapter.EsimProvider
	plans     repository.PlanRepository
	countries repository.CountryRepository
	regions   repository.RegionRepository
	pool      *worker.Pool
	log       *zerolog.Logger
}

func NewSyncUseCase(
	esim adapter.EsimProvider,
	plans repository.PlanRepository,
	countries repository.CountryRepository,
	regions repository.RegionRepository,
	pool *worker.Pool,
	logger *zerolog.Logger,
) *syncUC {
	return &syncUC{esim: esim, plans: plans, countries: countries, regions: regions, pool: pool, log: logger}
}

func (u *syncUC) SyncAll(ctx context.Context) (*SyncReport, error) {
	report := &SyncReport{}
	var mu sync.Mutex
	fail := func() { mu.Lock(); report.Errors++; mu.Unlock() }
	now := time.Now()

	countries, err := u.esim.ListCountries(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range countries {
		country := &model.Country{Code: c.Code, Name: c.Name, Slug: c.Slug, SyncedAt: now}
		if err := u.countries.Save(ctx, country); err != nil {
			u.log.Warn().Err(err).Str("code", c.Code).Msg("country upsert failed")
			fail()
			continue
		}
		report.Countries++
	}

	regions, err := u.esim.ListRegions(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range regions {
		region := &model.Region{Slug: r.Slug, Name: r.Name, CountryCodes: r.CountryCodes, SyncedAt: now}
		if err := u.regions.Save(ctx, region); err != nil {
			u.log.Warn().Err(err).Str("slug", r.Slug).Msg("region upsert failed")
			fail()
			continue
		}
		report.Regions++
	}

	packages, err := u.esim.ListPackages(ctx)
	if err != nil {
		return nil, err
	}
	// Package writes dominate a full sync (thousands of slugs); fan them out
	// through the pool and wait for the batch.
	var wg sync.WaitGroup
	for _, pkg := range packages {
		plan := planFromCatalog(pkg, now)
		if plan == nil {
			fail()
			continue
		}
		wg.Add(1)
		task := func(tctx context.Context) error {
			defer wg.Done()
			if err := u.plans.Save(tctx, plan); err != nil {
				u.log.Warn().Err(err).Str("slug", plan.Slug).Msg("plan upsert failed")
				fail()
				return err
			}
			mu.Lock()
			report.Plans++
			mu.Unlock()
			return nil
		}
		if err := u.pool.Submit(task); err != nil {
			// queue saturated; write inline rather than dropping the slug
			_ = task(ctx)
		}
	}
	wg.Wait()

	u.log.Info().
		Int("countries", report.Countries).
		Int("regions", report.Regions).
		Int("plans", report.Plans).
		Int("errors", report.Errors).
		Msg("catalog sync finished")
	return report, nil
}

// planFromCatalog maps an upstream package onto a Plan, deciding capability
// and the purchase/topup split.
func planFromCatalog(pkg adapter.CatalogPackage, now time.Time) *model.Plan {
	p, err := model.NewPlan(pkg.Slug, pkg.Name, pkg.PriceCents, pkg.CapacityMB, pkg.PeriodDays)
	if err != nil {
		return nil
	}
	p.CountryCodes = pkg.CountryCodes
	p.RegionSlug = pkg.RegionSlug
	p.SyncedAt = now
	if pkg.HasSMS {
		p.Capability = model.CapabilitySMS
	}
	if pkg.TopupOnly {
		p.MarkTopupOnly()
	}
	return p
}
