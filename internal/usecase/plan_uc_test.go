// File: internal/usecase/plan_uc_test.go
package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/HOLYLABS972/esim-main-sub001/internal/domain"
	"github.com/HOLYLABS972/esim-main-sub001/internal/domain/model"
)

func TestPlanUseCase_Listing(t *testing.T) {
	ctx := context.Background()

	t.Run("hidden country lists nothing", func(t *testing.T) {
		plans := newMemPlanRepo()
		countries := newMemCountryRepo()
		countries.Save(ctx, &model.Country{Code: "US", Name: "United States", Hidden: true})

		p := seedPlan(t, plans, "us-30days-3gb", false)
		p.CountryCodes = []string{"US"}
		plans.Save(ctx, p)

		uc := NewPlanUseCase(plans, countries, newTestLogger())
		_, err := uc.ListForCountry(ctx, "US", "")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected not-found for hidden country, got: %v", err)
		}
	})

	t.Run("disabled and topup-only plans are filtered from purchase listings", func(t *testing.T) {
		plans := newMemPlanRepo()
		countries := newMemCountryRepo()
		countries.Save(ctx, &model.Country{Code: "DE", Name: "Germany"})

		buyable := seedPlan(t, plans, "de-30days-3gb", false)
		buyable.CountryCodes = []string{"DE"}
		plans.Save(ctx, buyable)

		disabled := seedPlan(t, plans, "de-7days-1gb", false)
		disabled.CountryCodes = []string{"DE"}
		disabled.Enabled = false
		plans.Save(ctx, disabled)

		topupOnly := seedPlan(t, plans, "change-30days-3gb", true)
		topupOnly.CountryCodes = []string{"DE"}
		plans.Save(ctx, topupOnly)

		uc := NewPlanUseCase(plans, countries, newTestLogger())
		got, err := uc.ListForCountry(ctx, "DE", "")
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if len(got) != 1 || got[0].Slug != "de-30days-3gb" {
			t.Fatalf("expected only the buyable plan, got %d plans", len(got))
		}
	})

	t.Run("topup listing keeps only priced topup-enabled plans", func(t *testing.T) {
		plans := newMemPlanRepo()
		countries := newMemCountryRepo()

		topup := seedPlan(t, plans, "change-30days-3gb", true)
		plans.Save(ctx, topup)

		free := seedPlan(t, plans, "change-free", true)
		free.PriceCents = 0
		plans.Save(ctx, free)

		uc := NewPlanUseCase(plans, countries, newTestLogger())
		got, err := uc.ListTopups(ctx, "")
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if len(got) != 1 || got[0].Slug != "change-30days-3gb" {
			t.Fatalf("expected one priced topup, got %d", len(got))
		}
	})
}

func TestPlanUseCase_Upsert(t *testing.T) {
	ctx := context.Background()

	t.Run("purchase and topup flags are mutually exclusive", func(t *testing.T) {
		plans := newMemPlanRepo()
		uc := NewPlanUseCase(plans, newMemCountryRepo(), newTestLogger())

		p := seedPlan(t, plans, "planA-30days-3gb", false)
		p.AvailableForTopup = true // both now true
		if err := uc.Upsert(ctx, p); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected invalid-argument, got: %v", err)
		}
	})

	t.Run("valid plan round-trips", func(t *testing.T) {
		plans := newMemPlanRepo()
		uc := NewPlanUseCase(plans, newMemCountryRepo(), newTestLogger())

		p, _ := model.NewPlan("planB-7days-1gb", "Plan B", 900, 1024, 7)
		if err := uc.Upsert(ctx, p); err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		got, err := uc.Get(ctx, "planB-7days-1gb")
		if err != nil || got.Name != "Plan B" {
			t.Fatalf("round-trip failed: %v", err)
		}
	})
}
