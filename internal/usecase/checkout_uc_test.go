// File: internal/usecase/checkout_uc_test.go
package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/HOLYLABS972/esim-main-sub001/internal/domain"
	"github.com/HOLYLABS972/esim-main-sub001/internal/domain/model"
	"github.com/HOLYLABS972/esim-main-sub001/internal/domain/ports/adapter"
)

func seedPlan(t *testing.T, plans *memPlanRepo, slug string, topup bool) *model.Plan {
	t.Helper()
	p, err := model.NewPlan(slug, strings.ToUpper(slug), 1500, 3*1024, 30)
	if err != nil {
		t.Fatalf("seed plan: %v", err)
	}
	if topup {
		p.MarkTopupOnly()
	}
	if err := plans.Save(context.Background(), p); err != nil {
		t.Fatalf("seed plan save: %v", err)
	}
	return p
}

func TestCheckoutUseCase_Start(t *testing.T) {
	ctx := context.Background()
	buyer, _ := model.NewUser("user-1", "buyer@example.com")

	newUC := func(plans *memPlanRepo, pending *memPendingCache, gw *fakePayment) CheckoutUseCase {
		return NewCheckoutUseCase(plans, pending,
			map[string]adapter.PaymentProvider{gw.Name(): gw},
			"https://shop.example/payment-success", "https://shop.example/checkout",
			newTestLogger())
	}

	t.Run("order checkout mints an id and caches the pending record", func(t *testing.T) {
		plans := newMemPlanRepo()
		pending := newMemPendingCache()
		gw := &fakePayment{name: "stripe"}
		seedPlan(t, plans, "planA-30days-3gb", false)

		res, err := newUC(plans, pending, gw).Start(ctx, buyer, CheckoutRequest{
			PackageID:     "planA-30days-3gb",
			PaymentMethod: "stripe",
			Type:          "order",
		})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if !strings.HasPrefix(res.OrderID, "planA-30days-3gb-") {
			t.Fatalf("order id %q should start with the plan slug", res.OrderID)
		}
		p, err := pending.Get(ctx, res.OrderID)
		if err != nil {
			t.Fatalf("pending record missing: %v", err)
		}
		if p.PackageID != "planA-30days-3gb" || p.AmountCents != 1500 {
			t.Fatalf("pending record wrong: %+v", p)
		}
		if p.CustomerEmail != buyer.Email {
			t.Fatalf("expected buyer email fallback, got %q", p.CustomerEmail)
		}
		if res.RedirectURL == "" {
			t.Fatalf("expected a redirect url")
		}
	})

	t.Run("topup checkout requires an iccid and a topup-enabled plan", func(t *testing.T) {
		plans := newMemPlanRepo()
		pending := newMemPendingCache()
		gw := &fakePayment{name: "coinbase"}
		seedPlan(t, plans, "change-30days-3gb", true)

		uc := newUC(plans, pending, gw)

		if _, err := uc.Start(ctx, nil, CheckoutRequest{
			PackageID: "change-30days-3gb", PaymentMethod: "coinbase", Type: "topup",
		}); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected invalid-argument without iccid, got: %v", err)
		}

		res, err := uc.Start(ctx, nil, CheckoutRequest{
			PackageID:     "change-30days-3gb",
			PaymentMethod: "coinbase",
			Type:          "topup",
			ICCID:         "8931000000000000000",
			CustomerEmail: "anon@example.com",
		})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if !strings.HasPrefix(res.OrderID, model.TopupIDPrefix+"8931000000000000000-") {
			t.Fatalf("topup order id %q malformed", res.OrderID)
		}
	})

	t.Run("purchase of a topup-only plan is rejected", func(t *testing.T) {
		plans := newMemPlanRepo()
		pending := newMemPendingCache()
		gw := &fakePayment{name: "stripe"}
		seedPlan(t, plans, "change-30days-3gb", true)

		_, err := newUC(plans, pending, gw).Start(ctx, buyer, CheckoutRequest{
			PackageID: "change-30days-3gb", PaymentMethod: "stripe", Type: "order",
		})
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected invalid-argument, got: %v", err)
		}
	})

	t.Run("unknown payment method is rejected", func(t *testing.T) {
		plans := newMemPlanRepo()
		pending := newMemPendingCache()
		gw := &fakePayment{name: "stripe"}
		seedPlan(t, plans, "planA-30days-3gb", false)

		_, err := newUC(plans, pending, gw).Start(ctx, buyer, CheckoutRequest{
			PackageID: "planA-30days-3gb", PaymentMethod: "paypal", Type: "order",
		})
		if !errors.Is(err, domain.ErrUnknownProvider) {
			t.Fatalf("expected unknown-provider, got: %v", err)
		}
	})

	t.Run("cache write failure does not abort checkout", func(t *testing.T) {
		plans := newMemPlanRepo()
		pending := newMemPendingCache()
		pending.putErr = errors.New("redis down")
		gw := &fakePayment{name: "stripe"}
		seedPlan(t, plans, "planA-30days-3gb", false)

		res, err := newUC(plans, pending, gw).Start(ctx, buyer, CheckoutRequest{
			PackageID: "planA-30days-3gb", PaymentMethod: "stripe", Type: "order",
		})
		if err != nil {
			t.Fatalf("expected checkout to proceed, got: %v", err)
		}
		if res.RedirectURL == "" {
			t.Fatalf("expected redirect url")
		}
	})
}
