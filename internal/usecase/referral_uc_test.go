// File: internal/usecase/referral_uc_test.go
package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/HOLYLABS972/esim-main-sub001/internal/domain"
	"github.com/HOLYLABS972/esim-main-sub001/internal/domain/model"
)

func TestReferralUseCase(t *testing.T) {
	ctx := context.Background()
	owner, _ := model.NewUser("owner-1", "owner@example.com")
	other, _ := model.NewUser("other-1", "other@example.com")

	t.Run("generate replaces the previous code", func(t *testing.T) {
		repo := newMemReferralRepo()
		uc := NewReferralUseCase(repo, newTestLogger())

		first, err := uc.Generate(ctx, owner)
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		second, err := uc.Generate(ctx, owner)
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if first.Code == second.Code {
			t.Fatalf("regeneration must mint a new code")
		}
		if _, err := uc.Validate(ctx, first.Code); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("old code should be gone, got: %v", err)
		}
		mine, err := uc.Mine(ctx, owner.ID)
		if err != nil || mine.Code != second.Code {
			t.Fatalf("owner lookup should return the new code: %v", err)
		}
	})

	t.Run("redeem bumps usage and rejects the owner", func(t *testing.T) {
		repo := newMemReferralRepo()
		uc := NewReferralUseCase(repo, newTestLogger())

		rc, _ := uc.Generate(ctx, owner)

		if _, err := uc.Redeem(ctx, owner, rc.Code); !errors.Is(err, domain.ErrReferralOwn) {
			t.Fatalf("expected own-code rejection, got: %v", err)
		}
		got, err := uc.Redeem(ctx, other, rc.Code)
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if got.UsageCount != 1 {
			t.Fatalf("expected usage count 1, got %d", got.UsageCount)
		}
	})

	t.Run("expired code is rejected", func(t *testing.T) {
		repo := newMemReferralRepo()
		uc := NewReferralUseCase(repo, newTestLogger())

		rc, _ := model.NewReferralCode(owner.ID, owner.Email)
		rc.ExpiresAt = time.Now().Add(-time.Hour)
		repo.Save(ctx, rc)

		if _, err := uc.Validate(ctx, rc.Code); !errors.Is(err, domain.ErrReferralExpired) {
			t.Fatalf("expected expired error, got: %v", err)
		}
		if _, err := uc.Redeem(ctx, other, rc.Code); !errors.Is(err, domain.ErrReferralExpired) {
			t.Fatalf("expected expired error on redeem, got: %v", err)
		}
	})

	t.Run("anonymous callers cannot generate or redeem", func(t *testing.T) {
		repo := newMemReferralRepo()
		uc := NewReferralUseCase(repo, newTestLogger())

		if _, err := uc.Generate(ctx, nil); !errors.Is(err, domain.ErrUnauthenticated) {
			t.Fatalf("expected unauthenticated, got: %v", err)
		}
		if _, err := uc.Redeem(ctx, nil, "ABCD1234"); !errors.Is(err, domain.ErrUnauthenticated) {
			t.Fatalf("expected unauthenticated, got: %v", err)
		}
	})
}
