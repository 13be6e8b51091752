// File: internal/usecase/referral_uc.go
package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/HOLYLABS972/esim-main-sub001/internal/domain"
	"github.com/HOLYLABS972/esim-main-sub001/internal/domain/model"
	"github.com/HOLYLABS972/esim-main-sub001/internal/domain/ports/repository"
)

// ReferralUseCase manages per-user referral codes: one active code per owner,
// two-month expiry, redeem bumps the usage counter.
type ReferralUseCase interface {
	Generate(ctx context.Context, owner *model.User) (*model.ReferralCode, error)
	Mine(ctx context.Context, ownerID string) (*model.ReferralCode, error)
	Validate(ctx context.Context, code string) (*model.ReferralCode, error)
	Redeem(ctx context.Context, redeemer *model.User, code string) (*model.ReferralCode, error)
	ListAll(ctx context.Context) ([]*model.ReferralCode, error)
}

var _ ReferralUseCase = (*referralUC)(nil)

type referralUC struct {
	referrals repository.ReferralRepository
	log       *zerolog.Logger
}

func NewReferralUseCase(referrals repository.ReferralRepository, logger *zerolog.Logger) *referralUC {
	return &referralUC{referrals: referrals, log: logger}
}

// Generate replaces any previous code the owner had. Delete-then-save, not a
// transaction; a redeem racing against the old code can still land.
func (u *referralUC) Generate(ctx context.Context, owner *model.User) (*model.ReferralCode, error) {
	if owner.IsZero() {
		return nil, domain.ErrUnauthenticated
	}
	rc, err := model.NewReferralCode(owner.ID, owner.Email)
	if err != nil {
		return nil, err
	}
	if err := u.referrals.DeleteByOwner(ctx, owner.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if err := u.referrals.Save(ctx, rc); err != nil {
		return nil, err
	}
	u.log.Info().Str("owner", owner.ID).Str("code", rc.Code).Msg("referral code generated")
	return rc, nil
}

func (u *referralUC) Mine(ctx context.Context, ownerID string) (*model.ReferralCode, error) {
	if ownerID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.referrals.FindByOwner(ctx, ownerID)
}

func (u *referralUC) Validate(ctx context.Context, code string) (*model.ReferralCode, error) {
	rc, err := u.lookup(ctx, code)
	if err != nil {
		return nil, err
	}
	if rc.Expired(time.Now()) {
		return nil, domain.ErrReferralExpired
	}
	return rc, nil
}

func (u *referralUC) Redeem(ctx context.Context, redeemer *model.User, code string) (*model.ReferralCode, error) {
	if redeemer.IsZero() {
		return nil, domain.ErrUnauthenticated
	}
	rc, err := u.Validate(ctx, code)
	if err != nil {
		return nil, err
	}
	if rc.OwnerID == redeemer.ID {
		return nil, domain.ErrReferralOwn
	}
	if err := u.referrals.IncrementUsage(ctx, rc.Code); err != nil {
		return nil, err
	}
	rc.UsageCount++
	u.log.Info().Str("code", rc.Code).Str("redeemer", redeemer.ID).Msg("referral code redeemed")
	return rc, nil
}

func (u *referralUC) ListAll(ctx context.Context) ([]*model.ReferralCode, error) {
	return u.referrals.ListAll(ctx)
}

func (u *referralUC) lookup(ctx context.Context, code string) (*model.ReferralCode, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.referrals.FindByCode(ctx, code)
}
