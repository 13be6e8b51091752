package model

import (
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/HOLYLABS972/esim-main-sub001/internal/domain"
)

// ReferralCode: at most one active code per user. Regenerating replaces the
// owner's previous code without a transaction, so a racing redeem against the
// old code can still land.
type ReferralCode struct {
	Code       string    `bson:"_id" json:"code"`
	OwnerID    string    `bson:"ownerId" json:"owner_id"`
	OwnerEmail string    `bson:"ownerEmail,omitempty" json:"owner_email,omitempty"`
	ExpiresAt  time.Time `bson:"expiresAt" json:"expires_at"`
	UsageCount int       `bson:"usageCount" json:"usage_count"`
	CreatedAt  time.Time `bson:"createdAt" json:"created_at"`
}

// NewReferralCode mints a code valid for exactly two months.
func NewReferralCode(ownerID, ownerEmail string) (*ReferralCode, error) {
	if ownerID == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &ReferralCode{
		Code:       ulid.Make().String()[18:], // 8 Crockford base32 chars
		OwnerID:    ownerID,
		OwnerEmail: ownerEmail,
		ExpiresAt:  now.AddDate(0, 2, 0),
		CreatedAt:  now,
	}, nil
}

func (r *ReferralCode) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && r.ExpiresAt.Before(now)
}
