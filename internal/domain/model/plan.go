package model

import (
	"time"

	"github.com/HOLYLABS972/esim-main-sub001/internal/domain"
)

// PlanCapability decides which catalog collection a synced package lands in.
type PlanCapability string

const (
	CapabilityStandard  PlanCapability = "standard"
	CapabilityUnlimited PlanCapability = "unlimited"
	CapabilitySMS       PlanCapability = "sms"
)

// Plan is a purchasable data package synced from the upstream provisioner
// catalog. AvailableForPurchase and AvailableForTopup are mutually exclusive;
// the sync pass enforces it since the store cannot.
type Plan struct {
	Slug                 string         `bson:"_id" json:"slug"`
	Name                 string         `bson:"name" json:"name"`
	PriceCents           int64          `bson:"priceCents" json:"price_cents"`
	Currency             string         `bson:"currency" json:"currency"`
	CapacityMB           int64          `bson:"capacityMb" json:"capacity_mb"` // -1 means unlimited
	PeriodDays           int            `bson:"periodDays" json:"period_days"`
	CountryCodes         []string       `bson:"countryCodes,omitempty" json:"country_codes,omitempty"`
	RegionSlug           string         `bson:"regionSlug,omitempty" json:"region_slug,omitempty"`
	Capability           PlanCapability `bson:"capability" json:"capability"`
	AvailableForPurchase bool           `bson:"availableForPurchase" json:"available_for_purchase"`
	AvailableForTopup    bool           `bson:"availableForTopup" json:"available_for_topup"`
	Enabled              bool           `bson:"enabled" json:"enabled"`
	SyncedAt             time.Time      `bson:"syncedAt" json:"synced_at"`
}

func (p *Plan) IsZero() bool { return p == nil || p.Slug == "" }

func (p *Plan) Unlimited() bool { return p.CapacityMB < 0 }

// NewPlan validates and constructs a catalog plan.
func NewPlan(slug, name string, priceCents int64, capacityMB int64, periodDays int) (*Plan, error) {
	if slug == "" || name == "" || priceCents <= 0 || periodDays <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	capability := CapabilityStandard
	if capacityMB < 0 {
		capability = CapabilityUnlimited
	}
	return &Plan{
		Slug:                 slug,
		Name:                 name,
		PriceCents:           priceCents,
		Currency:             "USD",
		CapacityMB:           capacityMB,
		PeriodDays:           periodDays,
		Capability:           capability,
		AvailableForPurchase: true,
		Enabled:              true,
		SyncedAt:             time.Now(),
	}, nil
}

// MarkTopupOnly flips the plan to the topup side of the purchase/topup split.
func (p *Plan) MarkTopupOnly() {
	p.AvailableForTopup = true
	p.AvailableForPurchase = false
}
