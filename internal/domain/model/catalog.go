package model

import "time"

// Country is synced catalog metadata. Hidden controls storefront visibility;
// there is no other lifecycle beyond create/update/hide.
type Country struct {
	Code     string    `bson:"_id" json:"code"`
	Name     string    `bson:"name" json:"name"`
	Slug     string    `bson:"slug,omitempty" json:"slug,omitempty"`
	Hidden   bool      `bson:"hidden" json:"hidden"`
	SyncedAt time.Time `bson:"syncedAt" json:"synced_at"`
}

// Region groups countries for multi-country packages.
type Region struct {
	Slug         string    `bson:"_id" json:"slug"`
	Name         string    `bson:"name" json:"name"`
	CountryCodes []string  `bson:"countryCodes,omitempty" json:"country_codes,omitempty"`
	Hidden       bool      `bson:"hidden" json:"hidden"`
	SyncedAt     time.Time `bson:"syncedAt" json:"synced_at"`
}
