package adapter

import (
	"context"
	"time"
)

// SIM is a single provisioned eSIM profile inside an order response.
type SIM struct {
	ICCID                      string `json:"iccid"`
	QRCode                     string `json:"qrcode"` // LPA payload
	QRCodeURL                  string `json:"qrcode_url"`
	LPA                        string `json:"lpa"`
	MatchingID                 string `json:"matching_id"`
	DirectAppleInstallationURL string `json:"direct_apple_installation_url"`
}

type CreateOrderRequest struct {
	PackageID   string
	Quantity    string // upstream takes it as a string; fixed at "1" by callers
	ToEmail     string
	Description string
}

type CreateOrderResult struct {
	ProviderOrderID string
	Package         string
	Data            string
	ValidityDays    int
	SIMs            []SIM
}

type TopupResult struct {
	TopupID string
}

// QRCodeResult mirrors the remote get-QR-code response; any field may be
// empty when the code is not ready yet.
type QRCodeResult struct {
	QRCode                     string `json:"qr_code,omitempty"`
	QRCodeURL                  string `json:"qr_code_url,omitempty"`
	ActivationCode             string `json:"activation_code,omitempty"`
	ICCID                      string `json:"iccid,omitempty"`
	LPA                        string `json:"lpa,omitempty"`
	MatchingID                 string `json:"matching_id,omitempty"`
	DirectAppleInstallationURL string `json:"direct_apple_installation_url,omitempty"`
}

func (q *QRCodeResult) Empty() bool {
	return q == nil || (q.QRCode == "" && q.QRCodeURL == "" && q.DirectAppleInstallationURL == "")
}

type UsageResult struct {
	ICCID       string    `json:"iccid"`
	RemainingMB int64     `json:"remaining_mb"`
	TotalMB     int64     `json:"total_mb"`
	Status      string    `json:"status"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Catalog shapes returned by the provisioner's listing endpoints, consumed by
// the sync pass.
type CatalogPackage struct {
	Slug         string
	Name         string
	PriceCents   int64
	CapacityMB   int64 // -1 means unlimited
	PeriodDays   int
	CountryCodes []string
	RegionSlug   string
	HasSMS       bool
	TopupOnly    bool
}

type CatalogCountry struct {
	Code string
	Name string
	Slug string
}

type CatalogRegion struct {
	Slug         string
	Name         string
	CountryCodes []string
}

// EsimProvider is the hex port for the upstream eSIM vendor (Airalo-style
// REST API). All calls are opaque remote operations.
type EsimProvider interface {
	Name() string

	CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error)
	CreateTopup(ctx context.Context, iccid, packageID string) (*TopupResult, error)
	GetQRCode(ctx context.Context, orderID string) (*QRCodeResult, error)
	GetUsage(ctx context.Context, iccid string) (*UsageResult, error)

	ListPackages(ctx context.Context) ([]CatalogPackage, error)
	ListCountries(ctx context.Context) ([]CatalogCountry, error)
	ListRegions(ctx context.Context) ([]CatalogRegion, error)
}
