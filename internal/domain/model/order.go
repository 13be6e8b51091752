package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

type OrderStatus string

const (
	OrderStatusActive  OrderStatus = "active"  // provisioned, usable
	OrderStatusPending OrderStatus = "pending" // provisioning not yet confirmed
	OrderStatusFailed  OrderStatus = "failed"  // provisioning failed after payment
)

// ProviderResponse is the optional nested blob returned by the eSIM
// provisioner. Every field is omitempty: the store never sees empty values,
// matching the undefined-stripping behavior of the original writes.
type ProviderResponse struct {
	ProviderOrderID            string `bson:"providerOrderId,omitempty" json:"provider_order_id,omitempty"`
	QRCode                     string `bson:"qrCode,omitempty" json:"qr_code,omitempty"`
	QRCodeURL                  string `bson:"qrCodeUrl,omitempty" json:"qr_code_url,omitempty"`
	ActivationCode             string `bson:"activationCode,omitempty" json:"activation_code,omitempty"`
	LPA                        string `bson:"lpa,omitempty" json:"lpa,omitempty"`
	MatchingID                 string `bson:"matchingId,omitempty" json:"matching_id,omitempty"`
	ICCID                      string `bson:"iccid,omitempty" json:"iccid,omitempty"`
	DirectAppleInstallationURL string `bson:"directAppleInstallationUrl,omitempty" json:"direct_apple_installation_url,omitempty"`
}

// Order is the purchase record written once per successful payment. One copy
// lives in the global orders collection (public lookup by ID for the QR page)
// and, for authenticated buyers, a second copy in the per-user collection.
// The two copies are written independently and can drift.
type Order struct {
	ID              string            `bson:"_id" json:"id"`
	PackageID       string            `bson:"packageId" json:"package_id"`
	PlanName        string            `bson:"planName,omitempty" json:"plan_name,omitempty"`
	CustomerEmail   string            `bson:"customerEmail,omitempty" json:"customer_email,omitempty"`
	UserID          string            `bson:"userId,omitempty" json:"user_id,omitempty"`
	AmountCents     int64             `bson:"amountCents" json:"amount_cents"`
	Currency        string            `bson:"currency" json:"currency"`
	Status          OrderStatus       `bson:"status" json:"status"`
	PaymentProvider string            `bson:"paymentProvider,omitempty" json:"payment_provider,omitempty"`
	CountryCode     string            `bson:"countryCode,omitempty" json:"country_code,omitempty"`
	CountryName     string            `bson:"countryName,omitempty" json:"country_name,omitempty"`
	ICCID           string            `bson:"iccid,omitempty" json:"iccid,omitempty"`
	Provider        *ProviderResponse `bson:"providerResponse,omitempty" json:"provider_response,omitempty"`
	CreatedAt       time.Time         `bson:"createdAt" json:"created_at"`
	UpdatedAt       time.Time         `bson:"updatedAt" json:"updated_at"`
}

func (o *Order) IsZero() bool  { return o == nil || o.ID == "" }
func (o *Order) IsTopup() bool { return strings.HasPrefix(o.ID, TopupIDPrefix) }

// TopupIDPrefix marks synthetic order IDs that extend an existing eSIM
// instead of provisioning a new one.
const TopupIDPrefix = "topup-"

// NewOrderID builds the synthetic order identifier {planId}-{timestamp}-{random}.
func NewOrderID(packageID string, now time.Time) string {
	return fmt.Sprintf("%s-%d-%s", packageID, now.Unix(), randToken())
}

// NewTopupOrderID builds topup-{iccid}-{timestamp}-{random}.
func NewTopupOrderID(iccid string, now time.Time) string {
	return fmt.Sprintf("%s%s-%d-%s", TopupIDPrefix, iccid, now.Unix(), randToken())
}

func randToken() string {
	return strings.ToLower(ulid.Make().String()[16:])
}

// TopupICCID extracts the target ICCID from a topup order ID, or "" when the
// ID is not a topup.
func TopupICCID(orderID string) string {
	if !strings.HasPrefix(orderID, TopupIDPrefix) {
		return ""
	}
	rest := strings.TrimPrefix(orderID, TopupIDPrefix)
	if i := strings.Index(rest, "-"); i > 0 {
		return rest[:i]
	}
	return rest
}

// ParseAmountCents converts a decimal money string ("12.34") from a redirect
// parameter into minor units. Malformed input yields 0, like the original.
func ParseAmountCents(total string) int64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(total), 64)
	if err != nil {
		return 0
	}
	return int64(math.Round(f * 100))
}

// Topup records a data extension of an existing eSIM. It never carries its
// own QR code.
type Topup struct {
	ID          string    `bson:"_id" json:"id"`
	ICCID       string    `bson:"iccid" json:"iccid"`
	PackageID   string    `bson:"packageId" json:"package_id"`
	AmountCents int64     `bson:"amountCents" json:"amount_cents"`
	Currency    string    `bson:"currency" json:"currency"`
	CreatedAt   time.Time `bson:"createdAt" json:"created_at"`
}

// Provisioning status poll terminal states.
const (
	ProvisioningCompleted = "completed"
	ProvisioningSucceeded = "success"
	ProvisioningFailed    = "failed"
)

// ProvisioningStatus is the backend-job progress document polled by the
// reconciler, keyed by order ID.
type ProvisioningStatus struct {
	OrderID   string    `bson:"_id" json:"order_id"`
	Status    string    `bson:"status" json:"status"`
	Error     string    `bson:"error,omitempty" json:"error,omitempty"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updated_at"`
}

func (s *ProvisioningStatus) Terminal() bool {
	if s == nil {
		return false
	}
	switch s.Status {
	case ProvisioningCompleted, ProvisioningSucceeded, ProvisioningFailed:
		return true
	}
	return false
}

func (s *ProvisioningStatus) Failed() bool { return s != nil && s.Status == ProvisioningFailed }

// PendingOrder is the checkout-time record cached under the synthetic order
// ID. It is the authoritative order -> package mapping; the string-parsing
// fallbacks in the reconciler only exist for records that were never written
// or already expired.
type PendingOrder struct {
	OrderID       string    `json:"order_id"`
	PackageID     string    `json:"package_id"`
	PlanName      string    `json:"plan_name,omitempty"`
	CustomerEmail string    `json:"customer_email,omitempty"`
	AmountCents   int64     `json:"amount_cents"`
	Currency      string    `json:"currency"`
	Type          string    `json:"type"` // "order" | "topup"
	ICCID         string    `json:"iccid,omitempty"`
	PaymentMethod string    `json:"payment_method"`
	CreatedAt     time.Time `json:"created_at"`
}

func (p *PendingOrder) IsTopup() bool { return p != nil && p.Type == "topup" }
