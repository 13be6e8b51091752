// File: internal/infra/adapters/payment/lemonsqueezy_gateway.go
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/HOLYLABS972/esim-main-sub001/internal/domain/model"
	"github.com/HOLYLABS972/esim-main-sub001/internal/domain/ports/adapter"
)

var _ adapter.PaymentProvider = (*LemonSqueezyGateway)(nil)

// LemonSqueezyGateway implements adapter.PaymentProvider against the
// JSON:API checkouts endpoint. Order identity travels in checkout_data.custom
// and comes back on the success redirect.
type LemonSqueezyGateway struct {
	apiKey    string
	storeID   string
	variantID string
	client    *http.Client
}

func NewLemonSqueezyGateway(apiKey, storeID, variantID string) (*LemonSqueezyGateway, error) {
	if apiKey == "" || storeID == "" || variantID == "" {
		return nil, errors.New("lemonsqueezy api key, store id and variant id are all required")
	}
	return &LemonSqueezyGateway{
		apiKey:    apiKey,
		storeID:   storeID,
		variantID: variantID,
		client:    &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (l *LemonSqueezyGateway) Name() string { return "lemonsqueezy" }

func (l *LemonSqueezyGateway) CreateCheckout(ctx context.Context, pending *model.PendingOrder, successURL, cancelURL string) (*adapter.CheckoutSession, error) {
	payload := map[string]any{
		"data": map[string]any{
			"type": "checkouts",
			"attributes": map[string]any{
				"custom_price": pending.AmountCents,
				"product_options": map[string]any{
					"name":         pending.PlanName,
					"redirect_url": successURL + "?order_id=" + pending.OrderID,
				},
				"checkout_data": map[string]any{
					"email": pending.CustomerEmail,
					"custom": map[string]string{
						"order_id":   pending.OrderID,
						"package_id": pending.PackageID,
					},
				},
			},
			"relationships": map[string]any{
				"store": map[string]any{
					"data": map[string]string{"type": "stores", "id": l.storeID},
				},
				"variant": map[string]any{
					"data": map[string]string{"type": "variants", "id": l.variantID},
				},
			},
		},
	}
	b, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"https://api.lemonsqueezy.com/v1/checkouts", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+l.apiKey)
	req.Header.Set("Content-Type", "application/vnd.api+json")
	req.Header.Set("Accept", "application/vnd.api+json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("lemonsqueezy checkout http %d", resp.StatusCode)
	}
	var out struct {
		Data struct {
			ID         string `json:"id"`
			Attributes struct {
				URL string `json:"url"`
			} `json:"attributes"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if out.Data.Attributes.URL == "" {
		return nil, errors.New("lemonsqueezy checkout incomplete")
	}
	return &adapter.CheckoutSession{ID: out.Data.ID, URL: out.Data.Attributes.URL}, nil
}

func (l *LemonSqueezyGateway) VerifyCharge(ctx context.Context, chargeID string) (bool, error) {
	return false, errUnsupported()
}

func (l *LemonSqueezyGateway) RetrieveSession(ctx context.Context, sessionID string) (*adapter.SessionInfo, error) {
	return nil, errUnsupported()
}
