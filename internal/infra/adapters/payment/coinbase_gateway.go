// File: internal/infra/adapters/payment/coinbase_gateway.go
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/HOLYLABS972/esim-main-sub001/internal/domain"
	"github.com/HOLYLABS972/esim-main-sub001/internal/domain/model"
	"github.com/HOLYLABS972/esim-main-sub001/internal/domain/ports/adapter"
)

var _ adapter.PaymentProvider = (*CoinbaseGateway)(nil)

const coinbaseAPIVersion = "2018-03-22"

// CoinbaseGateway implements adapter.PaymentProvider against Coinbase
// Commerce charges. The success redirect carries order_id, email and total;
// VerifyCharge exists because crypto settlement can lag the redirect.
type CoinbaseGateway struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewCoinbaseGateway(apiKey string) (*CoinbaseGateway, error) {
	if apiKey == "" {
		return nil, errors.New("coinbase api key empty")
	}
	return &CoinbaseGateway{
		apiKey:  apiKey,
		baseURL: "https://api.commerce.coinbase.com",
		client:  &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (c *CoinbaseGateway) Name() string { return "coinbase" }

func (c *CoinbaseGateway) CreateCheckout(ctx context.Context, pending *model.PendingOrder, successURL, cancelURL string) (*adapter.CheckoutSession, error) {
	redirect := fmt.Sprintf("%s?order_id=%s&email=%s&total=%.2f",
		successURL,
		url.QueryEscape(pending.OrderID),
		url.QueryEscape(pending.CustomerEmail),
		float64(pending.AmountCents)/100,
	)
	payload := map[string]any{
		"name":         pending.PlanName,
		"description":  fmt.Sprintf("eSIM order %s", pending.OrderID),
		"pricing_type": "fixed_price",
		"local_price": map[string]string{
			"amount":   fmt.Sprintf("%.2f", float64(pending.AmountCents)/100),
			"currency": orCurrency(pending.Currency),
		},
		"metadata": map[string]string{
			"order_id":   pending.OrderID,
			"package_id": pending.PackageID,
			"email":      pending.CustomerEmail,
		},
		"redirect_url": redirect,
		"cancel_url":   cancelURL,
	}
	b, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/charges", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-CC-Api-Key", c.apiKey)
	req.Header.Set("X-CC-Version", coinbaseAPIVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("coinbase create charge http %d", resp.StatusCode)
	}
	var out struct {
		Data struct {
			Code      string `json:"code"`
			HostedURL string `json:"hosted_url"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if out.Data.Code == "" || out.Data.HostedURL == "" {
		return nil, errors.New("coinbase charge incomplete")
	}
	return &adapter.CheckoutSession{ID: out.Data.Code, URL: out.Data.HostedURL}, nil
}

// VerifyCharge checks the charge timeline for a settled state. Crypto
// payments can still be pending at redirect time, so PENDING counts as paid
// for reconciliation purposes.
func (c *CoinbaseGateway) VerifyCharge(ctx context.Context, chargeID string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/charges/"+url.PathEscape(chargeID), nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("X-CC-Api-Key", c.apiKey)
	req.Header.Set("X-CC-Version", coinbaseAPIVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return false, domain.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, fmt.Errorf("coinbase get charge http %d", resp.StatusCode)
	}
	var out struct {
		Data struct {
			Timeline []struct {
				Status string `json:"status"`
			} `json:"timeline"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, err
	}
	for _, t := range out.Data.Timeline {
		switch t.Status {
		case "COMPLETED", "RESOLVED", "PENDING":
			return true, nil
		}
	}
	return false, nil
}

func (c *CoinbaseGateway) RetrieveSession(ctx context.Context, sessionID string) (*adapter.SessionInfo, error) {
	return nil, errUnsupported()
}

func errUnsupported() error { return domain.ErrUnsupported }
