// File: internal/infra/adapters/payment/stripe_gateway.go
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/HOLYLABS972/esim-main-sub001/internal/domain/model"
	"github.com/HOLYLABS972/esim-main-sub001/internal/domain/ports/adapter"
)

var _ adapter.PaymentProvider = (*StripeGateway)(nil)

// StripeGateway implements adapter.PaymentProvider against the Checkout
// Sessions REST API. The success redirect only carries the session ID, so
// RetrieveSession is the path that recovers amount/currency/email.
type StripeGateway struct {
	apiKey string
	client *http.Client
}

func NewStripeGateway(apiKey string) (*StripeGateway, error) {
	if apiKey == "" {
		return nil, errors.New("stripe api key empty")
	}
	return &StripeGateway{
		apiKey: apiKey,
		client: &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (s *StripeGateway) Name() string { return "stripe" }

func (s *StripeGateway) CreateCheckout(ctx context.Context, pending *model.PendingOrder, successURL, cancelURL string) (*adapter.CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", successURL+"?session_id={CHECKOUT_SESSION_ID}&order_id="+url.QueryEscape(pending.OrderID))
	form.Set("cancel_url", cancelURL)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", strings.ToLower(orCurrency(pending.Currency)))
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(pending.AmountCents, 10))
	form.Set("line_items[0][price_data][product_data][name]", pending.PlanName)
	form.Set("metadata[order_id]", pending.OrderID)
	form.Set("metadata[package_id]", pending.PackageID)
	if pending.CustomerEmail != "" {
		form.Set("customer_email", pending.CustomerEmail)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"https://api.stripe.com/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("stripe checkout http %d", resp.StatusCode)
	}
	var out struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if out.ID == "" || out.URL == "" {
		return nil, errors.New("stripe checkout session incomplete")
	}
	return &adapter.CheckoutSession{ID: out.ID, URL: out.URL}, nil
}

// VerifyCharge: Stripe has no charge-reference flow here.
func (s *StripeGateway) VerifyCharge(ctx context.Context, chargeID string) (bool, error) {
	return false, errUnsupported()
}

func (s *StripeGateway) RetrieveSession(ctx context.Context, sessionID string) (*adapter.SessionInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		"https://api.stripe.com/v1/checkout/sessions/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("stripe retrieve session http %d", resp.StatusCode)
	}
	var out struct {
		AmountTotal     int64             `json:"amount_total"`
		Currency        string            `json:"currency"`
		CustomerEmail   string            `json:"customer_email"`
		PaymentStatus   string            `json:"payment_status"`
		Metadata        map[string]string `json:"metadata"`
		CustomerDetails struct {
			Email string `json:"email"`
		} `json:"customer_details"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	email := out.CustomerDetails.Email
	if email == "" {
		email = out.CustomerEmail
	}
	return &adapter.SessionInfo{
		AmountCents:   out.AmountTotal,
		Currency:      strings.ToUpper(out.Currency),
		CustomerEmail: email,
		PaymentStatus: out.PaymentStatus,
		Metadata:      out.Metadata,
	}, nil
}

func orCurrency(c string) string {
	if c == "" {
		return "USD"
	}
	return c
}
