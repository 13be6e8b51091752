// File: internal/infra/adapters/airalo/client.go
package airalo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/HOLYLABS972/esim-main-sub001/internal/config"
	"github.com/HOLYLABS972/esim-main-sub001/internal/domain"
	"github.com/HOLYLABS972/esim-main-sub001/internal/domain/ports/adapter"
)

var _ adapter.EsimProvider = (*Client)(nil)

// Client talks to the Airalo partners API. Auth is OAuth2 client-credentials;
// the token is cached in memory and refreshed five minutes before expiry.
type Client struct {
	clientID     string
	clientSecret string
	baseURL      string
	http         *http.Client
	log          *zerolog.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewClient(cfg *config.AiraloConfig, logger *zerolog.Logger) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("airalo client id and secret are required")
	}
	base := cfg.BaseURL
	if base == "" {
		base = "https://partners-api.airalo.com/v2"
		if cfg.Sandbox {
			base = "https://sandbox-partners-api.airalo.com/v2"
		}
	}
	return &Client{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		baseURL:      strings.TrimRight(base, "/"),
		http:         &http.Client{Timeout: 30 * time.Second},
		log:          logger,
	}, nil
}

func (c *Client) Name() string { return "airalo" }

func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	form := url.Values{}
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("airalo token http %d", resp.StatusCode)
	}
	var out struct {
		Data struct {
			AccessToken string `json:"access_token"`
			ExpiresIn   int    `json:"expires_in"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.Data.AccessToken == "" {
		return "", errors.New("airalo token response empty")
	}
	c.accessToken = out.Data.AccessToken
	// refresh five minutes early
	c.tokenExpiry = time.Now().Add(time.Duration(out.Data.ExpiresIn-300) * time.Second)
	return c.accessToken, nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	tok, err := c.token(ctx)
	if err != nil {
		return err
	}
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("airalo %s %s http %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// wire shapes

type wireSIM struct {
	ICCID                      string `json:"iccid"`
	QRCode                     string `json:"qrcode"`
	QRCodeURL                  string `json:"qrcode_url"`
	LPA                        string `json:"lpa"`
	MatchingID                 string `json:"matching_id"`
	DirectAppleInstallationURL string `json:"direct_apple_installation_url"`
}

func (c *Client) CreateOrder(ctx context.Context, req adapter.CreateOrderRequest) (*adapter.CreateOrderResult, error) {
	payload := map[string]any{
		"package_id":  req.PackageID,
		"quantity":    req.Quantity,
		"description": req.Description,
	}
	if req.ToEmail != "" {
		payload["to_email"] = req.ToEmail
	}
	var out struct {
		Data struct {
			ID       int64     `json:"id"`
			Package  string    `json:"package"`
			Data     string    `json:"data"`
			Validity int       `json:"validity"`
			SIMs     []wireSIM `json:"sims"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/orders", payload, &out); err != nil {
		return nil, err
	}
	res := &adapter.CreateOrderResult{
		ProviderOrderID: fmt.Sprintf("%d", out.Data.ID),
		Package:         out.Data.Package,
		Data:            out.Data.Data,
		ValidityDays:    out.Data.Validity,
	}
	for _, s := range out.Data.SIMs {
		res.SIMs = append(res.SIMs, adapter.SIM(s))
	}
	return res, nil
}

func (c *Client) CreateTopup(ctx context.Context, iccid, packageID string) (*adapter.TopupResult, error) {
	payload := map[string]any{
		"iccid":      iccid,
		"package_id": packageID,
	}
	var out struct {
		Data struct {
			ID int64 `json:"id"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/orders/topups", payload, &out); err != nil {
		return nil, err
	}
	return &adapter.TopupResult{TopupID: fmt.Sprintf("%d", out.Data.ID)}, nil
}

func (c *Client) GetQRCode(ctx context.Context, orderID string) (*adapter.QRCodeResult, error) {
	var out struct {
		Data struct {
			SIMs []wireSIM `json:"sims"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(orderID), nil, &out); err != nil {
		return nil, err
	}
	if len(out.Data.SIMs) == 0 {
		return &adapter.QRCodeResult{}, nil
	}
	s := out.Data.SIMs[0]
	return &adapter.QRCodeResult{
		QRCode:                     s.QRCode,
		QRCodeURL:                  s.QRCodeURL,
		ActivationCode:             s.QRCode,
		ICCID:                      s.ICCID,
		LPA:                        s.LPA,
		MatchingID:                 s.MatchingID,
		DirectAppleInstallationURL: s.DirectAppleInstallationURL,
	}, nil
}

func (c *Client) GetUsage(ctx context.Context, iccid string) (*adapter.UsageResult, error) {
	var out struct {
		Data struct {
			Remaining int64  `json:"remaining"`
			Total     int64  `json:"total"`
			Status    string `json:"status"`
			ExpiredAt string `json:"expired_at"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/sims/"+url.PathEscape(iccid)+"/usage", nil, &out); err != nil {
		return nil, err
	}
	res := &adapter.UsageResult{
		ICCID:       iccid,
		RemainingMB: out.Data.Remaining,
		TotalMB:     out.Data.Total,
		Status:      out.Data.Status,
	}
	if out.Data.ExpiredAt != "" {
		if t, err := time.Parse("2006-01-02 15:04:05", out.Data.ExpiredAt); err == nil {
			res.ExpiresAt = t
		}
	}
	return res, nil
}

type wirePackage struct {
	Slug        string  `json:"slug"`
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Price       float64 `json:"price"`
	DataAmount  int64   `json:"data_amount"`
	DataUnit    string  `json:"data_unit"`
	Validity    int     `json:"validity"`
	CountryCode string  `json:"country_code"`
	RegionSlug  string  `json:"region_slug"`
	IsUnlimited bool    `json:"is_unlimited"`
	HasSMS      bool    `json:"has_sms"`
}

func (c *Client) ListPackages(ctx context.Context) ([]adapter.CatalogPackage, error) {
	var out struct {
		Data []wirePackage `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/packages?limit=1000", nil, &out); err != nil {
		return nil, err
	}
	pkgs := make([]adapter.CatalogPackage, 0, len(out.Data))
	for _, w := range out.Data {
		p := adapter.CatalogPackage{
			Slug:       w.Slug,
			Name:       w.Name,
			PriceCents: int64(w.Price*100 + 0.5),
			CapacityMB: w.DataAmount,
			PeriodDays: w.Validity,
			RegionSlug: w.RegionSlug,
			HasSMS:     w.HasSMS,
			TopupOnly:  strings.EqualFold(w.Type, "topup"),
		}
		if strings.EqualFold(w.DataUnit, "GB") {
			p.CapacityMB = w.DataAmount * 1024
		}
		if w.IsUnlimited || w.DataAmount < 0 {
			p.CapacityMB = -1
		}
		if w.CountryCode != "" {
			p.CountryCodes = []string{w.CountryCode}
		}
		pkgs = append(pkgs, p)
	}
	return pkgs, nil
}

func (c *Client) ListCountries(ctx context.Context) ([]adapter.CatalogCountry, error) {
	var out struct {
		Data []struct {
			Code string `json:"code"`
			Name string `json:"name"`
			Slug string `json:"slug"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/countries", nil, &out); err != nil {
		return nil, err
	}
	countries := make([]adapter.CatalogCountry, 0, len(out.Data))
	for _, w := range out.Data {
		countries = append(countries, adapter.CatalogCountry{Code: w.Code, Name: w.Name, Slug: w.Slug})
	}
	return countries, nil
}

func (c *Client) ListRegions(ctx context.Context) ([]adapter.CatalogRegion, error) {
	var out struct {
		Data []struct {
			Slug      string `json:"slug"`
			Name      string `json:"name"`
			Countries []struct {
				Code string `json:"code"`
			} `json:"countries"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/regions", nil, &out); err != nil {
		return nil, err
	}
	regions := make([]adapter.CatalogRegion, 0, len(out.Data))
	for _, w := range out.Data {
		r := adapter.CatalogRegion{Slug: w.Slug, Name: w.Name}
		for _, cc := range w.Countries {
			r.CountryCodes = append(r.CountryCodes, cc.Code)
		}
		regions = append(regions, r)
	}
	return regions, nil
}
