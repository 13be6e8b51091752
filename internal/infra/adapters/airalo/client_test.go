// File: internal/infra/adapters/airalo/client_test.go
package airalo

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"github.com/HOLYLABS972/esim-main-sub001/internal/config"
	"github.com/HOLYLABS972/esim-main-sub001/internal/domain"
	"github.com/HOLYLABS972/esim-main-sub001/internal/domain/ports/adapter"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger := zerolog.New(io.Discard)
	c, err := NewClient(&config.AiraloConfig{
		ClientID:     "cid",
		ClientSecret: "secret",
		BaseURL:      srv.URL,
	}, &logger)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c, srv
}

func tokenHandler(counter *int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(counter, 1)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"data":{"access_token":"tok-1","expires_in":3600}}`)
	}
}

func TestClient_TokenCached(t *testing.T) {
	var tokenCalls int64
	mux := http.NewServeMux()
	mux.HandleFunc("/token", tokenHandler(&tokenCalls))
	mux.HandleFunc("/countries", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("missing bearer token, got %q", got)
		}
		io.WriteString(w, `{"data":[{"code":"US","name":"United States","slug":"united-states"}]}`)
	})

	c, _ := newTestClient(t, mux)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		countries, err := c.ListCountries(ctx)
		if err != nil {
			t.Fatalf("list countries: %v", err)
		}
		if len(countries) != 1 || countries[0].Code != "US" {
			t.Fatalf("unexpected countries: %+v", countries)
		}
	}
	if n := atomic.LoadInt64(&tokenCalls); n != 1 {
		t.Fatalf("token endpoint should be hit once, got %d", n)
	}
}

func TestClient_CreateOrder(t *testing.T) {
	var tokenCalls int64
	mux := http.NewServeMux()
	mux.HandleFunc("/token", tokenHandler(&tokenCalls))
	mux.HandleFunc("/orders", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		io.WriteString(w, `{"data":{
			"id": 424242,
			"package": "planA-30days-3gb",
			"data": "3 GB",
			"validity": 30,
			"sims": [{"iccid":"8900000000000000001","qrcode":"LPA:1$example.com$XYZ","qrcode_url":"https://cdn.example/qr.png"}]
		}}`)
	})

	c, _ := newTestClient(t, mux)
	res, err := c.CreateOrder(context.Background(), adapter.CreateOrderRequest{
		PackageID: "planA-30days-3gb", Quantity: "1", ToEmail: "buyer@example.com",
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if res.ProviderOrderID != "424242" || res.ValidityDays != 30 {
		t.Fatalf("unexpected order result: %+v", res)
	}
	if len(res.SIMs) != 1 || res.SIMs[0].ICCID != "8900000000000000001" {
		t.Fatalf("unexpected sims: %+v", res.SIMs)
	}
	if res.SIMs[0].QRCode != "LPA:1$example.com$XYZ" {
		t.Fatalf("qr payload lost: %+v", res.SIMs[0])
	}
}

func TestClient_GetQRCode_NotFound(t *testing.T) {
	var tokenCalls int64
	mux := http.NewServeMux()
	mux.HandleFunc("/token", tokenHandler(&tokenCalls))
	mux.HandleFunc("/orders/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	c, _ := newTestClient(t, mux)
	_, err := c.GetQRCode(context.Background(), "999")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not-found, got: %v", err)
	}
}

func TestClient_GetUsage(t *testing.T) {
	var tokenCalls int64
	mux := http.NewServeMux()
	mux.HandleFunc("/token", tokenHandler(&tokenCalls))
	mux.HandleFunc("/sims/8900000000000000001/usage", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data":{"remaining":2048,"total":3072,"status":"ACTIVE","expired_at":"2026-09-30 12:00:00"}}`)
	})

	c, _ := newTestClient(t, mux)
	u, err := c.GetUsage(context.Background(), "8900000000000000001")
	if err != nil {
		t.Fatalf("get usage: %v", err)
	}
	if u.RemainingMB != 2048 || u.TotalMB != 3072 || u.Status != "ACTIVE" {
		t.Fatalf("unexpected usage: %+v", u)
	}
	if u.ExpiresAt.IsZero() {
		t.Fatalf("expiry should be parsed")
	}
}

func TestClient_ListPackages(t *testing.T) {
	var tokenCalls int64
	mux := http.NewServeMux()
	mux.HandleFunc("/token", tokenHandler(&tokenCalls))
	mux.HandleFunc("/packages", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data":[
			{"slug":"us-30days-3gb","name":"US 3GB","type":"sim","price":15.5,"data_amount":3,"data_unit":"GB","validity":30,"country_code":"US"},
			{"slug":"us-30days-unl","name":"US Unlimited","type":"sim","price":45,"data_amount":10,"data_unit":"GB","validity":30,"country_code":"US","is_unlimited":true},
			{"slug":"change-30days-3gb","name":"3GB Topup","type":"topup","price":12,"data_amount":3072,"data_unit":"MB","validity":30}
		]}`)
	})

	c, _ := newTestClient(t, mux)
	pkgs, err := c.ListPackages(context.Background())
	if err != nil {
		t.Fatalf("list packages: %v", err)
	}
	if len(pkgs) != 3 {
		t.Fatalf("expected 3 packages, got %d", len(pkgs))
	}

	std := pkgs[0]
	if std.PriceCents != 1550 || std.CapacityMB != 3*1024 {
		t.Fatalf("price or capacity conversion wrong: %+v", std)
	}
	if len(std.CountryCodes) != 1 || std.CountryCodes[0] != "US" {
		t.Fatalf("country code lost: %+v", std)
	}
	if pkgs[1].CapacityMB != -1 {
		t.Fatalf("unlimited flag should force capacity -1: %+v", pkgs[1])
	}
	if !pkgs[2].TopupOnly || pkgs[2].CapacityMB != 3072 {
		t.Fatalf("topup package mapped wrong: %+v", pkgs[2])
	}
}
