// File: internal/infra/web/server.go
package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/HOLYLABS972/esim-main-sub001/internal/domain/ports/repository"
	"github.com/HOLYLABS972/esim-main-sub001/internal/usecase"
)

type Server struct {
	reconcileUC usecase.ReconcileUseCase
	checkoutUC  usecase.CheckoutUseCase
	orderUC     usecase.OrderUseCase
	planUC      usecase.PlanUseCase
	catalogUC   usecase.CatalogUseCase
	referralUC  usecase.ReferralUseCase
	syncUC      usecase.SyncUseCase
	users       repository.UserRepository
	auth        *AuthManager
	log         *zerolog.Logger
}

func NewServer(
	reconcileUC usecase.ReconcileUseCase,
	checkoutUC usecase.CheckoutUseCase,
	orderUC usecase.OrderUseCase,
	planUC usecase.PlanUseCase,
	catalogUC usecase.CatalogUseCase,
	referralUC usecase.ReferralUseCase,
	syncUC usecase.SyncUseCase,
	users repository.UserRepository,
	auth *AuthManager,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		reconcileUC: reconcileUC,
		checkoutUC:  checkoutUC,
		orderUC:     orderUC,
		planUC:      planUC,
		catalogUC:   catalogUC,
		referralUC:  referralUC,
		syncUC:      syncUC,
		users:       users,
		auth:        auth,
		log:         logger,
	}
}

// Router assembles the public, authenticated and admin route trees.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(s.auth.WithUser)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Public storefront surface. The payment-success landing must work
		// for anonymous Coinbase buyers, and the QR page looks orders up by
		// ID with no session.
		r.Get("/payments/success", s.handlePaymentSuccess)
		r.Post("/checkout", s.handleCheckout)
		r.Get("/orders/{id}", s.handleGetOrder)
		r.Get("/plans", s.handleListPlans)
		r.Get("/plans/topups", s.handleListTopupPlans)
		r.Get("/countries", s.handleListCountries)
		r.Get("/regions", s.handleListRegions)
		r.Get("/referrals/{code}", s.handleValidateReferral)

		// Buyer surface.
		r.Group(func(r chi.Router) {
			r.Use(RequireUser)
			r.Get("/users/me/esims", s.handleMyEsims)
			r.Get("/esims/{iccid}/usage", s.handleUsage)
			r.Get("/esims/{iccid}/topups", s.handleTopupHistory)
			r.Post("/referrals", s.handleGenerateReferral)
			r.Get("/referrals/me/code", s.handleMyReferral)
			r.Post("/referrals/{code}/redeem", s.handleRedeemReferral)
		})

		// Admin surface.
		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireAdmin)
			r.Get("/plans", s.handleAdminListPlans)
			r.Post("/plans", s.handleAdminUpsertPlan)
			r.Put("/plans/{slug}", s.handleAdminUpsertPlan)
			r.Delete("/plans/{slug}", s.handleAdminDeletePlan)
			r.Post("/sync", s.handleAdminSync)
			r.Patch("/countries/{code}/hidden", s.handleAdminHideCountry)
			r.Patch("/regions/{slug}/hidden", s.handleAdminHideRegion)
			r.Get("/referrals", s.handleAdminListReferrals)
			r.Get("/users", s.handleAdminListUsers)
		})
	})
	return r
}
