// File: internal/infra/web/handlers.go
package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/HOLYLABS972/esim-main-sub001/internal/domain"
	"github.com/HOLYLABS972/esim-main-sub001/internal/domain/model"
	"github.com/HOLYLABS972/esim-main-sub001/internal/usecase"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain sentinels onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrUnknownProvider),
		errors.Is(err, domain.ErrReferralExpired),
		errors.Is(err, domain.ErrReferralOwn):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrUnauthenticated):
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	case errors.Is(err, domain.ErrAlreadyExists):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}

// handlePaymentSuccess is the landing endpoint the payment providers redirect
// to. It always answers 200 with a terminal state document; a failed
// reconciliation is a rendered support message, not a transport error.
func (s *Server) handlePaymentSuccess(w http.ResponseWriter, r *http.Request) {
	params := usecase.RedirectParamsFromQuery(r.URL.Query())
	res := s.reconcileUC.Process(r.Context(), UserFrom(r.Context()), params)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req usecase.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	res, err := s.checkoutUC.Start(r.Context(), UserFrom(r.Context()), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := s.orderUC.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (s *Server) handleMyEsims(w http.ResponseWriter, r *http.Request) {
	u := UserFrom(r.Context())
	orders, err := s.orderUC.ListForUser(r.Context(), u.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	usage, err := s.orderUC.Usage(r.Context(), chi.URLParam(r, "iccid"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, usage)
}

func (s *Server) handleTopupHistory(w http.ResponseWriter, r *http.Request) {
	topups, err := s.orderUC.Topups(r.Context(), chi.URLParam(r, "iccid"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, topups)
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	country := r.URL.Query().Get("country")
	capability := model.PlanCapability(r.URL.Query().Get("capability"))
	plans, err := s.planUC.ListForCountry(r.Context(), country, capability)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plans)
}

func (s *Server) handleListTopupPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.planUC.ListTopups(r.Context(), r.URL.Query().Get("country"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plans)
}

func (s *Server) handleListCountries(w http.ResponseWriter, r *http.Request) {
	countries, err := s.catalogUC.Countries(r.Context(), false)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, countries)
}

func (s *Server) handleListRegions(w http.ResponseWriter, r *http.Request) {
	regions, err := s.catalogUC.Regions(r.Context(), false)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, regions)
}

// ----- referrals -----

func (s *Server) handleGenerateReferral(w http.ResponseWriter, r *http.Request) {
	rc, err := s.referralUC.Generate(r.Context(), UserFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rc)
}

func (s *Server) handleMyReferral(w http.ResponseWriter, r *http.Request) {
	rc, err := s.referralUC.Mine(r.Context(), UserFrom(r.Context()).ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rc)
}

func (s *Server) handleValidateReferral(w http.ResponseWriter, r *http.Request) {
	rc, err := s.referralUC.Validate(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rc)
}

func (s *Server) handleRedeemReferral(w http.ResponseWriter, r *http.Request) {
	rc, err := s.referralUC.Redeem(r.Context(), UserFrom(r.Context()), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rc)
}

// ----- admin -----

func (s *Server) handleAdminListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.planUC.ListAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plans)
}

func (s *Server) handleAdminUpsertPlan(w http.ResponseWriter, r *http.Request) {
	var p model.Plan
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if slug := chi.URLParam(r, "slug"); slug != "" {
		p.Slug = slug
	}
	if err := s.planUC.Upsert(r.Context(), &p); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, &p)
}

func (s *Server) handleAdminDeletePlan(w http.ResponseWriter, r *http.Request) {
	if err := s.planUC.Delete(r.Context(), chi.URLParam(r, "slug")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAdminSync(w http.ResponseWriter, r *http.Request) {
	report, err := s.syncUC.SyncAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type hiddenRequest struct {
	Hidden bool `json:"hidden"`
}

func parseHidden(r *http.Request) (bool, error) {
	if v := r.URL.Query().Get("hidden"); v != "" {
		return strconv.ParseBool(v)
	}
	var req hiddenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return false, err
	}
	return req.Hidden, nil
}

func (s *Server) handleAdminHideCountry(w http.ResponseWriter, r *http.Request) {
	hidden, err := parseHidden(r)
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.catalogUC.SetCountryHidden(r.Context(), chi.URLParam(r, "code"), hidden); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAdminHideRegion(w http.ResponseWriter, r *http.Request) {
	hidden, err := parseHidden(r)
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.catalogUC.SetRegionHidden(r.Context(), chi.URLParam(r, "slug"), hidden); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAdminListReferrals(w http.ResponseWriter, r *http.Request) {
	codes, err := s.referralUC.ListAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, codes)
}

func (s *Server) handleAdminListUsers(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}
	users, err := s.users.List(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}
