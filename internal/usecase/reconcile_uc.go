// File: internal/usecase/reconcile_uc.go
package usecase

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/HOLYLABS972/esim-main-sub001/internal/domain"
	"github.com/HOLYLABS972/esim-main-sub001/internal/domain/model"
	"github.com/HOLYLABS972/esim-main-sub001/internal/domain/ports/adapter"
	"github.com/HOLYLABS972/esim-main-sub001/internal/domain/ports/repository"
	"github.com/HOLYLABS972/esim-main-sub001/internal/infra/metrics"
)

// RedirectParams are the query parameters a payment provider appends to the
// success redirect. All fields are optional strings; classification decides
// which combination is meaningful.
type RedirectParams struct {
	OrderID       string // order_id | order
	Email         string
	Total         string
	Currency      string
	PaymentMethod string
	SessionID     string
	Plan          string
	Name          string
	ChargeID      string
}

// RedirectParamsFromQuery lifts raw query values into RedirectParams.
func RedirectParamsFromQuery(q url.Values) RedirectParams {
	orderID := q.Get("order_id")
	if orderID == "" {
		orderID = q.Get("order")
	}
	return RedirectParams{
		OrderID:       orderID,
		Email:         q.Get("email"),
		Total:         q.Get("total"),
		Currency:      q.Get("currency"),
		PaymentMethod: q.Get("payment_method"),
		SessionID:     q.Get("session_id"),
		Plan:          q.Get("plan"),
		Name:          q.Get("name"),
		ChargeID:      q.Get("charge_id"),
	}
}

type OrderKind int

const (
	KindOrder OrderKind = iota
	KindTopup
)

type PaymentRoute string

const (
	RouteStripe   PaymentRoute = "stripe"
	RouteCoinbase PaymentRoute = "coinbase"
)

// Classification is the tagged variant produced by the dispatcher.
type Classification struct {
	Kind     OrderKind
	Route    PaymentRoute
	OrderID  string
	ChargeID string
}

// Classify inspects which redirect parameters are present and picks the
// provider route. A session_id means a Stripe return (amount is resolved
// server-side from the session); an order id plus email plus total means a
// Coinbase-style amount-bearing return. A topup- prefixed order ID always
// routes to the topup branch regardless of provider.
func Classify(p RedirectParams) (Classification, error) {
	c := Classification{OrderID: p.OrderID, ChargeID: p.ChargeID}
	switch {
	case p.SessionID != "":
		c.Route = RouteStripe
	case p.OrderID != "" && p.Email != "" && p.Total != "":
		c.Route = RouteCoinbase
	default:
		return Classification{}, domain.ErrUnknownProvider
	}
	if strings.HasPrefix(p.OrderID, model.TopupIDPrefix) {
		c.Kind = KindTopup
	}
	return c, nil
}

var bracketSlug = regexp.MustCompile(`\[([^\[\]]+)\]`)

// topupNameToSlug maps the fixed set of legacy topup display names to their
// catalog slugs, for redirects that predate the pending-order cache.
var topupNameToSlug = map[string]string{
	"1GB Topup":  "change-7days-1gb",
	"2GB Topup":  "change-15days-2gb",
	"3GB Topup":  "change-30days-3gb",
	"5GB Topup":  "change-30days-5gb",
	"10GB Topup": "change-30days-10gb",
	"20GB Topup": "change-30days-20gb",
}

// validSlug rejects empty values and the placeholder tokens that the synthetic
// topup order-ID format leaks into parsing.
func validSlug(s string) bool {
	if s == "" || s == "topup" {
		return false
	}
	return !strings.HasPrefix(s, model.TopupIDPrefix)
}

// ResolvePackageID recovers the upstream catalog slug for the purchased item.
// The synthetic order ID alone is lossy, so resolution walks a fallback
// chain; the first non-placeholder match wins:
//
//  1. pending-order cache record written at checkout
//  2. bracketed suffix in the plan-name parameter, "3GB Topup [x-30days-3gb]"
//  3. explicit plan query parameter
//  4. static display-name table for known topup names
//  5. structural parse of the order ID: everything before the first numeric
//     token of 10+ digits (the timestamp); the whole ID as a last resort
//
// Exhaustion returns domain.ErrPackageNotResolved: payment has already been
// captured, so the caller must surface a support-facing error.
func ResolvePackageID(pending *model.PendingOrder, p RedirectParams) (string, error) {
	if pending != nil && validSlug(pending.PackageID) {
		return pending.PackageID, nil
	}
	if m := bracketSlug.FindStringSubmatch(p.Name); len(m) == 2 && validSlug(strings.TrimSpace(m[1])) {
		return strings.TrimSpace(m[1]), nil
	}
	if validSlug(p.Plan) {
		return p.Plan, nil
	}
	if slug, ok := topupNameToSlug[strings.TrimSpace(p.Name)]; ok && validSlug(slug) {
		return slug, nil
	}
	if candidate := slugFromOrderID(p.OrderID); validSlug(candidate) {
		return candidate, nil
	}
	return "", domain.ErrPackageNotResolved
}

// slugFromOrderID strips the -{timestamp}-{random} tail: split on '-', find
// the first all-digit token of 10+ characters and keep everything before it.
// Without such a token the full order ID is returned as-is.
func slugFromOrderID(orderID string) string {
	if orderID == "" {
		return ""
	}
	tokens := strings.Split(orderID, "-")
	for i, tok := range tokens {
		if len(tok) >= 10 && isDigits(tok) {
			return strings.Join(tokens[:i], "-")
		}
	}
	return orderID
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ReconcileState is the terminal state of a payment-success flow.
type ReconcileState string

const (
	StateComplete ReconcileState = "complete"
	StateDegraded ReconcileState = "degraded-complete"
	StateError    ReconcileState = "error"
)

// ReconcileResult is what the landing handler renders.
type ReconcileResult struct {
	State   ReconcileState        `json:"state"`
	Order   *model.Order          `json:"order,omitempty"`
	QR      *adapter.QRCodeResult `json:"qr,omitempty"`
	Caveat  string                `json:"caveat,omitempty"`  // degraded-complete detail
	Message string                `json:"message,omitempty"` // error detail
}

// ReconcileUseCase consumes a landed payment redirect and drives
// classification, package resolution, provisioning and dual persistence to a
// terminal state. Process never retries; the stale-order worker picks up what
// the poll ceiling leaves behind.
type ReconcileUseCase interface {
	Process(ctx context.Context, buyer *model.User, params RedirectParams) *ReconcileResult
}

var _ ReconcileUseCase = (*reconcileUC)(nil)

type reconcileUC struct {
	orders   repository.OrderRepository
	statuses repository.ProvisioningStatusRepository
	topups   repository.TopupRepository
	pending  repository.PendingOrderCache
	locker   repository.Locker
	esim     adapter.EsimProvider
	payments map[string]adapter.PaymentProvider

	pollInterval time.Duration
	pollAttempts int

	log *zerolog.Logger
}

func NewReconcileUseCase(
	orders repository.OrderRepository,
	statuses repository.ProvisioningStatusRepository,
	topups repository.TopupRepository,
	pending repository.PendingOrderCache,
	locker repository.Locker,
	esim adapter.EsimProvider,
	payments map[string]adapter.PaymentProvider,
	pollInterval time.Duration,
	pollAttempts int,
	logger *zerolog.Logger,
) *reconcileUC {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	if pollAttempts <= 0 {
		pollAttempts = 30
	}
	return &reconcileUC{
		orders:       orders,
		statuses:     statuses,
		topups:       topups,
		pending:      pending,
		locker:       locker,
		esim:         esim,
		payments:     payments,
		pollInterval: pollInterval,
		pollAttempts: pollAttempts,
		log:          logger,
	}
}

const (
	msgNoOrderInfo       = "No order information found."
	msgSignInRequired    = "Please sign in to complete your purchase."
	msgPackageUnresolved = "We could not determine which package you purchased. Please contact support."
	msgOrderFailed       = "Failed to create your eSIM order. Please contact support."
	msgTopupFailed       = "Failed to apply your topup. Please contact support."
	msgInFlight          = "This payment is already being processed. Please wait a moment."
	caveatEmailDelivery  = "Your eSIM is still being prepared. The QR code will be delivered to your email shortly."
)

func errResult(msg string) *ReconcileResult {
	return &ReconcileResult{State: StateError, Message: msg}
}

func (u *reconcileUC) Process(ctx context.Context, buyer *model.User, params RedirectParams) *ReconcileResult {
	res := u.process(ctx, buyer, params)
	metrics.IncReconcile(string(res.State))
	return res
}

func (u *reconcileUC) process(ctx context.Context, buyer *model.User, params RedirectParams) *ReconcileResult {
	cls, err := Classify(params)
	if err != nil {
		return errResult(msgNoOrderInfo)
	}

	// Idempotency key derived from the provider's own reference. The lock
	// serializes concurrent landings of the same redirect.
	ref := params.SessionID
	if ref == "" {
		ref = params.ChargeID
	}
	if ref == "" {
		ref = cls.OrderID
	}
	lockKey := "reconcile:" + ref
	token, err := u.locker.TryLock(ctx, lockKey, 2*time.Minute)
	if err != nil {
		return errResult(msgInFlight)
	}
	defer func() { _ = u.locker.Unlock(ctx, lockKey, token) }()

	// A reload after the first pass finished lands here with the order already
	// persisted; answer from the stored copy instead of provisioning again.
	if cls.OrderID != "" {
		if existing, err := u.orders.FindByID(ctx, cls.OrderID); err == nil {
			return replayResult(existing)
		}
	}

	var pending *model.PendingOrder
	if cls.OrderID != "" {
		pending, _ = u.pending.Get(ctx, cls.OrderID)
	}

	// Best-effort Coinbase charge verification: failure is logged, never
	// aborts the flow.
	if cls.ChargeID != "" && strings.EqualFold(params.PaymentMethod, "coinbase") {
		if cb, ok := u.payments[string(RouteCoinbase)]; ok {
			if verified, verr := cb.VerifyCharge(ctx, cls.ChargeID); verr != nil || !verified {
				u.log.Warn().Err(verr).Str("charge_id", cls.ChargeID).Msg("coinbase charge verification failed; continuing")
			}
		}
	}

	packageID, err := ResolvePackageID(pending, params)
	if err != nil {
		u.log.Error().Str("order_id", cls.OrderID).Msg("package resolution exhausted after captured payment")
		return errResult(msgPackageUnresolved)
	}

	var res *ReconcileResult
	switch cls.Kind {
	case KindTopup:
		res = u.processTopup(ctx, buyer, cls, params, pending, packageID)
	default:
		res = u.processOrder(ctx, buyer, cls, params, pending, packageID)
	}

	if res.State != StateError && cls.OrderID != "" {
		_ = u.pending.Delete(ctx, cls.OrderID)
	}
	return res
}

// replayResult rebuilds the terminal result for an already-reconciled order.
func replayResult(order *model.Order) *ReconcileResult {
	switch order.Status {
	case model.OrderStatusFailed:
		return errResult(msgOrderFailed)
	case model.OrderStatusPending:
		return &ReconcileResult{State: StateDegraded, Order: order, QR: qrFromOrder(order), Caveat: caveatEmailDelivery}
	default:
		return &ReconcileResult{State: StateComplete, Order: order, QR: qrFromOrder(order)}
	}
}

func qrFromOrder(order *model.Order) *adapter.QRCodeResult {
	p := order.Provider
	if p == nil {
		return nil
	}
	return &adapter.QRCodeResult{
		QRCode:                     p.QRCode,
		QRCodeURL:                  p.QRCodeURL,
		ActivationCode:             p.ActivationCode,
		ICCID:                      p.ICCID,
		LPA:                        p.LPA,
		MatchingID:                 p.MatchingID,
		DirectAppleInstallationURL: p.DirectAppleInstallationURL,
	}
}

func simToQR(created *adapter.CreateOrderResult) *adapter.QRCodeResult {
	if created == nil || len(created.SIMs) == 0 {
		return nil
	}
	s := created.SIMs[0]
	return &adapter.QRCodeResult{
		QRCode:                     s.QRCode,
		QRCodeURL:                  s.QRCodeURL,
		ICCID:                      s.ICCID,
		LPA:                        s.LPA,
		MatchingID:                 s.MatchingID,
		DirectAppleInstallationURL: s.DirectAppleInstallationURL,
	}
}

func (u *reconcileUC) processOrder(ctx context.Context, buyer *model.User, cls Classification, params RedirectParams, pending *model.PendingOrder, packageID string) *ReconcileResult {
	email := params.Email
	amount := model.ParseAmountCents(params.Total)
	currency := strings.ToUpper(params.Currency)
	if pending != nil {
		if email == "" {
			email = pending.CustomerEmail
		}
		if amount == 0 {
			amount = pending.AmountCents
		}
		if currency == "" {
			currency = strings.ToUpper(pending.Currency)
		}
	}

	if cls.Route == RouteStripe {
		// Unauthenticated Stripe buyers fail before any remote call: there is
		// no per-user collection to attach the order to.
		if buyer.IsZero() {
			return errResult(msgSignInRequired)
		}
		if stripe, ok := u.payments[string(RouteStripe)]; ok {
			if sess, err := stripe.RetrieveSession(ctx, params.SessionID); err == nil {
				amount = sess.AmountCents
				if sess.Currency != "" {
					currency = strings.ToUpper(sess.Currency)
				}
				if email == "" {
					email = sess.CustomerEmail
				}
			} else {
				u.log.Warn().Err(err).Str("session_id", params.SessionID).Msg("stripe session retrieval failed; using redirect parameters")
			}
		}
	}
	if currency == "" {
		currency = "USD"
	}

	orderID := cls.OrderID
	if orderID == "" {
		orderID = model.NewOrderID(packageID, time.Now())
	}

	start := time.Now()
	created, err := u.esim.CreateOrder(ctx, adapter.CreateOrderRequest{
		PackageID:   packageID,
		Quantity:    "1",
		ToEmail:     email,
		Description: fmt.Sprintf("eSIM order for %s", email),
	})
	if err != nil {
		u.log.Error().Err(err).Str("order_id", orderID).Str("package_id", packageID).Msg("create order failed after captured payment")
		return errResult(msgOrderFailed)
	}
	metrics.ObserveProvisioning(u.esim.Name(), time.Since(start))

	order := &model.Order{
		ID:              orderID,
		PackageID:       packageID,
		PlanName:        planNameOf(params, pending),
		CustomerEmail:   email,
		AmountCents:     amount,
		Currency:        currency,
		Status:          model.OrderStatusActive,
		PaymentProvider: providerOf(cls, params),
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	if !buyer.IsZero() {
		order.UserID = buyer.ID
	}

	state := StateComplete
	caveat := ""
	var qr *adapter.QRCodeResult

	switch cls.Route {
	case RouteStripe:
		st, timedOut := u.pollStatus(ctx, orderID)
		switch {
		case st.Failed():
			msg := st.Error
			if msg == "" {
				msg = msgOrderFailed
			}
			order.Status = model.OrderStatusFailed
			u.persist(ctx, buyer, order)
			return errResult(msg)
		case timedOut:
			// Explicit timeout-without-retry policy: proceed and tell the
			// buyer the order is still processing.
			state = StateDegraded
			caveat = caveatEmailDelivery
			order.Status = model.OrderStatusPending
		}
		qr = simToQR(created)
	case RouteCoinbase:
		// No polling loop on the Coinbase path; grab the QR immediately if
		// it is ready, otherwise defer to email delivery.
		qr = simToQR(created)
		if qr.Empty() {
			lookup := created.ProviderOrderID
			if lookup == "" {
				lookup = orderID
			}
			if got, err := u.esim.GetQRCode(ctx, lookup); err == nil {
				qr = got
			} else {
				u.log.Warn().Err(err).Str("order_id", orderID).Msg("qr code not ready; deferring to email")
			}
		}
		if qr.Empty() {
			state = StateDegraded
			caveat = caveatEmailDelivery
		}
	}

	if !qr.Empty() {
		order.ICCID = qr.ICCID
		order.Provider = &model.ProviderResponse{
			ProviderOrderID:            created.ProviderOrderID,
			QRCode:                     qr.QRCode,
			QRCodeURL:                  qr.QRCodeURL,
			ActivationCode:             qr.ActivationCode,
			LPA:                        qr.LPA,
			MatchingID:                 qr.MatchingID,
			ICCID:                      qr.ICCID,
			DirectAppleInstallationURL: qr.DirectAppleInstallationURL,
		}
	} else if created.ProviderOrderID != "" {
		order.Provider = &model.ProviderResponse{ProviderOrderID: created.ProviderOrderID}
	}

	u.persist(ctx, buyer, order)
	metrics.IncOrder(order.PaymentProvider, string(order.Status))
	metrics.AddRevenue(currency, amount)

	return &ReconcileResult{State: state, Order: order, QR: qr, Caveat: caveat}
}

func (u *reconcileUC) processTopup(ctx context.Context, buyer *model.User, cls Classification, params RedirectParams, pending *model.PendingOrder, packageID string) *ReconcileResult {
	// Resolution already rejects placeholders, but the topup call is the one
	// remote operation that hard-fails upstream on a bad slug, so check again
	// before spending the call.
	if !validSlug(packageID) {
		return errResult(msgPackageUnresolved)
	}
	iccid := ""
	if pending != nil {
		iccid = pending.ICCID
	}
	if iccid == "" {
		iccid = model.TopupICCID(cls.OrderID)
	}
	if iccid == "" {
		return errResult(msgTopupFailed)
	}

	start := time.Now()
	created, err := u.esim.CreateTopup(ctx, iccid, packageID)
	if err != nil {
		u.log.Error().Err(err).Str("iccid", iccid).Str("package_id", packageID).Msg("create topup failed after captured payment")
		return errResult(msgTopupFailed)
	}
	metrics.ObserveProvisioning(u.esim.Name(), time.Since(start))

	amount := model.ParseAmountCents(params.Total)
	currency := strings.ToUpper(params.Currency)
	email := params.Email
	if pending != nil {
		if amount == 0 {
			amount = pending.AmountCents
		}
		if currency == "" {
			currency = strings.ToUpper(pending.Currency)
		}
		if email == "" {
			email = pending.CustomerEmail
		}
	}
	if currency == "" {
		currency = "USD"
	}

	now := time.Now()
	topup := &model.Topup{
		ID:          cls.OrderID,
		ICCID:       iccid,
		PackageID:   packageID,
		AmountCents: amount,
		Currency:    currency,
		CreatedAt:   now,
	}
	if err := u.topups.Save(ctx, topup); err != nil {
		u.log.Error().Err(err).Str("topup_id", topup.ID).Msg("topup record write failed")
	}

	order := &model.Order{
		ID:              cls.OrderID,
		PackageID:       packageID,
		PlanName:        planNameOf(params, pending),
		CustomerEmail:   email,
		AmountCents:     amount,
		Currency:        currency,
		Status:          model.OrderStatusActive,
		PaymentProvider: providerOf(cls, params),
		ICCID:           iccid,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if !buyer.IsZero() {
		order.UserID = buyer.ID
	}
	u.persist(ctx, buyer, order)
	metrics.IncOrder(order.PaymentProvider, string(order.Status))
	metrics.AddRevenue(currency, amount)

	_ = created // topup produces no QR code; it extends the existing eSIM
	return &ReconcileResult{State: StateComplete, Order: order}
}

// pollStatus reads the backend-job status document at a fixed interval until
// a terminal state or the attempt ceiling. The second return reports ceiling
// exhaustion without a terminal state.
func (u *reconcileUC) pollStatus(ctx context.Context, orderID string) (*model.ProvisioningStatus, bool) {
	for i := 0; i < u.pollAttempts; i++ {
		st, err := u.statuses.Get(ctx, orderID)
		if err != nil && err != domain.ErrNotFound {
			u.log.Warn().Err(err).Str("order_id", orderID).Msg("status poll read failed")
		}
		if st.Terminal() {
			return st, false
		}
		select {
		case <-ctx.Done():
			return nil, true
		case <-time.After(u.pollInterval):
		}
	}
	return nil, true
}

// persist writes the two copies independently: a global-write failure does
// not stop the per-user write and vice versa.
func (u *reconcileUC) persist(ctx context.Context, buyer *model.User, order *model.Order) {
	if err := u.orders.SaveGlobal(ctx, order); err != nil {
		u.log.Error().Err(err).Str("order_id", order.ID).Msg("global order write failed")
	}
	if !buyer.IsZero() {
		if err := u.orders.SaveForUser(ctx, buyer.ID, order); err != nil {
			u.log.Error().Err(err).Str("order_id", order.ID).Str("user_id", buyer.ID).Msg("per-user order write failed")
		}
	}
}

func planNameOf(params RedirectParams, pending *model.PendingOrder) string {
	if pending != nil && pending.PlanName != "" {
		return pending.PlanName
	}
	return params.Name
}

func providerOf(cls Classification, params RedirectParams) string {
	if params.PaymentMethod != "" {
		return strings.ToLower(params.PaymentMethod)
	}
	return string(cls.Route)
}
