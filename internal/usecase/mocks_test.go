// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/HOLYLABS972/esim-main-sub001/internal/domain"
	"github.com/HOLYLABS972/esim-main-sub001/internal/domain/model"
	"github.com/HOLYLABS972/esim-main-sub001/internal/domain/ports/adapter"
)

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

// memOrderRepo is a small in-memory implementation used by unit tests. The
// global and per-user stores are separate maps so tests can assert on the
// dual-write behavior.
type memOrderRepo struct {
	mu        sync.RWMutex
	global    map[string]*model.Order
	perUser   map[string]map[string]*model.Order // userID -> orderID -> order
	globalErr error
	userErr   error
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{
		global:  make(map[string]*model.Order),
		perUser: make(map[string]map[string]*model.Order),
	}
}

func (m *memOrderRepo) SaveGlobal(ctx context.Context, o *model.Order) error {
	if m.globalErr != nil {
		return m.globalErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *o
	m.global[o.ID] = &cp
	return nil
}

func (m *memOrderRepo) SaveForUser(ctx context.Context, userID string, o *model.Order) error {
	if m.userErr != nil {
		return m.userErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.perUser[userID] == nil {
		m.perUser[userID] = make(map[string]*model.Order)
	}
	cp := *o
	cp.UserID = userID
	m.perUser[userID][o.ID] = &cp
	return nil
}

func (m *memOrderRepo) FindByID(ctx context.Context, id string) (*model.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.global[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memOrderRepo) FindByICCID(ctx context.Context, iccid string) (*model.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, o := range m.global {
		if o.ICCID == iccid {
			cp := *o
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memOrderRepo) ListByUser(ctx context.Context, userID string) ([]*model.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Order
	for _, o := range m.perUser[userID] {
		cp := *o
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memOrderRepo) ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]*model.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Order
	for _, o := range m.global {
		if o.Status == model.OrderStatusPending && o.CreatedAt.Before(olderThan) {
			cp := *o
			out = append(out, &cp)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// memStatusRepo serves provisioning-status polls. GetFunc, when set, scripts
// per-call behavior for poll-loop tests.
type memStatusRepo struct {
	mu       sync.Mutex
	store    map[string]*model.ProvisioningStatus
	GetFunc  func(call int, orderID string) (*model.ProvisioningStatus, error)
	getCalls int
}

func newMemStatusRepo() *memStatusRepo {
	return &memStatusRepo{store: make(map[string]*model.ProvisioningStatus)}
}

func (m *memStatusRepo) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getCalls
}

func (m *memStatusRepo) Get(ctx context.Context, orderID string) (*model.ProvisioningStatus, error) {
	m.mu.Lock()
	m.getCalls++
	n := m.getCalls
	m.mu.Unlock()
	if m.GetFunc != nil {
		return m.GetFunc(n, orderID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.store[orderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *st
	return &cp, nil
}

func (m *memStatusRepo) Set(ctx context.Context, st *model.ProvisioningStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *st
	m.store[st.OrderID] = &cp
	return nil
}

type memTopupRepo struct {
	mu    sync.Mutex
	store map[string]*model.Topup
}

func newMemTopupRepo() *memTopupRepo {
	return &memTopupRepo{store: make(map[string]*model.Topup)}
}

func (m *memTopupRepo) Save(ctx context.Context, t *model.Topup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.store[t.ID] = &cp
	return nil
}

func (m *memTopupRepo) ListByICCID(ctx context.Context, iccid string) ([]*model.Topup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Topup
	for _, t := range m.store {
		if t.ICCID == iccid {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memPendingCache struct {
	mu      sync.Mutex
	store   map[string]*model.PendingOrder
	deletes []string
	putErr  error
}

func newMemPendingCache() *memPendingCache {
	return &memPendingCache{store: make(map[string]*model.PendingOrder)}
}

func (m *memPendingCache) Put(ctx context.Context, p *model.PendingOrder) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.OrderID] = &cp
	return nil
}

func (m *memPendingCache) Get(ctx context.Context, orderID string) (*model.PendingOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[orderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPendingCache) Delete(ctx context.Context, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, orderID)
	m.deletes = append(m.deletes, orderID)
	return nil
}

// memLocker grants every lock unless held is set.
type memLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newMemLocker() *memLocker { return &memLocker{held: make(map[string]bool)} }

func (m *memLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[key] {
		return "", domain.ErrReconcileInFlight
	}
	m.held[key] = true
	return "tok-" + key, nil
}

func (m *memLocker) Unlock(ctx context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, key)
	return nil
}

// fakeEsim scripts the provisioner. Every call is recorded.
type fakeEsim struct {
	mu sync.Mutex

	CreateOrderFunc func(req adapter.CreateOrderRequest) (*adapter.CreateOrderResult, error)
	CreateTopupFunc func(iccid, packageID string) (*adapter.TopupResult, error)
	GetQRCodeFunc   func(orderID string) (*adapter.QRCodeResult, error)

	orderCalls []adapter.CreateOrderRequest
	topupCalls [][2]string

	packages  []adapter.CatalogPackage
	countries []adapter.CatalogCountry
	regions   []adapter.CatalogRegion
}

func (f *fakeEsim) Name() string { return "fake" }

func (f *fakeEsim) CreateOrder(ctx context.Context, req adapter.CreateOrderRequest) (*adapter.CreateOrderResult, error) {
	f.mu.Lock()
	f.orderCalls = append(f.orderCalls, req)
	f.mu.Unlock()
	if f.CreateOrderFunc != nil {
		return f.CreateOrderFunc(req)
	}
	return &adapter.CreateOrderResult{
		ProviderOrderID: "prov-1",
		SIMs: []adapter.SIM{{
			ICCID:  "8900000000000000001",
			QRCode: "LPA:1$example.com$XYZ",
		}},
	}, nil
}

func (f *fakeEsim) CreateTopup(ctx context.Context, iccid, packageID string) (*adapter.TopupResult, error) {
	f.mu.Lock()
	f.topupCalls = append(f.topupCalls, [2]string{iccid, packageID})
	f.mu.Unlock()
	if f.CreateTopupFunc != nil {
		return f.CreateTopupFunc(iccid, packageID)
	}
	return &adapter.TopupResult{TopupID: "topup-prov-1"}, nil
}

func (f *fakeEsim) GetQRCode(ctx context.Context, orderID string) (*adapter.QRCodeResult, error) {
	if f.GetQRCodeFunc != nil {
		return f.GetQRCodeFunc(orderID)
	}
	return &adapter.QRCodeResult{}, nil
}

func (f *fakeEsim) GetUsage(ctx context.Context, iccid string) (*adapter.UsageResult, error) {
	return &adapter.UsageResult{ICCID: iccid, RemainingMB: 512, TotalMB: 1024, Status: "ACTIVE"}, nil
}

func (f *fakeEsim) ListPackages(ctx context.Context) ([]adapter.CatalogPackage, error) {
	return f.packages, nil
}

func (f *fakeEsim) ListCountries(ctx context.Context) ([]adapter.CatalogCountry, error) {
	return f.countries, nil
}

func (f *fakeEsim) ListRegions(ctx context.Context) ([]adapter.CatalogRegion, error) {
	return f.regions, nil
}

// fakePayment scripts a payment provider.
type fakePayment struct {
	name string

	CreateCheckoutFunc  func(pending *model.PendingOrder) (*adapter.CheckoutSession, error)
	VerifyChargeFunc    func(chargeID string) (bool, error)
	RetrieveSessionFunc func(sessionID string) (*adapter.SessionInfo, error)

	mu          sync.Mutex
	verifyCalls []string
}

func (f *fakePayment) Name() string { return f.name }

func (f *fakePayment) CreateCheckout(ctx context.Context, pending *model.PendingOrder, successURL, cancelURL string) (*adapter.CheckoutSession, error) {
	if f.CreateCheckoutFunc != nil {
		return f.CreateCheckoutFunc(pending)
	}
	return &adapter.CheckoutSession{ID: "sess-x", URL: "https://pay.example/" + pending.OrderID}, nil
}

func (f *fakePayment) VerifyCharge(ctx context.Context, chargeID string) (bool, error) {
	f.mu.Lock()
	f.verifyCalls = append(f.verifyCalls, chargeID)
	f.mu.Unlock()
	if f.VerifyChargeFunc != nil {
		return f.VerifyChargeFunc(chargeID)
	}
	return true, nil
}

func (f *fakePayment) RetrieveSession(ctx context.Context, sessionID string) (*adapter.SessionInfo, error) {
	if f.RetrieveSessionFunc != nil {
		return f.RetrieveSessionFunc(sessionID)
	}
	return nil, domain.ErrUnsupported
}

// memPlanRepo backs the catalog use cases.
type memPlanRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Plan
}

func newMemPlanRepo() *memPlanRepo { return &memPlanRepo{store: make(map[string]*model.Plan)} }

func (m *memPlanRepo) Save(ctx context.Context, p *model.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.Slug] = &cp
	return nil
}

func (m *memPlanRepo) FindBySlug(ctx context.Context, slug string) (*model.Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[slug]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPlanRepo) ListByCountry(ctx context.Context, countryCode string, capability model.PlanCapability) ([]*model.Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Plan
	for _, p := range m.store {
		if capability != "" && p.Capability != capability {
			continue
		}
		for _, cc := range p.CountryCodes {
			if cc == countryCode {
				cp := *p
				out = append(out, &cp)
				break
			}
		}
	}
	return out, nil
}

func (m *memPlanRepo) ListForTopup(ctx context.Context, countryCode string) ([]*model.Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Plan
	for _, p := range m.store {
		if !p.AvailableForTopup {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memPlanRepo) ListAll(ctx context.Context) ([]*model.Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Plan
	for _, p := range m.store {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memPlanRepo) Delete(ctx context.Context, slug string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[slug]; !ok {
		return domain.ErrNotFound
	}
	delete(m.store, slug)
	return nil
}

type memCountryRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Country
}

func newMemCountryRepo() *memCountryRepo {
	return &memCountryRepo{store: make(map[string]*model.Country)}
}

func (m *memCountryRepo) Save(ctx context.Context, c *model.Country) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	if prev, ok := m.store[c.Code]; ok {
		cp.Hidden = prev.Hidden
	}
	m.store[c.Code] = &cp
	return nil
}

func (m *memCountryRepo) FindByCode(ctx context.Context, code string) (*model.Country, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.store[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCountryRepo) List(ctx context.Context, includeHidden bool) ([]*model.Country, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Country
	for _, c := range m.store {
		if c.Hidden && !includeHidden {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memCountryRepo) SetHidden(ctx context.Context, code string, hidden bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.store[code]
	if !ok {
		return domain.ErrNotFound
	}
	c.Hidden = hidden
	return nil
}

type memRegionRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Region
}

func newMemRegionRepo() *memRegionRepo {
	return &memRegionRepo{store: make(map[string]*model.Region)}
}

func (m *memRegionRepo) Save(ctx context.Context, r *model.Region) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	if prev, ok := m.store[r.Slug]; ok {
		cp.Hidden = prev.Hidden
	}
	m.store[r.Slug] = &cp
	return nil
}

func (m *memRegionRepo) List(ctx context.Context, includeHidden bool) ([]*model.Region, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Region
	for _, r := range m.store {
		if r.Hidden && !includeHidden {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memRegionRepo) SetHidden(ctx context.Context, slug string, hidden bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.store[slug]
	if !ok {
		return domain.ErrNotFound
	}
	r.Hidden = hidden
	return nil
}

type memReferralRepo struct {
	mu    sync.Mutex
	store map[string]*model.ReferralCode
}

func newMemReferralRepo() *memReferralRepo {
	return &memReferralRepo{store: make(map[string]*model.ReferralCode)}
}

func (m *memReferralRepo) Save(ctx context.Context, rc *model.ReferralCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[rc.Code]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *rc
	m.store[rc.Code] = &cp
	return nil
}

func (m *memReferralRepo) FindByCode(ctx context.Context, code string) (*model.ReferralCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rc, ok := m.store[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *rc
	return &cp, nil
}

func (m *memReferralRepo) FindByOwner(ctx context.Context, ownerID string) (*model.ReferralCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rc := range m.store {
		if rc.OwnerID == ownerID {
			cp := *rc
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memReferralRepo) DeleteByOwner(ctx context.Context, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for code, rc := range m.store {
		if rc.OwnerID == ownerID {
			delete(m.store, code)
		}
	}
	return nil
}

func (m *memReferralRepo) IncrementUsage(ctx context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rc, ok := m.store[code]
	if !ok {
		return domain.ErrNotFound
	}
	rc.UsageCount++
	return nil
}

func (m *memReferralRepo) ListAll(ctx context.Context) ([]*model.ReferralCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.ReferralCode
	for _, rc := range m.store {
		cp := *rc
		out = append(out, &cp)
	}
	return out, nil
}
