package application

import (
	"context"
	"sync"
	"time"

	"tiktok-analytics-layer/internal/domain"
	"tiktok-analytics-layer/internal/ports"
)

// memTokenStore is an in-memory TokenStore for service tests.
type memTokenStore struct {
	mu    sync.Mutex
	creds map[string]*domain.Credential
	err   error

	invalidated []string
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{creds: map[string]*domain.Credential{}}
}

func credKey(ownerID string, platform domain.Platform) string {
	return ownerID + "/" + string(platform)
}

func (s *memTokenStore) Get(_ context.Context, ownerID string, platform domain.Platform) (*domain.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	cred, ok := s.creds[credKey(ownerID, platform)]
	if !ok {
		return nil, nil
	}
	c := *cred
	return &c, nil
}

func (s *memTokenStore) Put(_ context.Context, cred *domain.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	c := *cred
	s.creds[credKey(cred.OwnerID, cred.Platform)] = &c
	return nil
}

func (s *memTokenStore) Invalidate(_ context.Context, ownerID string, platform domain.Platform) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	key := credKey(ownerID, platform)
	delete(s.creds, key)
	s.invalidated = append(s.invalidated, key)
	return nil
}

// memCacheStore is an in-memory CacheStore for service tests.
type memCacheStore struct {
	mu       sync.Mutex
	orders   map[string][]domain.CachedOrder
	products map[string][]domain.CachedProduct
	ads      map[string][]domain.CachedAdRow
	status   map[string]domain.ConnectionStatus
}

func newMemCacheStore() *memCacheStore {
	return &memCacheStore{
		orders:   map[string][]domain.CachedOrder{},
		products: map[string][]domain.CachedProduct{},
		ads:      map[string][]domain.CachedAdRow{},
		status:   map[string]domain.ConnectionStatus{},
	}
}

func (s *memCacheStore) SaveOrders(_ context.Context, ownerID string, rows []domain.CachedOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[ownerID] = rows
	return nil
}

func (s *memCacheStore) Orders(_ context.Context, ownerID string) ([]domain.CachedOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orders[ownerID], nil
}

func (s *memCacheStore) SaveProducts(_ context.Context, ownerID string, rows []domain.CachedProduct) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[ownerID] = rows
	return nil
}

func (s *memCacheStore) Products(_ context.Context, ownerID string) ([]domain.CachedProduct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[ownerID], nil
}

func (s *memCacheStore) SaveAdReports(_ context.Context, ownerID string, rows []domain.CachedAdRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ads[ownerID] = rows
	return nil
}

func (s *memCacheStore) AdReports(_ context.Context, ownerID string) ([]domain.CachedAdRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ads[ownerID], nil
}

func (s *memCacheStore) Status(_ context.Context, ownerID string) (domain.ConnectionStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status[ownerID], nil
}

func (s *memCacheStore) MarkConnected(_ context.Context, ownerID string, platform domain.Platform, syncedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.status[ownerID]
	switch platform {
	case domain.PlatformShop:
		st.Shop = true
	case domain.PlatformAds:
		st.Ads = true
	}
	t := syncedAt
	st.LastSync = &t
	s.status[ownerID] = st
	return nil
}

func (s *memCacheStore) MarkDisconnected(_ context.Context, ownerID string, platform domain.Platform) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.status[ownerID]
	switch platform {
	case domain.PlatformShop:
		st.Shop = false
	case domain.PlatformAds:
		st.Ads = false
	}
	s.status[ownerID] = st
	return nil
}

func (s *memCacheStore) Clear(_ context.Context, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.orders, ownerID)
	delete(s.products, ownerID)
	delete(s.ads, ownerID)
	delete(s.status, ownerID)
	return nil
}

// fakeShopClient scripts the ShopClient responses.
type fakeShopClient struct {
	shops    []domain.Shop
	orders   []domain.Order
	products []domain.Product

	shopsErr    error
	ordersErr   error
	productsErr error

	grant    *domain.TokenGrant
	grantErr error

	exchangeCalls int
}

func (f *fakeShopClient) ExchangeToken(_ context.Context, _, _, authCode string) (*domain.TokenGrant, error) {
	f.exchangeCalls++
	if authCode == "" {
		return nil, domain.ErrMissingCode
	}
	if f.grantErr != nil {
		return nil, f.grantErr
	}
	return f.grant, nil
}

func (f *fakeShopClient) GetAuthorizedShops(_ context.Context, _ *domain.Credential) ([]domain.Shop, error) {
	return f.shops, f.shopsErr
}

func (f *fakeShopClient) SearchOrders(_ context.Context, _ *domain.Credential, _ string, _, _ time.Time, _ int) ([]domain.Order, error) {
	return f.orders, f.ordersErr
}

func (f *fakeShopClient) SearchProducts(_ context.Context, _ *domain.Credential, _ string, _ int) ([]domain.Product, error) {
	return f.products, f.productsErr
}

// fakeAdsClient scripts the AdsClient responses.
type fakeAdsClient struct {
	advertisers []domain.Advertiser
	campaigns   []domain.Campaign
	reports     []domain.AdReport
	audience    []domain.AudienceReport

	advertisersErr error
	campaignsErr   error
	reportsErr     error

	gotFiltering map[string]string

	grant    *domain.TokenGrant
	grantErr error

	exchangeCalls int
}

func (f *fakeAdsClient) ExchangeToken(_ context.Context, _, _, authCode string) (*domain.TokenGrant, error) {
	f.exchangeCalls++
	if authCode == "" {
		return nil, domain.ErrMissingCode
	}
	if f.grantErr != nil {
		return nil, f.grantErr
	}
	return f.grant, nil
}

func (f *fakeAdsClient) GetAdvertisers(_ context.Context, _ *domain.Credential, _, _ int) ([]domain.Advertiser, error) {
	return f.advertisers, f.advertisersErr
}

func (f *fakeAdsClient) GetCampaigns(_ context.Context, _ *domain.Credential, _ string, filtering map[string]string) ([]domain.Campaign, error) {
	f.gotFiltering = filtering
	return f.campaigns, f.campaignsErr
}

func (f *fakeAdsClient) GetAdGroups(_ context.Context, _ *domain.Credential, _ string) ([]domain.AdGroup, error) {
	return nil, nil
}

func (f *fakeAdsClient) GetAds(_ context.Context, _ *domain.Credential, _ string) ([]domain.Ad, error) {
	return nil, nil
}

func (f *fakeAdsClient) GetReports(_ context.Context, _ *domain.Credential, _ string, _ ports.ReportQuery) ([]domain.AdReport, error) {
	return f.reports, f.reportsErr
}

func (f *fakeAdsClient) GetAudienceReports(_ context.Context, _ *domain.Credential, _ string, _ domain.DateRange) ([]domain.AudienceReport, error) {
	return f.audience, nil
}

var (
	_ ports.TokenStore = (*memTokenStore)(nil)
	_ ports.CacheStore = (*memCacheStore)(nil)
	_ ports.ShopClient = (*fakeShopClient)(nil)
	_ ports.AdsClient  = (*fakeAdsClient)(nil)
)
