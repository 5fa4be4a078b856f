package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tiktok-analytics-layer/internal/domain"
	"tiktok-analytics-layer/internal/infrastructure/synclog"
)

func newShopServiceForTest(store *memTokenStore, cache *memCacheStore, client *fakeShopClient) *ShopService {
	resolver := NewCredentialResolver(store, nil)
	return NewShopService(resolver, store, cache, client, synclog.NewRing(50), zerolog.Nop())
}

func seedShopCred(t *testing.T, store *memTokenStore) {
	t.Helper()
	require.NoError(t, store.Put(context.Background(), &domain.Credential{
		OwnerID:     domain.DefaultOwnerID,
		Platform:    domain.PlatformShop,
		AppKey:      "key",
		AppSecret:   "secret",
		AccessToken: "token",
	}))
}

func TestShopSyncSuccess(t *testing.T) {
	store := newMemTokenStore()
	cache := newMemCacheStore()
	client := &fakeShopClient{
		shops: []domain.Shop{{ID: "s1", Cipher: "c1"}},
		orders: []domain.Order{
			{ID: "o1", PaymentInfo: domain.PaymentInfo{TotalAmount: "10.50"}},
		},
		products: []domain.Product{{ID: "p1", Title: "Widget"}},
	}
	seedShopCred(t, store)

	svc := newShopServiceForTest(store, cache, client)

	snap, err := svc.Sync(context.Background(), domain.DefaultOwnerID)
	require.NoError(t, err)
	require.NotNil(t, snap)

	assert.InDelta(t, 10.50, snap.Metrics.TotalRevenue, 1e-9)
	assert.Equal(t, 1, snap.Metrics.TotalOrders)
	assert.Equal(t, 1, snap.Metrics.TotalProducts)
	assert.False(t, snap.FromCache)

	// Cache and status reflect the sync.
	cached, err := cache.Orders(context.Background(), domain.DefaultOwnerID)
	require.NoError(t, err)
	require.Len(t, cached, 1)
	assert.Equal(t, 10.50, cached[0].Total)

	status, err := cache.Status(context.Background(), domain.DefaultOwnerID)
	require.NoError(t, err)
	assert.True(t, status.Shop)
}

func TestShopSyncNoCredential(t *testing.T) {
	svc := newShopServiceForTest(newMemTokenStore(), newMemCacheStore(), &fakeShopClient{})

	_, err := svc.Sync(context.Background(), domain.DefaultOwnerID)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestShopSyncExpiredCredential(t *testing.T) {
	store := newMemTokenStore()
	expired := time.Now().Add(-time.Minute)
	require.NoError(t, store.Put(context.Background(), &domain.Credential{
		OwnerID:     domain.DefaultOwnerID,
		Platform:    domain.PlatformShop,
		AccessToken: "token",
		ExpiresAt:   &expired,
	}))

	svc := newShopServiceForTest(store, newMemCacheStore(), &fakeShopClient{})

	_, err := svc.Sync(context.Background(), domain.DefaultOwnerID)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestShopSyncTokenRejectedInvalidatesCredential(t *testing.T) {
	store := newMemTokenStore()
	cache := newMemCacheStore()
	client := &fakeShopClient{
		shopsErr: &domain.PlatformError{Code: 105001, Message: "access token expired"},
	}
	seedShopCred(t, store)
	require.NoError(t, cache.MarkConnected(context.Background(), domain.DefaultOwnerID, domain.PlatformShop, time.Now()))

	svc := newShopServiceForTest(store, cache, client)

	_, err := svc.Sync(context.Background(), domain.DefaultOwnerID)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	// The credential is gone and the status flag flipped.
	cred, err := store.Get(context.Background(), domain.DefaultOwnerID, domain.PlatformShop)
	require.NoError(t, err)
	assert.Nil(t, cred)

	status, err := cache.Status(context.Background(), domain.DefaultOwnerID)
	require.NoError(t, err)
	assert.False(t, status.Shop)
}

func TestShopSyncTransientFailureServesCache(t *testing.T) {
	store := newMemTokenStore()
	cache := newMemCacheStore()
	seedShopCred(t, store)

	lastSync := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	require.NoError(t, cache.SaveOrders(context.Background(), domain.DefaultOwnerID, []domain.CachedOrder{
		{OrderID: "o1", Total: 42.0},
	}))
	require.NoError(t, cache.MarkConnected(context.Background(), domain.DefaultOwnerID, domain.PlatformShop, lastSync))

	client := &fakeShopClient{shopsErr: errors.New("connection refused")}
	svc := newShopServiceForTest(store, cache, client)

	snap, err := svc.Sync(context.Background(), domain.DefaultOwnerID)
	require.NoError(t, err)
	require.NotNil(t, snap)

	assert.True(t, snap.FromCache)
	assert.InDelta(t, 42.0, snap.Metrics.TotalRevenue, 1e-9)
	assert.Equal(t, lastSync, snap.SyncedAt)
}

func TestShopSyncTransientFailureEmptyCache(t *testing.T) {
	store := newMemTokenStore()
	seedShopCred(t, store)

	cause := errors.New("connection refused")
	svc := newShopServiceForTest(store, newMemCacheStore(), &fakeShopClient{shopsErr: cause})

	_, err := svc.Sync(context.Background(), domain.DefaultOwnerID)
	assert.ErrorIs(t, err, cause)
}

func TestShopSyncPartialLegFailure(t *testing.T) {
	store := newMemTokenStore()
	cache := newMemCacheStore()
	seedShopCred(t, store)

	client := &fakeShopClient{
		shops:     []domain.Shop{{ID: "s1", Cipher: "c1"}},
		ordersErr: errors.New("timeout"),
		products:  []domain.Product{{ID: "p1"}},
	}
	svc := newShopServiceForTest(store, cache, client)

	snap, err := svc.Sync(context.Background(), domain.DefaultOwnerID)
	require.NoError(t, err)

	// Products survive; the failed leg degrades to empty.
	assert.Empty(t, snap.Orders)
	assert.Equal(t, 1, snap.Metrics.TotalProducts)
	assert.Zero(t, snap.Metrics.TotalOrders)
}

func TestShopSyncStoreFailureIsNotDisconnected(t *testing.T) {
	store := newMemTokenStore()
	store.err = errors.New("mongo down")

	svc := newShopServiceForTest(store, newMemCacheStore(), &fakeShopClient{})

	_, err := svc.Sync(context.Background(), domain.DefaultOwnerID)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrUnauthenticated)
}
