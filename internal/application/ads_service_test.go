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

func newAdsServiceForTest(store *memTokenStore, cache *memCacheStore, client *fakeAdsClient) *AdsService {
	resolver := NewCredentialResolver(store, nil)
	return NewAdsService(resolver, store, cache, client, synclog.NewRing(50), zerolog.Nop())
}

func seedAdsCred(t *testing.T, store *memTokenStore, advertiserIDs ...string) {
	t.Helper()
	require.NoError(t, store.Put(context.Background(), &domain.Credential{
		OwnerID:       domain.DefaultOwnerID,
		Platform:      domain.PlatformAds,
		AccessToken:   "ads-token",
		AdvertiserIDs: advertiserIDs,
	}))
}

func TestAdsSyncSuccess(t *testing.T) {
	store := newMemTokenStore()
	cache := newMemCacheStore()
	client := &fakeAdsClient{
		advertisers: []domain.Advertiser{{ID: "adv1", Name: "Main"}},
		campaigns:   []domain.Campaign{{ID: "c1", Name: "Spring"}},
		reports: []domain.AdReport{
			{Date: "2026-08-28", CampaignID: "c1", Spend: "100", Impressions: "10000", Clicks: "200", Conversion: "20"},
		},
	}
	seedAdsCred(t, store, "adv1")

	svc := newAdsServiceForTest(store, cache, client)

	snap, err := svc.Sync(context.Background(), domain.DefaultOwnerID, domain.DateRange{})
	require.NoError(t, err)
	require.NotNil(t, snap)

	assert.InDelta(t, 100.0, snap.Metrics.TotalSpend, 1e-9)
	assert.InDelta(t, 2.0, snap.Metrics.CTR, 1e-9)
	assert.InDelta(t, 0.2, snap.Metrics.ROAS, 1e-9)
	assert.Len(t, snap.Campaigns, 1)
	assert.False(t, snap.FromCache)

	rows, err := cache.AdReports(context.Background(), domain.DefaultOwnerID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.InDelta(t, 100.0, rows[0].Spend, 1e-9)
}

func TestAdsSyncFiltersEnabledCampaigns(t *testing.T) {
	store := newMemTokenStore()
	client := &fakeAdsClient{
		advertisers: []domain.Advertiser{{ID: "adv1"}},
	}
	seedAdsCred(t, store, "adv1")

	svc := newAdsServiceForTest(store, newMemCacheStore(), client)

	_, err := svc.Sync(context.Background(), domain.DefaultOwnerID, domain.DateRange{})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"status": "STATUS_ENABLE"}, client.gotFiltering)
}

func TestAdsSyncPicksFirstVisibleAdvertiser(t *testing.T) {
	store := newMemTokenStore()
	client := &fakeAdsClient{
		advertisers: []domain.Advertiser{{ID: "adv9"}},
	}
	// No advertiser IDs on the credential; the first visible account is used.
	seedAdsCred(t, store)

	svc := newAdsServiceForTest(store, newMemCacheStore(), client)

	snap, err := svc.Sync(context.Background(), domain.DefaultOwnerID, domain.DateRange{})
	require.NoError(t, err)
	assert.Len(t, snap.Advertisers, 1)
}

func TestAdsSyncNoAdvertiserAvailable(t *testing.T) {
	store := newMemTokenStore()
	seedAdsCred(t, store)

	svc := newAdsServiceForTest(store, newMemCacheStore(), &fakeAdsClient{})

	_, err := svc.Sync(context.Background(), domain.DefaultOwnerID, domain.DateRange{})

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "advertiser_id", ve.Field)
}

func TestAdsSyncTokenInvalidInvalidatesCredential(t *testing.T) {
	store := newMemTokenStore()
	cache := newMemCacheStore()
	client := &fakeAdsClient{
		advertisersErr: &domain.PlatformError{Code: 40100, Message: "access token invalid"},
	}
	seedAdsCred(t, store, "adv1")

	svc := newAdsServiceForTest(store, cache, client)

	_, err := svc.Sync(context.Background(), domain.DefaultOwnerID, domain.DateRange{})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	cred, getErr := store.Get(context.Background(), domain.DefaultOwnerID, domain.PlatformAds)
	require.NoError(t, getErr)
	assert.Nil(t, cred)
}

func TestAdsSyncTransientFailureServesCache(t *testing.T) {
	store := newMemTokenStore()
	cache := newMemCacheStore()
	seedAdsCred(t, store, "adv1")

	lastSync := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	require.NoError(t, cache.SaveAdReports(context.Background(), domain.DefaultOwnerID, []domain.CachedAdRow{
		{Date: "2026-08-27", Campaign: "Spring", Spend: 50, Clicks: 100, Conversions: 10},
	}))
	require.NoError(t, cache.MarkConnected(context.Background(), domain.DefaultOwnerID, domain.PlatformAds, lastSync))

	client := &fakeAdsClient{advertisersErr: errors.New("connection refused")}
	svc := newAdsServiceForTest(store, cache, client)

	snap, err := svc.Sync(context.Background(), domain.DefaultOwnerID, domain.DateRange{})
	require.NoError(t, err)

	assert.True(t, snap.FromCache)
	assert.InDelta(t, 50.0, snap.Metrics.TotalSpend, 1e-9)
	assert.InDelta(t, 0.2, snap.Metrics.ROAS, 1e-9)
	assert.Equal(t, lastSync, snap.SyncedAt)
}

func TestAdsAudienceUsesStoredAdvertiser(t *testing.T) {
	store := newMemTokenStore()
	client := &fakeAdsClient{
		audience: []domain.AudienceReport{{Age: "AGE_25_34", Gender: "FEMALE"}},
	}
	seedAdsCred(t, store, "adv1")

	svc := newAdsServiceForTest(store, newMemCacheStore(), client)

	reports, err := svc.Audience(context.Background(), domain.DefaultOwnerID, domain.DateRange{})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "AGE_25_34", reports[0].Age)
}
