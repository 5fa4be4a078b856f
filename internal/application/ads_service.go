package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tiktok-analytics-layer/internal/domain"
	"tiktok-analytics-layer/internal/infrastructure/metrics"
	"tiktok-analytics-layer/internal/infrastructure/tiktok"
	"tiktok-analytics-layer/internal/ports"
)

// AdsService syncs TikTok Ads data and serves the dashboard snapshot.
type AdsService struct {
	resolver *CredentialResolver
	store    ports.TokenStore
	cache    ports.CacheStore
	client   ports.AdsClient
	syncLog  ports.SyncLogStore
	logger   zerolog.Logger
	now      func() time.Time
}

// NewAdsService creates a new ads service
func NewAdsService(
	resolver *CredentialResolver,
	store ports.TokenStore,
	cache ports.CacheStore,
	client ports.AdsClient,
	syncLog ports.SyncLogStore,
	logger zerolog.Logger,
) *AdsService {
	return &AdsService{
		resolver: resolver,
		store:    store,
		cache:    cache,
		client:   client,
		syncLog:  syncLog,
		logger:   logger.With().Str("component", "ads_service").Logger(),
		now:      time.Now,
	}
}

// Sync pulls fresh ads data for the reporting window, updates the cache, and
// returns the snapshot. The advertiser comes from the credential when stored,
// otherwise from the first account the token can see. Campaigns are filtered
// to enabled ones.
func (s *AdsService) Sync(ctx context.Context, ownerID string, r domain.DateRange) (*domain.AdsSnapshot, error) {
	started := s.now()
	cred, err := s.resolver.ResolveValid(ctx, ownerID, domain.PlatformAds, started)
	if err != nil {
		return nil, err
	}

	advertisers, err := s.client.GetAdvertisers(ctx, cred, 1, 10)
	if err != nil {
		return s.handleSyncError(ctx, ownerID, err)
	}

	advertiserID := ""
	if len(cred.AdvertiserIDs) > 0 {
		advertiserID = cred.AdvertiserIDs[0]
	} else if len(advertisers) > 0 {
		advertiserID = advertisers[0].ID
	}
	if advertiserID == "" {
		return nil, &domain.ValidationError{Field: "advertiser_id", Reason: "no advertiser account available"}
	}

	var (
		wg           sync.WaitGroup
		campaigns    []domain.Campaign
		reports      []domain.AdReport
		campaignsErr error
		reportsErr   error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		campaigns, campaignsErr = s.client.GetCampaigns(ctx, cred, advertiserID, map[string]string{
			"status": "STATUS_ENABLE",
		})
	}()
	go func() {
		defer wg.Done()
		reports, reportsErr = s.client.GetReports(ctx, cred, advertiserID, ports.ReportQuery{Range: r})
	}()
	wg.Wait()

	if tiktok.IsAuthError(campaignsErr) || tiktok.IsAuthError(reportsErr) {
		err := campaignsErr
		if !tiktok.IsAuthError(err) {
			err = reportsErr
		}
		return s.handleSyncError(ctx, ownerID, err)
	}
	if campaignsErr != nil && reportsErr != nil {
		return s.handleSyncError(ctx, ownerID, campaignsErr)
	}
	if campaignsErr != nil {
		s.logSync(domain.SyncWarning, "campaigns fetch failed", campaignsErr.Error())
		s.logger.Warn().Err(campaignsErr).Msg("campaigns leg failed")
	}
	if reportsErr != nil {
		s.logSync(domain.SyncWarning, "reports fetch failed", reportsErr.Error())
		s.logger.Warn().Err(reportsErr).Msg("reports leg failed")
	}

	now := s.now().UTC()
	snapshot := &domain.AdsSnapshot{
		Advertisers: advertisers,
		Campaigns:   campaigns,
		Reports:     reports,
		Metrics:     AdsMetricsFrom(reports),
		SyncedAt:    now,
	}

	if reportsErr == nil {
		if err := s.cache.SaveAdReports(ctx, ownerID, CachedAdRowsFrom(reports)); err != nil {
			s.logger.Warn().Err(err).Msg("failed to cache ad reports")
		}
	}
	if err := s.cache.MarkConnected(ctx, ownerID, domain.PlatformAds, now); err != nil {
		s.logger.Warn().Err(err).Msg("failed to mark ads connected")
	}

	s.logSync(domain.SyncSuccess, "sync completed",
		fmt.Sprintf("%d campaigns, %d report rows", len(campaigns), len(reports)))
	metrics.Syncs.WithLabelValues(string(domain.PlatformAds), string(domain.SyncSuccess)).Inc()
	metrics.SyncDuration.WithLabelValues(string(domain.PlatformAds)).Observe(s.now().Sub(started).Seconds())
	return snapshot, nil
}

// Audience fetches the audience insights report for the window.
func (s *AdsService) Audience(ctx context.Context, ownerID string, r domain.DateRange) ([]domain.AudienceReport, error) {
	cred, err := s.resolver.ResolveValid(ctx, ownerID, domain.PlatformAds, s.now())
	if err != nil {
		return nil, err
	}

	advertiserID := ""
	if len(cred.AdvertiserIDs) > 0 {
		advertiserID = cred.AdvertiserIDs[0]
	}
	if advertiserID == "" {
		advertisers, err := s.client.GetAdvertisers(ctx, cred, 1, 1)
		if err != nil {
			return nil, err
		}
		if len(advertisers) == 0 {
			return nil, &domain.ValidationError{Field: "advertiser_id", Reason: "no advertiser account available"}
		}
		advertiserID = advertisers[0].ID
	}

	return s.client.GetAudienceReports(ctx, cred, advertiserID, r)
}

func (s *AdsService) handleSyncError(ctx context.Context, ownerID string, cause error) (*domain.AdsSnapshot, error) {
	metrics.Syncs.WithLabelValues(string(domain.PlatformAds), string(domain.SyncError)).Inc()

	if tiktok.IsAuthError(cause) {
		s.logger.Warn().Err(cause).Str("owner", ownerID).Msg("ads token rejected, invalidating")
		if err := s.store.Invalidate(ctx, ownerID, domain.PlatformAds); err != nil {
			s.logger.Error().Err(err).Msg("failed to invalidate ads credential")
		}
		if err := s.cache.MarkDisconnected(ctx, ownerID, domain.PlatformAds); err != nil {
			s.logger.Warn().Err(err).Msg("failed to mark ads disconnected")
		}
		s.logSync(domain.SyncError, "token rejected, reconnect required", cause.Error())
		return nil, domain.ErrUnauthenticated
	}

	s.logSync(domain.SyncError, "sync failed", cause.Error())
	if snap, ok := s.cachedSnapshot(ctx, ownerID); ok {
		s.logger.Warn().Err(cause).Msg("platform unreachable, serving cached snapshot")
		return snap, nil
	}
	return nil, cause
}

func (s *AdsService) cachedSnapshot(ctx context.Context, ownerID string) (*domain.AdsSnapshot, bool) {
	rows, err := s.cache.AdReports(ctx, ownerID)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to read cached ad reports")
		return nil, false
	}
	if len(rows) == 0 {
		return nil, false
	}

	status, err := s.cache.Status(ctx, ownerID)
	if err != nil {
		status = domain.ConnectionStatus{}
	}

	snap := &domain.AdsSnapshot{
		Metrics:   adsMetricsFromCache(rows),
		FromCache: true,
	}
	if status.LastSync != nil {
		snap.SyncedAt = *status.LastSync
	}
	return snap, true
}

func (s *AdsService) logSync(status domain.SyncStatus, message, details string) {
	if s.syncLog == nil {
		return
	}
	s.syncLog.Append(domain.SyncLogEntry{
		IntegrationID: string(domain.PlatformAds),
		Status:        status,
		Message:       message,
		Details:       details,
	})
}
