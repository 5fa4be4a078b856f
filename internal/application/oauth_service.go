package application

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"tiktok-analytics-layer/internal/domain"
	"tiktok-analytics-layer/internal/ports"
)

// OAuthService completes OAuth callbacks: it exchanges the authorization code
// for tokens and persists the resulting credential.
type OAuthService struct {
	store      ports.TokenStore
	cache      ports.CacheStore
	shopClient ports.ShopClient
	adsClient  ports.AdsClient
	syncLog    ports.SyncLogStore
	logger     zerolog.Logger
	now        func() time.Time

	shopAppKey    string
	shopAppSecret string
	adsAppID      string
	adsAppSecret  string
}

// OAuthAppConfig carries the app registrations used for code exchanges.
type OAuthAppConfig struct {
	ShopAppKey    string
	ShopAppSecret string
	AdsAppID      string
	AdsAppSecret  string
}

// NewOAuthService creates a new OAuth service
func NewOAuthService(
	store ports.TokenStore,
	cache ports.CacheStore,
	shopClient ports.ShopClient,
	adsClient ports.AdsClient,
	syncLog ports.SyncLogStore,
	logger zerolog.Logger,
	cfg OAuthAppConfig,
) *OAuthService {
	return &OAuthService{
		store:         store,
		cache:         cache,
		shopClient:    shopClient,
		adsClient:     adsClient,
		syncLog:       syncLog,
		logger:        logger.With().Str("component", "oauth_service").Logger(),
		now:           time.Now,
		shopAppKey:    cfg.ShopAppKey,
		shopAppSecret: cfg.ShopAppSecret,
		adsAppID:      cfg.AdsAppID,
		adsAppSecret:  cfg.AdsAppSecret,
	}
}

// CompleteShopAuth finishes the TikTok Shop OAuth flow. An empty code fails
// fast with ErrMissingCode before any network call.
func (s *OAuthService) CompleteShopAuth(ctx context.Context, ownerID, code string) error {
	if code == "" {
		return domain.ErrMissingCode
	}

	grant, err := s.shopClient.ExchangeToken(ctx, s.shopAppKey, s.shopAppSecret, code)
	if err != nil {
		s.logSync(domain.PlatformShop, domain.SyncError, "authorization failed", err.Error())
		return fmt.Errorf("shop token exchange failed: %w", err)
	}

	now := s.now().UTC()
	cred := &domain.Credential{
		OwnerID:      ownerID,
		Platform:     domain.PlatformShop,
		AppKey:       s.shopAppKey,
		AppSecret:    s.shopAppSecret,
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
	}
	if grant.ExpiresIn > 0 {
		exp := now.Add(time.Duration(grant.ExpiresIn) * time.Second)
		cred.ExpiresAt = &exp
	}

	if err := s.store.Put(ctx, cred); err != nil {
		return fmt.Errorf("failed to persist shop credential: %w", err)
	}
	// Cache status is display-only; a failed write must not fail the auth.
	if err := s.cache.MarkConnected(ctx, ownerID, domain.PlatformShop, now); err != nil {
		s.logger.Warn().Err(err).Msg("failed to mark shop connected")
	}

	s.logSync(domain.PlatformShop, domain.SyncSuccess, "connected via OAuth", grant.SellerName)
	s.logger.Info().Str("owner", ownerID).Str("seller", grant.SellerName).Msg("tiktok shop connected")
	return nil
}

// CompleteAdsAuth finishes the TikTok Ads OAuth flow. An empty code fails
// fast with ErrMissingCode before any network call.
func (s *OAuthService) CompleteAdsAuth(ctx context.Context, ownerID, code string) error {
	if code == "" {
		return domain.ErrMissingCode
	}

	grant, err := s.adsClient.ExchangeToken(ctx, s.adsAppID, s.adsAppSecret, code)
	if err != nil {
		s.logSync(domain.PlatformAds, domain.SyncError, "authorization failed", err.Error())
		return fmt.Errorf("ads token exchange failed: %w", err)
	}

	now := s.now().UTC()
	cred := &domain.Credential{
		OwnerID:       ownerID,
		Platform:      domain.PlatformAds,
		AppKey:        s.adsAppID,
		AppSecret:     s.adsAppSecret,
		AccessToken:   grant.AccessToken,
		AdvertiserIDs: grant.AdvertiserIDs,
	}
	if grant.ExpiresIn > 0 {
		exp := now.Add(time.Duration(grant.ExpiresIn) * time.Second)
		cred.ExpiresAt = &exp
	}

	if err := s.store.Put(ctx, cred); err != nil {
		return fmt.Errorf("failed to persist ads credential: %w", err)
	}
	if err := s.cache.MarkConnected(ctx, ownerID, domain.PlatformAds, now); err != nil {
		s.logger.Warn().Err(err).Msg("failed to mark ads connected")
	}

	s.logSync(domain.PlatformAds, domain.SyncSuccess, "connected via OAuth",
		fmt.Sprintf("%d advertiser accounts", len(grant.AdvertiserIDs)))
	s.logger.Info().Str("owner", ownerID).Int("advertisers", len(grant.AdvertiserIDs)).Msg("tiktok ads connected")
	return nil
}

func (s *OAuthService) logSync(platform domain.Platform, status domain.SyncStatus, message, details string) {
	if s.syncLog == nil {
		return
	}
	s.syncLog.Append(domain.SyncLogEntry{
		IntegrationID: string(platform),
		Status:        status,
		Message:       message,
		Details:       details,
	})
}
