package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"tiktok-analytics-layer/internal/domain"
	"tiktok-analytics-layer/internal/ports"
)

// IntegrationService manages the connectable platforms: listing their state,
// fanning out refreshes, disconnecting, and manual credential entry.
type IntegrationService struct {
	store    ports.TokenStore
	cache    ports.CacheStore
	resolver *CredentialResolver
	shop     *ShopService
	ads      *AdsService
	syncLog  ports.SyncLogStore
	logger   zerolog.Logger
	validate *validator.Validate
}

// NewIntegrationService creates a new integration service
func NewIntegrationService(
	store ports.TokenStore,
	cache ports.CacheStore,
	resolver *CredentialResolver,
	shop *ShopService,
	ads *AdsService,
	syncLog ports.SyncLogStore,
	logger zerolog.Logger,
) *IntegrationService {
	return &IntegrationService{
		store:    store,
		cache:    cache,
		resolver: resolver,
		shop:     shop,
		ads:      ads,
		syncLog:  syncLog,
		logger:   logger.With().Str("component", "integration_service").Logger(),
		validate: validator.New(),
	}
}

// List returns the dashboard view of both integrations: connected when a
// usable credential exists, with the last sync time from the cache status.
func (s *IntegrationService) List(ctx context.Context, ownerID string) ([]domain.Integration, error) {
	status, err := s.cache.Status(ctx, ownerID)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to read connection status")
		status = domain.ConnectionStatus{}
	}

	now := time.Now()
	out := make([]domain.Integration, 0, 2)
	for _, def := range []struct {
		platform    domain.Platform
		name        string
		description string
		flagged     bool
	}{
		{domain.PlatformShop, "TikTok Shop", "Orders, products, and revenue from your TikTok Shop storefront", status.Shop},
		{domain.PlatformAds, "TikTok Ads", "Campaign spend and performance from TikTok Ads Manager", status.Ads},
	} {
		cred, err := s.resolver.Resolve(ctx, ownerID, def.platform)
		if err != nil {
			return nil, err
		}
		connected := cred.Valid(now) && def.flagged

		item := domain.Integration{
			ID:          string(def.platform),
			Name:        def.name,
			Description: def.description,
			Connected:   connected,
			Status:      domain.IntegrationDisconnected,
			LastSync:    status.LastSync,
		}
		if connected {
			item.Status = domain.IntegrationConnected
		} else if cred != nil && !cred.Valid(now) {
			item.Status = domain.IntegrationError
		}
		out = append(out, item)
	}
	return out, nil
}

// RefreshAll syncs every connected integration concurrently and reports the
// per-integration outcome. Partial success is normal; one integration's
// failure never blocks the other.
func (s *IntegrationService) RefreshAll(ctx context.Context, ownerID string) []domain.SyncResult {
	results := make([]domain.SyncResult, 2)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := s.shop.Sync(ctx, ownerID)
		results[0] = syncResult(domain.PlatformShop, err)
	}()
	go func() {
		defer wg.Done()
		_, err := s.ads.Sync(ctx, ownerID, domain.DateRange{})
		results[1] = syncResult(domain.PlatformAds, err)
	}()
	wg.Wait()

	return results
}

func syncResult(platform domain.Platform, err error) domain.SyncResult {
	r := domain.SyncResult{IntegrationID: string(platform), Status: domain.SyncSuccess}
	if err != nil {
		r.Status = domain.SyncError
		r.Error = err.Error()
	}
	return r
}

// Disconnect removes the stored credential and flips the status flag.
func (s *IntegrationService) Disconnect(ctx context.Context, ownerID string, platform domain.Platform) error {
	switch platform {
	case domain.PlatformShop, domain.PlatformAds:
	default:
		return &domain.ValidationError{Field: "integration", Reason: "unknown integration"}
	}

	if err := s.store.Invalidate(ctx, ownerID, platform); err != nil {
		return fmt.Errorf("failed to disconnect: %w", err)
	}
	if err := s.cache.MarkDisconnected(ctx, ownerID, platform); err != nil {
		s.logger.Warn().Err(err).Msg("failed to mark disconnected")
	}

	if s.syncLog != nil {
		s.syncLog.Append(domain.SyncLogEntry{
			IntegrationID: string(platform),
			Status:        domain.SyncWarning,
			Message:       "integration disconnected",
		})
	}
	s.logger.Info().Str("owner", ownerID).Str("platform", string(platform)).Msg("integration disconnected")
	return nil
}

// CredentialInput is the manual credential entry payload, for owners who
// configure app keys directly instead of going through OAuth.
type CredentialInput struct {
	Platform      string   `json:"platform" validate:"required,oneof=tiktok_shop tiktok_ads"`
	AppKey        string   `json:"app_key" validate:"required"`
	AppSecret     string   `json:"app_secret" validate:"required"`
	AccessToken   string   `json:"access_token" validate:"required"`
	RefreshToken  string   `json:"refresh_token"`
	AdvertiserIDs []string `json:"advertiser_ids"`
}

// SaveCredentials validates and stores a manually entered credential.
func (s *IntegrationService) SaveCredentials(ctx context.Context, ownerID string, input CredentialInput) (*domain.Credential, error) {
	if err := s.validate.Struct(input); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			return nil, &domain.ValidationError{Field: errs[0].Field(), Reason: errs[0].Tag()}
		}
		return nil, err
	}

	cred := &domain.Credential{
		OwnerID:       ownerID,
		Platform:      domain.Platform(input.Platform),
		AppKey:        input.AppKey,
		AppSecret:     input.AppSecret,
		AccessToken:   input.AccessToken,
		RefreshToken:  input.RefreshToken,
		AdvertiserIDs: input.AdvertiserIDs,
	}
	if err := s.store.Put(ctx, cred); err != nil {
		return nil, fmt.Errorf("failed to save credential: %w", err)
	}
	if err := s.cache.MarkConnected(ctx, ownerID, cred.Platform, time.Now().UTC()); err != nil {
		s.logger.Warn().Err(err).Msg("failed to mark connected")
	}

	s.logger.Info().Str("owner", ownerID).Str("platform", input.Platform).Msg("credentials saved")
	return cred, nil
}

// SyncLogs returns the bounded sync log, most recent first.
func (s *IntegrationService) SyncLogs() []domain.SyncLogEntry {
	if s.syncLog == nil {
		return nil
	}
	return s.syncLog.Entries()
}
