package ports

import (
	"context"
	"time"

	"tiktok-analytics-layer/internal/domain"
)

// ShopClient defines the interface for TikTok Shop API operations. All data
// calls carry a signed query built from the credential's app key pair.
type ShopClient interface {
	// ExchangeToken completes the authorization-code exchange against the
	// Shop auth service. The exchange request itself is signed.
	ExchangeToken(ctx context.Context, appKey, appSecret, authCode string) (*domain.TokenGrant, error)

	GetAuthorizedShops(ctx context.Context, cred *domain.Credential) ([]domain.Shop, error)
	SearchOrders(ctx context.Context, cred *domain.Credential, shopCipher string, from, to time.Time, pageSize int) ([]domain.Order, error)
	SearchProducts(ctx context.Context, cred *domain.Credential, shopCipher string, pageSize int) ([]domain.Product, error)
}

// ReportQuery parameterizes an integrated performance report request. Empty
// fields take the platform defaults.
type ReportQuery struct {
	Range      domain.DateRange
	Dimensions []string
	Metrics    []string
	Page       int
	PageSize   int
}

// AdsClient defines the interface for TikTok Ads (business) API operations.
// Data calls authenticate with an Access-Token header; nothing is signed.
type AdsClient interface {
	// ExchangeToken completes the authorization-code exchange against the
	// business API. Unlike the Shop variant this call is not signed.
	ExchangeToken(ctx context.Context, appID, secret, authCode string) (*domain.TokenGrant, error)

	GetAdvertisers(ctx context.Context, cred *domain.Credential, page, pageSize int) ([]domain.Advertiser, error)
	GetCampaigns(ctx context.Context, cred *domain.Credential, advertiserID string, filtering map[string]string) ([]domain.Campaign, error)
	GetAdGroups(ctx context.Context, cred *domain.Credential, advertiserID string) ([]domain.AdGroup, error)
	GetAds(ctx context.Context, cred *domain.Credential, advertiserID string) ([]domain.Ad, error)
	GetReports(ctx context.Context, cred *domain.Credential, advertiserID string, q ReportQuery) ([]domain.AdReport, error)
	GetAudienceReports(ctx context.Context, cred *domain.Credential, advertiserID string, r domain.DateRange) ([]domain.AudienceReport, error)
}
