package tiktok

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"tiktok-analytics-layer/internal/domain"
	"tiktok-analytics-layer/internal/infrastructure/metrics"
)

const (
	defaultShopBaseURL = "https://open-api.tiktokglobalshop.com"
	defaultShopAuthURL = "https://auth.tiktok-shops.com"

	shopPlatformLabel = "tiktok_shop"
)

// ShopClient calls the TikTok Shop open API. Every data request carries a
// signed query derived from the credential's app key pair.
type ShopClient struct {
	base     string
	authBase string
	http     *Client
	now      func() time.Time
	logger   zerolog.Logger
}

// NewShopClient builds a Shop API client over the shared retry client. Empty
// base URLs take the production endpoints.
func NewShopClient(http *Client, logger zerolog.Logger, base, authBase string) *ShopClient {
	if base == "" {
		base = defaultShopBaseURL
	}
	if authBase == "" {
		authBase = defaultShopAuthURL
	}
	return &ShopClient{
		base:     base,
		authBase: authBase,
		http:     http,
		now:      time.Now,
		logger:   logger.With().Str("component", "shop_client").Logger(),
	}
}

// signedURL assembles base+path with the canonical signed query: app_key,
// timestamp, access_token, any extra parameters, and the computed sign.
func (c *ShopClient) signedURL(cred *domain.Credential, path string, extra url.Values) (string, error) {
	if !cred.CanSign() {
		return "", &domain.ValidationError{Field: "credential", Reason: "app key pair required for signed requests"}
	}

	q := url.Values{}
	q.Set("app_key", cred.AppKey)
	q.Set("timestamp", strconv.FormatInt(c.now().Unix(), 10))
	if cred.AccessToken != "" {
		q.Set("access_token", cred.AccessToken)
	}
	for k, vs := range extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	q.Set("sign", SignValues(cred.AppSecret, q))

	return c.base + path + "?" + q.Encode(), nil
}

func (c *ShopClient) get(ctx context.Context, cred *domain.Credential, operation, path string, extra url.Values, out any) error {
	rawURL, err := c.signedURL(cred, path, extra)
	if err != nil {
		return err
	}

	var env Envelope
	if err := c.http.DoJSON(ctx, http.MethodGet, rawURL, nil, nil, &env); err != nil {
		metrics.PlatformRequests.WithLabelValues(shopPlatformLabel, operation, metrics.OutcomeTransportError).Inc()
		return fmt.Errorf("%s: %w", operation, err)
	}
	if err := env.Decode(out); err != nil {
		metrics.PlatformRequests.WithLabelValues(shopPlatformLabel, operation, metrics.OutcomePlatformError).Inc()
		return fmt.Errorf("%s: %w", operation, err)
	}
	metrics.PlatformRequests.WithLabelValues(shopPlatformLabel, operation, metrics.OutcomeSuccess).Inc()
	return nil
}

// GetAuthorizedShops lists the storefronts the token is authorized for.
func (c *ShopClient) GetAuthorizedShops(ctx context.Context, cred *domain.Credential) ([]domain.Shop, error) {
	var data struct {
		Shops []domain.Shop `json:"shops"`
	}
	if err := c.get(ctx, cred, "get_authorized_shops", "/api/shop/get_authorized_shop", nil, &data); err != nil {
		return nil, err
	}
	return data.Shops, nil
}

// SearchOrders returns orders created inside [from, to] for the given shop.
func (c *ShopClient) SearchOrders(ctx context.Context, cred *domain.Credential, shopCipher string, from, to time.Time, pageSize int) ([]domain.Order, error) {
	extra := url.Values{}
	if shopCipher != "" {
		extra.Set("shop_cipher", shopCipher)
	}
	extra.Set("create_time_from", strconv.FormatInt(from.Unix(), 10))
	extra.Set("create_time_to", strconv.FormatInt(to.Unix(), 10))
	if pageSize > 0 {
		extra.Set("page_size", strconv.Itoa(pageSize))
	}

	var data struct {
		Orders []domain.Order `json:"orders"`
	}
	if err := c.get(ctx, cred, "search_orders", "/api/orders/search", extra, &data); err != nil {
		return nil, err
	}
	return data.Orders, nil
}

// SearchProducts returns the shop's product listings.
func (c *ShopClient) SearchProducts(ctx context.Context, cred *domain.Credential, shopCipher string, pageSize int) ([]domain.Product, error) {
	extra := url.Values{}
	if shopCipher != "" {
		extra.Set("shop_cipher", shopCipher)
	}
	if pageSize > 0 {
		extra.Set("page_size", strconv.Itoa(pageSize))
	}

	var data struct {
		Products []domain.Product `json:"products"`
	}
	if err := c.get(ctx, cred, "search_products", "/api/products/search", extra, &data); err != nil {
		return nil, err
	}
	return data.Products, nil
}

// ExchangeToken swaps an authorization code for an access token against the
// Shop auth service. The exchange request body is itself signed.
func (c *ShopClient) ExchangeToken(ctx context.Context, appKey, appSecret, authCode string) (*domain.TokenGrant, error) {
	if authCode == "" {
		return nil, domain.ErrMissingCode
	}

	body := map[string]string{
		"app_key":    appKey,
		"app_secret": appSecret,
		"auth_code":  authCode,
		"grant_type": "authorized_code",
	}
	body["sign"] = Sign(appSecret, body)

	var env Envelope
	if err := c.http.DoJSON(ctx, http.MethodPost, c.authBase+"/api/v2/token/get", nil, body, &env); err != nil {
		metrics.PlatformRequests.WithLabelValues(shopPlatformLabel, "exchange_token", metrics.OutcomeTransportError).Inc()
		return nil, fmt.Errorf("exchange_token: %w", err)
	}

	var data struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int64  `json:"access_token_expire_in"`
		SellerName   string `json:"seller_name"`
	}
	if err := env.Decode(&data); err != nil {
		metrics.PlatformRequests.WithLabelValues(shopPlatformLabel, "exchange_token", metrics.OutcomePlatformError).Inc()
		return nil, fmt.Errorf("exchange_token: %w", err)
	}
	metrics.PlatformRequests.WithLabelValues(shopPlatformLabel, "exchange_token", metrics.OutcomeSuccess).Inc()

	c.logger.Info().Str("seller", data.SellerName).Msg("exchanged shop authorization code")
	return &domain.TokenGrant{
		AccessToken:  data.AccessToken,
		RefreshToken: data.RefreshToken,
		ExpiresIn:    data.ExpiresIn,
		SellerName:   data.SellerName,
	}, nil
}
