package domain

import "time"

// Platform identifies which TikTok API family a credential or integration
// belongs to.
type Platform string

const (
	PlatformShop Platform = "tiktok_shop"
	PlatformAds  Platform = "tiktok_ads"
)

// Credential holds the app keys and tokens required to call a TikTok API on
// behalf of a connected account.
type Credential struct {
	OwnerID       string     `json:"owner_id" bson:"ownerId"`
	Platform      Platform   `json:"platform" bson:"platform"`
	AppKey        string     `json:"app_key" bson:"appKey"`
	AppSecret     string     `json:"-" bson:"appSecret"`
	AccessToken   string     `json:"-" bson:"accessToken"`
	RefreshToken  string     `json:"-" bson:"refreshToken,omitempty"`
	AdvertiserIDs []string   `json:"advertiser_ids,omitempty" bson:"advertiserIds,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty" bson:"expiresAt,omitempty"`
	CreatedAt     time.Time  `json:"created_at" bson:"createdAt"`
	UpdatedAt     time.Time  `json:"updated_at" bson:"updatedAt"`
}

// Valid reports whether the credential can be used for a data call right now.
// An absent expiry means the token does not expire. Callers must re-check
// immediately before use rather than caching the result, since a refresh may
// land concurrently.
func (c *Credential) Valid(now time.Time) bool {
	if c == nil || c.AccessToken == "" {
		return false
	}
	if c.ExpiresAt != nil && !now.Before(*c.ExpiresAt) {
		return false
	}
	return true
}

// CanSign reports whether the credential carries the app key pair needed to
// sign Shop API requests.
func (c *Credential) CanSign() bool {
	return c != nil && c.AppKey != "" && c.AppSecret != ""
}

// TokenGrant is the result of an OAuth authorization-code exchange.
type TokenGrant struct {
	AccessToken   string
	RefreshToken  string
	ExpiresIn     int64 // seconds until the access token expires, 0 if unreported
	AdvertiserIDs []string
	SellerName    string
}
