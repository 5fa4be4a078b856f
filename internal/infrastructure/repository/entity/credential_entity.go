package entity

import (
	"time"

	"tiktok-analytics-layer/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoCredentialDoc represents a platform credential in MongoDB
type MongoCredentialDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	OwnerID       string             `bson:"ownerId"`
	Platform      string             `bson:"platform"`
	AppKey        string             `bson:"appKey"`
	AppSecret     string             `bson:"appSecret"`
	AccessToken   string             `bson:"accessToken"`
	RefreshToken  string             `bson:"refreshToken,omitempty"`
	AdvertiserIDs []string           `bson:"advertiserIds,omitempty"`
	ExpiresAt     *time.Time         `bson:"expiresAt,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoCredentialDoc) ToDomain() *domain.Credential {
	return &domain.Credential{
		OwnerID:       d.OwnerID,
		Platform:      domain.Platform(d.Platform),
		AppKey:        d.AppKey,
		AppSecret:     d.AppSecret,
		AccessToken:   d.AccessToken,
		RefreshToken:  d.RefreshToken,
		AdvertiserIDs: d.AdvertiserIDs,
		ExpiresAt:     d.ExpiresAt,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

// MongoCredentialDocFromDomain converts a domain entity to a MongoDB document
func MongoCredentialDocFromDomain(cred *domain.Credential) *MongoCredentialDoc {
	return &MongoCredentialDoc{
		OwnerID:       cred.OwnerID,
		Platform:      string(cred.Platform),
		AppKey:        cred.AppKey,
		AppSecret:     cred.AppSecret,
		AccessToken:   cred.AccessToken,
		RefreshToken:  cred.RefreshToken,
		AdvertiserIDs: cred.AdvertiserIDs,
		ExpiresAt:     cred.ExpiresAt,
		CreatedAt:     cred.CreatedAt,
		UpdatedAt:     cred.UpdatedAt,
	}
}
