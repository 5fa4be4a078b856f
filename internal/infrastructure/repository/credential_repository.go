package repository

import (
	"context"
	"fmt"
	"time"

	"tiktok-analytics-layer/internal/domain"
	"tiktok-analytics-layer/internal/infrastructure/repository/entity"
	"tiktok-analytics-layer/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCredentialRepository implements TokenStore using MongoDB
type MongoCredentialRepository struct {
	collection *mongo.Collection
}

// NewMongoCredentialRepository creates a new MongoDB credential repository
func NewMongoCredentialRepository(db *mongo.Database) ports.TokenStore {
	return &MongoCredentialRepository{
		collection: db.Collection("tiktok_credentials"),
	}
}

// Get retrieves the credential for an owner and platform. A missing credential
// returns (nil, nil).
func (r *MongoCredentialRepository) Get(ctx context.Context, ownerID string, platform domain.Platform) (*domain.Credential, error) {
	var doc entity.MongoCredentialDoc
	filter := bson.M{
		"ownerId":  ownerID,
		"platform": string(platform),
	}

	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}

	return doc.ToDomain(), nil
}

// Put saves or replaces the credential for its owner and platform
func (r *MongoCredentialRepository) Put(ctx context.Context, cred *domain.Credential) error {
	doc := entity.MongoCredentialDocFromDomain(cred)
	doc.UpdatedAt = time.Now()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}

	opts := options.Update().SetUpsert(true)
	filter := bson.M{
		"ownerId":  doc.OwnerID,
		"platform": doc.Platform,
	}
	update := bson.M{"$set": doc}

	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}

	return nil
}

// Invalidate removes the credential; removing an absent one is not an error
func (r *MongoCredentialRepository) Invalidate(ctx context.Context, ownerID string, platform domain.Platform) error {
	filter := bson.M{
		"ownerId":  ownerID,
		"platform": string(platform),
	}

	_, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}

	return nil
}
