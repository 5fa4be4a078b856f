// Package cache implements the local cache of denormalized API rows on Redis.
// Each row family lives in its own hash keyed by the row's natural ID; a sync
// replaces the hash wholesale so stale rows never linger.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"tiktok-analytics-layer/internal/domain"
	"tiktok-analytics-layer/internal/ports"
)

// RedisCacheStore implements CacheStore on a Redis hash per row family.
type RedisCacheStore struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewRedisCacheStore creates a Redis-backed cache store.
func NewRedisCacheStore(client *redis.Client, logger zerolog.Logger) ports.CacheStore {
	return &RedisCacheStore{
		client: client,
		logger: logger.With().Str("component", "redis_cache").Logger(),
	}
}

func ordersKey(ownerID string) string   { return "tiktok:" + ownerID + ":orders" }
func productsKey(ownerID string) string { return "tiktok:" + ownerID + ":products" }
func adsKey(ownerID string) string      { return "tiktok:" + ownerID + ":ads" }
func statusKey(ownerID string) string   { return "tiktok:" + ownerID + ":status" }

// replaceHash atomically swaps the hash at key for the given field→JSON rows.
// An empty row set just deletes the key.
func (s *RedisCacheStore) replaceHash(ctx context.Context, key string, rows map[string]any) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	if len(rows) > 0 {
		fields := make(map[string]string, len(rows))
		for id, row := range rows {
			enc, err := json.Marshal(row)
			if err != nil {
				return fmt.Errorf("failed to encode cache row: %w", err)
			}
			fields[id] = string(enc)
		}
		pipe.HSet(ctx, key, fields)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}
	return nil
}

func (s *RedisCacheStore) readHash(ctx context.Context, key string, decode func(raw string) error) error {
	vals, err := s.client.HVals(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to read cache: %w", err)
	}
	for _, raw := range vals {
		if err := decode(raw); err != nil {
			return fmt.Errorf("failed to decode cache row: %w", err)
		}
	}
	return nil
}

// SaveOrders replaces the cached order rows for an owner.
func (s *RedisCacheStore) SaveOrders(ctx context.Context, ownerID string, rows []domain.CachedOrder) error {
	fields := make(map[string]any, len(rows))
	for _, r := range rows {
		fields[r.OrderID] = r
	}
	return s.replaceHash(ctx, ordersKey(ownerID), fields)
}

// Orders reads the cached order rows for an owner.
func (s *RedisCacheStore) Orders(ctx context.Context, ownerID string) ([]domain.CachedOrder, error) {
	var out []domain.CachedOrder
	err := s.readHash(ctx, ordersKey(ownerID), func(raw string) error {
		var row domain.CachedOrder
		if err := json.Unmarshal([]byte(raw), &row); err != nil {
			return err
		}
		out = append(out, row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SaveProducts replaces the cached product rows for an owner.
func (s *RedisCacheStore) SaveProducts(ctx context.Context, ownerID string, rows []domain.CachedProduct) error {
	fields := make(map[string]any, len(rows))
	for _, r := range rows {
		fields[r.ID] = r
	}
	return s.replaceHash(ctx, productsKey(ownerID), fields)
}

// Products reads the cached product rows for an owner.
func (s *RedisCacheStore) Products(ctx context.Context, ownerID string) ([]domain.CachedProduct, error) {
	var out []domain.CachedProduct
	err := s.readHash(ctx, productsKey(ownerID), func(raw string) error {
		var row domain.CachedProduct
		if err := json.Unmarshal([]byte(raw), &row); err != nil {
			return err
		}
		out = append(out, row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SaveAdReports replaces the cached ad-report rows for an owner.
func (s *RedisCacheStore) SaveAdReports(ctx context.Context, ownerID string, rows []domain.CachedAdRow) error {
	fields := make(map[string]any, len(rows))
	for _, r := range rows {
		fields[r.Key()] = r
	}
	return s.replaceHash(ctx, adsKey(ownerID), fields)
}

// AdReports reads the cached ad-report rows for an owner.
func (s *RedisCacheStore) AdReports(ctx context.Context, ownerID string) ([]domain.CachedAdRow, error) {
	var out []domain.CachedAdRow
	err := s.readHash(ctx, adsKey(ownerID), func(raw string) error {
		var row domain.CachedAdRow
		if err := json.Unmarshal([]byte(raw), &row); err != nil {
			return err
		}
		out = append(out, row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Status reads the connection flags; a missing record is the zero value.
func (s *RedisCacheStore) Status(ctx context.Context, ownerID string) (domain.ConnectionStatus, error) {
	raw, err := s.client.Get(ctx, statusKey(ownerID)).Result()
	if err == redis.Nil {
		return domain.ConnectionStatus{}, nil
	}
	if err != nil {
		return domain.ConnectionStatus{}, fmt.Errorf("failed to read status: %w", err)
	}

	var status domain.ConnectionStatus
	if err := json.Unmarshal([]byte(raw), &status); err != nil {
		return domain.ConnectionStatus{}, fmt.Errorf("failed to decode status: %w", err)
	}
	return status, nil
}

// MarkConnected flips the platform's connected flag and records the sync time.
// The record is read-modify-written; concurrent writers are last-wins, which
// is acceptable for a display flag.
func (s *RedisCacheStore) MarkConnected(ctx context.Context, ownerID string, platform domain.Platform, syncedAt time.Time) error {
	return s.updateStatus(ctx, ownerID, func(status *domain.ConnectionStatus) {
		switch platform {
		case domain.PlatformShop:
			status.Shop = true
		case domain.PlatformAds:
			status.Ads = true
		}
		t := syncedAt.UTC()
		status.LastSync = &t
	})
}

// MarkDisconnected clears the platform's connected flag.
func (s *RedisCacheStore) MarkDisconnected(ctx context.Context, ownerID string, platform domain.Platform) error {
	return s.updateStatus(ctx, ownerID, func(status *domain.ConnectionStatus) {
		switch platform {
		case domain.PlatformShop:
			status.Shop = false
		case domain.PlatformAds:
			status.Ads = false
		}
	})
}

func (s *RedisCacheStore) updateStatus(ctx context.Context, ownerID string, apply func(*domain.ConnectionStatus)) error {
	status, err := s.Status(ctx, ownerID)
	if err != nil {
		return err
	}
	apply(&status)

	enc, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to encode status: %w", err)
	}
	if err := s.client.Set(ctx, statusKey(ownerID), enc, 0).Err(); err != nil {
		return fmt.Errorf("failed to write status: %w", err)
	}
	return nil
}

// Clear drops every cached row and the status record for an owner.
func (s *RedisCacheStore) Clear(ctx context.Context, ownerID string) error {
	keys := []string{ordersKey(ownerID), productsKey(ownerID), adsKey(ownerID), statusKey(ownerID)}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	s.logger.Debug().Str("owner", ownerID).Int("keys", len(keys)).Msg("cleared cache")
	return nil
}
