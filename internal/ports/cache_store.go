package ports

import (
	"context"
	"time"

	"tiktok-analytics-layer/internal/domain"
)

// CacheStore defines the interface for the local cache of denormalized API
// rows used for offline display. Writes replace the previous rows wholesale;
// all writes are best-effort from the caller's point of view.
type CacheStore interface {
	SaveOrders(ctx context.Context, ownerID string, rows []domain.CachedOrder) error
	Orders(ctx context.Context, ownerID string) ([]domain.CachedOrder, error)

	SaveProducts(ctx context.Context, ownerID string, rows []domain.CachedProduct) error
	Products(ctx context.Context, ownerID string) ([]domain.CachedProduct, error)

	SaveAdReports(ctx context.Context, ownerID string, rows []domain.CachedAdRow) error
	AdReports(ctx context.Context, ownerID string) ([]domain.CachedAdRow, error)

	// Status reads the connection flags; a missing record is the zero value.
	Status(ctx context.Context, ownerID string) (domain.ConnectionStatus, error)
	MarkConnected(ctx context.Context, ownerID string, platform domain.Platform, syncedAt time.Time) error
	MarkDisconnected(ctx context.Context, ownerID string, platform domain.Platform) error

	// Clear drops every cached row and the status record for an owner.
	Clear(ctx context.Context, ownerID string) error
}
