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

// Order history window and page size used for the dashboard summary.
const (
	orderWindow   = 30 * 24 * time.Hour
	orderPageSize = 50
)

// ShopService syncs TikTok Shop data and serves the dashboard snapshot.
type ShopService struct {
	resolver *CredentialResolver
	store    ports.TokenStore
	cache    ports.CacheStore
	client   ports.ShopClient
	syncLog  ports.SyncLogStore
	logger   zerolog.Logger
	now      func() time.Time
}

// NewShopService creates a new shop service
func NewShopService(
	resolver *CredentialResolver,
	store ports.TokenStore,
	cache ports.CacheStore,
	client ports.ShopClient,
	syncLog ports.SyncLogStore,
	logger zerolog.Logger,
) *ShopService {
	return &ShopService{
		resolver: resolver,
		store:    store,
		cache:    cache,
		client:   client,
		syncLog:  syncLog,
		logger:   logger.With().Str("component", "shop_service").Logger(),
		now:      time.Now,
	}
}

// Sync pulls fresh shop data from the platform, updates the cache, and
// returns the snapshot. A rejected token invalidates the stored credential
// and surfaces ErrUnauthenticated; a transient platform failure falls back to
// the cached snapshot when one exists.
func (s *ShopService) Sync(ctx context.Context, ownerID string) (*domain.ShopSnapshot, error) {
	started := s.now()
	cred, err := s.resolver.ResolveValid(ctx, ownerID, domain.PlatformShop, started)
	if err != nil {
		return nil, err
	}

	shops, err := s.client.GetAuthorizedShops(ctx, cred)
	if err != nil {
		return s.handleSyncError(ctx, ownerID, err)
	}

	cipher := ""
	if len(shops) > 0 {
		cipher = shops[0].Cipher
	}

	now := s.now().UTC()
	var (
		wg          sync.WaitGroup
		orders      []domain.Order
		products    []domain.Product
		ordersErr   error
		productsErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		orders, ordersErr = s.client.SearchOrders(ctx, cred, cipher, now.Add(-orderWindow), now, orderPageSize)
	}()
	go func() {
		defer wg.Done()
		products, productsErr = s.client.SearchProducts(ctx, cred, cipher, orderPageSize)
	}()
	wg.Wait()

	if tiktok.IsAuthError(ordersErr) || tiktok.IsAuthError(productsErr) {
		err := ordersErr
		if !tiktok.IsAuthError(err) {
			err = productsErr
		}
		return s.handleSyncError(ctx, ownerID, err)
	}
	if ordersErr != nil && productsErr != nil {
		return s.handleSyncError(ctx, ownerID, ordersErr)
	}
	// One failed leg degrades the snapshot instead of failing the sync.
	if ordersErr != nil {
		s.logSync(domain.SyncWarning, "orders fetch failed", ordersErr.Error())
		s.logger.Warn().Err(ordersErr).Msg("orders leg failed")
	}
	if productsErr != nil {
		s.logSync(domain.SyncWarning, "products fetch failed", productsErr.Error())
		s.logger.Warn().Err(productsErr).Msg("products leg failed")
	}

	snapshot := &domain.ShopSnapshot{
		Shops:    shops,
		Orders:   orders,
		Products: products,
		Metrics:  ShopMetricsFrom(orders, products),
		SyncedAt: now,
	}

	// Cache writes are best-effort; the fresh snapshot is already in hand.
	if ordersErr == nil {
		if err := s.cache.SaveOrders(ctx, ownerID, CachedOrdersFrom(orders)); err != nil {
			s.logger.Warn().Err(err).Msg("failed to cache orders")
		}
	}
	if productsErr == nil {
		if err := s.cache.SaveProducts(ctx, ownerID, CachedProductsFrom(products)); err != nil {
			s.logger.Warn().Err(err).Msg("failed to cache products")
		}
	}
	if err := s.cache.MarkConnected(ctx, ownerID, domain.PlatformShop, now); err != nil {
		s.logger.Warn().Err(err).Msg("failed to mark shop connected")
	}

	s.logSync(domain.SyncSuccess, "sync completed",
		fmt.Sprintf("%d orders, %d products", len(orders), len(products)))
	metrics.Syncs.WithLabelValues(string(domain.PlatformShop), string(domain.SyncSuccess)).Inc()
	metrics.SyncDuration.WithLabelValues(string(domain.PlatformShop)).Observe(s.now().Sub(started).Seconds())
	return snapshot, nil
}

// handleSyncError maps an auth rejection to credential invalidation and tries
// the cached snapshot for everything else.
func (s *ShopService) handleSyncError(ctx context.Context, ownerID string, cause error) (*domain.ShopSnapshot, error) {
	metrics.Syncs.WithLabelValues(string(domain.PlatformShop), string(domain.SyncError)).Inc()

	if tiktok.IsAuthError(cause) {
		s.logger.Warn().Err(cause).Str("owner", ownerID).Msg("shop token rejected, invalidating")
		if err := s.store.Invalidate(ctx, ownerID, domain.PlatformShop); err != nil {
			s.logger.Error().Err(err).Msg("failed to invalidate shop credential")
		}
		if err := s.cache.MarkDisconnected(ctx, ownerID, domain.PlatformShop); err != nil {
			s.logger.Warn().Err(err).Msg("failed to mark shop disconnected")
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

// cachedSnapshot rebuilds a snapshot from cached rows. ok is false when the
// cache is empty or unreadable.
func (s *ShopService) cachedSnapshot(ctx context.Context, ownerID string) (*domain.ShopSnapshot, bool) {
	orders, err := s.cache.Orders(ctx, ownerID)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to read cached orders")
		return nil, false
	}
	products, err := s.cache.Products(ctx, ownerID)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to read cached products")
		return nil, false
	}
	if len(orders) == 0 && len(products) == 0 {
		return nil, false
	}

	status, err := s.cache.Status(ctx, ownerID)
	if err != nil {
		status = domain.ConnectionStatus{}
	}

	snap := &domain.ShopSnapshot{
		Metrics:   shopMetricsFromCache(orders, products),
		FromCache: true,
	}
	if status.LastSync != nil {
		snap.SyncedAt = *status.LastSync
	}
	return snap, true
}

func (s *ShopService) logSync(status domain.SyncStatus, message, details string) {
	if s.syncLog == nil {
		return
	}
	s.syncLog.Append(domain.SyncLogEntry{
		IntegrationID: string(domain.PlatformShop),
		Status:        status,
		Message:       message,
		Details:       details,
	})
}
