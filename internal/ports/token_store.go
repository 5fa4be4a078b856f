package ports

import (
	"context"

	"tiktok-analytics-layer/internal/domain"
)

// TokenStore defines the interface for credential persistence. One credential
// exists per (owner, platform) pair.
type TokenStore interface {
	// Get retrieves the credential for an owner and platform. A missing
	// credential is (nil, nil); a non-nil error means the store itself
	// failed and must not be coerced into "disconnected".
	Get(ctx context.Context, ownerID string, platform domain.Platform) (*domain.Credential, error)

	// Put saves or replaces the credential for its owner and platform.
	Put(ctx context.Context, cred *domain.Credential) error

	// Invalidate removes the credential so the owner is prompted to
	// re-authenticate. Removing an absent credential is not an error.
	Invalidate(ctx context.Context, ownerID string, platform domain.Platform) error
}
