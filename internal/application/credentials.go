package application

import (
	"context"
	"fmt"
	"time"

	"tiktok-analytics-layer/internal/domain"
	"tiktok-analytics-layer/internal/ports"
)

// CredentialResolver chooses the credential for an owner and platform:
// the stored per-owner credential when one exists, otherwise the
// environment-configured fallback injected at startup. A store failure is
// surfaced as an infrastructure error, never coerced into "disconnected".
type CredentialResolver struct {
	store     ports.TokenStore
	fallbacks map[domain.Platform]*domain.Credential
}

// NewCredentialResolver builds a resolver over the token store. Fallback
// credentials may be nil entries; only usable ones are consulted.
func NewCredentialResolver(store ports.TokenStore, fallbacks map[domain.Platform]*domain.Credential) *CredentialResolver {
	if fallbacks == nil {
		fallbacks = map[domain.Platform]*domain.Credential{}
	}
	return &CredentialResolver{store: store, fallbacks: fallbacks}
}

// Resolve returns the credential to use, or (nil, nil) when neither a stored
// credential nor a fallback exists.
func (r *CredentialResolver) Resolve(ctx context.Context, ownerID string, platform domain.Platform) (*domain.Credential, error) {
	cred, err := r.store.Get(ctx, ownerID, platform)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve credential: %w", err)
	}
	if cred != nil {
		return cred, nil
	}

	if fb := r.fallbacks[platform]; fb != nil && fb.AccessToken != "" {
		return fb, nil
	}
	return nil, nil
}

// ResolveValid resolves and checks usability in one step, mapping an absent or
// expired credential to ErrUnauthenticated.
func (r *CredentialResolver) ResolveValid(ctx context.Context, ownerID string, platform domain.Platform, now time.Time) (*domain.Credential, error) {
	cred, err := r.Resolve(ctx, ownerID, platform)
	if err != nil {
		return nil, err
	}
	if !cred.Valid(now) {
		return nil, domain.ErrUnauthenticated
	}
	return cred, nil
}
