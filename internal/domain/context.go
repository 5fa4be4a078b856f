package domain

import "context"

// contextKey is a type for context keys to avoid collisions
type contextKey string

const ownerIDKey contextKey = "owner_id"

// DefaultOwnerID scopes data for single-tenant deployments where no
// X-Owner-ID header is supplied.
const DefaultOwnerID = "default"

// WithOwnerID adds the owner ID to the context (type-safe)
func WithOwnerID(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerIDKey, ownerID)
}

// OwnerIDFromContext extracts the owner ID from the context, falling back to
// DefaultOwnerID when absent.
func OwnerIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ownerIDKey).(string); ok && v != "" {
		return v
	}
	return DefaultOwnerID
}
